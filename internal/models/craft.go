// internal/models/craft.go
package models

import "time"

// Question is one prompt of the funnel-craft conversation.
type Question struct {
	Index  int    `json:"index"`
	Key    string `json:"key"`
	Prompt string `json:"prompt"`
}

// CraftSessionStatus 会话状态
type CraftSessionStatus string

const (
	CraftSessionActive    CraftSessionStatus = "active"
	CraftSessionCompleted CraftSessionStatus = "completed"
)

// CraftSession is the public view of one answer-collection run.
type CraftSession struct {
	ID           string             `json:"id"`
	AccountID    string             `json:"account_id"`
	AuthorName   string             `json:"author_name"`
	Status       CraftSessionStatus `json:"status"`
	Answered     int                `json:"answered"`
	Total        int                `json:"total"`
	NextQuestion *Question          `json:"next_question,omitempty"`
	Blueprint    string             `json:"blueprint,omitempty"`
	SaveError    string             `json:"save_error,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	LastUpdated  time.Time          `json:"last_updated"`
}
