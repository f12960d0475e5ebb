// internal/services/craft_service.go
package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Corphon/FunnelCraft/internal/errors"
	"github.com/Corphon/FunnelCraft/internal/funnel"
	"github.com/Corphon/FunnelCraft/internal/models"
	"github.com/Corphon/FunnelCraft/internal/utils"
)

type craftSession struct {
	mu        sync.Mutex
	view      models.CraftSession
	collector *funnel.Collector
}

// CraftService runs funnel-craft conversations. Sessions live in memory;
// finishing one generates and saves the blueprint.
type CraftService struct {
	blueprints *BlueprintService

	mu       sync.RWMutex
	sessions map[string]*craftSession
	ttl      time.Duration
	now      func() time.Time
}

// NewCraftService 创建问答会话服务
func NewCraftService(blueprints *BlueprintService) *CraftService {
	return &CraftService{
		blueprints: blueprints,
		sessions:   make(map[string]*craftSession),
		ttl:        24 * time.Hour,
		now:        time.Now,
	}
}

// StartSession opens a new session for the account at the first question.
func (s *CraftService) StartSession(accountID, authorName string) (*models.CraftSession, error) {
	if accountID == "" {
		return nil, apperrors.NewValidationError("account id is required", nil)
	}
	first, _ := funnel.QuestionAt(0)
	now := s.now()
	sess := &craftSession{
		collector: funnel.NewCollector(),
		view: models.CraftSession{
			ID:           uuid.NewString(),
			AccountID:    accountID,
			AuthorName:   authorName,
			Status:       models.CraftSessionActive,
			Total:        funnel.QuestionCount,
			NextQuestion: &first,
			CreatedAt:    now,
			LastUpdated:  now,
		},
	}

	s.mu.Lock()
	s.sessions[sess.view.ID] = sess
	s.blueprints.metrics.SetCraftSessions(len(s.sessions))
	s.mu.Unlock()

	utils.GetLogger().Info("craft session started", map[string]interface{}{
		"session_id": sess.view.ID,
		"account_id": accountID,
	})
	out := sess.view
	return &out, nil
}

func (s *CraftService) lookup(accountID, sessionID string) (*craftSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok || sess.view.AccountID != accountID {
		return nil, apperrors.NewNotFoundError("craft session not found", nil)
	}
	return sess, nil
}

// GetSession returns the session's current state.
func (s *CraftService) GetSession(accountID, sessionID string) (*models.CraftSession, error) {
	sess, err := s.lookup(accountID, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := sess.view
	return &out, nil
}

// SubmitAnswer records the answer to the pending question. After the last
// answer the blueprint is generated and saved; a save failure is reported
// on the session and does not fail the call.
func (s *CraftService) SubmitAnswer(ctx context.Context, accountID, sessionID, text string) (*models.CraftSession, error) {
	sess, err := s.lookup(accountID, sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	next, done, err := sess.collector.SubmitAnswer(text)
	if err != nil {
		return nil, err
	}
	sess.view.Answered = sess.collector.Answered()
	sess.view.NextQuestion = next
	sess.view.LastUpdated = s.now()

	if done {
		result, err := s.blueprints.GenerateFromAnswers(ctx, accountID, sess.collector.Answers(), sess.view.AuthorName)
		if err != nil {
			return nil, err
		}
		sess.view.Status = models.CraftSessionCompleted
		sess.view.Blueprint = result.Document
		sess.view.SaveError = result.SaveError
	}

	out := sess.view
	return &out, nil
}

// CleanupExpired drops sessions idle for longer than the TTL.
func (s *CraftService) CleanupExpired() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		stale := sess.view.LastUpdated.Before(cutoff)
		sess.mu.Unlock()
		if stale {
			delete(s.sessions, id)
			removed++
		}
	}
	s.blueprints.metrics.SetCraftSessions(len(s.sessions))
	return removed
}
