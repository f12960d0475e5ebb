// internal/funnel/collector.go
package funnel

import (
	"strings"

	apperrors "github.com/Corphon/FunnelCraft/internal/errors"
	"github.com/Corphon/FunnelCraft/internal/models"
)

// Collector walks the user through the craft questions, one answer per
// question. It holds local state only and is not safe for concurrent use.
type Collector struct {
	index   int
	answers []string
}

// NewCollector starts a collector at the first question.
func NewCollector() *Collector {
	return &Collector{answers: make([]string, 0, QuestionCount)}
}

// Current returns the pending question, or false once every question has
// been answered.
func (c *Collector) Current() (models.Question, bool) {
	return QuestionAt(c.index)
}

// SubmitAnswer records text as the answer to the pending question. It
// returns the next question, or done=true after the last answer.
func (c *Collector) SubmitAnswer(text string) (next *models.Question, done bool, err error) {
	if c.Done() {
		return nil, true, apperrors.NewConflictError("all questions have already been answered", nil)
	}
	if strings.TrimSpace(text) == "" {
		return nil, false, apperrors.NewValidationError("answer must not be empty", nil)
	}

	c.answers = append(c.answers, text)
	c.index++

	if q, ok := QuestionAt(c.index); ok {
		return &q, false, nil
	}
	return nil, true, nil
}

// Done reports whether all questions have been answered.
func (c *Collector) Done() bool {
	return c.index >= QuestionCount
}

// Answered returns how many answers have been recorded.
func (c *Collector) Answered() int {
	return c.index
}

// Answers returns a copy of the answers recorded so far.
func (c *Collector) Answers() []string {
	out := make([]string, len(c.answers))
	copy(out, c.answers)
	return out
}
