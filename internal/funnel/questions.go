// internal/funnel/questions.go
package funnel

import "github.com/Corphon/FunnelCraft/internal/models"

// Answer positions. The generator relies on this order.
const (
	AnswerProblem = iota
	AnswerQuickWin
	AnswerFormat
	AnswerTitle
	AnswerPoints
	AnswerIdealClient
	AnswerTransformation
	AnswerOffer
	AnswerObjections

	QuestionCount
)

var craftQuestions = [QuestionCount]models.Question{
	{Key: "problem", Prompt: "What is the #1 problem your ideal client is struggling with right now?"},
	{Key: "quick_win", Prompt: "What quick win could you give them in the next 24 hours to help with that problem?"},
	{Key: "format", Prompt: "What format should your lead magnet take? (e.g. checklist, guide, video series, workbook)"},
	{Key: "title", Prompt: "What would you like to call your lead magnet?"},
	{Key: "points", Prompt: "List the key points or steps your lead magnet will cover (numbered or bulleted)."},
	{Key: "ideal_client", Prompt: "Describe your ideal client in one or two sentences."},
	{Key: "transformation", Prompt: "What transformation will they experience after working with you?"},
	{Key: "offer", Prompt: "What paid offer should this funnel lead into?"},
	{Key: "objections", Prompt: "What objections or doubts stop people from taking the next step?"},
}

func init() {
	for i := range craftQuestions {
		craftQuestions[i].Index = i
	}
}

// Questions returns the fixed funnel-craft questions in order.
func Questions() []models.Question {
	out := make([]models.Question, len(craftQuestions))
	copy(out, craftQuestions[:])
	return out
}

// QuestionAt returns the question at index i.
func QuestionAt(i int) (models.Question, bool) {
	if i < 0 || i >= QuestionCount {
		return models.Question{}, false
	}
	return craftQuestions[i], true
}
