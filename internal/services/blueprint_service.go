// internal/services/blueprint_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Corphon/FunnelCraft/internal/errors"
	"github.com/Corphon/FunnelCraft/internal/funnel"
	"github.com/Corphon/FunnelCraft/internal/models"
	"github.com/Corphon/FunnelCraft/internal/utils"
)

// BlueprintDateLayout is how the generation date appears in the header.
const BlueprintDateLayout = "January 2, 2006"

// 生成来源
const (
	SourceTemplate = "template"
	SourceLLM      = "llm"
)

// GenerateResult is the outcome of a template generation. The document is
// always returned; SaveError is set when persisting it failed.
type GenerateResult struct {
	Document  string `json:"document"`
	Saved     bool   `json:"saved"`
	SaveError string `json:"save_error,omitempty"`
}

// BlueprintService generates, persists and parses funnel blueprints.
type BlueprintService struct {
	accounts *AccountService
	llm      *LLMService
	tasks    *TaskService
	metrics  *utils.FunnelMetrics

	// accountID -> taskID of the running LLM generation
	generating sync.Map
	genTimeout time.Duration
	now        func() time.Time
}

// NewBlueprintService 创建蓝图服务
func NewBlueprintService(accounts *AccountService, llmService *LLMService, tasks *TaskService, metrics *utils.FunnelMetrics, genTimeout time.Duration) *BlueprintService {
	if metrics == nil {
		metrics = utils.NewFunnelMetrics(nil)
	}
	if tasks == nil {
		tasks = NewTaskService()
	}
	if genTimeout <= 0 {
		genTimeout = 2 * time.Minute
	}
	return &BlueprintService{
		accounts:   accounts,
		llm:        llmService,
		tasks:      tasks,
		metrics:    metrics,
		genTimeout: genTimeout,
		now:        time.Now,
	}
}

// Tasks exposes the task tracker used for LLM generations.
func (s *BlueprintService) Tasks() *TaskService {
	return s.tasks
}

// ===== 持久化 =====

// Save overwrites the stored blueprint and marks the craft phase complete.
func (s *BlueprintService) Save(ctx context.Context, accountID, document string) error {
	return s.storeBlueprint(ctx, accountID, document, nil, "")
}

// storeBlueprint writes the document and the craft-complete flags in one
// record update. answers and authorName are recorded when given.
func (s *BlueprintService) storeBlueprint(ctx context.Context, accountID, document string, answers []string, authorName string) error {
	_, err := s.accounts.Update(ctx, accountID, func(rec *models.PhaseRecord) error {
		rec.FunnelBlueprint = document
		rec.ContentGenerated = true
		rec.Flags.FunnelCraftComplete = true
		if answers != nil {
			rec.CraftAnswers = append([]string(nil), answers...)
		}
		if authorName != "" {
			rec.AuthorName = authorName
		}
		return nil
	})
	return err
}

// Load returns the stored blueprint. An account without one is not_found.
func (s *BlueprintService) Load(ctx context.Context, accountID string) (string, error) {
	rec, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return "", err
	}
	if rec.FunnelBlueprint == "" {
		return "", apperrors.NewNotFoundError("no funnel blueprint saved for account", nil)
	}
	return rec.FunnelBlueprint, nil
}

// ===== 模板生成 =====

// GenerateFromAnswers templates the document from the nine answers and
// saves it. Saving is best effort: a storage failure is logged and reported
// in the result, and the document is still returned.
func (s *BlueprintService) GenerateFromAnswers(ctx context.Context, accountID string, answers []string, authorName string) (*GenerateResult, error) {
	if err := validateAnswers(answers); err != nil {
		return nil, err
	}

	doc := funnel.Generate(answers, authorName, s.now().Format(BlueprintDateLayout))
	result := &GenerateResult{Document: doc, Saved: true}

	if err := s.storeBlueprint(ctx, accountID, doc, answers, authorName); err != nil {
		result.Saved = false
		result.SaveError = err.Error()
		s.metrics.RecordError(string(apperrors.TypeOf(err)), "blueprint_service")
		utils.GetLogger().Warn("blueprint generated but not saved", map[string]interface{}{
			"account_id": accountID,
			"error":      err.Error(),
		})
	}
	s.metrics.RecordBlueprintGenerated(SourceTemplate, result.Saved)
	return result, nil
}

func validateAnswers(answers []string) error {
	if len(answers) != funnel.QuestionCount {
		return apperrors.NewValidationError(
			fmt.Sprintf("expected %d answers, got %d", funnel.QuestionCount, len(answers)), nil)
	}
	for i, a := range answers {
		if strings.TrimSpace(a) == "" {
			q, _ := funnel.QuestionAt(i)
			return apperrors.NewValidationError("answer for "+q.Key+" must not be empty", nil)
		}
	}
	return nil
}

// ===== 解析 =====

// Parse loads the stored blueprint and extracts the editable content.
func (s *BlueprintService) Parse(ctx context.Context, accountID string) (*models.EditableContent, error) {
	doc, err := s.Load(ctx, accountID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	content := funnel.Parse(doc)
	s.metrics.RecordParse(time.Since(start))
	return content, nil
}

// ===== LLM 生成 =====

// IsGenerating reports the running generation task for the account.
func (s *BlueprintService) IsGenerating(accountID string) (string, bool) {
	v, ok := s.generating.Load(accountID)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// StartLLMGeneration kicks off an asynchronous LLM generation and returns
// its task ID. A second request while one is running for the same account
// is rejected with a conflict.
func (s *BlueprintService) StartLLMGeneration(accountID string, answers []string, authorName string) (string, error) {
	if err := validateAnswers(answers); err != nil {
		return "", err
	}
	if s.llm == nil || !s.llm.IsReady() {
		state := "LLM service not configured"
		if s.llm != nil {
			state = s.llm.GetReadyState()
		}
		return "", apperrors.NewLLMUnavailableError(state, nil)
	}

	taskID := uuid.NewString()
	if running, loaded := s.generating.LoadOrStore(accountID, taskID); loaded {
		return "", apperrors.NewConflictError("blueprint generation already in progress (task "+running.(string)+")", nil)
	}

	tracker := s.tasks.CreateTracker(taskID, accountID)
	answersCopy := append([]string(nil), answers...)
	s.metrics.GenerationStarted()
	go s.runLLMGeneration(tracker, accountID, answersCopy, authorName)
	return taskID, nil
}

func (s *BlueprintService) runLLMGeneration(tracker *TaskTracker, accountID string, answers []string, authorName string) {
	defer s.metrics.GenerationFinished()
	defer s.generating.Delete(accountID)
	defer func() {
		if r := recover(); r != nil {
			utils.GetLogger().Error("LLM generation panicked", map[string]interface{}{
				"account_id": accountID,
				"panic":      fmt.Sprint(r),
			})
			tracker.Fail("internal error")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.genTimeout)
	defer cancel()

	tracker.UpdateProgress(10, "正在生成漏斗内容...")
	content, err := s.generateContent(ctx, answers, authorName)
	if err != nil {
		s.metrics.RecordError(string(apperrors.TypeOf(err)), "llm_generation")
		utils.GetLogger().Error("LLM blueprint generation failed", map[string]interface{}{
			"account_id": accountID,
			"task_id":    tracker.TaskID,
			"error":      err.Error(),
		})
		tracker.Fail(err.Error())
		return
	}

	tracker.UpdateProgress(80, "正在保存蓝图...")
	doc := funnel.Render(content)
	saveErr := s.storeBlueprint(ctx, accountID, doc, answers, authorName)
	s.metrics.RecordBlueprintGenerated(SourceLLM, saveErr == nil)
	if saveErr != nil {
		tracker.Fail(saveErr.Error())
		return
	}
	tracker.Complete("蓝图已生成")
}

// generateContent asks the LLM for the structured blueprint and fills any
// section it left empty from the template generator.
func (s *BlueprintService) generateContent(ctx context.Context, answers []string, authorName string) (*models.BlueprintContent, error) {
	date := s.now().Format(BlueprintDateLayout)
	// 重新生成应得到新的文案, 不读缓存
	var content models.BlueprintContent
	if err := s.llm.CreateStructuredCompletion(ctx, blueprintPrompt(answers), blueprintSystemPrompt, &content, SkipCache()); err != nil {
		return nil, err
	}

	fallback := funnel.BuildContent(answers, authorName, date)
	content.AuthorName = fallback.AuthorName
	content.Date = fallback.Date
	if content.LeadMagnet.Title == "" {
		content.LeadMagnet = fallback.LeadMagnet
	}
	if content.LandingPage.Headline == "" {
		content.LandingPage = fallback.LandingPage
	}
	if len(content.Emails) != len(funnel.EmailSendDays) {
		content.Emails = fallback.Emails
	}
	if content.SocialCapture.DMMessage == "" {
		content.SocialCapture = fallback.SocialCapture
	}
	return &content, nil
}

const blueprintSystemPrompt = `You are a direct-response copywriter for coaching businesses.
You write a complete lead-generation funnel: a lead magnet outline, landing page copy,
a four-email nurture sequence and social media capture templates.
Write in plain text without markdown inside field values. Keep single-line fields on one line.`

func blueprintPrompt(answers []string) string {
	var b strings.Builder
	b.WriteString("Coach's answers:\n")
	for i, q := range funnel.Questions() {
		fmt.Fprintf(&b, "- %s: %s\n", q.Prompt, strings.TrimSpace(answers[i]))
	}
	b.WriteString(`
Return a JSON object with this shape:
{
  "lead_magnet": {"title": "", "format": "", "intro": "", "points": [{"title": "", "content": ""}], "conclusion": "", "cta": ""},
  "landing_page": {"headline": "", "subheadline": "", "cta_button_text": "", "problem_intro": "", "pain_points": [""],
    "transformation_intro": "", "transformation_points": [""], "benefits_title": "", "benefits": [""],
    "about_headline": "", "about_subheadline": "", "about_bio": "", "final_cta_headline": "",
    "final_cta_button_text": "", "below_form_text": ""},
  "emails": [{"title": "", "day": "", "subjectLine": "", "body": ""}],
  "social_capture": {"dm_message": "", "lead_magnet_dm_message": "", "post_ctas": [{"hook": "", "content": ""}],
    "keywords": [""], "comment_replies": [""]}
}
Rules: up to 7 lead magnet points, 4 pain points, up to 5 benefits, exactly 4 emails sent
Immediately, Day 2, Day 4 and Day 7, exactly 3 post CTAs with hooks "Problem-Aware Hook",
"Aspiration Hook" and "Curiosity Hook". "dm_message" is the general reply to a comment keyword;
"lead_magnet_dm_message" is the message that delivers the lead magnet link, written differently.`)
	return b.String()
}
