// internal/services/knowledge_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/muesli/reflow/truncate"

	apperrors "github.com/Corphon/FunnelCraft/internal/errors"
	"github.com/Corphon/FunnelCraft/internal/models"
	"github.com/Corphon/FunnelCraft/internal/utils"
)

const (
	// MaxKnowledgeFileSize 单个上传文件大小上限
	MaxKnowledgeFileSize = 10 << 20
	maxContextSourceLen  = 12000
)

var extraneousWhitespace = regexp.MustCompile(`[ \t\f\v]+`)

// KnowledgeService stores the documents a coach uploads to train the
// assistant and derives the business context from them.
type KnowledgeService struct {
	accounts *AccountService
	llm      *LLMService
	now      func() time.Time
}

// NewKnowledgeService 创建知识库服务
func NewKnowledgeService(accounts *AccountService, llmService *LLMService) *KnowledgeService {
	return &KnowledgeService{accounts: accounts, llm: llmService, now: time.Now}
}

// Upload extracts the text of a .txt, .md or .pdf file and appends it to
// the account's knowledge base.
func (s *KnowledgeService) Upload(ctx context.Context, accountID, filename string, data []byte) (*models.KnowledgeDoc, error) {
	if len(data) == 0 {
		return nil, apperrors.NewValidationError("file is empty", nil)
	}
	if len(data) > MaxKnowledgeFileSize {
		return nil, apperrors.NewValidationError(fmt.Sprintf("file exceeds %d bytes", MaxKnowledgeFileSize), nil)
	}

	text, err := ExtractText(filename, data)
	if err != nil {
		return nil, err
	}

	doc := models.KnowledgeDoc{
		ID:         uuid.NewString(),
		Filename:   filepath.Base(filename),
		Text:       text,
		UploadedAt: s.now().UTC(),
	}
	_, err = s.accounts.Update(ctx, accountID, func(rec *models.PhaseRecord) error {
		rec.KnowledgeDocs = append(rec.KnowledgeDocs, doc)
		rec.Flags.KnowledgeBaseUploaded = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.GetLogger().Info("knowledge document uploaded", map[string]interface{}{
		"account_id": accountID,
		"filename":   doc.Filename,
		"chars":      len(text),
	})
	return &doc, nil
}

// List 返回账户的知识库文档
func (s *KnowledgeService) List(ctx context.Context, accountID string) ([]models.KnowledgeDoc, error) {
	rec, err := s.accounts.GetOrEmpty(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if rec.KnowledgeDocs == nil {
		return []models.KnowledgeDoc{}, nil
	}
	return rec.KnowledgeDocs, nil
}

// ExtractText returns the plain text of an uploaded file by extension.
func ExtractText(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".markdown":
		text := strings.TrimSpace(strings.ReplaceAll(string(data), "\r\n", "\n"))
		if text == "" {
			return "", apperrors.NewValidationError("file contains no text", nil)
		}
		return text, nil
	case ".pdf":
		return extractPDFText(data)
	default:
		return "", apperrors.NewValidationError("unsupported file type: "+filepath.Ext(filename), nil)
	}
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperrors.NewValidationError("failed to open pdf", err)
	}
	content, err := reader.GetPlainText()
	if err != nil {
		return "", apperrors.NewProcessingError("failed to extract pdf text", err)
	}

	var builder strings.Builder
	if _, err := io.Copy(&builder, content); err != nil {
		return "", apperrors.NewProcessingError("failed to read pdf text", err)
	}
	text := strings.TrimSpace(extraneousWhitespace.ReplaceAllString(builder.String(), " "))
	if text == "" {
		return "", apperrors.NewValidationError("pdf contains no extractable text", nil)
	}
	return text, nil
}

// BusinessContext 从知识库提取的业务概况
type BusinessContext struct {
	Summary        string   `json:"summary"`
	IdealClient    string   `json:"ideal_client"`
	CoreProblem    string   `json:"core_problem"`
	Offers         []string `json:"offers"`
	Differentiator string   `json:"differentiator"`
}

// ExtractBusinessContext asks the LLM to summarize the uploaded documents
// and stores the result on the account.
func (s *KnowledgeService) ExtractBusinessContext(ctx context.Context, accountID string) (*BusinessContext, error) {
	rec, err := s.accounts.GetOrEmpty(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if len(rec.KnowledgeDocs) == 0 {
		return nil, apperrors.NewValidationError("upload at least one document first", nil)
	}
	if s.llm == nil {
		return nil, apperrors.NewLLMUnavailableError("LLM service not configured", nil)
	}

	var src strings.Builder
	for _, d := range rec.KnowledgeDocs {
		fmt.Fprintf(&src, "### %s\n%s\n\n", d.Filename, d.Text)
	}
	prompt := "Summarize this coaching business from the documents below.\n" +
		`Return {"summary": "", "ideal_client": "", "core_problem": "", "offers": [""], "differentiator": ""}.` +
		"\n\n" + truncate.String(src.String(), maxContextSourceLen)

	var bc BusinessContext
	if err := s.llm.CreateStructuredCompletion(ctx, prompt, "You are a business analyst for coaching businesses.", &bc); err != nil {
		return nil, err
	}

	_, err = s.accounts.Update(ctx, accountID, func(r *models.PhaseRecord) error {
		r.BusinessContext = bc.String()
		r.Flags.BusinessContextComplete = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &bc, nil
}

// String renders the context as the labelled text stored on the record.
func (bc BusinessContext) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summary: %s\n", bc.Summary)
	fmt.Fprintf(&b, "Ideal Client: %s\n", bc.IdealClient)
	fmt.Fprintf(&b, "Core Problem: %s\n", bc.CoreProblem)
	if len(bc.Offers) > 0 {
		fmt.Fprintf(&b, "Offers: %s\n", strings.Join(bc.Offers, "; "))
	}
	if bc.Differentiator != "" {
		fmt.Fprintf(&b, "Differentiator: %s\n", bc.Differentiator)
	}
	return strings.TrimSpace(b.String())
}
