// internal/llm/providers/gemini/gemini.go
package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/Corphon/FunnelCraft/internal/llm"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

func init() {
	llm.Register("gemini", func() llm.Provider {
		return &Provider{
			models: []string{"gemini-2.5-flash", "gemini-2.5-pro"},
		}
	})
}

// Provider wraps the Gemini API client.
type Provider struct {
	client       *genai.Client
	defaultModel string
	models       []string
}

func (p *Provider) Initialize(config map[string]string) error {
	apiKey := config["api_key"]
	if apiKey == "" {
		return errors.New("gemini api密钥未提供")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("failed to create genai client: %w", err)
	}
	p.client = client

	p.defaultModel = defaultModel
	if model := config["default_model"]; model != "" {
		p.defaultModel = model
	}
	return nil
}

func (p *Provider) GetName() string {
	return "Google Gemini"
}

func (p *Provider) GetSupportedModels() []string {
	return p.models
}

func (p *Provider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if p.client == nil {
		return nil, errors.New("gemini provider not initialized")
	}
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	cfg := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(req.Temperature)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.JSONOutput {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return nil, errors.New("gemini未返回文本内容")
	}

	out := &llm.CompletionResponse{
		Text:         text,
		ModelName:    model,
		ProviderName: p.GetName(),
	}
	if len(resp.Candidates) > 0 {
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if u := resp.UsageMetadata; u != nil {
		out.PromptTokens = int(u.PromptTokenCount)
		out.OutputTokens = int(u.CandidatesTokenCount)
		out.TokensUsed = int(u.TotalTokenCount)
	}
	return out, nil
}
