// internal/services/llm_service.go
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	apperrors "github.com/Corphon/FunnelCraft/internal/errors"
	"github.com/Corphon/FunnelCraft/internal/llm"
	"github.com/Corphon/FunnelCraft/internal/utils"
)

var providerDefaultModels = map[string]string{
	"anthropic": "claude-haiku-4-5",
	"gemini":    "gemini-2.5-flash",
}

// LLMService 提供统一的大语言模型调用接口
type LLMService struct {
	providerMutex      sync.RWMutex
	provider           llm.Provider
	providerName       string
	activeDefaultModel string
	readyState         string

	cache   *LLMCache
	metrics *utils.FunnelMetrics
}

// LLMCache keeps raw completion text keyed by a hash of the request.
type LLMCache struct {
	cache      map[string]*CacheEntry
	mutex      sync.RWMutex
	expiration time.Duration
	maxEntries int
}

type CacheEntry struct {
	Text      string
	CreatedAt time.Time
}

func newLLMCache() *LLMCache {
	return &LLMCache{
		cache:      make(map[string]*CacheEntry),
		expiration: 30 * time.Minute,
		maxEntries: 500,
	}
}

// NewLLMService builds a service for providerName. A missing key or a failed
// provider initialization leaves the service in a not-ready state instead of
// failing startup.
func NewLLMService(providerName string, cfg map[string]string, metrics *utils.FunnelMetrics) *LLMService {
	s := &LLMService{
		readyState: "Uninitialized",
		cache:      newLLMCache(),
		metrics:    metrics,
	}
	if s.metrics == nil {
		s.metrics = utils.NewFunnelMetrics(nil)
	}

	switch {
	case providerName == "":
		s.readyState = "LLM provider not configured"
	case cfg["api_key"] == "":
		s.providerName = providerName
		s.readyState = "API key not configured"
	default:
		if err := s.UpdateProvider(providerName, cfg); err != nil {
			utils.GetLogger().Warn("LLM provider initialization failed", map[string]interface{}{
				"provider": providerName,
				"error":    err.Error(),
			})
		}
	}
	return s
}

// NewLLMServiceWithProvider wires an already initialized provider.
func NewLLMServiceWithProvider(name string, provider llm.Provider, metrics *utils.FunnelMetrics) *LLMService {
	s := NewLLMService("", nil, metrics)
	s.provider = provider
	s.providerName = name
	s.readyState = "Ready"
	return s
}

// IsReady 返回服务是否已就绪
func (s *LLMService) IsReady() bool {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.provider != nil
}

// GetReadyState 返回服务就绪状态描述
func (s *LLMService) GetReadyState() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.readyState
}

// GetProviderName 当前提供者名称
func (s *LLMService) GetProviderName() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.providerName
}

// UpdateProvider 切换提供商并清空缓存
func (s *LLMService) UpdateProvider(providerName string, cfg map[string]string) error {
	provider, err := llm.GetProvider(providerName, cfg)

	s.providerMutex.Lock()
	defer s.providerMutex.Unlock()
	if err != nil {
		s.provider = nil
		s.providerName = providerName
		s.readyState = fmt.Sprintf("Configuration failed: %v", err)
		return apperrors.NewValidationError("invalid LLM configuration", err)
	}

	s.provider = provider
	s.providerName = providerName
	s.activeDefaultModel = strings.TrimSpace(cfg["default_model"])
	s.readyState = "Ready"
	s.cache = newLLMCache()
	return nil
}

// resolveModel 根据配置确定应使用的模型
func (s *LLMService) resolveModel() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()

	if s.activeDefaultModel != "" {
		return s.activeDefaultModel
	}
	if model, ok := providerDefaultModels[s.providerName]; ok {
		return model
	}
	if s.provider != nil {
		if models := s.provider.GetSupportedModels(); len(models) > 0 {
			return models[0]
		}
	}
	return ""
}

func (s *LLMService) snapshot() (llm.Provider, string, *LLMCache) {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.provider, s.providerName, s.cache
}

// CompletionOption adjusts a single completion call.
type CompletionOption func(*completionOptions)

type completionOptions struct {
	skipCache bool
}

// SkipCache always calls the provider. The fresh answer still replaces the
// cached one.
func SkipCache() CompletionOption {
	return func(o *completionOptions) { o.skipCache = true }
}

// CompleteText sends one prompt and returns the completion text. Identical
// requests within the cache window are answered from the cache unless
// SkipCache is given.
func (s *LLMService) CompleteText(ctx context.Context, prompt, systemPrompt string, opts ...CompletionOption) (string, error) {
	return s.complete(ctx, llm.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
		Temperature:  0.7,
	}, opts)
}

func (s *LLMService) complete(ctx context.Context, req llm.CompletionRequest, opts []CompletionOption) (string, error) {
	var o completionOptions
	for _, opt := range opts {
		opt(&o)
	}

	provider, providerName, cache := s.snapshot()
	if provider == nil {
		return "", apperrors.NewLLMUnavailableError("LLM service not ready: "+s.GetReadyState(), nil)
	}
	req.Model = s.resolveModel()

	key := cacheKey(providerName, req)
	if text, ok := cache.get(key); ok && !o.skipCache {
		utils.GetLogger().Debug("LLM cache hit", map[string]interface{}{"cache_key_prefix": key[:8]})
		return text, nil
	}

	start := time.Now()
	resp, err := provider.CompleteText(ctx, req)
	tokens := 0
	if resp != nil {
		tokens = resp.TokensUsed
	}
	s.metrics.RecordLLMRequest(providerName, req.Model, tokens, time.Since(start), err)
	if err != nil {
		if ctx.Err() != nil {
			return "", apperrors.NewTimeoutError("LLM request cancelled or timed out", err)
		}
		return "", apperrors.NewProcessingError("LLM request failed", err)
	}

	cache.put(key, resp.Text)
	return resp.Text, nil
}

// CreateStructuredCompletion asks for a JSON answer and decodes it into out.
func (s *LLMService) CreateStructuredCompletion(ctx context.Context, prompt, systemPrompt string, out interface{}, opts ...CompletionOption) error {
	structured := systemPrompt
	if structured != "" {
		structured += "\n\n"
	}
	structured += "Return your response in valid JSON format, following the provided output schema, without adding explanations or preambles."

	text, err := s.complete(ctx, llm.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: structured,
		Temperature:  0.3,
		JSONOutput:   true,
	}, opts)
	if err != nil {
		return err
	}

	cleaned := cleanJSONString(text)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return apperrors.NewProcessingError("failed to parse AI response into structured data", err)
	}
	return nil
}

// ===== 缓存 =====

func cacheKey(providerName string, req llm.CompletionRequest) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s:::%s:::%s:::%s:::%.2f:::%t",
		providerName, req.Model, req.SystemPrompt, req.Prompt, req.Temperature, req.JSONOutput)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *LLMCache) get(key string) (string, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, ok := c.cache[key]
	if !ok || time.Since(entry.CreatedAt) > c.expiration {
		return "", false
	}
	return entry.Text, true
}

func (c *LLMCache) put(key, text string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache[key] = &CacheEntry{Text: text, CreatedAt: time.Now()}
	if len(c.cache) > c.maxEntries {
		c.evictOldestLocked(len(c.cache) - c.maxEntries + c.maxEntries/10)
	}
}

func (c *LLMCache) evictOldestLocked(count int) {
	keys := make([]string, 0, len(c.cache))
	for k := range c.cache {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.cache[keys[i]].CreatedAt.Before(c.cache[keys[j]].CreatedAt)
	})
	for _, k := range keys[:min(count, len(keys))] {
		delete(c.cache, k)
	}
}

// ===== JSON 清洗 =====

var jsonNoiseReplacer = strings.NewReplacer(
	"```json", "",
	"```", "",
	"\ufeff", "",
	"\u00a0", " ",
	"\u2028", "\n",
	"\u2029", "\n",
)

// cleanJSONString 去除模型输出中 JSON 前后的多余内容
func cleanJSONString(s string) string {
	s = strings.TrimSpace(jsonNoiseReplacer.Replace(s))

	// 移除零宽字符及除换行/制表符外的控制字符
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
			return -1
		}
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)

	start := strings.IndexAny(s, "[{")
	if start == -1 {
		return s
	}
	s = s[start:]
	openCh, closeCh := s[0], byte('}')
	if openCh == '[' {
		closeCh = ']'
	}

	// 括号计数，跳过字符串内的内容
	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == openCh:
			depth++
		case ch == closeCh:
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}

	if end := strings.LastIndexByte(s, closeCh); end != -1 {
		return s[:end+1]
	}
	return s
}
