// internal/services/config_service.go
package services

import (
	"strings"
	"sync"
	"time"

	"github.com/Corphon/FunnelCraft/internal/config"
	apperrors "github.com/Corphon/FunnelCraft/internal/errors"
	"github.com/Corphon/FunnelCraft/internal/llm"
	"github.com/Corphon/FunnelCraft/internal/utils"
)

const maxChangeHistory = 100

// ConfigChangeRecord 配置变更记录
type ConfigChangeRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	ChangedBy   string    `json:"changed_by"`
	OldProvider string    `json:"old_provider"`
	NewProvider string    `json:"new_provider"`
}

// LLMStatus is the public view of the LLM settings. The API key is masked.
type LLMStatus struct {
	Provider           string   `json:"provider"`
	Model              string   `json:"model,omitempty"`
	Ready              bool     `json:"ready"`
	State              string   `json:"state"`
	APIKey             string   `json:"api_key,omitempty"`
	AvailableProviders []string `json:"available_providers"`
}

// ConfigService applies runtime LLM configuration changes to both the
// running LLM service and config.json.
type ConfigService struct {
	manager *config.Manager
	llm     *LLMService

	mu            sync.Mutex
	changeHistory []ConfigChangeRecord
}

// NewConfigService 创建配置服务实例
func NewConfigService(manager *config.Manager, llmService *LLMService) *ConfigService {
	return &ConfigService{
		manager:       manager,
		llm:           llmService,
		changeHistory: make([]ConfigChangeRecord, 0, maxChangeHistory),
	}
}

// LLMStatus 返回当前LLM配置和就绪状态
func (s *ConfigService) LLMStatus() LLMStatus {
	cur := s.manager.Current()
	return LLMStatus{
		Provider:           cur.LLMProvider,
		Model:              cur.LLMConfig["default_model"],
		Ready:              s.llm.IsReady(),
		State:              s.llm.GetReadyState(),
		APIKey:             maskKey(cur.LLMConfig["api_key"]),
		AvailableProviders: llm.ListProviders(),
	}
}

// UpdateLLMConfig switches provider settings. The provider is initialized
// first; config.json is only written when that succeeds.
func (s *ConfigService) UpdateLLMConfig(provider string, configMap map[string]string, changedBy string) error {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return apperrors.NewValidationError("provider cannot be empty", nil)
	}
	if configMap == nil {
		configMap = map[string]string{}
	}
	if strings.TrimSpace(configMap["api_key"]) == "" {
		// 未提供新密钥时沿用当前密钥
		cur := s.manager.Current()
		if cur.LLMConfig["api_key"] == "" {
			return apperrors.NewValidationError("api_key is required", nil)
		}
		configMap["api_key"] = cur.LLMConfig["api_key"]
	}
	if configMap["default_model"] == "" {
		if model, ok := providerDefaultModels[provider]; ok {
			configMap["default_model"] = model
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.manager.Current().LLMProvider
	if err := s.llm.UpdateProvider(provider, configMap); err != nil {
		return err
	}
	if err := s.manager.UpdateLLMConfig(provider, configMap); err != nil {
		return apperrors.NewStorageError("failed to save configuration", err)
	}

	s.changeHistory = append(s.changeHistory, ConfigChangeRecord{
		Timestamp:   time.Now(),
		ChangedBy:   changedBy,
		OldProvider: old,
		NewProvider: provider,
	})
	if len(s.changeHistory) > maxChangeHistory {
		s.changeHistory = s.changeHistory[len(s.changeHistory)-maxChangeHistory:]
	}

	utils.GetLogger().Info("LLM configuration updated", map[string]interface{}{
		"old_provider": old,
		"new_provider": provider,
		"changed_by":   changedBy,
	})
	return nil
}

// GetChangeHistory 获取最近的配置变更记录，最新的在前
func (s *ConfigService) GetChangeHistory(limit int) []ConfigChangeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.changeHistory)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]ConfigChangeRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.changeHistory[i])
	}
	return out
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
