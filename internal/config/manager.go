// internal/config/manager.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Corphon/FunnelCraft/internal/utils"
)

const apiKeyField = "api_key"

// AppConfig 保存在数据目录中的可修改配置 (config.json)
type AppConfig struct {
	LLMProvider string            `json:"llm_provider"`
	LLMConfig   map[string]string `json:"llm_config"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Manager owns config.json. LLM settings changed at runtime are written
// back there; the API key is sealed when an encryption key is configured.
type Manager struct {
	mu      sync.RWMutex
	path    string
	key     string
	current AppConfig
}

// NewManager loads config.json from cfg.DataDir, seeding it from cfg when
// the file does not exist yet.
func NewManager(cfg *Config) (*Manager, error) {
	m := &Manager{
		path: filepath.Join(cfg.DataDir, "config.json"),
		key:  cfg.EncryptionKey,
		current: AppConfig{
			LLMProvider: cfg.LLMProvider,
			LLMConfig:   copyMap(cfg.LLMConfig),
		},
	}

	data, err := os.ReadFile(m.path)
	switch {
	case err == nil:
		var saved AppConfig
		if err := json.Unmarshal(data, &saved); err != nil {
			return nil, fmt.Errorf("parse %s: %w", m.path, err)
		}
		if saved.LLMConfig == nil {
			saved.LLMConfig = map[string]string{}
		}
		key, err := utils.OpenSecret(saved.LLMConfig[apiKeyField], m.key)
		if err != nil {
			return nil, fmt.Errorf("decrypt llm api key: %w", err)
		}
		saved.LLMConfig[apiKeyField] = key
		// 文件中没有密钥时使用环境变量的密钥
		if key == "" && cfg.LLMConfig[apiKeyField] != "" {
			saved.LLMConfig[apiKeyField] = cfg.LLMConfig[apiKeyField]
		}
		if saved.LLMProvider == "" {
			saved.LLMProvider = cfg.LLMProvider
		}
		m.current = saved
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read %s: %w", m.path, err)
	}

	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// Current 返回当前配置的副本
func (m *Manager) Current() AppConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.current
	out.LLMConfig = copyMap(m.current.LLMConfig)
	return out
}

// UpdateLLMConfig 更新LLM配置并写回文件
func (m *Manager) UpdateLLMConfig(provider string, llmConfig map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current.LLMProvider = provider
	m.current.LLMConfig = copyMap(llmConfig)
	m.current.UpdatedAt = time.Now()
	return m.saveLocked()
}

func (m *Manager) save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

func (m *Manager) saveLocked() error {
	out := m.current
	out.LLMConfig = copyMap(m.current.LLMConfig)
	sealed, err := utils.SealSecret(out.LLMConfig[apiKeyField], m.key)
	if err != nil {
		return fmt.Errorf("encrypt llm api key: %w", err)
	}
	if sealed != "" {
		out.LLMConfig[apiKeyField] = sealed
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}
	return os.WriteFile(m.path, data, 0600)
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
