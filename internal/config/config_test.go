package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	chassis "github.com/ai8future/chassis-go/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	chassis.RequireMajor(5)
	os.Exit(m.Run())
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreDriverFile, cfg.StoreDriver)
	assert.Equal(t, 2*time.Minute, cfg.GenerationTimeout)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "funnelcraft.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
store_driver: sqlite
sqlite_path: /tmp/funnel.db
generation_timeout: 45s
rate_limit:
  requests_per_minute: 30
  burst: 5
llm_provider: anthropic
`), 0644))

	t.Setenv(ConfigFileEnv, path)
	t.Setenv("PORT", "9100")
	t.Setenv("LLM_API_KEY", "sk-env")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, https://app.example.com")
	t.Setenv("DEBUG_MODE", "yes")
	t.Setenv("ADMIN_ACCOUNTS", "ops1,ops2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port, "env wins over file")
	assert.Equal(t, StoreDriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "/tmp/funnel.db", cfg.SQLitePath)
	assert.Equal(t, 45*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, RateLimit{RequestsPerMinute: 30, Burst: 5}, cfg.RateLimit)
	assert.Equal(t, "anthropic", cfg.LLMProvider)
	assert.Equal(t, "sk-env", cfg.LLMConfig["api_key"])
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.DebugMode)
	assert.Equal(t, []string{"ops1", "ops2"}, cfg.AdminAccounts)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("STORE_DRIVER", "postgres")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORE_DRIVER", "")
	t.Setenv("GENERATION_TIMEOUT", "soon")
	_, err = Load()
	assert.Error(t, err)
}

func TestManager_PersistsSealedKey(t *testing.T) {
	cfg := Defaults()
	cfg.DataDir = t.TempDir()
	cfg.EncryptionKey = "test-encryption-key"
	cfg.LLMConfig["api_key"] = "sk-initial"

	m, err := NewManager(cfg)
	require.NoError(t, err)
	assert.Equal(t, "sk-initial", m.Current().LLMConfig["api_key"])

	require.NoError(t, m.UpdateLLMConfig("anthropic", map[string]string{
		"api_key":       "sk-updated",
		"default_model": "claude-sonnet-4-5",
	}))

	raw, err := os.ReadFile(filepath.Join(cfg.DataDir, "config.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sk-updated")

	var onDisk AppConfig
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, "anthropic", onDisk.LLMProvider)

	reloaded, err := NewManager(cfg)
	require.NoError(t, err)
	cur := reloaded.Current()
	assert.Equal(t, "anthropic", cur.LLMProvider)
	assert.Equal(t, "sk-updated", cur.LLMConfig["api_key"])

	cur.LLMConfig["api_key"] = "mutated"
	assert.Equal(t, "sk-updated", reloaded.Current().LLMConfig["api_key"])
}
