// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	chassiscfg "github.com/ai8future/chassis-go/v5/config"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreDriverFile   = "file"
	StoreDriverSQLite = "sqlite"

	// ConfigFileEnv names the optional YAML overlay.
	ConfigFileEnv = "FUNNELCRAFT_CONFIG"
)

// Config 存储进程启动时解析出的配置
type Config struct {
	Port      string `yaml:"port"`
	DataDir   string `yaml:"data_dir"`
	LogDir    string `yaml:"log_dir"`
	LogLevel  string `yaml:"log_level"`
	DebugMode bool   `yaml:"debug_mode"`

	// 存储
	StoreDriver string `yaml:"store_driver"`
	SQLitePath  string `yaml:"sqlite_path"`

	// 安全
	AuthSecret     string   `yaml:"auth_secret"`
	EncryptionKey  string   `yaml:"encryption_key"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// AdminAccounts 可修改全局LLM配置的账户
	AdminAccounts  []string `yaml:"admin_accounts"`

	// LLM相关配置
	LLMProvider string            `yaml:"llm_provider"`
	LLMConfig   map[string]string `yaml:"llm_config"`

	RateLimit         RateLimit     `yaml:"rate_limit"`
	GenerationTimeout time.Duration `yaml:"generation_timeout"`
}

// RateLimit bounds LLM-backed endpoints per client.
type RateLimit struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// EnvOverrides lets environment variables override file values. All fields
// are optional; only non-empty values apply.
// Merge order: defaults < YAML file < env vars.
type EnvOverrides struct {
	Port              string `env:"PORT" required:"false"`
	DataDir           string `env:"DATA_DIR" required:"false"`
	LogDir            string `env:"LOG_DIR" required:"false"`
	LogLevel          string `env:"LOG_LEVEL" required:"false"`
	DebugMode         string `env:"DEBUG_MODE" required:"false"`
	StoreDriver       string `env:"STORE_DRIVER" required:"false"`
	SQLitePath        string `env:"SQLITE_PATH" required:"false"`
	AuthSecret        string `env:"AUTH_SECRET" required:"false"`
	EncryptionKey     string `env:"ENCRYPTION_KEY" required:"false"`
	AllowedOrigins    string `env:"ALLOWED_ORIGINS" required:"false"`
	AdminAccounts     string `env:"ADMIN_ACCOUNTS" required:"false"`
	LLMProvider       string `env:"LLM_PROVIDER" required:"false"`
	LLMAPIKey         string `env:"LLM_API_KEY" required:"false"`
	LLMModel          string `env:"LLM_MODEL" required:"false"`
	RateLimitRPM      string `env:"RATE_LIMIT_RPM" required:"false"`
	RateLimitBurst    string `env:"RATE_LIMIT_BURST" required:"false"`
	GenerationTimeout string `env:"GENERATION_TIMEOUT" required:"false"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Port:        "8080",
		DataDir:     "data",
		LogDir:      "logs",
		LogLevel:    "info",
		DebugMode:   false,
		StoreDriver: StoreDriverFile,
		LLMProvider: "gemini",
		LLMConfig: map[string]string{
			"default_model": "gemini-2.5-flash",
		},
		RateLimit: RateLimit{
			RequestsPerMinute: 10,
			Burst:             3,
		},
		GenerationTimeout: 2 * time.Minute,
	}
}

// Load 加载配置: .env, 可选 YAML 文件, 然后环境变量
func Load() (*Config, error) {
	// .env 是可选的
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg, chassiscfg.MustLoad[EnvOverrides]()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, env EnvOverrides) error {
	setString(&cfg.Port, env.Port)
	setString(&cfg.DataDir, env.DataDir)
	setString(&cfg.LogDir, env.LogDir)
	setString(&cfg.LogLevel, env.LogLevel)
	setString(&cfg.StoreDriver, env.StoreDriver)
	setString(&cfg.SQLitePath, env.SQLitePath)
	setString(&cfg.AuthSecret, env.AuthSecret)
	setString(&cfg.EncryptionKey, env.EncryptionKey)
	setString(&cfg.LLMProvider, env.LLMProvider)

	if env.DebugMode != "" {
		cfg.DebugMode = parseBool(env.DebugMode)
	}
	if env.AllowedOrigins != "" {
		cfg.AllowedOrigins = splitList(env.AllowedOrigins)
	}
	if env.AdminAccounts != "" {
		cfg.AdminAccounts = splitList(env.AdminAccounts)
	}

	if cfg.LLMConfig == nil {
		cfg.LLMConfig = map[string]string{}
	}
	if env.LLMAPIKey != "" {
		cfg.LLMConfig["api_key"] = env.LLMAPIKey
	}
	if env.LLMModel != "" {
		cfg.LLMConfig["default_model"] = env.LLMModel
	}

	if env.RateLimitRPM != "" {
		n, err := strconv.Atoi(env.RateLimitRPM)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPM: %w", err)
		}
		cfg.RateLimit.RequestsPerMinute = n
	}
	if env.RateLimitBurst != "" {
		n, err := strconv.Atoi(env.RateLimitBurst)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimit.Burst = n
	}
	if env.GenerationTimeout != "" {
		d, err := time.ParseDuration(env.GenerationTimeout)
		if err != nil {
			return fmt.Errorf("GENERATION_TIMEOUT: %w", err)
		}
		cfg.GenerationTimeout = d
	}
	return nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverFile, StoreDriverSQLite:
	default:
		return fmt.Errorf("unknown store driver %q (want %q or %q)", c.StoreDriver, StoreDriverFile, StoreDriverSQLite)
	}
	if c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit must be positive, got %d/min burst %d", c.RateLimit.RequestsPerMinute, c.RateLimit.Burst)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("generation timeout must be positive")
	}
	return nil
}

// EnsureDirs 确保数据和日志目录存在
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
