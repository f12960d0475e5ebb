// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/FunnelCraft/internal/api"
	"github.com/Corphon/FunnelCraft/internal/auth"
	"github.com/Corphon/FunnelCraft/internal/config"
	"github.com/Corphon/FunnelCraft/internal/services"
	"github.com/Corphon/FunnelCraft/internal/storage"
	"github.com/Corphon/FunnelCraft/internal/utils"

	// LLM providers register themselves in init
	_ "github.com/Corphon/FunnelCraft/internal/llm/providers/anthropic"
	_ "github.com/Corphon/FunnelCraft/internal/llm/providers/gemini"
)

const (
	shutdownTimeout = 30 * time.Second
	cleanupInterval = 10 * time.Minute
	taskRetention   = time.Hour
	tokenLifetime   = 24 * time.Hour
)

// server is the part of *http.Server that App drives.
type server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App 持有所有服务和HTTP服务器
type App struct {
	config *config.Config

	store     storage.RecordStore
	locks     *services.LockManager
	metrics   *utils.FunnelMetrics
	llm       *services.LLMService
	tasks     *services.TaskService
	crafts    *services.CraftService
	limiter   *api.RateLimiter
	router    *gin.Engine
	server    server
	closeOnce sync.Once
}

// OpenStore returns the record store selected by cfg.StoreDriver.
func OpenStore(cfg *config.Config) (storage.RecordStore, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(cfg.DataDir, "funnelcraft.db")
		}
		return storage.NewSQLiteRecordStore(path)
	default:
		return storage.NewFileRecordStore(cfg.DataDir)
	}
}

// initLogger 初始化日志文件和级别
func initLogger(cfg *config.Config) error {
	logFile := filepath.Join(cfg.LogDir, fmt.Sprintf("funnelcraft_%s.log", time.Now().Format("2006-01-02")))
	if err := utils.InitLogger(logFile); err != nil {
		return err
	}
	utils.GetLogger().SetLogLevel(utils.ParseLogLevel(cfg.LogLevel))
	return nil
}

// New wires every service from cfg. The caller owns the returned App and
// must Close it.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("创建目录失败: %w", err)
	}
	if err := initLogger(cfg); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	logger := utils.GetLogger()

	if cfg.DebugMode {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := OpenStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("打开存储失败: %w", err)
	}
	logger.Info("✅ 存储初始化完成", map[string]interface{}{"driver": cfg.StoreDriver})

	manager, err := config.NewManager(cfg)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("初始化配置管理失败: %w", err)
	}

	tokens, err := auth.NewTokenConfig(authSecret(cfg), tokenLifetime)
	if err != nil {
		store.Close()
		return nil, err
	}

	metrics := utils.NewFunnelMetrics(nil)
	current := manager.Current()
	llmService := services.NewLLMService(current.LLMProvider, current.LLMConfig, metrics)
	if llmService.IsReady() {
		logger.Info("✅ LLM 服务就绪", map[string]interface{}{"provider": llmService.GetProviderName()})
	} else {
		logger.Warn("⚠️ LLM 服务未就绪, 仅模板生成可用", map[string]interface{}{"state": llmService.GetReadyState()})
	}

	locks := services.NewLockManager()
	tasks := services.NewTaskService()
	accounts := services.NewAccountService(store, locks)
	blueprints := services.NewBlueprintService(accounts, llmService, tasks, metrics, cfg.GenerationTimeout)
	crafts := services.NewCraftService(blueprints)
	limiter := api.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)

	router := api.SetupRouter(api.Deps{
		Accounts:       accounts,
		Blueprints:     blueprints,
		Crafts:         crafts,
		Knowledge:      services.NewKnowledgeService(accounts, llmService),
		Config:         services.NewConfigService(manager, llmService),
		Metrics:        metrics,
		Tokens:         tokens,
		AllowedOrigins: cfg.AllowedOrigins,
		AdminAccounts:  cfg.AdminAccounts,
		DebugMode:      cfg.DebugMode,
		RateLimit:      limiter,
	})

	a := &App{
		config:  cfg,
		store:   store,
		locks:   locks,
		metrics: metrics,
		llm:     llmService,
		tasks:   tasks,
		crafts:  crafts,
		limiter: limiter,
		router:  router,
	}
	a.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// authSecret falls back to the fixed development key in debug mode.
func authSecret(cfg *config.Config) string {
	if cfg.AuthSecret != "" {
		return cfg.AuthSecret
	}
	if cfg.DebugMode {
		utils.GetLogger().Warn("⚠️ 开发模式下使用固定认证密钥，生产环境请设置 AUTH_SECRET", nil)
		return auth.DevSecret
	}
	utils.GetLogger().Warn("⚠️ AUTH_SECRET 未设置, 使用随机密钥, 重启后令牌失效", nil)
	return ""
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.router
}

// GetConfig 返回启动配置
func (a *App) GetConfig() *config.Config {
	return a.config
}

// IsDebugMode 是否处于调试模式
func (a *App) IsDebugMode() bool {
	return a.config != nil && a.config.DebugMode
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	bgCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.startBackgroundTasks(bgCtx)

	errCh := make(chan error, 1)
	go func() {
		utils.GetLogger().Info("🌐 服务器启动", map[string]interface{}{"port": a.config.Port})
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("启动服务器失败: %w", err)
	case <-ctx.Done():
	}

	utils.GetLogger().Info("🛑 正在关闭服务器...", nil)
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("服务器强制关闭: %w", err)
	}
	utils.GetLogger().Info("✅ 服务器优雅关闭完成", nil)
	return nil
}

func (a *App) startBackgroundTasks(ctx context.Context) {
	a.metrics.StartMetricsCollection(ctx, 5*time.Minute)

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.cleanup()
			}
		}
	}()
}

// cleanup drops finished tasks, idle craft sessions and idle rate-limit
// buckets.
func (a *App) cleanup() {
	tasks := a.tasks.CleanupCompletedTasks(taskRetention)
	sessions := a.crafts.CleanupExpired()
	visitors := a.limiter.Cleanup()
	if tasks+sessions+visitors > 0 {
		utils.GetLogger().Debug("periodic cleanup", map[string]interface{}{
			"tasks":    tasks,
			"sessions": sessions,
			"visitors": visitors,
		})
	}
}

// Close releases the store, the lock manager and the log file.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.locks.Close()
		err = a.store.Close()
		utils.GetLogger().Close()
	})
	return err
}
