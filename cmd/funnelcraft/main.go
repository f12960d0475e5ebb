// cmd/funnelcraft/main.go
package main

import (
	"fmt"
	"os"
	"time"

	chassis "github.com/ai8future/chassis-go/v5"
	"github.com/mattn/go-isatty"

	"github.com/Corphon/FunnelCraft/internal/app"
	"github.com/Corphon/FunnelCraft/internal/auth"
	"github.com/Corphon/FunnelCraft/internal/cli"
	"github.com/Corphon/FunnelCraft/internal/config"
	"github.com/Corphon/FunnelCraft/internal/services"
	"github.com/Corphon/FunnelCraft/internal/utils"
)

func main() {
	chassis.RequireMajor(5)
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	// 命令行输出保持干净
	utils.GetLogger().Enable(false)

	store, err := app.OpenStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	locks := services.NewLockManager()
	defer locks.Close()

	metrics := utils.NewFunnelMetrics(nil)
	accounts := services.NewAccountService(store, locks)
	blueprints := services.NewBlueprintService(accounts, nil, services.NewTaskService(), metrics, cfg.GenerationTimeout)

	secret := cfg.AuthSecret
	if secret == "" && cfg.DebugMode {
		secret = auth.DevSecret
	}
	var tokens *auth.TokenConfig
	if secret != "" {
		if tokens, err = auth.NewTokenConfig(secret, 24*time.Hour); err != nil {
			return err
		}
	}

	root := cli.NewRootCmd(&cli.App{
		Accounts:   accounts,
		Blueprints: blueprints,
		Tokens:     tokens,
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	})
	return root.Execute()
}
