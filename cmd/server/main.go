// cmd/server/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	chassis "github.com/ai8future/chassis-go/v5"

	"github.com/Corphon/FunnelCraft/internal/app"
	"github.com/Corphon/FunnelCraft/internal/config"
)

func main() {
	chassis.RequireMajor(5)
	log.Println("🚀 启动 FunnelCraft 服务器...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	log.Printf("✅ 配置加载完成，端口: %s，存储: %s", cfg.Port, cfg.StoreDriver)

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("❌ 初始化服务失败: %v", err)
	}
	defer application.Close()
	log.Println("✅ 所有服务初始化完成")
	log.Printf("🔗 访问地址: http://localhost:%s/health", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		log.Printf("❌ %v", err)
		application.Close()
		os.Exit(1)
	}
}
