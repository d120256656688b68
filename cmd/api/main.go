package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/ai-studio/internal/config"
	"github.com/zhouzirui/ai-studio/internal/logging"
	"github.com/zhouzirui/ai-studio/internal/server"
	"github.com/zhouzirui/ai-studio/internal/service/backend"
	"github.com/zhouzirui/ai-studio/internal/service/chat"
	"github.com/zhouzirui/ai-studio/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	// Initialize backend gateway and conversation
	client := backend.NewClient(cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithLogger(logger))
	chatService := chat.NewService()
	ctrl := session.NewController(chatService, client, logger)

	if cfg.Watch.Enabled() {
		logger.Info("drop folder enabled", zap.String("dir", cfg.Watch.Dir))
	} else {
		logger.Info("WATCH_DIR 未配置，跳过自动上传")
	}

	if err := server.Serve(ctx, cfg, ctrl, client, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
