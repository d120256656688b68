package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/zhouzirui/ai-studio/internal/config"
	"github.com/zhouzirui/ai-studio/internal/logging"
	"github.com/zhouzirui/ai-studio/internal/server"
	"github.com/zhouzirui/ai-studio/internal/service/backend"
	chatservice "github.com/zhouzirui/ai-studio/internal/service/chat"
	"github.com/zhouzirui/ai-studio/internal/service/session"
)

// app holds the wiring shared by every command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	client *backend.Client
	ctrl   *session.Controller
}

// applyFlags lets command-line flags take precedence over the environment.
func applyFlags() error {
	overrides := map[string]string{
		"API_URL":   apiURL,
		"LOG_LEVEL": logLevel,
		"LOG_FILE":  logFile,
		"WATCH_DIR": watchDir,
	}
	for key, value := range overrides {
		if value == "" {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
	}
	return nil
}

// newApp loads configuration and builds the conversation stack. When no log
// file is configured, defaultLogFile is used so logs stay out of the way of
// terminal output.
func newApp(defaultLogFile string) (*app, error) {
	if err := applyFlags(); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Log.File == "" {
		cfg.Log.File = defaultLogFile
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)

	client := backend.NewClient(cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithLogger(logger))

	return &app{
		cfg:    cfg,
		logger: logger,
		client: client,
		ctrl:   session.NewController(chatservice.NewService(), client, logger),
	}, nil
}

// close waits a bounded time for outstanding replies and flushes the logger.
func (a *app) close() {
	server.Drain(a.ctrl, a.logger)
	_ = a.logger.Sync()
}
