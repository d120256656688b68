// Package server runs the session API and the optional drop-folder watcher.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/ai-studio/internal/config"
	"github.com/zhouzirui/ai-studio/internal/handler"
	"github.com/zhouzirui/ai-studio/internal/service/backend"
	"github.com/zhouzirui/ai-studio/internal/service/session"
	"github.com/zhouzirui/ai-studio/internal/service/watcher"
)

const shutdownTimeout = 10 * time.Second

// drainTimeout bounds how long shutdown waits for in-flight backend requests.
var drainTimeout = shutdownTimeout

// Serve exposes ctrl over HTTP on cfg.Server.Addr and, when configured,
// uploads documents dropped into cfg.Watch.Dir. Once ctx is done it gives
// in-flight backend requests a grace period to append their replies.
func Serve(ctx context.Context, cfg *config.Config, ctrl *session.Controller, client *backend.Client, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := handler.NewRouter(ctrl, client, cfg.Server.CORSOrigins, logger)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("session API listening",
			zap.String("addr", srv.Addr),
			zap.String("backend", client.BaseURL()))
		return Run(gctx, srv)
	})
	if cfg.Watch.Enabled() {
		w := watcher.New(cfg.Watch.Dir, ctrl, logger)
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	err := g.Wait()
	Drain(ctrl, logger)
	return err
}

// Run serves srv until ctx is done, then shuts it down gracefully.
func Run(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Drain waits for in-flight actions of ctrl, but no longer than the drain
// timeout. Requests that are still hanging are abandoned.
func Drain(ctrl *session.Controller, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := ctrl.WaitContext(ctx); err != nil {
		logger.Warn("abandoning in-flight backend requests", zap.Duration("waited", drainTimeout))
	}
}
