// Package watcher uploads documents dropped into a folder.
package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/zhouzirui/ai-studio/internal/model/document"
	"github.com/zhouzirui/ai-studio/internal/service/session"
)

// Uploader is satisfied by *session.Controller. Dropped files bypass the
// user's draft.
type Uploader interface {
	UploadDocument(ctx context.Context, file *document.File) (*session.Pending, error)
}

// Watcher selects and uploads every accepted document created in a directory.
type Watcher struct {
	dir      string
	uploader Uploader
	logger   *zap.Logger
	settle   time.Duration
}

// New creates a watcher for dir. Nothing is observed until Run.
func New(dir string, uploader Uploader, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:      dir,
		uploader: uploader,
		logger:   logger.With(zap.String("dir", dir)),
		settle:   250 * time.Millisecond,
	}
}

// Run watches until ctx is done. Each accepted file is uploaded once per
// create event, after a short settle delay so the writer can finish.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.logger.Info("watching drop folder")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) || !document.Accepted(event.Name) {
				continue
			}
			if err := w.waitSettled(ctx); err != nil {
				return nil
			}
			w.upload(ctx, event.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) waitSettled(ctx context.Context) error {
	timer := time.NewTimer(w.settle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (w *Watcher) upload(ctx context.Context, path string) {
	file, err := document.FromPath(path)
	if err != nil {
		w.logger.Warn("skipping dropped file", zap.String("path", path), zap.Error(err))
		return
	}

	if _, err := w.uploader.UploadDocument(ctx, file); err != nil {
		w.logger.Warn("upload not dispatched", zap.String("path", path), zap.Error(err))
		return
	}
	w.logger.Info("uploading dropped file", zap.String("file", file.Name))
}
