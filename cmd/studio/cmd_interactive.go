package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/ai-studio/internal/server"
	"github.com/zhouzirui/ai-studio/internal/service/watcher"
	"github.com/zhouzirui/ai-studio/internal/tui"
)

// defaultTUILogFile keeps log lines from corrupting the alternate screen.
const defaultTUILogFile = "studio.log"

func runInteractive(cmd *cobra.Command, args []string) error {
	a, err := newApp(defaultTUILogFile)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model := tui.New(ctx, a.ctrl, a.client, a.logger, tui.Options{Markdown: markdown})
	defer model.Close()

	g, gctx := errgroup.WithContext(ctx)
	if a.cfg.Watch.Enabled() {
		w := watcher.New(a.cfg.Watch.Dir, a.ctrl, a.logger)
		g.Go(func() error {
			return w.Run(gctx)
		})
	}
	g.Go(func() error {
		// Leaving the UI stops the watcher too.
		defer cancel()
		_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx)).Run()
		if err != nil && gctx.Err() != nil {
			return nil
		}
		return err
	})
	return g.Wait()
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp("")
	if err != nil {
		return err
	}
	defer a.close()

	return server.Serve(cmd.Context(), a.cfg, a.ctrl, a.client, a.logger)
}
