package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/ai-studio/internal/model/chat"
	"github.com/zhouzirui/ai-studio/internal/model/document"
)

const pingTimeout = 5 * time.Second

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newApp("")
	if err != nil {
		return err
	}
	defer a.close()

	pending, err := a.ctrl.Submit(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	_, replyErr := pending.Wait(cmd.Context())
	printTranscript(cmd.OutOrStdout(), a.ctrl.Store().Transcript())
	return replyErr
}

func runUpload(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !document.Accepted(path) {
		return fmt.Errorf("unsupported file type %q: expected one of %s",
			path, strings.Join(document.AcceptedExtensions, ", "))
	}

	a, err := newApp("")
	if err != nil {
		return err
	}
	defer a.close()

	file, err := document.FromPath(path)
	if err != nil {
		return err
	}
	pending, err := a.ctrl.UploadFile(cmd.Context(), file)
	if err != nil {
		return err
	}
	reply, err := pending.Wait(cmd.Context())
	if reply.Text != "" {
		fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
	}
	return err
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := newApp("")
	if err != nil {
		return err
	}
	defer a.close()

	reply, err := a.ctrl.Ingest(cmd.Context()).Wait(cmd.Context())
	if reply.Text != "" {
		fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
	}
	return err
}

func runPing(cmd *cobra.Command, args []string) error {
	a, err := newApp("")
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
	defer cancel()
	if err := a.client.Health(ctx); err != nil {
		return fmt.Errorf("backend at %s is unreachable: %w", a.client.BaseURL(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "backend at %s is healthy\n", a.client.BaseURL())
	return nil
}

func printTranscript(w io.Writer, messages []chat.Message) {
	for _, msg := range messages {
		fmt.Fprintf(w, "%s: %s\n", msg.Sender.Label(), msg.Text)
	}
}
