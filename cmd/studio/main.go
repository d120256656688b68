package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	apiURL   string
	logLevel string
	logFile  string
	watchDir string
	markdown bool
)

// rootCmd starts the interactive chat when run without a subcommand
var rootCmd = &cobra.Command{
	Use:   "studio",
	Short: "AI Studio - chat with your documents",
	Long: `AI Studio is a terminal client for a retrieval-augmented chat backend.

Type a question to query the indexed documents, pick a .pdf, .txt or .md
file to upload it for indexing, or ask the backend to re-index its folder.

Run without arguments to start the interactive chat interface.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is normal; the process environment is used as is.
		_ = godotenv.Load()
	},
	RunE: runInteractive,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Send one question and print the exchange",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var uploadCmd = &cobra.Command{
	Use:   "upload [path]",
	Short: "Upload a .pdf, .txt or .md document for indexing",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ask the backend to re-index its document folder",
	Args:  cobra.NoArgs,
	RunE:  runIngest,
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the backend is reachable",
	Args:  cobra.NoArgs,
	RunE:  runPing,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the conversation over HTTP, SSE and WebSocket",
	Long: `Serves the session API on PORT (default 8080).

With --watch or WATCH_DIR set, documents created in that folder are
uploaded automatically.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "backend base URL (overrides API_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file (overrides LOG_FILE)")
	rootCmd.PersistentFlags().StringVar(&watchDir, "watch", "", "upload documents dropped into this folder (overrides WATCH_DIR)")
	rootCmd.Flags().BoolVar(&markdown, "markdown", false, "render bot replies as markdown")

	rootCmd.AddCommand(askCmd, uploadCmd, ingestCmd, pingCmd, serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
