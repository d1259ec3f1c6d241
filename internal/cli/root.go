package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/akolanti/pdfqa/internal/config"
	"github.com/akolanti/pdfqa/pkg/logger_i"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X github.com/akolanti/pdfqa/internal/cli.Version=..."
var Version = "dev"

type rootOptions struct {
	cfgFile string
	envFile string
	cfg     *config.Config
}

// NewRootCmd builds the command tree. Running it without a subcommand starts the server.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "pdfqa",
		Short: "Ask questions about a PDF, answered with page citations",
		Long: `pdfqa indexes a single PDF and answers questions from its content.

Example usage:
  pdfqa serve                               # HTTP API on :5000
  pdfqa ingest manual.pdf                   # build the index offline
  pdfqa ask "What is the refund window?"    # one-shot answer`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load %s: %w", opts.envFile, err)
			}
			cfg, err := config.Load(opts.cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger_i.InitWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
			opts.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "pdfqa.yaml", "config file, missing is fine")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config")

	rootCmd.AddCommand(newServeCmd(opts), newIngestCmd(opts), newAskCmd(opts))
	return rootCmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
