// Package cmd provides the CLI commands for reviewrec.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reviewrec/internal/config"
	"reviewrec/internal/logging"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	dataPath   string
	offline    bool

	cfg *config.AppConfig
}

// NewRootCmd creates the root command for the reviewrec CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "reviewrec",
		Short: "Recommend similar reviews of the same movie",
		Long: `reviewrec indexes movie review corpora and, for a given review,
returns the most similar reviews of the same movie with short explanations.

Run 'reviewrec serve' for the HTTP API, 'reviewrec similar <id>' for a
one-off query or 'reviewrec browse' for the terminal browser.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "init" {
				return nil
			}
			return opts.load()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config YAML (default ./config.yaml or ~/.config/reviewrec/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")
	cmd.PersistentFlags().StringVar(&opts.dataPath, "data", "", "Load a single untagged CSV instead of the configured sources")
	cmd.PersistentFlags().BoolVar(&opts.offline, "offline", false, "Use static embeddings (no embedding server)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newSimilarCmd(opts))
	cmd.AddCommand(newBrowseCmd(opts))
	cmd.AddCommand(newConfigCmd())
	return cmd
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// load reads the configuration, applies flag overrides and sets up logging.
func (o *rootOptions) load() error {
	var (
		cfg *config.AppConfig
		err error
	)
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if o.dataPath != "" {
		cfg.DataPath = o.dataPath
	}
	if o.offline {
		cfg.Embedder.Type = "static"
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	o.cfg = cfg
	return nil
}
