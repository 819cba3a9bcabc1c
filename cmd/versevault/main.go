package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/VerseVault/internal/app"
	"github.com/dharsanguruparan/VerseVault/internal/config"
)

var (
	verbose  bool
	jsonOut  bool
	noColour bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("versevault:"), err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versevault",
		Short: "VerseVault operator CLI",
		Long: `VerseVault CLI runs the document structuring pipeline locally, queues documents for
the worker, and inspects processing status, logs and chunk plans.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColour {
				color.NoColor = true
			}
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print every processing log entry")
	cmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print machine-readable JSON")
	cmd.PersistentFlags().BoolVar(&noColour, "no-color", false, "Disable coloured output")
	cmd.AddCommand(
		newProcessCmd(),
		newEnqueueCmd(),
		newStatusCmd(),
		newLogsCmd(),
		newChunksCmd(),
	)
	return cmd
}

// loadEnv reads configuration and builds the CLI logger. The logger stays
// quiet unless --verbose is set so it does not fight the progress bar.
func loadEnv() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	level := "warn"
	if verbose {
		level = cfg.LogLevel
	}
	return cfg, app.NewLogger(level, false), nil
}
