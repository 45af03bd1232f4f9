// Package cli implements the timelinegen command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"timelinegen/internal/engine"
)

// Version is set at build time with -ldflags.
var Version = "dev"

var (
	debugMode bool
	logLevel  string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timelinegen",
		Short: "Render milestone timelines as SVG, PNG or animated GIF",
		Long: `timelinegen lays out dated milestones on a time axis, moves colliding
labels apart and exports the result as SVG, PNG or an animated GIF.

Timelines are described in YAML, JSON, TOML or CSV.

Examples:
  timelinegen generate roadmap.yaml
  timelinegen generate events.csv --config style.yaml -f png
  timelinegen quick 2024-01-15:Kickoff 2024-06-01:Launch -o launch.svg
  timelinegen preview roadmap.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logLevel
			if debugMode {
				level = "debug"
			}
			setupLogging(cmd.ErrOrStderr(), level)
		},
	}

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newGenerateCmd(),
		newQuickCmd(),
		newPreviewCmd(),
		newStylesCmd(),
		newThemesCmd(),
		newInitCmd(),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command and reports any error on stderr.
func Execute() error {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// setupLogging installs a text logger on w and hands it to the engine.
func setupLogging(w io.Writer, level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	engine.SetLogger(logger)
}
