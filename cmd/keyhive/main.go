// Command keyhive drives the modal key dispatch engine: interactively in a
// terminal, or headless for scripting and inspecting mappings and macros.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/keyhive/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	config   string
	logFile  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "keyhive",
		Short: "Modal keyboard dispatch engine",
		Long: `keyhive resolves key sequences against a stack of modes and prioritized
mapping hives, with counts, argument and motion bindings, pass-through
modes and macro recording.

Examples:
  keyhive run                          # Interactive session in the terminal
  keyhive feed 3dw                     # Trace how keys are dispatched
  keyhive maps -m n --fuzzy rec        # List normal-mode mappings
  keyhive macros list                  # Show stored macros`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&g.config, "config", "c", "", "Settings file (TOML)")
	root.PersistentFlags().StringVar(&g.logFile, "log", "", "Write logs to this file instead of stderr")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the settings file")

	root.AddCommand(newRunCmd(g))
	root.AddCommand(newFeedCmd(g))
	root.AddCommand(newMapsCmd(g))
	root.AddCommand(newMacrosCmd(g))
	return root
}

// newEngine builds an engine from the global flags. Logs go to the --log
// file, or to logOut without one. The returned closer releases the engine
// and the log file.
func newEngine(g *globalFlags, logOut io.Writer, opts app.Options) (*app.Engine, func() error, error) {
	out := logOut
	var logFile *os.File
	if g.logFile != "" {
		f, err := os.OpenFile(g.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		out = f
	}

	if g.logLevel != "" {
		cfg := app.DefaultLoggerConfig()
		cfg.Level = app.ParseLogLevel(g.logLevel)
		cfg.Output = out
		opts.Logger = app.NewLogger(cfg)
	}
	opts.ConfigPath = g.config

	e, err := app.New(opts)
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, nil, err
	}
	if opts.Logger == nil {
		e.Logger().SetOutput(out)
	}
	closer := func() error {
		err := e.Close()
		if logFile != nil {
			logFile.Close()
		}
		return err
	}
	return e, closer, nil
}
