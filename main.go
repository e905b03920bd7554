package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	rootCmd := newRootCmd(nil, clockwork.NewRealClock(), os.Stdin, os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. A nil cfg is replaced by DefaultConfig() once flags are parsed.
func newRootCmd(cfg *Config, clock clockwork.Clock, in io.Reader, out io.Writer) *cobra.Command {
	a := &app{cfg: cfg, clock: clock, in: in, out: out}

	var verbose, noColor bool

	rootCmd := &cobra.Command{
		Use:     "medtrack",
		Short:   "medtrack - Daily medication and exercise tracker",
		Version: version,
		Long: `medtrack keeps today's medication checklist and exercise counts.
Completion state resets automatically when a new day starts; the lists themselves are kept.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd.ErrOrStderr(), verbose)
			if a.cfg == nil {
				a.cfg = DefaultConfig()
			}
			if noColor {
				a.cfg.NoColor = true
			}
			a.printer = NewPrinter(a.out, a.cfg.NoColor)
			return a.cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleStatus(cmd, args)
		},
	}

	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")

	rootCmd.AddCommand(a.statusCmd())
	rootCmd.AddCommand(a.medicationCmd())
	rootCmd.AddCommand(a.exerciseCmd())
	rootCmd.AddCommand(a.importCmd())
	rootCmd.AddCommand(a.resetCmd())
	rootCmd.AddCommand(a.reportCmd())
	rootCmd.AddCommand(a.configCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "medtrack version %s\n", version)
		},
	})

	return rootCmd
}

func setupLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}
