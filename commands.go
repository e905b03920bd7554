package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// app carries what every command needs
type app struct {
	cfg     *Config
	clock   clockwork.Clock
	in      io.Reader
	out     io.Writer
	printer *Printer
	reader  *bufio.Reader
}

// withTracker opens the store, loads today's document and runs fn
func (a *app) withTracker(ctx context.Context, fn func(t *Tracker) error) error {
	store, err := OpenStore(a.cfg, a.clock)
	if err != nil {
		return err
	}
	defer store.Close()

	tracker := NewTracker(store, a.cfg.StorageKey, a.clock)
	if _, err := tracker.Load(ctx); err != nil {
		return err
	}
	return fn(tracker)
}

// confirm asks a yes/no question on the input stream
func (a *app) confirm(question string) bool {
	if a.reader == nil {
		a.reader = bufio.NewReader(a.in)
	}
	fmt.Fprintf(a.out, "%s (yes/no): ", question)
	input, _ := a.reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "yes" || input == "y"
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show today's medications and exercises",
		Args:  cobra.NoArgs,
		RunE:  a.handleStatus,
	}
}

// handleStatus implements the 'status' command and the default action
func (a *app) handleStatus(cmd *cobra.Command, args []string) error {
	return a.withTracker(cmd.Context(), func(t *Tracker) error {
		a.printer.PrintView(RenderView(t.Document()))
		return nil
	})
}

func (a *app) medicationCmd() *cobra.Command {
	medCmd := &cobra.Command{
		Use:     "med",
		Aliases: []string{"medication"},
		Short:   "Manage medications",
	}

	medCmd.AddCommand(&cobra.Command{
		Use:   "add NAME",
		Short: "Add a medication",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTracker(cmd.Context(), func(t *Tracker) error {
				med, err := t.AddMedication(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				a.printer.Success("Added medication '%s' (#%d)", med.Name, med.ID)
				return nil
			})
		},
	})

	medCmd.AddCommand(&cobra.Command{
		Use:   "take REF",
		Short: "Mark a medication as taken today (REF is an id or a name)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.setTaken(cmd, strings.Join(args, " "), true)
		},
	})

	medCmd.AddCommand(&cobra.Command{
		Use:   "untake REF",
		Short: "Mark a medication as not taken today",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.setTaken(cmd, strings.Join(args, " "), false)
		},
	})

	editCmd := &cobra.Command{
		Use:   "edit REF",
		Short: "Rename a medication",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			return a.withTracker(cmd.Context(), func(t *Tracker) error {
				med, err := ResolveMedication(t.Document(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				if err := t.EditMedication(cmd.Context(), med.ID, name); err != nil {
					return err
				}
				a.printer.Success("Renamed medication #%d to '%s'", med.ID, strings.TrimSpace(name))
				return nil
			})
		},
	}
	editCmd.Flags().StringP("name", "n", "", "New name")
	_ = editCmd.MarkFlagRequired("name")
	medCmd.AddCommand(editCmd)

	rmCmd := &cobra.Command{
		Use:     "rm REF",
		Aliases: []string{"delete"},
		Short:   "Delete a medication",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			return a.withTracker(cmd.Context(), func(t *Tracker) error {
				med, err := ResolveMedication(t.Document(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				if !yes && !a.confirm(fmt.Sprintf("Really delete medication '%s'?", med.Name)) {
					a.printer.Info("Cancelled.")
					return nil
				}
				name, id := med.Name, med.ID
				if err := t.DeleteMedication(cmd.Context(), id); err != nil {
					return err
				}
				a.printer.Success("Deleted medication '%s'", name)
				return nil
			})
		},
	}
	rmCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	medCmd.AddCommand(rmCmd)

	return medCmd
}

func (a *app) setTaken(cmd *cobra.Command, ref string, taken bool) error {
	return a.withTracker(cmd.Context(), func(t *Tracker) error {
		med, err := ResolveMedication(t.Document(), ref)
		if err != nil {
			return err
		}
		if err := t.SetMedicationTaken(cmd.Context(), med.ID, taken); err != nil {
			return err
		}
		if taken {
			a.printer.Success("Took '%s'", med.Name)
		} else {
			a.printer.Success("Unmarked '%s'", med.Name)
		}

		view := RenderView(t.Document())
		a.printer.Info("💊 Today: %d/%d taken", view.MedicationsTaken, len(view.Medications))
		if pending := PendingMedications(t.Document()); len(pending) > 0 {
			names := make([]string, len(pending))
			for i, m := range pending {
				names[i] = m.Name
			}
			a.printer.Info("Still to take: %s", strings.Join(names, ", "))
		}
		return nil
	})
}

func (a *app) exerciseCmd() *cobra.Command {
	exCmd := &cobra.Command{
		Use:     "ex",
		Aliases: []string{"exercise"},
		Short:   "Manage exercises",
	}

	addCmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add an exercise",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			duration, _ := cmd.Flags().GetInt("duration")
			return a.withTracker(cmd.Context(), func(t *Tracker) error {
				ex, err := t.AddExercise(cmd.Context(), strings.Join(args, " "), duration)
				if err != nil {
					return err
				}
				a.printer.Success("Added exercise '%s' (%ds, #%d)", ex.Name, ex.Duration, ex.ID)
				return nil
			})
		},
	}
	addCmd.Flags().IntP("duration", "d", 0, "Duration in seconds")
	_ = addCmd.MarkFlagRequired("duration")
	exCmd.AddCommand(addCmd)

	exCmd.AddCommand(&cobra.Command{
		Use:   "done REF",
		Short: "Count one completion of an exercise without the timer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTracker(cmd.Context(), func(t *Tracker) error {
				ex, err := ResolveExercise(t.Document(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				count, err := t.IncrementExercise(cmd.Context(), ex.ID)
				if err != nil {
					return err
				}
				a.printer.Success("'%s' done %d× today", ex.Name, count)
				return nil
			})
		},
	})

	editCmd := &cobra.Command{
		Use:   "edit REF",
		Short: "Rename an exercise or change its duration",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("name") && !cmd.Flags().Changed("duration") {
				return fmt.Errorf("nothing to change: use --name and/or --duration")
			}
			return a.withTracker(cmd.Context(), func(t *Tracker) error {
				ex, err := ResolveExercise(t.Document(), strings.Join(args, " "))
				if err != nil {
					return err
				}

				name := ex.Name
				if cmd.Flags().Changed("name") {
					name, _ = cmd.Flags().GetString("name")
				}
				var duration *int
				if cmd.Flags().Changed("duration") {
					d, _ := cmd.Flags().GetInt("duration")
					if d <= 0 {
						a.printer.Info("Ignoring duration %d: must be a positive number of seconds", d)
					}
					duration = &d
				}

				id := ex.ID
				if err := t.EditExercise(cmd.Context(), id, name, duration); err != nil {
					return err
				}
				ex, _ = t.Document().Exercise(id)
				a.printer.Success("Updated exercise #%d: '%s' (%ds)", ex.ID, ex.Name, ex.Duration)
				return nil
			})
		},
	}
	editCmd.Flags().StringP("name", "n", "", "New name")
	editCmd.Flags().IntP("duration", "d", 0, "New duration in seconds")
	exCmd.AddCommand(editCmd)

	rmCmd := &cobra.Command{
		Use:     "rm REF",
		Aliases: []string{"delete"},
		Short:   "Delete an exercise",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			return a.withTracker(cmd.Context(), func(t *Tracker) error {
				ex, err := ResolveExercise(t.Document(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				if !yes && !a.confirm(fmt.Sprintf("Really delete exercise '%s'?", ex.Name)) {
					a.printer.Info("Cancelled.")
					return nil
				}
				name, id := ex.Name, ex.ID
				if err := t.DeleteExercise(cmd.Context(), id); err != nil {
					return err
				}
				a.printer.Success("Deleted exercise '%s'", name)
				return nil
			})
		},
	}
	rmCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	exCmd.AddCommand(rmCmd)

	exCmd.AddCommand(&cobra.Command{
		Use:   "start REF",
		Short: "Run the countdown for an exercise; it counts once the countdown finishes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleStart(cmd, strings.Join(args, " "))
		},
	})

	exCmd.AddCommand(&cobra.Command{
		Use:   "next",
		Short: "Suggest the exercise done the fewest times today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTracker(cmd.Context(), func(t *Tracker) error {
				ex, ok := NextExercise(t.Document())
				if !ok {
					a.printer.Info("No exercises yet. Add one with: medtrack ex add NAME --duration SECONDS")
					return nil
				}
				a.printer.Info("🏃 Next: %s (%ds), done %d× today", ex.Name, ex.Duration, t.Document().DoneCount(ex.ID))
				a.printer.Info("Start it with:\n  medtrack ex start %d", ex.ID)
				return nil
			})
		},
	})

	return exCmd
}

// handleStart implements 'ex start': Ctrl-C cancels the countdown without counting it
func (a *app) handleStart(cmd *cobra.Command, ref string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return a.withTracker(ctx, func(t *Tracker) error {
		ex, err := ResolveExercise(t.Document(), ref)
		if err != nil {
			return err
		}

		name, total := ex.Name, ex.Duration
		interactive, width := terminalWidth(a.out)
		redraw := func(remaining int) {
			line := CountdownLine(name, remaining, total, width)
			if interactive {
				fmt.Fprintf(a.out, "\r%s", line)
			} else {
				fmt.Fprintln(a.out, line)
			}
		}

		redraw(total)
		state, err := t.RunExercise(ctx, ex.ID, NewCountdown(a.clock), redraw)
		if interactive {
			fmt.Fprintln(a.out)
		}
		if err != nil {
			return err
		}

		switch state {
		case TimerFinished:
			a.printer.Success("'%s' done %d× today", name, t.Document().DoneCount(ex.ID))
		case TimerCancelled:
			a.printer.Info("⏹️  Countdown cancelled, not counted")
		}
		return nil
	})
}

// terminalWidth reports whether w is a terminal and how wide the countdown bar should be
func terminalWidth(w io.Writer) (bool, int) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false, 20
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return true, 20
	}
	return true, min(max(cols-40, 10), 40)
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE|DIR",
		Short: "Import medications and exercises from a YAML plan",
		Long: `Import medications and exercises from a YAML plan file, or every .yaml file in a directory.

    medications:
      - name: Vitamin D
    exercises:
      - name: Squats
        duration: 30

Items whose name already exists are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := LoadPlan(args[0])
			if err != nil {
				return err
			}
			return a.withTracker(cmd.Context(), func(t *Tracker) error {
				result, err := t.ImportPlan(cmd.Context(), plan)
				if err != nil {
					return err
				}
				a.printer.Success("Imported %d medications and %d exercises (%d skipped)",
					result.MedicationsAdded, result.ExercisesAdded, result.Skipped)
				return nil
			})
		},
	}
}

func (a *app) resetCmd() *cobra.Command {
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear today's taken medications and exercise counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			return a.withTracker(cmd.Context(), func(t *Tracker) error {
				view := RenderView(t.Document())
				if view.MedicationsTaken == 0 && view.ExercisesDone == 0 {
					a.printer.Info("Nothing recorded today.")
					return nil
				}

				a.printer.Info("This clears %d taken medications and %d exercise completions.",
					view.MedicationsTaken, view.ExercisesDone)
				if !yes && !a.confirm("Are you sure you want to reset today?") {
					a.printer.Info("Cancelled.")
					return nil
				}
				if err := t.ResetDay(cmd.Context()); err != nil {
					return err
				}
				a.printer.Success("Reset today's progress")
				return nil
			})
		},
	}
	resetCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return resetCmd
}

func (a *app) reportCmd() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Show today's report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			markdown, _ := cmd.Flags().GetBool("markdown")
			html, _ := cmd.Flags().GetBool("html")
			if markdown && html {
				return errors.New("--markdown and --html are mutually exclusive")
			}

			return a.withTracker(cmd.Context(), func(t *Tracker) error {
				view := RenderView(t.Document())
				switch {
				case markdown:
					fmt.Fprint(a.out, ReportMarkdown(view))
				case html:
					out, err := RenderReportHTML(ReportMarkdown(view))
					if err != nil {
						return err
					}
					fmt.Fprint(a.out, out)
				default:
					a.printer.PrintReport(view)
				}
				return nil
			})
		},
	}
	reportCmd.Flags().BoolP("markdown", "m", false, "Output report in markdown format")
	reportCmd.Flags().Bool("md", false, "Alias for --markdown")
	reportCmd.Flags().Bool("html", false, "Output report as HTML")
	reportCmd.PreRun = func(cmd *cobra.Command, args []string) {
		if md, _ := cmd.Flags().GetBool("md"); md {
			_ = cmd.Flags().Set("markdown", "true")
		}
	}
	return reportCmd
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg

			fmt.Fprintln(a.out, rule)
			fmt.Fprintln(a.out, "  MEDTRACK CONFIGURATION")
			fmt.Fprintln(a.out, rule)
			fmt.Fprintln(a.out)
			fmt.Fprintf(a.out, "Home directory:   %s\n", cfg.HomeDir)
			fmt.Fprintf(a.out, "Data directory:   %s\n", cfg.DataDir)
			fmt.Fprintf(a.out, "Backend:          %s\n", cfg.Backend)
			fmt.Fprintf(a.out, "Storage key:      %s\n", cfg.StorageKey)
			fmt.Fprintf(a.out, "Colour:           %t\n", !cfg.NoColor)
			fmt.Fprintln(a.out)

			if _, err := os.Stat(cfg.DataDir); os.IsNotExist(err) {
				fmt.Fprintln(a.out, "⚠️  Data directory does not exist yet; it is created on first use.")
				fmt.Fprintln(a.out)
				fmt.Fprintln(a.out, "To use another location, set:")
				fmt.Fprintln(a.out, "  export MEDTRACK_HOME=/path/to/medtrack")
			}
			return nil
		},
	}
}
