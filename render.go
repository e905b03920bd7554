package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

const rule = "═══════════════════════════════════════"

// View is the render model of one day, built from a TrackerDocument
type View struct {
	Date        string
	Medications []MedicationRow
	Exercises   []ExerciseRow

	MedicationsTaken int
	ExercisesDone    int // total completions across all exercises
	ExerciseSeconds  int // total seconds of completed countdowns
}

type MedicationRow struct {
	ID    int64
	Name  string
	Taken bool
}

type ExerciseRow struct {
	ID       int64
	Name     string
	Duration int
	Done     int
}

// RenderView builds the view of doc. It does not modify doc.
func RenderView(doc *TrackerDocument) View {
	view := View{Date: doc.Date}

	for _, med := range doc.Medications {
		taken := doc.Taken(med.ID)
		if taken {
			view.MedicationsTaken++
		}
		view.Medications = append(view.Medications, MedicationRow{ID: med.ID, Name: med.Name, Taken: taken})
	}

	for _, ex := range doc.Exercises {
		done := doc.DoneCount(ex.ID)
		view.ExercisesDone += done
		view.ExerciseSeconds += done * ex.Duration
		view.Exercises = append(view.Exercises, ExerciseRow{ID: ex.ID, Name: ex.Name, Duration: ex.Duration, Done: done})
	}

	return view
}

// AllTaken reports whether every medication has been taken
func (v View) AllTaken() bool {
	return v.MedicationsTaken == len(v.Medications)
}

// Printer writes views to a terminal
type Printer struct {
	w       io.Writer
	title   *color.Color
	ok      *color.Color
	pending *color.Color
	dim     *color.Color
}

// NewPrinter returns a printer writing to w, with colours unless noColor is set
func NewPrinter(w io.Writer, noColor bool) *Printer {
	p := &Printer{
		w:       w,
		title:   color.New(color.Bold),
		ok:      color.New(color.FgGreen),
		pending: color.New(color.FgYellow),
		dim:     color.New(color.FgHiBlack),
	}
	if noColor {
		for _, c := range []*color.Color{p.title, p.ok, p.pending, p.dim} {
			c.DisableColor()
		}
	}
	return p
}

// PrintView writes the day's checklists
func (p *Printer) PrintView(v View) {
	fmt.Fprintln(p.w, rule)
	fmt.Fprintf(p.w, "  %s\n", p.title.Sprintf("TODAY  %s", v.Date))
	fmt.Fprintln(p.w, rule)
	fmt.Fprintln(p.w)

	fmt.Fprintf(p.w, "💊 Medications (%d/%d taken)\n", v.MedicationsTaken, len(v.Medications))
	if len(v.Medications) == 0 {
		fmt.Fprintln(p.w, p.dim.Sprint("   none yet, add one with: medtrack med add NAME"))
	}
	for _, row := range v.Medications {
		box := p.pending.Sprint("[ ]")
		if row.Taken {
			box = p.ok.Sprint("[x]")
		}
		fmt.Fprintf(p.w, "   %s %s %s\n", box, row.Name, p.dim.Sprintf("#%d", row.ID))
	}
	fmt.Fprintln(p.w)

	fmt.Fprintf(p.w, "🏃 Exercises (%d done today)\n", v.ExercisesDone)
	if len(v.Exercises) == 0 {
		fmt.Fprintln(p.w, p.dim.Sprint("   none yet, add one with: medtrack ex add NAME --duration SECONDS"))
	}
	for _, row := range v.Exercises {
		count := p.pending.Sprintf("%d×", row.Done)
		if row.Done > 0 {
			count = p.ok.Sprintf("%d×", row.Done)
		}
		fmt.Fprintf(p.w, "   %s %s (%ds) %s\n", count, row.Name, row.Duration, p.dim.Sprintf("#%d", row.ID))
	}
	fmt.Fprintln(p.w)
}

// Success prints a confirmation line
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.ok.Sprint("✓"), fmt.Sprintf(format, args...))
}

// Info prints a plain line
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// CountdownLine renders one timer update: name, remaining seconds and a bar width cells wide
func CountdownLine(name string, remaining, total, width int) string {
	if width < 10 {
		width = 10
	}
	filled := 0
	if total > 0 {
		filled = (total - remaining) * width / total
	}
	filled = min(max(filled, 0), width)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("⏱️  %s %s %ds", name, bar, remaining)
}
