package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ReportMarkdown renders the day's summary as Markdown
func ReportMarkdown(v View) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Daily Report - %s\n\n", v.Date)

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- **Medications taken:** %d / %d\n", v.MedicationsTaken, len(v.Medications))
	fmt.Fprintf(&b, "- **Exercises done:** %d\n", v.ExercisesDone)
	fmt.Fprintf(&b, "- **Exercise time:** %s\n\n", formatSeconds(v.ExerciseSeconds))

	if len(v.Medications) > 0 {
		b.WriteString("## Medications\n\n")
		for _, row := range v.Medications {
			mark := " "
			if row.Taken {
				mark = "x"
			}
			fmt.Fprintf(&b, "- [%s] %s\n", mark, row.Name)
		}
		b.WriteString("\n")
	}

	if len(v.Exercises) > 0 {
		b.WriteString("## Exercises\n\n")
		b.WriteString("| Exercise | Duration | Done |\n")
		b.WriteString("|---|---|---|\n")
		for _, row := range v.Exercises {
			fmt.Fprintf(&b, "| %s | %ds | %d |\n", escapeCell(row.Name), row.Duration, row.Done)
		}
		b.WriteString("\n")
	}

	if len(v.Medications) > 0 && v.AllTaken() {
		b.WriteString("*All medications taken today.*\n")
	}

	return b.String()
}

// RenderReportHTML converts a Markdown report to HTML
func RenderReportHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("error rendering report: %w", err)
	}
	return buf.String(), nil
}

// PrintReport writes the plain-text report
func (p *Printer) PrintReport(v View) {
	p.PrintView(v)

	fmt.Fprintln(p.w, "📊 Summary:")
	fmt.Fprintf(p.w, "   Medications:     %d / %d\n", v.MedicationsTaken, len(v.Medications))
	fmt.Fprintf(p.w, "   Exercises done:  %d\n", v.ExercisesDone)
	fmt.Fprintf(p.w, "   Exercise time:   %s\n", formatSeconds(v.ExerciseSeconds))
	fmt.Fprintln(p.w)

	if len(v.Medications) > 0 && v.AllTaken() {
		fmt.Fprintln(p.w, p.ok.Sprint("✅ All medications taken today"))
	}
}

func formatSeconds(total int) string {
	if total < 60 {
		return fmt.Sprintf("%ds", total)
	}
	return fmt.Sprintf("%dm %02ds", total/60, total%60)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
