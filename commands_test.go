package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliHarness struct {
	t     *testing.T
	cfg   *Config
	clock *clockwork.FakeClock
}

func newCLIHarness(t *testing.T) *cliHarness {
	return &cliHarness{
		t:     t,
		cfg:   TestConfig(t.TempDir()),
		clock: clockwork.NewFakeClockAt(day(2024, 1, 2)),
	}
}

// run executes one medtrack invocation, feeding input on stdin
func (h *cliHarness) run(input string, args ...string) (string, error) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(h.cfg, h.clock, strings.NewReader(input), &out)
	cmd.SetErr(&errOut)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func (h *cliHarness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run("", args...)
	require.NoError(h.t, err, "medtrack %s", strings.Join(args, " "))
	return out
}

func (h *cliHarness) document() *TrackerDocument {
	h.t.Helper()
	return readDocument(h.t, NewFileStore(h.cfg.DataDir))
}

func TestCLIAddAndStatus(t *testing.T) {
	h := newCLIHarness(t)

	out := h.mustRun("med", "add", "Vitamin", "D")
	assert.Contains(t, out, "Added medication 'Vitamin D'")

	h.clock.Advance(time.Second)
	out = h.mustRun("ex", "add", "Squats", "--duration", "30")
	assert.Contains(t, out, "Added exercise 'Squats' (30s")

	h.mustRun("med", "add", "Magnesium")
	out = h.mustRun("med", "take", "vitamin d")
	assert.Contains(t, out, "Still to take: Magnesium")
	out = h.mustRun("med", "take", "Magnesium")
	assert.NotContains(t, out, "Still to take")
	h.mustRun("ex", "done", "Squats")
	out = h.mustRun("ex", "done", "squats")
	assert.Contains(t, out, "'Squats' done 2× today")

	out = h.mustRun()
	assert.Contains(t, out, "TODAY  2024-01-02")
	assert.Contains(t, out, "Medications (2/2 taken)")
	assert.Contains(t, out, "2× Squats (30s)")

	doc := h.document()
	require.Len(t, doc.Medications, 2)
	require.Len(t, doc.Exercises, 1)
	assert.True(t, doc.Taken(doc.Medications[0].ID))
	assert.Equal(t, 2, doc.DoneCount(doc.Exercises[0].ID))

	h.mustRun("med", "untake", "Vitamin D")
	assert.False(t, h.document().Taken(doc.Medications[0].ID))
}

func TestCLIRejectsInvalidInput(t *testing.T) {
	h := newCLIHarness(t)

	_, err := h.run("", "med", "add", "   ")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = h.run("", "ex", "add", "Squats", "--duration", "0")
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = h.run("", "ex", "add", "Squats")
	assert.Error(t, err, "duration is required")

	_, err = h.run("", "med", "take", "Aspirin")
	assert.ErrorIs(t, err, ErrNotFound)

	doc := h.document()
	assert.Empty(t, doc.Medications)
	assert.Empty(t, doc.Exercises)
}

func TestCLIDeleteAsksForConfirmation(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("med", "add", "Vitamin D")
	h.mustRun("med", "take", "Vitamin D")

	out, err := h.run("no\n", "med", "rm", "Vitamin D")
	require.NoError(t, err)
	assert.Contains(t, out, "Really delete medication 'Vitamin D'?")
	assert.Contains(t, out, "Cancelled.")
	assert.Len(t, h.document().Medications, 1)

	out, err = h.run("yes\n", "med", "rm", "Vitamin D")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted medication 'Vitamin D'")

	doc := h.document()
	assert.Empty(t, doc.Medications)
	assert.Empty(t, doc.Daily.MedicationsTaken)
}

func TestCLIDeleteExerciseWithYes(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("ex", "add", "Plank", "-d", "60")
	h.mustRun("ex", "done", "Plank")

	h.mustRun("ex", "rm", "--yes", "Plank")

	doc := h.document()
	assert.Empty(t, doc.Exercises)
	assert.Empty(t, doc.Daily.ExercisesDone)
}

func TestCLIEditExercise(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("ex", "add", "Plank", "-d", "60")

	_, err := h.run("", "ex", "edit", "Plank")
	assert.ErrorContains(t, err, "nothing to change")

	out := h.mustRun("ex", "edit", "Plank", "--duration", "90")
	assert.Contains(t, out, "'Plank' (90s)")

	out = h.mustRun("ex", "edit", "Plank", "--name", "Side plank", "--duration=-1")
	assert.Contains(t, out, "Ignoring duration -1")
	assert.Contains(t, out, "'Side plank' (90s)")

	h.mustRun("med", "add", "Vitamin D")
	h.mustRun("med", "edit", "Vitamin D", "--name", "Vitamin D3")
	assert.Equal(t, "Vitamin D3", h.document().Medications[0].Name)
}

func TestCLIStartCountsFinishedCountdown(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("ex", "add", "Plank", "-d", "3")

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := h.run("", "ex", "start", "Plank")
		done <- result{out, err}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))
	h.clock.Advance(3 * time.Second)

	var res result
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("ex start did not return")
	}
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "⏱️  Plank")
	assert.Contains(t, res.out, "'Plank' done 1× today")

	doc := h.document()
	assert.Equal(t, 1, doc.DoneCount(doc.Exercises[0].ID))
}

func TestCLINewDayResetsCounts(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("med", "add", "Vitamin D")
	h.mustRun("med", "take", "Vitamin D")

	h.clock.Advance(24 * time.Hour)
	out := h.mustRun("status")
	assert.Contains(t, out, "TODAY  2024-01-03")
	assert.Contains(t, out, "Medications (0/1 taken)")

	doc := h.document()
	assert.Equal(t, "2024-01-03", doc.Date)
	assert.Len(t, doc.Medications, 1)
	assert.Empty(t, doc.Daily.MedicationsTaken)
}

func TestCLIReset(t *testing.T) {
	h := newCLIHarness(t)

	out := h.mustRun("reset")
	assert.Contains(t, out, "Nothing recorded today.")

	h.mustRun("ex", "add", "Plank", "-d", "60")
	h.mustRun("ex", "done", "Plank")

	out, err := h.run("n\n", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")
	assert.Equal(t, 1, h.document().DoneCount(h.document().Exercises[0].ID))

	out = h.mustRun("reset", "--yes")
	assert.Contains(t, out, "Reset today's progress")
	assert.Empty(t, h.document().Daily.ExercisesDone)
}

func TestCLIImportAndNext(t *testing.T) {
	h := newCLIHarness(t)

	out := h.mustRun("ex", "next")
	assert.Contains(t, out, "No exercises yet")

	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(morningPlan), 0644))

	out = h.mustRun("import", path)
	assert.Contains(t, out, "Imported 2 medications and 1 exercises (0 skipped)")

	out = h.mustRun("import", path)
	assert.Contains(t, out, "Imported 0 medications and 0 exercises (3 skipped)")

	out = h.mustRun("ex", "next")
	assert.Contains(t, out, "Next: Squats (30s), done 0× today")
}

func TestCLIReport(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("med", "add", "Vitamin D")
	h.mustRun("ex", "add", "Squats", "-d", "30")
	h.mustRun("ex", "done", "Squats")

	out := h.mustRun("report")
	assert.Contains(t, out, "Exercise time:   30s")

	out = h.mustRun("report", "--md")
	assert.Contains(t, out, "# Daily Report - 2024-01-02")
	assert.Contains(t, out, "| Squats | 30s | 1 |")

	out = h.mustRun("report", "--html")
	assert.Contains(t, out, "<h1>Daily Report - 2024-01-02</h1>")

	_, err := h.run("", "report", "--markdown", "--html")
	assert.Error(t, err)
}

func TestCLIConfigAndVersion(t *testing.T) {
	h := newCLIHarness(t)

	out := h.mustRun("config")
	assert.Contains(t, out, "MEDTRACK CONFIGURATION")
	assert.Contains(t, out, "Backend:          file")
	assert.Contains(t, out, "Storage key:      trackerData")

	out = h.mustRun("version")
	assert.Contains(t, out, "medtrack version "+version)
}

func TestCLISQLiteBackend(t *testing.T) {
	h := newCLIHarness(t)
	h.cfg.Backend = backendSQLite

	h.mustRun("med", "add", "Vitamin D")
	out := h.mustRun("med", "take", "Vitamin D")
	assert.Contains(t, out, "Today: 1/1 taken")

	store, err := OpenStore(h.cfg, h.clock)
	require.NoError(t, err)
	defer store.Close()
	doc := readDocument(t, store)
	require.Len(t, doc.Medications, 1)
	assert.True(t, doc.Taken(doc.Medications[0].ID))
}
