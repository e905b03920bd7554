package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/jonboulle/clockwork"
)

const dateLayout = "2006-01-02"

var (
	ErrEmptyName       = errors.New("name must not be empty")
	ErrInvalidDuration = errors.New("duration must be a positive number of seconds")
	ErrNotFound        = errors.New("item not found")
)

// Tracker owns the day's TrackerDocument. Every successful mutation is
// persisted immediately; a rejected mutation changes nothing and writes nothing.
type Tracker struct {
	store KVStore
	key   string
	clock clockwork.Clock
	doc   *TrackerDocument
}

// NewTracker creates a tracker over store. Call Load before anything else.
func NewTracker(store KVStore, key string, clock clockwork.Clock) *Tracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Tracker{store: store, key: key, clock: clock}
}

// Today returns the current local calendar day as YYYY-MM-DD
func (t *Tracker) Today() string {
	return t.clock.Now().Format(dateLayout)
}

// Document returns the in-memory document. Callers must not modify it; each
// successful mutation replaces it, so re-read after mutating.
func (t *Tracker) Document() *TrackerDocument {
	return t.doc
}

// Load reads the stored document, creating a fresh one if there is none or it
// cannot be parsed, and applies the daily reset if it is from another day.
func (t *Tracker) Load(ctx context.Context) (*TrackerDocument, error) {
	today := t.Today()

	data, ok, err := t.store.Get(ctx, t.key)
	if err != nil {
		return nil, fmt.Errorf("error loading tracker data: %w", err)
	}

	if !ok {
		slog.Debug("No stored document, starting fresh", "date", today)
		return t.fresh(ctx, today)
	}

	var doc TrackerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("Stored document is corrupt, starting fresh", "key", t.key, "error", err)
		return t.fresh(ctx, today)
	}
	doc.normalize()

	if doc.Date == today {
		t.doc = &doc
		return t.doc, nil
	}

	slog.Info("New day, resetting daily state", "from", doc.Date, "to", today)
	doc.Date = today
	doc.Daily = newDailyState()
	if err := t.commit(ctx, &doc); err != nil {
		return nil, err
	}
	return t.doc, nil
}

func (t *Tracker) fresh(ctx context.Context, today string) (*TrackerDocument, error) {
	if err := t.commit(ctx, newDocument(today)); err != nil {
		return nil, err
	}
	return t.doc, nil
}

// commit stores next and makes it the in-memory document. On error the
// in-memory document is left as it was, matching what is stored.
func (t *Tracker) commit(ctx context.Context, next *TrackerDocument) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("error encoding tracker data: %w", err)
	}
	if err := t.store.Set(ctx, t.key, data); err != nil {
		return fmt.Errorf("error saving tracker data: %w", err)
	}
	t.doc = next
	return nil
}

// nextID returns the current time in milliseconds, bumped past maxID if the clock has not moved on
func (t *Tracker) nextID(maxID int64) int64 {
	id := t.clock.Now().UnixMilli()
	if id <= maxID {
		id = maxID + 1
	}
	return id
}

// AddMedication appends a medication named name
func (t *Tracker) AddMedication(ctx context.Context, name string) (*Medication, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	var maxID int64
	for _, m := range t.doc.Medications {
		maxID = max(maxID, m.ID)
	}

	next := t.doc.clone()
	next.Medications = append(next.Medications, Medication{ID: t.nextID(maxID), Name: name})
	if err := t.commit(ctx, next); err != nil {
		return nil, err
	}
	return &next.Medications[len(next.Medications)-1], nil
}

// AddExercise appends an exercise lasting duration seconds
func (t *Tracker) AddExercise(ctx context.Context, name string, duration int) (*Exercise, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}

	var maxID int64
	for _, e := range t.doc.Exercises {
		maxID = max(maxID, e.ID)
	}

	next := t.doc.clone()
	next.Exercises = append(next.Exercises, Exercise{ID: t.nextID(maxID), Name: name, Duration: duration})
	if err := t.commit(ctx, next); err != nil {
		return nil, err
	}
	return &next.Exercises[len(next.Exercises)-1], nil
}

// SetMedicationTaken records whether the medication was taken today
func (t *Tracker) SetMedicationTaken(ctx context.Context, id int64, taken bool) error {
	if _, ok := t.doc.Medication(id); !ok {
		return fmt.Errorf("medication %d: %w", id, ErrNotFound)
	}

	next := t.doc.clone()
	next.Daily.MedicationsTaken[id] = taken
	return t.commit(ctx, next)
}

// IncrementExercise adds one completion of the exercise for today and returns the new count
func (t *Tracker) IncrementExercise(ctx context.Context, id int64) (int, error) {
	if _, ok := t.doc.Exercise(id); !ok {
		return 0, fmt.Errorf("exercise %d: %w", id, ErrNotFound)
	}

	next := t.doc.clone()
	next.Daily.ExercisesDone[id]++
	if err := t.commit(ctx, next); err != nil {
		return 0, err
	}
	return next.Daily.ExercisesDone[id], nil
}

// EditMedication renames a medication
func (t *Tracker) EditMedication(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	next := t.doc.clone()
	med, ok := next.Medication(id)
	if !ok {
		return fmt.Errorf("medication %d: %w", id, ErrNotFound)
	}

	med.Name = name
	return t.commit(ctx, next)
}

// EditExercise renames an exercise and, if duration is set and positive, changes its duration.
// A non-positive duration is ignored; the rename still applies.
func (t *Tracker) EditExercise(ctx context.Context, id int64, name string, duration *int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	next := t.doc.clone()
	ex, ok := next.Exercise(id)
	if !ok {
		return fmt.Errorf("exercise %d: %w", id, ErrNotFound)
	}

	ex.Name = name
	if duration != nil {
		if *duration > 0 {
			ex.Duration = *duration
		} else {
			slog.Debug("Ignoring non-positive duration", "exercise", id, "duration", *duration)
		}
	}
	return t.commit(ctx, next)
}

// DeleteMedication removes a medication and its taken flag
func (t *Tracker) DeleteMedication(ctx context.Context, id int64) error {
	if _, ok := t.doc.Medication(id); !ok {
		return fmt.Errorf("medication %d: %w", id, ErrNotFound)
	}

	next := t.doc.clone()
	next.Medications = slices.DeleteFunc(next.Medications, func(m Medication) bool { return m.ID == id })
	delete(next.Daily.MedicationsTaken, id)
	return t.commit(ctx, next)
}

// DeleteExercise removes an exercise and its completion count
func (t *Tracker) DeleteExercise(ctx context.Context, id int64) error {
	if _, ok := t.doc.Exercise(id); !ok {
		return fmt.Errorf("exercise %d: %w", id, ErrNotFound)
	}

	next := t.doc.clone()
	next.Exercises = slices.DeleteFunc(next.Exercises, func(e Exercise) bool { return e.ID == id })
	delete(next.Daily.ExercisesDone, id)
	return t.commit(ctx, next)
}

// ResetDay clears today's completion state, keeping both lists
func (t *Tracker) ResetDay(ctx context.Context) error {
	next := t.doc.clone()
	next.Date = t.Today()
	next.Daily = newDailyState()
	return t.commit(ctx, next)
}

// ImportPlan adds the plan's items, skipping invalid entries and names already present.
// The document is persisted once at the end if anything was added.
func (t *Tracker) ImportPlan(ctx context.Context, plan *Plan) (ImportResult, error) {
	var result ImportResult
	next := t.doc.clone()

	var maxMedID int64
	for _, m := range next.Medications {
		maxMedID = max(maxMedID, m.ID)
	}
	for _, pm := range plan.Medications {
		name := strings.TrimSpace(pm.Name)
		if name == "" {
			result.Skipped++
			continue
		}
		if _, ok := findMedicationByName(next, name); ok {
			slog.Debug("Medication already present", "name", name)
			result.Skipped++
			continue
		}
		id := t.nextID(maxMedID)
		maxMedID = id
		next.Medications = append(next.Medications, Medication{ID: id, Name: name})
		result.MedicationsAdded++
	}

	var maxExID int64
	for _, e := range next.Exercises {
		maxExID = max(maxExID, e.ID)
	}
	for _, pe := range plan.Exercises {
		name := strings.TrimSpace(pe.Name)
		if name == "" || pe.Duration <= 0 {
			slog.Warn("Skipping invalid exercise in plan", "name", pe.Name, "duration", pe.Duration)
			result.Skipped++
			continue
		}
		if _, ok := findExerciseByName(next, name); ok {
			slog.Debug("Exercise already present", "name", name)
			result.Skipped++
			continue
		}
		id := t.nextID(maxExID)
		maxExID = id
		next.Exercises = append(next.Exercises, Exercise{ID: id, Name: name, Duration: pe.Duration})
		result.ExercisesAdded++
	}

	if result.MedicationsAdded+result.ExercisesAdded == 0 {
		return result, nil
	}
	if err := t.commit(ctx, next); err != nil {
		return ImportResult{}, err
	}
	return result, nil
}

// RunExercise counts the exercise down on countdown and increments its count
// once if the countdown finishes. A cancelled countdown changes nothing.
func (t *Tracker) RunExercise(ctx context.Context, id int64, countdown *Countdown, onTick func(remaining int)) (TimerState, error) {
	ex, ok := t.doc.Exercise(id)
	if !ok {
		return TimerIdle, fmt.Errorf("exercise %d: %w", id, ErrNotFound)
	}

	if err := countdown.Start(ctx, ex.Duration, onTick); err != nil {
		return countdown.State(), err
	}

	state := countdown.Wait()
	if state != TimerFinished {
		return state, nil
	}

	// Persist with a fresh context: the countdown context may be cancelled right after finishing
	if _, err := t.IncrementExercise(context.WithoutCancel(ctx), id); err != nil {
		return state, err
	}
	return state, nil
}
