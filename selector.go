package main

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// sameName compares item names ignoring case and surrounding space
func sameName(a, b string) bool {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(a)) == fold.String(strings.TrimSpace(b))
}

func findMedicationByName(doc *TrackerDocument, name string) (*Medication, bool) {
	for i := range doc.Medications {
		if sameName(doc.Medications[i].Name, name) {
			return &doc.Medications[i], true
		}
	}
	return nil, false
}

func findExerciseByName(doc *TrackerDocument, name string) (*Exercise, bool) {
	for i := range doc.Exercises {
		if sameName(doc.Exercises[i].Name, name) {
			return &doc.Exercises[i], true
		}
	}
	return nil, false
}

// ResolveMedication finds a medication by id, or by name if ref is not a known id
func ResolveMedication(doc *TrackerDocument, ref string) (*Medication, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if med, ok := doc.Medication(id); ok {
			return med, nil
		}
	}
	if med, ok := findMedicationByName(doc, ref); ok {
		return med, nil
	}
	return nil, fmt.Errorf("medication '%s': %w", ref, ErrNotFound)
}

// ResolveExercise finds an exercise by id, or by name if ref is not a known id
func ResolveExercise(doc *TrackerDocument, ref string) (*Exercise, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if ex, ok := doc.Exercise(id); ok {
			return ex, nil
		}
	}
	if ex, ok := findExerciseByName(doc, ref); ok {
		return ex, nil
	}
	return nil, fmt.Errorf("exercise '%s': %w", ref, ErrNotFound)
}

// NextExercise suggests the exercise done the fewest times today.
// Ties go to the exercise listed first.
func NextExercise(doc *TrackerDocument) (*Exercise, bool) {
	var best *Exercise
	bestCount := 0

	for i := range doc.Exercises {
		count := doc.DoneCount(doc.Exercises[i].ID)
		if best == nil || count < bestCount {
			best = &doc.Exercises[i]
			bestCount = count
		}
	}

	return best, best != nil
}

// PendingMedications returns the medications not yet taken today, in list order
func PendingMedications(doc *TrackerDocument) []Medication {
	var pending []Medication
	for _, med := range doc.Medications {
		if !doc.Taken(med.ID) {
			pending = append(pending, med)
		}
	}
	return pending
}
