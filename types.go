package main

import "maps"

// TrackerDocument is the single persisted root holding all application state
type TrackerDocument struct {
	Date        string       `json:"date"`
	Medications []Medication `json:"medications"`
	Exercises   []Exercise   `json:"exercises"`
	Daily       DailyState   `json:"daily"`
}

// Medication is a medication to take once per day
type Medication struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Exercise is an exercise performed for Duration seconds, any number of times per day
type Exercise struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Duration int    `json:"duration"` // seconds
}

// DailyState holds today's completion state. It is cleared on every daily reset.
type DailyState struct {
	MedicationsTaken map[int64]bool `json:"medicationsTaken"`
	ExercisesDone    map[int64]int  `json:"exercisesDone"`
}

// Plan is a YAML file of medications and exercises to import
type Plan struct {
	Medications []PlanMedication `yaml:"medications"`
	Exercises   []PlanExercise   `yaml:"exercises"`
}

// PlanMedication is a medication entry in a plan file
type PlanMedication struct {
	Name string `yaml:"name"`
}

// PlanExercise is an exercise entry in a plan file
type PlanExercise struct {
	Name     string `yaml:"name"`
	Duration int    `yaml:"duration"`
}

// ImportResult counts what an import changed
type ImportResult struct {
	MedicationsAdded int
	ExercisesAdded   int
	Skipped          int
}

func newDailyState() DailyState {
	return DailyState{
		MedicationsTaken: make(map[int64]bool),
		ExercisesDone:    make(map[int64]int),
	}
}

func newDocument(date string) *TrackerDocument {
	return &TrackerDocument{
		Date:        date,
		Medications: []Medication{},
		Exercises:   []Exercise{},
		Daily:       newDailyState(),
	}
}

// normalize fills nil collections left by older or hand-edited documents
func (d *TrackerDocument) normalize() {
	if d.Medications == nil {
		d.Medications = []Medication{}
	}
	if d.Exercises == nil {
		d.Exercises = []Exercise{}
	}
	if d.Daily.MedicationsTaken == nil {
		d.Daily.MedicationsTaken = make(map[int64]bool)
	}
	if d.Daily.ExercisesDone == nil {
		d.Daily.ExercisesDone = make(map[int64]int)
	}
}

// Medication returns the medication with the given id
func (d *TrackerDocument) Medication(id int64) (*Medication, bool) {
	for i := range d.Medications {
		if d.Medications[i].ID == id {
			return &d.Medications[i], true
		}
	}
	return nil, false
}

// Exercise returns the exercise with the given id
func (d *TrackerDocument) Exercise(id int64) (*Exercise, bool) {
	for i := range d.Exercises {
		if d.Exercises[i].ID == id {
			return &d.Exercises[i], true
		}
	}
	return nil, false
}

// DoneCount returns how many times the exercise was completed today
func (d *TrackerDocument) DoneCount(id int64) int {
	return d.Daily.ExercisesDone[id]
}

// Taken reports whether the medication was taken today
func (d *TrackerDocument) Taken(id int64) bool {
	return d.Daily.MedicationsTaken[id]
}

// clone returns a deep copy, so a mutation can be staged without touching d
func (d *TrackerDocument) clone() *TrackerDocument {
	c := &TrackerDocument{
		Date:        d.Date,
		Medications: append([]Medication{}, d.Medications...),
		Exercises:   append([]Exercise{}, d.Exercises...),
		Daily:       newDailyState(),
	}
	maps.Copy(c.Daily.MedicationsTaken, d.Daily.MedicationsTaken)
	maps.Copy(c.Daily.ExercisesDone, d.Daily.ExercisesDone)
	return c
}
