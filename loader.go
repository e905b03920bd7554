package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadPlan loads a plan from a YAML file, or from every .yaml file in a directory
func LoadPlan(path string) (*Plan, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("plan not found: %s", path)
		}
		return nil, err
	}

	if !info.IsDir() {
		return loadPlanFile(path)
	}

	// Find all .yaml files
	files, err := filepath.Glob(filepath.Join(path, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("error finding YAML files: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no YAML files found in %s", path)
	}

	plan := &Plan{}
	for _, file := range files {
		part, err := loadPlanFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}
		plan.Medications = append(plan.Medications, part.Medications...)
		plan.Exercises = append(plan.Exercises, part.Exercises...)
	}

	return plan, nil
}

func loadPlanFile(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, err
	}

	return &plan, nil
}
