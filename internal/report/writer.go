// Package report records the per-image outcomes of a batch run as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// New creates an empty report for a run.
func New(inputDir, outputDir, segmenter string) *Report {
	return &Report{
		Version:     SupportedVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		RunID:       uuid.NewString(),
		InputDir:    inputDir,
		OutputDir:   outputDir,
		Segmenter:   segmenter,
		Entries:     []Entry{},
	}
}

// Add appends an entry and refreshes the stats.
func (r *Report) Add(e Entry) {
	r.Entries = append(r.Entries, e)
	r.ComputeStats()
}

// ComputeStats recalculates aggregate statistics from entries.
func (r *Report) ComputeStats() {
	var s Stats
	s.TotalImages = len(r.Entries)
	for _, e := range r.Entries {
		s.TotalInputBytes += e.InputSize
		if e.Status == StatusOK {
			s.Succeeded++
			s.TotalOutputBytes += e.OutputSize
			continue
		}
		s.Failed++
		if s.FailuresByKind == nil {
			s.FailuresByKind = make(map[string]int)
		}
		s.FailuresByKind[e.ErrorKind]++
	}
	r.Stats = s
}

// WriteJSON serializes the report to a JSON file.
func WriteJSON(r *Report, path string) error {
	r.ComputeStats()

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON loads a report written by WriteJSON.
func ReadJSON(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &r, nil
}
