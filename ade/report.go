package ade

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Failure records one per-image import error.
type Failure struct {
	// Subset names the subset the image belongs to.
	Subset string `json:"subset"`

	// Path is the file where the error occurred.
	Path string `json:"path"`

	// Line is the 1-based line number for attribute parse errors,
	// 0 otherwise.
	Line int `json:"line,omitempty"`

	// Kind is one of the failure kind constants.
	Kind string `json:"kind"`

	// Message is the error text.
	Message string `json:"message"`
}

// Report summarizes one import run.
type Report struct {
	// RunID uniquely identifies this import run.
	RunID string `json:"run_id"`

	// Root is the dataset root that was imported.
	Root string `json:"root"`

	// StartedAt is when the import began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the wall-clock import time.
	Duration time.Duration `json:"duration"`

	// Subsets is the number of subsets discovered.
	Subsets int `json:"subsets"`

	// ImagesProcessed counts images imported successfully.
	ImagesProcessed int `json:"images_processed"`

	// ImagesFailed counts images dropped because of errors.
	ImagesFailed int `json:"images_failed"`

	// Annotations counts mask annotations built.
	Annotations int `json:"annotations"`

	// Warnings counts soft inconsistencies (orphan instances, skipped
	// attribute lines in lenient mode).
	Warnings int `json:"warnings"`

	// Failures lists the per-image errors.
	Failures []Failure `json:"failures,omitempty"`
}

func newReport(root string) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Root:      root,
		StartedAt: time.Now(),
	}
}

// Failed reports whether any image failed to import.
func (r *Report) Failed() bool { return r.ImagesFailed > 0 }

// Summary returns a one-line human-readable summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("imported %d image(s) across %d subset(s), %d annotation(s), %d failed, %d warning(s) in %s",
		r.ImagesProcessed, r.Subsets, r.Annotations, r.ImagesFailed, r.Warnings, r.Duration.Round(time.Millisecond))
}
