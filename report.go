package xltpl

import (
	"time"

	"github.com/google/uuid"
)

// Fill outcome statuses. Skipped and external are documented outcomes, not
// errors.
const (
	StatusFilled   = "filled"
	StatusSkipped  = "skipped"
	StatusExternal = "external"
	StatusError    = "error"
)

// FieldResult records the outcome of one mapping.
type FieldResult struct {
	Sheet    string `json:"sheet,omitempty"`
	Cell     string `json:"cell,omitempty"`
	Label    string `json:"label,omitempty"`
	Value    any    `json:"value,omitempty"`
	JSONPath string `json:"json_path,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Notes    string `json:"notes,omitempty"`
	Error    string `json:"error,omitempty"`
}

// FillSummary aggregates outcome counts.
type FillSummary struct {
	TotalFilled   int `json:"total_filled"`
	TotalSkipped  int `json:"total_skipped"`
	TotalExternal int `json:"total_external"`
	TotalErrors   int `json:"total_errors"`
}

// FillReport is created fresh per run and mutated incrementally as mappings
// resolve.
type FillReport struct {
	Status         string         `json:"status"`
	RunID          string         `json:"run_id"`
	OutputPath     string         `json:"output_path"`
	Timestamp      string         `json:"timestamp"`
	FilledFields   []*FieldResult `json:"filled_fields"`
	SkippedFields  []*FieldResult `json:"skipped_fields"`
	ExternalFields []*FieldResult `json:"external_fields"`
	Errors         []*FieldResult `json:"errors"`
	Summary        *FillSummary   `json:"summary,omitempty"`
}

func newFillReport(outputPath string, now time.Time) *FillReport {
	return &FillReport{
		RunID:          uuid.New().String(),
		OutputPath:     outputPath,
		Timestamp:      now.Format(time.RFC3339),
		FilledFields:   []*FieldResult{},
		SkippedFields:  []*FieldResult{},
		ExternalFields: []*FieldResult{},
		Errors:         []*FieldResult{},
	}
}

func (r *FillReport) add(status string, res *FieldResult) {
	switch status {
	case StatusFilled:
		r.FilledFields = append(r.FilledFields, res)
	case StatusSkipped:
		r.SkippedFields = append(r.SkippedFields, res)
	case StatusExternal:
		r.ExternalFields = append(r.ExternalFields, res)
	case StatusError:
		r.Errors = append(r.Errors, res)
	}
}

func (r *FillReport) finalize() {
	r.Status = "success"
	r.Summary = &FillSummary{
		TotalFilled:   len(r.FilledFields),
		TotalSkipped:  len(r.SkippedFields),
		TotalExternal: len(r.ExternalFields),
		TotalErrors:   len(r.Errors),
	}
}
