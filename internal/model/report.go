package model

import (
	"encoding/json"
	"time"
)

type ReportStatus string

const (
	ReportStatusQueued   ReportStatus = "queued"
	ReportStatusRunning  ReportStatus = "running"
	ReportStatusComplete ReportStatus = "complete"
	ReportStatusFailed   ReportStatus = "failed"
)

// ValidationReport is one audit run over a plan. Report holds the engine
// output verbatim once the run completes; Passed is lifted out for cheap
// listing queries.
type ValidationReport struct {
	ID         int64           `json:"id"`
	PlanID     int64           `json:"plan_id"`
	Status     ReportStatus    `json:"status"`
	Projected  bool            `json:"projected"`
	Passed     *bool           `json:"passed,omitempty"`
	Report     json.RawMessage `json:"report,omitempty"`
	Error      *string         `json:"error,omitempty"`
	Attempt    int32           `json:"attempt"`
	CreatedAt  time.Time       `json:"created_at"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}
