package model

import "time"

// RunStatus tracks an enrichment run through persistence.
type RunStatus string

// Run status constants.
const (
	RunPending   RunStatus = "PENDING"
	RunCompleted RunStatus = "COMPLETED"
)

// EnrichmentRun describes one batch enrichment over the full raw history.
type EnrichmentRun struct {
	StartedAt   time.Time
	CompletedAt time.Time
	ID          string
	RuleSetHash string
	Status      RunStatus
	RowCount    int
}
