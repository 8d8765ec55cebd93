package recorder

import (
	"time"

	"EventIndicators/internal/updater"
)

// RunRecord is the persisted header of one annotation run.
type RunRecord struct {
	RunID         string
	Source        string
	Fetcher       string
	StartedAt     time.Time
	FinishedAt    time.Time
	Total         int
	Processed     int
	Skipped       int
	Failed        int
	FieldsWritten int
	Saved         bool
}

// FromSummary flattens a run summary into its persisted header.
func FromSummary(sum *updater.Summary) RunRecord {
	return RunRecord{
		RunID:         sum.RunID,
		Source:        sum.Source,
		Fetcher:       sum.Fetcher,
		StartedAt:     sum.StartedAt,
		FinishedAt:    sum.FinishedAt,
		Total:         sum.Total,
		Processed:     sum.Processed,
		Skipped:       sum.Skipped,
		Failed:        sum.Failed,
		FieldsWritten: sum.FieldsWritten,
		Saved:         sum.Saved,
	}
}

// Recorder persists run history for later inspection.
type Recorder interface {
	RecordRun(sum *updater.Summary) error
	// LastRun returns the most recent run, or false when none was recorded.
	LastRun() (RunRecord, bool, error)
	Close() error
}
