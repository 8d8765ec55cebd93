package updater

import (
	"time"

	"EventIndicators/internal/model"
)

// Status is the per-record result of one run.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome describes what a run did with one record.
type Outcome struct {
	Row       int
	Ticker    string
	EventDate time.Time
	Status    Status
	Missing   []model.FieldGroup
	Filled    []model.FieldGroup
	Written   int // cells written
	Message   string
	Warnings  []string
}

// Summary is the aggregate result of one run. It is returned by value; nothing is kept between runs.
type Summary struct {
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
	Outcomes      []Outcome
}

func (s *Summary) add(o Outcome) {
	s.Total++
	s.FieldsWritten += o.Written
	switch o.Status {
	case StatusProcessed:
		s.Processed++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
	s.Outcomes = append(s.Outcomes, o)
}

// Duration is the wall time of the run.
func (s Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
