package recorder

import "EventIndicators/internal/updater"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *updater.Summary) error { return nil }
func (n *NoopRecorder) LastRun() (RunRecord, bool, error)  { return RunRecord{}, false, nil }
func (n *NoopRecorder) Close() error                       { return nil }
