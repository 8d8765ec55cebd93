// Package updater fills missing indicator field groups in a dataset without touching populated cells.
package updater

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"EventIndicators/internal/calculator"
	"EventIndicators/internal/collector"
	"EventIndicators/internal/dataset"
	"EventIndicators/internal/intraday"
	"EventIndicators/internal/model"
	"EventIndicators/internal/relvol"
)

// Updater runs the per-record gap detection, computation and merge.
type Updater struct {
	Collector *collector.Collector
	Intraday  *intraday.Analyzer
	Schema    dataset.Schema
	Log       *zap.Logger
	Now       func() time.Time
}

// New wires an Updater around one market-data fetcher.
func New(fetcher collector.Fetcher, schema dataset.Schema, log *zap.Logger) *Updater {
	if log == nil {
		log = zap.NewNop()
	}
	return &Updater{
		Collector: collector.NewCollector(fetcher),
		Intraday:  intraday.NewAnalyzer(fetcher),
		Schema:    schema,
		Log:       log,
		Now:       time.Now,
	}
}

// Run processes every record of the store once, in row order, and saves the store only when at
// least one cell was written. Records are read once up front; that snapshot also serves the
// premarket sibling history.
func (u *Updater) Run(ctx context.Context, store dataset.Store) (Summary, error) {
	sum := Summary{
		RunID:     uuid.NewString(),
		Source:    store.Name(),
		Fetcher:   u.Collector.Fetcher.Name(),
		StartedAt: u.Now(),
	}
	log := u.Log.With(zap.String("run_id", sum.RunID))

	layout, err := u.Schema.Resolve(store.Header())
	if err != nil {
		return sum, fmt.Errorf("resolve columns: %w", err)
	}
	records := dataset.LoadRecords(store, layout)
	log.Info("run started", zap.String("source", sum.Source), zap.Int("records", len(records)),
		zap.String("date_column", layout.Date))

	var runErr error
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			log.Warn("run interrupted", zap.Int("at_row", rec.Row), zap.Error(err))
			runErr = err
			break
		}
		o := u.processRecord(ctx, store, layout, rec, records)
		sum.add(o)
		u.logOutcome(log, o)
	}

	if sum.FieldsWritten > 0 {
		if err := store.Save(); err != nil {
			sum.FinishedAt = u.Now()
			return sum, fmt.Errorf("save %s: %w", store.Name(), err)
		}
		sum.Saved = true
	}
	sum.FinishedAt = u.Now()
	log.Info("run finished",
		zap.Int("processed", sum.Processed),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed),
		zap.Int("fields_written", sum.FieldsWritten),
		zap.Bool("saved", sum.Saved),
		zap.Duration("elapsed", sum.Duration()))
	return sum, runErr
}

func (u *Updater) processRecord(ctx context.Context, store dataset.Store, layout dataset.Layout, rec model.Record, snapshot []model.Record) Outcome {
	o := Outcome{Row: rec.Row, Ticker: rec.Ticker, EventDate: rec.EventDate}
	if !rec.Valid() {
		o.Status = StatusSkipped
		o.Message = model.ErrMalformedInput.Error() + ": ticker or date missing"
		return o
	}

	need := make(map[model.FieldGroup]bool)
	for _, g := range model.AllGroups {
		if layout.Missing(g, rec) {
			need[g] = true
			o.Missing = append(o.Missing, g)
		}
	}
	if len(o.Missing) == 0 {
		o.Status = StatusSkipped
		o.Message = "all fields present"
		return o
	}

	var (
		daily      model.Series
		dailyErr   error
		dailyFetch bool
	)
	loadDaily := func() (model.Series, error) {
		if !dailyFetch {
			daily, dailyErr = u.Collector.DailyWindow(ctx, rec.Ticker, rec.EventDate)
			dailyFetch = true
		}
		return daily, dailyErr
	}

	m := newMerger(store, rec.Row)
	var problems []string
	note := func(g model.FieldGroup, err error) {
		problems = append(problems, fmt.Sprintf("%s: %v", g, err))
	}

	if need[model.GroupRSIADX] || need[model.GroupPriceDistance] {
		series, err := loadDaily()
		if err != nil {
			o.Status = StatusFailed
			o.Message = err.Error()
			return o
		}
		if need[model.GroupRSIADX] {
			if err := u.mergeSequences(m, layout, series, rec, &o); err != nil {
				note(model.GroupRSIADX, err)
			}
		}
		if need[model.GroupPriceDistance] {
			if err := u.mergeDistances(m, layout, series, rec, &o); err != nil {
				note(model.GroupPriceDistance, err)
			}
		}
	}

	if need[model.GroupIntraday] {
		if err := u.mergeIntraday(ctx, m, layout, rec, &o); err != nil {
			note(model.GroupIntraday, err)
		}
	}

	if need[model.GroupRelativeVolume] {
		if err := u.mergeRelativeVolume(m, layout, rec, snapshot, loadDaily, &o); err != nil {
			note(model.GroupRelativeVolume, err)
		}
	}

	o.Written = m.written
	o.Filled = m.groups()
	if m.written > 0 {
		o.Status = StatusProcessed
	} else {
		o.Status = StatusFailed
	}
	if len(problems) > 0 {
		o.Message = strings.Join(problems, "; ")
	} else if m.written == 0 {
		o.Message = "no data available"
	}
	return o
}

func (u *Updater) mergeSequences(m *merger, layout dataset.Layout, series model.Series, rec model.Record, o *Outcome) error {
	seq, err := calculator.ComputeSequences(series, rec.EventDate)
	if err != nil {
		return err
	}
	o.Warnings = append(o.Warnings, seq.Warnings...)
	for _, k := range calculator.SequenceHorizons {
		if len(seq.RSI[k]) > 0 {
			if err := m.put(model.GroupRSIADX, layout.RSI[k], dataset.FormatSequence(seq.RSI[k])); err != nil {
				return err
			}
		}
		if len(seq.ADX[k]) > 0 {
			if err := m.put(model.GroupRSIADX, layout.ADX[k], dataset.FormatSequence(seq.ADX[k])); err != nil {
				return err
			}
		}
	}
	return nil
}

func (u *Updater) mergeDistances(m *merger, layout dataset.Layout, series model.Series, rec model.Record, o *Outcome) error {
	set, err := calculator.ComputeDistances(series, rec.EventDate)
	if err != nil {
		return err
	}
	o.Warnings = append(o.Warnings, set.Warnings...)
	for _, w := range calculator.DistanceHorizons {
		d, ok := set.ByWindow[w]
		if !ok {
			continue
		}
		if err := m.put(model.GroupPriceDistance, layout.DistHigh[w], dataset.Round(d.ToHighPct, 1)); err != nil {
			return err
		}
		if err := m.put(model.GroupPriceDistance, layout.DistLow[w], dataset.Round(d.ToLowPct, 1)); err != nil {
			return err
		}
	}
	return m.put(model.GroupPriceDistance, layout.RefClose, dataset.Round(set.Reference, 2))
}

func (u *Updater) mergeIntraday(ctx context.Context, m *merger, layout dataset.Layout, rec model.Record, o *Outcome) error {
	p, err := u.Intraday.Analyze(ctx, rec.Ticker, rec.EventDate)
	if err != nil {
		return err
	}
	o.Warnings = append(o.Warnings, p.Warnings...)
	fields := []struct {
		column string
		valid  bool
		value  float64
	}{
		{layout.Open, p.Open.Valid, p.Open.Float64},
		{layout.EarlyLow, p.EarlyLow.Valid, p.EarlyLow.Float64},
		{layout.MidHigh, p.MidHigh.Valid, p.MidHigh.Float64},
		{layout.LowBeforeHigh, p.LowBeforeHigh.Valid, p.LowBeforeHigh.Float64},
	}
	for _, f := range fields {
		if !f.valid {
			continue
		}
		if err := m.put(model.GroupIntraday, f.column, dataset.Round(f.value, 2)); err != nil {
			return err
		}
	}
	return nil
}

func (u *Updater) mergeRelativeVolume(m *merger, layout dataset.Layout, rec model.Record, snapshot []model.Record, loadDaily relvol.DailyLoader, o *Outcome) error {
	calc := relvol.Calculator{PremarketColumn: layout.Premarket}
	res, err := calc.Compute(rec, snapshot, loadDaily)
	if err != nil {
		return err
	}
	o.Warnings = append(o.Warnings, res.Warnings...)
	return m.put(model.GroupRelativeVolume, layout.RelVolume, dataset.Round(res.Ratio, 2))
}

func (u *Updater) logOutcome(log *zap.Logger, o Outcome) {
	fields := []zap.Field{
		zap.Int("row", o.Row),
		zap.String("ticker", o.Ticker),
		zap.String("status", string(o.Status)),
	}
	if !o.EventDate.IsZero() {
		fields = append(fields, zap.String("date", o.EventDate.Format("2006-01-02")))
	}
	if o.Written > 0 {
		fields = append(fields, zap.Int("written", o.Written), zap.Any("filled", o.Filled))
	}
	if o.Message != "" {
		fields = append(fields, zap.String("message", o.Message))
	}
	switch o.Status {
	case StatusFailed:
		log.Warn("record failed", fields...)
	case StatusSkipped:
		log.Debug("record skipped", fields...)
	default:
		log.Info("record updated", fields...)
	}
	for _, w := range o.Warnings {
		log.Warn("record warning", zap.Int("row", o.Row), zap.String("ticker", o.Ticker), zap.String("warning", w))
	}
}
