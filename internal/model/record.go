package model

import (
	"strings"
	"time"
)

// FieldGroup is a cluster of derived output columns computed and merged as one unit.
type FieldGroup string

const (
	GroupRSIADX         FieldGroup = "RSI_ADX_SEQUENCES"
	GroupPriceDistance  FieldGroup = "PRICE_DISTANCE"
	GroupIntraday       FieldGroup = "INTRADAY_PRICES"
	GroupRelativeVolume FieldGroup = "RELATIVE_VOLUME"
)

// AllGroups lists the field groups in processing order.
var AllGroups = []FieldGroup{GroupRSIADX, GroupPriceDistance, GroupIntraday, GroupRelativeVolume}

// Record is one dataset row: its identity plus the raw cell text keyed by column name.
type Record struct {
	Row       int // 1-based sheet row, header is row 1
	Ticker    string
	EventDate time.Time
	Cells     map[string]string
}

// Cell returns the raw text of a column, or "" when the column is absent.
func (r Record) Cell(column string) string {
	if r.Cells == nil {
		return ""
	}
	return r.Cells[column]
}

// Valid reports whether the identity fields are present.
func (r Record) Valid() bool {
	return strings.TrimSpace(r.Ticker) != "" && !r.EventDate.IsZero()
}

// SameTicker compares tickers ignoring case and surrounding space.
func SameTicker(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
