package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// IsEmpty is the single gap predicate for every field group: absent, blank, the empty-sequence
// literal "[]", "nan" in any case, and NaN floats all count as empty.
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(x)
		return s == "" || s == "[]" || strings.EqualFold(s, "nan")
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	case []float64:
		return len(x) == 0
	default:
		return false
	}
}

// ParseNumber reads a numeric cell, tolerating thousands separators and surrounding space.
func ParseNumber(s string) (float64, bool) {
	if IsEmpty(s) {
		return 0, false
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"2006/1/2",
	"2006/01/02 15:04:05",
	"1/2/2006",
	"01-02-06",
	"1/2/06",
}

// ParseDate reads an event date from either an Excel serial number or common text layouts.
// Only the calendar date is kept.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if IsEmpty(s) {
		return time.Time{}, false
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return civil(t), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil(t), true
		}
	}
	return time.Time{}, false
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
