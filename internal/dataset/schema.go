package dataset

import (
	"fmt"
	"sort"
	"strings"

	"EventIndicators/internal/model"
)

// Column lists the accepted header names of one logical column, in preference order.
type Column []string

// Schema is the logical dataset contract: identity columns plus one column per derived output.
type Schema struct {
	Ticker Column
	Date   Column

	RSI      map[int]Column // keyed by trailing horizon
	ADX      map[int]Column
	DistHigh map[int]Column
	DistLow  map[int]Column
	RefClose Column

	Open          Column
	EarlyLow      Column
	MidHigh       Column
	LowBeforeHigh Column

	Premarket Column
	RelVolume Column
}

// DefaultSchema is the workbook layout the annotator was built against.
func DefaultSchema() Schema {
	return Schema{
		Ticker: Column{"公司代碼"},
		Date:   Column{"開盤日期(台灣時間)", "開盤日期", "日期", "交易日期"},
		RSI: map[int]Column{
			5:   {"5天 RSI 序列"},
			30:  {"1個月 RSI 序列"},
			120: {"6個月 RSI 序列"},
		},
		ADX: map[int]Column{
			5:   {"5天 ADX 序列"},
			30:  {"1個月 ADX 序列"},
			120: {"6個月 ADX 序列"},
		},
		DistHigh: map[int]Column{
			5:   {"5日高價距離 (%)"},
			30:  {"1個月高價距離 (%)"},
			120: {"6個月高價距離 (%)"},
		},
		DistLow: map[int]Column{
			5:   {"5日低價距離 (%)"},
			30:  {"1個月低價距離 (%)"},
			120: {"6個月低價距離 (%)"},
		},
		RefClose:      Column{"*昨日收盤價", "昨日收盤價"},
		Open:          Column{"*開盤價格", "開盤價格"},
		EarlyLow:      Column{"*10分鐘最低價", "10分鐘最低價"},
		MidHigh:       Column{"*1.5小時最高價", "1.5小時最高價"},
		LowBeforeHigh: Column{"*最高價前的最低價", "最高價前的最低價"},
		Premarket:     Column{"盤前成交量"},
		RelVolume:     Column{"*相對成交量", "相對成交量"},
	}
}

// Layout is a Schema resolved against a concrete header: every field holds the header name
// actually present, or "" when the sheet lacks that column.
type Layout struct {
	Ticker string
	Date   string

	RSI      map[int]string
	ADX      map[int]string
	DistHigh map[int]string
	DistLow  map[int]string
	RefClose string

	Open          string
	EarlyLow      string
	MidHigh       string
	LowBeforeHigh string

	Premarket string
	RelVolume string
}

func (c Column) resolve(present map[string]bool) string {
	for _, name := range c {
		if present[name] {
			return name
		}
	}
	return ""
}

func resolveAll(m map[int]Column, present map[string]bool) map[int]string {
	out := make(map[int]string, len(m))
	for k, c := range m {
		if name := c.resolve(present); name != "" {
			out[k] = name
		}
	}
	return out
}

// Resolve binds the schema to a header row. The ticker column and at least one date column must exist.
func (s Schema) Resolve(header []string) (Layout, error) {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = true
	}
	l := Layout{
		Ticker:        s.Ticker.resolve(present),
		Date:          s.Date.resolve(present),
		RSI:           resolveAll(s.RSI, present),
		ADX:           resolveAll(s.ADX, present),
		DistHigh:      resolveAll(s.DistHigh, present),
		DistLow:       resolveAll(s.DistLow, present),
		RefClose:      s.RefClose.resolve(present),
		Open:          s.Open.resolve(present),
		EarlyLow:      s.EarlyLow.resolve(present),
		MidHigh:       s.MidHigh.resolve(present),
		LowBeforeHigh: s.LowBeforeHigh.resolve(present),
		Premarket:     s.Premarket.resolve(present),
		RelVolume:     s.RelVolume.resolve(present),
	}
	if l.Ticker == "" {
		return Layout{}, fmt.Errorf("ticker column %v not found: %w", []string(s.Ticker), model.ErrMalformedInput)
	}
	if l.Date == "" {
		return Layout{}, fmt.Errorf("none of the date columns %v found: %w", []string(s.Date), model.ErrMalformedInput)
	}
	return l, nil
}

// Triggers are the columns whose emptiness marks a group as missing.
func (l Layout) Triggers(g model.FieldGroup) []string {
	switch g {
	case model.GroupRSIADX:
		return nonEmpty(sortedValues(l.RSI), sortedValues(l.ADX))
	case model.GroupPriceDistance:
		return nonEmpty([]string{l.RefClose})
	case model.GroupIntraday:
		return nonEmpty([]string{l.Open})
	case model.GroupRelativeVolume:
		return nonEmpty([]string{l.RelVolume})
	}
	return nil
}

// Targets are every column a group may write.
func (l Layout) Targets(g model.FieldGroup) []string {
	switch g {
	case model.GroupPriceDistance:
		return nonEmpty(sortedValues(l.DistHigh), sortedValues(l.DistLow), []string{l.RefClose})
	case model.GroupIntraday:
		return nonEmpty([]string{l.Open, l.EarlyLow, l.MidHigh, l.LowBeforeHigh})
	}
	return l.Triggers(g)
}

// Missing reports whether the group is tracked by this sheet and any trigger cell is empty.
func (l Layout) Missing(g model.FieldGroup, rec model.Record) bool {
	for _, col := range l.Triggers(g) {
		if IsEmpty(rec.Cell(col)) {
			return true
		}
	}
	return false
}

func sortedValues(m map[int]string) []string {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func nonEmpty(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		for _, s := range g {
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
