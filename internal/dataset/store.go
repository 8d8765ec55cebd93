package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"EventIndicators/internal/model"
)

// Store is a named-column table with in-place cell updates and a single flush.
// Rows are addressed by sheet row number: the header is row 1, data starts at row 2.
type Store interface {
	Name() string
	Header() []string
	// Rows returns a snapshot of every data row keyed by header name.
	Rows() []map[string]string
	// Value returns the current text of a cell.
	Value(row int, column string) string
	// Set writes a value while keeping the cell's presentation.
	Set(row int, column string, value any) error
	Save() error
	Close() error
}

// Open picks the store implementation from the file extension.
func Open(path, sheet string) (Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return OpenExcel(path, sheet)
	case ".csv":
		return OpenCSV(path)
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s", path)
	}
}

// LoadRecords reads every row once and parses its identity through the layout.
// Rows with a blank ticker or unparsable date come back with zero identity fields.
func LoadRecords(s Store, layout Layout) []model.Record {
	rows := s.Rows()
	records := make([]model.Record, 0, len(rows))
	for i, cells := range rows {
		rec := model.Record{
			Row:    i + 2,
			Ticker: strings.ToUpper(strings.TrimSpace(cells[layout.Ticker])),
			Cells:  cells,
		}
		if IsEmpty(rec.Ticker) {
			rec.Ticker = ""
		}
		if d, ok := ParseDate(cells[layout.Date]); ok {
			rec.EventDate = d
		}
		records = append(records, rec)
	}
	return records
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, ok := idx[h]; !ok && h != "" {
			idx[h] = i
		}
	}
	return idx
}

func rowMap(header []string, row []string) map[string]string {
	m := make(map[string]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, seen := m[h]; seen {
			continue
		}
		if i < len(row) {
			m[h] = row[i]
		} else {
			m[h] = ""
		}
	}
	return m
}
