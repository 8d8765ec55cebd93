package updater

import (
	"fmt"
	"math"

	"EventIndicators/internal/dataset"
	"EventIndicators/internal/model"
)

// merger writes computed values into a record's cells, never over a non-empty cell.
type merger struct {
	store   dataset.Store
	row     int
	written int
	filled  map[model.FieldGroup]bool
}

func newMerger(store dataset.Store, row int) *merger {
	return &merger{store: store, row: row, filled: make(map[model.FieldGroup]bool)}
}

// put writes value into column when the column exists, the value is non-empty and the cell is empty.
func (m *merger) put(g model.FieldGroup, column string, value any) error {
	if column == "" || dataset.IsEmpty(value) {
		return nil
	}
	if f, ok := value.(float64); ok && math.IsInf(f, 0) {
		return nil
	}
	if !dataset.IsEmpty(m.store.Value(m.row, column)) {
		return nil
	}
	if err := m.store.Set(m.row, column, value); err != nil {
		return fmt.Errorf("write %q: %w", column, err)
	}
	m.written++
	m.filled[g] = true
	return nil
}

func (m *merger) groups() []model.FieldGroup {
	var out []model.FieldGroup
	for _, g := range model.AllGroups {
		if m.filled[g] {
			out = append(out, g)
		}
	}
	return out
}
