package updater

import (
	"fmt"

	"EventIndicators/internal/dataset"
	"EventIndicators/internal/model"
)

// Clear blanks every populated target cell of the given groups so the next run recomputes them.
// It returns the number of cells cleared and saves only when something changed.
func Clear(store dataset.Store, schema dataset.Schema, groups []model.FieldGroup) (int, error) {
	layout, err := schema.Resolve(store.Header())
	if err != nil {
		return 0, fmt.Errorf("resolve columns: %w", err)
	}
	cleared := 0
	for i := range store.Rows() {
		row := i + 2
		for _, g := range groups {
			for _, col := range layout.Targets(g) {
				if dataset.IsEmpty(store.Value(row, col)) {
					continue
				}
				if err := store.Set(row, col, ""); err != nil {
					return cleared, err
				}
				cleared++
			}
		}
	}
	if cleared > 0 {
		if err := store.Save(); err != nil {
			return cleared, fmt.Errorf("save %s: %w", store.Name(), err)
		}
	}
	return cleared, nil
}
