package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// styleLookback is how many rows above a target cell are searched for a style to inherit.
const styleLookback = 20

// ExcelStore is a workbook sheet opened in memory and saved once.
type ExcelStore struct {
	path   string
	sheet  string
	file   *excelize.File
	header []string
	index  map[string]int
	rows   [][]string
	dirty  bool

	// ReferenceColumn supplies the style of last resort for unstyled cells on the same row.
	ReferenceColumn string
}

// OpenExcel opens a sheet of an xlsx workbook; an empty sheet name selects the active sheet.
func OpenExcel(path, sheet string) (*ExcelStore, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		f.Close()
		return nil, fmt.Errorf("sheet %q not found in %s", sheet, path)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		f.Close()
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	s := &ExcelStore{
		path:   path,
		sheet:  sheet,
		file:   f,
		header: header,
		index:  headerIndex(header),
		rows:   rows[1:],
	}
	for _, name := range DefaultSchema().Ticker {
		if _, ok := s.index[name]; ok {
			s.ReferenceColumn = name
			break
		}
	}
	return s, nil
}

func (s *ExcelStore) Name() string { return s.path + "#" + s.sheet }

func (s *ExcelStore) Header() []string { return append([]string(nil), s.header...) }

func (s *ExcelStore) Rows() []map[string]string {
	out := make([]map[string]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = rowMap(s.header, r)
	}
	return out
}

func (s *ExcelStore) Value(row int, column string) string {
	cell, err := s.cellName(row, column)
	if err != nil {
		return ""
	}
	v, err := s.file.GetCellValue(s.sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return ""
	}
	return v
}

// Set writes the value into the cell. A cell that already carries a style keeps it; an unstyled
// cell inherits the style of the first (oldest) non-empty cell of its column within the rows above,
// else that of the ticker cell of its own row.
func (s *ExcelStore) Set(row int, column string, value any) error {
	cell, err := s.cellName(row, column)
	if err != nil {
		return err
	}
	style, err := s.file.GetCellStyle(s.sheet, cell)
	if err != nil {
		return fmt.Errorf("read style of %s: %w", cell, err)
	}
	if style == 0 {
		if ref := s.referenceStyle(row, column); ref != 0 {
			if err := s.file.SetCellStyle(s.sheet, cell, cell, ref); err != nil {
				return fmt.Errorf("inherit style for %s: %w", cell, err)
			}
		}
	}
	if err := s.file.SetCellValue(s.sheet, cell, value); err != nil {
		return fmt.Errorf("write %s: %w", cell, err)
	}
	s.remember(row, column, value)
	s.dirty = true
	return nil
}

func (s *ExcelStore) referenceStyle(row int, column string) int {
	for r := max(2, row-styleLookback); r < row; r++ {
		cell, err := s.cellName(r, column)
		if err != nil {
			continue
		}
		if IsEmpty(s.Value(r, column)) {
			continue
		}
		style, err := s.file.GetCellStyle(s.sheet, cell)
		if err != nil {
			return 0
		}
		return style
	}
	if s.ReferenceColumn == "" {
		return 0
	}
	cell, err := s.cellName(row, s.ReferenceColumn)
	if err != nil {
		return 0
	}
	style, err := s.file.GetCellStyle(s.sheet, cell)
	if err != nil {
		return 0
	}
	return style
}

func (s *ExcelStore) remember(row int, column string, value any) {
	i := row - 2
	c, ok := s.index[column]
	if i < 0 || i >= len(s.rows) || !ok {
		return
	}
	for len(s.rows[i]) <= c {
		s.rows[i] = append(s.rows[i], "")
	}
	s.rows[i][c] = cellText(value)
}

func (s *ExcelStore) cellName(row int, column string) (string, error) {
	c, ok := s.index[column]
	if !ok {
		return "", fmt.Errorf("column %q not in sheet %q", column, s.sheet)
	}
	return excelize.CoordinatesToCellName(c+1, row)
}

func (s *ExcelStore) Save() error {
	if !s.dirty {
		return nil
	}
	// Written beside the target and renamed over it, so an interrupted save leaves the old workbook intact.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".dataset-*"+filepath.Ext(s.path))
	if err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	if err := s.file.SaveAs(tmpName); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	if fi, err := os.Stat(s.path); err == nil {
		os.Chmod(tmpName, fi.Mode().Perm())
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	s.file.Path = s.path
	s.dirty = false
	return nil
}

func (s *ExcelStore) Close() error { return s.file.Close() }

func cellText(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}
