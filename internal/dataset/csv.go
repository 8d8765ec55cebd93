package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVStore is a comma-separated table held in memory and rewritten on Save in its original encoding.
type CSVStore struct {
	path     string
	encoding encoding.Encoding // nil for plain UTF-8 without BOM
	header   []string
	index    map[string]int
	rows     [][]string
	dirty    bool
}

// OpenCSV reads a CSV file, decoding UTF-8 or UTF-16 byte-order marks as found.
func OpenCSV(path string) (*CSVStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	var enc encoding.Encoding
	switch {
	case bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}):
		enc = unicode.UTF8BOM
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}):
		enc = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		enc = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	}

	var src io.Reader = bytes.NewReader(raw)
	if enc != nil {
		src = transform.NewReader(src, enc.NewDecoder())
	}
	r := csv.NewReader(bufio.NewReader(src))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv %s has no header row", path)
	}

	return &CSVStore{
		path:     path,
		encoding: enc,
		header:   records[0],
		index:    headerIndex(records[0]),
		rows:     records[1:],
	}, nil
}

func (s *CSVStore) Name() string { return s.path }

func (s *CSVStore) Header() []string { return append([]string(nil), s.header...) }

func (s *CSVStore) Rows() []map[string]string {
	out := make([]map[string]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = rowMap(s.header, r)
	}
	return out
}

func (s *CSVStore) Value(row int, column string) string {
	i := row - 2
	c, ok := s.index[column]
	if i < 0 || i >= len(s.rows) || !ok || c >= len(s.rows[i]) {
		return ""
	}
	return s.rows[i][c]
}

func (s *CSVStore) Set(row int, column string, value any) error {
	i := row - 2
	c, ok := s.index[column]
	if !ok {
		return fmt.Errorf("column %q not in %s", column, s.path)
	}
	if i < 0 || i >= len(s.rows) {
		return fmt.Errorf("row %d out of range in %s", row, s.path)
	}
	for len(s.rows[i]) <= c {
		s.rows[i] = append(s.rows[i], "")
	}
	s.rows[i][c] = cellText(value)
	s.dirty = true
	return nil
}

// Save writes through a temporary file so a failed write never truncates the dataset.
func (s *CSVStore) Save() error {
	if !s.dirty {
		return nil
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".dataset-*.csv")
	if err != nil {
		return fmt.Errorf("save csv: %w", err)
	}
	defer os.Remove(tmp.Name())

	var dst io.Writer = tmp
	var tw *transform.Writer
	if s.encoding != nil {
		tw = transform.NewWriter(tmp, s.encoding.NewEncoder())
		dst = tw
	}
	w := csv.NewWriter(dst)
	if err := w.Write(s.header); err != nil {
		tmp.Close()
		return fmt.Errorf("save csv: %w", err)
	}
	if err := w.WriteAll(s.rows); err != nil {
		tmp.Close()
		return fmt.Errorf("save csv: %w", err)
	}
	if tw != nil {
		if err := tw.Close(); err != nil {
			tmp.Close()
			return fmt.Errorf("save csv: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save csv: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("save csv: %w", err)
	}
	s.dirty = false
	return nil
}

func (s *CSVStore) Close() error { return nil }
