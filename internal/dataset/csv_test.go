package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/unicode"
)

const sampleCSV = "公司代碼,開盤日期,*開盤價格,5天 RSI 序列\n" +
	"nvda,2024-03-18,,\n" +
	"AAPL,45369,171.2,\"[45.2, 50.1]\"\n"

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestCSVStore_RoundTripKeepsBOM(t *testing.T) {
	bom := []byte{0xEF, 0xBB, 0xBF}
	path := writeTemp(t, "events.csv", append(bom, sampleCSV...))

	s, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if h := s.Header(); h[0] != "公司代碼" {
		t.Fatalf("BOM leaked into header: %q", h[0])
	}

	layout, err := DefaultSchema().Resolve(s.Header())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	recs := LoadRecords(s, layout)
	if len(recs) != 2 || recs[0].Ticker != "NVDA" || recs[0].Row != 2 {
		t.Fatalf("unexpected records: %+v", recs)
	}
	if !recs[0].EventDate.Equal(recs[1].EventDate) {
		t.Errorf("text and serial dates differ: %v vs %v", recs[0].EventDate, recs[1].EventDate)
	}

	if err := s.Set(2, "*開盤價格", 912.5); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := s.Value(2, "*開盤價格"); got != "912.5" {
		t.Errorf("Value = %q after Set", got)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(raw, bom) {
		t.Error("BOM dropped on save")
	}
	again, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := again.Value(2, "*開盤價格"); got != "912.5" {
		t.Errorf("reopened value = %q", got)
	}
	if got := again.Value(3, "5天 RSI 序列"); got != "[45.2, 50.1]" {
		t.Errorf("untouched cell changed: %q", got)
	}
}

func TestCSVStore_UTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.Bytes([]byte(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	path := writeTemp(t, "events16.csv", data)

	s, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := s.Value(3, "公司代碼"); got != "AAPL" {
		t.Errorf("Value = %q, want AAPL", got)
	}
}

func TestCSVStore_SetUnknownColumn(t *testing.T) {
	s, err := OpenCSV(writeTemp(t, "events.csv", []byte(sampleCSV)))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(2, "no such column", 1.0); err == nil {
		t.Error("expected error for unknown column")
	}
	if err := s.Set(99, "*開盤價格", 1.0); err == nil {
		t.Error("expected error for row out of range")
	}
}

func TestOpen_RejectsUnknownExtension(t *testing.T) {
	if _, err := Open("events.json", ""); err == nil {
		t.Error("expected error for .json")
	}
}
