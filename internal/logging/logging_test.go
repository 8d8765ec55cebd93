package logging

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		level, format string
		wantErr       bool
	}{
		{"info", "console", false},
		{"debug", "json", false},
		{"WARN", "console", false},
		{"loud", "console", true},
	}
	for _, tt := range tests {
		log, err := New(tt.level, tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%q, %q) err = %v, wantErr %v", tt.level, tt.format, err, tt.wantErr)
			continue
		}
		if log != nil {
			log.Sync()
		}
	}
}
