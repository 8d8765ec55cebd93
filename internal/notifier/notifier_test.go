package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"EventIndicators/internal/model"
	"EventIndicators/internal/recorder"
	"EventIndicators/internal/updater"
)

func summary() *updater.Summary {
	start := time.Date(2024, 3, 18, 21, 0, 0, 0, time.UTC)
	return &updater.Summary{
		RunID: "abc-123", Source: "book<1>.xlsx", Fetcher: "yahoo",
		StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond),
		Total: 3, Processed: 1, Skipped: 1, Failed: 1, FieldsWritten: 12, Saved: true,
		Outcomes: []updater.Outcome{
			{Row: 2, Ticker: "NVDA", EventDate: start, Status: updater.StatusProcessed,
				Filled: []model.FieldGroup{model.GroupRSIADX, model.GroupPriceDistance}, Written: 12},
			{Row: 3, Status: updater.StatusSkipped, Message: "malformed input"},
			{Row: 4, Ticker: "ZZZ", Status: updater.StatusFailed, Message: "no bars <404>"},
		},
	}
}

func TestFormatRunSummary(t *testing.T) {
	msg := FormatRunSummary(summary())
	for _, want := range []string{"book&lt;1&gt;.xlsx", "寫入欄位: 12", "第4列 ZZZ", "no bars &lt;404&gt;", "abc-123"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatLastRun(t *testing.T) {
	if got := FormatLastRun(recorder.RunRecord{}, false); !strings.Contains(got, "尚無") {
		t.Errorf("empty history reply = %q", got)
	}
	got := FormatLastRun(recorder.FromSummary(summary()), true)
	if !strings.Contains(got, "abc-123") || !strings.Contains(got, "寫入欄位: 12") {
		t.Errorf("reply = %q", got)
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	RenderTable(&buf, summary())
	out := buf.String()
	for _, want := range []string{"NVDA", "RSI_ADX_SEQUENCES,PRICE_DISTANCE", "malformed input", "saved=true"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestSendWithRetry_RecoversAfterFailure(t *testing.T) {
	var calls int32
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/bottoken/sendMessage") {
			http.NotFound(w, r)
			return
		}
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("token", "42", "", nil)
	tn.APIBase = srv.URL
	if err := tn.SendWithRetry(context.Background(), "hello", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
	if got["chat_id"] != "42" || got["parse_mode"] != "HTML" || got["text"] != "hello" {
		t.Errorf("payload = %v", got)
	}
}

func TestPoll_DispatchesCommands(t *testing.T) {
	var sent []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			w.Write([]byte(`{"ok":true,"result":[
				{"update_id":7,"message":{"text":" /last "}},
				{"update_id":8,"message":null}
			]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var p map[string]string
			json.NewDecoder(r.Body).Decode(&p)
			sent = append(sent, p["text"])
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("token", "42", "", nil)
	tn.APIBase = srv.URL
	var commands []string
	next, err := tn.poll(context.Background(), srv.Client(), 0, func(cmd string) string {
		commands = append(commands, cmd)
		return "reply to " + cmd
	})
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if next != 9 {
		t.Errorf("next offset = %d, want 9", next)
	}
	if len(commands) != 1 || commands[0] != "/last" {
		t.Errorf("commands = %v", commands)
	}
	if len(sent) != 1 || sent[0] != "reply to /last" {
		t.Errorf("sent = %v", sent)
	}
}
