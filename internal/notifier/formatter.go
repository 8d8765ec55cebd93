package notifier

import (
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"EventIndicators/internal/model"
	"EventIndicators/internal/recorder"
	"EventIndicators/internal/updater"
)

// maxListed caps the failed rows quoted in a chat message.
const maxListed = 10

// FormatRunSummary formats a run summary into a Telegram HTML message.
func FormatRunSummary(sum *updater.Summary) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>指標補齊</b> | %s\n\n", sum.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("檔案: %s\n", html.EscapeString(sum.Source)))
	b.WriteString(fmt.Sprintf("資料源: %s\n", sum.Fetcher))
	b.WriteString(fmt.Sprintf("總筆數: %d | 處理: %d | 跳過: %d | 失敗: %d\n",
		sum.Total, sum.Processed, sum.Skipped, sum.Failed))
	b.WriteString(fmt.Sprintf("寫入欄位: %d\n", sum.FieldsWritten))
	if sum.Saved {
		b.WriteString("已存檔 ✅\n")
	} else {
		b.WriteString("無變更，未存檔\n")
	}
	b.WriteString(fmt.Sprintf("耗時: %s\n", sum.Duration().Round(100*time.Millisecond)))

	listed := 0
	for _, o := range sum.Outcomes {
		if o.Status != updater.StatusFailed {
			continue
		}
		if listed == 0 {
			b.WriteString("\n⚠️ <b>失敗:</b>\n")
		}
		if listed == maxListed {
			b.WriteString(fmt.Sprintf("  ... 其餘 %d 筆\n", sum.Failed-listed))
			break
		}
		b.WriteString(fmt.Sprintf("  第%d列 %s: %s\n", o.Row, html.EscapeString(o.Ticker), html.EscapeString(o.Message)))
		listed++
	}

	b.WriteString(fmt.Sprintf("\n<code>%s</code>", sum.RunID))
	return b.String()
}

// FormatLastRun formats a persisted run header as a reply to /last.
func FormatLastRun(rec recorder.RunRecord, ok bool) string {
	if !ok {
		return "尚無執行紀錄"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🕘 <b>上次執行</b> | %s\n\n", rec.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("檔案: %s\n", html.EscapeString(rec.Source)))
	b.WriteString(fmt.Sprintf("處理: %d | 跳過: %d | 失敗: %d\n", rec.Processed, rec.Skipped, rec.Failed))
	b.WriteString(fmt.Sprintf("寫入欄位: %d\n", rec.FieldsWritten))
	b.WriteString(fmt.Sprintf("<code>%s</code>", rec.RunID))
	return b.String()
}

// RenderTable writes the per-record outcomes as a console table followed by the totals.
func RenderTable(w io.Writer, sum *updater.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"Row", "Ticker", "Date", "Status", "Filled", "Written", "Note"})
	for _, o := range sum.Outcomes {
		date := ""
		if !o.EventDate.IsZero() {
			date = o.EventDate.Format("2006-01-02")
		}
		note := o.Message
		if note == "" && len(o.Warnings) > 0 {
			note = o.Warnings[0]
		}
		t.AppendRow(table.Row{o.Row, o.Ticker, date, o.Status, groupList(o.Filled), o.Written, note})
	}
	t.AppendFooter(table.Row{"", "", "", "",
		fmt.Sprintf("%d processed / %d skipped / %d failed", sum.Processed, sum.Skipped, sum.Failed),
		sum.FieldsWritten, fmt.Sprintf("saved=%v", sum.Saved)})
	t.Render()
}

func groupList(gs []model.FieldGroup) string {
	parts := make([]string, len(gs))
	for i, g := range gs {
		parts[i] = string(g)
	}
	return strings.Join(parts, ",")
}
