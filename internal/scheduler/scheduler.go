package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"EventIndicators/internal/dataset"
	"EventIndicators/internal/notifier"
	"EventIndicators/internal/recorder"
	"EventIndicators/internal/updater"
)

// ErrStopped is returned by RunOnce after Wait has been called.
var ErrStopped = errors.New("scheduler stopped")

// OpenFunc opens a fresh handle on the dataset for one run.
type OpenFunc func() (dataset.Store, error)

// Scheduler runs the gap-fill pass on a cron schedule and on demand.
type Scheduler struct {
	Cron     *cron.Cron
	Updater  *updater.Updater
	Open     OpenFunc
	Notifier *notifier.TelegramNotifier // nil disables chat notifications
	Recorder recorder.Recorder
	Log      *zap.Logger
	Ctx      context.Context

	mu      sync.Mutex // one run at a time, cron or command
	stopped bool
}

// NewScheduler creates a new Scheduler. Overlapping cron ticks are skipped.
func NewScheduler(ctx context.Context, up *updater.Updater, open OpenFunc, tn *notifier.TelegramNotifier, rec recorder.Recorder, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	cl := cronLogger{log.Sugar()}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
		Updater:  up,
		Open:     open,
		Notifier: tn,
		Recorder: rec,
		Log:      log,
		Ctx:      ctx,
	}
}

// Register adds the gap-fill task under a six-field cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.Task); err != nil {
		return fmt.Errorf("register annotate task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info("scheduler stopped")
}

// Wait blocks until an in-flight run has finished saving and refuses any run started after it.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

// Task runs one pass and logs its error. It is the body of the cron job and of run-on-start.
func (s *Scheduler) Task() {
	if _, err := s.RunOnce(s.Ctx); err != nil && !errors.Is(err, ErrStopped) {
		s.Log.Error("scheduled run", zap.Error(err))
	}
}

// RunOnce opens the dataset, runs one pass, records the summary and notifies.
func (s *Scheduler) RunOnce(ctx context.Context) (updater.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return updater.Summary{}, ErrStopped
	}

	store, err := s.Open()
	if err != nil {
		s.trySend(fmt.Sprintf("❌ 開啟資料檔失敗: %v", err))
		return updater.Summary{}, fmt.Errorf("open dataset: %w", err)
	}
	defer store.Close()

	sum, runErr := s.Updater.Run(ctx, store)
	if sum.RunID != "" {
		if err := s.Recorder.RecordRun(&sum); err != nil {
			s.Log.Error("record run", zap.String("run_id", sum.RunID), zap.Error(err))
		}
	}
	if runErr != nil {
		s.trySend(fmt.Sprintf("❌ 指標補齊失敗: %v", runErr))
		return sum, runErr
	}
	s.trySend(notifier.FormatRunSummary(&sum))
	return sum, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "立即補齊", "/run":
		if _, err := s.RunOnce(s.Ctx); err != nil && !errors.Is(err, ErrStopped) {
			s.Log.Error("command run", zap.Error(err))
		}
		return ""
	case "上次執行", "/last":
		rec, ok, err := s.Recorder.LastRun()
		if err != nil {
			return fmt.Sprintf("查詢失敗: %v", err)
		}
		return notifier.FormatLastRun(rec, ok)
	default:
		return "可用命令:\n• /run 立即補齊\n• /last 上次執行"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.Log.Error("send notification", zap.Error(err))
	}
}

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
