package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"EventIndicators/internal/collector"
	"EventIndicators/internal/config"
	"EventIndicators/internal/dataset"
	"EventIndicators/internal/logging"
	"EventIndicators/internal/model"
	"EventIndicators/internal/notifier"
	"EventIndicators/internal/recorder"
	"EventIndicators/internal/scheduler"
	"EventIndicators/internal/updater"
)

var rootCmd = &cobra.Command{
	Use:           "annotate",
	Short:         "Fill missing technical-indicator columns in a trading-event workbook",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one gap-fill pass over the dataset",
	RunE:  runOnce,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the gap-fill pass on the configured cron schedule",
	RunE:  watch,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Blank derived indicator columns so the next run recomputes them",
	RunE:  clearFields,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "configs/config.yaml", "config file (yaml or toml)")
	rootCmd.PersistentFlags().StringP("file", "f", "", "dataset path (.xlsx or .csv)")
	rootCmd.PersistentFlags().StringP("sheet", "s", "", "worksheet name (xlsx only)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	runCmd.Flags().Bool("table", true, "print a per-record outcome table")
	watchCmd.Flags().Bool("run-on-start", false, "run once immediately before waiting for the schedule")
	clearCmd.Flags().StringSlice("groups", []string{"all"}, "field groups to clear: rsi, distance, intraday, relvol, all")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("file", rootCmd.PersistentFlags().Lookup("file"))
	viper.BindPFlag("sheet", rootCmd.PersistentFlags().Lookup("sheet"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("table", runCmd.Flags().Lookup("table"))
	viper.BindPFlag("run_on_start", watchCmd.Flags().Lookup("run-on-start"))
	viper.BindPFlag("groups", clearCmd.Flags().Lookup("groups"))
	viper.BindEnv("config", "CONFIG_PATH")
	viper.BindEnv("run_on_start", "RUN_ON_START")

	rootCmd.AddCommand(runCmd, watchCmd, clearCmd)
}

// app is everything a subcommand needs, built from config plus flag overrides.
type app struct {
	cfg *config.Config
	log *zap.Logger
}

func setup() (*app, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v := viper.GetString("file"); v != "" {
		cfg.Dataset.Path = v
		cfg.Dataset.Sheet = ""
	}
	if v := viper.GetString("sheet"); v != "" {
		cfg.Dataset.Sheet = v
	}
	if v := viper.GetString("log_level"); v != "" {
		cfg.Log.Level = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) fetcher() collector.Fetcher {
	if a.cfg.DataSource.Provider == "rest" {
		return collector.NewRESTFetcher(a.cfg.DataSource.BaseURL, a.cfg.DataSource.APIKey, a.cfg.Proxy, a.cfg.Location())
	}
	return collector.NewYahooFetcher(a.cfg.Proxy)
}

func (a *app) open() (dataset.Store, error) {
	return dataset.Open(a.cfg.Dataset.Path, a.cfg.Dataset.Sheet)
}

func (a *app) recorder() recorder.Recorder {
	if a.cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(a.cfg.Database.SQLitePath, a.log)
	if err != nil {
		a.log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		return recorder.NewNoopRecorder()
	}
	return sr
}

func (a *app) notifier() *notifier.TelegramNotifier {
	if !a.cfg.TelegramEnabled() {
		return nil
	}
	return notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy, a.log)
}

func (a *app) scheduler(ctx context.Context, rec recorder.Recorder) *scheduler.Scheduler {
	up := updater.New(a.fetcher(), a.cfg.Schema(), a.log)
	a.log.Info("data source", zap.String("fetcher", up.Collector.Fetcher.Name()),
		zap.String("dataset", a.cfg.Dataset.Path))
	return scheduler.NewScheduler(ctx, up, a.open, a.notifier(), rec, a.log)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	rec := a.recorder()
	defer rec.Close()

	sum, err := a.scheduler(ctx, rec).RunOnce(ctx)
	if viper.GetBool("table") && len(sum.Outcomes) > 0 {
		notifier.RenderTable(cmd.OutOrStdout(), &sum)
	}
	if err != nil {
		return err
	}
	a.log.Info("run finished",
		zap.String("run_id", sum.RunID),
		zap.Int("processed", sum.Processed),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed),
		zap.Int("fields_written", sum.FieldsWritten),
		zap.Bool("saved", sum.Saved))
	return nil
}

func watch(_ *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	rec := a.recorder()
	defer rec.Close()

	sched := a.scheduler(ctx, rec)
	if err := sched.Register(a.cfg.Schedule.Cron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()
	// Deferred last so it runs first: an in-flight save finishes before cron and the recorder shut down.
	defer sched.Wait()

	if sched.Notifier != nil {
		go sched.Notifier.StartPolling(ctx, sched.HandleCommand)
		a.log.Info("telegram polling started")
	}

	if viper.GetBool("run_on_start") {
		a.log.Info("run_on_start enabled, executing now")
		go sched.Task()
	}

	a.log.Info("watching", zap.String("cron", a.cfg.Schedule.Cron))
	<-ctx.Done()
	a.log.Info("shutdown signal received, stopping")
	return nil
}

var groupNames = map[string][]model.FieldGroup{
	"rsi":      {model.GroupRSIADX},
	"adx":      {model.GroupRSIADX},
	"distance": {model.GroupPriceDistance},
	"intraday": {model.GroupIntraday},
	"relvol":   {model.GroupRelativeVolume},
	"all":      model.AllGroups,
}

func parseGroups(names []string) ([]model.FieldGroup, error) {
	seen := map[model.FieldGroup]bool{}
	var out []model.FieldGroup
	for _, n := range names {
		gs, ok := groupNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return nil, fmt.Errorf("unknown field group %q", n)
		}
		for _, g := range gs {
			if !seen[g] {
				seen[g] = true
				out = append(out, g)
			}
		}
	}
	return out, nil
}

func clearFields(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	groups, err := parseGroups(viper.GetStringSlice("groups"))
	if err != nil {
		return err
	}
	store, err := a.open()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := updater.Clear(store, a.cfg.Schema(), groups)
	if err != nil {
		return err
	}
	a.log.Info("cleared", zap.String("dataset", store.Name()), zap.Int("cells", n))
	fmt.Fprintf(cmd.OutOrStdout(), "cleared %d cells in %s\n", n, store.Name())
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
