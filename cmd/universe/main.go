package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/moming2k/marketdata/internal/acquire"
	"github.com/moming2k/marketdata/internal/config"
	"github.com/moming2k/marketdata/internal/model"
	"github.com/moming2k/marketdata/internal/progress"
	"github.com/moming2k/marketdata/internal/provider"
	"github.com/moming2k/marketdata/internal/reconcile"
	"github.com/moming2k/marketdata/internal/scheduler"
	"github.com/moming2k/marketdata/internal/store"
	"github.com/moming2k/marketdata/internal/universe"
	"github.com/moming2k/marketdata/internal/version"
)

// defaultStartDate gives every universe run ten years of daily history.
const defaultStartDate = "2015-01-01"

func main() {
	universePath := flag.String("universe", "", "path to universe CSV (required)")
	startDate := flag.String("start-date", defaultStartDate, "range start, YYYY-MM-DD")
	endDate := flag.String("end-date", "", "range end, YYYY-MM-DD (default today)")
	limit := flag.Int("limit", 0, "acquire only the top N tickers by file order (0 = all)")
	forceRefresh := flag.Bool("force-refresh", false, "rewrite rows that already exist")
	configPath := flag.String("config", "", "path to optional YAML tuning file")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "log format override (text, json)")
	flag.Parse()

	if *universePath == "" {
		fatalf("-universe is required")
	}
	start, err := model.ParseDate(*startDate)
	if err != nil {
		fatalf("invalid -start-date: %v", err)
	}
	end := time.Now().UTC().Truncate(24 * time.Hour)
	if *endDate != "" {
		if end, err = model.ParseDate(*endDate); err != nil {
			fatalf("invalid -end-date: %v", err)
		}
	}
	if start.After(end) {
		fatalf("start date %s is after end date %s", model.FormatDate(start), model.FormatDate(end))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	companies, err := universe.Load(*universePath)
	if err != nil {
		logger.Error("failed to load universe", "error", err)
		os.Exit(1)
	}
	if *limit > 0 && *limit < len(companies) {
		companies = companies[:*limit]
	}
	tickers := universe.Tickers(companies)

	logger.Info("starting universe acquisition",
		"version", version.Version,
		"commit", version.Commit,
		"provider", cfg.Provider.Kind,
		"universe", *universePath,
		"tickers", len(tickers),
		"start", model.FormatDate(start),
		"end", model.FormatDate(end),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	opts := acquire.Options{
		Start:         start,
		End:           end,
		Prices:        true,
		Metrics:       true,
		News:          true,
		InsiderTrades: true,
		ForceRefresh:  *forceRefresh,
		Timeout:       cfg.Acquire.TickerTimeout(),
	}

	st, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("database connected")

	prov, err := provider.New(cfg.Provider, logger)
	if err != nil {
		logger.Error("failed to create provider", "error", err)
		os.Exit(1)
	}

	tracker, err := progress.Open(cfg.Progress.File)
	if err != nil {
		logger.Error("failed to open progress file", "error", err)
		os.Exit(1)
	}
	defer tracker.Close()

	remaining := tracker.Filter(tickers)
	if skipped := len(tickers) - len(remaining); skipped > 0 {
		logger.Info("resuming previous run", "already_complete", skipped)
	}
	if len(remaining) == 0 {
		logger.Info("nothing to do; all tickers already complete")
		return
	}

	engine := reconcile.New(st, st, st, st, logger)
	acquirer := acquire.New(prov, engine, logger)
	sched := scheduler.New(acquirer, tracker, cfg.Scheduler, logger)

	summary, runErr := sched.Run(ctx, remaining, opts)

	if err := progress.WriteFailed(cfg.Progress.FailedFile, summary.FailedTickers); err != nil {
		logger.Error("failed to write failed-tickers file", "error", err)
	}
	if runErr != nil {
		logger.Error("run aborted", "error", runErr,
			"succeeded", summary.Succeeded, "failed", summary.Failed)
		os.Exit(1)
	}
	if summary.Failed > 0 {
		logger.Error("run completed with failures",
			"failed", summary.Failed,
			"failed_tickers", summary.FailedTickers)
		os.Exit(1)
	}
	logger.Info("run completed", "succeeded", summary.Succeeded)
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	hopts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, hopts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, hopts))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
