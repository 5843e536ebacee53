package main

import (
	"bufio"
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
	"github.com/moming2k/marketdata/internal/version"
)

func main() {
	tickersFlag := flag.String("tickers", "", "comma-separated ticker list (required)")
	startDate := flag.String("start-date", "", "range start, YYYY-MM-DD (required)")
	endDate := flag.String("end-date", "", "range end, YYYY-MM-DD (default today)")
	forceRefresh := flag.Bool("force-refresh", false, "rewrite rows that already exist")
	pricesOnly := flag.Bool("prices-only", false, "acquire price bars only")
	noPrices := flag.Bool("no-prices", false, "skip price bars")
	noMetrics := flag.Bool("no-metrics", false, "skip financial metrics")
	noNews := flag.Bool("no-news", false, "skip company news")
	noInsider := flag.Bool("no-insider-trades", false, "skip insider trades")
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	configPath := flag.String("config", "", "path to optional YAML tuning file")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "log format override (text, json)")
	flag.Parse()

	// Validate everything that can fail before touching the network or
	// database.
	tickers := splitTickers(*tickersFlag)
	if len(tickers) == 0 {
		fatalf("at least one ticker is required (-tickers)")
	}
	if *startDate == "" {
		fatalf("-start-date is required")
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
	if *pricesOnly && *noPrices {
		fatalf("-prices-only and -no-prices are mutually exclusive")
	}

	opts := acquire.Options{
		Start:         start,
		End:           end,
		ForceRefresh:  *forceRefresh,
		Prices:        !*noPrices,
		Metrics:       !*noMetrics && !*pricesOnly,
		News:          !*noNews && !*pricesOnly,
		InsiderTrades: !*noInsider && !*pricesOnly,
	}
	if opts.Kinds() == 0 {
		fatalf("every entity kind is disabled; nothing to acquire")
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

	logger.Info("starting acquisition",
		"version", version.Version,
		"commit", version.Commit,
		"provider", cfg.Provider.Kind,
		"tickers", len(tickers),
		"start", model.FormatDate(start),
		"end", model.FormatDate(end),
		"force_refresh", *forceRefresh,
	)

	if !*yes && !confirm(tickers, start, end, opts) {
		fmt.Println("aborted")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	summary, failed := run(ctx, cfg, logger, tickers, opts)
	if failed {
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

// run wires the pipeline and executes it. It returns failed=true on any
// infrastructure error; per-ticker failures are reported in the summary.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, tickers []string, opts acquire.Options) (*scheduler.RunSummary, bool) {
	for i, t := range tickers {
		tickers[i] = model.NormalizeTicker(t)
	}
	opts.Timeout = cfg.Acquire.TickerTimeout()

	st, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, true
	}
	defer st.Close()
	logger.Info("database connected")

	prov, err := provider.New(cfg.Provider, logger)
	if err != nil {
		logger.Error("failed to create provider", "error", err)
		return nil, true
	}

	tracker, err := progress.Open(cfg.Progress.File)
	if err != nil {
		logger.Error("failed to open progress file", "error", err)
		return nil, true
	}
	defer tracker.Close()

	remaining := tracker.Filter(tickers)
	if skipped := len(tickers) - len(remaining); skipped > 0 {
		logger.Info("resuming previous run", "already_complete", skipped)
	}
	if len(remaining) == 0 {
		logger.Info("nothing to do; all tickers already complete")
		return &scheduler.RunSummary{}, false
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
		return summary, true
	}
	return summary, false
}

func splitTickers(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func confirm(tickers []string, start, end time.Time, opts acquire.Options) bool {
	fmt.Printf("About to acquire %d tickers from %s to %s (%d entity kinds",
		len(tickers), model.FormatDate(start), model.FormatDate(end), opts.Kinds())
	if opts.ForceRefresh {
		fmt.Print(", force refresh")
	}
	fmt.Println(")")
	fmt.Print("Proceed? [y/N]: ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
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
