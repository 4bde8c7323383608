package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/prediction-trader/internal/backtest"
	"github.com/ducminhle1904/prediction-trader/internal/config"
	"github.com/ducminhle1904/prediction-trader/internal/logger"
	"github.com/ducminhle1904/prediction-trader/internal/monitoring"
	"github.com/ducminhle1904/prediction-trader/internal/strategy"
	"github.com/ducminhle1904/prediction-trader/pkg/data"
	"github.com/ducminhle1904/prediction-trader/pkg/reporting"
	"github.com/ducminhle1904/prediction-trader/pkg/types"
)

func main() {
	var (
		configFile   = flag.String("config", "", "Path to configuration file (.toml or .json)")
		strategyName = flag.String("strategy", "baseline", "Strategy to run: baseline, rsi, combined")
		duration     = flag.Duration("duration", 0, "Session duration (0 = run until interrupted)")
		barInterval  = flag.Duration("bar-interval", 5*time.Second, "Wall-clock time between simulated bars")
		seed         = flag.Int64("seed", time.Now().UnixNano(), "Random seed for the simulated price feed")
		startPrice   = flag.Float64("start-price", 100.0, "Starting price for the simulated feed")
		metricsAddr  = flag.String("metrics-addr", ":9090", "Prometheus metrics listen address (empty = disabled)")
		statusEvery  = flag.Int("status-every", 20, "Log a session status block every N bars")
		envFile      = flag.String("env-file", ".env", "Environment file to load")
	)
	flag.Parse()

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "❌ missing required flag: -config")
		os.Exit(1)
	}

	if _, err := os.Stat(*envFile); err == nil {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "⚠️ Failed to load %s: %v\n", *envFile, err)
		}
	}

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	strat, err := buildStrategy(*strategyName)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	engine, err := backtest.NewEngine(cfg, strat)
	if err != nil {
		log.Fatalf("❌ Failed to build engine: %v", err)
	}

	sessionLog, err := logger.NewLogger(cfg.Instrument, strat.GetName())
	if err != nil {
		log.Fatalf("❌ Failed to create session log: %v", err)
	}
	defer sessionLog.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	if *metricsAddr != "" {
		startMetricsServer(*metricsAddr, sessionLog)
	}

	sim := data.NewSimulator(*seed, *startPrice, time.Now().UTC().Truncate(time.Second), time.Minute)
	feed := &observedFeed{
		sim:         sim,
		interval:    *barInterval,
		engine:      engine,
		log:         sessionLog,
		instrument:  cfg.Instrument,
		statusEvery: *statusEvery,
	}

	log.Printf("🚀 Paper trading %s with %s (seed %d), bar every %s", cfg.Instrument, strat.GetName(), *seed, *barInterval)
	sessionLog.Info("Configuration loaded from %s", *configFile)

	results, err := engine.Run(ctx, feed)
	if err != nil {
		sessionLog.LogError("session aborted", err)
		log.Printf("⚠️ Session ended with error: %v", err)
	}

	if results != nil {
		console := reporting.NewDefaultConsoleReporter()
		console.OutputResults(results)

		reportPath := filepath.Join("results", fmt.Sprintf("paper_%s_%s.json", cfg.Instrument, strat.GetName()))
		files := reporting.NewDefaultFileReporter()
		if err := files.WriteReportJSON(results, reportPath); err != nil {
			log.Printf("⚠️ Failed to write session report: %v", err)
		} else {
			log.Printf("💾 Session report saved to %s", reportPath)
		}
	}
}

func buildStrategy(name string) (strategy.Strategy, error) {
	switch name {
	case "baseline":
		return strategy.NewBaselineStrategy(), nil
	case "rsi":
		return strategy.NewRSIStrategy(), nil
	case "combined":
		return strategy.NewCombinedStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (use baseline, rsi, or combined)", name)
	}
}

func startMetricsServer(addr string, sessionLog *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())

	go func() {
		sessionLog.Info("Metrics endpoint listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			sessionLog.LogError("metrics server", err)
		}
	}()
}

// observedFeed paces the simulated walk on wall-clock time and publishes
// session state between bars. Next runs on the engine's goroutine, so
// reading engine state here never races with a simulation step.
type observedFeed struct {
	sim         *data.Simulator
	interval    time.Duration
	engine      *backtest.Engine
	log         *logger.Logger
	instrument  string
	statusEvery int

	bars       int
	seenClosed int
	seenBlocks int
}

func (f *observedFeed) Next(ctx context.Context) (types.OHLCV, bool, error) {
	f.publish()

	if f.bars > 0 {
		select {
		case <-ctx.Done():
			return types.OHLCV{}, false, ctx.Err()
		case <-time.After(f.interval):
		}
	}

	f.bars++
	return f.sim.NextBar(), true, nil
}

// publish pushes newly closed trades and risk state to the session log
// and Prometheus gauges.
func (f *observedFeed) publish() {
	ledger := f.engine.Ledger()
	for _, p := range ledger[f.seenClosed:] {
		f.log.LogTrade("POSITION CLOSED ("+string(p.ExitReason)+")", string(p.Side), p.ExitPrice, p.Size, p.RealizedPnL)
		monitoring.RecordTrade(f.instrument, string(p.Side), string(p.ExitReason))
	}
	f.seenClosed = len(ledger)

	snap := f.engine.Snapshot()
	blocked := f.engine.BlockedTrades()
	for range blocked[f.seenBlocks:] {
		monitoring.RecordRejection(f.instrument)
	}
	f.seenBlocks = len(blocked)

	open := len(f.engine.OpenPositions())
	monitoring.UpdateRiskState(f.instrument, snap.CurrentBalance, snap.CurrentDrawdown, open, string(snap.RiskLevel))

	if f.statusEvery > 0 && f.bars > 0 && f.bars%f.statusEvery == 0 {
		f.log.LogSessionStatus(snap.CurrentBalance, snap.DailyPnL, snap.CurrentDrawdown, open, string(snap.RiskLevel))
	}
}
