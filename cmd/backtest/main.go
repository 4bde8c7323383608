package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ducminhle1904/prediction-trader/internal/backtest"
	"github.com/ducminhle1904/prediction-trader/internal/config"
	"github.com/ducminhle1904/prediction-trader/internal/strategy"
	"github.com/ducminhle1904/prediction-trader/pkg/data"
	"github.com/ducminhle1904/prediction-trader/pkg/reporting"
	"github.com/ducminhle1904/prediction-trader/pkg/types"
)

func main() {
	flags := parseFlags()
	if err := flags.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n\n", err)
		fmt.Fprintln(os.Stderr, "Usage: backtest -config <file> -data <file> [-strategy baseline|rsi|combined] [-compare]")
		os.Exit(1)
	}

	loadEnvironment(flags.EnvFile)

	cfg, err := loadConfig(flags)
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	bars, err := loadData(flags.DataFile)
	if err != nil {
		log.Fatalf("❌ Failed to load data: %v", err)
	}
	log.Printf("📊 Loaded %d bars for %s", len(bars), cfg.Instrument)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	console := reporting.NewDefaultConsoleReporter()
	files := reporting.NewDefaultFileReporter()

	if flags.Compare {
		runComparison(ctx, cfg, bars, console)
		return
	}

	strat, err := buildStrategy(flags.Strategy)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	engine, err := backtest.NewEngine(cfg, strat)
	if err != nil {
		log.Fatalf("❌ Failed to build engine: %v", err)
	}

	results, err := engine.Run(ctx, backtest.NewSliceSource(bars))
	if err != nil {
		// A data-order abort still carries partial results worth showing.
		log.Printf("⚠️ Run ended with error: %v", err)
	}
	if results == nil {
		os.Exit(1)
	}

	console.OutputResults(results)
	if flags.Verbose {
		console.PrintTradeHistory(results)
	}

	if err := writeOutputs(files, results, flags); err != nil {
		log.Fatalf("❌ Failed to write output: %v", err)
	}
}

func loadData(path string) ([]types.OHLCV, error) {
	provider := data.NewCachedProvider(data.NewCSVProvider())
	bars, err := provider.LoadData(path)
	if err != nil {
		return nil, err
	}
	if err := provider.ValidateData(bars); err != nil {
		return nil, err
	}
	return bars, nil
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

func allStrategies() map[string]strategy.Strategy {
	return map[string]strategy.Strategy{
		"baseline": strategy.NewBaselineStrategy(),
		"rsi":      strategy.NewRSIStrategy(),
		"combined": strategy.NewCombinedStrategy(),
	}
}

func runComparison(ctx context.Context, cfg *config.Config, bars []types.OHLCV, console *reporting.DefaultConsoleReporter) {
	results, err := backtest.CompareStrategies(ctx, cfg, bars, allStrategies())
	if err != nil {
		log.Fatalf("❌ Comparison failed: %v", err)
	}
	console.OutputComparison(results)
}

func writeOutputs(files *reporting.DefaultFileReporter, results *backtest.Results, flags *CLIFlags) error {
	outputFile := flags.OutputFile
	if outputFile == "" && flags.OutputFormat != "console" {
		dir := reporting.DefaultOutputDir(results.Instrument, results.StrategyName)
		outputFile = filepath.Join(dir, "report."+flags.OutputFormat)
	}

	switch flags.OutputFormat {
	case "console":
		return nil
	case "json":
		if err := files.WriteReportJSON(results, outputFile); err != nil {
			return err
		}
	case "csv":
		if err := files.WriteTradesCSV(results, outputFile); err != nil {
			return err
		}
	case "xlsx":
		if err := files.WriteTradesXLSX(results, outputFile); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output format %q", flags.OutputFormat)
	}

	log.Printf("💾 Results saved to %s", outputFile)
	return nil
}
