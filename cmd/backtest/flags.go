package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/prediction-trader/internal/config"
)

// CLIFlags holds the command-line arguments for a backtest run
type CLIFlags struct {
	ConfigFile   string
	DataFile     string
	Strategy     string
	Compare      bool
	Verbose      bool
	OutputFormat string
	OutputFile   string
	EnvFile      string
}

func parseFlags() *CLIFlags {
	flags := &CLIFlags{}

	flag.StringVar(&flags.ConfigFile, "config", "", "Path to configuration file (.toml or .json)")
	flag.StringVar(&flags.DataFile, "data", "", "Path to historical data CSV file")
	flag.StringVar(&flags.Strategy, "strategy", "baseline", "Strategy to run: baseline, rsi, combined")
	flag.BoolVar(&flags.Compare, "compare", false, "Run every strategy in parallel and compare")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Print the full trade history")
	flag.StringVar(&flags.OutputFormat, "output", "console", "Output format: console, json, csv, xlsx")
	flag.StringVar(&flags.OutputFile, "output-file", "", "Output file path (default: results/<instrument>_<strategy>/)")
	flag.StringVar(&flags.EnvFile, "env-file", ".env", "Environment file to load")

	flag.Parse()
	return flags
}

func (f *CLIFlags) validate() error {
	if f.ConfigFile == "" {
		return fmt.Errorf("missing required flag: -config")
	}
	if f.DataFile == "" {
		return fmt.Errorf("missing required flag: -data")
	}
	return nil
}

// loadEnvironment loads the .env file when present; a missing file is not
// an error, the environment simply stays as-is.
func loadEnvironment(envFile string) {
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "⚠️ Failed to load %s: %v\n", envFile, err)
		}
	}
}

func loadConfig(flags *CLIFlags) (*config.Config, error) {
	return config.LoadFile(flags.ConfigFile)
}
