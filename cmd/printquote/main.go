package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Simplici0/printquote/internal/config"
	"github.com/Simplici0/printquote/internal/pricing"
)

var (
	logger      = zap.NewNop()
	verbose     bool
	pricingPath string
	appConfig   config.Config
)

var rootCmd = &cobra.Command{
	Use:   "printquote",
	Short: "Estimate 3D print weight, time and price from STL files",
	Long: `printquote estimates how much filament an STL model needs, how long it
prints and what it costs, using a per-material price list. It also serves the
estimator and a quote-request inbox over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		appConfig = config.Load()
		if pricingPath == "" {
			pricingPath = appConfig.PricingFile
		}

		var err error
		logger, err = newLogger(verbose || appConfig.LogLevel == "debug")
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		for _, w := range appConfig.Warnings() {
			logger.Debug("config warning", zap.String("warning", w))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&pricingPath, "pricing", "", "YAML price list (defaults to $PRICING_FILE)")
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func loadPricing() (pricing.Config, error) {
	cfg, err := config.LoadPricing(pricingPath)
	if err != nil {
		return cfg, err
	}
	logger.Debug("pricing loaded",
		zap.String("file", pricingPath),
		zap.Float64("rate_per_kg", cfg.RatePerKg),
		zap.String("currency", cfg.Currency))
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
