// Command acsfetch downloads the configured ACS tables as block-group CSV
// files.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/atlregional/acsfetch/pkg/assembler"
	"github.com/atlregional/acsfetch/pkg/census"
	"github.com/atlregional/acsfetch/pkg/config"
	"github.com/atlregional/acsfetch/pkg/logging"
	"github.com/atlregional/acsfetch/pkg/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "acsfetch.yaml", "Path to the configuration file")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	pretty := flag.Bool("pretty", false, "Human-readable console log output")
	metricsAddr := flag.String("metrics-addr", "", "Optional address to serve Prometheus metrics on during the run (e.g. :9090)")
	flag.Parse()

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(*logLevel),
		Pretty: *pretty,
		Output: os.Stderr,
	})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}

	client, err := census.New(census.Config{
		BaseURL: cfg.BaseURL,
		Year:    cfg.Year,
		Dataset: cfg.Dataset,
		APIKey:  cfg.APIKey,
		Timeout: cfg.RequestTimeout.Std(),
		Retry: census.RetryConfig{
			MaxAttempts:       cfg.MaxAttempts,
			InitialBackoff:    cfg.InitialBackoff.Std(),
			MaxBackoff:        cfg.MaxBackoff.Std(),
			BackoffMultiplier: 2.0,
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create census client")
		return 1
	}

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Warn().Err(err).Msg("Metrics server stopped")
			}
		}()
		log.Info().Str("addr", *metricsAddr).Msg("Serving Prometheus metrics")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Int("year", cfg.Year).
		Str("state", cfg.State).
		Int("counties", len(cfg.Counties)).
		Int("tables", len(cfg.Tables)).
		Msg("Starting download run")

	summary, err := assembler.New(cfg, client).Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Run aborted")
		return 1
	}

	for _, path := range summary.Written {
		log.Info().Str("path", path).Msg("Wrote table")
	}
	for _, f := range summary.Failures {
		log.Error().
			Str("table", f.Code).
			Str("label", f.Label).
			Err(f.Err).
			Msg("Table group failed")
	}

	if summary.Failed() {
		log.Error().
			Int("failed", len(summary.Failures)).
			Int("written", len(summary.Written)).
			Msg("Run finished with failures")
		return 1
	}

	log.Info().Int("written", len(summary.Written)).Msg("Run finished")
	return 0
}
