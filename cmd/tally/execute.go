package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecgard/tally/internal/config"
	"github.com/alecgard/tally/internal/datadog"
	"github.com/alecgard/tally/internal/focus"
	"github.com/alecgard/tally/internal/github"
	"github.com/alecgard/tally/internal/metrics"
	"github.com/alecgard/tally/internal/neon"
	"github.com/alecgard/tally/internal/report"
	"github.com/alecgard/tally/internal/run"
)

func setupLogger() {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// buildSource constructs the provider pipeline for a job. Everything here is
// pure wiring; no network call happens until the runner collects.
func buildSource(cfg *config.Config, job string) (run.Source, error) {
	switch job {
	case config.JobGitHub:
		client := github.NewClient(github.ClientConfig{
			Token:   cfg.GitHub.Token,
			Org:     cfg.GitHub.Org,
			Timeout: cfg.HTTP.Timeout,
		})
		return github.NewPipeline(client), nil
	case config.JobNeon:
		pricing, err := neon.PricingFromStrings(cfg.Neon.Pricing.ComputePerCUHour, cfg.Neon.Pricing.StoragePerGBMonth)
		if err != nil {
			return nil, fmt.Errorf("invalid Neon pricing: %w", err)
		}
		client := neon.NewClient(neon.ClientConfig{
			APIKey:  cfg.Neon.APIKey,
			OrgID:   cfg.Neon.OrgID,
			Timeout: cfg.HTTP.Timeout,
		})
		return neon.NewPipeline(client, pricing), nil
	default:
		return nil, fmt.Errorf("unknown job %q: expected %s or %s", job, config.JobGitHub, config.JobNeon)
	}
}

// execute wires the runner and drives one collection run to completion.
func execute(ctx context.Context, cfg *config.Config, src run.Source, period focus.Period, dryRun bool) error {
	m := metrics.New()

	uploader := datadog.NewUploader(datadog.UploaderConfig{
		APIKey:    cfg.Datadog.APIKey,
		AppKey:    cfg.Datadog.AppKey,
		Site:      cfg.Datadog.Site,
		BatchSize: cfg.Upload.BatchSize,
		DryRun:    dryRun,
		Timeout:   cfg.HTTP.Timeout,
	})

	runner := &run.Runner{
		Source:   src,
		Uploader: uploader,
		Metrics:  m,
		Logger:   slog.Default(),
		DryRun:   dryRun,
	}

	outcome, runErr := runner.Run(ctx, period)

	if outcome != nil && dryRun && len(outcome.Records) > 0 {
		if err := report.Render(os.Stdout, outcome.Records); err != nil {
			slog.Error("rendering dry-run report failed", "error", err)
		}
	}

	if outcome != nil {
		pushMetrics(cfg, m, outcome)
		if summary, err := m.Snapshot(); err == nil {
			slog.Info("run summary",
				"run_id", outcome.RunID,
				"provider", outcome.Provider,
				"fetched", summary.Fetched,
				"skipped", summary.Skipped,
				"uploaded", summary.Uploaded,
				"failed", summary.Failed,
				"billed_cost", summary.BilledCost,
				"duration_seconds", summary.Duration)
		}
	}

	return runErr
}

// pushMetrics best-effort pushes the run's metrics to the configured
// Pushgateway. A push failure is logged, never fatal: the run's exit code
// reflects the upload outcome only.
func pushMetrics(cfg *config.Config, m *metrics.Metrics, outcome *run.Outcome) {
	url := cfg.Metrics.PushgatewayURL
	if url == "" {
		return
	}
	grouping := map[string]string{
		"provider": outcome.Provider,
		"run_id":   outcome.RunID,
	}
	if err := m.Push(url, "tally", grouping); err != nil {
		slog.Error("pushing metrics failed", "url", url, "error", err)
	}
}
