// Package run orchestrates one collection run: fetch, transform, upload.
package run

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/alecgard/tally/internal/datadog"
	"github.com/alecgard/tally/internal/focus"
	"github.com/alecgard/tally/internal/metrics"
)

// Source collects one provider's cost records for a period. One
// implementation per provider.
type Source interface {
	Provider() string
	Collect(ctx context.Context, period focus.Period) (*focus.Batch, error)
}

// Uploader submits cost records to the cost-management API.
type Uploader interface {
	Upload(ctx context.Context, records []focus.CostRecord) (*datadog.Result, error)
}

// Outcome summarizes a completed run.
type Outcome struct {
	RunID     string
	Provider  string
	Period    focus.Period
	Fetched   int
	Skipped   int
	Records   []focus.CostRecord
	Uploaded  int
	Failed    []focus.CostRecord
	TotalCost decimal.Decimal
	DryRun    bool
	Duration  time.Duration
}

// Runner drives the fetch, transform, upload sequence for one period and
// records the outcome in metrics.
type Runner struct {
	Source   Source
	Uploader Uploader
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	DryRun   bool
}

// Run executes the pipeline. A provider fetch failure is fatal. Transform
// skips are not: they are counted and the run continues. Any record that
// fails to upload makes the run return an error after the whole batch has
// been attempted, so the scheduler can alert; nothing is retried in-run.
func (r *Runner) Run(ctx context.Context, period focus.Period) (*Outcome, error) {
	runID := uuid.NewString()
	provider := r.Source.Provider()
	logger := r.Logger.With("run_id", runID, "provider", provider, "period", period.String())
	start := time.Now()

	outcome := &Outcome{
		RunID:     runID,
		Provider:  provider,
		Period:    period,
		TotalCost: decimal.Zero,
		DryRun:    r.DryRun,
	}

	logger.Info("run starting", "dry_run", r.DryRun)

	batch, err := r.Source.Collect(ctx, period)
	if err != nil {
		logger.Error("fetching usage failed", "error", err)
		return nil, err
	}

	outcome.Fetched = batch.Fetched
	outcome.Skipped = batch.Skipped
	outcome.Records = batch.Records
	outcome.TotalCost = lo.Reduce(batch.Records, func(sum decimal.Decimal, rec focus.CostRecord, _ int) decimal.Decimal {
		return sum.Add(rec.BilledCost)
	}, decimal.Zero)

	r.Metrics.RecordsFetched.WithLabelValues(provider).Add(float64(batch.Fetched))
	if batch.Skipped > 0 {
		r.Metrics.RecordsSkipped.WithLabelValues(provider, "unknown_charge_type").Add(float64(batch.Skipped))
		logger.Warn("skipped untransformable records", "skipped", batch.Skipped)
	}
	r.Metrics.BilledCost.WithLabelValues(provider).Set(outcome.TotalCost.InexactFloat64())

	if len(batch.Records) == 0 {
		logger.Warn("no usage data for period, nothing to upload")
		outcome.Duration = time.Since(start)
		r.Metrics.RunDuration.Set(outcome.Duration.Seconds())
		return outcome, nil
	}

	logger.Info("transformed records",
		"fetched", batch.Fetched, "records", len(batch.Records),
		"skipped", batch.Skipped, "total_cost", outcome.TotalCost.StringFixed(2))

	result, err := r.Uploader.Upload(ctx, batch.Records)
	if err != nil {
		logger.Error("upload failed", "error", err)
		return nil, err
	}

	outcome.Uploaded = result.Uploaded
	outcome.Failed = result.Failed
	outcome.Duration = time.Since(start)

	r.Metrics.RecordsUploaded.WithLabelValues(provider).Add(float64(result.Uploaded))
	r.Metrics.RecordsFailed.WithLabelValues(provider).Add(float64(len(result.Failed)))
	r.Metrics.RunDuration.Set(outcome.Duration.Seconds())

	if len(result.Failed) > 0 {
		for _, rec := range result.Failed {
			logger.Error("record not uploaded",
				"charge", rec.ChargeDescription,
				"cost", rec.BilledCost.StringFixed(2),
				"tags", rec.Tags)
		}
		return outcome, fmt.Errorf("%d of %d records failed to upload", len(result.Failed), len(batch.Records))
	}

	logger.Info("run complete", "uploaded", result.Uploaded, "duration", outcome.Duration)
	return outcome, nil
}
