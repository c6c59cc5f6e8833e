package neon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/alecgard/tally/internal/focus"
)

// Pipeline composes the client and the transformer into one collection step
// for the run orchestrator.
type Pipeline struct {
	client      *Client
	transformer *Transformer
}

func NewPipeline(client *Client, pricing Pricing) *Pipeline {
	return &Pipeline{client: client, transformer: &Transformer{Pricing: pricing}}
}

func (p *Pipeline) Provider() string {
	return focus.ProviderNeon
}

// Collect fetches project metadata and the day's consumption, drops projects
// the metadata does not know (they belong to another organization), and
// prices the rest into cost records.
func (p *Pipeline) Collect(ctx context.Context, period focus.Period) (*focus.Batch, error) {
	names, err := p.client.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("neon: %w", err)
	}

	consumption, err := p.client.ConsumptionHistory(ctx, period.Start)
	if err != nil {
		return nil, fmt.Errorf("neon: %w", err)
	}

	known := lo.Filter(consumption, func(c ProjectConsumption, _ int) bool {
		if _, ok := names[c.ProjectID]; !ok {
			slog.Debug("skipping project not in organization", "project_id", c.ProjectID)
			return false
		}
		return true
	})

	records, skipped := p.transformer.Transform(known, names, period)
	return &focus.Batch{Records: records, Fetched: len(consumption), Skipped: skipped}, nil
}
