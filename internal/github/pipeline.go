package github

import (
	"context"
	"fmt"

	"github.com/alecgard/tally/internal/focus"
)

// Pipeline composes the client, the attribution resolver and the transformer
// into one collection step for the run orchestrator.
type Pipeline struct {
	client *Client
}

func NewPipeline(client *Client) *Pipeline {
	return &Pipeline{client: client}
}

func (p *Pipeline) Provider() string {
	return focus.ProviderGitHub
}

// Collect fetches the organization's usage for the period and transforms it
// into cost records. Attribution lookups are memoized for the duration of the
// call, so each repository's topics are fetched at most once per run.
func (p *Pipeline) Collect(ctx context.Context, period focus.Period) (*focus.Batch, error) {
	items, err := p.client.UsageItems(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("github: %w", err)
	}

	attr := NewAttribution(p.client)
	records, skipped := Transform(items, period, func(repo string) string {
		return attr.Service(ctx, repo)
	})

	return &focus.Batch{Records: records, Fetched: len(items), Skipped: skipped}, nil
}
