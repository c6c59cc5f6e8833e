// Package github fetches billing usage from the GitHub enhanced billing API
// and converts it into FOCUS cost records, attributing repository costs to
// services via repository topics.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/alecgard/tally/internal/focus"
)

const (
	defaultBaseURL   = "https://api.github.com"
	apiVersion       = "2022-11-28"
	acceptHeader     = "application/vnd.github+json"
	rateSafetyMargin = 2 * time.Second
)

// UsageItem is one raw billing line item as reported by the GitHub API, one
// per (product, SKU, repository, date).
type UsageItem struct {
	Date             string  `json:"date"`
	Product          string  `json:"product"`
	SKU              string  `json:"sku"`
	Quantity         float64 `json:"quantity"`
	UnitType         string  `json:"unitType"`
	PricePerUnit     float64 `json:"pricePerUnit"`
	GrossAmount      float64 `json:"grossAmount"`
	DiscountAmount   float64 `json:"discountAmount"`
	NetAmount        float64 `json:"netAmount"`
	OrganizationName string  `json:"organizationName"`
	RepositoryName   string  `json:"repositoryName"`
}

type ClientConfig struct {
	Token   string
	Org     string
	BaseURL string // defaults to the public GitHub API
	Timeout time.Duration
}

// Client calls the GitHub billing and repository APIs for one organization.
type Client struct {
	hc      *http.Client
	org     string
	baseURL string
}

func NewClient(cfg ClientConfig) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	hc := oauth2.NewClient(context.Background(), ts)
	if cfg.Timeout > 0 {
		hc.Timeout = cfg.Timeout
	} else {
		hc.Timeout = 30 * time.Second
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{hc: hc, org: cfg.Org, baseURL: base}
}

// UsageItems fetches the organization's billing usage for the period. The
// endpoint takes year/month query parameters, plus day for daily granularity,
// and returns the full item list in one response.
func (c *Client) UsageItems(ctx context.Context, period focus.Period) ([]UsageItem, error) {
	params := url.Values{}
	params.Set("year", strconv.Itoa(period.Start.Year()))
	params.Set("month", strconv.Itoa(int(period.Start.Month())))
	if period.Granularity == focus.GranularityDaily {
		params.Set("day", strconv.Itoa(period.Start.Day()))
	}

	u := fmt.Sprintf("%s/orgs/%s/settings/billing/usage?%s", c.baseURL, c.org, params.Encode())
	var out struct {
		UsageItems []UsageItem `json:"usageItems"`
	}
	if err := c.get(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("fetching usage for %s: %w", period, err)
	}
	slog.Info("retrieved usage items", "org", c.org, "period", period.String(), "count", len(out.UsageItems))
	return out.UsageItems, nil
}

// RepositoryTopics fetches the topic list of a repository in the
// organization.
func (c *Client) RepositoryTopics(ctx context.Context, repo string) ([]string, error) {
	u := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, c.org, repo)
	var out struct {
		Topics []string `json:"topics"`
	}
	if err := c.get(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("fetching repository %s: %w", repo, err)
	}
	return out.Topics, nil
}

func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", acceptHeader)
		req.Header.Set("X-GitHub-Api-Version", apiVersion)

		resp, err := c.hc.Do(req)
		if err != nil {
			return err
		}

		if wait, limited := rateLimitWait(resp); limited {
			drainAndClose(resp.Body)
			if wait > 0 {
				slog.Warn("rate limited by GitHub API, sleeping", "wait", wait)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(wait):
				}
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			b, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			return fmt.Errorf("GitHub API %s returned %d: %s", rawURL, resp.StatusCode, string(b))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		_ = resp.Body.Close()
		return err
	}
}

// rateLimitWait reports whether the response is a rate-limit rejection and
// how long to wait before retrying: primary limits answer 403 with a zeroed
// X-RateLimit-Remaining and a reset timestamp, secondary limits answer 429
// with Retry-After seconds.
func rateLimitWait(resp *http.Response) (time.Duration, bool) {
	if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
		if sec, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
			return time.Until(time.Unix(sec, 0)) + rateSafetyMargin, true
		}
		return rateSafetyMargin, true
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		if sec, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			return time.Duration(sec) * time.Second, true
		}
		return rateSafetyMargin, true
	}
	return 0, false
}

func drainAndClose(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, rc)
	_ = rc.Close()
}
