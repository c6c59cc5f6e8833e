// Package neon fetches per-project consumption from the Neon API and prices
// it into FOCUS cost records using the published usage-based rates.
package neon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://console.neon.tech/api/v2"

const pageLimit = 100

// ProjectConsumption is one project's consumption for a single day, flattened
// from the API's nested projects/periods/consumption shape.
type ProjectConsumption struct {
	ProjectID      string
	TimeframeStart time.Time
	TimeframeEnd   time.Time
	ComputeSeconds float64
	ActiveSeconds  float64
	WrittenBytes   float64
	StorageBytes   float64
}

type ClientConfig struct {
	APIKey  string
	OrgID   string
	BaseURL string // defaults to the Neon console API
	Timeout time.Duration
}

// Client calls the Neon console API for one organization.
type Client struct {
	hc      *http.Client
	orgID   string
	baseURL string
}

func NewClient(cfg ClientConfig) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey})
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
	return &Client{hc: hc, orgID: cfg.OrgID, baseURL: base}
}

// Projects fetches the organization's project metadata and returns a
// project-ID-to-name map, following cursor pagination to exhaustion.
func (c *Client) Projects(ctx context.Context) (map[string]string, error) {
	names := make(map[string]string)
	cursor := ""

	for {
		params := url.Values{}
		params.Set("org_id", c.orgID)
		params.Set("limit", fmt.Sprint(pageLimit))
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var out struct {
			Projects []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"projects"`
			Pagination struct {
				Cursor string `json:"cursor"`
			} `json:"pagination"`
		}
		if err := c.get(ctx, c.baseURL+"/projects?"+params.Encode(), &out); err != nil {
			return nil, fmt.Errorf("fetching projects: %w", err)
		}

		for _, p := range out.Projects {
			name := p.Name
			if name == "" {
				name = p.ID
			}
			names[p.ID] = name
		}

		if out.Pagination.Cursor == "" || len(out.Projects) == 0 {
			break
		}
		cursor = out.Pagination.Cursor
	}

	slog.Info("retrieved project metadata", "org_id", c.orgID, "projects", len(names))
	return names, nil
}

// ConsumptionHistory fetches every project's consumption for the given day
// (midnight UTC to the next midnight, daily granularity) and flattens it. A
// project reporting more than one daily record is unexpected; the first is
// used and a warning logged.
func (c *Client) ConsumptionHistory(ctx context.Context, day time.Time) ([]ProjectConsumption, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	var all []ProjectConsumption
	cursor := ""

	for {
		params := url.Values{}
		params.Set("from", from.Format("2006-01-02T15:04:05Z"))
		params.Set("to", to.Format("2006-01-02T15:04:05Z"))
		params.Set("granularity", "daily")
		params.Set("org_id", c.orgID)
		params.Set("limit", fmt.Sprint(pageLimit))
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var out struct {
			Projects []struct {
				ProjectID string `json:"project_id"`
				Periods   []struct {
					Consumption []struct {
						TimeframeStart            time.Time `json:"timeframe_start"`
						TimeframeEnd              time.Time `json:"timeframe_end"`
						ComputeTimeSeconds        float64   `json:"compute_time_seconds"`
						ActiveTimeSeconds         float64   `json:"active_time_seconds"`
						WrittenDataBytes          float64   `json:"written_data_bytes"`
						SyntheticStorageSizeBytes float64   `json:"synthetic_storage_size_bytes"`
					} `json:"consumption"`
				} `json:"periods"`
			} `json:"projects"`
			Pagination struct {
				Cursor string `json:"cursor"`
			} `json:"pagination"`
		}
		if err := c.get(ctx, c.baseURL+"/consumption_history/projects?"+params.Encode(), &out); err != nil {
			return nil, fmt.Errorf("fetching consumption history: %w", err)
		}

		for _, p := range out.Projects {
			if len(p.Periods) == 0 || len(p.Periods[0].Consumption) == 0 {
				continue
			}
			consumption := p.Periods[0].Consumption
			if len(consumption) > 1 {
				slog.Warn("expected one daily consumption record, using first",
					"project_id", p.ProjectID, "records", len(consumption))
			}
			rec := consumption[0]
			all = append(all, ProjectConsumption{
				ProjectID:      p.ProjectID,
				TimeframeStart: rec.TimeframeStart,
				TimeframeEnd:   rec.TimeframeEnd,
				ComputeSeconds: rec.ComputeTimeSeconds,
				ActiveSeconds:  rec.ActiveTimeSeconds,
				WrittenBytes:   rec.WrittenDataBytes,
				StorageBytes:   rec.SyntheticStorageSizeBytes,
			})
		}

		if out.Pagination.Cursor == "" || len(out.Projects) == 0 {
			break
		}
		cursor = out.Pagination.Cursor
	}

	slog.Info("retrieved consumption history", "org_id", c.orgID, "day", from.Format("2006-01-02"), "projects", len(all))
	return all, nil
}

func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Neon API %s returned %d: %s", rawURL, resp.StatusCode, string(b))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
