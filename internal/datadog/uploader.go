// Package datadog submits FOCUS cost records to the Datadog Custom Costs
// API.
package datadog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/samber/lo"

	"github.com/alecgard/tally/internal/focus"
)

const defaultBatchSize = 500

type UploaderConfig struct {
	APIKey    string
	AppKey    string
	Site      string // e.g. datadoghq.com
	BaseURL   string // overrides Site when set, for tests
	BatchSize int
	DryRun    bool
	Timeout   time.Duration
}

// Uploader submits cost records in batches. In dry-run mode records are still
// validated and serialized but no request is issued.
type Uploader struct {
	hc        *http.Client
	apiKey    string
	appKey    string
	baseURL   string
	batchSize int
	dryRun    bool
}

func NewUploader(cfg UploaderConfig) *Uploader {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := cfg.BaseURL
	if base == "" {
		site := cfg.Site
		if site == "" {
			site = "datadoghq.com"
		}
		base = "https://api." + site
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Uploader{
		hc:        &http.Client{Timeout: timeout},
		apiKey:    cfg.APIKey,
		appKey:    cfg.AppKey,
		baseURL:   base,
		batchSize: batchSize,
		dryRun:    cfg.DryRun,
	}
}

// Result reports an upload's outcome: how many records were accepted and
// which ones were not. A partial failure keeps the run going; the caller
// decides whether a non-empty Failed list fails the run.
type Result struct {
	Uploaded int
	Failed   []focus.CostRecord
}

// Upload validates and submits the records. Records failing validation and
// records in a rejected batch end up in Result.Failed; no re-upload is
// attempted within the run.
func (u *Uploader) Upload(ctx context.Context, records []focus.CostRecord) (*Result, error) {
	result := &Result{}
	if len(records) == 0 {
		slog.Warn("no cost records to upload")
		return result, nil
	}

	valid := make([]focus.CostRecord, 0, len(records))
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			slog.Warn("cost record failed validation", "charge", rec.ChargeDescription, "error", err)
			result.Failed = append(result.Failed, rec)
			continue
		}
		valid = append(valid, rec)
	}

	for _, chunk := range lo.Chunk(valid, u.batchSize) {
		body, err := json.MarshalIndent(chunk, "", "  ")
		if err != nil {
			result.Failed = append(result.Failed, chunk...)
			continue
		}
		filename := uploadFilename(chunk)

		if u.dryRun {
			slog.Info("dry run, skipping upload", "file", filename, "records", len(chunk), "bytes", len(body))
			result.Uploaded += len(chunk)
			continue
		}

		if err := u.put(ctx, filename, body); err != nil {
			slog.Error("batch upload failed", "file", filename, "records", len(chunk), "error", err)
			result.Failed = append(result.Failed, chunk...)
			continue
		}
		slog.Info("uploaded cost records", "file", filename, "records", len(chunk))
		result.Uploaded += len(chunk)
	}

	return result, nil
}

func (u *Uploader) put(ctx context.Context, filename string, body []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", "application/json")
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := part.Write(body); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.baseURL+"/api/v2/cost/custom_costs", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("DD-API-KEY", u.apiKey)
	req.Header.Set("DD-APPLICATION-KEY", u.appKey)

	resp, err := u.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Datadog API returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}

// uploadFilename names the batch file after the provider and the date range
// spanned by its records, e.g. GitHub_2026-01-05.json.
func uploadFilename(records []focus.CostRecord) string {
	provider := records[0].ProviderName
	start := records[0].ChargePeriodStart
	end := records[0].ChargePeriodEnd
	for _, rec := range records[1:] {
		if rec.ChargePeriodStart.Before(start) {
			start = rec.ChargePeriodStart
		}
		if rec.ChargePeriodEnd.After(end) {
			end = rec.ChargePeriodEnd
		}
	}
	if start.Equal(end) {
		return fmt.Sprintf("%s_%s.json", provider, start.Format(focus.DateLayout))
	}
	return fmt.Sprintf("%s_%s_to_%s.json", provider, start.Format(focus.DateLayout), end.Format(focus.DateLayout))
}
