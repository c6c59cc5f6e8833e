package neon

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestProjectsFollowsPagination(t *testing.T) {
	var cursors []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/projects" {
			t.Errorf("got path %s", r.URL.Path)
		}
		if r.URL.Query().Get("org_id") != "org-123" {
			t.Errorf("got org_id %q", r.URL.Query().Get("org_id"))
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("got auth header %q", r.Header.Get("Authorization"))
		}
		cursor := r.URL.Query().Get("cursor")
		cursors = append(cursors, cursor)
		if cursor == "" {
			fmt.Fprint(w, `{"projects":[{"id":"p1","name":"game-ops-prod"}],"pagination":{"cursor":"next"}}`)
			return
		}
		fmt.Fprint(w, `{"projects":[{"id":"p2","name":"billing-stage"}],"pagination":{}}`)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{APIKey: "key", OrgID: "org-123", BaseURL: srv.URL})
	names, err := c.Projects(context.Background())
	if err != nil {
		t.Fatalf("Projects failed: %v", err)
	}

	if len(cursors) != 2 || cursors[0] != "" || cursors[1] != "next" {
		t.Errorf("got cursors %v", cursors)
	}
	if names["p1"] != "game-ops-prod" || names["p2"] != "billing-stage" {
		t.Errorf("got names %v", names)
	}
}

func TestProjectsNamelessFallsBackToID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"projects":[{"id":"p1"}],"pagination":{}}`)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{APIKey: "key", OrgID: "org-123", BaseURL: srv.URL})
	names, err := c.Projects(context.Background())
	if err != nil {
		t.Fatalf("Projects failed: %v", err)
	}
	if names["p1"] != "p1" {
		t.Errorf("got %q, want project ID fallback", names["p1"])
	}
}

func TestConsumptionHistory(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/consumption_history/projects" {
			t.Errorf("got path %s", r.URL.Path)
		}
		q := r.URL.Query()
		gotQuery = map[string]string{
			"from":        q.Get("from"),
			"to":          q.Get("to"),
			"granularity": q.Get("granularity"),
			"org_id":      q.Get("org_id"),
		}
		fmt.Fprint(w, `{"projects":[
			{"project_id":"p1","periods":[{"consumption":[
				{"timeframe_start":"2026-01-05T00:00:00Z","timeframe_end":"2026-01-06T00:00:00Z","compute_time_seconds":39756,"active_time_seconds":86400,"written_data_bytes":1024,"synthetic_storage_size_bytes":10737418240}
			]}]},
			{"project_id":"p2","periods":[]}
		],"pagination":{}}`)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{APIKey: "key", OrgID: "org-123", BaseURL: srv.URL})
	day := time.Date(2026, 1, 5, 13, 30, 0, 0, time.UTC)
	consumption, err := c.ConsumptionHistory(context.Background(), day)
	if err != nil {
		t.Fatalf("ConsumptionHistory failed: %v", err)
	}

	if gotQuery["from"] != "2026-01-05T00:00:00Z" || gotQuery["to"] != "2026-01-06T00:00:00Z" {
		t.Errorf("got from/to %s / %s", gotQuery["from"], gotQuery["to"])
	}
	if gotQuery["granularity"] != "daily" || gotQuery["org_id"] != "org-123" {
		t.Errorf("got query %v", gotQuery)
	}

	if len(consumption) != 1 {
		t.Fatalf("expected 1 project with data, got %d", len(consumption))
	}
	p := consumption[0]
	if p.ProjectID != "p1" || p.ComputeSeconds != 39756 || p.ActiveSeconds != 86400 || p.StorageBytes != 10737418240 {
		t.Errorf("flattened consumption wrong: %+v", p)
	}
}

func TestConsumptionHistoryUsesFirstDailyRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"projects":[{"project_id":"p1","periods":[{"consumption":[
			{"compute_time_seconds":100},
			{"compute_time_seconds":999}
		]}]}],"pagination":{}}`)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{APIKey: "key", OrgID: "org-123", BaseURL: srv.URL})
	consumption, err := c.ConsumptionHistory(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ConsumptionHistory failed: %v", err)
	}
	if len(consumption) != 1 || consumption[0].ComputeSeconds != 100 {
		t.Errorf("expected first daily record to win: %+v", consumption)
	}
}

func TestClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{APIKey: "key", OrgID: "org-123", BaseURL: srv.URL})
	if _, err := c.Projects(context.Background()); err == nil {
		t.Error("expected error for 403 response")
	}
	if _, err := c.ConsumptionHistory(context.Background(), time.Now()); err == nil {
		t.Error("expected error for 403 response")
	}
}
