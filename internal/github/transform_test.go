package github

import (
	"testing"
	"time"

	"github.com/alecgard/tally/internal/focus"
)

func testPeriod() focus.Period {
	return focus.Day(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
}

func selfResolve(repo string) string { return repo }

func TestTransform(t *testing.T) {
	items := []UsageItem{
		{
			Product:        "actions",
			SKU:            "actions_linux",
			Quantity:       120,
			UnitType:       "minutes",
			PricePerUnit:   0.008,
			NetAmount:      0.96,
			RepositoryName: "my-repo",
		},
	}

	records, skipped := Transform(items, testPeriod(), func(repo string) string { return "terraform" })
	if skipped != 0 {
		t.Fatalf("expected 0 skipped, got %d", skipped)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.ProviderName != focus.ProviderGitHub {
		t.Errorf("got provider %q", rec.ProviderName)
	}
	if rec.ChargeDescription != "Actions" {
		t.Errorf("got charge description %q, want Actions", rec.ChargeDescription)
	}
	if got := rec.BilledCost.StringFixed(2); got != "0.96" {
		t.Errorf("got cost %s, want 0.96", got)
	}
	if !rec.ChargePeriodStart.Equal(rec.ChargePeriodEnd) {
		t.Errorf("charge period dates differ")
	}

	wantTags := map[string]string{
		"sku":        "actions_linux",
		"unit_type":  "minutes",
		"quantity":   "120",
		"repository": "my-repo",
		"service":    "terraform",
		"unit_price": "0.008",
		"net_amount": "0.96",
	}
	for k, v := range wantTags {
		if rec.Tags[k] != v {
			t.Errorf("tag %s: got %q, want %q", k, rec.Tags[k], v)
		}
	}
}

func TestTransformProductCanonicalization(t *testing.T) {
	tests := []struct {
		product string
		want    string
	}{
		{"actions", "Actions"},
		{"Actions", "Actions"},
		{"PACKAGES", "Packages"},
		{"storage", "Storage"},
		{"codespaces", "Codespaces"},
		{"copilot", "Copilot"},
	}
	for _, tt := range tests {
		records, skipped := Transform([]UsageItem{{Product: tt.product, SKU: "x"}}, testPeriod(), selfResolve)
		if skipped != 0 || len(records) != 1 {
			t.Errorf("product %q: skipped=%d records=%d", tt.product, skipped, len(records))
			continue
		}
		if records[0].ChargeDescription != tt.want {
			t.Errorf("product %q: got %q, want %q", tt.product, records[0].ChargeDescription, tt.want)
		}
	}
}

func TestTransformUnknownProductSkipped(t *testing.T) {
	items := []UsageItem{
		{Product: "actions", SKU: "a", Quantity: 1, PricePerUnit: 1},
		{Product: "mystery", SKU: "b", Quantity: 1, PricePerUnit: 1},
		{Product: "copilot", SKU: "c", Quantity: 2, PricePerUnit: 19},
	}

	records, skipped := Transform(items, testPeriod(), selfResolve)
	if skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", skipped)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Tags["sku"] != "a" || records[1].Tags["sku"] != "c" {
		t.Errorf("wrong records survived: %v, %v", records[0].Tags, records[1].Tags)
	}
}

func TestTransformZeroQuantityEmitted(t *testing.T) {
	items := []UsageItem{{Product: "storage", SKU: "s", Quantity: 0, UnitType: "GB", PricePerUnit: 0.25}}

	records, _ := Transform(items, testPeriod(), selfResolve)
	if len(records) != 1 {
		t.Fatalf("zero-quantity record was dropped")
	}
	if got := records[0].BilledCost.StringFixed(2); got != "0.00" {
		t.Errorf("got cost %s, want 0.00", got)
	}
	if records[0].Tags["quantity"] != "0" {
		t.Errorf("got quantity tag %q, want 0", records[0].Tags["quantity"])
	}
}

func TestTransformNegativeAmountPassesThrough(t *testing.T) {
	items := []UsageItem{{Product: "actions", SKU: "credit", Quantity: 100, PricePerUnit: -0.008, NetAmount: -0.8}}

	records, _ := Transform(items, testPeriod(), selfResolve)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if got := records[0].BilledCost.StringFixed(2); got != "-0.80" {
		t.Errorf("got cost %s, want -0.80 (no clamping)", got)
	}
	if records[0].Tags["net_amount"] != "-0.8" {
		t.Errorf("got net_amount tag %q", records[0].Tags["net_amount"])
	}
}

func TestTransformOrgScopedItemOmitsRepositoryTags(t *testing.T) {
	items := []UsageItem{{Product: "copilot", SKU: "copilot_seat", Quantity: 5, PricePerUnit: 19}}

	resolved := false
	records, _ := Transform(items, testPeriod(), func(repo string) string {
		resolved = true
		return repo
	})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if _, ok := rec.Tags["repository"]; ok {
		t.Error("org-scoped item should not carry a repository tag")
	}
	if _, ok := rec.Tags["service"]; ok {
		t.Error("org-scoped item should not carry a service tag")
	}
	if resolved {
		t.Error("resolver should not be called for org-scoped items")
	}
}

func TestTransformCostIsQuantityTimesUnitPrice(t *testing.T) {
	// 3 seats at 19.123 rounds at currency precision, not before.
	items := []UsageItem{{Product: "copilot", SKU: "seat", Quantity: 3, PricePerUnit: 19.123}}
	records, _ := Transform(items, testPeriod(), selfResolve)
	if got := records[0].BilledCost.StringFixed(2); got != "57.37" {
		t.Errorf("got cost %s, want 57.37", got)
	}
}
