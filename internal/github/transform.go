package github

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alecgard/tally/internal/focus"
)

// products maps the API's product field to the charge description used on
// cost records.
var products = map[string]string{
	"actions":    "Actions",
	"packages":   "Packages",
	"storage":    "Storage",
	"codespaces": "Codespaces",
	"copilot":    "Copilot",
}

// Transform converts raw usage items into FOCUS cost records. resolve maps a
// repository name to its attributed service. Items with an unrecognized
// product are skipped and counted rather than aborting the batch; the second
// return value is that skip count.
//
// The cost is recomputed as quantity times unit price so it is always
// derivable from the raw item; the API's net amount is kept as a tag for
// reconciliation. Zero-quantity items still produce a record, and negative
// amounts (credits) pass through unclamped.
func Transform(items []UsageItem, period focus.Period, resolve func(repo string) string) ([]focus.CostRecord, int) {
	records := make([]focus.CostRecord, 0, len(items))
	skipped := 0

	for _, item := range items {
		product, ok := products[strings.ToLower(item.Product)]
		if !ok {
			err := &focus.UnknownChargeTypeError{ChargeType: item.Product}
			slog.Warn("skipping usage item", "sku", item.SKU, "error", err)
			skipped++
			continue
		}

		quantity := decimal.NewFromFloat(item.Quantity)
		unitPrice := decimal.NewFromFloat(item.PricePerUnit)
		cost := quantity.Mul(unitPrice).Round(2)

		tags := map[string]string{
			"sku":       item.SKU,
			"unit_type": item.UnitType,
			"quantity":  formatFloat(item.Quantity),
		}
		if item.RepositoryName != "" {
			tags["repository"] = item.RepositoryName
			tags["service"] = resolve(item.RepositoryName)
		}
		if item.PricePerUnit != 0 {
			tags["unit_price"] = formatFloat(item.PricePerUnit)
		}
		if item.NetAmount != 0 {
			tags["net_amount"] = formatFloat(item.NetAmount)
		}

		records = append(records, focus.CostRecord{
			ProviderName:      focus.ProviderGitHub,
			ChargeDescription: product,
			ChargePeriodStart: period.Start,
			ChargePeriodEnd:   period.Start,
			BilledCost:        cost,
			BillingCurrency:   focus.CurrencyUSD,
			Tags:              tags,
		})
	}

	return records, skipped
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
