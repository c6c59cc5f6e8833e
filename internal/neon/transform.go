package neon

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alecgard/tally/internal/focus"
)

var (
	secondsPerHour = decimal.NewFromInt(3600)
	bytesPerGB     = decimal.NewFromInt(1 << 30)
)

// chargeTypes are the charge categories priced from consumption data. The
// consumption API reports no egress, branch or restore figures, so no other
// categories are synthesized.
var chargeTypes = []string{"compute", "storage"}

// Transformer prices project consumption into FOCUS cost records.
type Transformer struct {
	Pricing Pricing
}

// Transform emits one record per project per charge type. names maps project
// IDs to project names for tagging. Zero-usage charges still produce a 0.00
// record so an absent charge stays distinguishable from absent data. The
// second return value counts records skipped over an unknown charge type.
func (t *Transformer) Transform(consumption []ProjectConsumption, names map[string]string, period focus.Period) ([]focus.CostRecord, int) {
	records := make([]focus.CostRecord, 0, len(consumption)*len(chargeTypes))
	skipped := 0

	for _, p := range consumption {
		name, ok := names[p.ProjectID]
		if !ok {
			name = p.ProjectID
		}
		for _, chargeType := range chargeTypes {
			rec, err := t.record(chargeType, p, name, period)
			if err != nil {
				slog.Warn("skipping consumption record", "project_id", p.ProjectID, "error", err)
				skipped++
				continue
			}
			records = append(records, rec)
		}
	}

	return records, skipped
}

func (t *Transformer) record(chargeType string, p ProjectConsumption, name string, period focus.Period) (focus.CostRecord, error) {
	service, env := splitProjectName(name)
	tags := map[string]string{
		"project_id":   p.ProjectID,
		"project_name": name,
		"service":      service,
		"env":          env,
		"charge_type":  chargeType,
	}

	var cost decimal.Decimal
	var description string

	switch chargeType {
	case "compute":
		hours := decimal.NewFromFloat(p.ComputeSeconds).Div(secondsPerHour)
		cost = hours.Mul(t.Pricing.ComputePerCUHour).Round(2)
		description = "Compute"
		tags["compute_hours"] = hours.StringFixed(4)
		tags["rate_per_cu_hour"] = t.Pricing.ComputePerCUHour.String()
		tags["active_seconds"] = formatFloat(p.ActiveSeconds)
	case "storage":
		// Storage is priced per GB-month, pro-rated linearly to the billing
		// period's share of its calendar month.
		gb := decimal.NewFromFloat(p.StorageBytes).Div(bytesPerGB)
		days := decimal.NewFromInt(int64(period.Days()))
		daysInMonth := decimal.NewFromInt(int64(period.DaysInMonth()))
		cost = gb.Mul(t.Pricing.StoragePerGBMonth).Mul(days).Div(daysInMonth).Round(2)
		description = "Storage"
		tags["storage_gb"] = gb.StringFixed(2)
		tags["rate_per_gb_month"] = t.Pricing.StoragePerGBMonth.String()
		tags["written_bytes"] = formatFloat(p.WrittenBytes)
	default:
		return focus.CostRecord{}, &focus.UnknownChargeTypeError{ChargeType: chargeType}
	}

	return focus.CostRecord{
		ProviderName:      focus.ProviderNeon,
		ChargeDescription: description,
		ChargePeriodStart: period.Start,
		ChargePeriodEnd:   period.Start,
		BilledCost:        cost,
		BillingCurrency:   focus.CurrencyUSD,
		Tags:              tags,
	}, nil
}

// splitProjectName parses the <service>-<env> naming convention, splitting on
// the last hyphen so multi-part service names like game-ops-stage keep their
// hyphens. A name without a hyphen is all service, with an empty env.
func splitProjectName(name string) (service, env string) {
	i := strings.LastIndex(name, "-")
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i+1:]
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
