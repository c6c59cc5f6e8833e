package focus

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Provider identifiers recognized by the cost-management backend.
const (
	ProviderGitHub = "GitHub"
	ProviderNeon   = "Neon"
)

// CurrencyUSD is the only billing currency in scope.
const CurrencyUSD = "USD"

// DateLayout is the calendar-date format used throughout the upload payload.
const DateLayout = "2006-01-02"

// CostRecord is a single FOCUS-format cost line item. The charge period
// fields are calendar dates and always equal: Datadog spreads a cost evenly
// across multi-day charge periods, so pinning both to one day keeps the full
// amount on that day.
type CostRecord struct {
	ProviderName      string
	ChargeDescription string
	ChargePeriodStart time.Time
	ChargePeriodEnd   time.Time
	BilledCost        decimal.Decimal
	BillingCurrency   string
	Tags              map[string]string
}

// payload mirrors the Datadog Custom Costs upload schema. The field names,
// the YYYY-MM-DD date format and the bare-number cost are a compatibility
// boundary with the cost-management backend and must not change.
type payload struct {
	ProviderName      string            `json:"ProviderName"`
	ChargeDescription string            `json:"ChargeDescription"`
	ChargePeriodStart string            `json:"ChargePeriodStart"`
	ChargePeriodEnd   string            `json:"ChargePeriodEnd"`
	BilledCost        json.Number       `json:"BilledCost"`
	BillingCurrency   string            `json:"BillingCurrency"`
	Tags              map[string]string `json:"Tags"`
}

// MarshalJSON serializes the record in the upload payload shape. The cost is
// emitted as a bare number rounded to currency precision (two fractional
// digits); tag values are already strings.
func (r CostRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(payload{
		ProviderName:      r.ProviderName,
		ChargeDescription: r.ChargeDescription,
		ChargePeriodStart: r.ChargePeriodStart.Format(DateLayout),
		ChargePeriodEnd:   r.ChargePeriodEnd.Format(DateLayout),
		BilledCost:        json.Number(r.BilledCost.StringFixed(2)),
		BillingCurrency:   r.BillingCurrency,
		Tags:              r.Tags,
	})
}

// UnmarshalJSON parses a record from the upload payload shape.
func (r *CostRecord) UnmarshalJSON(data []byte) error {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	start, err := time.Parse(DateLayout, p.ChargePeriodStart)
	if err != nil {
		return fmt.Errorf("parsing ChargePeriodStart: %w", err)
	}
	end, err := time.Parse(DateLayout, p.ChargePeriodEnd)
	if err != nil {
		return fmt.Errorf("parsing ChargePeriodEnd: %w", err)
	}
	cost, err := decimal.NewFromString(p.BilledCost.String())
	if err != nil {
		return fmt.Errorf("parsing BilledCost: %w", err)
	}
	r.ProviderName = p.ProviderName
	r.ChargeDescription = p.ChargeDescription
	r.ChargePeriodStart = start
	r.ChargePeriodEnd = end
	r.BilledCost = cost
	r.BillingCurrency = p.BillingCurrency
	r.Tags = p.Tags
	return nil
}

// Validate checks that the record satisfies the upload schema: required
// fields present and the charge period well-formed.
func (r CostRecord) Validate() error {
	if r.ProviderName == "" {
		return errors.New("ProviderName is required")
	}
	if r.ChargeDescription == "" {
		return errors.New("ChargeDescription is required")
	}
	if r.ChargePeriodStart.IsZero() || r.ChargePeriodEnd.IsZero() {
		return errors.New("charge period dates are required")
	}
	if r.ChargePeriodEnd.Before(r.ChargePeriodStart) {
		return errors.New("ChargePeriodEnd precedes ChargePeriodStart")
	}
	if r.BillingCurrency == "" {
		return errors.New("BillingCurrency is required")
	}
	return nil
}

// Batch is the outcome of collecting one provider's usage for a period: the
// transformed records plus how many raw items were fetched and how many were
// skipped as untransformable.
type Batch struct {
	Records []CostRecord
	Fetched int
	Skipped int
}

// UnknownChargeTypeError reports a raw usage record whose charge category
// has no mapping to a cost record. Transformers skip such records and
// surface a count instead of aborting the batch.
type UnknownChargeTypeError struct {
	ChargeType string
}

func (e *UnknownChargeTypeError) Error() string {
	return fmt.Sprintf("unknown charge type %q", e.ChargeType)
}
