package neon

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Pricing holds the usage-based rates applied to consumption. The defaults
// are the published Scale-plan rates; both can be overridden from config when
// the plan changes.
type Pricing struct {
	ComputePerCUHour  decimal.Decimal
	StoragePerGBMonth decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		ComputePerCUHour:  decimal.RequireFromString("0.222"),
		StoragePerGBMonth: decimal.RequireFromString("0.35"),
	}
}

// PricingFromStrings parses configured rates. Rates must be non-negative
// decimals.
func PricingFromStrings(computePerCUHour, storagePerGBMonth string) (Pricing, error) {
	compute, err := decimal.NewFromString(computePerCUHour)
	if err != nil {
		return Pricing{}, fmt.Errorf("parsing compute rate %q: %w", computePerCUHour, err)
	}
	storage, err := decimal.NewFromString(storagePerGBMonth)
	if err != nil {
		return Pricing{}, fmt.Errorf("parsing storage rate %q: %w", storagePerGBMonth, err)
	}
	if compute.IsNegative() || storage.IsNegative() {
		return Pricing{}, fmt.Errorf("rates must be non-negative")
	}
	return Pricing{ComputePerCUHour: compute, StoragePerGBMonth: storage}, nil
}
