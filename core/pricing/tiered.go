// Package pricing - Centralized cost math.
// Engines declare quantities; all pricing arithmetic flows through these
// functions on exact decimals.
package pricing

import (
	"github.com/shopspring/decimal"

	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

// ValidateTiers checks that tiers are ordered, start at zero, cover
// [0, inf) contiguously, and end with one unbounded tier.
func ValidateTiers(tiers []types.PricingTier) error {
	if len(tiers) == 0 {
		return errors.Validation("tiers", tiers, "at least one tier required")
	}
	expectMin := decimal.Zero
	for i, t := range tiers {
		if !t.Min.Equal(expectMin) {
			return errors.Validation("tiers", t.Min,
				"tiers must cover [0, inf) contiguously")
		}
		last := i == len(tiers)-1
		if last {
			if !t.Unbounded() {
				return errors.Validation("tiers", t.Max, "final tier must be unbounded")
			}
			continue
		}
		if t.Unbounded() || !t.Max.GreaterThan(t.Min) {
			return errors.Validation("tiers", t.Max, "tier max must exceed min")
		}
		expectMin = t.Max
	}
	return nil
}

// TieredCost computes the cost of quantity q across ordered tiers:
// each tier charges min(remaining, tier size) at the tier rate until the
// quantity is exhausted.
func TieredCost(q decimal.Decimal, tiers []types.PricingTier) decimal.Decimal {
	if q.Sign() <= 0 || len(tiers) == 0 {
		return decimal.Zero
	}

	total := decimal.Zero
	remaining := q
	for _, t := range tiers {
		if remaining.Sign() <= 0 {
			break
		}
		if t.Unbounded() {
			total = total.Add(remaining.Mul(t.Rate))
			break
		}
		size := t.Max.Sub(t.Min)
		inTier := decimal.Min(remaining, size)
		total = total.Add(inTier.Mul(t.Rate))
		remaining = remaining.Sub(inTier)
	}
	return total
}

// RequestCost prices a request volume: monthly_requests / 1e6 multiplied
// by the per-million rate, where monthly_requests = rps * seconds/month.
func RequestCost(rps int, pricePerMillion decimal.Decimal) decimal.Decimal {
	if rps <= 0 {
		return decimal.Zero
	}
	monthlyRequests := decimal.NewFromInt(int64(rps)).
		Mul(decimal.NewFromInt(types.SecondsPerMonth))
	return monthlyRequests.Div(decimal.NewFromInt(1_000_000)).Mul(pricePerMillion)
}

// MonthlyFromHourly converts an hourly rate to the monthly cost using the
// canonical 730-hour month.
func MonthlyFromHourly(hourly decimal.Decimal) decimal.Decimal {
	return hourly.Mul(decimal.NewFromInt(types.HoursPerMonth))
}

// HourlyFromMonthly converts a monthly cost back to an hourly rate
func HourlyFromMonthly(monthly decimal.Decimal) decimal.Decimal {
	return monthly.Div(decimal.NewFromInt(types.HoursPerMonth))
}
