// Package currency converts Money between currencies at configured rates.
package currency

import (
	"sync"

	"github.com/shopspring/decimal"

	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

// Converter converts an amount into a target currency.
// Conversion is deterministic per (from, to) pair for a given rate set.
type Converter interface {
	Convert(amount types.Money, target types.Currency) (types.Money, error)
}

// RateTable is a Converter backed by a configured rate map. Rates are
// expressed against a base currency; cross rates derive through the base.
type RateTable struct {
	base types.Currency

	mu    sync.RWMutex
	rates map[types.Currency]decimal.Decimal
}

// NewRateTable creates a table with the base currency at rate 1
func NewRateTable(base types.Currency) *RateTable {
	return &RateTable{
		base: base,
		rates: map[types.Currency]decimal.Decimal{
			base: decimal.NewFromInt(1),
		},
	}
}

// DefaultRates returns a USD-based table seeded with common currencies.
// Rates are operator-configurable; these are offline defaults.
func DefaultRates() *RateTable {
	t := NewRateTable(types.CurrencyUSD)
	t.SetRate(types.CurrencyEUR, decimal.RequireFromString("1.10"))
	t.SetRate(types.CurrencyGBP, decimal.RequireFromString("1.27"))
	t.SetRate(types.CurrencyINR, decimal.RequireFromString("0.012"))
	t.SetRate(types.CurrencyJPY, decimal.RequireFromString("0.0068"))
	return t
}

// SetRate sets how many base units one unit of c is worth
func (t *RateTable) SetRate(c types.Currency, baseUnits decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rates[c] = baseUnits
}

// Rate returns the (from -> to) conversion factor
func (t *RateTable) Rate(from, to types.Currency) (decimal.Decimal, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	fromRate, ok := t.rates[from]
	if !ok {
		return decimal.Zero, errors.CurrencyConversion(string(from), string(to),
			errors.Newf(errors.TypeNotFound, "unknown currency %s", from))
	}
	toRate, ok := t.rates[to]
	if !ok {
		return decimal.Zero, errors.CurrencyConversion(string(from), string(to),
			errors.Newf(errors.TypeNotFound, "unknown currency %s", to))
	}
	return fromRate.Div(toRate), nil
}

// Convert converts a Money value into the target currency
func (t *RateTable) Convert(amount types.Money, target types.Currency) (types.Money, error) {
	if amount.Currency == target {
		return amount, nil
	}
	rate, err := t.Rate(amount.Currency, target)
	if err != nil {
		return types.Money{}, err
	}
	return types.Money{
		Amount:   amount.Amount.Mul(rate),
		Currency: target,
	}, nil
}
