package currency

import (
	"testing"

	"github.com/shopspring/decimal"

	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestConvertThroughBase(t *testing.T) {
	table := DefaultRates()

	tests := []struct {
		name   string
		amount string
		from   types.Currency
		to     types.Currency
		want   string
	}{
		{"eur to usd", "100", types.CurrencyEUR, types.CurrencyUSD, "110"},
		{"gbp to usd", "10", types.CurrencyGBP, types.CurrencyUSD, "12.7"},
		{"jpy to usd", "1000", types.CurrencyJPY, types.CurrencyUSD, "6.8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Convert(types.NewMoney(d(tt.amount), tt.from), tt.to)
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if !got.Amount.Equal(d(tt.want)) {
				t.Errorf("Convert(%s %s -> %s) = %s, want %s",
					tt.amount, tt.from, tt.to, got.Amount, tt.want)
			}
			if got.Currency != tt.to {
				t.Errorf("currency = %s, want %s", got.Currency, tt.to)
			}
		})
	}
}

func TestConvertRoundTrip(t *testing.T) {
	table := DefaultRates()
	in := types.NewMoney(d("110"), types.CurrencyUSD)

	eur, err := table.Convert(in, types.CurrencyEUR)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	back, err := table.Convert(eur, types.CurrencyUSD)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	// Division precision bounds the round-trip drift
	drift := back.Amount.Sub(in.Amount).Abs()
	if drift.GreaterThan(d("0.000001")) {
		t.Errorf("round trip drifted by %s", drift)
	}
}

func TestConvertSameCurrencyIsIdentity(t *testing.T) {
	table := DefaultRates()
	in := types.NewMoney(d("42.42"), types.CurrencyUSD)
	out, err := table.Convert(in, types.CurrencyUSD)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !out.Amount.Equal(in.Amount) || out.Currency != in.Currency {
		t.Errorf("identity conversion changed the value: %v -> %v", in, out)
	}
}

func TestConvertUnknownCurrency(t *testing.T) {
	table := DefaultRates()
	_, err := table.Convert(types.NewMoney(d("5"), types.Currency("XXX")), types.CurrencyUSD)
	if !errors.IsType(err, errors.TypeCurrencyConversion) {
		t.Errorf("error = %v, want currency conversion", err)
	}
}

func TestConvertDeterministic(t *testing.T) {
	table := DefaultRates()
	in := types.NewMoney(d("73.50"), types.CurrencyEUR)

	first, err := table.Convert(in, types.CurrencyUSD)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	second, err := table.Convert(in, types.CurrencyUSD)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !first.Amount.Equal(second.Amount) {
		t.Errorf("conversion not deterministic: %s vs %s", first.Amount, second.Amount)
	}
}

func TestSetRateOverrides(t *testing.T) {
	table := NewRateTable(types.CurrencyUSD)
	table.SetRate(types.CurrencyEUR, d("2"))

	out, err := table.Convert(types.NewMoney(d("3"), types.CurrencyEUR), types.CurrencyUSD)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !out.Amount.Equal(d("6")) {
		t.Errorf("converted = %s, want 6", out.Amount)
	}
}
