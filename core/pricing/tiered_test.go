package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func threeTiers() []types.PricingTier {
	return []types.PricingTier{
		{Min: d("0"), Max: d("100"), Rate: d("0.10")},
		{Min: d("100"), Max: d("500"), Rate: d("0.08")},
		{Min: d("500"), Max: decimal.Zero, Rate: d("0.05")},
	}
}

func TestValidateTiers(t *testing.T) {
	tests := []struct {
		name    string
		tiers   []types.PricingTier
		wantErr bool
	}{
		{"valid three tiers", threeTiers(), false},
		{"single unbounded tier", []types.PricingTier{
			{Min: d("0"), Max: decimal.Zero, Rate: d("0.08")},
		}, false},
		{"empty", nil, true},
		{"gap between tiers", []types.PricingTier{
			{Min: d("0"), Max: d("100"), Rate: d("0.10")},
			{Min: d("200"), Max: decimal.Zero, Rate: d("0.05")},
		}, true},
		{"does not start at zero", []types.PricingTier{
			{Min: d("10"), Max: decimal.Zero, Rate: d("0.05")},
		}, true},
		{"final tier bounded", []types.PricingTier{
			{Min: d("0"), Max: d("100"), Rate: d("0.10")},
		}, true},
		{"inverted tier", []types.PricingTier{
			{Min: d("0"), Max: d("0"), Rate: d("0.10")},
			{Min: d("0"), Max: decimal.Zero, Rate: d("0.05")},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTiers(tt.tiers)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateTiers() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.IsType(err, errors.TypeValidation) {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestTieredCost(t *testing.T) {
	tests := []struct {
		name string
		q    string
		want string
	}{
		{"zero quantity", "0", "0"},
		{"within first tier", "50", "5"},
		{"exactly first tier", "100", "10"},
		{"spans two tiers", "300", "26"},
		{"spans all tiers", "1000", "67"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TieredCost(d(tt.q), threeTiers())
			if !got.Equal(d(tt.want)) {
				t.Errorf("TieredCost(%s) = %s, want %s", tt.q, got, tt.want)
			}
		})
	}
}

// Doubling a quantity inside one tier doubles that tier's contribution
func TestTieredCostLinearWithinTier(t *testing.T) {
	once := TieredCost(d("40"), threeTiers())
	twice := TieredCost(d("80"), threeTiers())
	if !twice.Equal(once.Mul(d("2"))) {
		t.Errorf("doubling within a tier: got %s, want %s", twice, once.Mul(d("2")))
	}
}

func TestRequestCost(t *testing.T) {
	// 100 rps over a 2,592,000-second month is 259.2M requests
	got := RequestCost(100, d("0.80"))
	want := d("207.36")
	if !got.Equal(want) {
		t.Errorf("RequestCost(100, 0.80) = %s, want %s", got, want)
	}
	if !RequestCost(0, d("0.80")).IsZero() {
		t.Error("zero rps must cost nothing")
	}
}

func TestMonthlyHourlyRoundTrip(t *testing.T) {
	hourly := d("0.10")
	monthly := MonthlyFromHourly(hourly)
	if !monthly.Equal(d("73.00")) {
		t.Errorf("MonthlyFromHourly(0.10) = %s, want 73.00", monthly)
	}
	back := HourlyFromMonthly(monthly)
	if !back.Equal(hourly) {
		t.Errorf("HourlyFromMonthly(%s) = %s, want %s", monthly, back, hourly)
	}
}
