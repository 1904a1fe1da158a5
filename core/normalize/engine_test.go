package normalize

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cloudcost/core/currency"
	"cloudcost/core/mapping"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

func testEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	return NewEngine(mapping.MustDefaultRegistry(), currency.DefaultRates(), opts)
}

func testWindow() Window {
	return Window{
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func ec2Record() RawRecord {
	return RawRecord{
		"ResourceType":   "Amazon Elastic Compute Cloud",
		"ResourceId":     "i-0abc123",
		"ResourceName":   "web-1",
		"UnblendedCost":  "100",
		"Currency":       "EUR",
		"Region":         "us-east-1",
		"AccountId":      "123456789012",
		"PurchaseOption": "On Demand",
		"InstanceType":   "t3.medium",
	}
}

func TestNormalizeConvertsCurrency(t *testing.T) {
	eng := testEngine(t, Options{TargetCurrency: types.CurrencyUSD})

	result, err := eng.Normalize(types.ProviderAWS, testWindow(), []RawRecord{ec2Record()})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(result.Entries))
	}
	entry := result.Entries[0]

	// 100 EUR at the default 1.10 rate lands entirely in the compute bucket
	if entry.Currency != types.CurrencyUSD {
		t.Errorf("entry currency = %s, want USD", entry.Currency)
	}
	if got := entry.Costs.Compute.Amount; !got.Equal(decimal.RequireFromString("110")) {
		t.Errorf("compute bucket = %s, want 110", got)
	}
	for name, m := range map[string]types.Money{
		"storage": entry.Costs.Storage,
		"network": entry.Costs.Network,
		"other":   entry.Costs.Other,
	} {
		if !m.Amount.IsZero() {
			t.Errorf("%s bucket = %s, want zero", name, m.Amount)
		}
		if m.Currency != types.CurrencyUSD {
			t.Errorf("%s bucket currency = %s, want USD", name, m.Currency)
		}
	}

	if entry.Resource.Type != types.ResourceTypeCompute {
		t.Errorf("resource type = %s, want compute", entry.Resource.Type)
	}
	if got := entry.Resource.Specifications["instance_type"]; got != "t3.medium" {
		t.Errorf("specifications.instance_type = %v, want t3.medium", got)
	}
	if entry.ID != "aws-i-0abc123-2026-01-01T00:00:00Z" {
		t.Errorf("entry id = %s", entry.ID)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	eng := testEngine(t, Options{})
	records := []RawRecord{ec2Record()}

	first, err := eng.Normalize(types.ProviderAWS, testWindow(), records)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, err := eng.Normalize(types.ProviderAWS, testWindow(), records)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	a, b := first.Entries[0], second.Entries[0]
	if a.ID != b.ID {
		t.Errorf("ids differ: %s vs %s", a.ID, b.ID)
	}
	if !a.Costs.Compute.Amount.Equal(b.Costs.Compute.Amount) {
		t.Errorf("amounts differ: %s vs %s", a.Costs.Compute.Amount, b.Costs.Compute.Amount)
	}
	if a.Currency != b.Currency {
		t.Errorf("currencies differ: %s vs %s", a.Currency, b.Currency)
	}
	if a.Resource.ProviderID != b.Resource.ProviderID || a.Resource.Type != b.Resource.Type {
		t.Errorf("resource metadata differs: %+v vs %+v", a.Resource, b.Resource)
	}
}

func TestNormalizeUnknownTypeFailsFast(t *testing.T) {
	eng := testEngine(t, Options{})

	bad := ec2Record()
	bad["ResourceType"] = "Unknown Service"
	records := []RawRecord{bad, ec2Record()}

	result, err := eng.Normalize(types.ProviderAWS, testWindow(), records)
	if err == nil {
		t.Fatal("expected a mapping error")
	}
	if result != nil {
		t.Errorf("no entries may be emitted on failure, got %+v", result)
	}
	if !errors.IsType(err, errors.TypeResourceMapping) {
		t.Fatalf("error type = %v, want resource mapping", err)
	}

	var typed *errors.Error
	if !stderrors.As(err, &typed) {
		t.Fatal("expected *errors.Error")
	}
	avail, ok := typed.Details["available_mappings"].([]string)
	if !ok || len(avail) == 0 {
		t.Errorf("error must list available mappings, got %v", typed.Details["available_mappings"])
	}
}

func TestNormalizeContinueOnError(t *testing.T) {
	eng := testEngine(t, Options{ContinueOnError: true})

	bad := ec2Record()
	bad["ResourceType"] = "Unknown Service"
	records := []RawRecord{bad, ec2Record()}

	result, err := eng.Normalize(types.ProviderAWS, testWindow(), records)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(result.Entries) != 1 {
		t.Errorf("got %d entries, want 1", len(result.Entries))
	}
	if len(result.SoftErrors) != 1 {
		t.Errorf("got %d soft errors, want 1", len(result.SoftErrors))
	}
}

func TestNormalizeValidation(t *testing.T) {
	eng := testEngine(t, Options{})
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		provider types.Provider
		window   Window
	}{
		{"empty window", types.ProviderAWS, Window{Start: start, End: start}},
		{"inverted window", types.ProviderAWS, Window{Start: start, End: start.Add(-time.Hour)}},
		{"unknown provider", types.Provider("oracle"), testWindow()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Normalize(tt.provider, tt.window, []RawRecord{ec2Record()})
			if !errors.IsType(err, errors.TypeValidation) {
				t.Errorf("error = %v, want validation", err)
			}
		})
	}
}
