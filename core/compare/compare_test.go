package compare

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cloudcost/adapters/cloud"
	"cloudcost/adapters/cloud/simulated"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// testRegistry registers simulated adapters for all three providers,
// each delayed by latency.
func testRegistry(t *testing.T, latency time.Duration) *cloud.Registry {
	t.Helper()
	registry := cloud.NewRegistry()
	for _, p := range []types.Provider{types.ProviderAWS, types.ProviderAzure, types.ProviderGCP} {
		adapter, err := simulated.New(p)
		if err != nil {
			t.Fatalf("simulated.New(%s): %v", p, err)
		}
		adapter.Latency = latency
		if err := registry.Register(adapter); err != nil {
			t.Fatalf("Register(%s): %v", p, err)
		}
	}
	return registry
}

// providerRegions maps each provider to its local region name for the
// same geography.
func providerRegions() map[types.Provider]types.Region {
	return map[types.Provider]types.Region{
		types.ProviderAzure: "eastus",
		types.ProviderGCP:   "us-central1",
	}
}

func vmRequest() types.VmRequirements {
	return types.VmRequirements{
		Region:         "us-east-1",
		MinVCPUs:       2,
		MinMemoryGB:    d("4"),
		OS:             types.OSLinux,
		PurchaseOption: types.PurchaseOnDemand,
	}
}

func TestCompareVmAcrossProviders(t *testing.T) {
	eng := New(testRegistry(t, 0), 5*time.Second)

	result, err := eng.CompareVm(context.Background(), vmRequest(),
		types.ComparisonFilters{Regions: providerRegions()})
	if err != nil {
		t.Fatalf("CompareVm() error = %v", err)
	}

	if len(result.Providers) != 3 {
		t.Errorf("answered providers = %v, want 3", result.Providers)
	}
	if len(result.Comparison.Estimates) == 0 {
		t.Fatal("no estimates returned")
	}

	// Ranked ascending by monthly cost, recommended is the head
	estimates := result.Comparison.Estimates
	for i := 1; i < len(estimates); i++ {
		if estimates[i].MonthlyCost.Amount.LessThan(estimates[i-1].MonthlyCost.Amount) {
			t.Errorf("estimates not sorted at %d: %s > %s",
				i, estimates[i-1].MonthlyCost.Amount, estimates[i].MonthlyCost.Amount)
		}
	}
	rec := result.Comparison.Recommended
	if rec == nil {
		t.Fatal("no recommended estimate")
	}
	if rec.OptionName != estimates[0].OptionName || rec.Provider != estimates[0].Provider {
		t.Errorf("recommended %s/%s is not the top-ranked estimate", rec.Provider, rec.OptionName)
	}

	// The hourly fixture rates fix each option's monthly cost at 730 hours
	want := map[string]string{
		"t3.medium":     "73.00",
		"Standard_B2s":  "87.60",
		"n1-standard-2": "80.30",
	}
	for name, monthly := range want {
		found := false
		for _, est := range estimates {
			if est.OptionName != name {
				continue
			}
			found = true
			if !est.MonthlyCost.Amount.Equal(d(monthly)) {
				t.Errorf("%s monthly = %s, want %s", name, est.MonthlyCost.Amount, monthly)
			}
			if est.HourlyCost == nil {
				t.Errorf("%s missing hourly cost", name)
			}
		}
		if !found {
			t.Errorf("option %s missing from estimates", name)
		}
	}
}

func TestCompareVmPreferredProviderBreaksTies(t *testing.T) {
	eng := New(testRegistry(t, 0), 5*time.Second)

	// m5.large and Standard_D2s_v3 both price at 70.08; preference order
	// decides which one leads.
	result, err := eng.CompareVm(context.Background(), vmRequest(), types.ComparisonFilters{
		Regions:            providerRegions(),
		PreferredProviders: []types.Provider{types.ProviderAWS},
	})
	if err != nil {
		t.Fatalf("CompareVm() error = %v", err)
	}
	rec := result.Comparison.Recommended
	if rec.Provider != types.ProviderAWS {
		t.Errorf("recommended provider = %s, want aws", rec.Provider)
	}
	if !rec.MonthlyCost.Amount.Equal(d("70.08")) {
		t.Errorf("recommended monthly = %s, want 70.08", rec.MonthlyCost.Amount)
	}
}

func TestCompareVmProviderSubset(t *testing.T) {
	eng := New(testRegistry(t, 0), 5*time.Second)

	result, err := eng.CompareVm(context.Background(), vmRequest(), types.ComparisonFilters{
		Providers: []types.Provider{types.ProviderAWS},
	})
	if err != nil {
		t.Fatalf("CompareVm() error = %v", err)
	}
	for _, est := range result.Comparison.Estimates {
		if est.Provider != types.ProviderAWS {
			t.Errorf("estimate from %s leaked through the provider filter", est.Provider)
		}
	}
}

func TestCompareVmUnsupportedRegionDropsProvider(t *testing.T) {
	eng := New(testRegistry(t, 0), 5*time.Second)

	// Without per-provider regions, azure and gcp reject the AWS region
	// name and drop out as recorded failures.
	result, err := eng.CompareVm(context.Background(), vmRequest(), types.ComparisonFilters{})
	if err != nil {
		t.Fatalf("CompareVm() error = %v", err)
	}
	if len(result.Providers) != 1 || result.Providers[0] != types.ProviderAWS {
		t.Errorf("answered providers = %v, want only aws", result.Providers)
	}
	if len(result.Failures) != 2 {
		t.Errorf("failures = %v, want azure and gcp", result.Failures)
	}
}

func TestCompareVmNoMatchingOptions(t *testing.T) {
	eng := New(testRegistry(t, 0), 5*time.Second)

	req := vmRequest()
	req.MinVCPUs = 64
	_, err := eng.CompareVm(context.Background(), req,
		types.ComparisonFilters{Regions: providerRegions()})
	if !errors.IsType(err, errors.TypeNoMatchingOptions) {
		t.Errorf("error = %v, want no matching options", err)
	}
}

func TestCompareVmBudgetFilterExcludesAll(t *testing.T) {
	eng := New(testRegistry(t, 0), 5*time.Second)

	max := d("50")
	_, err := eng.CompareVm(context.Background(), vmRequest(), types.ComparisonFilters{
		Regions:        providerRegions(),
		MaxMonthlyCost: &max,
	})
	if !errors.IsType(err, errors.TypeNoMatchingOptions) {
		t.Errorf("error = %v, want no matching options", err)
	}
}

func TestCompareVmTimeout(t *testing.T) {
	eng := New(testRegistry(t, 200*time.Millisecond), 20*time.Millisecond)

	result, err := eng.CompareVm(context.Background(), vmRequest(),
		types.ComparisonFilters{Regions: providerRegions()})
	if !errors.IsType(err, errors.TypeComparisonTimeout) {
		t.Fatalf("error = %v, want comparison timeout", err)
	}
	// No partial results survive a deadline hit
	if len(result.Comparison.Estimates) != 0 {
		t.Errorf("partial estimates leaked: %v", result.Comparison.Estimates)
	}
}

func TestCompareVmCallerCancellation(t *testing.T) {
	registry := cloud.NewRegistry()
	for _, p := range []types.Provider{types.ProviderAWS, types.ProviderAzure, types.ProviderGCP} {
		adapter, err := simulated.New(p)
		if err != nil {
			t.Fatalf("simulated.New(%s): %v", p, err)
		}
		// aws answers immediately, the others outlive the caller
		if p != types.ProviderAWS {
			adapter.Latency = 300 * time.Millisecond
		}
		if err := registry.Register(adapter); err != nil {
			t.Fatalf("Register(%s): %v", p, err)
		}
	}
	eng := New(registry, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	result, err := eng.CompareVm(ctx, vmRequest(),
		types.ComparisonFilters{Regions: providerRegions()})
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	// Providers that finished before the cancel must not be assembled
	// into a result.
	if len(result.Comparison.Estimates) != 0 || result.Comparison.Recommended != nil {
		t.Errorf("cancelled comparison leaked a partial result: %+v", result.Comparison)
	}
	if len(result.Providers) != 0 || len(result.Failures) != 0 {
		t.Errorf("cancelled comparison reported providers %v failures %v, want none",
			result.Providers, result.Failures)
	}
}

func TestCompareVmValidation(t *testing.T) {
	eng := New(testRegistry(t, 0), 5*time.Second)

	tests := []struct {
		name   string
		mutate func(*types.VmRequirements)
	}{
		{"empty region", func(r *types.VmRequirements) { r.Region = "" }},
		{"zero vcpus", func(r *types.VmRequirements) { r.MinVCPUs = 0 }},
		{"zero memory", func(r *types.VmRequirements) { r.MinMemoryGB = decimal.Zero }},
		{"bad os", func(r *types.VmRequirements) { r.OS = "solaris" }},
		{"bad purchase option", func(r *types.VmRequirements) { r.PurchaseOption = "rental" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := vmRequest()
			tt.mutate(&req)
			_, err := eng.CompareVm(context.Background(), req, types.ComparisonFilters{})
			if !errors.IsType(err, errors.TypeValidation) {
				t.Errorf("error = %v, want validation", err)
			}
		})
	}
}

func TestCompareStorage(t *testing.T) {
	eng := New(testRegistry(t, 0), 5*time.Second)

	class := types.StorageClassStandard
	req := types.StorageRequirements{
		Region:       "us-east-1",
		StorageType:  types.StorageTypeBlock,
		CapacityGB:   100,
		StorageClass: &class,
	}
	result, err := eng.CompareStorage(context.Background(), req,
		types.ComparisonFilters{Regions: providerRegions()})
	if err != nil {
		t.Fatalf("CompareStorage() error = %v", err)
	}

	// 100 GB standard block: azure 7.50, aws 8.00, gcp 10.00
	rec := result.Comparison.Recommended
	if rec.Provider != types.ProviderAzure {
		t.Errorf("recommended provider = %s, want azure", rec.Provider)
	}
	if !rec.MonthlyCost.Amount.Equal(d("7.5")) {
		t.Errorf("recommended monthly = %s, want 7.5", rec.MonthlyCost.Amount)
	}
	if len(result.Comparison.Estimates) != 3 {
		t.Errorf("got %d estimates, want 3", len(result.Comparison.Estimates))
	}
}

func TestCompareNetworkLoadBalancer(t *testing.T) {
	eng := New(testRegistry(t, 0), 5*time.Second)

	rps := 100
	req := types.NetworkRequirements{
		Region:           "us-east-1",
		ServiceType:      types.NetworkLoadBalancer,
		LoadBalancerType: "application",
		ExpectedRPS:      &rps,
	}
	result, err := eng.CompareNetwork(context.Background(), req,
		types.ComparisonFilters{Regions: providerRegions()})
	if err != nil {
		t.Fatalf("CompareNetwork() error = %v", err)
	}

	// Per-request pricing dominates: azure's request rate makes its
	// application gateway the cheapest of the three.
	rec := result.Comparison.Recommended
	if rec.Provider != types.ProviderAzure {
		t.Errorf("recommended provider = %s, want azure", rec.Provider)
	}
	if !rec.MonthlyCost.Amount.Equal(d("18.4986")) {
		t.Errorf("recommended monthly = %s, want 18.4986", rec.MonthlyCost.Amount)
	}

	// Request component present alongside the hourly base
	names := map[string]bool{}
	for _, c := range rec.Components {
		names[c.Name] = true
	}
	if !names["base"] || !names["requests"] {
		t.Errorf("components = %v, want base and requests", rec.Components)
	}
}

func TestCompareNetworkVPNRequiresType(t *testing.T) {
	eng := New(testRegistry(t, 0), 5*time.Second)

	req := types.NetworkRequirements{
		Region:      "us-east-1",
		ServiceType: types.NetworkVPN,
	}
	_, err := eng.CompareNetwork(context.Background(), req, types.ComparisonFilters{})
	if !errors.IsType(err, errors.TypeValidation) {
		t.Errorf("error = %v, want validation", err)
	}
}
