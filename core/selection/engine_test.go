package selection

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cloudcost/adapters/cloud"
	"cloudcost/adapters/cloud/simulated"
	"cloudcost/core/compare"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

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

func testEngine(t *testing.T, latency time.Duration, cfg Config) *Engine {
	t.Helper()
	registry := testRegistry(t, latency)
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return New(registry, compare.New(registry, cfg.Timeout), cfg)
}

func vmSelection() types.SelectionRequirements {
	return types.SelectionRequirements{
		Vm: &types.VmRequirements{
			Region:         "us-east-1",
			MinVCPUs:       2,
			MinMemoryGB:    d("4"),
			OS:             types.OSLinux,
			PurchaseOption: types.PurchaseOnDemand,
		},
		Regions: map[types.Provider]types.Region{
			types.ProviderAzure: "eastus",
			types.ProviderGCP:   "us-central1",
		},
	}
}

func TestSelectRanksCandidates(t *testing.T) {
	eng := testEngine(t, 0, Config{CacheTTL: time.Minute})

	result, err := eng.Select(context.Background(), "web-tier", vmSelection(), nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(result.EvaluatedProviders) != 3 {
		t.Errorf("evaluated providers = %v, want 3", result.EvaluatedProviders)
	}
	if len(result.Matrix) == 0 {
		t.Fatal("empty candidate matrix")
	}

	// Scores live in [0, 1] and the matrix is ranked by total descending
	for i, c := range result.Matrix {
		for factor, v := range map[string]float64{
			"cost":        c.Scores.Cost,
			"performance": c.Scores.Performance,
			"compliance":  c.Scores.Compliance,
			"preference":  c.Scores.Preference,
			"total":       c.Scores.Total,
		} {
			if v < 0 || v > 1 {
				t.Errorf("candidate %d %s score %f out of [0,1]", i, factor, v)
			}
		}
		if i > 0 && c.Scores.Total > result.Matrix[i-1].Scores.Total {
			t.Errorf("matrix not ranked at %d: %f > %f", i, c.Scores.Total, result.Matrix[i-1].Scores.Total)
		}
	}
	if result.Selected.Scores.Total != result.Matrix[0].Scores.Total {
		t.Error("selected is not the top-ranked candidate")
	}
	if len(result.Alternatives) > 3 {
		t.Errorf("alternatives = %d, want at most the default cap of 3", len(result.Alternatives))
	}
}

func TestSelectBudgetFloor(t *testing.T) {
	eng := testEngine(t, 0, Config{})

	req := vmSelection()
	budget := d("50")
	req.MaxMonthlyBudget = &budget

	_, err := eng.Select(context.Background(), "over-budget", req, nil)
	if !errors.IsType(err, errors.TypeBudget) {
		t.Fatalf("error = %v, want budget", err)
	}
	var typed *errors.Error
	if !stderrors.As(err, &typed) {
		t.Fatal("expected *errors.Error")
	}
	// The cheapest matching option prices at 70.08, above the 50 budget
	if got := typed.Details["min_observed"]; got != "70.08" {
		t.Errorf("min_observed = %v, want 70.08", got)
	}
	if got := typed.Details["budget"]; got != "50.00" {
		t.Errorf("budget = %v, want 50.00", got)
	}
}

func TestSelectBudgetKeepsCheaperOptions(t *testing.T) {
	eng := testEngine(t, 0, Config{})

	req := vmSelection()
	budget := d("75")
	req.MaxMonthlyBudget = &budget

	result, err := eng.Select(context.Background(), "within-budget", req, nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	for _, c := range result.Matrix {
		if c.Estimate.MonthlyCost.Amount.GreaterThan(budget) {
			t.Errorf("candidate %s/%s at %s exceeds the budget", c.Provider,
				c.Estimate.OptionName, c.Estimate.MonthlyCost.Amount)
		}
	}
}

func TestSelectCachesResults(t *testing.T) {
	eng := testEngine(t, 0, Config{CacheTTL: time.Minute})

	first, err := eng.Select(context.Background(), "cached-a", vmSelection(), nil)
	if err != nil {
		t.Fatalf("first Select() error = %v", err)
	}
	if first.FromCache {
		t.Error("cold call marked as cache hit")
	}

	second, err := eng.Select(context.Background(), "cached-b", vmSelection(), nil)
	if err != nil {
		t.Fatalf("second Select() error = %v", err)
	}
	if !second.FromCache {
		t.Error("identical request missed the cache")
	}
	if second.Selected.Provider != first.Selected.Provider ||
		second.Selected.Estimate.OptionName != first.Selected.Estimate.OptionName {
		t.Error("cached result differs from the original")
	}
}

func TestSelectConcurrencyCap(t *testing.T) {
	eng := testEngine(t, 50*time.Millisecond, Config{MaxConcurrentEvaluations: 1})

	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-release
		_, _ = eng.Select(context.Background(), "holder", vmSelection(), nil)
	}()
	close(release)

	// Wait until the first evaluation is admitted
	deadline := time.After(2 * time.Second)
	for eng.ActiveEvaluations() == 0 {
		select {
		case <-deadline:
			t.Fatal("first evaluation never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	_, err := eng.Select(context.Background(), "rejected", vmSelection(), nil)
	if !errors.IsType(err, errors.TypeConcurrency) {
		t.Errorf("error = %v, want concurrency", err)
	}
	wg.Wait()
}

func TestSelectPolicyWeights(t *testing.T) {
	eng := testEngine(t, 0, Config{})

	tests := []struct {
		name    string
		weights types.ScoreWeights
		wantErr bool
	}{
		{"valid", types.ScoreWeights{Cost: 0.7, Performance: 0.1, Compliance: 0.1, Preference: 0.1}, false},
		{"sum below one", types.ScoreWeights{Cost: 0.5, Performance: 0.1, Compliance: 0.1, Preference: 0.1}, true},
		{"negative weight", types.ScoreWeights{Cost: 1.2, Performance: -0.2, Compliance: 0, Preference: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := &types.SelectionPolicy{Weights: &tt.weights}
			_, err := eng.Select(context.Background(), "weights-"+tt.name, vmSelection(), policy)
			if tt.wantErr {
				if !errors.IsType(err, errors.TypeValidation) {
					t.Errorf("error = %v, want validation", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Select() error = %v", err)
			}
		})
	}
}

func TestSelectPolicyExcludesProvider(t *testing.T) {
	eng := testEngine(t, 0, Config{})

	policy := &types.SelectionPolicy{
		Rules: []types.PolicyRule{{
			Name:             "no-aws",
			ExcludeProviders: []types.Provider{types.ProviderAWS},
		}},
	}
	result, err := eng.Select(context.Background(), "excluded", vmSelection(), policy)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	for _, c := range result.Matrix {
		if c.Provider == types.ProviderAWS {
			t.Errorf("excluded provider %s present in matrix", c.Provider)
		}
	}
}

func TestSelectComplianceFilter(t *testing.T) {
	eng := testEngine(t, 0, Config{})

	// Only the aws fixture carries PCI-DSS in its compliance frameworks
	req := vmSelection()
	req.ComplianceFrameworks = []string{"PCI-DSS"}

	result, err := eng.Select(context.Background(), "pci", req, nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if result.Selected.Provider != types.ProviderAWS {
		t.Errorf("selected = %s, want aws", result.Selected.Provider)
	}
	for _, c := range result.Matrix {
		if c.Provider != types.ProviderAWS {
			t.Errorf("non-compliant provider %s survived filtering", c.Provider)
		}
	}
}

func TestSelectAvailabilityFloor(t *testing.T) {
	eng := testEngine(t, 0, Config{})

	req := vmSelection()
	sla := d("99.99")
	req.MinAvailabilitySLA = &sla

	result, err := eng.Select(context.Background(), "sla", req, nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	for _, c := range result.Matrix {
		if c.Capability.AvailabilitySLA.LessThan(sla) {
			t.Errorf("provider %s below the SLA floor", c.Provider)
		}
	}

	impossible := d("99.999")
	req.MinAvailabilitySLA = &impossible
	_, err = eng.Select(context.Background(), "sla-impossible", req, nil)
	if !errors.IsType(err, errors.TypeNoMatchingOptions) {
		t.Errorf("error = %v, want no matching options", err)
	}
}

func TestSelectValidation(t *testing.T) {
	eng := testEngine(t, 0, Config{})

	tests := []struct {
		name string
		req  types.SelectionRequirements
	}{
		{"no class requirement", types.SelectionRequirements{}},
		{"two class requirements", types.SelectionRequirements{
			Vm:      vmSelection().Vm,
			Storage: &types.StorageRequirements{},
		}},
		{"negative budget", func() types.SelectionRequirements {
			r := vmSelection()
			b := d("-1")
			r.MaxMonthlyBudget = &b
			return r
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Select(context.Background(), "invalid-"+tt.name, tt.req, nil)
			if !errors.IsType(err, errors.TypeValidation) {
				t.Errorf("error = %v, want validation", err)
			}
		})
	}
}
