package recommend_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cloudcost/adapters/cloud"
	"cloudcost/adapters/cloud/simulated"
	"cloudcost/adapters/store/memory"
	"cloudcost/core/compare"
	"cloudcost/core/recommend"
	"cloudcost/core/selection"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func usd(s string) types.Money {
	return types.NewMoney(d(s), types.CurrencyUSD)
}

func testSetup(t *testing.T, cfg recommend.Config) (*recommend.Engine, *memory.Store) {
	t.Helper()
	registry := cloud.NewRegistry()
	for _, p := range []types.Provider{types.ProviderAWS, types.ProviderAzure, types.ProviderGCP} {
		adapter, err := simulated.New(p)
		if err != nil {
			t.Fatalf("simulated.New(%s): %v", p, err)
		}
		if err := registry.Register(adapter); err != nil {
			t.Fatalf("Register(%s): %v", p, err)
		}
	}
	cmp := compare.New(registry, 5*time.Second)
	sel := selection.New(registry, cmp, selection.Config{Timeout: 5 * time.Second})
	store := memory.New()
	return recommend.New(store, registry, cmp, sel, cfg), store
}

func seedResource(t *testing.T, store *memory.Store, res types.Resource) {
	t.Helper()
	if err := store.UpsertResource(context.Background(), res); err != nil {
		t.Fatalf("UpsertResource(%s): %v", res.ID, err)
	}
}

// The simulated aws inventory exposes one running vm whose deployed
// shape prices at 7.592 a month; the cheapest equivalent elsewhere is a
// gcp instance at 6.132.
func TestForResourceMigration(t *testing.T) {
	eng, store := testSetup(t, recommend.Config{})
	seedResource(t, store, types.Resource{
		ID:       "aws-sim-vm-1",
		Provider: types.ProviderAWS,
		Region:   "us-east-1",
		Type:     types.ResourceTypeCompute,
		Name:     "web-1",
	})

	recs, err := eng.ForResource(context.Background(), "aws-sim-vm-1")
	if err != nil {
		t.Fatalf("ForResource() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want only the migration: %+v", len(recs), recs)
	}

	rec := recs[0]
	if rec.Type != types.RecommendationMigration {
		t.Errorf("type = %s, want migration", rec.Type)
	}
	if rec.Provider != types.ProviderGCP || rec.Region != "us-east1" {
		t.Errorf("target = %s/%s, want gcp/us-east1", rec.Provider, rec.Region)
	}
	if rec.ResourceID != "aws-sim-vm-1" {
		t.Errorf("resource id = %s, want aws-sim-vm-1", rec.ResourceID)
	}
	if rec.MonthlySavings == nil || !rec.MonthlySavings.Amount.Equal(d("1.46")) {
		t.Errorf("savings = %v, want 1.46", rec.MonthlySavings)
	}
	if rec.ProposedMonthlyCost == nil || !rec.ProposedMonthlyCost.Amount.Equal(d("6.132")) {
		t.Errorf("proposed = %v, want 6.132", rec.ProposedMonthlyCost)
	}
}

func TestForResourceMigrationBelowSavingsFloor(t *testing.T) {
	eng, store := testSetup(t, recommend.Config{})
	cost := usd("6.2")
	seedResource(t, store, types.Resource{
		ID:          "aws-sim-vm-1",
		Provider:    types.ProviderAWS,
		Region:      "us-east-1",
		Type:        types.ResourceTypeCompute,
		Name:        "web-1",
		MonthlyCost: &cost,
	})

	recs, err := eng.ForResource(context.Background(), "aws-sim-vm-1")
	if err != nil {
		t.Fatalf("ForResource() error = %v", err)
	}
	// 6.2 against a 6.132 alternative saves about 1%, under the 10% floor
	if len(recs) != 0 {
		t.Errorf("recommendations = %+v, want none", recs)
	}
}

func TestForResourceRightsize(t *testing.T) {
	eng, store := testSetup(t, recommend.Config{LowCPUPercent: d("30")})
	seedResource(t, store, types.Resource{
		ID:       "azure-sim-vm-1",
		Provider: types.ProviderAzure,
		Region:   "eastus",
		Type:     types.ResourceTypeCompute,
		Name:     "web-1",
	})

	recs, err := eng.ForResource(context.Background(), "azure-sim-vm-1")
	if err != nil {
		t.Fatalf("ForResource() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want rightsize plus migration: %+v", len(recs), recs)
	}

	rightsize := recs[0]
	if rightsize.Type != types.RecommendationCostOptimization {
		t.Fatalf("first type = %s, want cost_optimization", rightsize.Type)
	}
	if rightsize.Details["target_vcpus"] != 1 {
		t.Errorf("target vcpus = %v, want 1", rightsize.Details["target_vcpus"])
	}
	// Observed shape at 87.60 down to the one-core sibling at 7.592
	if rightsize.MonthlySavings == nil || !rightsize.MonthlySavings.Amount.Equal(d("80.008")) {
		t.Errorf("savings = %v, want 80.008", rightsize.MonthlySavings)
	}

	migration := recs[1]
	if migration.Type != types.RecommendationMigration {
		t.Errorf("second type = %s, want migration", migration.Type)
	}
	if migration.Provider != types.ProviderAWS {
		t.Errorf("migration target = %s, want aws", migration.Provider)
	}
}

func TestForResourcePerformance(t *testing.T) {
	eng, store := testSetup(t, recommend.Config{
		LowCPUPercent:  d("10"),
		HighCPUPercent: d("20"),
	})
	cost := usd("6.2") // keeps the migration path quiet
	seedResource(t, store, types.Resource{
		ID:          "aws-sim-vm-1",
		Provider:    types.ProviderAWS,
		Region:      "us-east-1",
		Type:        types.ResourceTypeCompute,
		Name:        "web-1",
		MonthlyCost: &cost,
	})

	recs, err := eng.ForResource(context.Background(), "aws-sim-vm-1")
	if err != nil {
		t.Fatalf("ForResource() error = %v", err)
	}
	if len(recs) != 1 || recs[0].Type != types.RecommendationPerformance {
		t.Fatalf("recommendations = %+v, want one performance advisory", recs)
	}
	if recs[0].Details["cpu_percent"] != "22.5" {
		t.Errorf("cpu_percent = %v, want 22.5", recs[0].Details["cpu_percent"])
	}
}

func TestForResourceNonCompute(t *testing.T) {
	eng, store := testSetup(t, recommend.Config{})
	seedResource(t, store, types.Resource{
		ID:       "vol-1",
		Provider: types.ProviderAWS,
		Region:   "us-east-1",
		Type:     types.ResourceTypeStorage,
	})

	_, err := eng.ForResource(context.Background(), "vol-1")
	if !errors.IsType(err, errors.TypeValidation) {
		t.Errorf("error = %v, want validation", err)
	}
}

func TestForResourceWithoutInstanceType(t *testing.T) {
	eng, store := testSetup(t, recommend.Config{})
	// The simulated volume exists in the provider inventory but carries
	// no instance_type property.
	seedResource(t, store, types.Resource{
		ID:       "aws-sim-vol-1",
		Provider: types.ProviderAWS,
		Region:   "us-east-1",
		Type:     types.ResourceTypeCompute,
	})

	_, err := eng.ForResource(context.Background(), "aws-sim-vol-1")
	if !errors.IsType(err, errors.TypeInsufficientData) {
		t.Errorf("error = %v, want insufficient data", err)
	}
}

func TestForResourceUnknownID(t *testing.T) {
	eng, _ := testSetup(t, recommend.Config{})
	_, err := eng.ForResource(context.Background(), "nope")
	if !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestSweepSkipsBrokenResources(t *testing.T) {
	eng, store := testSetup(t, recommend.Config{})
	seedResource(t, store, types.Resource{
		ID:       "aws-sim-vm-1",
		Provider: types.ProviderAWS,
		Region:   "us-east-1",
		Type:     types.ResourceTypeCompute,
		Name:     "web-1",
	})
	// Known to the inventory but to no provider
	seedResource(t, store, types.Resource{
		ID:       "ghost",
		Provider: types.ProviderAWS,
		Region:   "us-east-1",
		Type:     types.ResourceTypeCompute,
	})

	recs, err := eng.Sweep(context.Background(), "us-east-1")
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if len(recs) != 1 || recs[0].Type != types.RecommendationMigration {
		t.Errorf("recommendations = %+v, want the one migration from web-1", recs)
	}
}

func TestPlacement(t *testing.T) {
	eng, _ := testSetup(t, recommend.Config{})

	req := types.SelectionRequirements{
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
	rec, err := eng.Placement(context.Background(), "web-tier", req, nil)
	if err != nil {
		t.Fatalf("Placement() error = %v", err)
	}
	if rec.Type != types.RecommendationPlacement {
		t.Errorf("type = %s, want placement", rec.Type)
	}
	if rec.ProposedMonthlyCost == nil || rec.ProposedMonthlyCost.Amount.Sign() <= 0 {
		t.Errorf("proposed cost = %v, want positive", rec.ProposedMonthlyCost)
	}
	if rec.Details["evaluated_providers"] != 3 {
		t.Errorf("evaluated providers = %v, want 3", rec.Details["evaluated_providers"])
	}
	if rec.Summary == "" || rec.Action == "" {
		t.Error("summary and action must be populated")
	}
	if got := rec.ValidUntil.Sub(rec.CreatedAt); got != 24*time.Hour {
		t.Errorf("validity window = %s, want the 24h default", got)
	}
}
