package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cloudcost/core/recommend"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

func usd(s string) types.Money {
	return types.NewMoney(decimal.RequireFromString(s), types.CurrencyUSD)
}

func sampleBudget(id string) types.Budget {
	now := time.Now().UTC()
	return types.Budget{
		ID:     id,
		Name:   "budget-" + id,
		Amount: usd("100"),
		Period: types.BudgetMonthly,
		Thresholds: []types.BudgetThreshold{
			{Percentage: decimal.NewFromInt(80), Amount: usd("80")},
		},
		StartTime: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestBudgetLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.CreateBudget(ctx, sampleBudget("b1")); err != nil {
		t.Fatalf("CreateBudget() error = %v", err)
	}
	if err := s.CreateBudget(ctx, sampleBudget("b1")); !errors.IsType(err, errors.TypeValidation) {
		t.Errorf("duplicate create = %v, want validation", err)
	}

	got, err := s.GetBudget(ctx, "b1")
	if err != nil || got.Name != "budget-b1" {
		t.Fatalf("GetBudget() = %v, %v", got, err)
	}

	got.Name = "renamed"
	if err := s.UpdateBudget(ctx, got); err != nil {
		t.Fatalf("UpdateBudget() error = %v", err)
	}
	updated, _ := s.GetBudget(ctx, "b1")
	if updated.Name != "renamed" {
		t.Errorf("name = %s, want renamed", updated.Name)
	}

	if _, err := s.GetBudget(ctx, "missing"); !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("GetBudget(missing) = %v, want not found", err)
	}
}

func TestReadsDoNotAliasStoredState(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.CreateBudget(ctx, sampleBudget("b1")); err != nil {
		t.Fatalf("CreateBudget() error = %v", err)
	}
	first, _ := s.GetBudget(ctx, "b1")
	first.Thresholds[0].Percentage = decimal.NewFromInt(5)

	second, _ := s.GetBudget(ctx, "b1")
	if !second.Thresholds[0].Percentage.Equal(decimal.NewFromInt(80)) {
		t.Error("mutating a read result leaked into the store")
	}
}

func TestDeleteBudgetCascadesAlerts(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.CreateBudget(ctx, sampleBudget("b1")); err != nil {
		t.Fatalf("CreateBudget() error = %v", err)
	}
	alert := types.Alert{
		ID:          "a1",
		BudgetID:    "b1",
		Spend:       usd("85"),
		Status:      types.AlertActive,
		TriggeredAt: time.Now().UTC(),
	}
	if err := s.CreateAlert(ctx, alert); err != nil {
		t.Fatalf("CreateAlert() error = %v", err)
	}

	if err := s.DeleteBudget(ctx, "b1"); err != nil {
		t.Fatalf("DeleteBudget() error = %v", err)
	}
	if _, err := s.GetAlert(ctx, "a1"); !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("alert survived cascade: %v", err)
	}
}

func TestCreateAlertRequiresBudget(t *testing.T) {
	s := New()
	err := s.CreateAlert(context.Background(), types.Alert{ID: "a1", BudgetID: "nope"})
	if !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestResourceInventory(t *testing.T) {
	s := New()
	ctx := context.Background()

	resources := []types.Resource{
		{ID: "r1", Provider: types.ProviderAWS, Region: "us-east-1", Type: types.ResourceTypeCompute, Name: "web-1"},
		{ID: "r2", Provider: types.ProviderAWS, Region: "us-west-2", Type: types.ResourceTypeCompute, Name: "web-2"},
		{ID: "r3", Provider: types.ProviderAWS, Region: "us-east-1", Type: types.ResourceTypeStorage, Name: "data-1"},
	}
	for _, r := range resources {
		if err := s.UpsertResource(ctx, r); err != nil {
			t.Fatalf("UpsertResource(%s) error = %v", r.ID, err)
		}
	}

	compute, err := s.ListResources(ctx, recommend.ResourceFilter{
		Type:   types.ResourceTypeCompute,
		Region: "us-east-1",
	})
	if err != nil {
		t.Fatalf("ListResources() error = %v", err)
	}
	if len(compute) != 1 || compute[0].ID != "r1" {
		t.Errorf("filtered resources = %v, want only r1", compute)
	}

	all, _ := s.ListResources(ctx, recommend.ResourceFilter{})
	if len(all) != 3 {
		t.Errorf("got %d resources, want 3", len(all))
	}

	// Upsert keeps the original creation time
	created := all[0].CreatedAt
	if err := s.UpsertResource(ctx, resources[0]); err != nil {
		t.Fatalf("second UpsertResource() error = %v", err)
	}
	refreshed, _ := s.GetResource(ctx, "r1")
	if !refreshed.CreatedAt.Equal(created) {
		t.Error("upsert reset the creation time")
	}
}

func TestTagResourceMerges(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.UpsertResource(ctx, types.Resource{
		ID:   "r1",
		Type: types.ResourceTypeCompute,
		Tags: map[string]string{"env": "prod"},
	}); err != nil {
		t.Fatalf("UpsertResource() error = %v", err)
	}

	tagged, err := s.TagResource(ctx, "r1", map[string]string{"team": "platform"})
	if err != nil {
		t.Fatalf("TagResource() error = %v", err)
	}
	if tagged.Tags["env"] != "prod" || tagged.Tags["team"] != "platform" {
		t.Errorf("tags = %v, want both env and team", tagged.Tags)
	}

	if _, err := s.TagResource(ctx, "missing", nil); !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}
