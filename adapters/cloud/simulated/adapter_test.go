package simulated

import (
	"context"
	"testing"
	"time"

	"cloudcost/adapters/cloud"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

func mustAdapter(t *testing.T, p types.Provider) *Adapter {
	t.Helper()
	a, err := New(p)
	if err != nil {
		t.Fatalf("New(%s): %v", p, err)
	}
	return a
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New(types.Provider("oracle")); !errors.IsType(err, errors.TypeConfiguration) {
		t.Errorf("error = %v, want configuration", err)
	}
}

func TestComputeCostMultipliers(t *testing.T) {
	a := mustAdapter(t, types.ProviderAWS)
	ctx := context.Background()

	tests := []struct {
		name     string
		os       types.OperatingSystem
		purchase types.PurchaseOption
		hourly   string
		monthly  string
	}{
		{"linux on-demand", types.OSLinux, types.PurchaseOnDemand, "0.10", "73.00"},
		{"windows surcharge", types.OSWindows, types.PurchaseOnDemand, "0.135", "98.55"},
		{"spot discount", types.OSLinux, types.PurchaseSpot, "0.03", "21.90"},
		{"reserved discount", types.OSLinux, types.PurchaseReserved, "0.06", "43.80"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundle, err := a.GetComputeCosts(ctx, "t3.medium", "us-east-1", tt.os, tt.purchase)
			if err != nil {
				t.Fatalf("GetComputeCosts() error = %v", err)
			}
			if !bundle.HourlyCost.Amount.Equal(d(tt.hourly)) {
				t.Errorf("hourly = %s, want %s", bundle.HourlyCost.Amount, tt.hourly)
			}
			if !bundle.MonthlyCost.Amount.Equal(d(tt.monthly)) {
				t.Errorf("monthly = %s, want %s", bundle.MonthlyCost.Amount, tt.monthly)
			}
		})
	}
}

func TestComputeCostUnknownInstance(t *testing.T) {
	a := mustAdapter(t, types.ProviderAWS)
	_, err := a.GetComputeCosts(context.Background(), "z9.mega", "us-east-1",
		types.OSLinux, types.PurchaseOnDemand)
	if !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestUnsupportedRegion(t *testing.T) {
	a := mustAdapter(t, types.ProviderAWS)
	_, err := a.ListInstanceTypes(context.Background(), "eastus")
	if !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestStorageCostComponents(t *testing.T) {
	a := mustAdapter(t, types.ProviderAWS)

	bundle, err := a.GetStorageCosts(context.Background(), cloud.StorageCostQuery{
		StorageType:    types.StorageTypeBlock,
		StorageClass:   types.StorageClassStandard,
		Region:         "us-east-1",
		CapacityGB:     100,
		IOPS:           3000,
		ThroughputMBps: 125,
	})
	if err != nil {
		t.Fatalf("GetStorageCosts() error = %v", err)
	}

	// gp3 at 0.08/GB: 8.00 capacity + 15.00 iops + 5.00 throughput
	if !bundle.MonthlyCost.Amount.Equal(d("28")) {
		t.Errorf("monthly = %s, want 28", bundle.MonthlyCost.Amount)
	}
	if len(bundle.Components) != 3 {
		t.Errorf("got %d components, want capacity, iops, throughput", len(bundle.Components))
	}
}

func TestObjectStorageTieredPricing(t *testing.T) {
	a := mustAdapter(t, types.ProviderAWS)

	bundle, err := a.GetStorageCosts(context.Background(), cloud.StorageCostQuery{
		StorageType:  types.StorageTypeObject,
		StorageClass: types.StorageClassStandard,
		Region:       "us-east-1",
		CapacityGB:   100000,
	})
	if err != nil {
		t.Fatalf("GetStorageCosts() error = %v", err)
	}
	// 51200 GB at 0.023 plus 48800 GB at 0.022
	if !bundle.MonthlyCost.Amount.Equal(d("2251.2")) {
		t.Errorf("monthly = %s, want 2251.2", bundle.MonthlyCost.Amount)
	}
}

func TestNetworkCostWithTransfer(t *testing.T) {
	a := mustAdapter(t, types.ProviderAWS)

	bundle, err := a.GetNetworkCosts(context.Background(), cloud.NetworkCostQuery{
		ServiceType:           types.NetworkNATGateway,
		Region:                "us-east-1",
		MonthlyDataTransferGB: d("100"),
	})
	if err != nil {
		t.Fatalf("GetNetworkCosts() error = %v", err)
	}
	// 0.045/hour base (32.85) plus 100 GB at 0.09 (9.00)
	if !bundle.MonthlyCost.Amount.Equal(d("41.85")) {
		t.Errorf("monthly = %s, want 41.85", bundle.MonthlyCost.Amount)
	}
}

func TestLatencyHonorsCancellation(t *testing.T) {
	a := mustAdapter(t, types.ProviderAWS)
	a.Latency = 200 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := a.ListInstanceTypes(ctx, "us-east-1")
	if err != context.DeadlineExceeded {
		t.Errorf("error = %v, want context deadline", err)
	}
}

func TestCapabilityPerProvider(t *testing.T) {
	tests := []struct {
		provider types.Provider
		region   types.Region
		sla      string
	}{
		{types.ProviderAWS, "us-east-1", "99.99"},
		{types.ProviderAzure, "eastus", "99.95"},
		{types.ProviderGCP, "us-central1", "99.95"},
	}
	for _, tt := range tests {
		a := mustAdapter(t, tt.provider)
		capability, err := a.GetCapability(context.Background(), tt.region)
		if err != nil {
			t.Fatalf("GetCapability(%s) error = %v", tt.provider, err)
		}
		if !capability.AvailabilitySLA.Equal(d(tt.sla)) {
			t.Errorf("%s SLA = %s, want %s", tt.provider, capability.AvailabilitySLA, tt.sla)
		}
		if capability.Region != tt.region {
			t.Errorf("%s region = %s, want %s", tt.provider, capability.Region, tt.region)
		}
	}
}

func TestSyntheticInventory(t *testing.T) {
	a := mustAdapter(t, types.ProviderAWS)
	ctx := context.Background()

	resources, err := a.GetResources(ctx, cloud.ResourceQuery{Types: []string{"vm"}})
	if err != nil {
		t.Fatalf("GetResources() error = %v", err)
	}
	if len(resources) != 1 || resources[0].Type != "vm" {
		t.Fatalf("resources = %v, want one vm", resources)
	}

	id := resources[0].ID
	if _, err := a.GetMetrics(ctx, id); err != nil {
		t.Errorf("GetMetrics(%s) error = %v", id, err)
	}
	cost, err := a.GetCost(ctx, id)
	if err != nil {
		t.Fatalf("GetCost(%s) error = %v", id, err)
	}
	if cost.MonthlyCost.Amount.Sign() <= 0 {
		t.Errorf("monthly cost = %s, want positive", cost.MonthlyCost.Amount)
	}
}
