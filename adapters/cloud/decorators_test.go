package cloud

import (
	"context"
	"testing"
	"time"

	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

// fakeAdapter counts calls and fails the first failures attempts of
// ListInstanceTypes with failErr.
type fakeAdapter struct {
	provider types.Provider
	calls    int
	failures int
	failErr  error
}

func (f *fakeAdapter) Provider() types.Provider  { return f.provider }
func (f *fakeAdapter) SupportedRegions() []string { return []string{"us-east-1"} }

func (f *fakeAdapter) ListInstanceTypes(ctx context.Context, region types.Region) ([]types.VmInstanceType, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.failErr
	}
	return []types.VmInstanceType{{Provider: f.provider, Name: "fake-2", VCPUs: 2, Region: region}}, nil
}

func (f *fakeAdapter) ListStorageOptions(ctx context.Context, storageType types.StorageType, region types.Region) ([]types.StorageOption, error) {
	return nil, nil
}

func (f *fakeAdapter) ListNetworkOptions(ctx context.Context, serviceType types.NetworkServiceType, region types.Region) ([]types.NetworkOption, error) {
	return nil, nil
}

func (f *fakeAdapter) GetComputeCosts(ctx context.Context, instanceType string, region types.Region, os types.OperatingSystem, purchase types.PurchaseOption) (CostBundle, error) {
	return CostBundle{}, nil
}

func (f *fakeAdapter) GetStorageCosts(ctx context.Context, q StorageCostQuery) (CostBundle, error) {
	return CostBundle{}, nil
}

func (f *fakeAdapter) GetNetworkCosts(ctx context.Context, q NetworkCostQuery) (CostBundle, error) {
	return CostBundle{}, nil
}

func (f *fakeAdapter) GetPricingData(ctx context.Context, region types.Region, currency types.Currency) ([]types.PricingData, error) {
	return nil, nil
}

func (f *fakeAdapter) GetResources(ctx context.Context, q ResourceQuery) ([]types.ResourceConfiguration, error) {
	return nil, nil
}

func (f *fakeAdapter) GetMetrics(ctx context.Context, resourceID string) (types.ResourceMetrics, error) {
	return types.ResourceMetrics{}, nil
}

func (f *fakeAdapter) GetCost(ctx context.Context, resourceID string) (types.ResourceCost, error) {
	return types.ResourceCost{}, nil
}

func (f *fakeAdapter) GetCapability(ctx context.Context, region types.Region) (types.ProviderCapability, error) {
	return types.ProviderCapability{Provider: f.provider, Region: region}, nil
}

func retryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		Timeout:         time.Second,
		InitialInterval: time.Millisecond,
	}
}

func TestRetryRecoversFromTransientErrors(t *testing.T) {
	inner := &fakeAdapter{
		provider: types.ProviderAWS,
		failures: 2,
		failErr:  errors.Throttled("aws", nil),
	}
	adapter := WithRetry(inner, retryConfig())

	out, err := adapter.ListInstanceTypes(context.Background(), "us-east-1")
	if err != nil {
		t.Fatalf("ListInstanceTypes() error = %v", err)
	}
	if len(out) != 1 {
		t.Errorf("got %d instance types, want 1", len(out))
	}
	if inner.calls != 3 {
		t.Errorf("inner called %d times, want 3", inner.calls)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	inner := &fakeAdapter{
		provider: types.ProviderAWS,
		failures: 10,
		failErr:  errors.Validation("region", "nope", "unsupported"),
	}
	adapter := WithRetry(inner, retryConfig())

	_, err := adapter.ListInstanceTypes(context.Background(), "us-east-1")
	if !errors.IsType(err, errors.TypeValidation) {
		t.Fatalf("error = %v, want validation", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1 for a permanent error", inner.calls)
	}
}

func TestRetryGivesUpAfterMaxRetries(t *testing.T) {
	inner := &fakeAdapter{
		provider: types.ProviderAWS,
		failures: 10,
		failErr:  errors.Throttled("aws", nil),
	}
	adapter := WithRetry(inner, retryConfig())

	_, err := adapter.ListInstanceTypes(context.Background(), "us-east-1")
	if !errors.IsType(err, errors.TypeThrottling) {
		t.Fatalf("error = %v, want throttling", err)
	}
	// First attempt plus three retries
	if inner.calls != 4 {
		t.Errorf("inner called %d times, want 4", inner.calls)
	}
}

func TestCacheServesCatalogSnapshots(t *testing.T) {
	inner := &fakeAdapter{provider: types.ProviderAWS}
	adapter := WithCache(inner, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := adapter.ListInstanceTypes(ctx, "us-east-1"); err != nil {
			t.Fatalf("ListInstanceTypes() error = %v", err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}

	// A different region is a different snapshot
	if _, err := adapter.ListInstanceTypes(ctx, "us-west-2"); err != nil {
		t.Fatalf("ListInstanceTypes() error = %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner called %d times, want 2 after a second region", inner.calls)
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(&fakeAdapter{provider: types.ProviderAWS}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := registry.Register(&fakeAdapter{provider: types.ProviderAWS}); !errors.IsType(err, errors.TypeConfiguration) {
		t.Errorf("duplicate Register() = %v, want configuration error", err)
	}

	if _, err := registry.Get(types.ProviderGCP); !errors.IsType(err, errors.TypeConfiguration) {
		t.Errorf("Get(unregistered) = %v, want configuration error", err)
	}
	adapter, err := registry.Get(types.ProviderAWS)
	if err != nil || adapter.Provider() != types.ProviderAWS {
		t.Errorf("Get(aws) = %v, %v", adapter, err)
	}

	if got := registry.Providers(); len(got) != 1 || got[0] != types.ProviderAWS {
		t.Errorf("Providers() = %v, want [aws]", got)
	}
}
