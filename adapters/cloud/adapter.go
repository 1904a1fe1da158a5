// Package cloud defines the uniform query surface the core consumes over
// each provider's catalog, pricing, and usage APIs. Implementations
// translate the core's enumerations to provider-native strings.
package cloud

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

// StorageCostQuery parameterizes a storage cost lookup
type StorageCostQuery struct {
	StorageType  types.StorageType
	StorageClass types.StorageClass
	Replication  types.ReplicationType
	Region       types.Region
	CapacityGB   int

	// IOPS and ThroughputMBps request additive provisioned components;
	// zero means not provisioned.
	IOPS           int
	ThroughputMBps int
}

// NetworkCostQuery parameterizes a network cost lookup
type NetworkCostQuery struct {
	ServiceType types.NetworkServiceType
	Region      types.Region

	// OptionName selects a specific catalog option when relevant
	OptionName string

	// MonthlyDataTransferGB drives tiered data-transfer components
	MonthlyDataTransferGB decimal.Decimal

	// RPS drives request-count components
	RPS int
}

// CostBundle is a composed cost: the monthly total plus its components.
// The total always equals the component sum.
type CostBundle struct {
	MonthlyCost types.Money           `json:"monthly_cost"`
	HourlyCost  *types.Money          `json:"hourly_cost,omitempty"`
	Components  []types.CostComponent `json:"components"`
}

// ResourceQuery filters get_resources
type ResourceQuery struct {
	IDs   []string
	Types []string
}

// Adapter is the per-provider capability surface. Every call takes a
// context and respects its deadline and cancellation.
type Adapter interface {
	Provider() types.Provider

	ListInstanceTypes(ctx context.Context, region types.Region) ([]types.VmInstanceType, error)
	ListStorageOptions(ctx context.Context, storageType types.StorageType, region types.Region) ([]types.StorageOption, error)
	ListNetworkOptions(ctx context.Context, serviceType types.NetworkServiceType, region types.Region) ([]types.NetworkOption, error)

	GetComputeCosts(ctx context.Context, instanceType string, region types.Region, os types.OperatingSystem, purchase types.PurchaseOption) (CostBundle, error)
	GetStorageCosts(ctx context.Context, q StorageCostQuery) (CostBundle, error)
	GetNetworkCosts(ctx context.Context, q NetworkCostQuery) (CostBundle, error)

	GetPricingData(ctx context.Context, region types.Region, currency types.Currency) ([]types.PricingData, error)
	GetResources(ctx context.Context, q ResourceQuery) ([]types.ResourceConfiguration, error)
	GetMetrics(ctx context.Context, resourceID string) (types.ResourceMetrics, error)
	GetCost(ctx context.Context, resourceID string) (types.ResourceCost, error)

	// GetCapability returns the capability sheet for a region
	GetCapability(ctx context.Context, region types.Region) (types.ProviderCapability, error)

	SupportedRegions() []string
}

// Registry holds the configured adapter per provider
type Registry struct {
	mu       sync.RWMutex
	adapters map[types.Provider]Adapter
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[types.Provider]Adapter)}
}

// Register adds an adapter; one adapter per provider
func (r *Registry) Register(adapter Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := adapter.Provider()
	if _, exists := r.adapters[p]; exists {
		return errors.Configuration("adapter already registered: " + p.String())
	}
	r.adapters[p] = adapter
	return nil
}

// Get returns the adapter for a provider; a miss is a configuration error
func (r *Registry) Get(provider types.Provider) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[provider]
	if !ok {
		return nil, errors.Configuration("no adapter registered for provider " + provider.String())
	}
	return a, nil
}

// Providers returns all registered providers
func (r *Registry) Providers() []types.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Provider, 0, len(r.adapters))
	for _, p := range types.AllProviders() {
		if _, ok := r.adapters[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of registered adapters
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}
