// Package types - Cost estimate and comparison result shapes
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostComponent is a named additive contributor to a cost estimate
type CostComponent struct {
	Name        string           `json:"name"`
	MonthlyCost Money            `json:"monthly_cost"`
	HourlyCost  *Money           `json:"hourly_cost,omitempty"`
	Unit        string           `json:"unit,omitempty"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
}

// CostEstimate pairs a catalog option with its region-applied cost.
// Invariant: MonthlyCost equals the sum of component monthly costs.
type CostEstimate struct {
	Provider Provider `json:"provider"`
	Region   Region   `json:"region"`

	// OptionName is the catalog option name (instance type, storage SKU...)
	OptionName string `json:"option_name"`

	// Option holds exactly one of the catalog record kinds
	VmOption      *VmInstanceType `json:"vm_option,omitempty"`
	StorageOption *StorageOption  `json:"storage_option,omitempty"`
	NetworkOption *NetworkOption  `json:"network_option,omitempty"`

	MonthlyCost Money  `json:"monthly_cost"`
	HourlyCost  *Money `json:"hourly_cost,omitempty"`

	// Components in composition order; ordering matters for trace output
	// only, totals are order-independent.
	Components []CostComponent `json:"components"`
}

// SumComponents returns the sum of component monthly costs
func (e CostEstimate) SumComponents() decimal.Decimal {
	total := decimal.Zero
	for _, c := range e.Components {
		total = total.Add(c.MonthlyCost.Amount)
	}
	return total
}

// ComparisonFilters narrows a comparison beyond the requirements
type ComparisonFilters struct {
	// Providers restricts the candidate set; empty means all registered
	Providers []Provider `json:"providers,omitempty"`

	// Regions overrides the requirement region per provider, since region
	// names are provider-local (us-east-1 vs eastus vs us-central1)
	Regions map[Provider]Region `json:"regions,omitempty"`

	MaxHourlyCost  *decimal.Decimal `json:"max_hourly_cost,omitempty"`
	MaxMonthlyCost *decimal.Decimal `json:"max_monthly_cost,omitempty"`

	// Class discriminator overrides
	StorageClass     *StorageClass      `json:"storage_class,omitempty"`
	Replication      *ReplicationType   `json:"replication,omitempty"`
	ServiceType      *NetworkServiceType `json:"service_type,omitempty"`

	// Numeric bound overrides
	MinCapacityGB    *int             `json:"min_capacity_gb,omitempty"`
	MinIOPS          *int             `json:"min_iops,omitempty"`
	MinBandwidthGbps *decimal.Decimal `json:"min_bandwidth_gbps,omitempty"`

	// PreferredProviders orders tie-breaking; first entry wins ties
	PreferredProviders []Provider `json:"preferred_providers,omitempty"`
}

// Comparison holds the requirements, every surviving estimate, and the
// recommended estimate chosen by the ranker.
type Comparison struct {
	VmRequirements      *VmRequirements      `json:"vm_requirements,omitempty"`
	StorageRequirements *StorageRequirements `json:"storage_requirements,omitempty"`
	NetworkRequirements *NetworkRequirements `json:"network_requirements,omitempty"`

	Estimates   []CostEstimate `json:"estimates"`
	Recommended *CostEstimate  `json:"recommended"`
}

// ProviderFailure records one provider dropped from a comparison
type ProviderFailure struct {
	Provider Provider `json:"provider"`
	Region   Region   `json:"region"`
	Reason   string   `json:"reason"`
}

// ComparisonResult wraps a comparison with filter echo and telemetry.
// Failures surfaces per-provider drops rather than hiding partial outages.
type ComparisonResult struct {
	Comparison Comparison        `json:"comparison"`
	Filters    ComparisonFilters `json:"filters"`

	TotalOptions    int `json:"total_options"`
	FilteredOptions int `json:"filtered_options"`

	// Providers that answered and providers that dropped
	Providers []Provider        `json:"providers"`
	Failures  []ProviderFailure `json:"failures,omitempty"`

	ProcessingTime time.Duration `json:"processing_time"`
	GeneratedAt    time.Time     `json:"generated_at"`
}
