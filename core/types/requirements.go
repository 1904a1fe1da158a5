// Package types - Requirement objects consumed by the comparison engines.
// Optional numeric fields are pointers so "no filter" stays distinguishable
// from an explicit zero.
package types

import (
	"github.com/shopspring/decimal"
)

// VmRequirements describes what a compute placement must provide
type VmRequirements struct {
	Region         Region          `json:"region"`
	MinVCPUs       int             `json:"min_vcpus"`
	MinMemoryGB    decimal.Decimal `json:"min_memory_gb"`
	OS             OperatingSystem `json:"os"`
	PurchaseOption PurchaseOption  `json:"purchase_option"`

	// Optional bounds
	MinNetworkGbps *decimal.Decimal `json:"min_network_gbps,omitempty"`
	MinGPUs        *int             `json:"min_gpus,omitempty"`
	LocalDiskGB    *int             `json:"local_disk_gb,omitempty"`

	RequiredFeatures       []string `json:"required_features,omitempty"`
	RequiredCertifications []string `json:"required_certifications,omitempty"`
}

// StorageRequirements describes what a storage placement must provide
type StorageRequirements struct {
	Region      Region      `json:"region"`
	StorageType StorageType `json:"storage_type"`
	CapacityGB  int         `json:"capacity_gb"`

	StorageClass *StorageClass    `json:"storage_class,omitempty"`
	Replication  *ReplicationType `json:"replication,omitempty"`

	MinIOPS           *int `json:"min_iops,omitempty"`
	MinThroughputMBps *int `json:"min_throughput_mbps,omitempty"`

	RequiredFeatures       []string `json:"required_features,omitempty"`
	RequiredCertifications []string `json:"required_certifications,omitempty"`
}

// NetworkRequirements describes what a network placement must provide
type NetworkRequirements struct {
	Region      Region             `json:"region"`
	ServiceType NetworkServiceType `json:"service_type"`

	// VPNType is mandatory when ServiceType is vpn
	VPNType string `json:"vpn_type,omitempty"`

	// LoadBalancerType is optional; empty matches any LB flavor
	LoadBalancerType string `json:"load_balancer_type,omitempty"`

	// DNSType is optional; empty matches any DNS flavor
	DNSType string `json:"dns_type,omitempty"`

	MinBandwidthGbps *decimal.Decimal `json:"min_bandwidth_gbps,omitempty"`
	ExpectedRPS      *int             `json:"expected_rps,omitempty"`

	// MonthlyDataTransferGB drives the data-transfer cost component
	MonthlyDataTransferGB *decimal.Decimal `json:"monthly_data_transfer_gb,omitempty"`

	RequiredFeatures       []string `json:"required_features,omitempty"`
	RequiredCertifications []string `json:"required_certifications,omitempty"`
}

// SelectionRequirements wraps a class requirement with placement constraints
// evaluated by the selection engine.
type SelectionRequirements struct {
	// Exactly one of Vm, Storage, Network is set
	Vm      *VmRequirements      `json:"vm,omitempty"`
	Storage *StorageRequirements `json:"storage,omitempty"`
	Network *NetworkRequirements `json:"network,omitempty"`

	// Regions lists acceptable (provider-local) region names per provider.
	// Empty means the class requirement's region applies to every provider.
	Regions map[Provider]Region `json:"regions,omitempty"`

	// MinAvailabilitySLA is the availability floor, e.g. 99.95
	MinAvailabilitySLA *decimal.Decimal `json:"min_availability_sla,omitempty"`

	// ComplianceFrameworks the placement must satisfy
	ComplianceFrameworks []string `json:"compliance_frameworks,omitempty"`

	// MaxMonthlyBudget bounds the accepted monthly cost
	MaxMonthlyBudget *decimal.Decimal `json:"max_monthly_budget,omitempty"`
}

// RegionFor resolves the provider-local region for a provider, falling back
// to the class requirement's region.
func (r SelectionRequirements) RegionFor(p Provider, fallback Region) Region {
	if reg, ok := r.Regions[p]; ok {
		return reg
	}
	return fallback
}
