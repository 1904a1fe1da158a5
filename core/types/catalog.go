// Package types - Catalog option records returned by provider adapters.
// Each record describes one offering for a (provider, region, class) scope.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// VmInstanceType is a compute offering listed by an adapter
type VmInstanceType struct {
	Provider     Provider `json:"provider"`
	Region       Region   `json:"region"`
	Name         string   `json:"name"`
	Family       string   `json:"family,omitempty"`
	VCPUs        int      `json:"vcpus"`
	MemoryGB     decimal.Decimal `json:"memory_gb"`
	LocalDiskGB  int      `json:"local_disk_gb,omitempty"`
	NetworkGbps  decimal.Decimal `json:"network_gbps"`
	GPUs         int      `json:"gpus,omitempty"`
	BareMetal    bool     `json:"bare_metal,omitempty"`
	BurstCapable bool     `json:"burst_capable,omitempty"`

	// SupportedOS lists the operating systems this type can run
	SupportedOS []OperatingSystem `json:"supported_os"`

	// Features is the provider-neutral capability set
	Features []string `json:"features,omitempty"`

	// Certifications carried by the hosting service
	Certifications []string `json:"certifications,omitempty"`
}

// StorageOption is a storage offering listed by an adapter
type StorageOption struct {
	Provider Provider `json:"provider"`
	Region   Region   `json:"region"`
	Name     string   `json:"name"`

	StorageType  StorageType     `json:"storage_type"`
	StorageClass StorageClass    `json:"storage_class"`
	Replication  ReplicationType `json:"replication"`

	MinCapacityGB  int `json:"min_capacity_gb"`
	MaxCapacityGB  int `json:"max_capacity_gb"`
	MinIOPS        int `json:"min_iops,omitempty"`
	MaxIOPS        int `json:"max_iops,omitempty"`
	MaxThroughputMBps int `json:"max_throughput_mbps,omitempty"`

	// CrossZone and CrossRegion state which scope the option covers
	CrossZone   bool `json:"cross_zone,omitempty"`
	CrossRegion bool `json:"cross_region,omitempty"`

	Features       []string `json:"features,omitempty"`
	Certifications []string `json:"certifications,omitempty"`
}

// NetworkOption is a network offering listed by an adapter
type NetworkOption struct {
	Provider Provider `json:"provider"`
	Region   Region   `json:"region"`
	Name     string   `json:"name"`

	ServiceType NetworkServiceType `json:"service_type"`

	// LoadBalancerType discriminates LB offerings (application, network)
	LoadBalancerType string `json:"load_balancer_type,omitempty"`

	// VPNType discriminates VPN offerings (site_to_site, point_to_site)
	VPNType string `json:"vpn_type,omitempty"`

	// DNSType discriminates DNS offerings (public, private)
	DNSType string `json:"dns_type,omitempty"`

	BandwidthGbps decimal.Decimal `json:"bandwidth_gbps"`
	MaxRPS        int             `json:"max_rps,omitempty"`

	CrossZone   bool `json:"cross_zone,omitempty"`
	CrossRegion bool `json:"cross_region,omitempty"`

	Features       []string `json:"features,omitempty"`
	Certifications []string `json:"certifications,omitempty"`
}

// PricingTier is one segment of quantity-proportional pricing.
// Tiers are ordered, with Min < Max, and cover [0, inf) contiguously;
// Max == 0 marks the unbounded final tier.
type PricingTier struct {
	Min  decimal.Decimal `json:"min"`
	Max  decimal.Decimal `json:"max"`
	Rate decimal.Decimal `json:"rate"`
}

// Unbounded reports whether this is the final open-ended tier
func (t PricingTier) Unbounded() bool {
	return t.Max.IsZero()
}

// PricingData is a raw pricing record returned by get_pricing_data
type PricingData struct {
	Provider      Provider          `json:"provider"`
	Region        Region            `json:"region"`
	Service       string            `json:"service"`
	SKU           string            `json:"sku"`
	Description   string            `json:"description,omitempty"`
	Unit          string            `json:"unit"`
	Price         decimal.Decimal   `json:"price"`
	Currency      Currency          `json:"currency"`
	Tiers         []PricingTier     `json:"tiers,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	EffectiveFrom *time.Time        `json:"effective_from,omitempty"`
}

// ResourceConfiguration is a deployed resource as reported by get_resources
type ResourceConfiguration struct {
	ID         string                 `json:"id"`
	Provider   Provider               `json:"provider"`
	Region     Region                 `json:"region"`
	Type       string                 `json:"type"`
	Name       string                 `json:"name"`
	State      string                 `json:"state,omitempty"`
	Tags       map[string]string      `json:"tags,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// ResourceMetrics is the utilization snapshot for one resource
type ResourceMetrics struct {
	ResourceID     string          `json:"resource_id"`
	CPUPercent     decimal.Decimal `json:"cpu_percent"`
	MemoryPercent  decimal.Decimal `json:"memory_percent"`
	NetworkInGB    decimal.Decimal `json:"network_in_gb"`
	NetworkOutGB   decimal.Decimal `json:"network_out_gb"`
	IOPS           decimal.Decimal `json:"iops,omitempty"`
	SampledOver    time.Duration   `json:"sampled_over"`
	CollectedAt    time.Time       `json:"collected_at"`
}

// ResourceCost is the observed cost for one resource
type ResourceCost struct {
	ResourceID  string    `json:"resource_id"`
	MonthlyCost Money     `json:"monthly_cost"`
	Period      string    `json:"period,omitempty"`
	AsOf        time.Time `json:"as_of"`
}
