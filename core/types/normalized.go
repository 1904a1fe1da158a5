// Package types - Canonical normalized cost model
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResourceMetadata identifies the resource behind a normalized cost entry
type ResourceMetadata struct {
	Provider   Provider `json:"provider"`
	ProviderID string   `json:"provider_id"`
	Name       string   `json:"name,omitempty"`

	// Type is the canonical resource type derived from the mapping table
	Type ResourceType `json:"type"`

	Region      Region      `json:"region"`
	BillingType BillingType `json:"billing_type"`

	// Specifications holds provider fields projected through the mapping's
	// dotted-path rules. Nested paths become nested maps.
	Specifications map[string]interface{} `json:"specifications,omitempty"`
}

// CostAllocation carries the organizational attribution of a cost entry
type CostAllocation struct {
	Project     string            `json:"project,omitempty"`
	CostCenter  string            `json:"cost_center,omitempty"`
	Environment string            `json:"environment,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// CostBreakdown is the fixed-shape cost record. Exactly one bucket holds
// the non-zero amount at creation; all buckets share one currency.
type CostBreakdown struct {
	Compute Money `json:"compute"`
	Storage Money `json:"storage"`
	Network Money `json:"network"`
	Other   Money `json:"other"`
}

// NewCostBreakdown returns an all-zero breakdown in the given currency
func NewCostBreakdown(currency Currency) CostBreakdown {
	return CostBreakdown{
		Compute: ZeroMoney(currency),
		Storage: ZeroMoney(currency),
		Network: ZeroMoney(currency),
		Other:   ZeroMoney(currency),
	}
}

// Total sums all buckets
func (b CostBreakdown) Total() decimal.Decimal {
	return b.Compute.Amount.
		Add(b.Storage.Amount).
		Add(b.Network.Amount).
		Add(b.Other.Amount)
}

// NormalizedCostEntry is the canonical cost record produced by the
// normalization engine. Entries are immutable once emitted.
type NormalizedCostEntry struct {
	// ID is deterministic: {provider}-{resource_id}-{start_iso}
	ID        string `json:"id"`
	AccountID string `json:"account_id,omitempty"`

	Resource   ResourceMetadata `json:"resource"`
	Allocation CostAllocation   `json:"allocation"`
	Costs      CostBreakdown    `json:"costs"`

	Currency Currency `json:"currency"`

	// Half-open window [StartTime, EndTime)
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// TotalCost returns the entry's total across all buckets
func (e NormalizedCostEntry) TotalCost() decimal.Decimal {
	return e.Costs.Total()
}

// CostAggregation is the aggregation engine's output: per-key totals plus
// the grand total over the covered window.
type CostAggregation struct {
	GroupBy []string `json:"group_by"`

	// Costs maps the joined group key to the summed cost
	Costs map[string]decimal.Decimal `json:"costs"`

	// Counts maps the joined group key to the number of entries
	Counts map[string]int `json:"counts"`

	TotalCost decimal.Decimal `json:"total_cost"`
	Currency  Currency        `json:"currency"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	EntryCount int `json:"entry_count"`
}
