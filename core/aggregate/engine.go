// Package aggregate groups normalized cost entries by dotted-path keys.
// Extractors are compiled once per group-by list, so the per-entry path
// walk involves no reflection.
package aggregate

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

// extractor resolves one dotted path on an entry. Unresolved paths
// return the empty string, a stable sentinel.
type extractor func(types.NormalizedCostEntry) string

// keyJoin separates the per-path key segments
const keyJoin = ":"

// fieldExtractors is the entry schema: every addressable scalar field.
// Tag paths (allocation.tags.<name>, resource.specifications.<name>) are
// compiled dynamically in compile().
var fieldExtractors = map[string]extractor{
	"id":         func(e types.NormalizedCostEntry) string { return e.ID },
	"account_id": func(e types.NormalizedCostEntry) string { return e.AccountID },
	"currency":   func(e types.NormalizedCostEntry) string { return string(e.Currency) },

	"resource.provider":     func(e types.NormalizedCostEntry) string { return string(e.Resource.Provider) },
	"resource.provider_id":  func(e types.NormalizedCostEntry) string { return e.Resource.ProviderID },
	"resource.name":         func(e types.NormalizedCostEntry) string { return e.Resource.Name },
	"resource.type":         func(e types.NormalizedCostEntry) string { return string(e.Resource.Type) },
	"resource.region":       func(e types.NormalizedCostEntry) string { return string(e.Resource.Region) },
	"resource.billing_type": func(e types.NormalizedCostEntry) string { return string(e.Resource.BillingType) },

	"allocation.project":     func(e types.NormalizedCostEntry) string { return e.Allocation.Project },
	"allocation.cost_center": func(e types.NormalizedCostEntry) string { return e.Allocation.CostCenter },
	"allocation.environment": func(e types.NormalizedCostEntry) string { return e.Allocation.Environment },
}

// compile resolves a dotted path to an extractor. Unknown paths compile
// to the empty-string sentinel rather than an error, per the contract.
func compile(path string) extractor {
	if ex, ok := fieldExtractors[path]; ok {
		return ex
	}
	if name, ok := strings.CutPrefix(path, "allocation.tags."); ok {
		return func(e types.NormalizedCostEntry) string { return e.Allocation.Tags[name] }
	}
	if rest, ok := strings.CutPrefix(path, "resource.specifications."); ok {
		parts := strings.Split(rest, ".")
		return func(e types.NormalizedCostEntry) string {
			return specLookup(e.Resource.Specifications, parts)
		}
	}
	return func(types.NormalizedCostEntry) string { return "" }
}

func specLookup(m map[string]interface{}, parts []string) string {
	var cur interface{} = m
	for _, p := range parts {
		mm, ok := cur.(map[string]interface{})
		if !ok {
			return ""
		}
		cur, ok = mm[p]
		if !ok {
			return ""
		}
	}
	if s, ok := cur.(string); ok {
		return s
	}
	return ""
}

// Engine aggregates normalized entries
type Engine struct{}

// NewEngine creates an aggregation engine
func NewEngine() *Engine {
	return &Engine{}
}

// Aggregate groups entries by the dotted paths in groupBy, summing total
// cost per key. Group keys join path values with ":".
func (e *Engine) Aggregate(entries []types.NormalizedCostEntry, groupBy []string) (*types.CostAggregation, error) {
	if len(groupBy) == 0 {
		return nil, errors.Validation("group_by", groupBy, "at least one group path required")
	}

	extractors := make([]extractor, len(groupBy))
	for i, path := range groupBy {
		extractors[i] = compile(path)
	}

	agg := &types.CostAggregation{
		GroupBy:    append([]string(nil), groupBy...),
		Costs:      make(map[string]decimal.Decimal),
		Counts:     make(map[string]int),
		TotalCost:  decimal.Zero,
		EntryCount: len(entries),
	}

	var start, end time.Time
	for _, entry := range entries {
		segments := make([]string, len(extractors))
		for i, ex := range extractors {
			segments[i] = ex(entry)
		}
		key := strings.Join(segments, keyJoin)

		total := entry.TotalCost()
		agg.Costs[key] = agg.Costs[key].Add(total)
		agg.Counts[key]++
		agg.TotalCost = agg.TotalCost.Add(total)

		if agg.Currency == "" {
			agg.Currency = entry.Currency
		}
		if start.IsZero() || entry.StartTime.Before(start) {
			start = entry.StartTime
		}
		if entry.EndTime.After(end) {
			end = entry.EndTime
		}
	}

	agg.StartTime = start
	agg.EndTime = end
	return agg, nil
}
