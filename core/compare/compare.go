// Package compare implements the per-class comparison engines. Each
// engine fans out to every eligible provider under a shared deadline,
// filters catalog options against the requirements, costs the
// survivors through the adapter, and ranks by monthly cost.
package compare

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cloudcost/adapters/cloud"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
	"cloudcost/internal/logging"
)

// Engine hosts the three class comparisons over one adapter registry
type Engine struct {
	registry *cloud.Registry
	timeout  time.Duration
	log      *zap.Logger
}

// New creates a comparison engine with the given deadline
func New(registry *cloud.Registry, timeout time.Duration) *Engine {
	return &Engine{
		registry: registry,
		timeout:  timeout,
		log:      logging.Named("compare"),
	}
}

// providerWork is one provider's slice of a fan-out: the catalog
// option count before filtering and the costed estimates after.
type providerWork struct {
	provider  types.Provider
	region    types.Region
	total     int
	estimates []types.CostEstimate
}

// fanOut runs worker per eligible provider under the comparison
// deadline. Provider errors drop that provider and are surfaced as
// failures; a deadline hit or caller cancellation discards all
// partial work.
func (e *Engine) fanOut(
	ctx context.Context,
	filters types.ComparisonFilters,
	defaultRegion types.Region,
	worker func(ctx context.Context, adapter cloud.Adapter, region types.Region) (int, []types.CostEstimate, error),
) ([]providerWork, []types.ProviderFailure, error) {
	providers := filters.Providers
	if len(providers) == 0 {
		providers = e.registry.Providers()
	}
	if len(providers) == 0 {
		return nil, nil, errors.Configuration("no provider adapters registered")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	started := time.Now()

	var mu sync.Mutex
	var works []providerWork
	var failures []types.ProviderFailure

	g, gctx := errgroup.WithContext(ctx)
	for _, provider := range providers {
		region := defaultRegion
		if r, ok := filters.Regions[provider]; ok {
			region = r
		}
		g.Go(func() error {
			adapter, err := e.registry.Get(provider)
			if err != nil {
				mu.Lock()
				failures = append(failures, types.ProviderFailure{
					Provider: provider, Region: region, Reason: err.Error(),
				})
				mu.Unlock()
				return nil
			}
			total, estimates, err := worker(gctx, adapter, region)
			if err != nil {
				// A deadline hit is handled for the whole comparison below
				if gctx.Err() != nil {
					return nil
				}
				e.log.Warn("provider dropped from comparison",
					zap.String("provider", provider.String()),
					zap.String("region", string(region)),
					zap.Error(err))
				mu.Lock()
				failures = append(failures, types.ProviderFailure{
					Provider: provider, Region: region, Reason: err.Error(),
				})
				mu.Unlock()
				return nil
			}
			mu.Lock()
			works = append(works, providerWork{
				provider: provider, region: region,
				total: total, estimates: estimates,
			})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	switch ctx.Err() {
	case nil:
	case context.DeadlineExceeded:
		return nil, nil, errors.ComparisonTimeout(time.Since(started).Round(time.Millisecond).String())
	default:
		// Caller cancellation: providers that already answered are
		// discarded with the rest, never served as a partial result.
		return nil, nil, ctx.Err()
	}

	sort.Slice(works, func(i, j int) bool { return works[i].provider < works[j].provider })
	return works, failures, nil
}

// assemble applies cost filters, ranks, and wraps the result
func (e *Engine) assemble(
	works []providerWork,
	failures []types.ProviderFailure,
	filters types.ComparisonFilters,
	started time.Time,
	regions []string,
) (types.ComparisonResult, error) {
	var estimates []types.CostEstimate
	total := 0
	var answered []types.Provider
	for _, w := range works {
		total += w.total
		answered = append(answered, w.provider)
		for _, est := range w.estimates {
			if passesCostFilters(est, filters) {
				estimates = append(estimates, est)
			}
		}
	}

	if len(estimates) == 0 {
		providerNames := make([]string, len(answered))
		for i, p := range answered {
			providerNames[i] = p.String()
		}
		err := errors.NoMatchingOptions(providerNames, regions)
		if len(failures) > 0 {
			err = err.WithDetail("provider_failures", failures)
		}
		return types.ComparisonResult{}, err
	}

	rank(estimates, filters.PreferredProviders)
	recommended := estimates[0]

	return types.ComparisonResult{
		Comparison: types.Comparison{
			Estimates:   estimates,
			Recommended: &recommended,
		},
		Filters:         filters,
		TotalOptions:    total,
		FilteredOptions: len(estimates),
		Providers:       answered,
		Failures:        failures,
		ProcessingTime:  time.Since(started),
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

func passesCostFilters(est types.CostEstimate, filters types.ComparisonFilters) bool {
	if filters.MaxMonthlyCost != nil && est.MonthlyCost.Amount.GreaterThan(*filters.MaxMonthlyCost) {
		return false
	}
	if filters.MaxHourlyCost != nil {
		if est.HourlyCost == nil {
			return false
		}
		if est.HourlyCost.Amount.GreaterThan(*filters.MaxHourlyCost) {
			return false
		}
	}
	return true
}

// rank orders by monthly cost, then preference order, then option name
func rank(estimates []types.CostEstimate, preferred []types.Provider) {
	prefIndex := make(map[types.Provider]int, len(preferred))
	for i, p := range preferred {
		prefIndex[p] = i
	}
	prefRank := func(p types.Provider) int {
		if i, ok := prefIndex[p]; ok {
			return i
		}
		return len(preferred)
	}
	sort.SliceStable(estimates, func(i, j int) bool {
		cmp := estimates[i].MonthlyCost.Amount.Cmp(estimates[j].MonthlyCost.Amount)
		if cmp != 0 {
			return cmp < 0
		}
		pi, pj := prefRank(estimates[i].Provider), prefRank(estimates[j].Provider)
		if pi != pj {
			return pi < pj
		}
		return estimates[i].OptionName < estimates[j].OptionName
	})
}

// hasAll reports whether want is a subset of have
func hasAll(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[h] = true
	}
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return true
}

// regionList collects the distinct regions a fan-out covered
func regionList(defaultRegion types.Region, filters types.ComparisonFilters) []string {
	seen := map[string]bool{}
	var out []string
	add := func(r types.Region) {
		if r != "" && !seen[string(r)] {
			seen[string(r)] = true
			out = append(out, string(r))
		}
	}
	add(defaultRegion)
	for _, r := range filters.Regions {
		add(r)
	}
	sort.Strings(out)
	return out
}
