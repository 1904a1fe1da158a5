// Package selection implements the multi-factor placement engine:
// capability filtering, cost estimation through the comparison engine,
// weighted scoring, and ranked selection with cached results.
package selection

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"cloudcost/adapters/cloud"
	"cloudcost/core/compare"
	"cloudcost/core/types"
	"cloudcost/internal/cache"
	"cloudcost/internal/errors"
	"cloudcost/internal/logging"
)

// Config tunes the selection engine
type Config struct {
	Timeout                  time.Duration
	CacheTTL                 time.Duration
	MaxAlternatives          int
	MaxConcurrentEvaluations int
}

// Engine scores and ranks placements across providers
type Engine struct {
	registry *cloud.Registry
	compare  *compare.Engine
	cfg      Config
	cache    *cache.Cache
	log      *zap.Logger

	// active tracks in-flight evaluations by caller-supplied name
	mu     sync.Mutex
	active map[string]struct{}
}

// New creates a selection engine over the given registries
func New(registry *cloud.Registry, cmp *compare.Engine, cfg Config) *Engine {
	if cfg.MaxAlternatives <= 0 {
		cfg.MaxAlternatives = 3
	}
	if cfg.MaxConcurrentEvaluations <= 0 {
		cfg.MaxConcurrentEvaluations = 10
	}
	return &Engine{
		registry: registry,
		compare:  cmp,
		cfg:      cfg,
		cache:    cache.New(cfg.CacheTTL),
		log:      logging.Named("selection"),
		active:   make(map[string]struct{}),
	}
}

// ActiveEvaluations returns the current in-flight evaluation count
func (e *Engine) ActiveEvaluations() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}

// acquire admits an evaluation or fails at the concurrency cap
func (e *Engine) acquire(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.active) >= e.cfg.MaxConcurrentEvaluations {
		return errors.Concurrency(len(e.active), e.cfg.MaxConcurrentEvaluations)
	}
	if _, exists := e.active[name]; exists {
		return errors.Concurrency(len(e.active), e.cfg.MaxConcurrentEvaluations).
			WithDetail("evaluation", name)
	}
	e.active[name] = struct{}{}
	return nil
}

func (e *Engine) release(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.active, name)
}

// Select evaluates requirements against every registered provider and
// returns the ranked placement. The evaluation name keys the
// concurrency cap; results are cached on the requirements+policy hash.
func (e *Engine) Select(ctx context.Context, name string, req types.SelectionRequirements, policy *types.SelectionPolicy) (types.SelectionResult, error) {
	if err := validateRequirements(req); err != nil {
		return types.SelectionResult{}, err
	}
	if err := e.acquire(name); err != nil {
		return types.SelectionResult{}, err
	}
	defer e.release(name)

	key, err := cacheKey(req, policy)
	if err != nil {
		return types.SelectionResult{}, err
	}
	if v, ok := e.cache.Get(key); ok {
		result := v.(types.SelectionResult)
		result.FromCache = true
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()
	started := time.Now()

	result, err := e.evaluate(ctx, req, policy)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return types.SelectionResult{}, errors.Newf(errors.TypeSelectionTimeout,
				"selection deadline exceeded after %s", time.Since(started).Round(time.Millisecond))
		}
		return types.SelectionResult{}, err
	}
	result.ProcessingTime = time.Since(started)
	result.GeneratedAt = time.Now().UTC()

	e.cache.Put(key, result)
	return result, nil
}

func (e *Engine) evaluate(ctx context.Context, req types.SelectionRequirements, policy *types.SelectionPolicy) (types.SelectionResult, error) {
	weights := types.DefaultScoreWeights()
	var preferred []types.Provider
	maxAlternatives := e.cfg.MaxAlternatives
	if policy != nil {
		if policy.Weights != nil {
			if err := validateWeights(*policy.Weights); err != nil {
				return types.SelectionResult{}, err
			}
			weights = *policy.Weights
		}
		preferred = policy.PreferredProviders
		if policy.MaxAlternatives > 0 {
			maxAlternatives = policy.MaxAlternatives
		}
	}

	// Step 1: capability sheets per (provider, region)
	capabilities, evaluated, err := e.fetchCapabilities(ctx, req)
	if err != nil {
		return types.SelectionResult{}, err
	}

	// Step 2: capability filtering
	eligible := filterCapabilities(capabilities, req, policy)
	if len(eligible) == 0 {
		return types.SelectionResult{}, errors.NoMatchingOptions(providerNames(evaluated), nil).
			WithDetail("stage", "capability_filter")
	}

	// Step 3: cost estimates through the comparison engine
	estimates, err := e.estimateCosts(ctx, req, eligible)
	if err != nil {
		return types.SelectionResult{}, err
	}

	// Step 4: budget floor
	if req.MaxMonthlyBudget != nil {
		within := estimates[:0]
		minObserved := estimates[0].MonthlyCost.Amount
		for _, est := range estimates {
			if est.MonthlyCost.Amount.LessThan(minObserved) {
				minObserved = est.MonthlyCost.Amount
			}
			if !est.MonthlyCost.Amount.GreaterThan(*req.MaxMonthlyBudget) {
				within = append(within, est)
			}
		}
		if len(within) == 0 {
			return types.SelectionResult{}, errors.Budget(
				minObserved.RoundBank(2).String(),
				req.MaxMonthlyBudget.RoundBank(2).String())
		}
		estimates = within
	}

	// Steps 5-7: score and rank
	candidates := score(estimates, eligible, req, weights, preferred)
	rankCandidates(candidates, preferred)

	result := types.SelectionResult{
		Selected:           candidates[0],
		Weights:            weights,
		Matrix:             candidates,
		EvaluatedProviders: evaluated,
	}
	if len(candidates) > 1 {
		alts := candidates[1:]
		if len(alts) > maxAlternatives {
			alts = alts[:maxAlternatives]
		}
		result.Alternatives = alts
	}
	return result, nil
}

// fetchCapabilities resolves the capability sheet for every registered
// provider in its requirement region.
func (e *Engine) fetchCapabilities(ctx context.Context, req types.SelectionRequirements) (map[types.Provider]types.ProviderCapability, []types.Provider, error) {
	providers := e.registry.Providers()
	if len(providers) == 0 {
		return nil, nil, errors.Configuration("no provider adapters registered")
	}
	fallback := defaultRegion(req)

	capabilities := make(map[types.Provider]types.ProviderCapability)
	var evaluated []types.Provider
	for _, provider := range providers {
		adapter, err := e.registry.Get(provider)
		if err != nil {
			return nil, nil, err
		}
		region := req.RegionFor(provider, fallback)
		capability, err := adapter.GetCapability(ctx, region)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, err
			}
			e.log.Warn("provider dropped from selection",
				zap.String("provider", provider.String()), zap.Error(err))
			continue
		}
		capabilities[provider] = capability
		evaluated = append(evaluated, provider)
	}
	if len(capabilities) == 0 {
		return nil, nil, errors.NoMatchingOptions(providerNames(providers), nil).
			WithDetail("stage", "capability_fetch")
	}
	return capabilities, evaluated, nil
}

// estimateCosts runs the class comparison restricted to eligible providers
func (e *Engine) estimateCosts(ctx context.Context, req types.SelectionRequirements, eligible map[types.Provider]types.ProviderCapability) ([]types.CostEstimate, error) {
	providers := make([]types.Provider, 0, len(eligible))
	for p := range eligible {
		providers = append(providers, p)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })

	filters := types.ComparisonFilters{
		Providers: providers,
		Regions:   req.Regions,
	}

	var result types.ComparisonResult
	var err error
	switch {
	case req.Vm != nil:
		result, err = e.compare.CompareVm(ctx, *req.Vm, filters)
	case req.Storage != nil:
		result, err = e.compare.CompareStorage(ctx, *req.Storage, filters)
	case req.Network != nil:
		result, err = e.compare.CompareNetwork(ctx, *req.Network, filters)
	}
	if err != nil {
		return nil, err
	}
	return result.Comparison.Estimates, nil
}

func defaultRegion(req types.SelectionRequirements) types.Region {
	switch {
	case req.Vm != nil:
		return req.Vm.Region
	case req.Storage != nil:
		return req.Storage.Region
	case req.Network != nil:
		return req.Network.Region
	}
	return ""
}

func validateRequirements(req types.SelectionRequirements) error {
	set := 0
	if req.Vm != nil {
		set++
	}
	if req.Storage != nil {
		set++
	}
	if req.Network != nil {
		set++
	}
	if set != 1 {
		return errors.Validation("requirements", set, "exactly one of vm, storage, network must be set")
	}
	if req.MinAvailabilitySLA != nil {
		sla := *req.MinAvailabilitySLA
		if sla.Sign() < 0 || sla.GreaterThan(hundred) {
			return errors.Validation("min_availability_sla", sla, "must be between 0 and 100")
		}
	}
	if req.MaxMonthlyBudget != nil && req.MaxMonthlyBudget.Sign() <= 0 {
		return errors.Validation("max_monthly_budget", *req.MaxMonthlyBudget, "must be positive")
	}
	return nil
}

func validateWeights(w types.ScoreWeights) error {
	for _, v := range []float64{w.Cost, w.Performance, w.Compliance, w.Preference} {
		if v < 0 || v > 1 {
			return errors.Validation("weights", v, "each weight must be within [0, 1]")
		}
	}
	if math.Abs(w.Sum()-1.0) > 1e-9 {
		return errors.Validation("weights", w.Sum(), "weights must sum to 1.0")
	}
	return nil
}

func providerNames(providers []types.Provider) []string {
	out := make([]string, len(providers))
	for i, p := range providers {
		out[i] = p.String()
	}
	return out
}

// cacheKey hashes the requirements and policy into a stable key
func cacheKey(req types.SelectionRequirements, policy *types.SelectionPolicy) (string, error) {
	payload := struct {
		Req    types.SelectionRequirements `json:"req"`
		Policy *types.SelectionPolicy     `json:"policy,omitempty"`
	}{req, policy}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Internal("hashing selection request", err)
	}
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("selection/%s", hex.EncodeToString(sum[:16])), nil
}
