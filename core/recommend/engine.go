// Package recommend derives advisory recommendations from comparison and
// selection output plus observed inventory and utilization. It never
// mutates provider resources.
package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cloudcost/adapters/cloud"
	"cloudcost/core/compare"
	"cloudcost/core/selection"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
	"cloudcost/internal/logging"
)

// ResourceFilter narrows inventory listings
type ResourceFilter struct {
	Type   types.ResourceType
	Region types.Region
}

// Inventory is the resource store port consumed by recommendations
type Inventory interface {
	ListResources(ctx context.Context, filter ResourceFilter) ([]types.Resource, error)
	GetResource(ctx context.Context, id string) (types.Resource, error)
	TagResource(ctx context.Context, id string, tags map[string]string) (types.Resource, error)
}

// Config tunes recommendation generation
type Config struct {
	// TTL stamps valid_until on every recommendation
	TTL time.Duration

	// LowCPUPercent marks a compute resource as underutilized
	LowCPUPercent decimal.Decimal

	// HighCPUPercent marks a compute resource as saturated
	HighCPUPercent decimal.Decimal
}

// Engine generates recommendations
type Engine struct {
	inventory Inventory
	registry  *cloud.Registry
	compare   *compare.Engine
	selection *selection.Engine
	cfg       Config
	log       *zap.Logger
}

// New creates a recommendation engine
func New(inventory Inventory, registry *cloud.Registry, cmp *compare.Engine, sel *selection.Engine, cfg Config) *Engine {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.LowCPUPercent.IsZero() {
		cfg.LowCPUPercent = decimal.NewFromInt(20)
	}
	if cfg.HighCPUPercent.IsZero() {
		cfg.HighCPUPercent = decimal.NewFromInt(80)
	}
	return &Engine{
		inventory: inventory,
		registry:  registry,
		compare:   cmp,
		selection: sel,
		cfg:       cfg,
		log:       logging.Named("recommend"),
	}
}

// Placement runs a full selection and wraps the winner as a placement
// recommendation.
func (e *Engine) Placement(ctx context.Context, name string, req types.SelectionRequirements, policy *types.SelectionPolicy) (types.Recommendation, error) {
	result, err := e.selection.Select(ctx, name, req, policy)
	if err != nil {
		return types.Recommendation{}, err
	}
	selected := result.Selected
	cost := selected.Estimate.MonthlyCost

	rec := e.newRecommendation(types.RecommendationPlacement, selected.Provider, selected.Region)
	rec.Summary = fmt.Sprintf("place workload on %s %s in %s",
		selected.Provider, selected.Estimate.OptionName, selected.Region)
	rec.Action = fmt.Sprintf("provision %s in %s on %s",
		selected.Estimate.OptionName, selected.Region, selected.Provider)
	rec.ProposedMonthlyCost = &cost
	rec.Details = map[string]interface{}{
		"total_score":         selected.Scores.Total,
		"evaluated_providers": len(result.EvaluatedProviders),
		"alternatives":        len(result.Alternatives),
	}
	return rec, nil
}

// ForResource inspects one inventory resource and returns every
// recommendation that applies: rightsizing on low utilization,
// performance on saturation, migration when another provider is cheaper.
func (e *Engine) ForResource(ctx context.Context, resourceID string) ([]types.Recommendation, error) {
	res, err := e.inventory.GetResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if res.Type != types.ResourceTypeCompute {
		return nil, errors.Validation("resource", res.Type,
			"recommendations are derived for compute resources only")
	}

	adapter, err := e.registry.Get(res.Provider)
	if err != nil {
		return nil, err
	}

	shape, err := e.resolveShape(ctx, adapter, res)
	if err != nil {
		return nil, err
	}

	var recs []types.Recommendation

	metrics, err := adapter.GetMetrics(ctx, res.ID)
	if err != nil {
		e.log.Warn("metrics unavailable, skipping utilization checks",
			zap.String("resource_id", res.ID), zap.Error(err))
	} else {
		if rec, ok := e.rightsize(ctx, adapter, res, shape, metrics); ok {
			recs = append(recs, rec)
		}
		if rec, ok := e.performance(res, shape, metrics); ok {
			recs = append(recs, rec)
		}
	}

	if rec, ok, err := e.migration(ctx, res, shape); err != nil {
		return recs, err
	} else if ok {
		recs = append(recs, rec)
	}
	return recs, nil
}

// Sweep runs ForResource over every compute resource in the inventory
func (e *Engine) Sweep(ctx context.Context, region types.Region) ([]types.Recommendation, error) {
	resources, err := e.inventory.ListResources(ctx, ResourceFilter{
		Type:   types.ResourceTypeCompute,
		Region: region,
	})
	if err != nil {
		return nil, err
	}
	var all []types.Recommendation
	for _, res := range resources {
		recs, err := e.ForResource(ctx, res.ID)
		if err != nil {
			if ctx.Err() != nil {
				return all, err
			}
			e.log.Warn("resource skipped",
				zap.String("resource_id", res.ID), zap.Error(err))
			continue
		}
		all = append(all, recs...)
	}
	return all, nil
}

// resolveShape finds the instance catalog entry backing a resource. The
// provider-native type comes from the deployed configuration.
func (e *Engine) resolveShape(ctx context.Context, adapter cloud.Adapter, res types.Resource) (types.VmInstanceType, error) {
	configs, err := adapter.GetResources(ctx, cloud.ResourceQuery{IDs: []string{res.ID}})
	if err != nil {
		return types.VmInstanceType{}, err
	}
	if len(configs) == 0 {
		return types.VmInstanceType{}, errors.NotFound("resource configuration", res.ID)
	}
	name, _ := configs[0].Properties["instance_type"].(string)
	if name == "" {
		return types.VmInstanceType{}, errors.Newf(errors.TypeInsufficientData,
			"resource %s reports no instance type", res.ID)
	}

	catalog, err := adapter.ListInstanceTypes(ctx, res.Region)
	if err != nil {
		return types.VmInstanceType{}, err
	}
	for _, it := range catalog {
		if it.Name == name {
			return it, nil
		}
	}
	return types.VmInstanceType{}, errors.NotFound("instance type", name)
}

func (e *Engine) newRecommendation(t types.RecommendationType, provider types.Provider, region types.Region) types.Recommendation {
	now := time.Now().UTC()
	return types.Recommendation{
		ID:         uuid.NewString(),
		Type:       t,
		Provider:   provider,
		Region:     region,
		CreatedAt:  now,
		ValidUntil: now.Add(e.cfg.TTL),
	}
}

// currentMonthlyCost prefers the inventory's observed cost and falls
// back to pricing the current shape on demand.
func (e *Engine) currentMonthlyCost(ctx context.Context, adapter cloud.Adapter, res types.Resource, shape types.VmInstanceType) (types.Money, error) {
	if res.MonthlyCost != nil {
		return *res.MonthlyCost, nil
	}
	if cost, err := adapter.GetCost(ctx, res.ID); err == nil {
		return cost.MonthlyCost, nil
	}
	bundle, err := adapter.GetComputeCosts(ctx, shape.Name, res.Region, types.OSLinux, types.PurchaseOnDemand)
	if err != nil {
		return types.Money{}, err
	}
	return bundle.MonthlyCost, nil
}
