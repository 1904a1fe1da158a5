package recommend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cloudcost/adapters/cloud"
	"cloudcost/core/types"
)

// rightsize proposes the largest smaller instance in the same family
// when CPU utilization sits below the low-water mark.
func (e *Engine) rightsize(ctx context.Context, adapter cloud.Adapter, res types.Resource, shape types.VmInstanceType, metrics types.ResourceMetrics) (types.Recommendation, bool) {
	if metrics.CPUPercent.GreaterThanOrEqual(e.cfg.LowCPUPercent) {
		return types.Recommendation{}, false
	}

	catalog, err := adapter.ListInstanceTypes(ctx, res.Region)
	if err != nil {
		e.log.Warn("catalog unavailable for rightsizing", zap.Error(err))
		return types.Recommendation{}, false
	}

	var target *types.VmInstanceType
	for i := range catalog {
		c := catalog[i]
		if c.Family != shape.Family || c.VCPUs >= shape.VCPUs {
			continue
		}
		if target == nil || c.VCPUs > target.VCPUs ||
			(c.VCPUs == target.VCPUs && c.MemoryGB.GreaterThan(target.MemoryGB)) {
			target = &c
		}
	}
	if target == nil {
		return types.Recommendation{}, false
	}

	current, err := e.currentMonthlyCost(ctx, adapter, res, shape)
	if err != nil {
		e.log.Warn("current cost unavailable for rightsizing", zap.Error(err))
		return types.Recommendation{}, false
	}
	bundle, err := adapter.GetComputeCosts(ctx, target.Name, res.Region, types.OSLinux, types.PurchaseOnDemand)
	if err != nil {
		e.log.Warn("target cost unavailable for rightsizing", zap.Error(err))
		return types.Recommendation{}, false
	}
	savings := current.Amount.Sub(bundle.MonthlyCost.Amount)
	if savings.Sign() <= 0 {
		return types.Recommendation{}, false
	}

	proposed := bundle.MonthlyCost
	savingsMoney := types.NewMoney(savings, current.Currency)
	rec := e.newRecommendation(types.RecommendationCostOptimization, res.Provider, res.Region)
	rec.ResourceID = res.ID
	rec.Summary = fmt.Sprintf("%s averages %s%% CPU; downsize %s to %s",
		res.Name, metrics.CPUPercent.RoundBank(1), shape.Name, target.Name)
	rec.Action = fmt.Sprintf("resize %s from %s to %s", res.ID, shape.Name, target.Name)
	rec.CurrentMonthlyCost = &current
	rec.ProposedMonthlyCost = &proposed
	rec.MonthlySavings = &savingsMoney
	rec.Details = map[string]interface{}{
		"cpu_percent":   metrics.CPUPercent.String(),
		"current_vcpus": shape.VCPUs,
		"target_vcpus":  target.VCPUs,
	}
	return rec, true
}

// performance flags saturated resources for an upsize within the family
func (e *Engine) performance(res types.Resource, shape types.VmInstanceType, metrics types.ResourceMetrics) (types.Recommendation, bool) {
	if metrics.CPUPercent.LessThan(e.cfg.HighCPUPercent) {
		return types.Recommendation{}, false
	}
	rec := e.newRecommendation(types.RecommendationPerformance, res.Provider, res.Region)
	rec.ResourceID = res.ID
	rec.Summary = fmt.Sprintf("%s averages %s%% CPU on %s; move up within the %s family",
		res.Name, metrics.CPUPercent.RoundBank(1), shape.Name, shape.Family)
	rec.Action = fmt.Sprintf("resize %s to the next larger %s instance", res.ID, shape.Family)
	rec.Details = map[string]interface{}{
		"cpu_percent":   metrics.CPUPercent.String(),
		"current_vcpus": shape.VCPUs,
	}
	return rec, true
}
