package compare

import (
	"context"
	"time"

	"cloudcost/adapters/cloud"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

// CompareVm fans out a compute comparison across providers
func (e *Engine) CompareVm(ctx context.Context, req types.VmRequirements, filters types.ComparisonFilters) (types.ComparisonResult, error) {
	if err := validateVm(req); err != nil {
		return types.ComparisonResult{}, err
	}
	started := time.Now()

	works, failures, err := e.fanOut(ctx, filters, req.Region,
		func(ctx context.Context, adapter cloud.Adapter, region types.Region) (int, []types.CostEstimate, error) {
			catalog, err := adapter.ListInstanceTypes(ctx, region)
			if err != nil {
				return 0, nil, err
			}
			var estimates []types.CostEstimate
			for _, opt := range catalog {
				if !vmMatches(opt, req) {
					continue
				}
				bundle, err := adapter.GetComputeCosts(ctx, opt.Name, region, req.OS, req.PurchaseOption)
				if err != nil {
					if errors.IsType(err, errors.TypeNotFound) {
						continue
					}
					return 0, nil, err
				}
				opt := opt
				estimates = append(estimates, types.CostEstimate{
					Provider:    adapter.Provider(),
					Region:      region,
					OptionName:  opt.Name,
					VmOption:    &opt,
					MonthlyCost: bundle.MonthlyCost,
					HourlyCost:  bundle.HourlyCost,
					Components:  bundle.Components,
				})
			}
			return len(catalog), estimates, nil
		})
	if err != nil {
		return types.ComparisonResult{}, err
	}

	result, err := e.assemble(works, failures, filters, started, regionList(req.Region, filters))
	if err != nil {
		return types.ComparisonResult{}, err
	}
	result.Comparison.VmRequirements = &req
	return result, nil
}

func vmMatches(opt types.VmInstanceType, req types.VmRequirements) bool {
	if opt.VCPUs < req.MinVCPUs {
		return false
	}
	if opt.MemoryGB.LessThan(req.MinMemoryGB) {
		return false
	}
	if req.MinNetworkGbps != nil && opt.NetworkGbps.LessThan(*req.MinNetworkGbps) {
		return false
	}
	if req.MinGPUs != nil && opt.GPUs < *req.MinGPUs {
		return false
	}
	if req.LocalDiskGB != nil && opt.LocalDiskGB < *req.LocalDiskGB {
		return false
	}
	if req.OS != "" && len(opt.SupportedOS) > 0 {
		supported := false
		for _, os := range opt.SupportedOS {
			if os == req.OS {
				supported = true
				break
			}
		}
		if !supported {
			return false
		}
	}
	if !hasAll(opt.Features, req.RequiredFeatures) {
		return false
	}
	if !hasAll(opt.Certifications, req.RequiredCertifications) {
		return false
	}
	return true
}

func validateVm(req types.VmRequirements) error {
	if req.Region == "" {
		return errors.Validation("region", req.Region, "must not be empty")
	}
	if req.MinVCPUs < 1 {
		return errors.Validation("min_vcpus", req.MinVCPUs, "must be at least 1")
	}
	if req.MinMemoryGB.Sign() <= 0 {
		return errors.Validation("min_memory_gb", req.MinMemoryGB, "must be positive")
	}
	switch req.OS {
	case types.OSLinux, types.OSWindows:
	default:
		return errors.Validation("os", req.OS, "must be linux or windows")
	}
	switch req.PurchaseOption {
	case types.PurchaseOnDemand, types.PurchaseReserved, types.PurchaseSpot:
	default:
		return errors.Validation("purchase_option", req.PurchaseOption, "must be on_demand, reserved, or spot")
	}
	if req.MinGPUs != nil && *req.MinGPUs < 0 {
		return errors.Validation("min_gpus", *req.MinGPUs, "must not be negative")
	}
	return nil
}
