package compare

import (
	"context"
	"time"

	"cloudcost/adapters/cloud"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

// CompareStorage fans out a storage comparison across providers
func (e *Engine) CompareStorage(ctx context.Context, req types.StorageRequirements, filters types.ComparisonFilters) (types.ComparisonResult, error) {
	if err := validateStorage(req); err != nil {
		return types.ComparisonResult{}, err
	}
	started := time.Now()

	works, failures, err := e.fanOut(ctx, filters, req.Region,
		func(ctx context.Context, adapter cloud.Adapter, region types.Region) (int, []types.CostEstimate, error) {
			catalog, err := adapter.ListStorageOptions(ctx, req.StorageType, region)
			if err != nil {
				return 0, nil, err
			}
			var estimates []types.CostEstimate
			for _, opt := range catalog {
				if !storageMatches(opt, req, filters) {
					continue
				}
				query := cloud.StorageCostQuery{
					StorageType:  req.StorageType,
					StorageClass: opt.StorageClass,
					Replication:  opt.Replication,
					Region:       region,
					CapacityGB:   req.CapacityGB,
				}
				if req.MinIOPS != nil {
					query.IOPS = *req.MinIOPS
				}
				if req.MinThroughputMBps != nil {
					query.ThroughputMBps = *req.MinThroughputMBps
				}
				bundle, err := adapter.GetStorageCosts(ctx, query)
				if err != nil {
					if errors.IsType(err, errors.TypeNotFound) {
						continue
					}
					return 0, nil, err
				}
				opt := opt
				estimates = append(estimates, types.CostEstimate{
					Provider:      adapter.Provider(),
					Region:        region,
					OptionName:    opt.Name,
					StorageOption: &opt,
					MonthlyCost:   bundle.MonthlyCost,
					HourlyCost:    bundle.HourlyCost,
					Components:    bundle.Components,
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
	result.Comparison.StorageRequirements = &req
	return result, nil
}

func storageMatches(opt types.StorageOption, req types.StorageRequirements, filters types.ComparisonFilters) bool {
	// Numeric ranges first, then discriminators, then filter overrides
	if opt.MinCapacityGB > 0 && req.CapacityGB < opt.MinCapacityGB {
		return false
	}
	if opt.MaxCapacityGB > 0 && req.CapacityGB > opt.MaxCapacityGB {
		return false
	}
	if req.MinIOPS != nil && opt.MaxIOPS > 0 && opt.MaxIOPS < *req.MinIOPS {
		return false
	}
	if req.MinThroughputMBps != nil && opt.MaxThroughputMBps > 0 && opt.MaxThroughputMBps < *req.MinThroughputMBps {
		return false
	}
	if !hasAll(opt.Features, req.RequiredFeatures) {
		return false
	}
	if !hasAll(opt.Certifications, req.RequiredCertifications) {
		return false
	}
	if req.StorageClass != nil && opt.StorageClass != *req.StorageClass {
		return false
	}
	if req.Replication != nil && opt.Replication != *req.Replication {
		return false
	}
	if filters.StorageClass != nil && opt.StorageClass != *filters.StorageClass {
		return false
	}
	if filters.Replication != nil && opt.Replication != *filters.Replication {
		return false
	}
	if filters.MinCapacityGB != nil && opt.MaxCapacityGB > 0 && opt.MaxCapacityGB < *filters.MinCapacityGB {
		return false
	}
	if filters.MinIOPS != nil && opt.MaxIOPS > 0 && opt.MaxIOPS < *filters.MinIOPS {
		return false
	}
	return true
}

func validateStorage(req types.StorageRequirements) error {
	if req.Region == "" {
		return errors.Validation("region", req.Region, "must not be empty")
	}
	switch req.StorageType {
	case types.StorageTypeBlock, types.StorageTypeObject, types.StorageTypeFile:
	default:
		return errors.Validation("storage_type", req.StorageType, "must be block, object, or file")
	}
	if req.CapacityGB < 1 {
		return errors.Validation("capacity_gb", req.CapacityGB, "must be at least 1")
	}
	if req.MinIOPS != nil && *req.MinIOPS < 0 {
		return errors.Validation("min_iops", *req.MinIOPS, "must not be negative")
	}
	if req.MinThroughputMBps != nil && *req.MinThroughputMBps < 0 {
		return errors.Validation("min_throughput_mbps", *req.MinThroughputMBps, "must not be negative")
	}
	return nil
}
