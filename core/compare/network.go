package compare

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"cloudcost/adapters/cloud"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

// CompareNetwork fans out a network-service comparison across providers
func (e *Engine) CompareNetwork(ctx context.Context, req types.NetworkRequirements, filters types.ComparisonFilters) (types.ComparisonResult, error) {
	if err := validateNetwork(req); err != nil {
		return types.ComparisonResult{}, err
	}
	started := time.Now()

	serviceType := req.ServiceType
	if filters.ServiceType != nil {
		serviceType = *filters.ServiceType
	}

	works, failures, err := e.fanOut(ctx, filters, req.Region,
		func(ctx context.Context, adapter cloud.Adapter, region types.Region) (int, []types.CostEstimate, error) {
			catalog, err := adapter.ListNetworkOptions(ctx, serviceType, region)
			if err != nil {
				return 0, nil, err
			}
			var estimates []types.CostEstimate
			for _, opt := range catalog {
				if !networkMatches(opt, req, filters) {
					continue
				}
				query := cloud.NetworkCostQuery{
					ServiceType: serviceType,
					Region:      region,
					OptionName:  opt.Name,
				}
				if req.MonthlyDataTransferGB != nil {
					query.MonthlyDataTransferGB = *req.MonthlyDataTransferGB
				} else {
					query.MonthlyDataTransferGB = decimal.Zero
				}
				if req.ExpectedRPS != nil {
					query.RPS = *req.ExpectedRPS
				}
				bundle, err := adapter.GetNetworkCosts(ctx, query)
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
					NetworkOption: &opt,
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
	result.Comparison.NetworkRequirements = &req
	return result, nil
}

func networkMatches(opt types.NetworkOption, req types.NetworkRequirements, filters types.ComparisonFilters) bool {
	if req.VPNType != "" && opt.VPNType != req.VPNType {
		return false
	}
	if req.LoadBalancerType != "" && opt.LoadBalancerType != req.LoadBalancerType {
		return false
	}
	if req.DNSType != "" && opt.DNSType != req.DNSType {
		return false
	}
	if req.MinBandwidthGbps != nil && opt.BandwidthGbps.Sign() > 0 && opt.BandwidthGbps.LessThan(*req.MinBandwidthGbps) {
		return false
	}
	if req.ExpectedRPS != nil && opt.MaxRPS > 0 && opt.MaxRPS < *req.ExpectedRPS {
		return false
	}
	if !hasAll(opt.Features, req.RequiredFeatures) {
		return false
	}
	if !hasAll(opt.Certifications, req.RequiredCertifications) {
		return false
	}
	if filters.MinBandwidthGbps != nil && opt.BandwidthGbps.Sign() > 0 && opt.BandwidthGbps.LessThan(*filters.MinBandwidthGbps) {
		return false
	}
	return true
}

func validateNetwork(req types.NetworkRequirements) error {
	if req.Region == "" {
		return errors.Validation("region", req.Region, "must not be empty")
	}
	switch req.ServiceType {
	case types.NetworkLoadBalancer, types.NetworkVPN, types.NetworkNATGateway,
		types.NetworkTransitGateway, types.NetworkDNS, types.NetworkCDN:
	default:
		return errors.Validation("service_type", req.ServiceType, "must be a known network service type")
	}
	if req.ServiceType == types.NetworkVPN && req.VPNType == "" {
		return errors.Validation("vpn_type", req.VPNType, "required when service_type is vpn")
	}
	if req.ExpectedRPS != nil && *req.ExpectedRPS < 0 {
		return errors.Validation("expected_rps", *req.ExpectedRPS, "must not be negative")
	}
	if req.MonthlyDataTransferGB != nil && req.MonthlyDataTransferGB.Sign() < 0 {
		return errors.Validation("monthly_data_transfer_gb", *req.MonthlyDataTransferGB, "must not be negative")
	}
	return nil
}
