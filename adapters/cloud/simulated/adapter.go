// Package simulated implements the adapter surface against bundled
// fixture catalogs, for offline development and tests.
package simulated

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cloudcost/adapters/cloud"
	"cloudcost/core/pricing"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

// Adapter serves one provider's fixture catalog
type Adapter struct {
	provider types.Provider
	fixtures fixtureSet

	// Latency delays every call, for timeout and cancellation tests
	Latency time.Duration
}

// New creates a simulated adapter for a provider
func New(provider types.Provider) (*Adapter, error) {
	var fx fixtureSet
	switch provider {
	case types.ProviderAWS:
		fx = awsFixtures()
	case types.ProviderAzure:
		fx = azureFixtures()
	case types.ProviderGCP:
		fx = gcpFixtures()
	default:
		return nil, errors.Configuration("no fixture catalog for provider " + provider.String())
	}
	return &Adapter{provider: provider, fixtures: fx}, nil
}

// Provider returns the simulated provider
func (a *Adapter) Provider() types.Provider { return a.provider }

// SupportedRegions returns the fixture regions
func (a *Adapter) SupportedRegions() []string {
	return append([]string(nil), a.fixtures.regions...)
}

// wait simulates call latency while honoring cancellation
func (a *Adapter) wait(ctx context.Context) error {
	if a.Latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(a.Latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (a *Adapter) checkRegion(region types.Region) error {
	for _, r := range a.fixtures.regions {
		if r == string(region) {
			return nil
		}
	}
	return errors.Newf(errors.TypeNotFound, "region %s not supported by %s", region, a.provider).
		WithDetail("supported_regions", a.fixtures.regions)
}

func (a *Adapter) ListInstanceTypes(ctx context.Context, region types.Region) ([]types.VmInstanceType, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	if err := a.checkRegion(region); err != nil {
		return nil, err
	}
	out := make([]types.VmInstanceType, len(a.fixtures.instances))
	for i, it := range a.fixtures.instances {
		it.Region = region
		out[i] = it
	}
	return out, nil
}

func (a *Adapter) ListStorageOptions(ctx context.Context, storageType types.StorageType, region types.Region) ([]types.StorageOption, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	if err := a.checkRegion(region); err != nil {
		return nil, err
	}
	var out []types.StorageOption
	for _, opt := range a.fixtures.storage {
		if opt.StorageType != storageType {
			continue
		}
		opt.Region = region
		out = append(out, opt)
	}
	return out, nil
}

func (a *Adapter) ListNetworkOptions(ctx context.Context, serviceType types.NetworkServiceType, region types.Region) ([]types.NetworkOption, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	if err := a.checkRegion(region); err != nil {
		return nil, err
	}
	var out []types.NetworkOption
	for _, opt := range a.fixtures.network {
		if opt.ServiceType != serviceType {
			continue
		}
		opt.Region = region
		out = append(out, opt)
	}
	return out, nil
}

func (a *Adapter) GetComputeCosts(ctx context.Context, instanceType string, region types.Region, os types.OperatingSystem, purchase types.PurchaseOption) (cloud.CostBundle, error) {
	if err := a.wait(ctx); err != nil {
		return cloud.CostBundle{}, err
	}
	if err := a.checkRegion(region); err != nil {
		return cloud.CostBundle{}, err
	}
	hourly, ok := a.fixtures.hourlyRates[instanceType]
	if !ok {
		return cloud.CostBundle{}, errors.NotFound("instance type", instanceType)
	}
	if os == types.OSWindows {
		hourly = hourly.Mul(windowsSurcharge)
	}
	switch purchase {
	case types.PurchaseSpot:
		hourly = hourly.Mul(spotDiscount)
	case types.PurchaseReserved:
		hourly = hourly.Mul(reservedDiscount)
	}

	monthly := pricing.MonthlyFromHourly(hourly)
	hourlyMoney := types.NewMoney(hourly, types.CurrencyUSD)
	quantity := decimal.NewFromInt(types.HoursPerMonth)
	return cloud.CostBundle{
		MonthlyCost: types.NewMoney(monthly, types.CurrencyUSD),
		HourlyCost:  &hourlyMoney,
		Components: []types.CostComponent{{
			Name:        "compute",
			MonthlyCost: types.NewMoney(monthly, types.CurrencyUSD),
			HourlyCost:  &hourlyMoney,
			Unit:        "hours",
			Quantity:    &quantity,
		}},
	}, nil
}

func (a *Adapter) GetStorageCosts(ctx context.Context, q cloud.StorageCostQuery) (cloud.CostBundle, error) {
	if err := a.wait(ctx); err != nil {
		return cloud.CostBundle{}, err
	}
	if err := a.checkRegion(q.Region); err != nil {
		return cloud.CostBundle{}, err
	}

	option := a.storageOption(q)
	if option == "" {
		return cloud.CostBundle{}, errors.NotFound("storage option",
			fmt.Sprintf("%s/%s/%s", q.StorageType, q.StorageClass, q.Replication))
	}
	tiers := a.fixtures.storageRates[option]

	capacity := decimal.NewFromInt(int64(q.CapacityGB))
	base := pricing.TieredCost(capacity, tiers)
	components := []types.CostComponent{{
		Name:        "capacity",
		MonthlyCost: types.NewMoney(base, types.CurrencyUSD),
		Unit:        "GB-month",
		Quantity:    &capacity,
	}}
	total := base

	if q.IOPS > 0 && a.fixtures.iopsRate.Sign() > 0 {
		iops := decimal.NewFromInt(int64(q.IOPS))
		cost := iops.Mul(a.fixtures.iopsRate)
		components = append(components, types.CostComponent{
			Name:        "provisioned_iops",
			MonthlyCost: types.NewMoney(cost, types.CurrencyUSD),
			Unit:        "IOPS-month",
			Quantity:    &iops,
		})
		total = total.Add(cost)
	}
	if q.ThroughputMBps > 0 && a.fixtures.throughputRate.Sign() > 0 {
		tp := decimal.NewFromInt(int64(q.ThroughputMBps))
		cost := tp.Mul(a.fixtures.throughputRate)
		components = append(components, types.CostComponent{
			Name:        "provisioned_throughput",
			MonthlyCost: types.NewMoney(cost, types.CurrencyUSD),
			Unit:        "MBps-month",
			Quantity:    &tp,
		})
		total = total.Add(cost)
	}

	return cloud.CostBundle{
		MonthlyCost: types.NewMoney(total, types.CurrencyUSD),
		Components:  components,
	}, nil
}

// storageOption resolves a query to a fixture catalog option name
func (a *Adapter) storageOption(q cloud.StorageCostQuery) string {
	for _, opt := range a.fixtures.storage {
		if opt.StorageType != q.StorageType {
			continue
		}
		if q.StorageClass != "" && opt.StorageClass != q.StorageClass {
			continue
		}
		if q.Replication != "" && q.Replication != types.ReplicationNone && opt.Replication != q.Replication {
			continue
		}
		return opt.Name
	}
	return ""
}

func (a *Adapter) GetNetworkCosts(ctx context.Context, q cloud.NetworkCostQuery) (cloud.CostBundle, error) {
	if err := a.wait(ctx); err != nil {
		return cloud.CostBundle{}, err
	}
	if err := a.checkRegion(q.Region); err != nil {
		return cloud.CostBundle{}, err
	}

	name := q.OptionName
	if name == "" {
		for _, opt := range a.fixtures.network {
			if opt.ServiceType == q.ServiceType {
				name = opt.Name
				break
			}
		}
	}
	hourly, ok := a.fixtures.networkHourly[name]
	if !ok {
		return cloud.CostBundle{}, errors.NotFound("network option", name)
	}

	var components []types.CostComponent
	total := decimal.Zero

	if hourly.Sign() > 0 {
		monthly := pricing.MonthlyFromHourly(hourly)
		hourlyMoney := types.NewMoney(hourly, types.CurrencyUSD)
		quantity := decimal.NewFromInt(types.HoursPerMonth)
		components = append(components, types.CostComponent{
			Name:        "base",
			MonthlyCost: types.NewMoney(monthly, types.CurrencyUSD),
			HourlyCost:  &hourlyMoney,
			Unit:        "hours",
			Quantity:    &quantity,
		})
		total = total.Add(monthly)
	}

	if q.MonthlyDataTransferGB.Sign() > 0 {
		transfer := pricing.TieredCost(q.MonthlyDataTransferGB, a.fixtures.transferTiers)
		gb := q.MonthlyDataTransferGB
		components = append(components, types.CostComponent{
			Name:        "data_transfer",
			MonthlyCost: types.NewMoney(transfer, types.CurrencyUSD),
			Unit:        "GB",
			Quantity:    &gb,
		})
		total = total.Add(transfer)
	}

	if q.RPS > 0 && q.ServiceType == types.NetworkLoadBalancer {
		reqCost := pricing.RequestCost(q.RPS, a.fixtures.requestRate)
		monthlyRequests := decimal.NewFromInt(int64(q.RPS)).
			Mul(decimal.NewFromInt(types.SecondsPerMonth))
		components = append(components, types.CostComponent{
			Name:        "requests",
			MonthlyCost: types.NewMoney(reqCost, types.CurrencyUSD),
			Unit:        "requests",
			Quantity:    &monthlyRequests,
		})
		total = total.Add(reqCost)
	}

	return cloud.CostBundle{
		MonthlyCost: types.NewMoney(total, types.CurrencyUSD),
		Components:  components,
	}, nil
}

func (a *Adapter) GetPricingData(ctx context.Context, region types.Region, currency types.Currency) ([]types.PricingData, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	if err := a.checkRegion(region); err != nil {
		return nil, err
	}
	var out []types.PricingData
	for name, rate := range a.fixtures.hourlyRates {
		out = append(out, types.PricingData{
			Provider: a.provider,
			Region:   region,
			Service:  "compute",
			SKU:      name,
			Unit:     "hour",
			Price:    rate,
			Currency: currency,
		})
	}
	for name, tiers := range a.fixtures.storageRates {
		price := decimal.Zero
		if len(tiers) > 0 {
			price = tiers[0].Rate
		}
		out = append(out, types.PricingData{
			Provider: a.provider,
			Region:   region,
			Service:  "storage",
			SKU:      name,
			Unit:     "GB-month",
			Price:    price,
			Currency: currency,
			Tiers:    tiers,
		})
	}
	return out, nil
}

func (a *Adapter) GetResources(ctx context.Context, q cloud.ResourceQuery) ([]types.ResourceConfiguration, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	resources := a.syntheticResources()
	var out []types.ResourceConfiguration
	for _, r := range resources {
		if len(q.IDs) > 0 && !contains(q.IDs, r.ID) {
			continue
		}
		if len(q.Types) > 0 && !contains(q.Types, r.Type) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (a *Adapter) GetMetrics(ctx context.Context, resourceID string) (types.ResourceMetrics, error) {
	if err := a.wait(ctx); err != nil {
		return types.ResourceMetrics{}, err
	}
	for _, r := range a.syntheticResources() {
		if r.ID == resourceID {
			return types.ResourceMetrics{
				ResourceID:    resourceID,
				CPUPercent:    d("22.5"),
				MemoryPercent: d("41.0"),
				NetworkInGB:   d("120"),
				NetworkOutGB:  d("340"),
				SampledOver:   30 * 24 * time.Hour,
				CollectedAt:   time.Now().UTC(),
			}, nil
		}
	}
	return types.ResourceMetrics{}, errors.NotFound("resource", resourceID)
}

func (a *Adapter) GetCost(ctx context.Context, resourceID string) (types.ResourceCost, error) {
	if err := a.wait(ctx); err != nil {
		return types.ResourceCost{}, err
	}
	for _, r := range a.syntheticResources() {
		if r.ID == resourceID {
			hourly := a.fixtures.hourlyRates[fmt.Sprint(r.Properties["instance_type"])]
			monthly := pricing.MonthlyFromHourly(hourly)
			return types.ResourceCost{
				ResourceID:  resourceID,
				MonthlyCost: types.NewMoney(monthly, types.CurrencyUSD),
				Period:      "monthly",
				AsOf:        time.Now().UTC(),
			}, nil
		}
	}
	return types.ResourceCost{}, errors.NotFound("resource", resourceID)
}

func (a *Adapter) GetCapability(ctx context.Context, region types.Region) (types.ProviderCapability, error) {
	if err := a.wait(ctx); err != nil {
		return types.ProviderCapability{}, err
	}
	if err := a.checkRegion(region); err != nil {
		return types.ProviderCapability{}, err
	}
	cap := a.fixtures.capability
	cap.Region = region
	return cap, nil
}

// syntheticResources returns a small deployed-resource inventory so the
// recommendation paths have something to chew on in simulation mode.
func (a *Adapter) syntheticResources() []types.ResourceConfiguration {
	region := a.fixtures.regions[0]
	var instanceType string
	for _, it := range a.fixtures.instances {
		if it.VCPUs == 2 {
			instanceType = it.Name
			break
		}
	}
	return []types.ResourceConfiguration{
		{
			ID:       string(a.provider) + "-sim-vm-1",
			Provider: a.provider,
			Region:   types.Region(region),
			Type:     "vm",
			Name:     "web-1",
			State:    "running",
			Tags:     map[string]string{"environment": "production"},
			Properties: map[string]interface{}{
				"instance_type": instanceType,
			},
		},
		{
			ID:       string(a.provider) + "-sim-vol-1",
			Provider: a.provider,
			Region:   types.Region(region),
			Type:     "volume",
			Name:     "web-1-data",
			State:    "in-use",
			Properties: map[string]interface{}{
				"capacity_gb": 200,
			},
		},
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
