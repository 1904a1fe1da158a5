// Package azure implements the adapter surface over the Azure Retail
// Prices API. The retail endpoint is unauthenticated, so the live
// adapter covers pricing and catalog queries; deployed-inventory
// operations need ARM credentials and are not part of this build.
package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cloudcost/adapters/cloud"
	costpricing "cloudcost/core/pricing"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
	"cloudcost/internal/logging"
)

const retailPricesURL = "https://prices.azure.com/api/retail/prices"

// retailItem is one row of the Retail Prices API response
type retailItem struct {
	CurrencyCode    string  `json:"currencyCode"`
	RetailPrice     float64 `json:"retailPrice"`
	UnitPrice       float64 `json:"unitPrice"`
	ArmRegionName   string  `json:"armRegionName"`
	MeterName       string  `json:"meterName"`
	ProductName     string  `json:"productName"`
	SkuName         string  `json:"skuName"`
	ServiceName     string  `json:"serviceName"`
	ServiceFamily   string  `json:"serviceFamily"`
	UnitOfMeasure   string  `json:"unitOfMeasure"`
	ArmSkuName      string  `json:"armSkuName"`
	Type            string  `json:"type"`
	ReservationTerm string  `json:"reservationTerm"`
}

type retailResponse struct {
	Items        []retailItem `json:"Items"`
	NextPageLink string       `json:"NextPageLink"`
}

// vmSpec carries the shape data the retail API does not expose
type vmSpec struct {
	vcpus    int
	memoryGB string
	family   string
	burst    bool
}

// vmSpecs covers the general-purpose sizes the comparison paths target
var vmSpecs = map[string]vmSpec{
	"Standard_B2s":     {vcpus: 2, memoryGB: "4", family: "B", burst: true},
	"Standard_B2ms":    {vcpus: 2, memoryGB: "8", family: "B", burst: true},
	"Standard_B4ms":    {vcpus: 4, memoryGB: "16", family: "B", burst: true},
	"Standard_D2s_v5":  {vcpus: 2, memoryGB: "8", family: "Dsv5"},
	"Standard_D4s_v5":  {vcpus: 4, memoryGB: "16", family: "Dsv5"},
	"Standard_D8s_v5":  {vcpus: 8, memoryGB: "32", family: "Dsv5"},
	"Standard_E2s_v5":  {vcpus: 2, memoryGB: "16", family: "Esv5"},
	"Standard_E4s_v5":  {vcpus: 4, memoryGB: "32", family: "Esv5"},
	"Standard_F2s_v2":  {vcpus: 2, memoryGB: "4", family: "Fsv2"},
	"Standard_F4s_v2":  {vcpus: 4, memoryGB: "8", family: "Fsv2"},
	"Standard_D16s_v5": {vcpus: 16, memoryGB: "64", family: "Dsv5"},
}

var azureRegions = []string{
	"eastus", "eastus2", "westus2", "westus3", "centralus",
	"westeurope", "northeurope", "uksouth", "francecentral",
	"southeastasia", "japaneast", "australiaeast", "brazilsouth",
}

// Adapter talks to the live Retail Prices API
type Adapter struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// New creates a live Azure adapter
func New() (*Adapter, error) {
	return &Adapter{
		baseURL: retailPricesURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     logging.Named("azure"),
	}, nil
}

func (a *Adapter) Provider() types.Provider { return types.ProviderAzure }

func (a *Adapter) SupportedRegions() []string {
	return append([]string(nil), azureRegions...)
}

func (a *Adapter) checkRegion(region types.Region) error {
	for _, r := range azureRegions {
		if r == string(region) {
			return nil
		}
	}
	return errors.Newf(errors.TypeNotFound, "unknown Azure region %s", region).
		WithDetail("supported_regions", azureRegions)
}

// query pages through the retail API for one OData filter
func (a *Adapter) query(ctx context.Context, filter string, maxItems int) ([]retailItem, error) {
	params := url.Values{}
	params.Add("$filter", filter)
	next := a.baseURL + "?" + params.Encode()

	var items []retailItem
	for next != "" && (maxItems == 0 || len(items) < maxItems) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, errors.Wrap(errors.TypeInternal, "building retail prices request", err)
		}
		resp, err := a.http.Do(req)
		if err != nil {
			return nil, errors.Wrap(errors.TypePricing, "querying Azure retail prices", err).AsTransient()
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return nil, errors.Throttled("azure", fmt.Errorf("status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, errors.Newf(errors.TypePricing, "retail prices API returned %d: %s", resp.StatusCode, string(body))
		}

		var page retailResponse
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			resp.Body.Close()
			return nil, errors.Wrap(errors.TypeParsing, "decoding retail prices response", err)
		}
		resp.Body.Close()

		items = append(items, page.Items...)
		next = page.NextPageLink
	}
	return items, nil
}

func (a *Adapter) ListInstanceTypes(ctx context.Context, region types.Region) ([]types.VmInstanceType, error) {
	if err := a.checkRegion(region); err != nil {
		return nil, err
	}
	var out []types.VmInstanceType
	for name, spec := range vmSpecs {
		out = append(out, types.VmInstanceType{
			Provider:     types.ProviderAzure,
			Region:       region,
			Name:         name,
			Family:       spec.family,
			VCPUs:        spec.vcpus,
			MemoryGB:     decimal.RequireFromString(spec.memoryGB),
			BurstCapable: spec.burst,
			SupportedOS:  []types.OperatingSystem{types.OSLinux, types.OSWindows},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (a *Adapter) ListStorageOptions(ctx context.Context, storageType types.StorageType, region types.Region) ([]types.StorageOption, error) {
	if err := a.checkRegion(region); err != nil {
		return nil, err
	}
	options := []types.StorageOption{
		{
			Provider: types.ProviderAzure, Region: region, Name: "premium-ssd",
			StorageType: types.StorageTypeBlock, StorageClass: types.StorageClassPremium,
			Replication: types.ReplicationLocal, MinCapacityGB: 4, MaxCapacityGB: 32767,
		},
		{
			Provider: types.ProviderAzure, Region: region, Name: "standard-ssd",
			StorageType: types.StorageTypeBlock, StorageClass: types.StorageClassStandard,
			Replication: types.ReplicationLocal, MinCapacityGB: 4, MaxCapacityGB: 32767,
		},
		{
			Provider: types.ProviderAzure, Region: region, Name: "blob-hot",
			StorageType: types.StorageTypeObject, StorageClass: types.StorageClassStandard,
			Replication: types.ReplicationZonal, CrossZone: true,
		},
		{
			Provider: types.ProviderAzure, Region: region, Name: "blob-cool",
			StorageType: types.StorageTypeObject, StorageClass: types.StorageClassCold,
			Replication: types.ReplicationZonal, CrossZone: true,
		},
		{
			Provider: types.ProviderAzure, Region: region, Name: "blob-archive",
			StorageType: types.StorageTypeObject, StorageClass: types.StorageClassArchive,
			Replication: types.ReplicationZonal, CrossZone: true,
		},
	}
	var out []types.StorageOption
	for _, opt := range options {
		if opt.StorageType == storageType {
			out = append(out, opt)
		}
	}
	return out, nil
}

var networkCatalog = []types.NetworkOption{
	{Provider: types.ProviderAzure, Name: "standard-load-balancer", ServiceType: types.NetworkLoadBalancer, LoadBalancerType: "network", CrossZone: true},
	{Provider: types.ProviderAzure, Name: "application-gateway", ServiceType: types.NetworkLoadBalancer, LoadBalancerType: "application", CrossZone: true},
	{Provider: types.ProviderAzure, Name: "nat-gateway", ServiceType: types.NetworkNATGateway},
	{Provider: types.ProviderAzure, Name: "vpn-gateway", ServiceType: types.NetworkVPN, VPNType: "site_to_site"},
	{Provider: types.ProviderAzure, Name: "virtual-wan", ServiceType: types.NetworkTransitGateway, CrossRegion: true},
	{Provider: types.ProviderAzure, Name: "azure-dns", ServiceType: types.NetworkDNS, DNSType: "public"},
}

func (a *Adapter) ListNetworkOptions(ctx context.Context, serviceType types.NetworkServiceType, region types.Region) ([]types.NetworkOption, error) {
	if err := a.checkRegion(region); err != nil {
		return nil, err
	}
	var out []types.NetworkOption
	for _, opt := range networkCatalog {
		if opt.ServiceType != serviceType {
			continue
		}
		opt.Region = region
		out = append(out, opt)
	}
	return out, nil
}

func (a *Adapter) GetComputeCosts(ctx context.Context, instanceType string, region types.Region, os types.OperatingSystem, purchase types.PurchaseOption) (cloud.CostBundle, error) {
	if err := a.checkRegion(region); err != nil {
		return cloud.CostBundle{}, err
	}

	filter := fmt.Sprintf(
		"serviceName eq 'Virtual Machines' and armRegionName eq '%s' and armSkuName eq '%s' and priceType eq 'Consumption'",
		region, instanceType)
	items, err := a.query(ctx, filter, 200)
	if err != nil {
		return cloud.CostBundle{}, err
	}

	hourly, found := pickConsumptionRate(items, os, purchase)
	if !found {
		return cloud.CostBundle{}, errors.NotFound("instance type", instanceType)
	}

	monthly := costpricing.MonthlyFromHourly(hourly)
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

// pickConsumptionRate selects the meter matching the OS and purchase
// model. Windows meters carry "Windows" in the product name; spot and
// low-priority meters carry it in the meter name.
func pickConsumptionRate(items []retailItem, os types.OperatingSystem, purchase types.PurchaseOption) (decimal.Decimal, bool) {
	wantWindows := os == types.OSWindows
	wantSpot := purchase == types.PurchaseSpot
	for _, item := range items {
		isWindows := containsFold(item.ProductName, "Windows")
		isSpot := containsFold(item.MeterName, "Spot")
		isLowPriority := containsFold(item.MeterName, "Low Priority")
		if isWindows != wantWindows {
			continue
		}
		if wantSpot != isSpot {
			continue
		}
		if !wantSpot && isLowPriority {
			continue
		}
		if item.RetailPrice <= 0 {
			continue
		}
		return decimal.NewFromFloat(item.RetailPrice), true
	}
	return decimal.Zero, false
}

func (a *Adapter) GetStorageCosts(ctx context.Context, q cloud.StorageCostQuery) (cloud.CostBundle, error) {
	if err := a.checkRegion(q.Region); err != nil {
		return cloud.CostBundle{}, err
	}

	var filter string
	switch q.StorageType {
	case types.StorageTypeBlock:
		product := "Standard SSD Managed Disks"
		if q.StorageClass == types.StorageClassPremium {
			product = "Premium SSD Managed Disks"
		}
		filter = fmt.Sprintf(
			"serviceName eq 'Storage' and armRegionName eq '%s' and productName eq '%s' and priceType eq 'Consumption'",
			q.Region, product)
	case types.StorageTypeObject:
		tier := "Hot"
		switch q.StorageClass {
		case types.StorageClassCold:
			tier = "Cool"
		case types.StorageClassArchive:
			tier = "Archive"
		}
		filter = fmt.Sprintf(
			"serviceName eq 'Storage' and armRegionName eq '%s' and skuName eq '%s' and contains(productName, 'Block Blob') and priceType eq 'Consumption'",
			q.Region, tier)
	default:
		return cloud.CostBundle{}, errors.Newf(errors.TypeNotFound, "storage type %s has no Azure pricing", q.StorageType)
	}

	items, err := a.query(ctx, filter, 200)
	if err != nil {
		return cloud.CostBundle{}, err
	}
	rate, found := pickGBMonthRate(items)
	if !found {
		return cloud.CostBundle{}, errors.NotFound("storage pricing", string(q.StorageType))
	}

	capacity := decimal.NewFromInt(int64(q.CapacityGB))
	total := capacity.Mul(rate)
	return cloud.CostBundle{
		MonthlyCost: types.NewMoney(total, types.CurrencyUSD),
		Components: []types.CostComponent{{
			Name:        "capacity",
			MonthlyCost: types.NewMoney(total, types.CurrencyUSD),
			Unit:        "GB-month",
			Quantity:    &capacity,
		}},
	}, nil
}

// pickGBMonthRate finds a per-GB-month meter in the result set
func pickGBMonthRate(items []retailItem) (decimal.Decimal, bool) {
	for _, item := range items {
		if !containsFold(item.UnitOfMeasure, "GB") {
			continue
		}
		if item.RetailPrice <= 0 {
			continue
		}
		return decimal.NewFromFloat(item.RetailPrice), true
	}
	return decimal.Zero, false
}

// networkHourlyUSD carries eastus list rates for network services; the
// retail API meter layout for networking is too irregular to query
// reliably per service.
var networkHourlyUSD = map[string]string{
	"standard-load-balancer": "0.025",
	"application-gateway":    "0.0225",
	"nat-gateway":            "0.045",
	"vpn-gateway":            "0.04",
	"virtual-wan":            "0.25",
	"azure-dns":              "0",
}

var transferTiers = []types.PricingTier{
	{Min: decimal.Zero, Max: decimal.NewFromInt(100), Rate: decimal.Zero},
	{Min: decimal.NewFromInt(100), Max: decimal.NewFromInt(10240), Rate: decimal.RequireFromString("0.087")},
	{Min: decimal.NewFromInt(10240), Max: decimal.Zero, Rate: decimal.RequireFromString("0.083")},
}

var lbRulesRatePerMillion = decimal.RequireFromString("0.005")

func (a *Adapter) GetNetworkCosts(ctx context.Context, q cloud.NetworkCostQuery) (cloud.CostBundle, error) {
	if err := a.checkRegion(q.Region); err != nil {
		return cloud.CostBundle{}, err
	}
	name := q.OptionName
	if name == "" {
		for _, opt := range networkCatalog {
			if opt.ServiceType == q.ServiceType {
				name = opt.Name
				break
			}
		}
	}
	rateStr, ok := networkHourlyUSD[name]
	if !ok {
		return cloud.CostBundle{}, errors.NotFound("network option", name)
	}
	hourly := decimal.RequireFromString(rateStr)

	var components []types.CostComponent
	total := decimal.Zero

	if hourly.Sign() > 0 {
		monthly := costpricing.MonthlyFromHourly(hourly)
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
		transfer := costpricing.TieredCost(q.MonthlyDataTransferGB, transferTiers)
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
		reqCost := costpricing.RequestCost(q.RPS, lbRulesRatePerMillion)
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
	if err := a.checkRegion(region); err != nil {
		return nil, err
	}
	filter := fmt.Sprintf(
		"serviceName eq 'Virtual Machines' and armRegionName eq '%s' and priceType eq 'Consumption'",
		region)
	items, err := a.query(ctx, filter, 1000)
	if err != nil {
		return nil, err
	}
	var out []types.PricingData
	for _, item := range items {
		if item.ArmSkuName == "" || item.RetailPrice <= 0 {
			continue
		}
		out = append(out, types.PricingData{
			Provider: types.ProviderAzure,
			Region:   region,
			Service:  "compute",
			SKU:      item.ArmSkuName,
			Unit:     item.UnitOfMeasure,
			Price:    decimal.NewFromFloat(item.RetailPrice),
			Currency: currency,
			Attributes: map[string]string{
				"meter_name":   item.MeterName,
				"product_name": item.ProductName,
				"sku_name":     item.SkuName,
			},
		})
	}
	return out, nil
}

// Inventory operations need ARM credentials the retail-price build does
// not carry. Simulation mode serves synthetic inventories instead.

func (a *Adapter) GetResources(ctx context.Context, q cloud.ResourceQuery) ([]types.ResourceConfiguration, error) {
	return nil, errors.Configuration("Azure inventory requires Resource Manager credentials; use simulation mode")
}

func (a *Adapter) GetMetrics(ctx context.Context, resourceID string) (types.ResourceMetrics, error) {
	return types.ResourceMetrics{}, errors.Configuration("Azure metrics require Monitor credentials; use simulation mode")
}

func (a *Adapter) GetCost(ctx context.Context, resourceID string) (types.ResourceCost, error) {
	return types.ResourceCost{}, errors.Configuration("Azure cost queries require Cost Management credentials; use simulation mode")
}

func (a *Adapter) GetCapability(ctx context.Context, region types.Region) (types.ProviderCapability, error) {
	if err := a.checkRegion(region); err != nil {
		return types.ProviderCapability{}, err
	}
	return types.ProviderCapability{
		Provider:        types.ProviderAzure,
		Region:          region,
		AvailabilitySLA: decimal.RequireFromString("99.95"),
		Features: []string{
			"auto_scaling", "spot_instances", "managed_kubernetes",
			"object_lifecycle", "private_networking", "encryption_at_rest",
		},
		Certifications:       []string{"ISO27001", "SOC2", "PCI-DSS"},
		ComplianceFrameworks: []string{"HIPAA", "GDPR", "SOC2", "PCI-DSS"},
		Performance: types.PerformanceScore{
			Latency: 0.88, Throughput: 0.90, Reliability: 0.93, Scalability: 0.93,
		},
	}, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

var _ cloud.Adapter = (*Adapter)(nil)
