// Package gcp implements the adapter surface over the Cloud Billing
// Catalog API. Compute rates are composed from per-vCPU and per-GB-RAM
// SKUs; when the catalog is unreachable the adapter falls back to
// published component rates adjusted by a region multiplier.
package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
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

const (
	catalogBaseURL = "https://cloudbilling.googleapis.com/v1"

	// Compute Engine service ID in the billing catalog
	computeServiceID = "6F81-5844-456A"
)

// machineSpec carries the shape data for one machine type
type machineSpec struct {
	vcpus    int
	memoryGB string
	family   string
	burst    bool
}

var machineSpecs = map[string]machineSpec{
	"e2-small":       {vcpus: 2, memoryGB: "2", family: "e2", burst: true},
	"e2-medium":      {vcpus: 2, memoryGB: "4", family: "e2", burst: true},
	"e2-standard-2":  {vcpus: 2, memoryGB: "8", family: "e2"},
	"e2-standard-4":  {vcpus: 4, memoryGB: "16", family: "e2"},
	"n1-standard-2":  {vcpus: 2, memoryGB: "7.5", family: "n1"},
	"n1-standard-4":  {vcpus: 4, memoryGB: "15", family: "n1"},
	"n2-standard-2":  {vcpus: 2, memoryGB: "8", family: "n2"},
	"n2-standard-4":  {vcpus: 4, memoryGB: "16", family: "n2"},
	"n2-standard-8":  {vcpus: 8, memoryGB: "32", family: "n2"},
	"n2-highmem-2":   {vcpus: 2, memoryGB: "16", family: "n2"},
	"c2-standard-4":  {vcpus: 4, memoryGB: "16", family: "c2"},
	"n2-standard-16": {vcpus: 16, memoryGB: "64", family: "n2"},
}

// componentRates is the per-vCPU and per-GB-RAM hourly pricing for a family
type componentRates struct {
	cpuHourly decimal.Decimal
	ramHourly decimal.Decimal
}

// fallbackRates carries us-central1 component rates used when the
// billing catalog is unreachable.
var fallbackRates = map[string]componentRates{
	"e2": {cpuHourly: d("0.021811"), ramHourly: d("0.002923")},
	"n1": {cpuHourly: d("0.031611"), ramHourly: d("0.004237")},
	"n2": {cpuHourly: d("0.031611"), ramHourly: d("0.004237")},
	"c2": {cpuHourly: d("0.033980"), ramHourly: d("0.004554")},
}

// regionMultiplier adjusts fallback rates; unlisted regions use 1.0
var regionMultiplier = map[string]string{
	"us-central1":  "1.00",
	"us-east1":     "1.00",
	"us-west1":     "1.00",
	"europe-west1": "1.10",
	"europe-west3": "1.15",
	"asia-east1":   "1.10",
}

var gcpRegions = []string{
	"us-central1", "us-east1", "us-west1",
	"europe-west1", "europe-west3", "asia-east1",
}

// spotDiscount approximates the spot VM rate relative to on-demand
var spotDiscount = d("0.25")

// cudDiscount approximates a 1-year committed-use rate
var cudDiscount = d("0.63")

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Adapter talks to the live Cloud Billing Catalog API
type Adapter struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

// New creates a live GCP adapter. The billing catalog needs an API key,
// read from GOOGLE_API_KEY.
func New() (*Adapter, error) {
	return &Adapter{
		baseURL: catalogBaseURL,
		apiKey:  os.Getenv("GOOGLE_API_KEY"),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     logging.Named("gcp"),
	}, nil
}

func (a *Adapter) Provider() types.Provider { return types.ProviderGCP }

func (a *Adapter) SupportedRegions() []string {
	return append([]string(nil), gcpRegions...)
}

func (a *Adapter) checkRegion(region types.Region) error {
	for _, r := range gcpRegions {
		if r == string(region) {
			return nil
		}
	}
	return errors.Newf(errors.TypeNotFound, "unknown GCP region %s", region).
		WithDetail("supported_regions", gcpRegions)
}

// catalog API response shapes

type catalogSKU struct {
	SkuID          string   `json:"skuId"`
	Description    string   `json:"description"`
	ServiceRegions []string `json:"serviceRegions"`
	Category       struct {
		ResourceFamily string `json:"resourceFamily"`
		ResourceGroup  string `json:"resourceGroup"`
		UsageType      string `json:"usageType"`
	} `json:"category"`
	PricingInfo []struct {
		PricingExpression struct {
			UsageUnit   string `json:"usageUnit"`
			TieredRates []struct {
				StartUsageAmount float64 `json:"startUsageAmount"`
				UnitPrice        struct {
					CurrencyCode string `json:"currencyCode"`
					Units         string `json:"units"`
					Nanos         int64  `json:"nanos"`
				} `json:"unitPrice"`
			} `json:"tieredRates"`
		} `json:"pricingExpression"`
	} `json:"pricingInfo"`
}

type catalogResponse struct {
	Skus          []catalogSKU `json:"skus"`
	NextPageToken string       `json:"nextPageToken"`
}

// skuPrice extracts the first-tier rate of a SKU
func skuPrice(sku catalogSKU) decimal.Decimal {
	for _, info := range sku.PricingInfo {
		for _, tier := range info.PricingExpression.TieredRates {
			units := decimal.Zero
			if tier.UnitPrice.Units != "" {
				if v, err := decimal.NewFromString(tier.UnitPrice.Units); err == nil {
					units = v
				}
			}
			nanos := decimal.NewFromInt(tier.UnitPrice.Nanos).
				Div(decimal.NewFromInt(1_000_000_000))
			price := units.Add(nanos)
			if price.Sign() > 0 {
				return price
			}
		}
	}
	return decimal.Zero
}

// fetchComponentRates walks the compute catalog for the region's
// per-family CPU and RAM rates.
func (a *Adapter) fetchComponentRates(ctx context.Context, region types.Region) (map[string]componentRates, error) {
	const maxPages = 20
	rates := make(map[string]componentRates)
	pageToken := ""

	for page := 0; page < maxPages; page++ {
		url := fmt.Sprintf("%s/services/%s/skus?currencyCode=USD&pageSize=5000", a.baseURL, computeServiceID)
		if a.apiKey != "" {
			url += "&key=" + a.apiKey
		}
		if pageToken != "" {
			url += "&pageToken=" + pageToken
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errors.Wrap(errors.TypeInternal, "building billing catalog request", err)
		}
		resp, err := a.http.Do(req)
		if err != nil {
			return nil, errors.Wrap(errors.TypePricing, "querying GCP billing catalog", err).AsTransient()
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return nil, errors.Throttled("gcp", fmt.Errorf("status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, errors.Newf(errors.TypePricing, "billing catalog returned %d: %s", resp.StatusCode, string(body))
		}

		var cat catalogResponse
		if err := json.NewDecoder(resp.Body).Decode(&cat); err != nil {
			resp.Body.Close()
			return nil, errors.Wrap(errors.TypeParsing, "decoding billing catalog response", err)
		}
		resp.Body.Close()

		for _, sku := range cat.Skus {
			if sku.Category.ResourceFamily != "Compute" || sku.Category.UsageType != "OnDemand" {
				continue
			}
			if !skuServesRegion(sku, region) {
				continue
			}
			price := skuPrice(sku)
			if price.Sign() <= 0 {
				continue
			}
			family := familyFromResourceGroup(sku.Category.ResourceGroup)
			component := componentFromDescription(sku.Description)
			if family == "" || component == "" {
				continue
			}
			cr := rates[family]
			switch component {
			case "cpu":
				cr.cpuHourly = price
			case "ram":
				cr.ramHourly = price
			}
			rates[family] = cr
		}

		if cat.NextPageToken == "" {
			break
		}
		pageToken = cat.NextPageToken
	}
	return rates, nil
}

func skuServesRegion(sku catalogSKU, region types.Region) bool {
	for _, r := range sku.ServiceRegions {
		if r == string(region) || r == "global" {
			return true
		}
	}
	return false
}

// familyFromResourceGroup maps resource groups like "N2Standard" or
// "E2Standard" to the machine family prefix.
func familyFromResourceGroup(group string) string {
	lower := strings.ToLower(group)
	for family := range fallbackRates {
		if strings.HasPrefix(lower, family) {
			return family
		}
	}
	return ""
}

func componentFromDescription(desc string) string {
	lower := strings.ToLower(desc)
	switch {
	case strings.Contains(lower, "core") || strings.Contains(lower, "cpu"):
		return "cpu"
	case strings.Contains(lower, "ram") || strings.Contains(lower, "memory"):
		return "ram"
	}
	return ""
}

// componentRatesFor resolves live rates with static fallback
func (a *Adapter) componentRatesFor(ctx context.Context, region types.Region, family string) (componentRates, error) {
	live, err := a.fetchComponentRates(ctx, region)
	if err == nil {
		if cr, ok := live[family]; ok && cr.cpuHourly.Sign() > 0 && cr.ramHourly.Sign() > 0 {
			return cr, nil
		}
	} else if !errors.IsTransient(err) {
		a.log.Warn("billing catalog unavailable, using fallback component rates", zap.Error(err))
	} else {
		return componentRates{}, err
	}

	cr, ok := fallbackRates[family]
	if !ok {
		return componentRates{}, errors.NotFound("machine family", family)
	}
	mult := d("1.0")
	if m, ok := regionMultiplier[string(region)]; ok {
		mult = d(m)
	}
	return componentRates{
		cpuHourly: cr.cpuHourly.Mul(mult),
		ramHourly: cr.ramHourly.Mul(mult),
	}, nil
}

func (a *Adapter) ListInstanceTypes(ctx context.Context, region types.Region) ([]types.VmInstanceType, error) {
	if err := a.checkRegion(region); err != nil {
		return nil, err
	}
	var out []types.VmInstanceType
	for name, spec := range machineSpecs {
		out = append(out, types.VmInstanceType{
			Provider:     types.ProviderGCP,
			Region:       region,
			Name:         name,
			Family:       spec.family,
			VCPUs:        spec.vcpus,
			MemoryGB:     d(spec.memoryGB),
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
			Provider: types.ProviderGCP, Region: region, Name: "pd-ssd",
			StorageType: types.StorageTypeBlock, StorageClass: types.StorageClassPremium,
			Replication: types.ReplicationZonal, MinCapacityGB: 10, MaxCapacityGB: 65536,
		},
		{
			Provider: types.ProviderGCP, Region: region, Name: "pd-balanced",
			StorageType: types.StorageTypeBlock, StorageClass: types.StorageClassStandard,
			Replication: types.ReplicationZonal, MinCapacityGB: 10, MaxCapacityGB: 65536,
		},
		{
			Provider: types.ProviderGCP, Region: region, Name: "gcs-standard",
			StorageType: types.StorageTypeObject, StorageClass: types.StorageClassStandard,
			Replication: types.ReplicationRegional, CrossZone: true,
		},
		{
			Provider: types.ProviderGCP, Region: region, Name: "gcs-coldline",
			StorageType: types.StorageTypeObject, StorageClass: types.StorageClassCold,
			Replication: types.ReplicationRegional, CrossZone: true,
		},
		{
			Provider: types.ProviderGCP, Region: region, Name: "gcs-archive",
			StorageType: types.StorageTypeObject, StorageClass: types.StorageClassArchive,
			Replication: types.ReplicationRegional, CrossZone: true,
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
	{Provider: types.ProviderGCP, Name: "external-lb", ServiceType: types.NetworkLoadBalancer, LoadBalancerType: "application", CrossRegion: true},
	{Provider: types.ProviderGCP, Name: "internal-lb", ServiceType: types.NetworkLoadBalancer, LoadBalancerType: "network"},
	{Provider: types.ProviderGCP, Name: "cloud-nat", ServiceType: types.NetworkNATGateway},
	{Provider: types.ProviderGCP, Name: "cloud-vpn", ServiceType: types.NetworkVPN, VPNType: "site_to_site"},
	{Provider: types.ProviderGCP, Name: "network-connectivity-center", ServiceType: types.NetworkTransitGateway, CrossRegion: true},
	{Provider: types.ProviderGCP, Name: "cloud-dns", ServiceType: types.NetworkDNS, DNSType: "public"},
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

// windowsLicenseHourly approximates the per-vCPU Windows Server license rate
var windowsLicenseHourly = d("0.046")

func (a *Adapter) GetComputeCosts(ctx context.Context, instanceType string, region types.Region, os types.OperatingSystem, purchase types.PurchaseOption) (cloud.CostBundle, error) {
	if err := a.checkRegion(region); err != nil {
		return cloud.CostBundle{}, err
	}
	spec, ok := machineSpecs[instanceType]
	if !ok {
		return cloud.CostBundle{}, errors.NotFound("machine type", instanceType)
	}
	rates, err := a.componentRatesFor(ctx, region, spec.family)
	if err != nil {
		return cloud.CostBundle{}, err
	}

	hourly := rates.cpuHourly.Mul(decimal.NewFromInt(int64(spec.vcpus))).
		Add(rates.ramHourly.Mul(d(spec.memoryGB)))
	if os == types.OSWindows {
		hourly = hourly.Add(windowsLicenseHourly.Mul(decimal.NewFromInt(int64(spec.vcpus))))
	}
	switch purchase {
	case types.PurchaseSpot:
		hourly = hourly.Mul(spotDiscount)
	case types.PurchaseReserved:
		hourly = hourly.Mul(cudDiscount)
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

// storageMonthlyRates carries us-central1 GB-month list rates
var storageMonthlyRates = map[string]string{
	"pd-ssd":       "0.170",
	"pd-balanced":  "0.100",
	"gcs-standard": "0.020",
	"gcs-coldline": "0.004",
	"gcs-archive":  "0.0012",
}

func (a *Adapter) GetStorageCosts(ctx context.Context, q cloud.StorageCostQuery) (cloud.CostBundle, error) {
	if err := a.checkRegion(q.Region); err != nil {
		return cloud.CostBundle{}, err
	}

	var name string
	switch q.StorageType {
	case types.StorageTypeBlock:
		name = "pd-balanced"
		if q.StorageClass == types.StorageClassPremium {
			name = "pd-ssd"
		}
	case types.StorageTypeObject:
		switch q.StorageClass {
		case types.StorageClassCold:
			name = "gcs-coldline"
		case types.StorageClassArchive:
			name = "gcs-archive"
		default:
			name = "gcs-standard"
		}
	default:
		return cloud.CostBundle{}, errors.Newf(errors.TypeNotFound, "storage type %s has no GCP pricing", q.StorageType)
	}

	rate := d(storageMonthlyRates[name])
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

var networkHourlyUSD = map[string]string{
	"external-lb":                 "0.025",
	"internal-lb":                 "0.025",
	"cloud-nat":                   "0.044",
	"cloud-vpn":                   "0.05",
	"network-connectivity-center": "0.10",
	"cloud-dns":                   "0",
}

var transferTiers = []types.PricingTier{
	{Min: decimal.Zero, Max: decimal.NewFromInt(1024), Rate: d("0.12")},
	{Min: decimal.NewFromInt(1024), Max: decimal.NewFromInt(10240), Rate: d("0.11")},
	{Min: decimal.NewFromInt(10240), Max: decimal.Zero, Rate: d("0.08")},
}

var lbRequestRatePerMillion = d("0.008")

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
	hourly := d(rateStr)

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
		reqCost := costpricing.RequestCost(q.RPS, lbRequestRatePerMillion)
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
	rates, err := a.fetchComponentRates(ctx, region)
	if err != nil {
		return nil, err
	}
	var out []types.PricingData
	for family, cr := range rates {
		out = append(out, types.PricingData{
			Provider: types.ProviderGCP,
			Region:   region,
			Service:  "compute",
			SKU:      family + "-vcpu",
			Unit:     "vCPU-hour",
			Price:    cr.cpuHourly,
			Currency: currency,
		}, types.PricingData{
			Provider: types.ProviderGCP,
			Region:   region,
			Service:  "compute",
			SKU:      family + "-ram",
			Unit:     "GB-hour",
			Price:    cr.ramHourly,
			Currency: currency,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

// Inventory operations need Compute Engine and Monitoring credentials
// the billing-catalog build does not carry.

func (a *Adapter) GetResources(ctx context.Context, q cloud.ResourceQuery) ([]types.ResourceConfiguration, error) {
	return nil, errors.Configuration("GCP inventory requires Compute Engine credentials; use simulation mode")
}

func (a *Adapter) GetMetrics(ctx context.Context, resourceID string) (types.ResourceMetrics, error) {
	return types.ResourceMetrics{}, errors.Configuration("GCP metrics require Cloud Monitoring credentials; use simulation mode")
}

func (a *Adapter) GetCost(ctx context.Context, resourceID string) (types.ResourceCost, error) {
	return types.ResourceCost{}, errors.Configuration("GCP cost queries require billing export credentials; use simulation mode")
}

func (a *Adapter) GetCapability(ctx context.Context, region types.Region) (types.ProviderCapability, error) {
	if err := a.checkRegion(region); err != nil {
		return types.ProviderCapability{}, err
	}
	return types.ProviderCapability{
		Provider:        types.ProviderGCP,
		Region:          region,
		AvailabilitySLA: d("99.95"),
		Features: []string{
			"auto_scaling", "spot_instances", "managed_kubernetes",
			"object_lifecycle", "private_networking", "encryption_at_rest",
			"live_migration",
		},
		Certifications:       []string{"ISO27001", "SOC2", "PCI-DSS"},
		ComplianceFrameworks: []string{"HIPAA", "GDPR", "SOC2"},
		Performance: types.PerformanceScore{
			Latency: 0.89, Throughput: 0.91, Reliability: 0.94, Scalability: 0.96,
		},
	}, nil
}

var _ cloud.Adapter = (*Adapter)(nil)
