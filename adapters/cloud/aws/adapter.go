// Package aws implements the adapter surface over the AWS Price List
// API for pricing and catalog queries, EC2 for inventory, CloudWatch
// for utilization, and Cost Explorer for observed cost.
package aws

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	pricingtypes "github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cloudcost/adapters/cloud"
	costpricing "cloudcost/core/pricing"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
	"cloudcost/internal/logging"
)

// The Price List API is only served from us-east-1 and ap-south-1.
const pricingRegion = "us-east-1"

// regionToLocation maps region codes to the location names the Price
// List API filters on.
var regionToLocation = map[string]string{
	"us-east-1":      "US East (N. Virginia)",
	"us-east-2":      "US East (Ohio)",
	"us-west-1":      "US West (N. California)",
	"us-west-2":      "US West (Oregon)",
	"eu-west-1":      "EU (Ireland)",
	"eu-west-2":      "EU (London)",
	"eu-central-1":   "EU (Frankfurt)",
	"eu-north-1":     "EU (Stockholm)",
	"ap-southeast-1": "Asia Pacific (Singapore)",
	"ap-southeast-2": "Asia Pacific (Sydney)",
	"ap-northeast-1": "Asia Pacific (Tokyo)",
	"ap-south-1":     "Asia Pacific (Mumbai)",
	"ca-central-1":   "Canada (Central)",
	"sa-east-1":      "South America (Sao Paulo)",
}

// Adapter talks to live AWS APIs
type Adapter struct {
	pricing *pricing.Client
	ec2     *ec2.Client
	cw      *cloudwatch.Client
	ce      *costexplorer.Client
	log     *zap.Logger
}

// New builds a live AWS adapter from the ambient credential chain and
// validates Price List API access with a probe call.
func New(ctx context.Context) (*Adapter, error) {
	pcfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(pricingRegion))
	if err != nil {
		return nil, errors.Wrap(errors.TypeConfiguration, "loading AWS configuration", err)
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.TypeConfiguration, "loading AWS configuration", err)
	}

	a := &Adapter{
		pricing: pricing.NewFromConfig(pcfg),
		ec2:     ec2.NewFromConfig(cfg),
		cw:      cloudwatch.NewFromConfig(cfg),
		ce:      costexplorer.NewFromConfig(pcfg),
		log:     logging.Named("aws"),
	}

	_, err = a.pricing.DescribeServices(ctx, &pricing.DescribeServicesInput{
		ServiceCode: awssdk.String("AmazonEC2"),
		MaxResults:  awssdk.Int32(1),
	})
	if err != nil {
		return nil, errors.Wrap(errors.TypeAuthentication, "AWS credentials missing or lacking Price List access", err)
	}
	return a, nil
}

func (a *Adapter) Provider() types.Provider { return types.ProviderAWS }

func (a *Adapter) SupportedRegions() []string {
	out := make([]string, 0, len(regionToLocation))
	for r := range regionToLocation {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

func location(region types.Region) (string, error) {
	loc, ok := regionToLocation[string(region)]
	if !ok {
		return "", errors.Newf(errors.TypeNotFound, "unknown AWS region %s", region)
	}
	return loc, nil
}

func termFilter(field, value string) pricingtypes.Filter {
	return pricingtypes.Filter{
		Type:  pricingtypes.FilterTypeTermMatch,
		Field: awssdk.String(field),
		Value: awssdk.String(value),
	}
}

func (a *Adapter) getProducts(ctx context.Context, serviceCode string, filters []pricingtypes.Filter, maxPages int) ([]string, error) {
	var all []string
	var next *string
	for page := 0; page < maxPages; page++ {
		out, err := a.pricing.GetProducts(ctx, &pricing.GetProductsInput{
			ServiceCode: awssdk.String(serviceCode),
			Filters:     filters,
			MaxResults:  awssdk.Int32(100),
			NextToken:   next,
		})
		if err != nil {
			return nil, errors.Wrap(errors.TypePricing, "querying AWS Price List", err).AsTransient()
		}
		all = append(all, out.PriceList...)
		if out.NextToken == nil || *out.NextToken == "" {
			break
		}
		next = out.NextToken
	}
	return all, nil
}

func osFilterValue(os types.OperatingSystem) string {
	if os == types.OSWindows {
		return "Windows"
	}
	return "Linux"
}

func (a *Adapter) ListInstanceTypes(ctx context.Context, region types.Region) ([]types.VmInstanceType, error) {
	loc, err := location(region)
	if err != nil {
		return nil, err
	}
	products, err := a.getProducts(ctx, "AmazonEC2", []pricingtypes.Filter{
		termFilter("productFamily", "Compute Instance"),
		termFilter("location", loc),
		termFilter("operatingSystem", "Linux"),
		termFilter("tenancy", "Shared"),
		termFilter("preInstalledSw", "NA"),
		termFilter("capacitystatus", "Used"),
		termFilter("currentGeneration", "Yes"),
	}, 5)
	if err != nil {
		return nil, err
	}

	var out []types.VmInstanceType
	seen := make(map[string]bool)
	for _, raw := range products {
		doc, err := parsePriceDocument(raw)
		if err != nil {
			continue
		}
		name := doc.attributes["instanceType"]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		vcpus, _ := strconv.Atoi(doc.attributes["vcpu"])
		memory := parseMemoryGB(doc.attributes["memory"])
		out = append(out, types.VmInstanceType{
			Provider:    types.ProviderAWS,
			Name:        name,
			Region:      region,
			VCPUs:       vcpus,
			MemoryGB:    memory,
			Family:      strings.SplitN(name, ".", 2)[0],
			NetworkGbps: parseNetworkGbps(doc.attributes["networkPerformance"]),
			SupportedOS: []types.OperatingSystem{types.OSLinux, types.OSWindows},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (a *Adapter) ListStorageOptions(ctx context.Context, storageType types.StorageType, region types.Region) ([]types.StorageOption, error) {
	loc, err := location(region)
	if err != nil {
		return nil, err
	}
	switch storageType {
	case types.StorageTypeBlock:
		products, err := a.getProducts(ctx, "AmazonEC2", []pricingtypes.Filter{
			termFilter("productFamily", "Storage"),
			termFilter("location", loc),
		}, 2)
		if err != nil {
			return nil, err
		}
		var out []types.StorageOption
		seen := make(map[string]bool)
		for _, raw := range products {
			doc, err := parsePriceDocument(raw)
			if err != nil {
				continue
			}
			name := doc.attributes["volumeApiName"]
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, types.StorageOption{
				Provider:      types.ProviderAWS,
				Name:          name,
				Region:        region,
				StorageType:   types.StorageTypeBlock,
				StorageClass:  types.StorageClassStandard,
				Replication:   types.ReplicationZonal,
				MinCapacityGB: 1,
				MaxCapacityGB: 65536,
			})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out, nil

	case types.StorageTypeObject:
		products, err := a.getProducts(ctx, "AmazonS3", []pricingtypes.Filter{
			termFilter("productFamily", "Storage"),
			termFilter("location", loc),
		}, 2)
		if err != nil {
			return nil, err
		}
		var out []types.StorageOption
		seen := make(map[string]bool)
		for _, raw := range products {
			doc, err := parsePriceDocument(raw)
			if err != nil {
				continue
			}
			class := doc.attributes["storageClass"]
			if class == "" || seen[class] {
				continue
			}
			seen[class] = true
			out = append(out, types.StorageOption{
				Provider:     types.ProviderAWS,
				Name:         "s3-" + strings.ToLower(strings.ReplaceAll(class, " ", "-")),
				Region:       region,
				StorageType:  types.StorageTypeObject,
				StorageClass: mapS3Class(class),
				Replication:  types.ReplicationRegional,
				CrossZone:    true,
			})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out, nil
	}
	return nil, errors.Newf(errors.TypeNotFound, "storage type %s has no AWS catalog", storageType)
}

func mapS3Class(class string) types.StorageClass {
	switch {
	case strings.Contains(class, "Infrequent"):
		return types.StorageClassCold
	case strings.Contains(class, "Glacier"), strings.Contains(class, "Archive"):
		return types.StorageClassArchive
	default:
		return types.StorageClassStandard
	}
}

// networkCatalog is static metadata; the Price List network product
// families are too irregular to enumerate reliably.
var networkCatalog = []types.NetworkOption{
	{Provider: types.ProviderAWS, Name: "alb", ServiceType: types.NetworkLoadBalancer, LoadBalancerType: "application", CrossZone: true},
	{Provider: types.ProviderAWS, Name: "nlb", ServiceType: types.NetworkLoadBalancer, LoadBalancerType: "network", CrossZone: true},
	{Provider: types.ProviderAWS, Name: "nat-gateway", ServiceType: types.NetworkNATGateway},
	{Provider: types.ProviderAWS, Name: "site-to-site-vpn", ServiceType: types.NetworkVPN, VPNType: "site-to-site"},
	{Provider: types.ProviderAWS, Name: "transit-gateway", ServiceType: types.NetworkTransitGateway, CrossRegion: true},
	{Provider: types.ProviderAWS, Name: "route53", ServiceType: types.NetworkDNS, DNSType: "authoritative"},
}

// networkHourlyUSD carries us-east-1 rates used when the Price List
// lookup returns nothing for a network service.
var networkHourlyUSD = map[string]string{
	"alb":              "0.0225",
	"nlb":              "0.0225",
	"nat-gateway":      "0.045",
	"site-to-site-vpn": "0.05",
	"transit-gateway":  "0.05",
	"route53":          "0",
}

func (a *Adapter) ListNetworkOptions(ctx context.Context, serviceType types.NetworkServiceType, region types.Region) ([]types.NetworkOption, error) {
	if _, err := location(region); err != nil {
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
	if purchase != "" && purchase != types.PurchaseOnDemand {
		return cloud.CostBundle{}, errors.Newf(errors.TypeConfiguration,
			"the Price List API exposes on-demand rates only; %s pricing is unavailable live", purchase)
	}
	loc, err := location(region)
	if err != nil {
		return cloud.CostBundle{}, err
	}
	products, err := a.getProducts(ctx, "AmazonEC2", []pricingtypes.Filter{
		termFilter("instanceType", instanceType),
		termFilter("location", loc),
		termFilter("operatingSystem", osFilterValue(os)),
		termFilter("tenancy", "Shared"),
		termFilter("preInstalledSw", "NA"),
		termFilter("capacitystatus", "Used"),
	}, 1)
	if err != nil {
		return cloud.CostBundle{}, err
	}
	if len(products) == 0 {
		return cloud.CostBundle{}, errors.NotFound("instance type", instanceType)
	}
	doc, err := parsePriceDocument(products[0])
	if err != nil {
		return cloud.CostBundle{}, err
	}

	hourly := doc.hourlyUSD
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

// gp3 allowances included in the base GB-month rate
var (
	gp3FreeIOPS       = 3000
	gp3FreeThroughput = 125
)

func (a *Adapter) GetStorageCosts(ctx context.Context, q cloud.StorageCostQuery) (cloud.CostBundle, error) {
	loc, err := location(q.Region)
	if err != nil {
		return cloud.CostBundle{}, err
	}

	var filters []pricingtypes.Filter
	serviceCode := "AmazonEC2"
	volumeType := storageQueryVolume(q)
	switch q.StorageType {
	case types.StorageTypeBlock:
		filters = []pricingtypes.Filter{
			termFilter("productFamily", "Storage"),
			termFilter("location", loc),
			termFilter("volumeApiName", volumeType),
		}
	case types.StorageTypeObject:
		serviceCode = "AmazonS3"
		filters = []pricingtypes.Filter{
			termFilter("productFamily", "Storage"),
			termFilter("location", loc),
			termFilter("storageClass", s3ClassFilter(q.StorageClass)),
		}
	default:
		return cloud.CostBundle{}, errors.Newf(errors.TypeNotFound, "storage type %s has no AWS pricing", q.StorageType)
	}

	products, err := a.getProducts(ctx, serviceCode, filters, 1)
	if err != nil {
		return cloud.CostBundle{}, err
	}
	if len(products) == 0 {
		return cloud.CostBundle{}, errors.NotFound("storage pricing", volumeType)
	}
	doc, err := parsePriceDocument(products[0])
	if err != nil {
		return cloud.CostBundle{}, err
	}

	capacity := decimal.NewFromInt(int64(q.CapacityGB))
	base := capacity.Mul(doc.hourlyUSD)
	components := []types.CostComponent{{
		Name:        "capacity",
		MonthlyCost: types.NewMoney(base, types.CurrencyUSD),
		Unit:        "GB-month",
		Quantity:    &capacity,
	}}
	total := base

	if q.StorageType == types.StorageTypeBlock {
		iopsRate, tpRate := ebsProvisionedRates(volumeType)
		billableIOPS := q.IOPS
		billableTP := q.ThroughputMBps
		if volumeType == "gp3" {
			billableIOPS -= gp3FreeIOPS
			billableTP -= gp3FreeThroughput
		}
		if billableIOPS > 0 && iopsRate.Sign() > 0 {
			iops := decimal.NewFromInt(int64(billableIOPS))
			cost := iops.Mul(iopsRate)
			components = append(components, types.CostComponent{
				Name:        "provisioned_iops",
				MonthlyCost: types.NewMoney(cost, types.CurrencyUSD),
				Unit:        "IOPS-month",
				Quantity:    &iops,
			})
			total = total.Add(cost)
		}
		if billableTP > 0 && tpRate.Sign() > 0 {
			tp := decimal.NewFromInt(int64(billableTP))
			cost := tp.Mul(tpRate)
			components = append(components, types.CostComponent{
				Name:        "provisioned_throughput",
				MonthlyCost: types.NewMoney(cost, types.CurrencyUSD),
				Unit:        "MBps-month",
				Quantity:    &tp,
			})
			total = total.Add(cost)
		}
	}

	return cloud.CostBundle{
		MonthlyCost: types.NewMoney(total, types.CurrencyUSD),
		Components:  components,
	}, nil
}

func storageQueryVolume(q cloud.StorageCostQuery) string {
	if q.IOPS > 16000 {
		return "io2"
	}
	return "gp3"
}

func s3ClassFilter(class types.StorageClass) string {
	switch class {
	case types.StorageClassCold:
		return "Infrequent Access"
	case types.StorageClassArchive:
		return "Archive"
	default:
		return "General Purpose"
	}
}

// ebsProvisionedRates returns per-IOPS-month and per-MBps-month rates
func ebsProvisionedRates(volumeType string) (decimal.Decimal, decimal.Decimal) {
	switch volumeType {
	case "gp3":
		return decimal.RequireFromString("0.005"), decimal.RequireFromString("0.040")
	case "io1", "io2":
		return decimal.RequireFromString("0.065"), decimal.Zero
	}
	return decimal.Zero, decimal.Zero
}

// awsTransferTiers models internet egress: first GB free, then banded.
var awsTransferTiers = []types.PricingTier{
	{Min: decimal.Zero, Max: decimal.NewFromInt(1), Rate: decimal.Zero},
	{Min: decimal.NewFromInt(1), Max: decimal.NewFromInt(10240), Rate: decimal.RequireFromString("0.09")},
	{Min: decimal.NewFromInt(10240), Max: decimal.NewFromInt(51200), Rate: decimal.RequireFromString("0.085")},
	{Min: decimal.NewFromInt(51200), Max: decimal.Zero, Rate: decimal.RequireFromString("0.07")},
}

var lbRequestRatePerMillion = decimal.RequireFromString("0.008")

func (a *Adapter) GetNetworkCosts(ctx context.Context, q cloud.NetworkCostQuery) (cloud.CostBundle, error) {
	if _, err := location(q.Region); err != nil {
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
		transfer := costpricing.TieredCost(q.MonthlyDataTransferGB, awsTransferTiers)
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
	loc, err := location(region)
	if err != nil {
		return nil, err
	}
	products, err := a.getProducts(ctx, "AmazonEC2", []pricingtypes.Filter{
		termFilter("productFamily", "Compute Instance"),
		termFilter("location", loc),
		termFilter("operatingSystem", "Linux"),
		termFilter("tenancy", "Shared"),
		termFilter("preInstalledSw", "NA"),
		termFilter("capacitystatus", "Used"),
	}, 3)
	if err != nil {
		return nil, err
	}
	var out []types.PricingData
	for _, raw := range products {
		doc, err := parsePriceDocument(raw)
		if err != nil {
			continue
		}
		sku := doc.attributes["instanceType"]
		if sku == "" {
			continue
		}
		out = append(out, types.PricingData{
			Provider:   types.ProviderAWS,
			Region:     region,
			Service:    "compute",
			SKU:        sku,
			Unit:       "hour",
			Price:      doc.hourlyUSD,
			Currency:   currency,
			Attributes: doc.attributes,
		})
	}
	return out, nil
}

func (a *Adapter) GetResources(ctx context.Context, q cloud.ResourceQuery) ([]types.ResourceConfiguration, error) {
	input := &ec2.DescribeInstancesInput{}
	if len(q.IDs) > 0 {
		input.InstanceIds = q.IDs
	}
	var out []types.ResourceConfiguration
	paginator := ec2.NewDescribeInstancesPaginator(a.ec2, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(errors.TypeInternal, "describing EC2 instances", err).AsTransient()
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				out = append(out, instanceResource(inst))
			}
		}
	}
	if len(q.Types) > 0 {
		filtered := out[:0]
		for _, r := range out {
			for _, t := range q.Types {
				if r.Type == t {
					filtered = append(filtered, r)
					break
				}
			}
		}
		out = filtered
	}
	return out, nil
}

func instanceResource(inst ec2types.Instance) types.ResourceConfiguration {
	tags := make(map[string]string, len(inst.Tags))
	name := ""
	for _, t := range inst.Tags {
		tags[awssdk.ToString(t.Key)] = awssdk.ToString(t.Value)
		if awssdk.ToString(t.Key) == "Name" {
			name = awssdk.ToString(t.Value)
		}
	}
	state := ""
	if inst.State != nil {
		state = string(inst.State.Name)
	}
	region := ""
	if inst.Placement != nil && inst.Placement.AvailabilityZone != nil {
		az := *inst.Placement.AvailabilityZone
		if len(az) > 1 {
			region = az[:len(az)-1]
		}
	}
	return types.ResourceConfiguration{
		ID:       awssdk.ToString(inst.InstanceId),
		Provider: types.ProviderAWS,
		Region:   types.Region(region),
		Type:     "vm",
		Name:     name,
		State:    state,
		Tags:     tags,
		Properties: map[string]interface{}{
			"instance_type": string(inst.InstanceType),
		},
	}
}

func (a *Adapter) GetMetrics(ctx context.Context, resourceID string) (types.ResourceMetrics, error) {
	end := time.Now().UTC()
	start := end.Add(-30 * 24 * time.Hour)
	dims := []cwtypes.Dimension{{
		Name:  awssdk.String("InstanceId"),
		Value: awssdk.String(resourceID),
	}}

	cpu, err := a.metricAverage(ctx, "CPUUtilization", dims, start, end)
	if err != nil {
		return types.ResourceMetrics{}, err
	}
	netIn, err := a.metricSum(ctx, "NetworkIn", dims, start, end)
	if err != nil {
		return types.ResourceMetrics{}, err
	}
	netOut, err := a.metricSum(ctx, "NetworkOut", dims, start, end)
	if err != nil {
		return types.ResourceMetrics{}, err
	}

	bytesPerGB := decimal.NewFromInt(1 << 30)
	return types.ResourceMetrics{
		ResourceID:   resourceID,
		CPUPercent:   cpu,
		NetworkInGB:  netIn.Div(bytesPerGB),
		NetworkOutGB: netOut.Div(bytesPerGB),
		SampledOver:  end.Sub(start),
		CollectedAt:  end,
	}, nil
}

func (a *Adapter) metricAverage(ctx context.Context, metric string, dims []cwtypes.Dimension, start, end time.Time) (decimal.Decimal, error) {
	out, err := a.cw.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  awssdk.String("AWS/EC2"),
		MetricName: awssdk.String(metric),
		Dimensions: dims,
		StartTime:  awssdk.Time(start),
		EndTime:    awssdk.Time(end),
		Period:     awssdk.Int32(3600),
		Statistics: []cwtypes.Statistic{cwtypes.StatisticAverage},
	})
	if err != nil {
		return decimal.Zero, errors.Wrap(errors.TypeInternal, "querying CloudWatch", err).AsTransient()
	}
	if len(out.Datapoints) == 0 {
		return decimal.Zero, errors.Newf(errors.TypeInsufficientData, "no %s datapoints for the sampling window", metric)
	}
	sum := decimal.Zero
	for _, dp := range out.Datapoints {
		sum = sum.Add(decimal.NewFromFloat(awssdk.ToFloat64(dp.Average)))
	}
	return sum.Div(decimal.NewFromInt(int64(len(out.Datapoints)))), nil
}

func (a *Adapter) metricSum(ctx context.Context, metric string, dims []cwtypes.Dimension, start, end time.Time) (decimal.Decimal, error) {
	out, err := a.cw.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  awssdk.String("AWS/EC2"),
		MetricName: awssdk.String(metric),
		Dimensions: dims,
		StartTime:  awssdk.Time(start),
		EndTime:    awssdk.Time(end),
		Period:     awssdk.Int32(3600),
		Statistics: []cwtypes.Statistic{cwtypes.StatisticSum},
	})
	if err != nil {
		return decimal.Zero, errors.Wrap(errors.TypeInternal, "querying CloudWatch", err).AsTransient()
	}
	sum := decimal.Zero
	for _, dp := range out.Datapoints {
		sum = sum.Add(decimal.NewFromFloat(awssdk.ToFloat64(dp.Sum)))
	}
	return sum, nil
}

func (a *Adapter) GetCost(ctx context.Context, resourceID string) (types.ResourceCost, error) {
	end := time.Now().UTC()
	start := end.Add(-30 * 24 * time.Hour)

	out, err := a.ce.GetCostAndUsageWithResources(ctx, &costexplorer.GetCostAndUsageWithResourcesInput{
		TimePeriod: &cetypes.DateInterval{
			Start: awssdk.String(start.Format("2006-01-02")),
			End:   awssdk.String(end.Format("2006-01-02")),
		},
		Granularity: cetypes.GranularityMonthly,
		Metrics:     []string{"UnblendedCost"},
		Filter: &cetypes.Expression{
			Dimensions: &cetypes.DimensionValues{
				Key:    cetypes.DimensionResourceId,
				Values: []string{resourceID},
			},
		},
	})
	if err != nil {
		return types.ResourceCost{}, errors.Wrap(errors.TypeInternal, "querying Cost Explorer", err).AsTransient()
	}

	total := decimal.Zero
	for _, result := range out.ResultsByTime {
		m, ok := result.Total["UnblendedCost"]
		if !ok || m.Amount == nil {
			continue
		}
		amount, err := decimal.NewFromString(*m.Amount)
		if err != nil {
			return types.ResourceCost{}, errors.Wrap(errors.TypeParsing, "parsing Cost Explorer amount", err)
		}
		total = total.Add(amount)
	}
	return types.ResourceCost{
		ResourceID:  resourceID,
		MonthlyCost: types.NewMoney(total, types.CurrencyUSD),
		Period:      "monthly",
		AsOf:        end,
	}, nil
}

func (a *Adapter) GetCapability(ctx context.Context, region types.Region) (types.ProviderCapability, error) {
	if _, err := location(region); err != nil {
		return types.ProviderCapability{}, err
	}
	return types.ProviderCapability{
		Provider:        types.ProviderAWS,
		Region:          region,
		AvailabilitySLA: decimal.RequireFromString("99.99"),
		Features: []string{
			"auto_scaling", "spot_instances", "managed_kubernetes",
			"object_lifecycle", "private_networking", "encryption_at_rest",
		},
		Certifications:       []string{"ISO27001", "SOC2", "PCI-DSS", "FedRAMP"},
		ComplianceFrameworks: []string{"HIPAA", "GDPR", "SOC2", "PCI-DSS"},
		Performance: types.PerformanceScore{
			Latency: 0.90, Throughput: 0.92, Reliability: 0.95, Scalability: 0.95,
		},
	}, nil
}

// parseNetworkGbps parses "Up to 10 Gigabit" style attribute values
func parseNetworkGbps(s string) decimal.Decimal {
	for _, f := range strings.Fields(s) {
		if v, err := decimal.NewFromString(f); err == nil {
			return v
		}
	}
	return decimal.Zero
}

// parseMemoryGB parses "8 GiB" style attribute values
func parseMemoryGB(s string) decimal.Decimal {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(fields[0])
	if err != nil {
		return decimal.Zero
	}
	return v
}

var _ cloud.Adapter = (*Adapter)(nil)
