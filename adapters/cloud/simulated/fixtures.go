// Package simulated - Bundled fixture catalogs for offline development.
// Prices are representative on-demand list prices, not live quotes.
package simulated

import (
	"github.com/shopspring/decimal"

	"cloudcost/core/types"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fixtureSet is one provider's synthetic catalog
type fixtureSet struct {
	regions []string

	instances []types.VmInstanceType
	// hourlyRates keys instance name -> linux on-demand hourly rate
	hourlyRates map[string]decimal.Decimal

	storage []types.StorageOption
	// storageRates keys option name -> capacity pricing tiers (per GB-month)
	storageRates map[string][]types.PricingTier
	// iopsRate and throughputRate price provisioned IOPS / MBps per month
	iopsRate       decimal.Decimal
	throughputRate decimal.Decimal

	network []types.NetworkOption
	// networkHourly keys option name -> hourly rate
	networkHourly map[string]decimal.Decimal
	// transferTiers price monthly egress per GB
	transferTiers []types.PricingTier
	// requestRate prices LB requests per million
	requestRate decimal.Decimal

	capability types.ProviderCapability
}

// windowsSurcharge multiplies hourly compute rates for windows images
var windowsSurcharge = d("1.35")

// spotDiscount multiplies hourly compute rates for spot purchases
var spotDiscount = d("0.30")

// reservedDiscount multiplies hourly compute rates for reserved purchases
var reservedDiscount = d("0.60")

func awsFixtures() fixtureSet {
	regions := []string{"us-east-1", "us-west-2", "eu-west-1"}
	return fixtureSet{
		regions: regions,
		instances: []types.VmInstanceType{
			vm(types.ProviderAWS, "t3.micro", "t3", 2, "1", "5"),
			vm(types.ProviderAWS, "t3.medium", "t3", 2, "4", "5"),
			vm(types.ProviderAWS, "m5.large", "m5", 2, "8", "10"),
			vm(types.ProviderAWS, "m5.xlarge", "m5", 4, "16", "10"),
			vm(types.ProviderAWS, "c5.2xlarge", "c5", 8, "16", "10"),
			vm(types.ProviderAWS, "r5.xlarge", "r5", 4, "32", "10"),
		},
		hourlyRates: map[string]decimal.Decimal{
			"t3.micro":   d("0.0104"),
			"t3.medium":  d("0.10"),
			"m5.large":   d("0.096"),
			"m5.xlarge":  d("0.192"),
			"c5.2xlarge": d("0.34"),
			"r5.xlarge":  d("0.252"),
		},
		storage: []types.StorageOption{
			blockOption(types.ProviderAWS, "gp3", types.StorageClassStandard, 1, 16384, 16000, 1000),
			blockOption(types.ProviderAWS, "io2", types.StorageClassPremium, 4, 65536, 256000, 4000),
			objectOption(types.ProviderAWS, "s3-standard", types.StorageClassStandard, types.ReplicationRegional),
			objectOption(types.ProviderAWS, "s3-glacier", types.StorageClassArchive, types.ReplicationRegional),
		},
		storageRates: map[string][]types.PricingTier{
			"gp3": flatTier("0.08"),
			"io2": flatTier("0.125"),
			"s3-standard": {
				{Min: d("0"), Max: d("51200"), Rate: d("0.023")},
				{Min: d("51200"), Max: d("512000"), Rate: d("0.022")},
				{Min: d("512000"), Max: decimal.Zero, Rate: d("0.021")},
			},
			"s3-glacier": flatTier("0.004"),
		},
		iopsRate:       d("0.005"),
		throughputRate: d("0.04"),
		network: []types.NetworkOption{
			lbOption(types.ProviderAWS, "alb", "application", "25"),
			lbOption(types.ProviderAWS, "nlb", "network", "100"),
			natOption(types.ProviderAWS, "nat-gateway", "45"),
			vpnOption(types.ProviderAWS, "site-to-site-vpn", "site_to_site", "1.25"),
			tgwOption(types.ProviderAWS, "transit-gateway", "50"),
			dnsOption(types.ProviderAWS, "route53-zone", "public"),
		},
		networkHourly: map[string]decimal.Decimal{
			"alb":              d("0.0225"),
			"nlb":              d("0.0225"),
			"nat-gateway":      d("0.045"),
			"site-to-site-vpn": d("0.05"),
			"transit-gateway":  d("0.05"),
			"route53-zone":     decimal.Zero,
		},
		transferTiers: []types.PricingTier{
			{Min: d("0"), Max: d("10240"), Rate: d("0.09")},
			{Min: d("10240"), Max: d("51200"), Rate: d("0.085")},
			{Min: d("51200"), Max: decimal.Zero, Rate: d("0.07")},
		},
		requestRate: d("0.80"),
		capability: types.ProviderCapability{
			Provider:        types.ProviderAWS,
			AvailabilitySLA: d("99.99"),
			Features: []string{
				"auto_scaling", "spot_instances", "managed_kubernetes",
				"object_lifecycle", "private_networking", "encryption_at_rest",
			},
			Certifications:       []string{"ISO27001", "SOC2", "PCI-DSS", "FedRAMP"},
			ComplianceFrameworks: []string{"HIPAA", "GDPR", "SOC2", "PCI-DSS"},
			Performance: types.PerformanceScore{
				Latency: 0.90, Throughput: 0.92, Reliability: 0.95, Scalability: 0.95,
			},
		},
	}
}

func azureFixtures() fixtureSet {
	regions := []string{"eastus", "westus2", "westeurope"}
	return fixtureSet{
		regions: regions,
		instances: []types.VmInstanceType{
			vm(types.ProviderAzure, "Standard_B1s", "B", 1, "1", "2"),
			vm(types.ProviderAzure, "Standard_B2s", "B", 2, "4", "4"),
			vm(types.ProviderAzure, "Standard_D2s_v3", "Dsv3", 2, "8", "4"),
			vm(types.ProviderAzure, "Standard_D4s_v3", "Dsv3", 4, "16", "8"),
			vm(types.ProviderAzure, "Standard_F8s_v2", "Fsv2", 8, "16", "12"),
			vm(types.ProviderAzure, "Standard_E4s_v3", "Esv3", 4, "32", "8"),
		},
		hourlyRates: map[string]decimal.Decimal{
			"Standard_B1s":    d("0.0104"),
			"Standard_B2s":    d("0.12"),
			"Standard_D2s_v3": d("0.096"),
			"Standard_D4s_v3": d("0.192"),
			"Standard_F8s_v2": d("0.338"),
			"Standard_E4s_v3": d("0.252"),
		},
		storage: []types.StorageOption{
			blockOption(types.ProviderAzure, "premium-ssd-p10", types.StorageClassPremium, 4, 32767, 20000, 900),
			blockOption(types.ProviderAzure, "standard-ssd-e10", types.StorageClassStandard, 4, 32767, 6000, 750),
			objectOption(types.ProviderAzure, "blob-hot", types.StorageClassStandard, types.ReplicationZonal),
			objectOption(types.ProviderAzure, "blob-archive", types.StorageClassArchive, types.ReplicationZonal),
		},
		storageRates: map[string][]types.PricingTier{
			"premium-ssd-p10":  flatTier("0.132"),
			"standard-ssd-e10": flatTier("0.075"),
			"blob-hot": {
				{Min: d("0"), Max: d("51200"), Rate: d("0.0208")},
				{Min: d("51200"), Max: decimal.Zero, Rate: d("0.02")},
			},
			"blob-archive": flatTier("0.002"),
		},
		iopsRate:       d("0.006"),
		throughputRate: d("0.042"),
		network: []types.NetworkOption{
			lbOption(types.ProviderAzure, "standard-lb", "network", "80"),
			lbOption(types.ProviderAzure, "app-gateway", "application", "20"),
			natOption(types.ProviderAzure, "nat-gateway", "50"),
			vpnOption(types.ProviderAzure, "vpn-gateway-vpngw1", "site_to_site", "1.25"),
			dnsOption(types.ProviderAzure, "azure-dns-zone", "public"),
		},
		networkHourly: map[string]decimal.Decimal{
			"standard-lb":        d("0.025"),
			"app-gateway":        d("0.0225"),
			"nat-gateway":        d("0.045"),
			"vpn-gateway-vpngw1": d("0.19"),
			"azure-dns-zone":     decimal.Zero,
		},
		transferTiers: []types.PricingTier{
			{Min: d("0"), Max: d("10240"), Rate: d("0.087")},
			{Min: d("10240"), Max: decimal.Zero, Rate: d("0.083")},
		},
		requestRate: d("0.008"),
		capability: types.ProviderCapability{
			Provider:        types.ProviderAzure,
			AvailabilitySLA: d("99.95"),
			Features: []string{
				"auto_scaling", "spot_instances", "managed_kubernetes",
				"private_networking", "encryption_at_rest", "hybrid_benefit",
			},
			Certifications:       []string{"ISO27001", "SOC2", "PCI-DSS"},
			ComplianceFrameworks: []string{"HIPAA", "GDPR", "SOC2"},
			Performance: types.PerformanceScore{
				Latency: 0.85, Throughput: 0.88, Reliability: 0.92, Scalability: 0.90,
			},
		},
	}
}

func gcpFixtures() fixtureSet {
	regions := []string{"us-central1", "us-east1", "europe-west1"}
	return fixtureSet{
		regions: regions,
		instances: []types.VmInstanceType{
			vm(types.ProviderGCP, "e2-micro", "e2", 2, "1", "1"),
			vm(types.ProviderGCP, "n1-standard-2", "n1", 2, "7.5", "10"),
			vm(types.ProviderGCP, "n2-standard-2", "n2", 2, "8", "10"),
			vm(types.ProviderGCP, "n2-standard-4", "n2", 4, "16", "10"),
			vm(types.ProviderGCP, "c2-standard-8", "c2", 8, "32", "16"),
			vm(types.ProviderGCP, "n2-highmem-4", "n2", 4, "32", "10"),
		},
		hourlyRates: map[string]decimal.Decimal{
			"e2-micro":      d("0.0084"),
			"n1-standard-2": d("0.11"),
			"n2-standard-2": d("0.097"),
			"n2-standard-4": d("0.194"),
			"c2-standard-8": d("0.418"),
			"n2-highmem-4":  d("0.262"),
		},
		storage: []types.StorageOption{
			blockOption(types.ProviderGCP, "pd-ssd", types.StorageClassPremium, 10, 65536, 100000, 1200),
			blockOption(types.ProviderGCP, "pd-balanced", types.StorageClassStandard, 10, 65536, 80000, 1200),
			objectOption(types.ProviderGCP, "gcs-standard", types.StorageClassStandard, types.ReplicationRegional),
			objectOption(types.ProviderGCP, "gcs-coldline", types.StorageClassCold, types.ReplicationRegional),
		},
		storageRates: map[string][]types.PricingTier{
			"pd-ssd":       flatTier("0.17"),
			"pd-balanced":  flatTier("0.10"),
			"gcs-standard": flatTier("0.020"),
			"gcs-coldline": flatTier("0.004"),
		},
		iopsRate:       d("0.0"),
		throughputRate: d("0.0"),
		network: []types.NetworkOption{
			lbOption(types.ProviderGCP, "global-https-lb", "application", "30"),
			lbOption(types.ProviderGCP, "network-lb", "network", "60"),
			natOption(types.ProviderGCP, "cloud-nat", "30"),
			vpnOption(types.ProviderGCP, "cloud-vpn", "site_to_site", "3"),
			dnsOption(types.ProviderGCP, "cloud-dns-zone", "public"),
		},
		networkHourly: map[string]decimal.Decimal{
			"global-https-lb": d("0.025"),
			"network-lb":      d("0.025"),
			"cloud-nat":       d("0.044"),
			"cloud-vpn":       d("0.05"),
			"cloud-dns-zone":  decimal.Zero,
		},
		transferTiers: []types.PricingTier{
			{Min: d("0"), Max: d("1024"), Rate: d("0.12")},
			{Min: d("1024"), Max: d("10240"), Rate: d("0.11")},
			{Min: d("10240"), Max: decimal.Zero, Rate: d("0.08")},
		},
		requestRate: d("0.75"),
		capability: types.ProviderCapability{
			Provider:        types.ProviderGCP,
			AvailabilitySLA: d("99.95"),
			Features: []string{
				"auto_scaling", "spot_instances", "managed_kubernetes",
				"live_migration", "private_networking", "encryption_at_rest",
			},
			Certifications:       []string{"ISO27001", "SOC2", "FedRAMP"},
			ComplianceFrameworks: []string{"HIPAA", "GDPR", "SOC2"},
			Performance: types.PerformanceScore{
				Latency: 0.88, Throughput: 0.90, Reliability: 0.93, Scalability: 0.92,
			},
		},
	}
}

func vm(p types.Provider, name, family string, vcpus int, memGB, netGbps string) types.VmInstanceType {
	return types.VmInstanceType{
		Provider:    p,
		Name:        name,
		Family:      family,
		VCPUs:       vcpus,
		MemoryGB:    d(memGB),
		NetworkGbps: d(netGbps),
		SupportedOS: []types.OperatingSystem{types.OSLinux, types.OSWindows},
		Features:    []string{"auto_scaling", "encryption_at_rest"},
		Certifications: []string{"ISO27001", "SOC2"},
	}
}

func blockOption(p types.Provider, name string, class types.StorageClass, minGB, maxGB, maxIOPS, maxMBps int) types.StorageOption {
	return types.StorageOption{
		Provider:          p,
		Name:              name,
		StorageType:       types.StorageTypeBlock,
		StorageClass:      class,
		Replication:       types.ReplicationZonal,
		MinCapacityGB:     minGB,
		MaxCapacityGB:     maxGB,
		MaxIOPS:           maxIOPS,
		MaxThroughputMBps: maxMBps,
		Features:          []string{"encryption_at_rest", "snapshots"},
		Certifications:    []string{"ISO27001", "SOC2"},
	}
}

func objectOption(p types.Provider, name string, class types.StorageClass, repl types.ReplicationType) types.StorageOption {
	return types.StorageOption{
		Provider:       p,
		Name:           name,
		StorageType:    types.StorageTypeObject,
		StorageClass:   class,
		Replication:    repl,
		MinCapacityGB:  0,
		MaxCapacityGB:  1 << 30,
		CrossZone:      true,
		CrossRegion:    repl == types.ReplicationCrossRegion,
		Features:       []string{"encryption_at_rest", "object_lifecycle", "versioning"},
		Certifications: []string{"ISO27001", "SOC2"},
	}
}

func lbOption(p types.Provider, name, lbType, bandwidthGbps string) types.NetworkOption {
	return types.NetworkOption{
		Provider:         p,
		Name:             name,
		ServiceType:      types.NetworkLoadBalancer,
		LoadBalancerType: lbType,
		BandwidthGbps:    d(bandwidthGbps),
		MaxRPS:           1_000_000,
		CrossZone:        true,
		Features:         []string{"health_checks", "tls_termination"},
		Certifications:   []string{"ISO27001", "SOC2"},
	}
}

func natOption(p types.Provider, name, bandwidthGbps string) types.NetworkOption {
	return types.NetworkOption{
		Provider:       p,
		Name:           name,
		ServiceType:    types.NetworkNATGateway,
		BandwidthGbps:  d(bandwidthGbps),
		Features:       []string{"managed"},
		Certifications: []string{"ISO27001", "SOC2"},
	}
}

func vpnOption(p types.Provider, name, vpnType, bandwidthGbps string) types.NetworkOption {
	return types.NetworkOption{
		Provider:       p,
		Name:           name,
		ServiceType:    types.NetworkVPN,
		VPNType:        vpnType,
		BandwidthGbps:  d(bandwidthGbps),
		Features:       []string{"managed", "ipsec"},
		Certifications: []string{"ISO27001", "SOC2"},
	}
}

func tgwOption(p types.Provider, name, bandwidthGbps string) types.NetworkOption {
	return types.NetworkOption{
		Provider:       p,
		Name:           name,
		ServiceType:    types.NetworkTransitGateway,
		BandwidthGbps:  d(bandwidthGbps),
		CrossRegion:    true,
		Features:       []string{"managed"},
		Certifications: []string{"ISO27001", "SOC2"},
	}
}

func dnsOption(p types.Provider, name, dnsType string) types.NetworkOption {
	return types.NetworkOption{
		Provider:       p,
		Name:           name,
		ServiceType:    types.NetworkDNS,
		DNSType:        dnsType,
		BandwidthGbps:  decimal.Zero,
		Features:       []string{"managed", "dnssec"},
		Certifications: []string{"ISO27001", "SOC2"},
	}
}

func flatTier(rate string) []types.PricingTier {
	return []types.PricingTier{{Min: decimal.Zero, Max: decimal.Zero, Rate: d(rate)}}
}
