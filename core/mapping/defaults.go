// Package mapping - Built-in mapping tables per provider.
// Provider type strings follow each provider's billing export naming.
package mapping

import (
	"cloudcost/core/types"
)

// DefaultMappings returns the built-in table covering the common billing
// line items of all three providers.
func DefaultMappings() []ResourceMapping {
	var all []ResourceMapping
	all = append(all, awsMappings()...)
	all = append(all, azureMappings()...)
	all = append(all, gcpMappings()...)
	return all
}

// MustDefaultRegistry builds the default registry; the built-in table is
// known-good, so failure is a programming error.
func MustDefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultMappings())
	if err != nil {
		panic(err)
	}
	return r
}

func awsMappings() []ResourceMapping {
	return []ResourceMapping{
		{
			Provider:     types.ProviderAWS,
			ProviderType: "Amazon Elastic Compute Cloud",
			Canonical:    types.ResourceTypeCompute,
			Rules: []ProjectionRule{
				{Src: "InstanceType", Dst: "instance_type"},
				{Src: "OperatingSystem", Dst: "os"},
				{Src: "Tenancy", Dst: "tenancy"},
				{Src: "AvailabilityZone", Dst: "placement.zone"},
			},
		},
		{
			Provider:     types.ProviderAWS,
			ProviderType: "Amazon Simple Storage Service",
			Canonical:    types.ResourceTypeStorage,
			Rules: []ProjectionRule{
				{Src: "StorageClass", Dst: "storage_class"},
				{Src: "UsageType", Dst: "usage_type"},
			},
		},
		{
			Provider:     types.ProviderAWS,
			ProviderType: "Amazon Elastic Block Store",
			Canonical:    types.ResourceTypeStorage,
			Rules: []ProjectionRule{
				{Src: "VolumeType", Dst: "volume_type"},
				{Src: "VolumeSize", Dst: "capacity_gb"},
			},
		},
		{
			Provider:     types.ProviderAWS,
			ProviderType: "Amazon Virtual Private Cloud",
			Canonical:    types.ResourceTypeNetwork,
			Rules: []ProjectionRule{
				{Src: "UsageType", Dst: "usage_type"},
			},
		},
		{
			Provider:     types.ProviderAWS,
			ProviderType: "Elastic Load Balancing",
			Canonical:    types.ResourceTypeLoadBalancer,
			Rules: []ProjectionRule{
				{Src: "LoadBalancerType", Dst: "lb_type"},
			},
		},
		{
			Provider:     types.ProviderAWS,
			ProviderType: "Amazon Relational Database Service",
			Canonical:    types.ResourceTypeDatabase,
			Rules: []ProjectionRule{
				{Src: "InstanceType", Dst: "instance_type"},
				{Src: "Engine", Dst: "engine"},
			},
		},
		{
			Provider:     types.ProviderAWS,
			ProviderType: "AWS Lambda",
			Canonical:    types.ResourceTypeServerless,
			Rules: []ProjectionRule{
				{Src: "MemorySize", Dst: "memory_mb"},
			},
		},
		{
			Provider:     types.ProviderAWS,
			ProviderType: "Amazon Elastic Container Service",
			Canonical:    types.ResourceTypeContainer,
			Rules: []ProjectionRule{
				{Src: "LaunchType", Dst: "launch_type"},
			},
		},
		{
			Provider:     types.ProviderAWS,
			ProviderType: "Amazon Route 53",
			Canonical:    types.ResourceTypeDNS,
			Rules:        []ProjectionRule{{Src: "HostedZone", Dst: "hosted_zone"}},
		},
		{
			Provider:     types.ProviderAWS,
			ProviderType: "Amazon CloudFront",
			Canonical:    types.ResourceTypeCDN,
			Rules:        []ProjectionRule{{Src: "UsageType", Dst: "usage_type"}},
		},
		{
			Provider:     types.ProviderAWS,
			ProviderType: "Amazon ElastiCache",
			Canonical:    types.ResourceTypeCache,
			Rules:        []ProjectionRule{{Src: "CacheNodeType", Dst: "node_type"}},
		},
		{
			Provider:     types.ProviderAWS,
			ProviderType: "Amazon Simple Queue Service",
			Canonical:    types.ResourceTypeQueue,
			Rules:        []ProjectionRule{{Src: "QueueType", Dst: "queue_type"}},
		},
	}
}

func azureMappings() []ResourceMapping {
	return []ResourceMapping{
		{
			Provider:     types.ProviderAzure,
			ProviderType: "Virtual Machines",
			Canonical:    types.ResourceTypeCompute,
			Rules: []ProjectionRule{
				{Src: "skuName", Dst: "instance_type"},
				{Src: "osType", Dst: "os"},
			},
		},
		{
			Provider:     types.ProviderAzure,
			ProviderType: "Storage",
			Canonical:    types.ResourceTypeStorage,
			Rules: []ProjectionRule{
				{Src: "skuName", Dst: "storage_class"},
				{Src: "meterName", Dst: "meter"},
			},
		},
		{
			Provider:     types.ProviderAzure,
			ProviderType: "Bandwidth",
			Canonical:    types.ResourceTypeNetwork,
			Rules:        []ProjectionRule{{Src: "meterName", Dst: "meter"}},
		},
		{
			Provider:     types.ProviderAzure,
			ProviderType: "Load Balancer",
			Canonical:    types.ResourceTypeLoadBalancer,
			Rules:        []ProjectionRule{{Src: "skuName", Dst: "lb_type"}},
		},
		{
			Provider:     types.ProviderAzure,
			ProviderType: "Azure SQL Database",
			Canonical:    types.ResourceTypeDatabase,
			Rules:        []ProjectionRule{{Src: "skuName", Dst: "sku"}},
		},
		{
			Provider:     types.ProviderAzure,
			ProviderType: "Functions",
			Canonical:    types.ResourceTypeServerless,
			Rules:        []ProjectionRule{{Src: "meterName", Dst: "meter"}},
		},
		{
			Provider:     types.ProviderAzure,
			ProviderType: "Azure DNS",
			Canonical:    types.ResourceTypeDNS,
			Rules:        []ProjectionRule{{Src: "meterName", Dst: "meter"}},
		},
		{
			Provider:     types.ProviderAzure,
			ProviderType: "Content Delivery Network",
			Canonical:    types.ResourceTypeCDN,
			Rules:        []ProjectionRule{{Src: "meterName", Dst: "meter"}},
		},
	}
}

func gcpMappings() []ResourceMapping {
	return []ResourceMapping{
		{
			Provider:     types.ProviderGCP,
			ProviderType: "Compute Engine",
			Canonical:    types.ResourceTypeCompute,
			Rules: []ProjectionRule{
				{Src: "machineType", Dst: "instance_type"},
				{Src: "zone", Dst: "placement.zone"},
			},
		},
		{
			Provider:     types.ProviderGCP,
			ProviderType: "Cloud Storage",
			Canonical:    types.ResourceTypeStorage,
			Rules: []ProjectionRule{
				{Src: "storageClass", Dst: "storage_class"},
			},
		},
		{
			Provider:     types.ProviderGCP,
			ProviderType: "Cloud Load Balancing",
			Canonical:    types.ResourceTypeLoadBalancer,
			Rules:        []ProjectionRule{{Src: "forwardingRules", Dst: "forwarding_rules"}},
		},
		{
			Provider:     types.ProviderGCP,
			ProviderType: "Cloud SQL",
			Canonical:    types.ResourceTypeDatabase,
			Rules:        []ProjectionRule{{Src: "tier", Dst: "tier"}},
		},
		{
			Provider:     types.ProviderGCP,
			ProviderType: "Cloud Functions",
			Canonical:    types.ResourceTypeServerless,
			Rules:        []ProjectionRule{{Src: "memoryMb", Dst: "memory_mb"}},
		},
		{
			Provider:     types.ProviderGCP,
			ProviderType: "Cloud DNS",
			Canonical:    types.ResourceTypeDNS,
			Rules:        []ProjectionRule{{Src: "zoneName", Dst: "zone_name"}},
		},
		{
			Provider:     types.ProviderGCP,
			ProviderType: "Cloud CDN",
			Canonical:    types.ResourceTypeCDN,
			Rules:        []ProjectionRule{{Src: "cacheMode", Dst: "cache_mode"}},
		},
		{
			Provider:     types.ProviderGCP,
			ProviderType: "Kubernetes Engine",
			Canonical:    types.ResourceTypeContainer,
			Rules:        []ProjectionRule{{Src: "clusterName", Dst: "cluster"}},
		},
	}
}
