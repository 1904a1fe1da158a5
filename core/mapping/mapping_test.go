package mapping

import (
	"testing"

	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

func TestDefaultRegistryLookup(t *testing.T) {
	registry := MustDefaultRegistry()

	tests := []struct {
		provider     types.Provider
		providerType string
		want         types.ResourceType
	}{
		{types.ProviderAWS, "Amazon Elastic Compute Cloud", types.ResourceTypeCompute},
		{types.ProviderAWS, "Amazon Simple Storage Service", types.ResourceTypeStorage},
		{types.ProviderAzure, "Virtual Machines", types.ResourceTypeCompute},
		{types.ProviderGCP, "Compute Engine", types.ResourceTypeCompute},
	}
	for _, tt := range tests {
		rm, err := registry.Lookup(tt.provider, tt.providerType)
		if err != nil {
			t.Errorf("Lookup(%s, %s) error = %v", tt.provider, tt.providerType, err)
			continue
		}
		if rm.Canonical != tt.want {
			t.Errorf("Lookup(%s, %s) = %s, want %s", tt.provider, tt.providerType, rm.Canonical, tt.want)
		}
	}
}

func TestLookupMissListsAvailable(t *testing.T) {
	registry := MustDefaultRegistry()

	_, err := registry.Lookup(types.ProviderAWS, "Unknown Service")
	if !errors.IsType(err, errors.TypeResourceMapping) {
		t.Fatalf("error = %v, want resource mapping", err)
	}
	typed := err.(*errors.Error)
	avail, ok := typed.Details["available_mappings"].([]string)
	if !ok || len(avail) == 0 {
		t.Error("mapping miss must list the available keys")
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry([]ResourceMapping{
		{Provider: types.ProviderAWS, ProviderType: "X", Canonical: types.ResourceTypeCompute},
		{Provider: types.ProviderAWS, ProviderType: "X", Canonical: types.ResourceTypeStorage},
	})
	if !errors.IsType(err, errors.TypeConfiguration) {
		t.Errorf("error = %v, want configuration", err)
	}
}

func TestNewRegistryRejectsUnknownCanonical(t *testing.T) {
	_, err := NewRegistry([]ResourceMapping{
		{Provider: types.ProviderAWS, ProviderType: "X", Canonical: "mainframe"},
	})
	if !errors.IsType(err, errors.TypeConfiguration) {
		t.Errorf("error = %v, want configuration", err)
	}
}

func TestProjectNestedPaths(t *testing.T) {
	rm := ResourceMapping{
		Rules: []ProjectionRule{
			{Src: "InstanceType", Dst: "instance_type"},
			{Src: "AvailabilityZone", Dst: "placement.zone"},
			{Src: "Missing", Dst: "never.set"},
		},
	}
	specs := rm.Project(map[string]interface{}{
		"InstanceType":     "t3.medium",
		"AvailabilityZone": "us-east-1a",
	})

	if specs["instance_type"] != "t3.medium" {
		t.Errorf("instance_type = %v, want t3.medium", specs["instance_type"])
	}
	placement, ok := specs["placement"].(map[string]interface{})
	if !ok || placement["zone"] != "us-east-1a" {
		t.Errorf("placement.zone = %v, want us-east-1a", specs["placement"])
	}
	if _, exists := specs["never"]; exists {
		t.Error("missing source field must be skipped, not written")
	}
}

func TestBucketRouting(t *testing.T) {
	tests := []struct {
		rtype types.ResourceType
		want  CostBucket
	}{
		{types.ResourceTypeCompute, BucketCompute},
		{types.ResourceTypeServerless, BucketCompute},
		{types.ResourceTypeStorage, BucketStorage},
		{types.ResourceTypeLoadBalancer, BucketNetwork},
		{types.ResourceTypeDatabase, BucketOther},
	}
	for _, tt := range tests {
		if got := BucketFor(tt.rtype); got != tt.want {
			t.Errorf("BucketFor(%s) = %s, want %s", tt.rtype, got, tt.want)
		}
	}
}
