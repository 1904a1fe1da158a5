package cloudformation

import (
	"testing"

	"github.com/shopspring/decimal"

	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

func testParser() *Parser {
	return NewParser(Options{Region: "us-east-1"})
}

func TestParseTemplate(t *testing.T) {
	src := `
AWSTemplateFormatVersion: "2010-09-09"
Resources:
  WebServer:
    Type: AWS::EC2::Instance
    Properties:
      InstanceType: t3.medium
      ImageId: ami-12345
  DataVolume:
    Type: AWS::EC2::Volume
    Properties:
      Size: 500
      VolumeType: io2
      Iops: 4000
  AssetBucket:
    Type: AWS::S3::Bucket
  EdgeLB:
    Type: AWS::ElasticLoadBalancingV2::LoadBalancer
    Properties:
      Type: network
  Egress:
    Type: AWS::EC2::NatGateway
  DeployRole:
    Type: AWS::IAM::Role
`
	plan, err := testParser().Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(plan.Resources) != 5 {
		t.Fatalf("got %d resources, want 5: %+v", len(plan.Resources), plan)
	}
	if plan.Skipped != 1 {
		t.Errorf("skipped = %d, want 1 for the IAM role", plan.Skipped)
	}

	byAddress := map[string]int{}
	for i, r := range plan.Resources {
		byAddress[r.Address] = i
	}

	web := plan.Resources[byAddress["WebServer"]]
	if web.Vm == nil || web.Vm.MinVCPUs != 2 || !web.Vm.MinMemoryGB.Equal(decimal.NewFromInt(4)) {
		t.Errorf("WebServer = %+v, want the t3.medium shape", web.Vm)
	}
	if web.Region != "us-east-1" {
		t.Errorf("region = %s, want the configured us-east-1", web.Region)
	}

	vol := plan.Resources[byAddress["DataVolume"]]
	if vol.Storage == nil || vol.Storage.CapacityGB != 500 {
		t.Fatalf("DataVolume = %+v, want 500 GB", vol.Storage)
	}
	if vol.Storage.StorageClass == nil || *vol.Storage.StorageClass != types.StorageClassPremium {
		t.Error("io2 must map to the premium storage class")
	}
	if vol.Storage.MinIOPS == nil || *vol.Storage.MinIOPS != 4000 {
		t.Errorf("Iops = %v, want 4000", vol.Storage.MinIOPS)
	}

	lb := plan.Resources[byAddress["EdgeLB"]]
	if lb.Network == nil || lb.Network.LoadBalancerType != "network" {
		t.Errorf("EdgeLB = %+v, want a network load balancer", lb.Network)
	}
}

func TestParseIntrinsicsAreUnresolved(t *testing.T) {
	src := `
Resources:
  WebServer:
    Type: AWS::EC2::Instance
    Properties:
      InstanceType: !Ref InstanceTypeParameter
`
	plan, err := testParser().Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(plan.Resources) != 0 {
		t.Errorf("resources = %+v, want none", plan.Resources)
	}
	if len(plan.Warnings) != 1 || plan.Skipped != 1 {
		t.Errorf("warnings = %v, skipped = %d; want one warning, one skip", plan.Warnings, plan.Skipped)
	}
}

func TestParseWindowsTag(t *testing.T) {
	src := `
Resources:
  WinBox:
    Type: AWS::EC2::Instance
    Properties:
      InstanceType: t3.medium
      Tags:
        - Key: Platform
          Value: Windows
`
	plan, err := testParser().Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(plan.Resources) != 1 || plan.Resources[0].Vm == nil {
		t.Fatalf("plan = %+v, want one vm", plan)
	}
	if plan.Resources[0].Vm.OS != types.OSWindows {
		t.Errorf("os = %s, want windows from the platform tag", plan.Resources[0].Vm.OS)
	}
}

func TestParseQuotedNumericSize(t *testing.T) {
	src := `
Resources:
  DataVolume:
    Type: AWS::EC2::Volume
    Properties:
      Size: "250"
`
	plan, err := testParser().Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(plan.Resources) != 1 || plan.Resources[0].Storage.CapacityGB != 250 {
		t.Errorf("plan = %+v, want a 250 GB volume", plan)
	}
}

func TestParseEmptyTemplate(t *testing.T) {
	_, err := testParser().Parse([]byte("Description: nothing here"))
	if !errors.IsType(err, errors.TypeValidation) {
		t.Errorf("error = %v, want validation", err)
	}
}

func TestParseMalformedYAML(t *testing.T) {
	_, err := testParser().Parse([]byte("Resources:\n  - :\n bad"))
	if !errors.IsType(err, errors.TypeParsing) {
		t.Errorf("error = %v, want parsing", err)
	}
}
