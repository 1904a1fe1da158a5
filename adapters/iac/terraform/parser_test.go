package terraform

import (
	"testing"

	"github.com/shopspring/decimal"

	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

func testParser() *Parser {
	return NewParser(Options{
		DefaultRegions: map[types.Provider]types.Region{
			types.ProviderAWS:   "us-east-1",
			types.ProviderAzure: "eastus",
			types.ProviderGCP:   "us-central1",
		},
	})
}

func TestParseVmResources(t *testing.T) {
	src := `
provider "aws" {
  region = "us-west-2"
}

resource "aws_instance" "web" {
  ami           = "ami-12345"
  instance_type = "t3.medium"
}

resource "azurerm_windows_virtual_machine" "app" {
  size     = "Standard_B2s"
  location = "East US"
}

resource "google_compute_instance" "worker" {
  machine_type = "zones/us-central1-a/machineTypes/n1-standard-2"
  zone         = "us-central1-a"
}
`
	plan, err := testParser().Parse([]byte(src), "main.tf")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(plan.Resources) != 3 {
		t.Fatalf("got %d resources, want 3: %+v", len(plan.Resources), plan)
	}

	byAddress := map[string]int{}
	for i, r := range plan.Resources {
		byAddress[r.Address] = i
	}

	web := plan.Resources[byAddress["aws_instance.web"]]
	if web.Provider != types.ProviderAWS || web.Region != "us-west-2" {
		t.Errorf("web = %s/%s, want aws/us-west-2 from the provider block", web.Provider, web.Region)
	}
	if web.Vm == nil || web.Vm.MinVCPUs != 2 || !web.Vm.MinMemoryGB.Equal(decimal.NewFromInt(4)) {
		t.Errorf("web vm = %+v, want the t3.medium shape", web.Vm)
	}
	if web.Vm.OS != types.OSLinux {
		t.Errorf("web os = %s, want linux", web.Vm.OS)
	}

	app := plan.Resources[byAddress["azurerm_windows_virtual_machine.app"]]
	if app.Region != "eastus" {
		t.Errorf("app region = %s, want eastus from the location attribute", app.Region)
	}
	if app.Vm == nil || app.Vm.OS != types.OSWindows {
		t.Errorf("app vm = %+v, want a windows vm", app.Vm)
	}

	worker := plan.Resources[byAddress["google_compute_instance.worker"]]
	if worker.Region != "us-central1" {
		t.Errorf("worker region = %s, want us-central1 from the zone", worker.Region)
	}
	if worker.Vm == nil || !worker.Vm.MinMemoryGB.Equal(decimal.RequireFromString("7.5")) {
		t.Errorf("worker vm = %+v, want the n1-standard-2 shape", worker.Vm)
	}
}

func TestParseStorageAndNetwork(t *testing.T) {
	src := `
resource "aws_ebs_volume" "data" {
  size       = 500
  type       = "io2"
  iops       = 4000
  throughput = 250
}

resource "aws_s3_bucket" "assets" {
  bucket = "my-assets"
}

resource "aws_lb" "edge" {
  load_balancer_type = "network"
}

resource "aws_nat_gateway" "egress" {}
`
	plan, err := testParser().Parse([]byte(src), "infra.tf")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(plan.Resources) != 4 {
		t.Fatalf("got %d resources, want 4", len(plan.Resources))
	}

	byAddress := map[string]int{}
	for i, r := range plan.Resources {
		byAddress[r.Address] = i
	}

	data := plan.Resources[byAddress["aws_ebs_volume.data"]]
	if data.Storage == nil || data.Storage.CapacityGB != 500 {
		t.Fatalf("data storage = %+v, want 500 GB", data.Storage)
	}
	if data.Storage.StorageClass == nil || *data.Storage.StorageClass != types.StorageClassPremium {
		t.Errorf("io2 must map to the premium storage class")
	}
	if data.Storage.MinIOPS == nil || *data.Storage.MinIOPS != 4000 {
		t.Errorf("iops = %v, want 4000", data.Storage.MinIOPS)
	}

	assets := plan.Resources[byAddress["aws_s3_bucket.assets"]]
	if assets.Storage == nil || assets.Storage.StorageType != types.StorageTypeObject {
		t.Errorf("assets = %+v, want object storage", assets.Storage)
	}
	if assets.Storage.CapacityGB != 100 {
		t.Errorf("assets capacity = %d, want the 100 GB default", assets.Storage.CapacityGB)
	}

	edge := plan.Resources[byAddress["aws_lb.edge"]]
	if edge.Network == nil || edge.Network.LoadBalancerType != "network" {
		t.Errorf("edge = %+v, want a network load balancer", edge.Network)
	}

	egress := plan.Resources[byAddress["aws_nat_gateway.egress"]]
	if egress.Network == nil || egress.Network.ServiceType != types.NetworkNATGateway {
		t.Errorf("egress = %+v, want a nat gateway", egress.Network)
	}
}

func TestParseWarnsOnUnresolvableInstances(t *testing.T) {
	src := `
resource "aws_instance" "computed" {
  instance_type = var.instance_type
}

resource "aws_instance" "exotic" {
  instance_type = "z9.mega"
}

resource "aws_iam_role" "unrelated" {
  name = "deploy"
}
`
	plan, err := testParser().Parse([]byte(src), "main.tf")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(plan.Resources) != 0 {
		t.Errorf("resources = %+v, want none", plan.Resources)
	}
	// Computed and unknown instance types warn; unrelated types skip quietly
	if len(plan.Warnings) != 2 {
		t.Errorf("warnings = %+v, want 2", plan.Warnings)
	}
	if plan.Skipped != 3 {
		t.Errorf("skipped = %d, want 3", plan.Skipped)
	}
}

func TestParseBadHCL(t *testing.T) {
	_, err := testParser().Parse([]byte(`resource "aws_instance" {`), "broken.tf")
	if !errors.IsType(err, errors.TypeParsing) {
		t.Errorf("error = %v, want parsing", err)
	}
}

func TestParseDirMissing(t *testing.T) {
	_, err := testParser().ParseDir(t.TempDir())
	if !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}
