// Package terraform parses Terraform HCL into costable requirement
// objects. Attributes are read structurally with no expression
// evaluation; anything computed at apply time is skipped.
package terraform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"go.uber.org/zap"

	"cloudcost/adapters/iac"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
	"cloudcost/internal/logging"
)

// Options tunes parsing defaults
type Options struct {
	// DefaultRegions backs resources whose region is not written in the
	// configuration, keyed by provider
	DefaultRegions map[types.Provider]types.Region

	// ObjectStorageGB is the assumed capacity for buckets and storage
	// accounts, which carry no size in the configuration
	ObjectStorageGB int
}

// Parser extracts costable resources from Terraform configurations
type Parser struct {
	hcl  *hclparse.Parser
	opts Options
	log  *zap.Logger
}

// NewParser creates a Terraform parser
func NewParser(opts Options) *Parser {
	if opts.ObjectStorageGB <= 0 {
		opts.ObjectStorageGB = 100
	}
	return &Parser{
		hcl:  hclparse.NewParser(),
		opts: opts,
		log:  logging.Named("iac.terraform"),
	}
}

type block struct {
	resourceType string
	name         string
	attrs        map[string]interface{}
}

// ParseDir walks a module directory and parses every .tf file in it
func (p *Parser) ParseDir(dir string) (iac.Plan, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".tf") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return iac.Plan{}, errors.Wrap(errors.TypeParsing, "walking module directory", err)
	}
	if len(files) == 0 {
		return iac.Plan{}, errors.NotFound("terraform configuration", dir)
	}

	var resources []block
	regions := make(map[types.Provider]types.Region)
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return iac.Plan{}, errors.Wrap(errors.TypeParsing, "reading "+file, err)
		}
		blocks, fileRegions, err := p.parseSource(src, file)
		if err != nil {
			return iac.Plan{}, err
		}
		resources = append(resources, blocks...)
		for prov, region := range fileRegions {
			regions[prov] = region
		}
	}
	return p.assemble(resources, regions), nil
}

// Parse handles a single configuration held in memory
func (p *Parser) Parse(src []byte, filename string) (iac.Plan, error) {
	blocks, regions, err := p.parseSource(src, filename)
	if err != nil {
		return iac.Plan{}, err
	}
	return p.assemble(blocks, regions), nil
}

func (p *Parser) parseSource(src []byte, filename string) ([]block, map[types.Provider]types.Region, error) {
	file, diags := p.hcl.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, nil, errors.Newf(errors.TypeParsing, "parsing %s: %s", filename, diags.Error())
	}

	content, _, _ := file.Body.PartialContent(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{
			{Type: "resource", LabelNames: []string{"type", "name"}},
			{Type: "provider", LabelNames: []string{"name"}},
		},
	})

	var blocks []block
	regions := make(map[types.Provider]types.Region)
	for _, b := range content.Blocks {
		switch b.Type {
		case "provider":
			if len(b.Labels) != 1 {
				continue
			}
			attrs := attrValues(b.Body)
			if region := str(attrs, "region"); region != "" {
				switch b.Labels[0] {
				case "aws":
					regions[types.ProviderAWS] = types.Region(region)
				case "google":
					regions[types.ProviderGCP] = types.Region(region)
				}
			}
		case "resource":
			if len(b.Labels) != 2 {
				continue
			}
			blocks = append(blocks, block{
				resourceType: b.Labels[0],
				name:         b.Labels[1],
				attrs:        attrValues(b.Body),
			})
		}
	}
	return blocks, regions, nil
}

func (p *Parser) assemble(blocks []block, providerRegions map[types.Provider]types.Region) iac.Plan {
	plan := iac.Plan{}
	for _, b := range blocks {
		res, warning, ok := p.mapResource(b, providerRegions)
		if warning != nil {
			plan.Warnings = append(plan.Warnings, *warning)
		}
		if !ok {
			plan.Skipped++
			continue
		}
		plan.Resources = append(plan.Resources, res)
	}
	p.log.Info("terraform plan parsed",
		zap.Int("resources", len(plan.Resources)),
		zap.Int("skipped", plan.Skipped),
		zap.Int("warnings", len(plan.Warnings)))
	return plan
}

// mapResource translates one resource block. Unknown resource types are
// skipped without a warning; recognized types that cannot be resolved
// warn.
func (p *Parser) mapResource(b block, providerRegions map[types.Provider]types.Region) (iac.PlanResource, *iac.Warning, bool) {
	address := b.resourceType + "." + b.name
	provider := providerFor(b.resourceType)
	region := p.regionFor(provider, b.attrs, providerRegions)

	res := iac.PlanResource{
		Address:    address,
		Provider:   provider,
		Region:     region,
		SourceType: b.resourceType,
	}

	switch b.resourceType {
	case "aws_instance":
		return p.vm(res, str(b.attrs, "instance_type"), types.OSLinux)
	case "azurerm_linux_virtual_machine":
		return p.vm(res, str(b.attrs, "size"), types.OSLinux)
	case "azurerm_windows_virtual_machine":
		return p.vm(res, str(b.attrs, "size"), types.OSWindows)
	case "google_compute_instance":
		machine := str(b.attrs, "machine_type")
		if i := strings.LastIndex(machine, "/"); i >= 0 {
			machine = machine[i+1:]
		}
		return p.vm(res, machine, types.OSLinux)

	case "aws_ebs_volume":
		size, ok := num(b.attrs, "size")
		if !ok {
			size = 8
		}
		storage := blockStorage(region, size, premiumVolume(str(b.attrs, "type")))
		if iops, ok := num(b.attrs, "iops"); ok {
			storage.MinIOPS = &iops
		}
		if tp, ok := num(b.attrs, "throughput"); ok {
			storage.MinThroughputMBps = &tp
		}
		res.Storage = storage
		return res, nil, true
	case "azurerm_managed_disk":
		size, ok := num(b.attrs, "disk_size_gb")
		if !ok {
			size = 32
		}
		res.Storage = blockStorage(region, size, premiumVolume(str(b.attrs, "storage_account_type")))
		return res, nil, true
	case "google_compute_disk":
		size, ok := num(b.attrs, "size")
		if !ok {
			size = 100
		}
		res.Storage = blockStorage(region, size, premiumVolume(str(b.attrs, "type")))
		return res, nil, true

	case "aws_s3_bucket", "azurerm_storage_account", "google_storage_bucket":
		res.Storage = &types.StorageRequirements{
			Region:      region,
			StorageType: types.StorageTypeObject,
			CapacityGB:  p.opts.ObjectStorageGB,
		}
		return res, nil, true

	case "aws_lb", "aws_alb":
		lbType := str(b.attrs, "load_balancer_type")
		if lbType == "" {
			lbType = "application"
		}
		res.Network = &types.NetworkRequirements{
			Region:           region,
			ServiceType:      types.NetworkLoadBalancer,
			LoadBalancerType: lbType,
		}
		return res, nil, true
	case "azurerm_lb":
		res.Network = &types.NetworkRequirements{
			Region:      region,
			ServiceType: types.NetworkLoadBalancer,
		}
		return res, nil, true

	case "aws_nat_gateway", "azurerm_nat_gateway", "google_compute_router_nat":
		res.Network = &types.NetworkRequirements{
			Region:      region,
			ServiceType: types.NetworkNATGateway,
		}
		return res, nil, true
	}

	return iac.PlanResource{}, nil, false
}

func (p *Parser) vm(res iac.PlanResource, instanceType string, os types.OperatingSystem) (iac.PlanResource, *iac.Warning, bool) {
	if instanceType == "" {
		return iac.PlanResource{}, &iac.Warning{
			Address: res.Address,
			Message: "instance type is computed and cannot be resolved",
		}, false
	}
	shape, ok := iac.LookupShape(instanceType)
	if !ok {
		return iac.PlanResource{}, &iac.Warning{
			Address: res.Address,
			Message: fmt.Sprintf("unknown instance type %q", instanceType),
		}, false
	}
	res.Vm = &types.VmRequirements{
		Region:         res.Region,
		MinVCPUs:       shape.VCPUs,
		MinMemoryGB:    shape.MemoryGB,
		OS:             os,
		PurchaseOption: types.PurchaseOnDemand,
	}
	return res, nil, true
}

// regionFor prefers the resource's own location or zone, then the
// provider block, then the configured default.
func (p *Parser) regionFor(provider types.Provider, attrs map[string]interface{}, providerRegions map[types.Provider]types.Region) types.Region {
	if location := str(attrs, "location"); location != "" {
		return types.Region(normalizeLocation(location))
	}
	if zone := str(attrs, "zone"); zone != "" {
		// us-central1-a carries its region as a prefix
		if i := strings.LastIndex(zone, "-"); i > 0 {
			return types.Region(zone[:i])
		}
	}
	if region, ok := providerRegions[provider]; ok {
		return region
	}
	return p.opts.DefaultRegions[provider]
}

// normalizeLocation folds Azure display names like "East US" to eastus
func normalizeLocation(location string) string {
	return strings.ToLower(strings.ReplaceAll(location, " ", ""))
}

func providerFor(resourceType string) types.Provider {
	switch {
	case strings.HasPrefix(resourceType, "aws_"):
		return types.ProviderAWS
	case strings.HasPrefix(resourceType, "azurerm_"):
		return types.ProviderAzure
	case strings.HasPrefix(resourceType, "google_"):
		return types.ProviderGCP
	}
	return ""
}

func blockStorage(region types.Region, capacityGB int, premium bool) *types.StorageRequirements {
	req := &types.StorageRequirements{
		Region:      region,
		StorageType: types.StorageTypeBlock,
		CapacityGB:  capacityGB,
	}
	if premium {
		class := types.StorageClassPremium
		req.StorageClass = &class
	}
	return req
}

// premiumVolume reports whether a native volume type maps to the
// premium storage class
func premiumVolume(volumeType string) bool {
	switch volumeType {
	case "io1", "io2", "Premium_LRS", "PremiumV2_LRS", "pd-ssd", "pd-extreme":
		return true
	}
	return false
}
