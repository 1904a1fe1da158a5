// Package cloudformation parses CloudFormation templates (YAML or JSON)
// into costable requirement objects. Intrinsic functions resolve at
// deploy time, so values behind !Ref, !GetAtt, or Fn:: forms are treated
// as unknown.
package cloudformation

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"cloudcost/adapters/iac"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
	"cloudcost/internal/logging"
)

// Options tunes parsing defaults
type Options struct {
	// Region applies to every resource; templates carry no region
	Region types.Region

	// ObjectStorageGB is the assumed capacity for S3 buckets
	ObjectStorageGB int
}

// Parser extracts costable resources from CloudFormation templates
type Parser struct {
	opts Options
	log  *zap.Logger
}

// NewParser creates a CloudFormation parser
func NewParser(opts Options) *Parser {
	if opts.ObjectStorageGB <= 0 {
		opts.ObjectStorageGB = 100
	}
	return &Parser{opts: opts, log: logging.Named("iac.cloudformation")}
}

type resourceNode struct {
	Type       string    `yaml:"Type"`
	Properties yaml.Node `yaml:"Properties"`
}

type template struct {
	Resources map[string]resourceNode `yaml:"Resources"`
}

// Parse reads one template. JSON templates parse too; YAML is a superset.
func (p *Parser) Parse(src []byte) (iac.Plan, error) {
	var tpl template
	if err := yaml.Unmarshal(src, &tpl); err != nil {
		return iac.Plan{}, errors.Wrap(errors.TypeParsing, "parsing CloudFormation template", err)
	}
	if len(tpl.Resources) == 0 {
		return iac.Plan{}, errors.Validation("template", "Resources", "must declare at least one resource")
	}

	plan := iac.Plan{}
	for logicalID, node := range tpl.Resources {
		props := nodeToMap(&node.Properties)
		res, warning, ok := p.mapResource(logicalID, node.Type, props)
		if warning != nil {
			plan.Warnings = append(plan.Warnings, *warning)
		}
		if !ok {
			plan.Skipped++
			continue
		}
		plan.Resources = append(plan.Resources, res)
	}
	p.log.Info("cloudformation template parsed",
		zap.Int("resources", len(plan.Resources)),
		zap.Int("skipped", plan.Skipped),
		zap.Int("warnings", len(plan.Warnings)))
	return plan, nil
}

func (p *Parser) mapResource(logicalID, resourceType string, props map[string]interface{}) (iac.PlanResource, *iac.Warning, bool) {
	res := iac.PlanResource{
		Address:    logicalID,
		Provider:   types.ProviderAWS,
		Region:     p.opts.Region,
		SourceType: resourceType,
	}

	switch resourceType {
	case "AWS::EC2::Instance":
		instanceType, _ := props["InstanceType"].(string)
		if instanceType == "" {
			return iac.PlanResource{}, &iac.Warning{
				Address: logicalID,
				Message: "InstanceType is unresolved (intrinsic or missing)",
			}, false
		}
		shape, ok := iac.LookupShape(instanceType)
		if !ok {
			return iac.PlanResource{}, &iac.Warning{
				Address: logicalID,
				Message: fmt.Sprintf("unknown instance type %q", instanceType),
			}, false
		}
		res.Vm = &types.VmRequirements{
			Region:         res.Region,
			MinVCPUs:       shape.VCPUs,
			MinMemoryGB:    shape.MemoryGB,
			OS:             osFor(props),
			PurchaseOption: types.PurchaseOnDemand,
		}
		return res, nil, true

	case "AWS::EC2::Volume":
		size, ok := intProp(props, "Size")
		if !ok {
			size = 8
		}
		volumeType, _ := props["VolumeType"].(string)
		req := &types.StorageRequirements{
			Region:      res.Region,
			StorageType: types.StorageTypeBlock,
			CapacityGB:  size,
		}
		if volumeType == "io1" || volumeType == "io2" {
			class := types.StorageClassPremium
			req.StorageClass = &class
		}
		if iops, ok := intProp(props, "Iops"); ok {
			req.MinIOPS = &iops
		}
		if tp, ok := intProp(props, "Throughput"); ok {
			req.MinThroughputMBps = &tp
		}
		res.Storage = req
		return res, nil, true

	case "AWS::S3::Bucket":
		res.Storage = &types.StorageRequirements{
			Region:      res.Region,
			StorageType: types.StorageTypeObject,
			CapacityGB:  p.opts.ObjectStorageGB,
		}
		return res, nil, true

	case "AWS::ElasticLoadBalancingV2::LoadBalancer":
		lbType, _ := props["Type"].(string)
		if lbType == "" {
			lbType = "application"
		}
		res.Network = &types.NetworkRequirements{
			Region:           res.Region,
			ServiceType:      types.NetworkLoadBalancer,
			LoadBalancerType: lbType,
		}
		return res, nil, true

	case "AWS::EC2::NatGateway":
		res.Network = &types.NetworkRequirements{
			Region:      res.Region,
			ServiceType: types.NetworkNATGateway,
		}
		return res, nil, true
	}

	return iac.PlanResource{}, nil, false
}

// osFor reads the Windows hint off the instance properties; image
// resolution is out of reach, so a Platform-style tag is the signal.
func osFor(props map[string]interface{}) types.OperatingSystem {
	if tags, ok := props["Tags"].([]interface{}); ok {
		for _, raw := range tags {
			tag, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			key, _ := tag["Key"].(string)
			value, _ := tag["Value"].(string)
			if strings.EqualFold(key, "platform") && strings.EqualFold(value, "windows") {
				return types.OSWindows
			}
		}
	}
	return types.OSLinux
}

func intProp(props map[string]interface{}, key string) (int, bool) {
	switch v := props[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	case string:
		// Quoted numerics are common in hand-written templates
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n, true
		}
	}
	return 0, false
}

// nodeToMap converts a Properties node to plain Go values. Nodes tagged
// with intrinsics (!Ref, !GetAtt, !Sub, ...) convert to nil so callers
// see them as unresolved.
func nodeToMap(node *yaml.Node) map[string]interface{} {
	v := nodeValue(node)
	m, _ := v.(map[string]interface{})
	return m
}

func nodeValue(node *yaml.Node) interface{} {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) > 0 {
			return nodeValue(node.Content[0])
		}
	case yaml.MappingNode:
		if custom(node.Tag) {
			return nil
		}
		m := make(map[string]interface{}, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			m[node.Content[i].Value] = nodeValue(node.Content[i+1])
		}
		return m
	case yaml.SequenceNode:
		if custom(node.Tag) {
			return nil
		}
		out := make([]interface{}, 0, len(node.Content))
		for _, c := range node.Content {
			out = append(out, nodeValue(c))
		}
		return out
	case yaml.ScalarNode:
		if custom(node.Tag) {
			return nil
		}
		var v interface{}
		if err := node.Decode(&v); err != nil {
			return node.Value
		}
		return v
	case yaml.AliasNode:
		return nodeValue(node.Alias)
	}
	return nil
}

// custom reports whether a tag is a CloudFormation intrinsic shorthand.
// Standard YAML tags use the !! prefix and are not intrinsics.
func custom(tag string) bool {
	return strings.HasPrefix(tag, "!") && !strings.HasPrefix(tag, "!!")
}
