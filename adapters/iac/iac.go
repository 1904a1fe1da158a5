// Package iac defines the common output shape for infrastructure-as-code
// parsers. A parser turns a plan or template into per-resource requirement
// objects the comparison engines consume directly.
package iac

import (
	"github.com/shopspring/decimal"

	"cloudcost/core/types"
)

// PlanResource is one costed resource extracted from a plan
type PlanResource struct {
	// Address identifies the resource within its source, e.g.
	// "aws_instance.web" or the CloudFormation logical id
	Address string `json:"address"`

	Provider types.Provider `json:"provider"`
	Region   types.Region   `json:"region"`

	// SourceType is the native resource type string
	SourceType string `json:"source_type"`

	// Exactly one requirement class is set
	Vm      *types.VmRequirements      `json:"vm,omitempty"`
	Storage *types.StorageRequirements `json:"storage,omitempty"`
	Network *types.NetworkRequirements `json:"network,omitempty"`
}

// Warning flags a resource the parser recognized but could not fully
// resolve, e.g. an instance type missing from the shape table.
type Warning struct {
	Address string `json:"address"`
	Message string `json:"message"`
}

// Plan is the parsed result: the costable resources plus anything the
// parser had to skip or approximate.
type Plan struct {
	Resources []PlanResource `json:"resources"`
	Warnings  []Warning      `json:"warnings,omitempty"`

	// Skipped counts resource blocks with no cost mapping
	Skipped int `json:"skipped"`
}

// VmShape carries the capacity of a named instance type so plan entries
// can become minimum-capacity requirements.
type VmShape struct {
	VCPUs    int
	MemoryGB decimal.Decimal
}

func gb(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

// instanceShapes covers the instance types the parsers resolve without a
// provider round trip. Unlisted types surface as warnings.
var instanceShapes = map[string]VmShape{
	// AWS
	"t3.micro":    {2, gb("1")},
	"t3.small":    {2, gb("2")},
	"t3.medium":   {2, gb("4")},
	"t3.large":    {2, gb("8")},
	"t3.xlarge":   {4, gb("16")},
	"m5.large":    {2, gb("8")},
	"m5.xlarge":   {4, gb("16")},
	"m5.2xlarge":  {8, gb("32")},
	"m5.4xlarge":  {16, gb("64")},
	"c5.large":    {2, gb("4")},
	"c5.xlarge":   {4, gb("8")},
	"c5.2xlarge":  {8, gb("16")},
	"r5.large":    {2, gb("16")},
	"r5.xlarge":   {4, gb("32")},

	// Azure
	"Standard_B2s":     {2, gb("4")},
	"Standard_B2ms":    {2, gb("8")},
	"Standard_D2s_v5":  {2, gb("8")},
	"Standard_D4s_v5":  {4, gb("16")},
	"Standard_D8s_v5":  {8, gb("32")},
	"Standard_F4s_v2":  {4, gb("8")},
	"Standard_E4s_v5":  {4, gb("32")},

	// GCP
	"e2-small":       {2, gb("2")},
	"e2-medium":      {2, gb("4")},
	"e2-standard-2":  {2, gb("8")},
	"e2-standard-4":  {4, gb("16")},
	"n1-standard-2":  {2, gb("7.5")},
	"n2-standard-2":  {2, gb("8")},
	"n2-standard-4":  {4, gb("16")},
	"n2-standard-8":  {8, gb("32")},
	"c2-standard-4":  {4, gb("16")},
}

// LookupShape resolves an instance type name to its capacity
func LookupShape(name string) (VmShape, bool) {
	s, ok := instanceShapes[name]
	return s, ok
}
