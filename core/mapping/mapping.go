// Package mapping holds the provider-to-canonical resource type tables.
// Tables are loaded at engine startup and immutable for the engine's
// lifetime, so lookups take no lock.
package mapping

import (
	"fmt"
	"sort"
	"strings"

	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

// ProjectionRule copies one provider field into the canonical
// specifications map at a dotted path.
type ProjectionRule struct {
	// Src is the key in the raw provider record
	Src string

	// Dst is the dotted destination path, e.g. "instance.type"
	Dst string
}

// ResourceMapping maps one provider-specific type to a canonical type
type ResourceMapping struct {
	Provider     types.Provider
	ProviderType string
	Canonical    types.ResourceType
	Rules        []ProjectionRule
}

type key struct {
	provider     types.Provider
	providerType string
}

// Registry is the immutable mapping table
type Registry struct {
	mappings map[key]ResourceMapping
}

// NewRegistry builds a registry from mappings. Duplicate
// (provider, provider_type) pairs are a configuration error.
func NewRegistry(mappings []ResourceMapping) (*Registry, error) {
	m := make(map[key]ResourceMapping, len(mappings))
	for _, rm := range mappings {
		k := key{rm.Provider, rm.ProviderType}
		if _, dup := m[k]; dup {
			return nil, errors.Configuration(
				fmt.Sprintf("duplicate resource mapping %s/%s", rm.Provider, rm.ProviderType))
		}
		if !rm.Canonical.IsValid() {
			return nil, errors.Configuration(
				fmt.Sprintf("mapping %s/%s has unknown canonical type %q", rm.Provider, rm.ProviderType, rm.Canonical))
		}
		m[k] = rm
	}
	return &Registry{mappings: m}, nil
}

// Lookup resolves a (provider, provider_type) pair. A miss is a typed
// mapping error listing the available keys.
func (r *Registry) Lookup(provider types.Provider, providerType string) (ResourceMapping, error) {
	if rm, ok := r.mappings[key{provider, providerType}]; ok {
		return rm, nil
	}
	return ResourceMapping{}, errors.ResourceMapping(string(provider), providerType, r.Keys())
}

// Keys returns all registered mapping keys, sorted
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.mappings))
	for k := range r.mappings {
		keys = append(keys, string(k.provider)+"/"+k.providerType)
	}
	sort.Strings(keys)
	return keys
}

// Project applies the mapping's rules, writing raw fields into a nested
// specifications map. Intermediate maps are created as needed; missing
// source fields are skipped.
func (rm ResourceMapping) Project(raw map[string]interface{}) map[string]interface{} {
	specs := make(map[string]interface{})
	for _, rule := range rm.Rules {
		val, ok := raw[rule.Src]
		if !ok {
			continue
		}
		writePath(specs, rule.Dst, val)
	}
	return specs
}

func writePath(m map[string]interface{}, dotted string, val interface{}) {
	parts := strings.Split(dotted, ".")
	for i, part := range parts {
		if i == len(parts)-1 {
			m[part] = val
			return
		}
		next, ok := m[part].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			m[part] = next
		}
		m = next
	}
}

// CostBucket names the CostBreakdown bucket a canonical type routes to
type CostBucket string

const (
	BucketCompute CostBucket = "compute"
	BucketStorage CostBucket = "storage"
	BucketNetwork CostBucket = "network"
	BucketOther   CostBucket = "other"
)

// bucketRouting routes each canonical type to one breakdown bucket.
// Database and container spend lands in "other"; splitting those would be
// a per-type extension here.
var bucketRouting = map[types.ResourceType]CostBucket{
	types.ResourceTypeCompute:      BucketCompute,
	types.ResourceTypeServerless:   BucketCompute,
	types.ResourceTypeStorage:      BucketStorage,
	types.ResourceTypeNetwork:      BucketNetwork,
	types.ResourceTypeLoadBalancer: BucketNetwork,
	types.ResourceTypeDNS:          BucketNetwork,
	types.ResourceTypeCDN:          BucketNetwork,
}

// BucketFor returns the cost bucket for a canonical type
func BucketFor(t types.ResourceType) CostBucket {
	if b, ok := bucketRouting[t]; ok {
		return b
	}
	return BucketOther
}
