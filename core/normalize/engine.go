// Package normalize maps provider-native cost records into the canonical
// NormalizedCostEntry model. Normalization is idempotent: the same raw
// batch yields the same ids and amounts.
package normalize

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cloudcost/core/currency"
	"cloudcost/core/mapping"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
	"cloudcost/internal/logging"
)

// RawRecord is one provider-native cost line item
type RawRecord map[string]interface{}

// Window is the half-open billing window [Start, End) a batch covers
type Window struct {
	Start time.Time
	End   time.Time
}

// Validate enforces End > Start
func (w Window) Validate() error {
	if !w.End.After(w.Start) {
		return errors.Validation("time_window", w.End, "end_time must be after start_time")
	}
	return nil
}

// Options tunes engine behavior
type Options struct {
	// TargetCurrency is the currency every emitted entry carries
	TargetCurrency types.Currency

	// ContinueOnError collects per-record failures as soft errors instead
	// of failing the batch. Default is fail-fast.
	ContinueOnError bool
}

// Result is a normalization outcome. SoftErrors is populated only when
// ContinueOnError was requested.
type Result struct {
	Entries    []types.NormalizedCostEntry
	SoftErrors []error
}

// Engine normalizes raw provider records
type Engine struct {
	mappings  *mapping.Registry
	converter currency.Converter
	opts      Options
	log       *zap.Logger
}

// NewEngine creates a normalization engine. The mapping registry is
// immutable for the engine's lifetime.
func NewEngine(mappings *mapping.Registry, converter currency.Converter, opts Options) *Engine {
	if opts.TargetCurrency == "" {
		opts.TargetCurrency = types.CurrencyUSD
	}
	return &Engine{
		mappings:  mappings,
		converter: converter,
		opts:      opts,
		log:       logging.Named("normalize"),
	}
}

// Normalize converts a batch of raw records for one provider into
// canonical entries. Default mode fails the whole batch on the first bad
// record; no partial entries are emitted for failed records.
func (e *Engine) Normalize(provider types.Provider, window Window, records []RawRecord) (*Result, error) {
	if !provider.IsValid() {
		return nil, errors.Validation("provider", provider, "must be one of aws, azure, gcp")
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	result := &Result{Entries: make([]types.NormalizedCostEntry, 0, len(records))}
	for i, raw := range records {
		entry, err := e.normalizeRecord(provider, window, raw)
		if err != nil {
			if e.opts.ContinueOnError {
				e.log.Warn("skipping record",
					zap.Int("index", i),
					zap.String("provider", provider.String()),
					zap.Error(err))
				result.SoftErrors = append(result.SoftErrors, err)
				continue
			}
			return nil, err
		}
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

func (e *Engine) normalizeRecord(provider types.Provider, window Window, raw RawRecord) (types.NormalizedCostEntry, error) {
	schema := schemaFor(provider)

	providerType, err := raw.stringField(schema.resourceType)
	if err != nil {
		return types.NormalizedCostEntry{}, errors.Normalization("missing resource type", err)
	}

	rm, err := e.mappings.Lookup(provider, providerType)
	if err != nil {
		return types.NormalizedCostEntry{}, err
	}

	resourceID, err := raw.stringField(schema.resourceID)
	if err != nil {
		return types.NormalizedCostEntry{}, errors.Normalization("missing resource id", err)
	}

	amount, err := raw.decimalField(schema.cost)
	if err != nil {
		return types.NormalizedCostEntry{}, errors.Normalization(
			fmt.Sprintf("bad cost amount in field %q", schema.cost), err)
	}

	recordCurrency := types.Currency(raw.stringOr(schema.currency, string(e.opts.TargetCurrency)))

	meta := types.ResourceMetadata{
		Provider:       provider,
		ProviderID:     resourceID,
		Name:           raw.stringOr(schema.name, ""),
		Type:           rm.Canonical,
		Region:         types.Region(raw.stringOr(schema.region, "")),
		BillingType:    billingType(raw.stringOr(schema.billing, "")),
		Specifications: rm.Project(raw),
	}

	costs := types.NewCostBreakdown(recordCurrency)
	switch mapping.BucketFor(rm.Canonical) {
	case mapping.BucketCompute:
		costs.Compute = types.NewMoney(amount, recordCurrency)
	case mapping.BucketStorage:
		costs.Storage = types.NewMoney(amount, recordCurrency)
	case mapping.BucketNetwork:
		costs.Network = types.NewMoney(amount, recordCurrency)
	default:
		costs.Other = types.NewMoney(amount, recordCurrency)
	}

	entry := types.NormalizedCostEntry{
		ID:         entryID(provider, resourceID, window.Start),
		AccountID:  raw.stringOr(schema.accountID, ""),
		Resource:   meta,
		Allocation: e.allocation(raw, schema),
		Costs:      costs,
		Currency:   recordCurrency,
		StartTime:  window.Start,
		EndTime:    window.End,
	}

	if recordCurrency != e.opts.TargetCurrency {
		if err := e.convertEntry(&entry); err != nil {
			return types.NormalizedCostEntry{}, err
		}
	}
	return entry, nil
}

// convertEntry converts every non-zero bucket into the target currency.
// A conversion failure fails the record; no partial entry is emitted.
func (e *Engine) convertEntry(entry *types.NormalizedCostEntry) error {
	target := e.opts.TargetCurrency
	for _, bucket := range []*types.Money{
		&entry.Costs.Compute, &entry.Costs.Storage, &entry.Costs.Network, &entry.Costs.Other,
	} {
		if bucket.IsZero() {
			bucket.Currency = target
			continue
		}
		converted, err := e.converter.Convert(*bucket, target)
		if err != nil {
			return err
		}
		*bucket = converted
	}
	entry.Currency = target
	return nil
}

func (e *Engine) allocation(raw RawRecord, s fieldSchema) types.CostAllocation {
	tags := raw.tagMap(s.tags)
	alloc := types.CostAllocation{
		Project:     raw.stringOr(s.project, ""),
		CostCenter:  raw.stringOr(s.costCenter, ""),
		Environment: raw.stringOr(s.environment, ""),
		Tags:        tags,
	}
	// Tag-level attribution fills gaps left by top-level fields.
	if alloc.Project == "" {
		alloc.Project = firstTag(tags, "project", "Project")
	}
	if alloc.CostCenter == "" {
		alloc.CostCenter = firstTag(tags, "cost-center", "CostCenter")
	}
	if alloc.Environment == "" {
		alloc.Environment = firstTag(tags, "environment", "Environment", "env")
	}
	return alloc
}

// entryID builds the deterministic id {provider}-{resource_id}-{start_iso}
func entryID(provider types.Provider, resourceID string, start time.Time) string {
	return fmt.Sprintf("%s-%s-%s", provider, resourceID, start.UTC().Format(time.RFC3339))
}

func billingType(raw string) types.BillingType {
	switch raw {
	case "Reserved", "reserved":
		return types.BillingReserved
	case "Spot", "spot", "preemptible":
		return types.BillingSpot
	case "usage", "Usage":
		return types.BillingUsage
	default:
		return types.BillingOnDemand
	}
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := tags[k]; ok {
			return v
		}
	}
	return ""
}

// fieldSchema names the provider-native keys a record is read through
type fieldSchema struct {
	resourceType string
	resourceID   string
	name         string
	cost         string
	currency     string
	region       string
	accountID    string
	billing      string
	project      string
	costCenter   string
	environment  string
	tags         string
}

func schemaFor(provider types.Provider) fieldSchema {
	switch provider {
	case types.ProviderAzure:
		return fieldSchema{
			resourceType: "serviceName",
			resourceID:   "resourceId",
			name:         "resourceName",
			cost:         "costInBillingCurrency",
			currency:     "billingCurrency",
			region:       "resourceLocation",
			accountID:    "subscriptionId",
			billing:      "pricingModel",
			project:      "resourceGroup",
			costCenter:   "costCenter",
			tags:         "tags",
		}
	case types.ProviderGCP:
		return fieldSchema{
			resourceType: "service",
			resourceID:   "resourceId",
			name:         "resourceName",
			cost:         "cost",
			currency:     "currency",
			region:       "region",
			accountID:    "billingAccountId",
			billing:      "usageType",
			project:      "project",
			tags:         "labels",
		}
	default: // AWS cost and usage report naming
		return fieldSchema{
			resourceType: "ResourceType",
			resourceID:   "ResourceId",
			name:         "ResourceName",
			cost:         "UnblendedCost",
			currency:     "Currency",
			region:       "Region",
			accountID:    "AccountId",
			billing:      "PurchaseOption",
			tags:         "Tags",
		}
	}
}

func (r RawRecord) stringField(key string) (string, error) {
	v, ok := r[key]
	if !ok {
		return "", fmt.Errorf("field %q not present", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("field %q is not a non-empty string", key)
	}
	return s, nil
}

func (r RawRecord) stringOr(key, fallback string) string {
	if key == "" {
		return fallback
	}
	if s, ok := r[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// decimalField reads a cost amount as exact decimal. String amounts parse
// directly; JSON numbers convert through their literal representation.
func (r RawRecord) decimalField(key string) (decimal.Decimal, error) {
	v, ok := r[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("field %q not present", key)
	}
	switch n := v.(type) {
	case string:
		return decimal.NewFromString(n)
	case decimal.Decimal:
		return n, nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case float64:
		return decimal.NewFromFloat(n), nil
	default:
		return decimal.Zero, fmt.Errorf("field %q has unsupported type %T", key, v)
	}
}

func (r RawRecord) tagMap(key string) map[string]string {
	if key == "" {
		return nil
	}
	switch m := r[key].(type) {
	case map[string]string:
		return m
	case map[string]interface{}:
		tags := make(map[string]string, len(m))
		for k, v := range m {
			if s, ok := v.(string); ok {
				tags[k] = s
			}
		}
		return tags
	default:
		return nil
	}
}
