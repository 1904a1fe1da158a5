// Package types defines core domain types shared across all layers.
// This package contains NO business logic - only type definitions.
package types

import (
	"github.com/shopspring/decimal"
)

// Provider represents a cloud provider
type Provider string

const (
	ProviderAWS     Provider = "aws"
	ProviderAzure   Provider = "azure"
	ProviderGCP     Provider = "gcp"
	ProviderUnknown Provider = "unknown"
)

// String returns the string representation of the provider
func (p Provider) String() string {
	return string(p)
}

// IsValid checks if the provider is a known provider
func (p Provider) IsValid() bool {
	switch p {
	case ProviderAWS, ProviderAzure, ProviderGCP:
		return true
	default:
		return false
	}
}

// AllProviders returns the closed set of supported providers
func AllProviders() []Provider {
	return []Provider{ProviderAWS, ProviderAzure, ProviderGCP}
}

// Region represents a cloud region. The (provider, region) tuple locates
// a catalog scope.
type Region string

// String returns the string representation
func (r Region) String() string {
	return string(r)
}

// Currency represents an ISO 4217 currency code
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyINR Currency = "INR"
	CurrencyJPY Currency = "JPY"
)

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}

// Money pairs an exact-decimal amount with a currency.
// All cost arithmetic uses decimal; floats are forbidden on cost paths.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

// NewMoney creates a Money value
func NewMoney(amount decimal.Decimal, currency Currency) Money {
	return Money{Amount: amount, Currency: currency}
}

// ZeroMoney returns a zero amount in the given currency
func ZeroMoney(currency Currency) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// Add returns the sum of two Money values. Callers are responsible for
// converting to a single currency first; Add keeps the receiver currency.
func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}
}

// Mul multiplies the amount by a decimal factor
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(factor), Currency: m.Currency}
}

// IsZero reports whether the amount is zero
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Display renders the amount rounded to 2 fractional digits using
// banker's rounding. Rounding happens only here, never in cost math.
func (m Money) Display() string {
	return m.Amount.RoundBank(2).StringFixed(2) + " " + string(m.Currency)
}

// ResourceType is the canonical provider-neutral resource classification
type ResourceType string

const (
	ResourceTypeCompute      ResourceType = "compute"
	ResourceTypeStorage      ResourceType = "storage"
	ResourceTypeNetwork      ResourceType = "network"
	ResourceTypeDatabase     ResourceType = "database"
	ResourceTypeContainer    ResourceType = "container"
	ResourceTypeServerless   ResourceType = "serverless"
	ResourceTypeCache        ResourceType = "cache"
	ResourceTypeQueue        ResourceType = "queue"
	ResourceTypeLoadBalancer ResourceType = "load_balancer"
	ResourceTypeDNS          ResourceType = "dns"
	ResourceTypeCDN          ResourceType = "cdn"
	ResourceTypeMonitoring   ResourceType = "monitoring"
	ResourceTypeSecurity     ResourceType = "security"
	ResourceTypeIAM          ResourceType = "iam"
	ResourceTypeOther        ResourceType = "other"
)

// String returns the string representation
func (t ResourceType) String() string {
	return string(t)
}

// IsValid checks membership in the canonical enumeration
func (t ResourceType) IsValid() bool {
	switch t {
	case ResourceTypeCompute, ResourceTypeStorage, ResourceTypeNetwork,
		ResourceTypeDatabase, ResourceTypeContainer, ResourceTypeServerless,
		ResourceTypeCache, ResourceTypeQueue, ResourceTypeLoadBalancer,
		ResourceTypeDNS, ResourceTypeCDN, ResourceTypeMonitoring,
		ResourceTypeSecurity, ResourceTypeIAM, ResourceTypeOther:
		return true
	default:
		return false
	}
}

// BillingType describes how a resource is billed
type BillingType string

const (
	BillingOnDemand BillingType = "on_demand"
	BillingReserved BillingType = "reserved"
	BillingSpot     BillingType = "spot"
	BillingUsage    BillingType = "usage"
)

// OperatingSystem is the core's OS enumeration; adapters translate to
// provider-native strings internally.
type OperatingSystem string

const (
	OSLinux   OperatingSystem = "linux"
	OSWindows OperatingSystem = "windows"
)

// PurchaseOption is the core's purchase model enumeration
type PurchaseOption string

const (
	PurchaseOnDemand PurchaseOption = "on_demand"
	PurchaseReserved PurchaseOption = "reserved"
	PurchaseSpot     PurchaseOption = "spot"
)

// StorageClass discriminates storage offerings
type StorageClass string

const (
	StorageClassStandard StorageClass = "standard"
	StorageClassPremium  StorageClass = "premium"
	StorageClassArchive  StorageClass = "archive"
	StorageClassCold     StorageClass = "cold"
)

// StorageType discriminates the storage service shape
type StorageType string

const (
	StorageTypeBlock  StorageType = "block"
	StorageTypeObject StorageType = "object"
	StorageTypeFile   StorageType = "file"
)

// ReplicationType discriminates replication offerings
type ReplicationType string

const (
	ReplicationNone        ReplicationType = "none"
	ReplicationLocal       ReplicationType = "local"
	ReplicationZonal       ReplicationType = "zonal"
	ReplicationRegional    ReplicationType = "regional"
	ReplicationCrossRegion ReplicationType = "cross_region"
)

// NetworkServiceType discriminates network offerings
type NetworkServiceType string

const (
	NetworkLoadBalancer   NetworkServiceType = "load_balancer"
	NetworkVPN            NetworkServiceType = "vpn"
	NetworkNATGateway     NetworkServiceType = "nat_gateway"
	NetworkTransitGateway NetworkServiceType = "transit_gateway"
	NetworkDNS            NetworkServiceType = "dns"
	NetworkCDN            NetworkServiceType = "cdn"
)

// HoursPerMonth is the canonical hour count used to convert hourly rates
// to monthly costs.
const HoursPerMonth = 730

// SecondsPerMonth converts requests/second into monthly request counts.
const SecondsPerMonth = 2592000
