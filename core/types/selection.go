// Package types - Selection policy, scoring, and result shapes
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScoreWeights maps scoring factors to fractions; fractions sum to 1.0
// within floating tolerance.
type ScoreWeights struct {
	Cost        float64 `json:"cost"`
	Performance float64 `json:"performance"`
	Compliance  float64 `json:"compliance"`
	Preference  float64 `json:"preference"`
}

// DefaultScoreWeights are the weights used when no policy overrides them
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Cost: 0.4, Performance: 0.3, Compliance: 0.2, Preference: 0.1}
}

// Sum returns the weight total
func (w ScoreWeights) Sum() float64 {
	return w.Cost + w.Performance + w.Compliance + w.Preference
}

// PolicyRule is a capability filter applied before scoring
type PolicyRule struct {
	Name string `json:"name"`

	// ExcludeProviders drops providers outright
	ExcludeProviders []Provider `json:"exclude_providers,omitempty"`

	// RequireFeatures drops providers missing any listed feature
	RequireFeatures []string `json:"require_features,omitempty"`

	// RequireCertifications drops providers missing any listed certification
	RequireCertifications []string `json:"require_certifications,omitempty"`
}

// SelectionPolicy overrides default weights and adds ordered rules
type SelectionPolicy struct {
	Name    string        `json:"name,omitempty"`
	Weights *ScoreWeights `json:"weights,omitempty"`

	// Rules apply in order as capability filters before scoring
	Rules []PolicyRule `json:"rules,omitempty"`

	// PreferredProviders score 1.0 on the preference factor
	PreferredProviders []Provider `json:"preferred_providers,omitempty"`

	// MaxAlternatives caps the alternatives list; 0 uses the engine default
	MaxAlternatives int `json:"max_alternatives,omitempty"`
}

// PerformanceScore rates a provider's delivery characteristics.
// Overall = 0.3*latency + 0.3*throughput + 0.2*reliability + 0.2*scalability.
type PerformanceScore struct {
	Latency     float64 `json:"latency"`
	Throughput  float64 `json:"throughput"`
	Reliability float64 `json:"reliability"`
	Scalability float64 `json:"scalability"`
	Overall     float64 `json:"overall"`
}

// ComplianceScore rates framework, certification, and feature coverage.
// Overall = 0.4*frameworks + 0.3*certifications + 0.3*features.
type ComplianceScore struct {
	Frameworks     float64 `json:"frameworks"`
	Certifications float64 `json:"certifications"`
	Features       float64 `json:"features"`
	Overall        float64 `json:"overall"`
}

// ProviderCapability is the capability sheet for one (provider, region)
type ProviderCapability struct {
	Provider Provider `json:"provider"`
	Region   Region   `json:"region"`

	// AvailabilitySLA as a percentage, e.g. 99.95
	AvailabilitySLA decimal.Decimal `json:"availability_sla"`

	Features             []string `json:"features,omitempty"`
	Certifications       []string `json:"certifications,omitempty"`
	ComplianceFrameworks []string `json:"compliance_frameworks,omitempty"`

	Performance PerformanceScore `json:"performance"`
}

// FactorScores holds the per-factor scores for one candidate
type FactorScores struct {
	Cost        float64 `json:"cost"`
	Performance float64 `json:"performance"`
	Compliance  float64 `json:"compliance"`
	Preference  float64 `json:"preference"`
	Total       float64 `json:"total"`
}

// SelectionCandidate is one scored placement option
type SelectionCandidate struct {
	Provider Provider     `json:"provider"`
	Region   Region       `json:"region"`
	Estimate CostEstimate `json:"estimate"`

	Capability ProviderCapability `json:"capability"`
	Scores     FactorScores       `json:"scores"`
}

/// SelectionResult is the selection engine's output: the chosen option,
// ranked alternatives, and the comparison matrix behind the decision.
type SelectionResult struct {
	Selected     SelectionCandidate   `json:"selected"`
	Alternatives []SelectionCandidate `json:"alternatives,omitempty"`

	Weights ScoreWeights `json:"weights"`

	// Matrix holds every scored candidate in rank order
	Matrix []SelectionCandidate `json:"matrix"`

	EvaluatedProviders []Provider    `json:"evaluated_providers"`
	ProcessingTime     time.Duration `json:"processing_time"`
	GeneratedAt        time.Time     `json:"generated_at"`

	// FromCache marks a warm-cache hit
	FromCache bool `json:"from_cache,omitempty"`
}
