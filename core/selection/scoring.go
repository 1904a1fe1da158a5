package selection

import (
	"sort"

	"github.com/shopspring/decimal"

	"cloudcost/core/types"
)

var hundred = decimal.NewFromInt(100)

// filterCapabilities applies SLA, compliance, feature, certification,
// and policy-rule constraints, returning the surviving providers.
func filterCapabilities(capabilities map[types.Provider]types.ProviderCapability, req types.SelectionRequirements, policy *types.SelectionPolicy) map[types.Provider]types.ProviderCapability {
	eligible := make(map[types.Provider]types.ProviderCapability)

	requiredFeatures, requiredCerts := classRequirements(req)

	for provider, capability := range capabilities {
		if req.MinAvailabilitySLA != nil && capability.AvailabilitySLA.LessThan(*req.MinAvailabilitySLA) {
			continue
		}
		if !subset(capability.ComplianceFrameworks, req.ComplianceFrameworks) {
			continue
		}
		if !subset(capability.Features, requiredFeatures) {
			continue
		}
		if !subset(capability.Certifications, requiredCerts) {
			continue
		}
		if policy != nil && excludedByPolicy(provider, capability, policy) {
			continue
		}
		eligible[provider] = capability
	}
	return eligible
}

// classRequirements pulls the feature/certification demands off the
// active class requirement.
func classRequirements(req types.SelectionRequirements) ([]string, []string) {
	switch {
	case req.Vm != nil:
		return req.Vm.RequiredFeatures, req.Vm.RequiredCertifications
	case req.Storage != nil:
		return req.Storage.RequiredFeatures, req.Storage.RequiredCertifications
	case req.Network != nil:
		return req.Network.RequiredFeatures, req.Network.RequiredCertifications
	}
	return nil, nil
}

func excludedByPolicy(provider types.Provider, capability types.ProviderCapability, policy *types.SelectionPolicy) bool {
	for _, rule := range policy.Rules {
		for _, excluded := range rule.ExcludeProviders {
			if excluded == provider {
				return true
			}
		}
		if !subset(capability.Features, rule.RequireFeatures) {
			return true
		}
		if !subset(capability.Certifications, rule.RequireCertifications) {
			return true
		}
	}
	return false
}

func subset(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[h] = true
	}
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return true
}

// score computes per-factor and total scores for every estimate
func score(estimates []types.CostEstimate, capabilities map[types.Provider]types.ProviderCapability, req types.SelectionRequirements, weights types.ScoreWeights, preferred []types.Provider) []types.SelectionCandidate {
	costScores := costScoresFor(estimates, req.MaxMonthlyBudget)

	candidates := make([]types.SelectionCandidate, 0, len(estimates))
	for i, est := range estimates {
		capability := capabilities[est.Provider]

		perf := performanceScore(capability.Performance)
		compliance := complianceScore(capability, req)
		pref := preferenceScore(est.Provider, preferred)

		scores := types.FactorScores{
			Cost:        costScores[i],
			Performance: perf.Overall,
			Compliance:  compliance.Overall,
			Preference:  pref,
		}
		scores.Total = weights.Cost*scores.Cost +
			weights.Performance*scores.Performance +
			weights.Compliance*scores.Compliance +
			weights.Preference*scores.Preference

		capability.Performance = perf
		candidates = append(candidates, types.SelectionCandidate{
			Provider:   est.Provider,
			Region:     est.Region,
			Estimate:   est,
			Capability: capability,
			Scores:     scores,
		})
	}
	return candidates
}

// costScoresFor normalizes cost into [0, 1]. With a budget set the
// score is 1 - cost/budget clamped; without one, costs normalize
// relative to the candidate set (cheapest 1, priciest 0).
func costScoresFor(estimates []types.CostEstimate, budget *decimal.Decimal) []float64 {
	out := make([]float64, len(estimates))
	if budget != nil {
		for i, est := range estimates {
			ratio, _ := est.MonthlyCost.Amount.Div(*budget).Float64()
			score := 1 - ratio
			if score < 0 {
				score = 0
			}
			if score > 1 {
				score = 1
			}
			out[i] = score
		}
		return out
	}

	min := estimates[0].MonthlyCost.Amount
	max := estimates[0].MonthlyCost.Amount
	for _, est := range estimates[1:] {
		if est.MonthlyCost.Amount.LessThan(min) {
			min = est.MonthlyCost.Amount
		}
		if est.MonthlyCost.Amount.GreaterThan(max) {
			max = est.MonthlyCost.Amount
		}
	}
	span := max.Sub(min)
	for i, est := range estimates {
		if span.IsZero() {
			out[i] = 1
			continue
		}
		ratio, _ := max.Sub(est.MonthlyCost.Amount).Div(span).Float64()
		out[i] = ratio
	}
	return out
}

// performanceScore folds the sub-factors 0.3/0.3/0.2/0.2 into an overall
func performanceScore(p types.PerformanceScore) types.PerformanceScore {
	p.Overall = 0.3*p.Latency + 0.3*p.Throughput + 0.2*p.Reliability + 0.2*p.Scalability
	return p
}

// complianceScore rates framework, certification, and feature coverage
// against the requirements, 0.4/0.3/0.3.
func complianceScore(capability types.ProviderCapability, req types.SelectionRequirements) types.ComplianceScore {
	requiredFeatures, requiredCerts := classRequirements(req)
	s := types.ComplianceScore{
		Frameworks:     coverage(capability.ComplianceFrameworks, req.ComplianceFrameworks),
		Certifications: coverage(capability.Certifications, requiredCerts),
		Features:       coverage(capability.Features, requiredFeatures),
	}
	s.Overall = 0.4*s.Frameworks + 0.3*s.Certifications + 0.3*s.Features
	return s
}

// coverage is the fraction of wanted items present; no wants scores 1
func coverage(have, want []string) float64 {
	if len(want) == 0 {
		return 1
	}
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[h] = true
	}
	hit := 0
	for _, w := range want {
		if set[w] {
			hit++
		}
	}
	return float64(hit) / float64(len(want))
}

// preferenceScore is 1 for preferred providers, 0 for the rest, and a
// neutral 0.5 when no preference is set.
func preferenceScore(provider types.Provider, preferred []types.Provider) float64 {
	if len(preferred) == 0 {
		return 0.5
	}
	for _, p := range preferred {
		if p == provider {
			return 1
		}
	}
	return 0
}

// rankCandidates orders by total score descending; ties break by lowest
// monthly cost, preference order, then provider name.
func rankCandidates(candidates []types.SelectionCandidate, preferred []types.Provider) {
	prefIndex := make(map[types.Provider]int, len(preferred))
	for i, p := range preferred {
		prefIndex[p] = i
	}
	prefRank := func(p types.Provider) int {
		if i, ok := prefIndex[p]; ok {
			return i
		}
		return len(preferred)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Scores.Total != candidates[j].Scores.Total {
			return candidates[i].Scores.Total > candidates[j].Scores.Total
		}
		cmp := candidates[i].Estimate.MonthlyCost.Amount.Cmp(candidates[j].Estimate.MonthlyCost.Amount)
		if cmp != 0 {
			return cmp < 0
		}
		pi, pj := prefRank(candidates[i].Provider), prefRank(candidates[j].Provider)
		if pi != pj {
			return pi < pj
		}
		return candidates[i].Provider < candidates[j].Provider
	})
}
