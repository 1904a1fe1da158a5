package recommend

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

// migrationSavingsFloor is the fraction of current cost a migration must
// save before it is worth recommending.
var migrationSavingsFloor = decimal.NewFromFloat(0.10)

// geoPeers maps a provider region to the equivalent regions of the other
// providers. Migration comparisons only run for regions listed here.
var geoPeers = map[types.Region]map[types.Provider]types.Region{
	"us-east-1":    {types.ProviderAWS: "us-east-1", types.ProviderAzure: "eastus", types.ProviderGCP: "us-east1"},
	"eastus":       {types.ProviderAWS: "us-east-1", types.ProviderAzure: "eastus", types.ProviderGCP: "us-east1"},
	"us-east1":     {types.ProviderAWS: "us-east-1", types.ProviderAzure: "eastus", types.ProviderGCP: "us-east1"},
	"us-west-2":    {types.ProviderAWS: "us-west-2", types.ProviderAzure: "westus2", types.ProviderGCP: "us-central1"},
	"westus2":      {types.ProviderAWS: "us-west-2", types.ProviderAzure: "westus2", types.ProviderGCP: "us-central1"},
	"us-central1":  {types.ProviderAWS: "us-west-2", types.ProviderAzure: "westus2", types.ProviderGCP: "us-central1"},
	"eu-west-1":    {types.ProviderAWS: "eu-west-1", types.ProviderAzure: "westeurope", types.ProviderGCP: "europe-west1"},
	"westeurope":   {types.ProviderAWS: "eu-west-1", types.ProviderAzure: "westeurope", types.ProviderGCP: "europe-west1"},
	"europe-west1": {types.ProviderAWS: "eu-west-1", types.ProviderAzure: "westeurope", types.ProviderGCP: "europe-west1"},
}

// migration compares equivalent capacity on the other providers in the
// same geography and recommends a move when the savings clear the floor.
func (e *Engine) migration(ctx context.Context, res types.Resource, shape types.VmInstanceType) (types.Recommendation, bool, error) {
	peers, ok := geoPeers[res.Region]
	if !ok {
		return types.Recommendation{}, false, nil
	}

	var candidates []types.Provider
	for _, p := range e.registry.Providers() {
		if p == res.Provider {
			continue
		}
		if _, ok := peers[p]; ok {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return types.Recommendation{}, false, nil
	}

	adapter, err := e.registry.Get(res.Provider)
	if err != nil {
		return types.Recommendation{}, false, err
	}
	current, err := e.currentMonthlyCost(ctx, adapter, res, shape)
	if err != nil {
		return types.Recommendation{}, false, err
	}

	req := types.VmRequirements{
		Region:         res.Region,
		MinVCPUs:       shape.VCPUs,
		MinMemoryGB:    shape.MemoryGB,
		OS:             types.OSLinux,
		PurchaseOption: types.PurchaseOnDemand,
	}
	result, err := e.compare.CompareVm(ctx, req, types.ComparisonFilters{
		Providers: candidates,
		Regions:   peers,
	})
	if err != nil {
		// Nothing comparable elsewhere is a clean no-recommendation
		if errors.IsType(err, errors.TypeNoMatchingOptions) {
			return types.Recommendation{}, false, nil
		}
		return types.Recommendation{}, false, err
	}

	best := result.Comparison.Recommended
	if best == nil {
		return types.Recommendation{}, false, nil
	}
	savings := current.Amount.Sub(best.MonthlyCost.Amount)
	if savings.LessThan(current.Amount.Mul(migrationSavingsFloor)) {
		return types.Recommendation{}, false, nil
	}

	proposed := best.MonthlyCost
	savingsMoney := types.NewMoney(savings, current.Currency)
	rec := e.newRecommendation(types.RecommendationMigration, best.Provider, best.Region)
	rec.ResourceID = res.ID
	rec.Summary = fmt.Sprintf("%s on %s %s costs %s less per month than %s",
		res.Name, best.Provider, best.OptionName, savingsMoney.Display(), shape.Name)
	rec.Action = fmt.Sprintf("migrate %s to %s %s in %s",
		res.ID, best.Provider, best.OptionName, best.Region)
	rec.CurrentMonthlyCost = &current
	rec.ProposedMonthlyCost = &proposed
	rec.MonthlySavings = &savingsMoney
	rec.Details = map[string]interface{}{
		"source_provider": res.Provider.String(),
		"target_option":   best.OptionName,
	}
	return rec, true, nil
}
