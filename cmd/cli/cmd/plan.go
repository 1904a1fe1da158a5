package cmd

import (
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"cloudcost/adapters/iac"
	"cloudcost/adapters/iac/cloudformation"
	"cloudcost/adapters/iac/terraform"
	"cloudcost/core/types"
)

var (
	planCloudFormation bool
	planRegion         string
)

// planEstimate is one plan resource with its comparison outcome
type planEstimate struct {
	Resource iac.PlanResource    `json:"resource"`
	Estimate *types.CostEstimate `json:"estimate,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// planOutput is the plan command result
type planOutput struct {
	Estimates    []planEstimate  `json:"estimates"`
	Warnings     []iac.Warning   `json:"warnings,omitempty"`
	Skipped      int             `json:"skipped"`
	MonthlyTotal decimal.Decimal `json:"monthly_total"`
	Currency     types.Currency  `json:"currency"`
}

var planCmd = &cobra.Command{
	Use:   "plan [path]",
	Short: "Estimate the cost of an infrastructure-as-code plan",
	Long: `plan parses a Terraform module directory (default) or a
CloudFormation template and prices each recognized resource on its own
provider, producing a per-resource estimate and a monthly total.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngines(cmd.Context())
		if err != nil {
			return err
		}

		var plan iac.Plan
		if planCloudFormation {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			plan, err = cloudformation.NewParser(cloudformation.Options{
				Region: types.Region(planRegion),
			}).Parse(src)
			if err != nil {
				return err
			}
		} else {
			plan, err = terraform.NewParser(terraform.Options{
				DefaultRegions: map[types.Provider]types.Region{
					types.ProviderAWS:   "us-east-1",
					types.ProviderAzure: "eastus",
					types.ProviderGCP:   "us-central1",
				},
			}).ParseDir(args[0])
			if err != nil {
				return err
			}
		}

		out := planOutput{
			Warnings: plan.Warnings,
			Skipped:  plan.Skipped,
			Currency: eng.cfg.DefaultCurrency,
		}
		for _, res := range plan.Resources {
			entry := planEstimate{Resource: res}
			estimate, err := estimateResource(cmd, eng, res)
			if err != nil {
				entry.Error = err.Error()
			} else {
				entry.Estimate = estimate
				out.MonthlyTotal = out.MonthlyTotal.Add(estimate.MonthlyCost.Amount)
			}
			out.Estimates = append(out.Estimates, entry)
		}
		return printJSON(out)
	},
}

// estimateResource prices one plan resource on its own provider
func estimateResource(cmd *cobra.Command, eng *engines, res iac.PlanResource) (*types.CostEstimate, error) {
	filters := types.ComparisonFilters{Providers: []types.Provider{res.Provider}}

	var result types.ComparisonResult
	var err error
	switch {
	case res.Vm != nil:
		result, err = eng.compare.CompareVm(cmd.Context(), *res.Vm, filters)
	case res.Storage != nil:
		result, err = eng.compare.CompareStorage(cmd.Context(), *res.Storage, filters)
	case res.Network != nil:
		result, err = eng.compare.CompareNetwork(cmd.Context(), *res.Network, filters)
	}
	if err != nil {
		return nil, err
	}
	return result.Comparison.Recommended, nil
}

func init() {
	planCmd.Flags().BoolVar(&planCloudFormation, "cloudformation", false, "parse a CloudFormation template instead of Terraform HCL")
	planCmd.Flags().StringVar(&planRegion, "region", "us-east-1", "region for CloudFormation resources")
}
