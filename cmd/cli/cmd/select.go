package cmd

import (
	"encoding/json"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

var (
	selectFile   string
	selectPolicy string
	selectBudget float64
	selectName   string
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Pick the best placement across providers",
	Long: `select evaluates requirements against every registered provider:
capability filtering, cost estimation, and weighted multi-factor scoring.

The requirements file holds a JSON SelectionRequirements object; the
optional policy file holds a SelectionPolicy with weights and rules.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildEngines(cmd.Context())
		if err != nil {
			return err
		}

		var req types.SelectionRequirements
		if err := readJSONFile(selectFile, &req); err != nil {
			return err
		}
		if selectBudget > 0 {
			budget := decimal.NewFromFloat(selectBudget)
			req.MaxMonthlyBudget = &budget
		}

		var policy *types.SelectionPolicy
		if selectPolicy != "" {
			policy = &types.SelectionPolicy{}
			if err := readJSONFile(selectPolicy, policy); err != nil {
				return err
			}
		}

		result, err := eng.selection.Select(cmd.Context(), selectName, req, policy)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func readJSONFile(path string, into interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.TypeValidation, "reading "+path, err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return errors.Wrap(errors.TypeParsing, "parsing "+path, err)
	}
	return nil
}

func init() {
	selectCmd.Flags().StringVarP(&selectFile, "file", "f", "requirements.json", "requirements file")
	selectCmd.Flags().StringVar(&selectPolicy, "policy", "", "selection policy file")
	selectCmd.Flags().Float64Var(&selectBudget, "budget", 0, "maximum monthly budget")
	selectCmd.Flags().StringVar(&selectName, "name", "cli", "evaluation name (keys the concurrency cap)")
}
