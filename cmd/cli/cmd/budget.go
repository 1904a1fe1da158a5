package cmd

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"cloudcost/adapters/store/memory"
	"cloudcost/adapters/store/postgres"
	"cloudcost/core/budget"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

var (
	budgetName       string
	budgetAmount     string
	budgetCurrency   string
	budgetPeriod     string
	budgetThresholds []string
	budgetID         string
	budgetSpend      string
	budgetHistory    string
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Manage budgets, alerts, and forecasts",
	Long: `budget manages spend budgets against the configured store.
With CLOUDCOST_POSTGRES_DSN set, budgets persist in PostgreSQL;
otherwise an in-memory store backs a single invocation.`,
}

func buildBudgetEngine(ctx context.Context) (*budget.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	var store budget.Store
	if cfg.PostgresDSN != "" {
		pg, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		store = pg
	} else {
		store = memory.New()
	}
	return budget.New(store, budget.Config{ForecastDataPoints: cfg.ForecastDataPoints}), nil
}

var budgetCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a budget",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildBudgetEngine(cmd.Context())
		if err != nil {
			return err
		}
		amount, err := decimal.NewFromString(budgetAmount)
		if err != nil {
			return errors.Validation("amount", budgetAmount, "must be a decimal")
		}
		b := types.Budget{
			Name:   budgetName,
			Amount: types.NewMoney(amount, types.Currency(strings.ToUpper(budgetCurrency))),
			Period: types.BudgetPeriod(budgetPeriod),
		}
		for _, raw := range budgetThresholds {
			pct, err := decimal.NewFromString(raw)
			if err != nil {
				return errors.Validation("thresholds", raw, "must be decimal percentages")
			}
			b.Thresholds = append(b.Thresholds, types.BudgetThreshold{Percentage: pct})
		}
		created, err := eng.Create(cmd.Context(), b)
		if err != nil {
			return err
		}
		return printJSON(created)
	},
}

var budgetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List budgets",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildBudgetEngine(cmd.Context())
		if err != nil {
			return err
		}
		budgets, err := eng.List(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(budgets)
	},
}

var budgetEvaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate spend against a budget's thresholds",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildBudgetEngine(cmd.Context())
		if err != nil {
			return err
		}
		spend, err := decimal.NewFromString(budgetSpend)
		if err != nil {
			return errors.Validation("spend", budgetSpend, "must be a decimal")
		}
		alerts, err := eng.Evaluate(cmd.Context(), budgetID,
			types.NewMoney(spend, types.Currency(strings.ToUpper(budgetCurrency))))
		if err != nil {
			return err
		}
		return printJSON(alerts)
	},
}

var budgetForecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Project spend to the end of the current period",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildBudgetEngine(cmd.Context())
		if err != nil {
			return err
		}
		var history []types.ForecastPoint
		if err := readJSONFile(budgetHistory, &history); err != nil {
			return err
		}
		forecast, err := eng.Forecast(cmd.Context(), budgetID, history)
		if err != nil {
			return err
		}
		return printJSON(forecast)
	},
}

var budgetDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a budget and its alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := buildBudgetEngine(cmd.Context())
		if err != nil {
			return err
		}
		return eng.Delete(cmd.Context(), budgetID)
	},
}

func init() {
	budgetCreateCmd.Flags().StringVar(&budgetName, "name", "", "budget name")
	budgetCreateCmd.Flags().StringVar(&budgetAmount, "amount", "", "budget amount")
	budgetCreateCmd.Flags().StringVar(&budgetPeriod, "period", "monthly", "period (monthly, quarterly, annually)")
	budgetCreateCmd.Flags().StringSliceVar(&budgetThresholds, "thresholds", []string{"50", "80", "100"}, "alert threshold percentages")

	budgetEvaluateCmd.Flags().StringVar(&budgetID, "id", "", "budget id")
	budgetEvaluateCmd.Flags().StringVar(&budgetSpend, "spend", "", "current spend")

	budgetForecastCmd.Flags().StringVar(&budgetID, "id", "", "budget id")
	budgetForecastCmd.Flags().StringVar(&budgetHistory, "history", "history.json", "spend history file")

	budgetDeleteCmd.Flags().StringVar(&budgetID, "id", "", "budget id")

	for _, c := range []*cobra.Command{budgetCreateCmd, budgetEvaluateCmd} {
		c.Flags().StringVar(&budgetCurrency, "currency", "USD", "ISO 4217 currency")
	}

	budgetCmd.AddCommand(budgetCreateCmd)
	budgetCmd.AddCommand(budgetListCmd)
	budgetCmd.AddCommand(budgetEvaluateCmd)
	budgetCmd.AddCommand(budgetForecastCmd)
	budgetCmd.AddCommand(budgetDeleteCmd)
}
