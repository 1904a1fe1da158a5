// Package cmd provides the CLI commands for cloudcost.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cloudcost/adapters/cloud"
	"cloudcost/adapters/cloud/factory"
	"cloudcost/core/aggregate"
	"cloudcost/core/compare"
	"cloudcost/core/currency"
	"cloudcost/core/mapping"
	"cloudcost/core/normalize"
	"cloudcost/core/selection"
	"cloudcost/internal/config"
	"cloudcost/internal/logging"
)

var (
	cfgFile    string
	verbose    bool
	simulation bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cloudcost",
	Short: "Compare, select, and track cloud costs across providers",
	Long: `cloudcost is a multi-cloud cost intelligence tool.

It normalizes provider-native billing data into a canonical model and
computes cross-provider comparisons, placement selections, aggregations,
and plan estimates.

Examples:
  cloudcost compare vm --region us-east-1 --vcpus 4 --memory 16
  cloudcost select --file requirements.json --budget 200
  cloudcost plan ./infrastructure
  cloudcost normalize --provider aws --file billing.json --group-by provider`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default reads CLOUDCOST_* environment)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&simulation, "simulation", false, "use bundled fixture catalogs instead of live provider APIs")

	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(budgetCmd)
	rootCmd.AddCommand(versionCmd)
}

func initLogging() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if simulation {
		cfg.SimulationMode = true
	}
	return cfg, nil
}

// engines bundles everything a command may need
type engines struct {
	cfg       *config.Config
	registry  *cloud.Registry
	compare   *compare.Engine
	selection *selection.Engine
	normalize *normalize.Engine
	aggregate *aggregate.Engine
}

func buildEngines(ctx context.Context) (*engines, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	registry, err := factory.Build(ctx, factory.FromConfig(cfg))
	if err != nil {
		return nil, err
	}

	cmp := compare.New(registry, cfg.ComparisonTimeout)
	sel := selection.New(registry, cmp, selection.Config{
		Timeout:                  cfg.SelectionTimeout,
		CacheTTL:                 cfg.CacheTTL,
		MaxAlternatives:          cfg.MaxAlternatives,
		MaxConcurrentEvaluations: cfg.MaxConcurrentEvaluations,
	})
	norm := normalize.NewEngine(mapping.MustDefaultRegistry(), currency.DefaultRates(), normalize.Options{
		TargetCurrency: cfg.DefaultCurrency,
	})

	return &engines{
		cfg:       cfg,
		registry:  registry,
		compare:   cmp,
		selection: sel,
		normalize: norm,
		aggregate: aggregate.NewEngine(),
	}, nil
}

// printJSON writes a result to stdout
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("cloudcost version 0.1.0")
	},
}
