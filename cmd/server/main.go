// Package main - Entry point for the cloudcost API server
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"cloudcost/adapters/cloud/factory"
	"cloudcost/adapters/store/memory"
	"cloudcost/adapters/store/postgres"
	"cloudcost/api"
	"cloudcost/core/aggregate"
	"cloudcost/core/budget"
	"cloudcost/core/compare"
	"cloudcost/core/currency"
	"cloudcost/core/mapping"
	"cloudcost/core/normalize"
	"cloudcost/core/recommend"
	"cloudcost/core/selection"
	"cloudcost/internal/config"
	"cloudcost/internal/logging"
)

const version = "0.1.0"

func main() {
	addr := flag.String("addr", ":8080", "server address")
	cfgFile := flag.String("config", "", "config file path")
	flag.Parse()

	if err := run(*addr, *cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "cloudcost-server: %v\n", err)
		os.Exit(1)
	}
}

func run(addr, cfgFile string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		return err
	}
	defer logging.Sync()

	ctx := context.Background()
	registry, err := factory.Build(ctx, factory.FromConfig(cfg))
	if err != nil {
		return err
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

	var budgetStore budget.Store
	var inventory recommend.Inventory
	if cfg.PostgresDSN != "" {
		pg, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer pg.Close()
		budgetStore, inventory = pg, pg
	} else {
		mem := memory.New()
		budgetStore, inventory = mem, mem
	}

	budgets := budget.New(budgetStore, budget.Config{ForecastDataPoints: cfg.ForecastDataPoints})
	recs := recommend.New(inventory, registry, cmp, sel, recommend.Config{TTL: cfg.RecommendationTTL})

	server := api.NewServer(version, api.Deps{
		Compare:   cmp,
		Selection: sel,
		Normalize: norm,
		Aggregate: aggregate.NewEngine(),
		Budget:    budgets,
		Recommend: recs,
	})
	return server.ListenAndServe(addr)
}
