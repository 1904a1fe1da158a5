// Package factory assembles the provider adapter registry from
// configuration. It decides live vs simulated per provider at startup
// and applies the retry and cache decorators in a fixed order.
package factory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cloudcost/adapters/cloud"
	"cloudcost/adapters/cloud/aws"
	"cloudcost/adapters/cloud/azure"
	"cloudcost/adapters/cloud/gcp"
	"cloudcost/adapters/cloud/simulated"
	"cloudcost/core/types"
	"cloudcost/internal/config"
	"cloudcost/internal/logging"
)

// Options tunes registry assembly
type Options struct {
	// Simulation serves fixture catalogs instead of live provider APIs
	Simulation bool

	// Providers limits which providers get adapters; empty means all
	Providers []types.Provider

	CacheTTL       time.Duration
	AdapterTimeout time.Duration
	MaxRetries     int
}

// FromConfig derives factory options from the application configuration
func FromConfig(cfg *config.Config) Options {
	return Options{
		Simulation:     cfg.SimulationMode,
		CacheTTL:       cfg.CacheTTL,
		AdapterTimeout: cfg.AdapterTimeout,
		MaxRetries:     cfg.MaxRetries,
	}
}

// Build constructs a registry with one decorated adapter per provider.
// Decoration order is cache over retry over the raw adapter, so cache
// misses go through the retry layer.
func Build(ctx context.Context, opts Options) (*cloud.Registry, error) {
	log := logging.Named("factory")
	registry := cloud.NewRegistry()

	providers := opts.Providers
	if len(providers) == 0 {
		providers = types.AllProviders()
	}

	retryCfg := cloud.DefaultRetryConfig()
	if opts.MaxRetries > 0 {
		retryCfg.MaxRetries = opts.MaxRetries
	}
	if opts.AdapterTimeout > 0 {
		retryCfg.Timeout = opts.AdapterTimeout
	}

	for _, provider := range providers {
		base, err := newAdapter(ctx, provider, opts.Simulation)
		if err != nil {
			return nil, err
		}

		adapter := cloud.WithRetry(base, retryCfg)
		if opts.CacheTTL > 0 {
			adapter = cloud.WithCache(adapter, opts.CacheTTL)
		}

		if err := registry.Register(adapter); err != nil {
			return nil, err
		}
		log.Info("registered provider adapter",
			zap.String("provider", provider.String()),
			zap.Bool("simulated", opts.Simulation))
	}

	return registry, nil
}

func newAdapter(ctx context.Context, provider types.Provider, simulation bool) (cloud.Adapter, error) {
	if simulation {
		return simulated.New(provider)
	}
	switch provider {
	case types.ProviderAWS:
		return aws.New(ctx)
	case types.ProviderAzure:
		return azure.New()
	case types.ProviderGCP:
		return gcp.New()
	default:
		return simulated.New(provider)
	}
}
