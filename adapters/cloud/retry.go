// Package cloud - Retry and timeout decoration for adapters.
// Transient errors (throttling, 5xx) retry with exponential backoff;
// everything else surfaces immediately. Higher layers never retry a call
// the adapter surfaced as non-transient.
package cloud

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"cloudcost/core/types"
	"cloudcost/internal/errors"
	"cloudcost/internal/logging"
)

// RetryConfig tunes the retrying decorator
type RetryConfig struct {
	// MaxRetries bounds attempts beyond the first call
	MaxRetries int

	// Timeout bounds each individual adapter call
	Timeout time.Duration

	// InitialInterval seeds the exponential backoff
	InitialInterval time.Duration
}

// DefaultRetryConfig matches the configured platform defaults
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		Timeout:         10 * time.Second,
		InitialInterval: 200 * time.Millisecond,
	}
}

// retryingAdapter decorates an Adapter with per-call timeouts and backoff
type retryingAdapter struct {
	inner Adapter
	cfg   RetryConfig
	log   *zap.Logger
}

// WithRetry wraps an adapter with retry/timeout behavior
func WithRetry(inner Adapter, cfg RetryConfig) Adapter {
	return &retryingAdapter{
		inner: inner,
		cfg:   cfg,
		log:   logging.Named("adapter." + inner.Provider().String()),
	}
}

func (r *retryingAdapter) Provider() types.Provider { return r.inner.Provider() }
func (r *retryingAdapter) SupportedRegions() []string { return r.inner.SupportedRegions() }

// do runs fn with a per-attempt timeout, retrying transient failures
func do[T any](r *retryingAdapter, ctx context.Context, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(r.cfg.InitialInterval),
		),
		uint64(r.cfg.MaxRetries),
	), ctx)

	var result T
	err := backoff.Retry(func() error {
		callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()

		v, err := fn(callCtx)
		if err != nil {
			if errors.IsTransient(err) {
				r.log.Warn("transient adapter error, retrying",
					zap.String("op", op), zap.Error(err))
				return err
			}
			return backoff.Permanent(err)
		}
		result = v
		return nil
	}, policy)
	if err != nil {
		return zero, err
	}
	return result, nil
}

func (r *retryingAdapter) ListInstanceTypes(ctx context.Context, region types.Region) ([]types.VmInstanceType, error) {
	return do(r, ctx, "list_instance_types", func(ctx context.Context) ([]types.VmInstanceType, error) {
		return r.inner.ListInstanceTypes(ctx, region)
	})
}

func (r *retryingAdapter) ListStorageOptions(ctx context.Context, storageType types.StorageType, region types.Region) ([]types.StorageOption, error) {
	return do(r, ctx, "list_storage_options", func(ctx context.Context) ([]types.StorageOption, error) {
		return r.inner.ListStorageOptions(ctx, storageType, region)
	})
}

func (r *retryingAdapter) ListNetworkOptions(ctx context.Context, serviceType types.NetworkServiceType, region types.Region) ([]types.NetworkOption, error) {
	return do(r, ctx, "list_network_options", func(ctx context.Context) ([]types.NetworkOption, error) {
		return r.inner.ListNetworkOptions(ctx, serviceType, region)
	})
}

func (r *retryingAdapter) GetComputeCosts(ctx context.Context, instanceType string, region types.Region, os types.OperatingSystem, purchase types.PurchaseOption) (CostBundle, error) {
	return do(r, ctx, "get_compute_costs", func(ctx context.Context) (CostBundle, error) {
		return r.inner.GetComputeCosts(ctx, instanceType, region, os, purchase)
	})
}

func (r *retryingAdapter) GetStorageCosts(ctx context.Context, q StorageCostQuery) (CostBundle, error) {
	return do(r, ctx, "get_storage_costs", func(ctx context.Context) (CostBundle, error) {
		return r.inner.GetStorageCosts(ctx, q)
	})
}

func (r *retryingAdapter) GetNetworkCosts(ctx context.Context, q NetworkCostQuery) (CostBundle, error) {
	return do(r, ctx, "get_network_costs", func(ctx context.Context) (CostBundle, error) {
		return r.inner.GetNetworkCosts(ctx, q)
	})
}

func (r *retryingAdapter) GetPricingData(ctx context.Context, region types.Region, currency types.Currency) ([]types.PricingData, error) {
	return do(r, ctx, "get_pricing_data", func(ctx context.Context) ([]types.PricingData, error) {
		return r.inner.GetPricingData(ctx, region, currency)
	})
}

func (r *retryingAdapter) GetResources(ctx context.Context, q ResourceQuery) ([]types.ResourceConfiguration, error) {
	return do(r, ctx, "get_resources", func(ctx context.Context) ([]types.ResourceConfiguration, error) {
		return r.inner.GetResources(ctx, q)
	})
}

func (r *retryingAdapter) GetMetrics(ctx context.Context, resourceID string) (types.ResourceMetrics, error) {
	return do(r, ctx, "get_metrics", func(ctx context.Context) (types.ResourceMetrics, error) {
		return r.inner.GetMetrics(ctx, resourceID)
	})
}

func (r *retryingAdapter) GetCost(ctx context.Context, resourceID string) (types.ResourceCost, error) {
	return do(r, ctx, "get_cost", func(ctx context.Context) (types.ResourceCost, error) {
		return r.inner.GetCost(ctx, resourceID)
	})
}

func (r *retryingAdapter) GetCapability(ctx context.Context, region types.Region) (types.ProviderCapability, error) {
	return do(r, ctx, "get_capability", func(ctx context.Context) (types.ProviderCapability, error) {
		return r.inner.GetCapability(ctx, region)
	})
}
