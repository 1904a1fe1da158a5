// Package cloud - Read-through caching for catalog and pricing queries.
// Cache keys combine (provider, region, query-shape); entries are
// read-only snapshots under the configured TTL. When a refresh fails
// after expiry, the last successful snapshot is served and flagged.
package cloud

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cloudcost/core/types"
	"cloudcost/internal/cache"
	"cloudcost/internal/logging"
)

// cachedAdapter decorates an Adapter with a TTL catalog cache. Cost
// queries and inventory reads pass through uncached.
type cachedAdapter struct {
	Adapter
	cache *cache.Cache
	log   *zap.Logger
}

// WithCache wraps an adapter with catalog caching
func WithCache(inner Adapter, ttl time.Duration) Adapter {
	return &cachedAdapter{
		Adapter: inner,
		cache:   cache.New(ttl),
		log:     logging.Named("catalog-cache." + inner.Provider().String()),
	}
}

func cached[T any](c *cachedAdapter, ctx context.Context, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, stale, err := c.cache.GetOrFetch(ctx, key, func(ctx context.Context) (interface{}, error) {
		return fetch(ctx)
	})
	if err != nil {
		return zero, err
	}
	if stale {
		c.log.Warn("serving stale catalog snapshot", zap.String("key", key))
	}
	return v.(T), nil
}

func (c *cachedAdapter) ListInstanceTypes(ctx context.Context, region types.Region) ([]types.VmInstanceType, error) {
	key := fmt.Sprintf("%s/%s/instance-types", c.Provider(), region)
	return cached(c, ctx, key, func(ctx context.Context) ([]types.VmInstanceType, error) {
		return c.Adapter.ListInstanceTypes(ctx, region)
	})
}

func (c *cachedAdapter) ListStorageOptions(ctx context.Context, storageType types.StorageType, region types.Region) ([]types.StorageOption, error) {
	key := fmt.Sprintf("%s/%s/storage-options/%s", c.Provider(), region, storageType)
	return cached(c, ctx, key, func(ctx context.Context) ([]types.StorageOption, error) {
		return c.Adapter.ListStorageOptions(ctx, storageType, region)
	})
}

func (c *cachedAdapter) ListNetworkOptions(ctx context.Context, serviceType types.NetworkServiceType, region types.Region) ([]types.NetworkOption, error) {
	key := fmt.Sprintf("%s/%s/network-options/%s", c.Provider(), region, serviceType)
	return cached(c, ctx, key, func(ctx context.Context) ([]types.NetworkOption, error) {
		return c.Adapter.ListNetworkOptions(ctx, serviceType, region)
	})
}

func (c *cachedAdapter) GetPricingData(ctx context.Context, region types.Region, currency types.Currency) ([]types.PricingData, error) {
	key := fmt.Sprintf("%s/%s/pricing-data/%s", c.Provider(), region, currency)
	return cached(c, ctx, key, func(ctx context.Context) ([]types.PricingData, error) {
		return c.Adapter.GetPricingData(ctx, region, currency)
	})
}

func (c *cachedAdapter) GetCapability(ctx context.Context, region types.Region) (types.ProviderCapability, error) {
	key := fmt.Sprintf("%s/%s/capability", c.Provider(), region)
	return cached(c, ctx, key, func(ctx context.Context) (types.ProviderCapability, error) {
		return c.Adapter.GetCapability(ctx, region)
	})
}
