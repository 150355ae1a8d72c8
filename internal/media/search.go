package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"harmonia/internal/provider"
)

// searchCacheTTL is how long fanned-out search results are cached, keyed
// by (provider, media_type, sanitised_query, limit).
const searchCacheTTL = 7 * 24 * time.Hour

// Search fans a query out to every SEARCH-capable provider the caller scopes
// to (or all of them when providerOrDomain is empty), caching results for
// 7 days. Filesystem provider results are never cached.
func (c *Controller[T]) Search(ctx context.Context, query, providerOrDomain string, limit int, searchFn func(ctx context.Context, p provider.Provider, query string, limit int) ([]T, error)) ([]T, error) {
	providers := c.registry.ProvidersSupporting(provider.CapabilitySearch)
	if providerOrDomain != "" {
		var scoped []provider.Provider
		for _, p := range providers {
			if p.InstanceID() == providerOrDomain || p.Domain() == providerOrDomain {
				scoped = append(scoped, p)
			}
		}
		providers = scoped
	}

	sanitised := strings.ToLower(strings.TrimSpace(query))
	key := fmt.Sprintf("search:%s:%s:%s:%d", providerOrDomain, c.mediaType, sanitised, limit)

	cacheable := true
	for _, p := range providers {
		if p.Type() == provider.TypeFilesystem {
			cacheable = false
		}
	}

	if cacheable && c.cache != nil {
		var cached []T
		if err := c.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	var results []T
	for _, p := range providers {
		hits, err := searchFn(ctx, p, query, limit)
		if err != nil {
			c.logger.Warn("search fan-out failed", zap.String("provider", p.InstanceID()), zap.Error(err))
			continue
		}
		results = append(results, hits...)
	}

	if cacheable && c.cache != nil {
		if err := c.cache.Set(ctx, key, results, searchCacheTTL); err != nil {
			c.logger.Warn("search cache write failed", zap.Error(err))
		}
	}

	return results, nil
}

// versionQuery builds the "{artist} - {name}[, version]" query
// versions()/match-job search uses.
func versionQuery(artist, name, version string) string {
	q := fmt.Sprintf("%s - %s", artist, name)
	if version != "" {
		q += ", " + version
	}
	return q
}
