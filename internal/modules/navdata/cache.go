package navdata

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/navstats/internal/domain"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// DefaultCacheSize is the number of fetched ranges kept by CachedSource
const DefaultCacheSize = 256

// CachedSource keeps recently fetched series in an LRU cache keyed by entity and range.
// Callers receive copies, so cached observations are never shared.
type CachedSource struct {
	source domain.SeriesSource
	cache  *lru.Cache[string, []domain.Observation]
	log    zerolog.Logger
}

// NewCachedSource wraps source with an LRU cache of size entries
func NewCachedSource(source domain.SeriesSource, size int, log zerolog.Logger) (*CachedSource, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []domain.Observation](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create series cache: %w", err)
	}
	return &CachedSource{
		source: source,
		cache:  cache,
		log:    log.With().Str("component", "series_cache").Logger(),
	}, nil
}

// FetchSeries implements domain.SeriesSource. Errors are not cached.
func (c *CachedSource) FetchSeries(ctx context.Context, entityID string, from, to time.Time) ([]domain.Observation, error) {
	key := entityID + "|" + domain.Day(from).Format(time.DateOnly) + "|" + domain.Day(to).Format(time.DateOnly)
	if obs, ok := c.cache.Get(key); ok {
		c.log.Debug().Str("entity", entityID).Msg("Series cache hit")
		return copyObservations(obs), nil
	}

	obs, err := c.source.FetchSeries(ctx, entityID, from, to)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, copyObservations(obs))
	return obs, nil
}

// Purge drops every cached entry, e.g. after new observations were imported
func (c *CachedSource) Purge() {
	c.cache.Purge()
}

// Len returns the number of cached ranges
func (c *CachedSource) Len() int {
	return c.cache.Len()
}

func copyObservations(obs []domain.Observation) []domain.Observation {
	return append([]domain.Observation(nil), obs...)
}
