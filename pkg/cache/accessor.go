package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/propstack/listings/pkg/property"
)

// Accessor implements the cache-aside read path for property listings.
//
// Every read checks the store first and only queries the repository on a
// miss, populating the store on the way back. A store failure is treated
// as a miss: the repository still answers, only latency degrades.
//
// Concurrent misses for the same key are not coalesced. Under a stampede
// several workers may query the repository redundantly; the worst case is
// duplicate work, never corruption, so no single-flight guard is added.
type Accessor struct {
	store Store
	repo  property.Repository
	log   zerolog.Logger
}

// NewAccessor creates a cache-aside accessor over the given store and
// repository.
func NewAccessor(store Store, repo property.Repository, log zerolog.Logger) *Accessor {
	if store == nil {
		panic("store cannot be nil")
	}
	if repo == nil {
		panic("repository cannot be nil")
	}
	return &Accessor{store: store, repo: repo, log: log}
}

// AllProperties returns the full collection, newest first. Cached under
// KeyAllProperties for TTLAllProperties.
func (a *Accessor) AllProperties(ctx context.Context) ([]property.Property, error) {
	if props, ok := a.lookup(ctx, KeyAllProperties, KeyAllProperties); ok {
		return props, nil
	}

	props, err := a.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	a.fill(ctx, KeyAllProperties, props, TTLAllProperties)
	return props, nil
}

// PropertiesByLocation returns the properties whose location contains the
// given text (case-insensitive). Cached under LocationKey(location) for
// TTLLocation.
func (a *Accessor) PropertiesByLocation(ctx context.Context, location string) ([]property.Property, error) {
	key := LocationKey(location)
	if props, ok := a.lookup(ctx, key, "location"); ok {
		return props, nil
	}

	props, err := a.repo.ListByLocation(ctx, location)
	if err != nil {
		return nil, err
	}

	a.fill(ctx, key, props, TTLLocation)
	return props, nil
}

// PropertyCount returns the total number of properties. Cached under
// KeyPropertyCount for TTLPropertyCount.
func (a *Accessor) PropertyCount(ctx context.Context) (int64, error) {
	data, ok, err := a.store.Get(ctx, KeyPropertyCount)
	if err != nil {
		a.log.Warn().Err(err).Str("cache_key", KeyPropertyCount).
			Msg("cache unavailable, falling through to repository")
	}
	if ok {
		var count int64
		if err := json.Unmarshal(data, &count); err == nil {
			cacheHits.WithLabelValues(KeyPropertyCount).Inc()
			a.log.Debug().Str("cache_key", KeyPropertyCount).Msg("cache hit")
			return count, nil
		}
		a.log.Warn().Str("cache_key", KeyPropertyCount).Msg("discarding corrupt cache entry")
	}

	cacheMisses.WithLabelValues(KeyPropertyCount).Inc()
	a.log.Debug().Str("cache_key", KeyPropertyCount).Msg("cache miss, counting in repository")

	count, err := a.repo.Count(ctx)
	if err != nil {
		return 0, err
	}

	if data, err := json.Marshal(count); err == nil {
		if err := a.store.Set(ctx, KeyPropertyCount, data, TTLPropertyCount); err != nil {
			a.log.Warn().Err(err).Str("cache_key", KeyPropertyCount).Msg("cache fill failed")
		}
	}
	return count, nil
}

// WarmConcurrency bounds the number of parallel location fills during Warm.
const WarmConcurrency = 4

// Warm pre-populates the collection and count entries, plus one entry per
// given location. Location fills run in parallel, bounded by
// WarmConcurrency. Returns the number of properties now cached under the
// full collection key.
func (a *Accessor) Warm(ctx context.Context, locations ...string) (int, error) {
	a.log.Info().Int("locations", len(locations)).Msg("warming property caches")

	props, err := a.AllProperties(ctx)
	if err != nil {
		return 0, err
	}
	if _, err := a.PropertyCount(ctx); err != nil {
		return 0, err
	}

	sem := make(chan struct{}, WarmConcurrency)
	var wg sync.WaitGroup
	for _, location := range locations {
		wg.Add(1)
		sem <- struct{}{}
		go func(loc string) {
			defer wg.Done()
			defer func() { <-sem }()
			if _, err := a.PropertiesByLocation(ctx, loc); err != nil {
				a.log.Warn().Err(err).Str("location", loc).Msg("location warm failed")
			}
		}(location)
	}
	wg.Wait()

	a.log.Info().Int("properties", len(props)).Msg("cache warm complete")
	return len(props), nil
}

// lookup fetches and decodes a cached collection. Returns ok=false on
// miss, store error or corrupt entry; the caller falls through to the
// repository in all three cases.
func (a *Accessor) lookup(ctx context.Context, key, class string) ([]property.Property, bool) {
	data, ok, err := a.store.Get(ctx, key)
	if err != nil {
		a.log.Warn().Err(err).Str("cache_key", key).
			Msg("cache unavailable, falling through to repository")
		return nil, false
	}
	if !ok {
		cacheMisses.WithLabelValues(class).Inc()
		a.log.Debug().Str("cache_key", key).Msg("cache miss, querying repository")
		return nil, false
	}

	var props []property.Property
	if err := json.Unmarshal(data, &props); err != nil {
		a.log.Warn().Err(err).Str("cache_key", key).Msg("discarding corrupt cache entry")
		return nil, false
	}

	cacheHits.WithLabelValues(class).Inc()
	a.log.Debug().Str("cache_key", key).Int("properties", len(props)).Msg("cache hit")
	return props, true
}

// fill stores a collection under key. Failures are logged, never returned:
// the data was already fetched and the caller gets it either way.
func (a *Accessor) fill(ctx context.Context, key string, props []property.Property, ttl time.Duration) {
	data, err := json.Marshal(props)
	if err != nil {
		a.log.Error().Err(err).Str("cache_key", key).Msg("marshal cache entry")
		return
	}
	if err := a.store.Set(ctx, key, data, ttl); err != nil {
		a.log.Warn().Err(err).Str("cache_key", key).Msg("cache fill failed")
		return
	}
	a.log.Debug().Str("cache_key", key).Int("properties", len(props)).Msg("cache filled")
}
