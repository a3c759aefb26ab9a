package cache

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/propstack/listings/pkg/property"
)

// Invalidator drops cache entries made stale by property writes. It is
// called synchronously by the write path after each commit, so the
// write-then-invalidate order holds per write; it says nothing about reads
// racing on other workers.
type Invalidator struct {
	store Store
	log   zerolog.Logger
}

// NewInvalidator creates an invalidator over the given store.
func NewInvalidator(store Store, log zerolog.Logger) *Invalidator {
	if store == nil {
		panic("store cannot be nil")
	}
	return &Invalidator{store: store, log: log}
}

// PropertyChanged drops the entries affected by a create, update or delete
// of p: the full collection, the count, and, when the record carries a
// location, that location's collection.
//
// The location key is derived from p's location at call time. An update
// that moved the record invalidates only the new location; the old
// location's cached listing stays stale until TTLLocation lapses.
//
// Deletions are independent and best-effort. A missing key means the entry
// already expired and is only logged; a store failure is logged and
// swallowed so the committed write is never rolled back or failed over a
// cache problem.
func (i *Invalidator) PropertyChanged(ctx context.Context, p *property.Property) {
	i.drop(ctx, KeyAllProperties, KeyAllProperties)
	if p != nil && p.Location != "" {
		i.drop(ctx, LocationKey(p.Location), "location")
	}
	i.drop(ctx, KeyPropertyCount, KeyPropertyCount)
}

// ClearAll drops the collection-wide entries: the full collection and the
// count. Per-location keys are not enumerable from here, so a bulk import
// touching many locations leaves those entries stale until their TTL
// lapses. Idempotent: absent keys are not errors.
func (i *Invalidator) ClearAll(ctx context.Context) error {
	i.log.Info().Msg("clearing property caches")
	i.drop(ctx, KeyAllProperties, KeyAllProperties)
	i.drop(ctx, KeyPropertyCount, KeyPropertyCount)
	return nil
}

// drop deletes one key, logging the outcome.
func (i *Invalidator) drop(ctx context.Context, key, class string) {
	wasPresent, err := i.store.Delete(ctx, key)
	if err != nil {
		i.log.Warn().Err(err).Str("cache_key", key).Msg("cache invalidation failed")
		return
	}
	invalidations.WithLabelValues(class).Inc()
	if wasPresent {
		i.log.Info().Str("cache_key", key).Msg("cache entry invalidated")
	} else {
		i.log.Debug().Str("cache_key", key).Msg("cache entry already absent")
	}
}
