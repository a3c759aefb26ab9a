package cache

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	// cacheHits tracks read-through cache hits by key class.
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_cache_hits_total",
			Help: "Total number of property cache hits",
		},
		[]string{"key"}, // "all_properties", "property_count", "location"
	)

	// cacheMisses tracks read-through cache misses by key class.
	cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_cache_misses_total",
			Help: "Total number of property cache misses",
		},
		[]string{"key"},
	)

	// invalidations tracks cache deletions triggered by property writes.
	invalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_cache_invalidations_total",
			Help: "Total number of cache invalidations after property writes",
		},
		[]string{"key"},
	)

	// storeErrors tracks cache store operation errors.
	storeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_cache_errors_total",
			Help: "Total number of cache store operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "stats"
	)

	// responseCacheHits tracks whole-response cache hits.
	responseCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listings_response_cache_hits_total",
			Help: "Total number of whole-response cache hits",
		},
	)

	// responseCacheMisses tracks whole-response cache misses.
	responseCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listings_response_cache_misses_total",
			Help: "Total number of whole-response cache misses",
		},
	)
)

// Hit-ratio rating bands. Advisory only; nothing changes behavior on them.
const (
	RatingExcellent = "excellent"
	RatingGood      = "good"
	RatingFair      = "fair"
	RatingPoor      = "poor"
)

// Snapshot is a point-in-time view of the backing store's hit/miss
// counters. HitRatio is a percentage. Error is set when the store's
// statistics could not be fetched; the counters are then zero.
type Snapshot struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	Total    int64   `json:"total_requests"`
	HitRatio float64 `json:"hit_ratio"`
	Rating   string  `json:"rating"`
	Error    string  `json:"error,omitempty"`
}

// Reporter computes cache effectiveness from the store's counters.
//
// The counters are store-wide: a Redis instance shared with other
// consumers pollutes the ratio.
type Reporter struct {
	store Store
	log   zerolog.Logger
}

// NewReporter creates a metrics reporter over the given store.
func NewReporter(store Store, log zerolog.Logger) *Reporter {
	if store == nil {
		panic("store cannot be nil")
	}
	return &Reporter{store: store, log: log}
}

// Metrics returns the current snapshot. A store failure degrades to a
// zeroed snapshot with Error set rather than failing the caller, so
// metrics endpoints stay available during a cache outage.
func (r *Reporter) Metrics(ctx context.Context) Snapshot {
	stats, err := r.store.Stats(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("cache statistics unavailable")
		return Snapshot{Rating: RatingPoor, Error: err.Error()}
	}

	snap := Snapshot{
		Hits:   stats.Hits,
		Misses: stats.Misses,
		Total:  stats.Hits + stats.Misses,
	}
	if snap.Total > 0 {
		snap.HitRatio = float64(snap.Hits) / float64(snap.Total) * 100
	}
	snap.Rating = rate(snap.HitRatio)

	r.log.Info().
		Int64("hits", snap.Hits).
		Int64("misses", snap.Misses).
		Float64("hit_ratio", snap.HitRatio).
		Str("rating", snap.Rating).
		Msg("cache metrics")

	return snap
}

// rate classifies a hit ratio percentage into an advisory band.
func rate(ratio float64) string {
	switch {
	case ratio >= 80:
		return RatingExcellent
	case ratio >= 60:
		return RatingGood
	case ratio >= 40:
		return RatingFair
	default:
		return RatingPoor
	}
}
