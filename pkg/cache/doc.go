// Package cache implements the caching subsystem for property listings:
// a cache-aside read path over Redis, write-triggered invalidation, cache
// metrics, and an optional whole-response cache.
//
// Three data-layer key classes exist, each with its own TTL:
//
//   - all_properties (1h): the full collection
//   - property_count (1h): the aggregate count
//   - properties_location_<normalized> (30m): per-location collections
//
// They are separate because each serves a different access pattern and is
// invalidated by a different subset of writes; one shared key would force
// over-invalidation or stale reads.
//
// # Read path
//
//	store := cache.NewRedisStore(redisClient)
//	accessor := cache.NewAccessor(store, repo, logger)
//
//	props, err := accessor.AllProperties(ctx)   // hit: no repository touch
//	props, err = accessor.PropertiesByLocation(ctx, "Miami, FL")
//	count, err := accessor.PropertyCount(ctx)
//
// # Write path
//
// Every committed create, update or delete must be followed by
//
//	invalidator.PropertyChanged(ctx, prop)
//
// which drops the three affected keys best-effort. Cache failures never
// fail the write.
//
// # Known staleness windows
//
//   - An update that changes a record's location invalidates only the new
//     location's entry; the old one expires by TTL.
//   - ClearAll cannot enumerate per-location keys and leaves them to TTL.
//   - The response cache has no invalidation hook at all; its 15m TTL is
//     the staleness bound.
//
// The backing Redis must be shared by all serving workers and expire
// entries itself; nothing in this package re-checks expiry.
package cache
