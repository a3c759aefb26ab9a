package cache

import (
	"strings"
	"time"
)

// Cache key literals. These must match existing deployments exactly; other
// consumers of the same Redis instance key on the same strings.
const (
	// KeyAllProperties holds the full property collection.
	KeyAllProperties = "all_properties"

	// KeyPropertyCount holds the aggregate property count.
	KeyPropertyCount = "property_count"

	// locationKeyPrefix prefixes per-location collection keys.
	locationKeyPrefix = "properties_location_"
)

// TTL per key class. Each class expires independently; nothing ties them
// together, which is why a shorter-lived entry can outlive an invalidation
// of a longer-lived one.
const (
	// TTLAllProperties applies to the full collection.
	TTLAllProperties = time.Hour

	// TTLPropertyCount applies to the aggregate count.
	TTLPropertyCount = time.Hour

	// TTLLocation applies to per-location collections.
	TTLLocation = 30 * time.Minute

	// TTLResponse applies to whole cached HTTP responses. Deliberately
	// shorter than the data-layer TTLs to bound response staleness after
	// a write, since the response layer has no invalidation hook.
	TTLResponse = 15 * time.Minute
)

// NormalizeLocation canonicalizes a location for use in a cache key:
// lower-cased, spaces replaced with underscores.
func NormalizeLocation(location string) string {
	return strings.ReplaceAll(strings.ToLower(location), " ", "_")
}

// LocationKey returns the cache key for a location-filtered collection.
func LocationKey(location string) string {
	return locationKeyPrefix + NormalizeLocation(location)
}
