package cache_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propstack/listings/internal/testutil"
	"github.com/propstack/listings/pkg/cache"
	"github.com/propstack/listings/pkg/property"
)

// stubRepo is an in-memory property.Repository that counts queries, so
// tests can assert whether a read was served from cache.
type stubRepo struct {
	props []property.Property
	err   error

	listCalls     int
	locationCalls int
	countCalls    int
}

func (r *stubRepo) ListAll(context.Context) ([]property.Property, error) {
	r.listCalls++
	return r.props, r.err
}

func (r *stubRepo) ListByLocation(_ context.Context, location string) ([]property.Property, error) {
	r.locationCalls++
	if r.err != nil {
		return nil, r.err
	}
	var out []property.Property
	for _, p := range r.props {
		if strings.Contains(strings.ToLower(p.Location), strings.ToLower(location)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubRepo) Count(context.Context) (int64, error) {
	r.countCalls++
	return int64(len(r.props)), r.err
}

func (r *stubRepo) Get(context.Context, uint) (*property.Property, error) {
	return nil, property.ErrNotFound
}
func (r *stubRepo) Create(context.Context, *property.Property) error { return nil }
func (r *stubRepo) Update(context.Context, *property.Property) error { return nil }
func (r *stubRepo) Delete(context.Context, uint) error               { return nil }

func sampleProps() []property.Property {
	return []property.Property{
		{ID: 2, Title: "Downtown Loft", Price: decimal.RequireFromString("250000.00"), Location: "Austin"},
		{ID: 1, Title: "Beach House", Price: decimal.RequireFromString("100.00"), Location: "Miami, FL"},
	}
}

func TestAccessor_AllProperties_ReadThrough(t *testing.T) {
	store := testutil.NewMemStore()
	repo := &stubRepo{props: sampleProps()}
	accessor := cache.NewAccessor(store, repo, zerolog.Nop())
	ctx := context.Background()

	// First read misses and fills the cache.
	props, err := accessor.AllProperties(ctx)
	require.NoError(t, err)
	require.Len(t, props, 2)
	assert.Equal(t, 1, repo.listCalls)
	assert.True(t, store.Has(cache.KeyAllProperties))
	assert.Equal(t, cache.TTLAllProperties, store.TTLOf(cache.KeyAllProperties))

	// Second read is a hit: the repository is not touched again.
	props, err = accessor.AllProperties(ctx)
	require.NoError(t, err)
	require.Len(t, props, 2)
	assert.Equal(t, "Downtown Loft", props[0].Title)
	assert.Equal(t, 1, repo.listCalls)
}

func TestAccessor_AllProperties_RepositoryError(t *testing.T) {
	store := testutil.NewMemStore()
	repo := &stubRepo{err: errors.New("connection refused")}
	accessor := cache.NewAccessor(store, repo, zerolog.Nop())

	_, err := accessor.AllProperties(context.Background())
	require.Error(t, err)
	assert.False(t, store.Has(cache.KeyAllProperties))
}

func TestAccessor_AllProperties_StoreDownFallsThrough(t *testing.T) {
	store := testutil.NewMemStore()
	store.FailAll = true
	repo := &stubRepo{props: sampleProps()}
	accessor := cache.NewAccessor(store, repo, zerolog.Nop())

	// A cache outage degrades latency, never availability.
	props, err := accessor.AllProperties(context.Background())
	require.NoError(t, err)
	assert.Len(t, props, 2)
	assert.Equal(t, 1, repo.listCalls)

	props, err = accessor.AllProperties(context.Background())
	require.NoError(t, err)
	assert.Len(t, props, 2)
	assert.Equal(t, 2, repo.listCalls)
}

func TestAccessor_PropertiesByLocation(t *testing.T) {
	store := testutil.NewMemStore()
	repo := &stubRepo{props: sampleProps()}
	accessor := cache.NewAccessor(store, repo, zerolog.Nop())
	ctx := context.Background()

	props, err := accessor.PropertiesByLocation(ctx, "Miami, FL")
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, "Beach House", props[0].Title)
	assert.Equal(t, 1, repo.locationCalls)
	assert.True(t, store.Has("properties_location_miami,_fl"))
	assert.Equal(t, cache.TTLLocation, store.TTLOf("properties_location_miami,_fl"))

	// A differently-cased spelling resolves to the same key and hits.
	props, err = accessor.PropertiesByLocation(ctx, "miami, fl")
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, 1, repo.locationCalls)
}

func TestAccessor_PropertiesByLocation_EmptyResultIsCached(t *testing.T) {
	store := testutil.NewMemStore()
	repo := &stubRepo{props: sampleProps()}
	accessor := cache.NewAccessor(store, repo, zerolog.Nop())
	ctx := context.Background()

	props, err := accessor.PropertiesByLocation(ctx, "Nowhere")
	require.NoError(t, err)
	assert.Empty(t, props)

	// The empty collection is a valid cached value, not a miss.
	_, err = accessor.PropertiesByLocation(ctx, "Nowhere")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.locationCalls)
}

func TestAccessor_PropertyCount(t *testing.T) {
	store := testutil.NewMemStore()
	repo := &stubRepo{props: sampleProps()}
	accessor := cache.NewAccessor(store, repo, zerolog.Nop())
	ctx := context.Background()

	count, err := accessor.PropertyCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, 1, repo.countCalls)
	assert.Equal(t, cache.TTLPropertyCount, store.TTLOf(cache.KeyPropertyCount))

	count, err = accessor.PropertyCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, 1, repo.countCalls)
}

func TestAccessor_Warm(t *testing.T) {
	store := testutil.NewMemStore()
	repo := &stubRepo{props: sampleProps()}
	accessor := cache.NewAccessor(store, repo, zerolog.Nop())

	count, err := accessor.Warm(context.Background(), "Austin", "Miami, FL")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.True(t, store.Has(cache.KeyAllProperties))
	assert.True(t, store.Has(cache.KeyPropertyCount))
	assert.True(t, store.Has("properties_location_austin"))
	assert.True(t, store.Has("properties_location_miami,_fl"))
}

func TestAccessor_CorruptEntryFallsThrough(t *testing.T) {
	store := testutil.NewMemStore()
	repo := &stubRepo{props: sampleProps()}
	accessor := cache.NewAccessor(store, repo, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, cache.KeyAllProperties, []byte("{not json"), cache.TTLAllProperties))

	props, err := accessor.AllProperties(ctx)
	require.NoError(t, err)
	assert.Len(t, props, 2)
	assert.Equal(t, 1, repo.listCalls)
}
