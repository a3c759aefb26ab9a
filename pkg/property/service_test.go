package property_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propstack/listings/internal/testutil"
	"github.com/propstack/listings/pkg/property"
)

// recordingInvalidator captures invalidation calls for ordering and
// argument assertions.
type recordingInvalidator struct {
	changed []property.Property
	cleared int
}

func (r *recordingInvalidator) PropertyChanged(_ context.Context, p *property.Property) {
	r.changed = append(r.changed, *p)
}

func (r *recordingInvalidator) ClearAll(context.Context) error {
	r.cleared++
	return nil
}

func newService(t *testing.T) (*property.Service, *property.GormRepository, *recordingInvalidator) {
	t.Helper()
	repo := property.NewGormRepository(testutil.MustOpenTestDB(t))
	inv := &recordingInvalidator{}
	return property.NewService(repo, inv, zerolog.Nop()), repo, inv
}

func TestService_Create_InvalidatesAfterCommit(t *testing.T) {
	svc, repo, inv := newService(t)
	ctx := context.Background()

	p := &property.Property{Title: "A", Price: decimal.RequireFromString("100.00"), Location: "Austin"}
	require.NoError(t, svc.Create(ctx, p))

	// Persisted first, then invalidated with the committed record.
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.Len(t, inv.changed, 1)
	assert.Equal(t, p.ID, inv.changed[0].ID)
	assert.Equal(t, "Austin", inv.changed[0].Location)
}

func TestService_Create_InvalidDoesNotTouchStore(t *testing.T) {
	svc, repo, inv := newService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		p    property.Property
	}{
		{name: "empty title", p: property.Property{Price: decimal.Zero}},
		{name: "negative price", p: property.Property{Title: "A", Price: decimal.RequireFromString("-1")}},
		{name: "price too large", p: property.Property{Title: "A", Price: decimal.RequireFromString("100000000.00")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Create(ctx, &tt.p)
			assert.ErrorIs(t, err, property.ErrInvalid)
		})
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, inv.changed)
}

func TestService_Update_InvalidatesCurrentLocation(t *testing.T) {
	svc, _, inv := newService(t)
	ctx := context.Background()

	p := &property.Property{Title: "A", Price: decimal.RequireFromString("100.00"), Location: "Austin"}
	require.NoError(t, svc.Create(ctx, p))

	p.Location = "Dallas"
	p.Price = decimal.RequireFromString("150.00")
	require.NoError(t, svc.Update(ctx, p))

	// The invalidator sees the new location only; the old location's
	// cache entry is left to TTL expiry.
	require.Len(t, inv.changed, 2)
	assert.Equal(t, "Dallas", inv.changed[1].Location)
}

func TestService_Update_NotFoundSkipsInvalidation(t *testing.T) {
	svc, _, inv := newService(t)

	err := svc.Update(context.Background(), &property.Property{
		ID: 42, Title: "ghost", Price: decimal.Zero,
	})
	require.ErrorIs(t, err, property.ErrNotFound)
	assert.Empty(t, inv.changed)
}

func TestService_Delete_InvalidatesWithDeletedLocation(t *testing.T) {
	svc, repo, inv := newService(t)
	ctx := context.Background()

	p := &property.Property{Title: "A", Price: decimal.RequireFromString("100.00"), Location: "Miami, FL"}
	require.NoError(t, svc.Create(ctx, p))

	require.NoError(t, svc.Delete(ctx, p.ID))

	_, err := repo.Get(ctx, p.ID)
	assert.ErrorIs(t, err, property.ErrNotFound)

	require.Len(t, inv.changed, 2)
	assert.Equal(t, "Miami, FL", inv.changed[1].Location)
}

func TestService_Delete_NotFound(t *testing.T) {
	svc, _, inv := newService(t)

	err := svc.Delete(context.Background(), 42)
	require.ErrorIs(t, err, property.ErrNotFound)
	assert.Empty(t, inv.changed)
}

// A failing repository must never trigger invalidation.
type failingRepo struct {
	property.Repository
}

func (failingRepo) Create(context.Context, *property.Property) error {
	return errors.New("disk full")
}

func TestService_Create_RepositoryErrorSkipsInvalidation(t *testing.T) {
	inv := &recordingInvalidator{}
	svc := property.NewService(failingRepo{}, inv, zerolog.Nop())

	err := svc.Create(context.Background(), &property.Property{
		Title: "A", Price: decimal.Zero,
	})
	require.Error(t, err)
	assert.Empty(t, inv.changed)
}
