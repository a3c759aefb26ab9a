package property

import (
	"context"

	"github.com/rs/zerolog"
)

// CacheInvalidator is notified after every committed write so that stale
// cache entries can be dropped. Implemented by the cache package.
type CacheInvalidator interface {
	// PropertyChanged drops the cache entries affected by a create, update
	// or delete of p. Best-effort: failures are logged, never returned.
	PropertyChanged(ctx context.Context, p *Property)

	// ClearAll drops the collection-wide cache entries. Idempotent.
	ClearAll(ctx context.Context) error
}

// Service is the write path for property records. Every mutation is
// persisted first and the cache invalidated after the commit, so a reader
// that misses the cache always sees the committed state.
//
// Note: invalidation derives the per-location key from the record's current
// location. An update that moves a property to a different location leaves
// the old location's cached listing stale until its TTL lapses.
type Service struct {
	repo        Repository
	invalidator CacheInvalidator
	log         zerolog.Logger
}

// NewService creates the write-path service.
func NewService(repo Repository, invalidator CacheInvalidator, log zerolog.Logger) *Service {
	if repo == nil {
		panic("repository cannot be nil")
	}
	if invalidator == nil {
		panic("invalidator cannot be nil")
	}
	return &Service{repo: repo, invalidator: invalidator, log: log}
}

// Create validates and persists a new property, then invalidates the
// affected cache entries.
func (s *Service) Create(ctx context.Context, p *Property) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	s.log.Info().Uint("id", p.ID).Str("title", p.Title).Msg("property created")
	s.invalidator.PropertyChanged(ctx, p)
	return nil
}

// Update replaces an existing property (full replacement, no partial
// field updates), then invalidates the affected cache entries.
func (s *Service) Update(ctx context.Context, p *Property) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	s.log.Info().Uint("id", p.ID).Str("title", p.Title).Msg("property updated")
	s.invalidator.PropertyChanged(ctx, p)
	return nil
}

// Delete removes a property. The record is loaded first so the invalidator
// can derive the per-location cache key from it.
func (s *Service) Delete(ctx context.Context, id uint) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Uint("id", id).Str("title", p.Title).Msg("property deleted")
	s.invalidator.PropertyChanged(ctx, p)
	return nil
}
