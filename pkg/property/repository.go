package property

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Repository is the persistence boundary for property records.
// All reads return listings ordered by creation time, newest first.
type Repository interface {
	ListAll(ctx context.Context) ([]Property, error)
	ListByLocation(ctx context.Context, location string) ([]Property, error)
	Count(ctx context.Context) (int64, error)
	Get(ctx context.Context, id uint) (*Property, error)
	Create(ctx context.Context, p *Property) error
	Update(ctx context.Context, p *Property) error
	Delete(ctx context.Context, id uint) error
}

// GormRepository implements Repository on top of a gorm handle.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a repository backed by the given database handle.
func NewGormRepository(db *gorm.DB) *GormRepository {
	if db == nil {
		panic("database handle cannot be nil")
	}
	return &GormRepository{db: db}
}

// ListAll returns every property, newest first.
func (r *GormRepository) ListAll(ctx context.Context) ([]Property, error) {
	var props []Property
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&props).Error
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return props, nil
}

// ListByLocation returns properties whose location contains the given text,
// matched case-insensitively, newest first.
func (r *GormRepository) ListByLocation(ctx context.Context, location string) ([]Property, error) {
	var props []Property
	pattern := "%" + strings.ToLower(location) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(location) LIKE ?", pattern).
		Order("created_at DESC").
		Find(&props).Error
	if err != nil {
		return nil, fmt.Errorf("list properties by location: %w", err)
	}
	return props, nil
}

// Count returns the total number of properties.
func (r *GormRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Property{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count properties: %w", err)
	}
	return count, nil
}

// Get returns a single property by id.
func (r *GormRepository) Get(ctx context.Context, id uint) (*Property, error) {
	var p Property
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get property %d: %w", id, err)
	}
	return &p, nil
}

// Create inserts a new property. The id and creation timestamp are assigned
// by the store.
func (r *GormRepository) Create(ctx context.Context, p *Property) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create property: %w", err)
	}
	return nil
}

// Update replaces all mutable fields of an existing property. CreatedAt is
// never rewritten.
func (r *GormRepository) Update(ctx context.Context, p *Property) error {
	res := r.db.WithContext(ctx).Model(&Property{ID: p.ID}).
		Select("title", "description", "price", "location").
		Updates(map[string]interface{}{
			"title":       p.Title,
			"description": p.Description,
			"price":       p.Price,
			"location":    p.Location,
		})
	if res.Error != nil {
		return fmt.Errorf("update property %d: %w", p.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a property by id.
func (r *GormRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Property{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete property %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
