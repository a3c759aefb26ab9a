// Package property defines the property listing model and its persistence
// and write-path contracts.
package property

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MaxTitleLen is the maximum length of a property title.
	MaxTitleLen = 200

	// MaxLocationLen is the maximum length of a property location.
	MaxLocationLen = 100
)

var (
	// ErrNotFound indicates the requested property does not exist.
	ErrNotFound = errors.New("property not found")

	// ErrInvalid indicates the property failed validation.
	ErrInvalid = errors.New("invalid property")
)

// Property is a single real-estate listing. The relational store owns the
// authoritative record; cached copies are never written back.
type Property struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Title       string          `json:"title" gorm:"size:200;not null"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(10,2)"`
	Location    string          `json:"location" gorm:"size:100;index"`
	CreatedAt   time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

// maxPrice is the largest value representable with 10 significant digits
// and 2 fractional digits.
var maxPrice = decimal.RequireFromString("99999999.99")

// Validate checks the field bounds before a write.
func (p *Property) Validate() error {
	if p.Title == "" || len(p.Title) > MaxTitleLen {
		return ErrInvalid
	}
	if len(p.Location) > MaxLocationLen {
		return ErrInvalid
	}
	if p.Price.IsNegative() || p.Price.GreaterThan(maxPrice) {
		return ErrInvalid
	}
	return nil
}
