package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/propstack/listings/pkg/cache"
	"github.com/propstack/listings/pkg/property"
)

// Handlers bundles the HTTP handlers with their collaborators.
type Handlers struct {
	accessor      *cache.Accessor
	repo          property.Repository
	service       *property.Service
	invalidator   *cache.Invalidator
	reporter      *cache.Reporter
	warmLocations []string
	log           zerolog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(
	accessor *cache.Accessor,
	repo property.Repository,
	service *property.Service,
	invalidator *cache.Invalidator,
	reporter *cache.Reporter,
	warmLocations []string,
	log zerolog.Logger,
) *Handlers {
	return &Handlers{
		accessor:      accessor,
		repo:          repo,
		service:       service,
		invalidator:   invalidator,
		reporter:      reporter,
		warmLocations: warmLocations,
		log:           log,
	}
}

// propertyJSON is the wire form of a property: price as a fixed-point
// string, created_at as ISO-8601 or null.
type propertyJSON struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       string  `json:"price"`
	Location    string  `json:"location"`
	CreatedAt   *string `json:"created_at"`
}

// listResponse is the payload of the listing endpoints.
type listResponse struct {
	Properties []propertyJSON `json:"properties"`
	Count      int            `json:"count"`
}

func toJSON(p property.Property) propertyJSON {
	out := propertyJSON{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Location:    p.Location,
	}
	if !p.CreatedAt.IsZero() {
		s := p.CreatedAt.UTC().Format(time.RFC3339)
		out.CreatedAt = &s
	}
	return out
}

func toListResponse(props []property.Property) listResponse {
	out := listResponse{Properties: make([]propertyJSON, 0, len(props))}
	for _, p := range props {
		out.Properties = append(out.Properties, toJSON(p))
	}
	out.Count = len(out.Properties)
	return out
}

// ListProperties serves GET /properties/ through the cache-aside accessor.
// When a location query parameter is present the location-filtered
// collection is served instead of the full one.
func (h *Handlers) ListProperties(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		props []property.Property
		err   error
	)
	if location := c.Query("location"); location != "" {
		props, err = h.accessor.PropertiesByLocation(ctx, location)
	} else {
		props, err = h.accessor.AllProperties(ctx)
	}
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, toListResponse(props))
}

// ListPropertiesNoCache serves GET /properties/no-cache/, bypassing every
// cache layer. Kept for diagnostic comparison against the cached endpoint.
func (h *Handlers) ListPropertiesNoCache(c *gin.Context) {
	props, err := h.repo.ListAll(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, toListResponse(props))
}

// CacheMetrics serves GET /properties/metrics/. Degrades to a zeroed
// snapshot when the store's statistics are unavailable.
func (h *Handlers) CacheMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.reporter.Metrics(c.Request.Context()))
}

// propertyInput is the write-request payload.
type propertyInput struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Price       string `json:"price" binding:"required"`
	Location    string `json:"location"`
}

func (in *propertyInput) toProperty() (*property.Property, error) {
	price, err := decimal.NewFromString(in.Price)
	if err != nil {
		return nil, property.ErrInvalid
	}
	return &property.Property{
		Title:       in.Title,
		Description: in.Description,
		Price:       price,
		Location:    in.Location,
	}, nil
}

// CreateProperty serves POST /properties/.
func (h *Handlers) CreateProperty(c *gin.Context) {
	var in propertyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, err := in.toProperty()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property"})
		return
	}

	if err := h.service.Create(c.Request.Context(), p); err != nil {
		if errors.Is(err, property.ErrInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toJSON(*p))
}

// UpdateProperty serves PUT /properties/:id. Full replacement of the
// mutable fields.
func (h *Handlers) UpdateProperty(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var in propertyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, err := in.toProperty()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property"})
		return
	}
	p.ID = id

	if err := h.service.Update(c.Request.Context(), p); err != nil {
		switch {
		case errors.Is(err, property.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		case errors.Is(err, property.ErrInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property"})
		default:
			h.serverError(c, err)
		}
		return
	}

	// Re-read the record: the update never touches created_at, so the
	// in-memory copy does not carry it.
	updated, err := h.repo.Get(c.Request.Context(), id)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, toJSON(*updated))
}

// DeleteProperty serves DELETE /properties/:id.
func (h *Handlers) DeleteProperty(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, property.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ClearCaches serves POST /properties/cache/clear. Safe to call twice;
// absent keys are not errors.
func (h *Handlers) ClearCaches(c *gin.Context) {
	if err := h.invalidator.ClearAll(c.Request.Context()); err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// WarmCache serves POST /properties/cache/warm. Locations from the request
// body take precedence over the configured warm list.
func (h *Handlers) WarmCache(c *gin.Context) {
	var in struct {
		Locations []string `json:"locations"`
	}
	// Body is optional.
	_ = c.ShouldBindJSON(&in)

	locations := in.Locations
	if len(locations) == 0 {
		locations = h.warmLocations
	}

	count, err := h.accessor.Warm(c.Request.Context(), locations...)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"warmed": count, "locations": len(locations)})
}

// Healthz serves GET /healthz.
func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property id"})
		return 0, false
	}
	return uint(id), true
}

// serverError reports a repository failure. Cache failures never reach
// here; they are absorbed upstream.
func (h *Handlers) serverError(c *gin.Context, err error) {
	h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
