// Package api wires the HTTP surface: cached and uncached property
// listings, the write path, cache administration and observability.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/propstack/listings/pkg/cache"
)

// NewRouter builds the gin engine. The cached listing endpoint sits behind
// the response-cache middleware; a hit there never reaches the handler or
// the data-layer cache.
func NewRouter(h *Handlers, store cache.Store, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.RedirectTrailingSlash = true

	responseCache := cache.ResponseCache(store, cache.TTLResponse, log)

	props := r.Group("/properties")
	{
		props.GET("/", responseCache, h.ListProperties)
		props.GET("/no-cache/", h.ListPropertiesNoCache)
		props.GET("/metrics/", h.CacheMetrics)

		props.POST("/", h.CreateProperty)
		props.PUT("/:id", h.UpdateProperty)
		props.DELETE("/:id", h.DeleteProperty)

		props.POST("/cache/clear", h.ClearCaches)
		props.POST("/cache/warm", h.WarmCache)
	}

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
