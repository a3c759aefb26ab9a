package cache

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// cachedResponse is a serialized HTTP response stored by ResponseCache.
type cachedResponse struct {
	StatusCode  int       `json:"status_code"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	CachedAt    time.Time `json:"cached_at"`
}

// ResponseCache returns middleware that caches whole rendered responses
// keyed by request signature (method + path + normalized query).
//
// A hit serves the stored response verbatim and never reaches the wrapped
// handler, so it can return content even after the data layer was
// invalidated, until ttl lapses. No invalidation hook exists for this
// layer; the shorter TTL is the only staleness bound.
//
// Only 200 responses to GET requests are stored. A store failure falls
// through to the handler.
func ResponseCache(store Store, ttl time.Duration, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := ResponseKey(c.Request)

		if data, ok, err := store.Get(c.Request.Context(), key); err != nil {
			log.Warn().Err(err).Str("cache_key", key).
				Msg("response cache unavailable, invoking handler")
		} else if ok {
			var resp cachedResponse
			if err := json.Unmarshal(data, &resp); err == nil {
				responseCacheHits.Inc()
				log.Debug().Str("cache_key", key).Msg("response cache hit")
				c.Data(resp.StatusCode, resp.ContentType, resp.Body)
				c.Abort()
				return
			}
			log.Warn().Str("cache_key", key).Msg("discarding corrupt response cache entry")
		}

		responseCacheMisses.Inc()

		recorder := &responseRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = recorder
		c.Next()

		if recorder.Status() != http.StatusOK {
			return
		}

		resp := cachedResponse{
			StatusCode:  recorder.Status(),
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
			CachedAt:    time.Now(),
		}
		data, err := json.Marshal(resp)
		if err != nil {
			log.Error().Err(err).Str("cache_key", key).Msg("marshal cached response")
			return
		}
		if err := store.Set(c.Request.Context(), key, data, ttl); err != nil {
			log.Warn().Err(err).Str("cache_key", key).Msg("response cache fill failed")
			return
		}
		log.Debug().Str("cache_key", key).Int("bytes", len(data)).Msg("response cached")
	}
}

// ResponseKey computes the cache key for a request: method and path plus
// the query parameters sorted by name, so parameter order never splits the
// cache.
func ResponseKey(r *http.Request) string {
	parts := []string{"response", r.Method, r.URL.Path}

	query := r.URL.Query()
	if len(query) > 0 {
		names := make([]string, 0, len(query))
		for name := range query {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, value := range query[name] {
				parts = append(parts, name+"="+value)
			}
		}
	}

	return strings.Join(parts, ":")
}

// responseRecorder duplicates everything written to the client into a
// buffer so the response can be stored after the handler returns.
type responseRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteString(s string) (int, error) {
	r.body.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}
