package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"chovha/internal/logging"
	"chovha/internal/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
)

// cachedResponse stores the response for idempotent requests.
type cachedResponse struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
	Headers    http.Header     `json:"headers"`
}

// responseWriter wraps gin.ResponseWriter to capture the response.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when a mutating request repeats
// its Idempotency-Key. Keys are scoped to the caller and the route, so two
// users can never see each other's responses. Cache failures fall through
// to normal handling.
func Idempotency(cache redis.ResponseCacheInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only apply to mutating methods.
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" || cache == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		log := logging.FromContext(c, logrus.StandardLogger())
		cacheKey := UserID(c) + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key

		data, found, err := cache.Get(ctx, cacheKey)
		if err != nil {
			log.WithError(err).Warn("idempotency lookup failed")
			c.Next()
			return
		}

		if found {
			var cached cachedResponse
			err := json.Unmarshal(data, &cached)
			if err == nil {
				for k, v := range cached.Headers {
					for _, val := range v {
						c.Header(k, val)
					}
				}
				c.Header("Idempotent-Replayed", "true")
				c.Data(cached.StatusCode, "application/json", cached.Body)
				c.Abort()
				return
			}
			log.WithError(err).Warn("discarding unreadable idempotent response")
		}

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		// Server errors are retried for real.
		if status := c.Writer.Status(); status >= 200 && status < 500 {
			encoded, err := json.Marshal(cachedResponse{
				StatusCode: status,
				Body:       w.body.Bytes(),
				Headers:    extractResponseHeaders(c),
			})
			if err == nil {
				err = cache.Set(ctx, cacheKey, encoded, idempotencyTTL)
			}
			if err != nil {
				log.WithError(err).Warn("idempotency store failed")
			}
		}
	}
}

// extractResponseHeaders extracts headers to cache.
func extractResponseHeaders(c *gin.Context) http.Header {
	headers := make(http.Header)
	if ct := c.Writer.Header().Get("Content-Type"); ct != "" {
		headers.Set("Content-Type", ct)
	}
	return headers
}
