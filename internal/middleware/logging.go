package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"chovha/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger tags every request with an ID, stores a request-scoped
// entry on the context and logs one line when the request finishes.
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(requestIDHeader, requestID)

		entry := log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})
		logging.WithContext(c, entry)

		c.Next()

		fields := logrus.Fields{
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		}
		if userID := UserID(c); userID != "" {
			fields["user_id"] = userID
		}

		e := entry.WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			e.Error("request failed")
		case c.Writer.Status() >= 400:
			e.Warn("request rejected")
		default:
			e.Info("request handled")
		}
	}
}
