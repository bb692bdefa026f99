// Package logging builds the service logger and its request-scoped entries.
package logging

import (
	"io"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const contextKey = "logger"

// New returns a logger writing JSON in production and text otherwise.
// Unknown levels fall back to info.
func New(level string, production bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if production {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	return log
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// WithContext stores entry on the gin context.
func WithContext(c *gin.Context, entry *logrus.Entry) {
	c.Set(contextKey, entry)
}

// FromContext returns the request-scoped entry, or fallback when none is set.
func FromContext(c *gin.Context, fallback logrus.FieldLogger) logrus.FieldLogger {
	if v, ok := c.Get(contextKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return fallback
}
