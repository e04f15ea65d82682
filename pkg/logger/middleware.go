package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKey is the gin context key under which the request-scoped logger is
// stored.
const ContextKey = "logger"

// Middleware assigns each request an ID, stores a request-scoped logger in
// the gin context and emits one access-log line when the handler returns.
func Middleware(base *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
			c.Header("X-Request-ID", requestID)
		}

		log := base.WithRequestID(requestID)
		c.Set(ContextKey, log)

		start := time.Now()
		c.Next()

		log.LogRequest(c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
		for _, ginErr := range c.Errors {
			log.LogError(ginErr.Err, "request error",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
		}
	}
}
