// Package middleware holds gin middleware shared across routes.
package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "ai-persona-chat/backend/pkg/errors"
)

// Throttle applies a process-wide token bucket in front of every route. This
// is a blunt overload guard; the chat quota in the service layer handles
// per-client fairness.
func Throttle(rps float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Error(apperrors.NewRateLimitedError("服务繁忙，请稍后再试"))
			c.Abort()
			return
		}
		c.Next()
	}
}
