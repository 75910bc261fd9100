package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/viperball-sim/internal/services"
	"github.com/stitts-dev/viperball-sim/pkg/utils"
)

// SimRateLimit throttles simulation endpoints per client IP.
func SimRateLimit(limiter *services.SimRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			utils.SendRateLimited(c, "Too many simulation requests, slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}
