package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// SlowRequestLogger logs requests that take longer than threshold.
func SlowRequestLogger(threshold time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		if threshold > 0 && latency > threshold {
			log.Printf("[SLOW] %s %s | Status: %d | Time: %v",
				c.Request.Method, c.Request.URL.Path, c.Writer.Status(), latency)
		}
	}
}
