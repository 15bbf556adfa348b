package gateway

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appLog "jobgate-appointment-api/internal/log"
	"jobgate-appointment-api/internal/middleware"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags every request with an id, echoes it in X-Request-Id and
// logs the request once it completes.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("request_id", rid)
		c.Writer.Header().Set(requestIDHeader, rid)

		start := time.Now()
		c.Next()

		kv := []any{
			"id", rid,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start).Round(time.Microsecond),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			var err error
			if last := c.Errors.Last(); last != nil {
				err = last.Err
			}
			appLog.Error("http", err, kv...)
			return
		}
		appLog.Info("http", kv...)
	}
}

// Authenticate requires a valid access token from the Authorization header
// or the access_token cookie and stores the caller on the request context.
func Authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearer(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no token"})
			return
		}
		id, err := middleware.Authenticate(raw, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bad token"})
			return
		}
		c.Request = c.Request.WithContext(middleware.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// rateLimit shares the gRPC token buckets, keyed by client IP.
func rateLimit(rl *middleware.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil {
			c.Next()
			return
		}
		if ok, retry := rl.Allow(c.ClientIP()); !ok {
			c.Header("Retry-After", retryAfter(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

// retryAfter renders a delay in whole seconds, at least one.
func retryAfter(d time.Duration) string {
	return strconv.Itoa(max(1, int(math.Ceil(d.Seconds()))))
}
