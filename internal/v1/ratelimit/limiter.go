// Package ratelimit provides a generic per-IP rate limiter for plain HTTP
// routes (health, metrics). The WebSocket upgrade path and the
// per-connection inbound message path have their own dedicated
// ulule/limiter instances (transport.Server, keyed by remote IP, and
// connection.Actor, keyed by connection id); this package exists for
// everything else that shares a gin.Engine with them.
package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"github.com/cardtable/arena/internal/v1/logging"
	"github.com/cardtable/arena/internal/v1/metrics"
)

// HTTPLimiter wraps a single in-memory, per-IP ulule/limiter instance.
type HTTPLimiter struct {
	limiter *limiter.Limiter
}

// NewHTTPLimiter builds an HTTPLimiter from a limiter.NewRateFromFormatted
// string (e.g. "100-M").
func NewHTTPLimiter(rate string) (*HTTPLimiter, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: invalid rate: %w", err)
	}
	return &HTTPLimiter{limiter: limiter.New(memory.NewStore(), r)}, nil
}

// Middleware returns a gin.HandlerFunc that rejects requests exceeding the
// configured per-IP rate with 429, recording the endpoint-labelled metrics
// either way. endpointLabel identifies the route for RateLimit* metrics
// rather than relying on c.FullPath(), since health/metrics routes are
// registered directly rather than through a router group.
func (l *HTTPLimiter) Middleware(endpointLabel string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := c.ClientIP()

		metrics.RateLimitRequests.WithLabelValues(endpointLabel).Inc()

		result, err := l.limiter.Get(ctx, key)
		if err != nil {
			logging.Warn(ctx, "http rate limiter check failed, allowing request", zap.Error(err), zap.String("endpoint", endpointLabel))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.Reset, 10))

		if result.Reached {
			metrics.RateLimitExceeded.WithLabelValues(endpointLabel, "per_ip").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many requests",
				"retry_after": result.Reset,
			})
			return
		}

		c.Next()
	}
}

// StandardMiddleware exposes the underlying ulule/limiter gin driver
// directly, for routes that only need the library's default response
// format rather than Middleware's metrics-instrumented one.
func (l *HTTPLimiter) StandardMiddleware() gin.HandlerFunc {
	return mgin.NewMiddleware(l.limiter)
}
