package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/farellandr/castingcall/internal/helpers"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/throttled/throttled/v2"
	"github.com/throttled/throttled/v2/store/memstore"
)

// RateLimiter limits requests per client IP and route using a GCRA bucket
// held in memory. Limits are not shared between instances.
func RateLimiter(perMin, burst int) (gin.HandlerFunc, error) {
	store, err := memstore.New(65536)
	if err != nil {
		return nil, fmt.Errorf("create rate limit store: %w", err)
	}
	return RateLimiterWithStore(perMin, burst, store)
}

func RateLimiterWithStore(perMin, burst int, store throttled.GCRAStore) (gin.HandlerFunc, error) {
	quota := throttled.RateQuota{
		MaxRate:  throttled.PerMin(perMin),
		MaxBurst: burst,
	}
	limiter, err := throttled.NewGCRARateLimiter(store, quota)
	if err != nil {
		return nil, fmt.Errorf("create rate limiter: %w", err)
	}

	return func(c *gin.Context) {
		key := c.ClientIP() + ":" + c.Request.Method + ":" + c.FullPath()

		limited, result, err := limiter.RateLimit(key, 1)
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("rate limiter failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if limited {
			if result.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds()+0.5)))
			}
			helpers.RespondWithError(c, http.StatusTooManyRequests, "Too many requests.")
			return
		}
		c.Next()
	}, nil
}
