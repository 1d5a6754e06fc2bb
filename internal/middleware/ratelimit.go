package middleware

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"learn2b.app/ieltsbackend/pkg/ratelimiter"
	"learn2b.app/ieltsbackend/pkg/response"
)

// GlobalWriteLimit throttles authenticated mutating requests with a
// shared per-user cooldown. A zero cooldown or a missing Redis client
// disables the limit. Per-endpoint cooldowns (posts, comments) stack
// on top of this one.
func GlobalWriteLimit(redisClient *redis.Client, cooldown time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cooldown <= 0 || redisClient == nil {
			c.Next()
			return
		}
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		userID, err := response.GetUserID(c)
		if err != nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		allowed, err := ratelimiter.CheckAndSetRateLimit(ctx, redisClient, userID, "global_write", cooldown)
		if err != nil {
			log.Printf("ratelimit: global check failed for %s: %v", userID, err)
			c.Next()
			return
		}
		if !allowed {
			ttl, _ := ratelimiter.GetRateLimitTTL(ctx, redisClient, userID, "global_write")
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, slow down",
			})
			return
		}

		c.Next()
	}
}
