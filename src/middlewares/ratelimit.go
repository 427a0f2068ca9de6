package middlewares

import (
	"fmt"
	"log"

	"pbs/src/lib"

	"github.com/gin-gonic/gin"
)

const requestsPerMinute = 120

// RateLimitMiddleware counts requests per client in redis. When redis is
// unreachable the request is let through.
func RateLimitMiddleware(ctx *gin.Context) {
	key := ctx.ClientIP()
	if id := ctx.GetUint("id"); id > 0 {
		key = fmt.Sprintf("user:%d", id)
	}
	ok, err := lib.RateLimitHit(ctx.Request.Context(), key, requestsPerMinute)
	if err != nil {
		log.Printf("Rate limit check failed for %s: %s\n", key, err.Error())
		return
	}
	if !ok {
		ctx.AbortWithStatusJSON(429, gin.H{"error": "too many requests"})
	}
}
