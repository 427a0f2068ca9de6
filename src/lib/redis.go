package lib

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}

// PresenceTouch refreshes the presence key for a user. Keys expire on their
// own so a stale entry never reports a user online.
func PresenceTouch(ctx context.Context, userID uint, window time.Duration) {
	rdb := GetRedisClient()
	if rdb == nil {
		return
	}
	key := fmt.Sprintf("presence:%d", userID)
	if err := rdb.Set(ctx, key, time.Now().UTC().Format(time.RFC3339), window).Err(); err != nil {
		log.Printf("Failed to refresh presence for user %d: %s\n", userID, err.Error())
	}
}

// PresenceClear drops the presence key, used on logout.
func PresenceClear(ctx context.Context, userID uint) {
	rdb := GetRedisClient()
	if rdb == nil {
		return
	}
	key := fmt.Sprintf("presence:%d", userID)
	if err := rdb.Del(ctx, key).Err(); err != nil {
		log.Printf("Failed to clear presence for user %d: %s\n", userID, err.Error())
	}
}

func PresenceCheck(ctx context.Context, userID uint) bool {
	rdb := GetRedisClient()
	if rdb == nil {
		return false
	}
	key := fmt.Sprintf("presence:%d", userID)
	_, err := rdb.Get(ctx, key).Result()
	return err == nil
}

// RateLimitHit increments the per-minute counter for a client key and reports
// whether the request is still within the limit.
func RateLimitHit(ctx context.Context, key string, limit int64) (bool, error) {
	rdb := GetRedisClient()
	if rdb == nil {
		return true, nil
	}
	bucket := fmt.Sprintf("ratelimit:%s:%s", key, time.Now().UTC().Format("200601021504"))
	count, err := rdb.Incr(ctx, bucket).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		rdb.Expire(ctx, bucket, time.Minute)
	}
	return count <= limit, nil
}
