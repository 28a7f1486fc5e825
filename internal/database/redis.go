package database

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
)

// InitRedis initializes the Redis client used as the idempotency replay
// cache. The cache is an optimization, not a dependency: when Redis is
// unreachable the caller gets nil and reads fall through to Postgres.
func InitRedis() *redis.Client {
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	addr := viper.GetString("redis.host") + ":" + viper.GetString("redis.port")
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection failed, continuing without Redis: %v", err)
		return nil
	}

	log.Println("Redis connection established")
	return rdb
}

// CacheTTL returns how long cached idempotency results live. Records are
// immutable, so the TTL only bounds memory, not staleness.
func CacheTTL() time.Duration {
	viper.SetDefault("redis.cache_ttl", 24*time.Hour)
	return viper.GetDuration("redis.cache_ttl")
}
