package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"Zenith/config"

	"github.com/go-redis/redis/v8"
)

const dialTimeout = 3 * time.Second

// RedisClient is the shared client used by the bridge snapshot cache.
var RedisClient *redis.Client

var errNotConnected = errors.New("redis client not initialized")

// ConnectRedis dials Redis and keeps the client in RedisClient.
// A failed ping closes the client again so callers can fall back to local storage.
func ConnectRedis(cfg *config.Config) error {
	client := redis.NewClient(&redis.Options{
		Addr:        net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: dialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	RedisClient = client
	return nil
}

// CloseRedis 关闭Redis连接
func CloseRedis() error {
	if RedisClient == nil {
		return nil
	}
	err := RedisClient.Close()
	RedisClient = nil
	return err
}

// Health is what the redis command reports.
type Health struct {
	Latency     time.Duration
	SnapshotTTL time.Duration // negative when no snapshot is stored
}

// TestRedis 写入、读取并删除一个临时 key，并检查共享播放状态的过期时间
func TestRedis(ctx context.Context) (Health, error) {
	var h Health
	if RedisClient == nil {
		return h, errNotConnected
	}

	start := time.Now()
	const key, want = "zenith:healthcheck", "ok"
	if err := RedisClient.Set(ctx, key, want, time.Minute).Err(); err != nil {
		return h, fmt.Errorf("failed to set Redis key: %w", err)
	}
	got, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		return h, fmt.Errorf("failed to read back Redis key: %w", err)
	}
	if got != want {
		return h, fmt.Errorf("unexpected value from Redis: got %s", got)
	}
	if err := RedisClient.Del(ctx, key).Err(); err != nil {
		return h, fmt.Errorf("failed to delete Redis key: %w", err)
	}
	h.Latency = time.Since(start)

	ttl, err := RedisClient.TTL(ctx, snapshotKey).Result()
	if err != nil {
		return h, fmt.Errorf("failed to read snapshot TTL: %w", err)
	}
	h.SnapshotTTL = ttl
	return h, nil
}
