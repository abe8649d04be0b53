package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"Zenith/model"

	"github.com/go-redis/redis/v8"
)

const (
	snapshotKey = "zenith:session:snapshot" // Hash: 共享播放状态
	snapshotTTL = 7 * 24 * time.Hour
)

// SnapshotCache keeps the hub's authoritative snapshot in a Redis hash,
// so a restarted bridge resumes where the surfaces left off.
type SnapshotCache struct {
	client *redis.Client
	now    func() time.Time
}

// NewSnapshotCache 创建快照缓存，client 为空时使用全局连接
func NewSnapshotCache(client *redis.Client) *SnapshotCache {
	if client == nil {
		client = RedisClient
	}
	return &SnapshotCache{client: client, now: time.Now}
}

// SaveSnapshot 保存共享播放状态
func (c *SnapshotCache) SaveSnapshot(ctx context.Context, s model.Snapshot) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	fields, err := snapshotFields(s, c.now())
	if err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, snapshotKey, fields)
	pipe.Expire(ctx, snapshotKey, snapshotTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// LoadSnapshot 读取共享播放状态，不存在时返回空状态
func (c *SnapshotCache) LoadSnapshot(ctx context.Context) (model.Snapshot, error) {
	if c.client == nil {
		return model.Snapshot{}, fmt.Errorf("Redis client not initialized")
	}
	result, err := c.client.HGetAll(ctx, snapshotKey).Result()
	if err != nil {
		if err == redis.Nil {
			return model.Snapshot{}, nil
		}
		return model.Snapshot{}, err
	}
	return snapshotFromHash(result)
}

// ClearSnapshot 删除共享播放状态
func (c *SnapshotCache) ClearSnapshot(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	return c.client.Del(ctx, snapshotKey).Err()
}

func snapshotFields(s model.Snapshot, at time.Time) (map[string]interface{}, error) {
	songJSON := ""
	if s.CurrentTrack != nil {
		data, err := json.Marshal(s.CurrentTrack)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal track: %w", err)
		}
		songJSON = string(data)
	}
	return map[string]interface{}{
		"current_track": songJSON,
		"is_playing":    strconv.FormatBool(s.IsPlaying),
		"updated_at":    at.UnixMilli(),
	}, nil
}

func snapshotFromHash(h map[string]string) (model.Snapshot, error) {
	var s model.Snapshot
	if len(h) == 0 {
		return s, nil
	}
	if raw := h["current_track"]; raw != "" {
		var t model.Track
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return s, fmt.Errorf("failed to unmarshal track: %w", err)
		}
		s.CurrentTrack = &t
	}
	s.IsPlaying, _ = strconv.ParseBool(h["is_playing"])
	if s.CurrentTrack == nil {
		s.IsPlaying = false
	}
	return s, nil
}
