package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"coursenova-backend/internal/logger"
	"coursenova-backend/internal/models"
)

// StatusPublisher pushes progress events to a user's socket connections.
type StatusPublisher interface {
	PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage)
}

// Locker guards a key across server instances.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string)
}

type Notifier struct {
	redis *redis.Client
	log   *logger.Logger
}

func NewNotifier(client *redis.Client, log *logger.Logger) *Notifier {
	return &Notifier{redis: client, log: log}
}

// PublishUpdate sends a WebSocket update via Redis pub/sub
func (n *Notifier) PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		n.log.Warn("Failed to encode status update", "type", msg.Type, "error", err)
		return
	}
	if err := n.redis.Publish(ctx, models.UserUpdatesChannel(userID), string(data)).Err(); err != nil {
		n.log.Warn("Failed to publish status update", "user_id", userID.String(), "error", err)
	}
}

type RedisLocker struct {
	redis *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{redis: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.redis.SetNX(ctx, key, "1", ttl).Result()
}

func (l *RedisLocker) Release(ctx context.Context, key string) {
	l.redis.Del(ctx, key)
}

type RedisEnrichmentCache struct {
	redis *redis.Client
	ttl   time.Duration
	log   *logger.Logger
}

func NewRedisEnrichmentCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisEnrichmentCache {
	return &RedisEnrichmentCache{redis: client, ttl: ttl, log: log}
}

func (c *RedisEnrichmentCache) Get(ctx context.Context, key string) (*Enrichment, bool) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("Enrichment cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	var e Enrichment
	if err := json.Unmarshal(data, &e); err != nil {
		c.log.Warn("Discarding corrupt enrichment cache entry", "key", key, "error", err)
		c.redis.Del(ctx, key)
		return nil, false
	}
	if e.Articles == nil {
		e.Articles = []models.Article{}
	}
	if e.Videos == nil {
		e.Videos = []models.Video{}
	}
	return &e, true
}

func (c *RedisEnrichmentCache) Set(ctx context.Context, key string, e *Enrichment) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("Enrichment cache write failed", "key", key, "error", err)
	}
}
