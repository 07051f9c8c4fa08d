package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"depremkit/internal/config"
	"depremkit/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	notificationKeyPrefix = "notification:"
	notificationIndexKey  = "notifications"
)

var errNilClient = errors.New("redis client is nil")

type RedisNotificationRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisNotificationRepository(client *redis.Client, ttl time.Duration) *RedisNotificationRepository {
	return &RedisNotificationRepository{
		client: client,
		ttl:    ttl,
	}
}

func notificationKey(id string) string {
	return notificationKeyPrefix + id
}

func (r *RedisNotificationRepository) Save(ctx context.Context, n *models.Notification) error {
	if r.client == nil {
		return errNilClient
	}
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, notificationKey(n.ID), data, r.ttl)
	pipe.SAdd(ctx, notificationIndexKey, n.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save notification in redis: %w", err)
	}
	return nil
}

func (r *RedisNotificationRepository) Get(ctx context.Context, id string) (*models.Notification, error) {
	if r.client == nil {
		return nil, errNilClient
	}
	val, err := r.client.Get(ctx, notificationKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification from redis: %w", err)
	}

	var n models.Notification
	if err := json.Unmarshal([]byte(val), &n); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	return &n, nil
}

func (r *RedisNotificationRepository) Delete(ctx context.Context, id string) error {
	if r.client == nil {
		return errNilClient
	}
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, notificationKey(id))
	pipe.SRem(ctx, notificationIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete notification from redis: %w", err)
	}
	return nil
}

func (r *RedisNotificationRepository) DeleteAll(ctx context.Context) error {
	if r.client == nil {
		return errNilClient
	}
	ids, err := r.client.SMembers(ctx, notificationIndexKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list notifications: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, notificationKey(id))
	}
	keys = append(keys, notificationIndexKey)
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete notifications from redis: %w", err)
	}
	return nil
}

// List returns stored notifications ordered by fire time. Index entries whose
// value expired are pruned.
func (r *RedisNotificationRepository) List(ctx context.Context) ([]*models.Notification, error) {
	if r.client == nil {
		return nil, errNilClient
	}
	ids, err := r.client.SMembers(ctx, notificationIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = notificationKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}

	out := make([]*models.Notification, 0, len(values))
	var stale []any
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var n models.Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notification %s: %w", ids[i], err)
		}
		out = append(out, &n)
	}
	if len(stale) > 0 {
		r.client.SRem(ctx, notificationIndexKey, stale...)
	}

	sortByFireAt(out)
	return out, nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
