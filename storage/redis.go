package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/snapbin/snapbin/models"
)

const pasteKeyPrefix = "paste:"

const (
	fieldContent        = "content"
	fieldCreatedAt      = "created_at"
	fieldExpiresAt      = "expires_at"
	fieldMaxViews       = "max_views"
	fieldRemainingViews = "remaining_views"
)

// RedisStore implements PasteStore using a Redis hash per record. HINCRBY
// supplies the atomic decrement with a total order across all clients.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis storage backend from a redis:// URL.
func NewRedisStore(url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Put saves a paste as a hash under paste:<id> in one HSET.
func (r *RedisStore) Put(ctx context.Context, paste *models.Paste) error {
	fields := map[string]interface{}{
		fieldContent:   paste.Content,
		fieldCreatedAt: strconv.FormatInt(paste.CreatedAt, 10),
	}
	if paste.ExpiresAt != nil {
		fields[fieldExpiresAt] = strconv.FormatInt(*paste.ExpiresAt, 10)
	}
	if paste.MaxViews != nil {
		fields[fieldMaxViews] = strconv.FormatInt(*paste.MaxViews, 10)
	}
	if paste.RemainingViews != nil {
		fields[fieldRemainingViews] = strconv.FormatInt(*paste.RemainingViews, 10)
	}

	return r.client.HSet(ctx, pasteKeyPrefix+paste.ID, fields).Err()
}

// Get retrieves a paste by its ID. HGETALL on an absent key yields an empty
// map, which maps to (nil, nil).
func (r *RedisStore) Get(ctx context.Context, id string) (*models.Paste, error) {
	fields, err := r.client.HGetAll(ctx, pasteKeyPrefix+id).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil // Not found
	}
	return fieldsToPaste(id, fields)
}

// IncrViews atomically adjusts the remaining-views counter via HINCRBY and
// returns the new value. HINCRBY on a deleted key recreates a counter-only
// stub; the caller's cleanup deletes it again, so the race self-heals.
func (r *RedisStore) IncrViews(ctx context.Context, id string, delta int64) (int64, error) {
	return r.client.HIncrBy(ctx, pasteKeyPrefix+id, fieldRemainingViews, delta).Result()
}

// Delete removes a paste. DEL on an absent key is not an error.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, pasteKeyPrefix+id).Err()
}

// Ping probes the Redis connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// fieldsToPaste decodes a Redis hash into a Paste model.
func fieldsToPaste(id string, fields map[string]string) (*models.Paste, error) {
	paste := &models.Paste{
		ID:      id,
		Content: fields[fieldContent],
	}

	if v, ok := fields[fieldCreatedAt]; ok {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt %s for paste %s: %w", fieldCreatedAt, id, err)
		}
		paste.CreatedAt = ts
	}

	for field, dst := range map[string]**int64{
		fieldExpiresAt:      &paste.ExpiresAt,
		fieldMaxViews:       &paste.MaxViews,
		fieldRemainingViews: &paste.RemainingViews,
	} {
		v, ok := fields[field]
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt %s for paste %s: %w", field, id, err)
		}
		*dst = &n
	}

	return paste, nil
}
