// Package cache keeps each user's ordered category listing close to the API.
// Entries are dropped whenever the user's tree changes.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"spendtree/internal/models"
)

// DefaultTTL bounds how long a listing may be served without a mutation.
const DefaultTTL = 10 * time.Minute

// TreeCache stores the result of listing a user's categories in tree order.
//
// Every user has a generation that Invalidate advances. A listing read from
// the database after Get may only be stored with the generation Get returned,
// so a listing loaded before a concurrent mutation never outlives it.
type TreeCache interface {
	// Get returns the cached listing, whether it was present and the
	// user's current generation.
	Get(ctx context.Context, userID string) ([]models.Category, int64, bool, error)
	// Set stores categories unless the generation moved past gen. It
	// reports whether the listing was stored.
	Set(ctx context.Context, userID string, gen int64, categories []models.Category) (bool, error)
	Invalidate(ctx context.Context, userID string) error
}

// NewRedisClient opens a go-redis client for the given server.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

type redisTreeCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisTreeCache returns a TreeCache backed by Redis. A non-positive ttl
// falls back to DefaultTTL.
func NewRedisTreeCache(rdb *redis.Client, ttl time.Duration) TreeCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisTreeCache{rdb: rdb, ttl: ttl}
}

// Both keys share a hash tag so the script below stays on one cluster slot.
func treeKey(userID string) string {
	return fmt.Sprintf("spendtree:categories:{%s}:tree", userID)
}

func generationKey(userID string) string {
	return fmt.Sprintf("spendtree:categories:{%s}:gen", userID)
}

// storeIfCurrent writes the listing only while the generation still equals ARGV[1].
var storeIfCurrent = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if (current or "0") ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

func (c *redisTreeCache) Get(ctx context.Context, userID string) ([]models.Category, int64, bool, error) {
	vals, err := c.rdb.MGet(ctx, generationKey(userID), treeKey(userID)).Result()
	if err != nil {
		return nil, 0, false, err
	}

	var gen int64
	if raw, ok := vals[0].(string); ok {
		if gen, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, 0, false, fmt.Errorf("parse tree generation: %w", err)
		}
	}

	raw, ok := vals[1].(string)
	if !ok {
		return nil, gen, false, nil
	}
	var categories []models.Category
	if err := json.Unmarshal([]byte(raw), &categories); err != nil {
		return nil, gen, false, err
	}
	return categories, gen, true, nil
}

func (c *redisTreeCache) Set(ctx context.Context, userID string, gen int64, categories []models.Category) (bool, error) {
	b, err := json.Marshal(categories)
	if err != nil {
		return false, err
	}
	n, err := storeIfCurrent.Run(ctx, c.rdb,
		[]string{generationKey(userID), treeKey(userID)},
		strconv.FormatInt(gen, 10), b, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *redisTreeCache) Invalidate(ctx context.Context, userID string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(userID))
		pipe.Del(ctx, treeKey(userID))
		return nil
	})
	return err
}

type noopTreeCache struct{}

// NewNoopTreeCache returns a TreeCache that never holds anything.
func NewNoopTreeCache() TreeCache {
	return noopTreeCache{}
}

func (noopTreeCache) Get(context.Context, string) ([]models.Category, int64, bool, error) {
	return nil, 0, false, nil
}

func (noopTreeCache) Set(context.Context, string, int64, []models.Category) (bool, error) {
	return false, nil
}

func (noopTreeCache) Invalidate(context.Context, string) error { return nil }
