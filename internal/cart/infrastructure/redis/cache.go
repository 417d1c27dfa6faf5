package redis

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/ecobazaar/internal/cart/domain"
)

const keyPrefix = "cart:"

// Cache stores cart rows as JSON under a per-user version. Invalidate bumps
// the version, so an entry loaded before a write lands under a version no
// reader asks for. Expiry is baseTTL plus up to maxJitter so entries written
// together do not all expire together.
type Cache struct {
	client    redis.Cmdable
	baseTTL   time.Duration
	maxJitter time.Duration
}

func NewCache(client redis.Cmdable, baseTTL, maxJitter time.Duration) *Cache {
	return &Cache{client: client, baseTTL: baseTTL, maxJitter: maxJitter}
}

// Version is 0 for a user whose cart was never written.
func (c *Cache) Version(ctx context.Context, userID int64) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get cart version: %w", err)
	}
	return v, nil
}

func (c *Cache) Get(ctx context.Context, userID, version int64) (domain.Lines, bool, error) {
	data, err := c.client.Get(ctx, entryKey(userID, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Lines{}, false, nil
	}
	if err != nil {
		return domain.Lines{}, false, fmt.Errorf("redis get cart: %w", err)
	}
	var lines domain.Lines
	if err := json.Unmarshal(data, &lines); err != nil {
		return domain.Lines{}, false, fmt.Errorf("decode cached cart: %w", err)
	}
	return lines, true, nil
}

func (c *Cache) Set(ctx context.Context, version int64, lines domain.Lines) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := c.client.Set(ctx, entryKey(lines.UserID, version), data, c.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, userID int64) error {
	v, err := c.client.Incr(ctx, versionKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("redis bump cart version: %w", err)
	}
	if err := c.client.Del(ctx, entryKey(userID, v-1)).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}

func (c *Cache) ttl() time.Duration {
	if c.maxJitter <= 0 {
		return c.baseTTL
	}
	return c.baseTTL + rand.N(c.maxJitter)
}

func versionKey(userID int64) string {
	return keyPrefix + strconv.FormatInt(userID, 10) + ":ver"
}

func entryKey(userID, version int64) string {
	return keyPrefix + strconv.FormatInt(userID, 10) + ":v" + strconv.FormatInt(version, 10)
}
