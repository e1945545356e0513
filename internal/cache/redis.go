package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/devpulse/devpulse-backend/internal/logger"
	"github.com/devpulse/devpulse-backend/internal/types"
)

const recentAllKey = "interactions:recent"

// RedisInteractions stores per-key interaction lists plus a global recent
// list, each capped and expiring with the TTL. Writes LPUSH+LTRIM so the
// newest entries survive the cap.
type RedisInteractions struct {
	log       *logger.Logger
	rdb       *goredis.Client
	ttl       time.Duration
	maxPerKey int
	prefix    string
}

func NewRedisInteractions(log *logger.Logger, ttl time.Duration, maxPerKey int) (*RedisInteractions, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if maxPerKey <= 0 {
		maxPerKey = 500
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisInteractions{
		log:       log.With("service", "RedisInteractions"),
		rdb:       rdb,
		ttl:       ttl,
		maxPerKey: maxPerKey,
		prefix:    "interactions:",
	}, nil
}

func (c *RedisInteractions) Add(ctx context.Context, key string, interaction *types.Interaction) error {
	if interaction == nil {
		return nil
	}
	raw, err := json.Marshal(interaction)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}

	pipe := c.rdb.TxPipeline()
	for _, k := range []string{c.prefix + key, recentAllKey} {
		pipe.LPush(ctx, k, raw)
		pipe.LTrim(ctx, k, 0, int64(c.maxPerKey-1))
		pipe.Expire(ctx, k, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache interaction: %w", err)
	}
	return nil
}

func (c *RedisInteractions) Get(ctx context.Context, key string, since time.Time) ([]*types.Interaction, error) {
	return c.readList(ctx, c.prefix+key, since)
}

func (c *RedisInteractions) RecentAll(ctx context.Context, since time.Time) ([]*types.Interaction, error) {
	return c.readList(ctx, recentAllKey, since)
}

func (c *RedisInteractions) readList(ctx context.Context, key string, since time.Time) ([]*types.Interaction, error) {
	raws, err := c.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read cached interactions: %w", err)
	}

	var out []*types.Interaction
	for _, raw := range raws {
		var in types.Interaction
		if err := json.Unmarshal([]byte(raw), &in); err != nil {
			c.log.Warn("Dropping undecodable cached interaction", "error", err)
			continue
		}
		if in.CreatedAt.Before(since) {
			continue
		}
		out = append(out, &in)
	}
	return out, nil
}

func (c *RedisInteractions) Close() error {
	return c.rdb.Close()
}
