package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/betting-tracker/pkg/contracts/events"
)

// Cache lê o que o stats-processor-worker grava; devolve o JSON cru para evitar decodificar/recodificar
type Cache struct{ R redis.Cmdable }

func New(r redis.Cmdable) *Cache { return &Cache{R: r} }

func (c *Cache) get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.R.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *Cache) Leaderboard(ctx context.Context) ([]byte, bool, error) {
	return c.get(ctx, events.LeaderboardCacheKey)
}

func (c *Cache) SetLeaderboard(ctx context.Context, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, events.LeaderboardCacheKey, b, ttl).Err()
}

func (c *Cache) Summary(ctx context.Context, userID string) ([]byte, bool, error) {
	return c.get(ctx, events.SummaryCacheKey(userID))
}

// Snapshot alimenta o WS com o estado atual do tópico assinado
func (c *Cache) Snapshot(ctx context.Context, topic string) (json.RawMessage, error) {
	var (
		b   []byte
		ok  bool
		err error
	)
	if topic == events.TopicLeaderboard {
		b, ok, err = c.Leaderboard(ctx)
	} else if id, found := strings.CutPrefix(topic, events.TopicSummaryPrefix); found {
		b, ok, err = c.Summary(ctx, id)
	}
	if err != nil || !ok {
		return nil, err
	}
	return json.RawMessage(b), nil
}
