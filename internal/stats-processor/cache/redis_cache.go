package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/betting-tracker/internal/betting/leaderboard"
	"github.com/radieske/betting-tracker/internal/betting/stats"
	"github.com/radieske/betting-tracker/pkg/contracts/events"
)

// RedisCache guarda o leaderboard e os resumos por usuário já calculados
// TTL: expiração; o leaderboard-service recalcula a partir do banco quando expira
type RedisCache struct {
	Client redis.Cmdable
	TTL    time.Duration
}

func NewRedisCache(c redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

func (r *RedisCache) SetLeaderboard(ctx context.Context, entries []leaderboard.Entry) error {
	return r.setJSON(ctx, events.LeaderboardCacheKey, entries)
}

func (r *RedisCache) SetSummary(ctx context.Context, userID string, s stats.Summary) error {
	return r.setJSON(ctx, events.SummaryCacheKey(userID), s)
}

// DeleteSummary remove o resumo de um usuário apagado
func (r *RedisCache) DeleteSummary(ctx context.Context, userID string) error {
	return r.Client.Del(ctx, events.SummaryCacheKey(userID)).Err()
}

func (r *RedisCache) setJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return r.Client.Set(ctx, key, b, r.TTL).Err()
}
