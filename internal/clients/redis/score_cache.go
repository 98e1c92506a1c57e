package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/julihealth/wellness-backend/internal/domain"
	"github.com/julihealth/wellness-backend/internal/platform/logger"
)

const latestScoreTTL = 10 * time.Minute

// ScoreCache caches the latest score row per (user, condition). Best-effort:
// every failure is a cache miss.
type ScoreCache struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewScoreCache(log *logger.Logger, rdb *goredis.Client) *ScoreCache {
	return &ScoreCache{log: log.With("service", "RedisScoreCache"), rdb: rdb}
}

func latestScoreKey(userID uuid.UUID, conditionCode string) string {
	return fmt.Sprintf("wellness:latest:%s:%s", userID, conditionCode)
}

func (c *ScoreCache) GetLatest(ctx context.Context, userID uuid.UUID, conditionCode string) (*domain.WellnessScore, bool) {
	raw, err := c.rdb.Get(ctx, latestScoreKey(userID, conditionCode)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Debug("Cache read failed", "error", err)
		}
		return nil, false
	}
	var row domain.WellnessScore
	if err := json.Unmarshal(raw, &row); err != nil {
		c.log.Warn("Cache entry corrupt, dropping", "error", err)
		c.Invalidate(ctx, userID, conditionCode)
		return nil, false
	}
	return &row, true
}

func (c *ScoreCache) SetLatest(ctx context.Context, userID uuid.UUID, conditionCode string, row *domain.WellnessScore) {
	raw, err := json.Marshal(row)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, latestScoreKey(userID, conditionCode), raw, latestScoreTTL).Err(); err != nil {
		c.log.Debug("Cache write failed", "error", err)
	}
}

func (c *ScoreCache) Invalidate(ctx context.Context, userID uuid.UUID, conditionCode string) {
	if err := c.rdb.Del(ctx, latestScoreKey(userID, conditionCode)).Err(); err != nil {
		c.log.Debug("Cache invalidate failed", "error", err)
	}
}
