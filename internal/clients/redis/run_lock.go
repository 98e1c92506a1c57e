package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/julihealth/wellness-backend/internal/platform/logger"
)

const (
	runLockKey = "wellness:score-run-lock"
	runLockTTL = 5 * time.Minute
)

// RunLock is a best-effort distributed mutex for score batch runs, so
// multiple instances don't recompute the same pairs at once. Losing the lock
// (or Redis) is safe: persistence is idempotent on value.
type RunLock struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewRunLock(log *logger.Logger, rdb *goredis.Client) *RunLock {
	return &RunLock{log: log.With("service", "RedisRunLock"), rdb: rdb}
}

func (l *RunLock) TryAcquire(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, runLockKey, token, runLockTTL).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// Only delete our own token; an expired lock may have been re-taken.
		current, err := l.rdb.Get(context.Background(), runLockKey).Result()
		if err != nil || current != token {
			return
		}
		if err := l.rdb.Del(context.Background(), runLockKey).Err(); err != nil {
			l.log.Debug("Run lock release failed", "error", err)
		}
	}
	return release, true, nil
}
