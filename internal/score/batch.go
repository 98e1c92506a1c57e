package score

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julihealth/wellness-backend/internal/data/repos"
	"github.com/julihealth/wellness-backend/internal/domain"
	"github.com/julihealth/wellness-backend/internal/platform/dbctx"
	"github.com/julihealth/wellness-backend/internal/platform/logger"
)

// RunLock serializes batch runs across instances. Implementations are
// best-effort: even without a lock, overlapping runs can at worst write a
// duplicate-valued row, which persistence already tolerates.
type RunLock interface {
	// TryAcquire returns a release func and true when the lock was taken.
	TryAcquire(ctx context.Context) (release func(), ok bool, err error)
}

// BatchResult summarizes one recomputation pass. InsufficientData and
// unchanged-score outcomes both count as skipped.
type BatchResult struct {
	Pairs   int `json:"pairs"`
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
	Errored int `json:"errored"`
}

// BatchDriver enumerates eligible (user, condition) pairs and recomputes each
// one, isolating per-pair failures.
type BatchDriver struct {
	log        *logger.Logger
	svc        *Service
	directory  repos.UserConditionRepo
	runs       repos.ScoreRunRepo
	lock       RunLock
	activeDays int
	// concurrency 1 processes pairs sequentially; pairs touch disjoint rows,
	// so higher values are safe.
	concurrency int
	now         func() time.Time
}

func NewBatchDriver(
	baseLog *logger.Logger,
	svc *Service,
	directory repos.UserConditionRepo,
	runs repos.ScoreRunRepo,
	lock RunLock,
	activeDays int,
	concurrency int,
) *BatchDriver {
	if activeDays <= 0 {
		activeDays = DefaultActiveUserDays
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchDriver{
		log:         baseLog.With("component", "ScoreBatchDriver"),
		svc:         svc,
		directory:   directory,
		runs:        runs,
		lock:        lock,
		activeDays:  activeDays,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// WithClock overrides the wall clock, for tests.
func (d *BatchDriver) WithClock(now func() time.Time) *BatchDriver {
	d.now = now
	return d
}

// Run recomputes scores for every active pair, evaluated at today's date.
func (d *BatchDriver) Run(ctx context.Context) (BatchResult, error) {
	if d.lock != nil {
		release, ok, err := d.lock.TryAcquire(ctx)
		if err != nil {
			d.log.Warn("Run lock unavailable, proceeding without it", "error", err)
		} else if !ok {
			d.log.Info("Another score run is in progress, skipping")
			return BatchResult{}, nil
		} else {
			defer release()
		}
	}

	startedAt := d.now()
	pairs, err := d.directory.ActiveUserConditionPairs(dbctx.Context{Ctx: ctx}, d.activeDays)
	if err != nil {
		return BatchResult{}, fmt.Errorf("enumerate active pairs: %w", err)
	}
	if len(pairs) == 0 {
		d.log.Info("No active users with supported conditions")
		return BatchResult{}, nil
	}
	d.log.Info("Starting score run", "pairs", len(pairs))

	var (
		mu       sync.Mutex
		result   = BatchResult{Pairs: len(pairs)}
		pairErrs = map[string]string{}
		evalDate = startedAt
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for _, pair := range pairs {
		g.Go(func() error {
			outcome, err := d.runPair(gctx, pair, evalDate)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errored++
				pairErrs[fmt.Sprintf("%s/%s", pair.UserID, pair.ConditionCode)] = err.Error()
				d.log.Error("Score computation failed",
					"user_id", pair.UserID, "condition_code", pair.ConditionCode, "error", err)
				return nil
			}
			if outcome == OutcomeSaved {
				result.Saved++
			} else {
				result.Skipped++
			}
			return nil
		})
	}
	_ = g.Wait()

	d.recordRun(ctx, startedAt, result, pairErrs)
	d.log.Info("Score run completed",
		"saved", result.Saved, "skipped", result.Skipped, "errored", result.Errored)
	return result, nil
}

// runPair evaluates a single pair with panic isolation.
func (d *BatchDriver) runPair(ctx context.Context, pair repos.UserConditionPair, evalDate time.Time) (outcome SaveOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	_, outcome, err = d.svc.CalculateAndSave(ctx, pair.UserID, pair.ConditionCode, evalDate)
	return outcome, err
}

func (d *BatchDriver) recordRun(ctx context.Context, startedAt time.Time, result BatchResult, pairErrs map[string]string) {
	if d.runs == nil {
		return
	}

	finishedAt := d.now()
	row := &domain.ScoreRun{
		StartedAt:  startedAt,
		FinishedAt: &finishedAt,
		Pairs:      result.Pairs,
		Saved:      result.Saved,
		Skipped:    result.Skipped,
		Errored:    result.Errored,
	}
	if len(pairErrs) > 0 {
		if raw, err := json.Marshal(pairErrs); err == nil {
			row.Errors = raw
		}
	}
	if _, err := d.runs.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		d.log.Warn("Failed to record score run", "error", err)
	}
}
