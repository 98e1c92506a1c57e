package jobs

import (
	"context"
	"time"

	"github.com/julihealth/wellness-backend/internal/platform/logger"
	"github.com/julihealth/wellness-backend/internal/score"
)

// Worker triggers score batch runs on a fixed interval. The driver itself is
// a plain callable, so any external trigger (cron, queue consumer) could call
// it instead; this worker is just the default in-process trigger.
type Worker struct {
	log      *logger.Logger
	driver   *score.BatchDriver
	interval time.Duration
}

func NewWorker(baseLog *logger.Logger, driver *score.BatchDriver, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = score.DefaultIntervalMinutes * time.Minute
	}
	return &Worker{
		log:      baseLog.With("component", "ScoreWorker"),
		driver:   driver,
		interval: interval,
	}
}

// Start launches the ticker loop. It returns immediately; the loop stops when
// ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		w.log.Info("Score worker started", "interval", w.interval.String())
		for {
			select {
			case <-ctx.Done():
				w.log.Info("Score worker stopped")
				return
			case <-ticker.C:
				w.runOnce(ctx)
			}
		}
	}()
}

// runOnce shields the ticker loop from a panicking run.
func (w *Worker) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Score run panicked", "panic", r)
		}
	}()

	if _, err := w.driver.Run(ctx); err != nil {
		w.log.Error("Score run failed", "error", err)
	}
}
