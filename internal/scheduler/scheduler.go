// Package scheduler repeats a task on a fixed interval.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then on every tick until ctx is done.
// Runs never overlap: a tick that fires while task is running is dropped.
// A failing run is logged and the schedule continues.
func Every(ctx context.Context, interval time.Duration, name string, task Task, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("task", name))

	run := func() {
		start := time.Now()
		if err := task(ctx); err != nil {
			log.Error("run failed", zap.Error(err))
			return
		}
		log.Debug("run done", zap.Duration("took", time.Since(start)))
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
