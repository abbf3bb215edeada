package system

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Task is one short unit of work handed to an Executor, e.g. a single room tick.
type Task func(ctx context.Context)

// Executor runs a batch of independent tasks and returns once all of them
// have finished. Implementations decide how much parallelism to use.
type Executor interface {
	Run(ctx context.Context, tasks []Task)
}

// PoolExecutor runs tasks on a bounded set of goroutines.
type PoolExecutor struct {
	limit int
	log   *zap.Logger
}

func NewPoolExecutor(limit int, log *zap.Logger) *PoolExecutor {
	if limit <= 0 {
		limit = 1
	}
	return &PoolExecutor{limit: limit, log: log}
}

func (p *PoolExecutor) Run(ctx context.Context, tasks []Task) {
	if len(tasks) == 0 {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)
	for i, t := range tasks {
		g.Go(func() error {
			if err := runTask(gctx, t); err != nil {
				p.log.Error("task panicked", zap.Int("task", i), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

// InlineExecutor runs tasks one after another on the calling goroutine.
// Tests use it to drive ticks deterministically.
type InlineExecutor struct{}

func (InlineExecutor) Run(ctx context.Context, tasks []Task) {
	for _, t := range tasks {
		_ = runTask(ctx, t)
	}
}

func runTask(ctx context.Context, t Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	t(ctx)
	return nil
}
