package worker

import (
	"context"

	"github.com/akolanti/pdfqa/internal/config"
	"github.com/akolanti/pdfqa/pkg/logger_i"
	"golang.org/x/sync/errgroup"
)

// Task handles item i of a batch run.
type Task func(ctx context.Context, i int) error

var logger = logger_i.NewLogger("WorkerPool")

// Run calls task for every index in [0, n) on at most workers goroutines and blocks until
// they are all done. The first failing task cancels the rest and its error is returned.
// With workers == 1 tasks run in index order.
func Run(ctx context.Context, label string, n int, workers int, task Task) error {
	if n <= 0 {
		return nil
	}
	workers = min(max(workers, 1), n)

	log := logger.WithTrace(ctx, config.TRACE_ID_KEY)
	log.Debug("Starting worker pool", "label", label, "tasks", n, "workers", workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return executeTask(gctx, label, i, task)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
