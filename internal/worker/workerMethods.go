package worker

import (
	"context"
	"time"

	"github.com/akolanti/pdfqa/internal/metrics"
)

// executeTask skips the task once the group is cancelled. A failure cancels the group
// before its slot is released, so no later index starts after it.
func executeTask(ctx context.Context, label string, i int, task Task) error {
	if ctx.Err() != nil {
		return nil
	}
	metrics.IncrementActiveWorkerCount()
	defer metrics.DecrementActiveWorkerCount()

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics(label, time.Since(start)) }()

	if err := task(ctx, i); err != nil {
		logger.Debug("Task failed", "label", label, "index", i, "error", err)
		return err
	}
	return nil
}
