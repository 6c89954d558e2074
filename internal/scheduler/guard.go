package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/envprobe/envprobe/internal/recovery"
)

// runGuarded races one detector invocation against a deadline. This is a
// race, not a cancellation: when the timer wins, the detector goroutine keeps
// running and its eventual outcome is discarded (the result channel is
// buffered so the goroutine can always exit).
func runGuarded(ctx context.Context, task DetectionTask, timeout time.Duration) (any, error) {
	type outcome struct {
		value any
		err   error
	}

	ch := make(chan outcome, 1)
	go func() {
		v, err := task.Detector(ctx)
		ch <- outcome{value: v, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case o := <-ch:
		return o.value, o.err
	case <-timer.C:
		return nil, recovery.Classify(nil, recovery.CategoryTimeout,
			"scheduler", "timeout_guard",
			fmt.Sprintf("task %q exceeded its %s deadline", task.ID, timeout),
			recovery.WithSeverity(recovery.SeverityHigh),
			recovery.WithRetryable(true),
			recovery.WithMetadata("timeout_ms", timeout.Milliseconds()))
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
