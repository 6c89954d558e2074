package scheduler

import (
	"context"
	"time"

	"github.com/envprobe/envprobe/internal/recovery"
)

// Detector is the probe operation a task runs. The engine is agnostic to
// what it does: run a shell command, stat a file, read a registry key.
// Implementations should honor ctx but are not required to; the timeout
// guard abandons waiting either way.
type Detector func(ctx context.Context) (any, error)

// DetectionTask is one unit of work in a batch.
type DetectionTask struct {
	ID            string        // Unique within the batch
	Category      string        // Grouping label, part of the cache key
	Priority      int           // Higher dispatches first
	Dependencies  []string      // Task IDs that must succeed before this runs
	EstimatedTime time.Duration // Scheduling hint (default 1s)
	Timeout       time.Duration // Per-task deadline; 0 uses the global timeout
	Detector      Detector
}

// ResourceUsage carries advisory resource numbers a detector measured for
// its own execution. The engine aggregates but never measures.
type ResourceUsage struct {
	PeakMemoryBytes int64
	CPUPercent      float64
}

// ResourceReporter is implemented by detector result values that carry
// resource numbers. Checked only when monitoring is enabled.
type ResourceReporter interface {
	Resources() ResourceUsage
}

// TaskResult is the outcome of one task. Every dispatched task yields
// exactly one, including on timeout; a stalled batch additionally yields
// one per task that never dispatched, marked Skipped.
type TaskResult struct {
	TaskID        string
	Value         any
	Err           *recovery.ClassifiedError
	ExecutionTime time.Duration
	Cached        bool
	Skipped       bool // Never dispatched (stalled batch)
	Resources     *ResourceUsage
}

// Success reports whether the task produced a value with no error.
func (r TaskResult) Success() bool {
	return r.Err == nil
}

func cloneTask(t DetectionTask) DetectionTask {
	cp := t
	if t.Dependencies != nil {
		cp.Dependencies = append([]string(nil), t.Dependencies...)
	}
	return cp
}
