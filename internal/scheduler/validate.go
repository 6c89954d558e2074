package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/gammazero/toposort"

	"github.com/envprobe/envprobe/internal/logging"
	"github.com/envprobe/envprobe/internal/recovery"
)

// ValidateBatch checks a batch and returns a prioritized copy of it.
//
// Duplicate task IDs and missing detectors are hard errors. A dependency
// reference to a task not in the batch is only a warning: the task will sit
// pending until the run stalls, which is the scheduler's documented behavior.
// Cycles are likewise detected up front (via topological sort) and warned
// about rather than rejected.
//
// The returned ordering — priority descending, EstimatedTime ascending on
// ties — seeds dispatch order but does not fix it; the scheduler re-evaluates
// readiness every round.
func ValidateBatch(tasks []DetectionTask, logger logging.Logger) ([]DetectionTask, error) {
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			return nil, recovery.Classify(nil, recovery.CategoryConfigurationError,
				"validator", "validate", "task with empty ID")
		}
		if seen[t.ID] {
			return nil, recovery.Classify(nil, recovery.CategoryConfigurationError,
				"validator", "validate", fmt.Sprintf("duplicate task ID %q", t.ID))
		}
		if t.Detector == nil {
			return nil, recovery.Classify(nil, recovery.CategoryConfigurationError,
				"validator", "validate", fmt.Sprintf("task %q has no detector", t.ID))
		}
		seen[t.ID] = true
	}

	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			if !seen[dep] {
				logging.Emit(logger, logging.LevelWarn, "validator", "validate",
					"dependency not present in batch",
					map[string]any{"task": t.ID, "dependency": dep})
			}
		}
	}

	warnOnCycle(tasks, logger)

	ordered := make([]DetectionTask, 0, len(tasks))
	for _, t := range tasks {
		cp := cloneTask(t)
		if cp.EstimatedTime <= 0 {
			cp.EstimatedTime = time.Second
		}
		ordered = append(ordered, cp)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].EstimatedTime < ordered[j].EstimatedTime
	})

	return ordered, nil
}

// warnOnCycle runs a topological sort over the batch and logs a warning when
// it fails. A cyclic batch is still runnable; it will stall once only the
// cycle's members remain pending.
func warnOnCycle(tasks []DetectionTask, logger logging.Logger) {
	ids := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		ids[t.ID] = true
	}

	var edges []toposort.Edge
	for _, t := range tasks {
		if len(t.Dependencies) == 0 {
			edges = append(edges, toposort.Edge{nil, t.ID})
			continue
		}
		for _, dep := range t.Dependencies {
			if !ids[dep] {
				// Out-of-batch references already warned about; they
				// can't form a cycle inside this batch.
				continue
			}
			edges = append(edges, toposort.Edge{dep, t.ID})
		}
	}

	if _, err := toposort.Toposort(edges); err != nil {
		logging.Emit(logger, logging.LevelWarn, "validator", "validate",
			"batch contains a dependency cycle and will stall",
			map[string]any{"detail": err.Error()})
	}
}
