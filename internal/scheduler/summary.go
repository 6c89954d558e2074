package scheduler

import (
	"time"
)

// ExecutionSummary rolls one batch's results up into headline numbers.
type ExecutionSummary struct {
	TotalTime        time.Duration
	TasksExecuted    int
	SuccessCount     int
	FailureCount     int
	CacheHits        int
	SkippedCount     int
	AvgExecutionTime time.Duration // Over dispatched, non-cached results only
	MaxExecutionTime time.Duration // Over dispatched, non-cached results only
	Resources        ResourceUsage // Max peak memory, mean CPU of reporting tasks
}

// Summarize aggregates a batch's results. Average and maximum execution time
// consider only results that actually ran a detector: cache hits and skipped
// tasks settle in zero time and would skew both. Resource numbers are
// advisory, combined from whatever each result carried: peak memory is the
// maximum, CPU the mean over reporters.
func Summarize(results []TaskResult, totalTime time.Duration) ExecutionSummary {
	s := ExecutionSummary{
		TotalTime:     totalTime,
		TasksExecuted: len(results),
	}

	var execTotal time.Duration
	var executed int
	var cpuTotal float64
	var cpuCount int

	for _, r := range results {
		if r.Success() {
			s.SuccessCount++
		} else {
			s.FailureCount++
		}

		switch {
		case r.Cached:
			s.CacheHits++
		case r.Skipped:
			s.SkippedCount++
		default:
			executed++
			execTotal += r.ExecutionTime
			if r.ExecutionTime > s.MaxExecutionTime {
				s.MaxExecutionTime = r.ExecutionTime
			}
		}

		if r.Resources != nil {
			if r.Resources.PeakMemoryBytes > s.Resources.PeakMemoryBytes {
				s.Resources.PeakMemoryBytes = r.Resources.PeakMemoryBytes
			}
			cpuTotal += r.Resources.CPUPercent
			cpuCount++
		}
	}

	if executed > 0 {
		s.AvgExecutionTime = execTotal / time.Duration(executed)
	}
	if cpuCount > 0 {
		s.Resources.CPUPercent = cpuTotal / float64(cpuCount)
	}

	return s
}
