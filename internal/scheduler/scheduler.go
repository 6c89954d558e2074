// Package scheduler runs batches of detection tasks: dependency-ready
// dispatch in rounds under a concurrency bound, with a TTL result cache
// consulted before execution and a timeout guard around every detector call.
//
// A task's failure never aborts the batch. Only a stall — pending tasks
// remain but none can ever become ready — ends a run early, and the tasks
// that never dispatched are reported as skipped results.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/envprobe/envprobe/internal/cache"
	"github.com/envprobe/envprobe/internal/config"
	"github.com/envprobe/envprobe/internal/logging"
	"github.com/envprobe/envprobe/internal/recovery"
)

// Scheduler executes detection-task batches. One batch runs at a time per
// instance; the cache is the only state that outlives a run.
type Scheduler struct {
	cfg    config.Config
	cache  *cache.Cache
	logger logging.Logger
	notify chan<- Notification

	mu       sync.Mutex
	inFlight map[string]struct{}
	cancel   context.CancelFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the structured log sink.
func WithLogger(l logging.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithCache supplies a result cache shared across runs (and, if the caller
// wants, across scheduler instances).
func WithCache(c *cache.Cache) Option {
	return func(s *Scheduler) { s.cache = c }
}

// WithNotifications sets a caller-owned channel batch notifications are
// delivered on. Sends never block; a full channel drops notifications.
func WithNotifications(ch chan<- Notification) Option {
	return func(s *Scheduler) { s.notify = ch }
}

// New creates a Scheduler. The config is normalized (defaults filled in,
// concurrency clamped) before use.
func New(cfg config.Config, opts ...Option) *Scheduler {
	s := &Scheduler{
		cfg:      cfg.Normalize(),
		logger:   logging.Nop(),
		inFlight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.New()
	}
	return s
}

// Config returns the normalized configuration the scheduler runs with.
func (s *Scheduler) Config() config.Config {
	return s.cfg
}

// InFlight returns how many tasks are currently dispatched.
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight)
}

// Cancel aborts the current run. The scheduler stops between waves, clears
// its in-flight bookkeeping, and discards results from detectors that were
// still running. Detectors themselves only observe the cancellation through
// their context; nothing forcibly stops them.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Run validates, orders, and executes a batch, returning one TaskResult per
// task. On cancellation the results produced so far are returned along with
// the context error. On a stall, never-dispatched tasks are included as
// skipped failures so the result count always matches the batch size.
func (s *Scheduler) Run(ctx context.Context, tasks []DetectionTask) ([]TaskResult, error) {
	started := time.Now()
	runID := uuid.NewString()

	ordered, err := ValidateBatch(tasks, s.logger)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
	}()

	logging.Emit(s.logger, logging.LevelInfo, "scheduler", "run_start",
		"starting batch",
		map[string]any{"run_id": runID, "tasks": len(ordered), "max_concurrency": s.cfg.MaxConcurrency})

	pending := make(map[string]DetectionTask, len(ordered))
	for _, t := range ordered {
		pending[t.ID] = t
	}
	completed := make(map[string]bool, len(ordered)) // IDs that finished with no error

	var results []TaskResult
	round := 0

	for len(pending) > 0 {
		if err := runCtx.Err(); err != nil {
			return s.cancelled(runID, results), err
		}

		// Readiness pass, in priority order.
		var candidates []DetectionTask
		for _, t := range ordered {
			if _, isPending := pending[t.ID]; !isPending {
				continue
			}
			if depsSatisfied(t, completed) {
				candidates = append(candidates, t)
			}
		}

		if len(candidates) == 0 {
			results = append(results, s.stalled(runID, ordered, pending)...)
			break
		}

		// Cache pass: hits settle immediately without a concurrency slot.
		// They still belong to this round and ride along in its
		// RoundComplete, next to whatever the wave executes.
		var wave []DetectionTask
		var roundResults []TaskResult
		for _, t := range candidates {
			if s.cfg.EnableCaching {
				if v, ok := s.cache.Get(cache.Key(t.Category, t.ID)); ok {
					logging.Emit(s.logger, logging.LevelDebug, "scheduler", "cache_hit",
						"serving task from cache",
						map[string]any{"run_id": runID, "task": t.ID})
					roundResults = append(roundResults, TaskResult{TaskID: t.ID, Value: v, Cached: true})
					completed[t.ID] = true
					delete(pending, t.ID)
					continue
				}
			}
			if len(wave) < s.cfg.MaxConcurrency {
				wave = append(wave, t)
			}
		}

		if len(wave) > 0 {
			waveResults := s.dispatch(runCtx, runID, wave)
			if err := runCtx.Err(); err != nil {
				// Results from an interrupted wave are discarded; the
				// round's cache hits settled before dispatch and stay.
				return s.cancelled(runID, append(results, roundResults...)), err
			}

			for _, r := range waveResults {
				delete(pending, r.TaskID)
				if r.Success() {
					completed[r.TaskID] = true
					if s.cfg.EnableCaching {
						t := taskByID(wave, r.TaskID)
						s.cache.Set(cache.Key(t.Category, t.ID), r.Value, s.cfg.CacheTTL)
					}
				}
			}
			roundResults = append(roundResults, waveResults...)
		}

		results = append(results, roundResults...)
		send(s.notify, RoundComplete{RunID: runID, Round: round, Results: roundResults, Timestamp: time.Now()})
		round++
	}

	summary := Summarize(results, time.Since(started))
	logging.EmitTimed(s.logger, logging.LevelInfo, "scheduler", "run_complete",
		"batch finished",
		map[string]any{
			"run_id":     runID,
			"executed":   summary.TasksExecuted,
			"succeeded":  summary.SuccessCount,
			"failed":     summary.FailureCount,
			"cache_hits": summary.CacheHits,
		}, summary.TotalTime)
	send(s.notify, ExecutionComplete{RunID: runID, Summary: summary, Timestamp: time.Now()})

	return results, nil
}

// dispatch runs one wave concurrently and waits for every task in it to
// settle before returning.
func (s *Scheduler) dispatch(ctx context.Context, runID string, wave []DetectionTask) []TaskResult {
	var mu sync.Mutex
	waveResults := make([]TaskResult, 0, len(wave))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrency)

	for _, task := range wave {
		t := task
		g.Go(func() error {
			s.mu.Lock()
			s.inFlight[t.ID] = struct{}{}
			s.mu.Unlock()
			defer func() {
				s.mu.Lock()
				delete(s.inFlight, t.ID)
				s.mu.Unlock()
			}()

			r := s.runTask(gctx, runID, t)

			mu.Lock()
			waveResults = append(waveResults, r)
			mu.Unlock()
			return nil // Task failures live in TaskResult, never abort the wave
		})
	}

	_ = g.Wait()
	return waveResults
}

// runTask executes one task through the timeout guard and classifies any
// failure.
func (s *Scheduler) runTask(ctx context.Context, runID string, t DetectionTask) TaskResult {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = s.cfg.GlobalTimeout
	}

	logging.Emit(s.logger, logging.LevelDebug, "scheduler", "task_start",
		"dispatching task",
		map[string]any{"run_id": runID, "task": t.ID, "category": t.Category, "timeout": timeout.String()})

	start := time.Now()
	value, err := runGuarded(ctx, t, timeout)
	elapsed := time.Since(start)

	result := TaskResult{
		TaskID:        t.ID,
		Value:         value,
		ExecutionTime: elapsed,
	}

	if err != nil {
		result.Value = nil
		result.Err = recovery.Classify(err, recovery.CategoryUnknown,
			"scheduler", "execute", fmt.Sprintf("task %q failed", t.ID))
		logging.EmitTimed(s.logger, logging.LevelWarn, "scheduler", "task_failed",
			result.Err.Message,
			map[string]any{"run_id": runID, "task": t.ID, "category": string(result.Err.Category)}, elapsed)
		return result
	}

	if s.cfg.EnableMonitoring {
		if rep, ok := value.(ResourceReporter); ok {
			res := rep.Resources()
			result.Resources = &res
		}
	}

	logging.EmitTimed(s.logger, logging.LevelDebug, "scheduler", "task_complete",
		"task finished",
		map[string]any{"run_id": runID, "task": t.ID}, elapsed)
	return result
}

// stalled reports the never-dispatched remainder of a stalled batch as
// skipped results, one per pending task.
func (s *Scheduler) stalled(runID string, ordered []DetectionTask, pending map[string]DetectionTask) []TaskResult {
	logging.Emit(s.logger, logging.LevelWarn, "scheduler", "stall",
		"no pending task is dependency-ready; stopping batch",
		map[string]any{"run_id": runID, "pending": len(pending)})

	var skipped []TaskResult
	for _, t := range ordered {
		if _, ok := pending[t.ID]; !ok {
			continue
		}
		skipped = append(skipped, TaskResult{
			TaskID:  t.ID,
			Skipped: true,
			Err: recovery.Classify(nil, recovery.CategoryConfigurationError,
				"scheduler", "stall",
				fmt.Sprintf("task %q skipped: dependencies can never be satisfied", t.ID),
				recovery.WithRetryable(false),
				recovery.WithSuggestedAction("A dependency failed or the batch contains a cycle; fix the task graph and re-run."),
				recovery.WithMetadata("skipped", true)),
		})
	}
	return skipped
}

// cancelled clears in-flight bookkeeping and emits the cancellation
// notification.
func (s *Scheduler) cancelled(runID string, results []TaskResult) []TaskResult {
	s.mu.Lock()
	s.inFlight = make(map[string]struct{})
	s.mu.Unlock()

	logging.Emit(s.logger, logging.LevelInfo, "scheduler", "run_cancelled",
		"batch cancelled", map[string]any{"run_id": runID, "settled": len(results)})
	send(s.notify, ExecutionCancelled{RunID: runID, Timestamp: time.Now()})
	return results
}

func depsSatisfied(t DetectionTask, completed map[string]bool) bool {
	for _, dep := range t.Dependencies {
		if !completed[dep] {
			return false
		}
	}
	return true
}

func taskByID(tasks []DetectionTask, id string) DetectionTask {
	for _, t := range tasks {
		if t.ID == id {
			return t
		}
	}
	return DetectionTask{}
}
