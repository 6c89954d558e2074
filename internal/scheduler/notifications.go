package scheduler

import (
	"time"
)

// Notification is a batch lifecycle event. Notifications are delivered on a
// channel the caller owns and supplies; there is no subscriber registry
// inside the engine. Sends never block: if the caller's channel is full the
// notification is dropped.
type Notification interface {
	notification()
}

// RoundComplete is emitted after each scheduling round settles, carrying
// that round's results (cache hits included).
type RoundComplete struct {
	RunID     string
	Round     int
	Results   []TaskResult
	Timestamp time.Time
}

func (RoundComplete) notification() {}

// ExecutionComplete is emitted once per run with the final summary.
type ExecutionComplete struct {
	RunID     string
	Summary   ExecutionSummary
	Timestamp time.Time
}

func (ExecutionComplete) notification() {}

// ExecutionCancelled is emitted when a run is cancelled. Earlier rounds'
// results were already delivered via RoundComplete; the interrupted round
// never announces (Run still returns whatever settled from cache in it).
type ExecutionCancelled struct {
	RunID     string
	Timestamp time.Time
}

func (ExecutionCancelled) notification() {}

// send delivers n without blocking. A nil channel discards it.
func send(ch chan<- Notification, n Notification) {
	if ch == nil {
		return
	}
	select {
	case ch <- n:
	default:
		// Channel full, drop the notification.
	}
}
