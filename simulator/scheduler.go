package simulator

import (
	"math"

	"github.com/ethereum/go-ethereum/common/prque"

	"github.com/rony4d/go-stakesim/inter"
)

// Timer is a task queued on a Scheduler. A cancelled timer stays in the
// queue and is dropped when it comes up.
type Timer struct {
	at        inter.Timestamp
	fn        func()
	cancelled bool
}

// At is the simulated time the task fires at.
func (t *Timer) At() inter.Timestamp {
	return t.at
}

// Cancel prevents the task from running. It is safe to cancel twice or to
// cancel a timer that already fired.
func (t *Timer) Cancel() {
	if t != nil {
		t.cancelled = true
	}
}

// Cancelled reports whether Cancel was called.
func (t *Timer) Cancelled() bool {
	return t != nil && t.cancelled
}

// Scheduler is the discrete-event clock of a run. Tasks run one at a time in
// fire-time order; the clock jumps to each task's time before running it.
// Tasks due at the same millisecond run in an order fixed by the queue's
// heap, which is deterministic for a given sequence of pushes but not FIFO.
type Scheduler struct {
	queue *prque.Prque
	now   inter.Timestamp
	ran   uint64
}

// NewScheduler creates an empty scheduler at time zero.
func NewScheduler() *Scheduler {
	return &Scheduler{queue: prque.New(nil)}
}

// Now is the current simulated time.
func (s *Scheduler) Now() inter.Timestamp {
	return s.now
}

// Pending is the number of queued tasks, cancelled ones included.
func (s *Scheduler) Pending() int {
	return s.queue.Size()
}

// Executed is the number of tasks run so far.
func (s *Scheduler) Executed() uint64 {
	return s.ran
}

// After queues fn to run delay milliseconds from now. Fire times past the
// queue's range are clamped to its end.
func (s *Scheduler) After(delay inter.Timestamp, fn func()) *Timer {
	at := s.now + delay
	if at < s.now || at > math.MaxInt64 {
		at = math.MaxInt64
	}
	t := &Timer{at: at, fn: fn}
	// prque pops the highest priority first
	s.queue.Push(t, -int64(at))
	return t
}

// Step runs the next live task due no later than deadline. It returns false
// when no such task is left; a task past the deadline stays queued.
func (s *Scheduler) Step(deadline inter.Timestamp) bool {
	for !s.queue.Empty() {
		item, prio := s.queue.Pop()
		t := item.(*Timer)
		if t.cancelled {
			continue
		}
		if t.at > deadline {
			s.queue.Push(t, prio)
			return false
		}
		s.now = t.at
		s.ran++
		t.fn()
		return true
	}
	return false
}
