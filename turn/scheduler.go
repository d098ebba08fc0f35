package turn

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Scheduler runs delayed tasks that can be cancelled individually or all at once.
// A cancelled task never runs, even if its timer already fired.
type Scheduler struct {
	clock  clock.Clock
	mu     sync.Mutex
	timers map[uint64]*clock.Timer
	next   uint64
}

// NewScheduler creates a scheduler driven by clk.
func NewScheduler(clk clock.Clock) *Scheduler {
	return &Scheduler{
		clock:  clk,
		timers: make(map[uint64]*clock.Timer),
	}
}

// After runs fn once d has elapsed. The returned function cancels it and
// reports whether it was still pending.
func (s *Scheduler) After(d time.Duration, fn func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.timers[id] = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		_, live := s.timers[id]
		delete(s.timers, id)
		s.mu.Unlock()
		if live {
			fn()
		}
	})
	return func() bool {
		return s.cancel(id)
	}
}

// CancelAll drops every pending task and returns how many there were.
func (s *Scheduler) CancelAll() int {
	s.mu.Lock()
	timers := s.timers
	s.timers = make(map[uint64]*clock.Timer)
	s.mu.Unlock()
	for _, t := range timers {
		t.Stop()
	}
	return len(timers)
}

// Pending returns the number of tasks not yet run or cancelled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Scheduler) cancel(id uint64) bool {
	s.mu.Lock()
	t, ok := s.timers[id]
	delete(s.timers, id)
	s.mu.Unlock()
	if ok {
		t.Stop()
	}
	return ok
}
