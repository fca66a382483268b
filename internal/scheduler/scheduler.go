// Package scheduler provides keyed one-shot timers for self-destruct
// countdowns, typing timeouts and the idle logout deadline.
package scheduler

import (
	"sync"
	"time"

	"github.com/rahul01879/chat-app/internal/domain"
)

// Scheduler owns a set of named timers. Scheduling a key that is already
// pending replaces the old timer, so repeated activity pushes a deadline
// out instead of stacking callbacks.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

var _ domain.Scheduler = (*Scheduler)(nil)

// New returns an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{timers: make(map[string]*time.Timer)}
}

// Schedule arms fn to run once after d, replacing any pending timer for
// key.
func (s *Scheduler) Schedule(key string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
	}
	var t *time.Timer
	// The callback takes mu before touching the map, so it cannot observe
	// a half-registered timer even with a zero delay.
	t = time.AfterFunc(d, func() {
		s.mu.Lock()
		if s.timers[key] == t {
			delete(s.timers, key)
		}
		s.mu.Unlock()
		fn()
	})
	s.timers[key] = t
}

// Cancel stops the timer for key if one is pending.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
}

// CancelAll stops every pending timer. Used when a session ends.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}

// Pending reports how many timers are armed.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
