package scheduler_test

import (
	"testing"
	"time"

	"github.com/rahul01879/chat-app/internal/scheduler"
)

func waitFire(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("fired %q, want %q", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timer %q never fired", want)
	}
}

func TestScheduler_FiresOnce(t *testing.T) {
	s := scheduler.New()
	fired := make(chan string, 1)
	s.Schedule("a", 10*time.Millisecond, func() { fired <- "a" })
	waitFire(t, fired, "a")
	if n := s.Pending(); n != 0 {
		t.Fatalf("after fire: %d pending, want 0", n)
	}
}

func TestScheduler_RescheduleReplaces(t *testing.T) {
	s := scheduler.New()
	fired := make(chan string, 2)
	s.Schedule("a", 20*time.Millisecond, func() { fired <- "old" })
	s.Schedule("a", 40*time.Millisecond, func() { fired <- "new" })
	waitFire(t, fired, "new")
	select {
	case got := <-fired:
		t.Fatalf("replaced timer fired anyway: %q", got)
	default:
	}
}

func TestScheduler_Cancel(t *testing.T) {
	s := scheduler.New()
	fired := make(chan string, 2)
	s.Schedule("doomed", 20*time.Millisecond, func() { fired <- "doomed" })
	s.Cancel("doomed")
	// The sentinel is armed after the cancel and fires later, so by the
	// time it arrives the cancelled timer has had its chance.
	s.Schedule("sentinel", 60*time.Millisecond, func() { fired <- "sentinel" })
	waitFire(t, fired, "sentinel")
	select {
	case got := <-fired:
		t.Fatalf("cancelled timer fired: %q", got)
	default:
	}
}

func TestScheduler_CancelAll(t *testing.T) {
	s := scheduler.New()
	fired := make(chan string, 4)
	s.Schedule("a", 20*time.Millisecond, func() { fired <- "a" })
	s.Schedule("b", 20*time.Millisecond, func() { fired <- "b" })
	s.Schedule("c", 20*time.Millisecond, func() { fired <- "c" })
	s.CancelAll()
	if n := s.Pending(); n != 0 {
		t.Fatalf("after CancelAll: %d pending, want 0", n)
	}
	s.Schedule("sentinel", 60*time.Millisecond, func() { fired <- "sentinel" })
	waitFire(t, fired, "sentinel")
	select {
	case got := <-fired:
		t.Fatalf("cancelled timer fired: %q", got)
	default:
	}
}

func TestScheduler_CancelUnknownKeyIsNoop(t *testing.T) {
	s := scheduler.New()
	s.Cancel("never-scheduled")
	if n := s.Pending(); n != 0 {
		t.Fatalf("pending %d, want 0", n)
	}
}
