package reminder

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduleFires(t *testing.T) {
	s := NewScheduler(10 * time.Millisecond)
	defer s.Stop()

	fired := make(chan struct{})
	s.Schedule(1, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("nudge did not fire")
	}
}

func TestCancelPreventsFiring(t *testing.T) {
	s := NewScheduler(20 * time.Millisecond)
	defer s.Stop()

	var fired atomic.Int32
	s.Schedule(1, func() { fired.Add(1) })
	s.Cancel(1)

	time.Sleep(100 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Errorf("cancelled nudge fired %d times", n)
	}
}

func TestScheduleReplacesPending(t *testing.T) {
	s := NewScheduler(20 * time.Millisecond)
	defer s.Stop()

	var first, second atomic.Int32
	s.Schedule(1, func() { first.Add(1) })
	s.Schedule(1, func() { second.Add(1) })

	time.Sleep(100 * time.Millisecond)
	if n := first.Load(); n != 0 {
		t.Errorf("replaced nudge fired %d times", n)
	}
	if n := second.Load(); n != 1 {
		t.Errorf("replacement nudge fired %d times, want 1", n)
	}
}

func TestIndependentConversations(t *testing.T) {
	s := NewScheduler(10 * time.Millisecond)
	defer s.Stop()

	var a, b atomic.Int32
	s.Schedule(1, func() { a.Add(1) })
	s.Schedule(2, func() { b.Add(1) })
	s.Cancel(1)

	time.Sleep(100 * time.Millisecond)
	if a.Load() != 0 {
		t.Error("cancel leaked across conversations")
	}
	if b.Load() != 1 {
		t.Error("unrelated nudge did not fire")
	}
}

func TestStopDisarmsEverything(t *testing.T) {
	s := NewScheduler(20 * time.Millisecond)

	var fired atomic.Int32
	s.Schedule(1, func() { fired.Add(1) })
	s.Schedule(2, func() { fired.Add(1) })
	s.Stop()

	s.Schedule(3, func() { fired.Add(1) })

	time.Sleep(100 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Errorf("nudges fired after Stop: %d", n)
	}
}

func TestDisabledSchedulerNeverFires(t *testing.T) {
	s := NewScheduler(0)
	defer s.Stop()

	if s.Enabled() {
		t.Error("zero delay must disable the scheduler")
	}

	var fired atomic.Int32
	s.Schedule(1, func() { fired.Add(1) })

	time.Sleep(50 * time.Millisecond)
	if fired.Load() != 0 {
		t.Error("disabled scheduler fired a nudge")
	}
}
