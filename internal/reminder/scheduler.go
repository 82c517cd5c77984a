// Package reminder provides the per-conversation idle-nudge registry.
package reminder

import (
	"log/slog"
	"sync"
	"time"
)

// Scheduler keeps at most one pending one-shot nudge per conversation.
// Scheduling replaces any pending nudge for the same conversation, and
// any inbound message must Cancel before the turn is processed. The
// engine never touches this registry; the dispatcher owns it.
type Scheduler struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[int64]*time.Timer
	stopped bool
}

// NewScheduler creates a scheduler firing nudges after the given delay.
// A zero or negative delay disables scheduling entirely.
func NewScheduler(delay time.Duration) *Scheduler {
	return &Scheduler{
		delay:   delay,
		pending: make(map[int64]*time.Timer),
	}
}

// Enabled reports whether nudges are configured at all.
func (s *Scheduler) Enabled() bool { return s.delay > 0 }

// Schedule arms a nudge for a conversation, replacing any pending one.
func (s *Scheduler) Schedule(chatID int64, fire func()) {
	if !s.Enabled() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if t, ok := s.pending[chatID]; ok {
		t.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		// A replaced timer may still fire; only the registered one counts.
		current := s.pending[chatID] == timer
		if current {
			delete(s.pending, chatID)
		}
		stopped := s.stopped
		s.mu.Unlock()

		if current && !stopped {
			fire()
		}
	})
	s.pending[chatID] = timer

	slog.Debug("Nudge scheduled", "chat_id", chatID, "delay", s.delay)
}

// Cancel disarms the pending nudge for a conversation, if any.
func (s *Scheduler) Cancel(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.pending[chatID]; ok {
		t.Stop()
		delete(s.pending, chatID)
		slog.Debug("Nudge cancelled", "chat_id", chatID)
	}
}

// Stop disarms every pending nudge and rejects further scheduling.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, t := range s.pending {
		t.Stop()
		delete(s.pending, id)
	}
}
