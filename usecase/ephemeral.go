package usecase

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// EphemeralScheduler arms one-shot removal timers for transient items so no
// ephemeral item persists indefinitely. Re-arming an already armed id resets
// the delay. All timers are canceled on Close so a late firing can never
// mutate a store that has been torn down.
type EphemeralScheduler struct {
	store  *ConversationStore
	logger *zap.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewEphemeralScheduler creates a scheduler bound to the store.
func NewEphemeralScheduler(store *ConversationStore, logger *zap.Logger) *EphemeralScheduler {
	return &EphemeralScheduler{
		store:  store,
		logger: logger,
		timers: make(map[string]*time.Timer),
	}
}

// Schedule arms removal of id after delay.
func (s *EphemeralScheduler) Schedule(id string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if existing, ok := s.timers[id]; ok {
		existing.Stop()
	}
	s.timers[id] = time.AfterFunc(delay, func() {
		s.fire(id)
	})
}

// Cancel disarms the timer for id, if armed.
func (s *EphemeralScheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[id]; ok {
		timer.Stop()
		delete(s.timers, id)
	}
}

// Close disarms every pending timer.
func (s *EphemeralScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

func (s *EphemeralScheduler) fire(id string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	s.mu.Unlock()

	if s.store.Remove(id) {
		s.logger.Debug("ephemeral item expired", zap.String("id", id))
	}
}
