package jobs

import (
	"context"
	"log"
	"time"
)

// SessionSweeper evicts idle sessions from an in-memory store. Redis-backed
// stores expire sessions themselves and do not need one.
type SessionSweeper struct {
	store SweepableStore
	ttl   time.Duration
}

// SweepableStore is a session store that supports inactivity eviction
type SweepableStore interface {
	Sweep(ttl time.Duration) int
}

func NewSessionSweeper(store SweepableStore, ttl time.Duration) *SessionSweeper {
	return &SessionSweeper{store: store, ttl: ttl}
}

// Run evicts sessions idle for longer than the configured TTL
func (s *SessionSweeper) Run(_ context.Context) error {
	if evicted := s.store.Sweep(s.ttl); evicted > 0 {
		log.Printf("Evicted %d idle sessions", evicted)
	}
	return nil
}
