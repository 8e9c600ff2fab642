package session

import (
	"context"
	"sync"
	"time"

	"github.com/cloo-solutions/askdsa/internal/domain"
)

// Store holds per-session conversation history. Histories are append-only:
// turns are added in exchange pairs and never rewritten.
type Store interface {
	// History returns the session's turns in order, creating an empty
	// session if none exists.
	History(ctx context.Context, sessionID string) ([]domain.Turn, error)
	// AppendExchange appends a user turn and the model's reply as one
	// atomic pair.
	AppendExchange(ctx context.Context, sessionID string, user, model domain.Turn) error
}

type entry struct {
	mu         sync.Mutex
	turns      []domain.Turn
	lastActive time.Time
}

// MemoryStore keeps session histories in process memory. Histories grow
// without bound for the lifetime of the session; Sweep evicts whole sessions
// by inactivity, never individual turns.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*entry)}
}

func (s *MemoryStore) getOrCreate(sessionID string) *entry {
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[sessionID]; ok {
		return e
	}
	e = &entry{lastActive: time.Now()}
	s.sessions[sessionID] = e
	return e
}

// History returns a copy of the session's turns
func (s *MemoryStore) History(_ context.Context, sessionID string) ([]domain.Turn, error) {
	e := s.getOrCreate(sessionID)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastActive = time.Now()

	turns := make([]domain.Turn, len(e.turns))
	copy(turns, e.turns)
	return turns, nil
}

// AppendExchange appends both turns under one lock so a concurrent reader
// never observes a user turn without its reply.
func (s *MemoryStore) AppendExchange(_ context.Context, sessionID string, user, model domain.Turn) error {
	e := s.getOrCreate(sessionID)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.turns = append(e.turns, user, model)
	e.lastActive = time.Now()
	return nil
}

// Len reports the number of live sessions
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts sessions inactive for longer than ttl and returns how many
// were removed. A ttl of zero disables eviction.
func (s *MemoryStore) Sweep(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}

	cutoff := time.Now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, e := range s.sessions {
		e.mu.Lock()
		stale := e.lastActive.Before(cutoff)
		e.mu.Unlock()
		if stale {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}
