package audit

import (
	"context"
	"sync"
)

// Store is append-only so tests can swap sinks easily.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByApplicant(ctx context.Context, applicantID string) ([]Event, error)
}

// MemoryStore keeps events in memory.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryStore constructs an empty in-memory audit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) ListByApplicant(_ context.Context, applicantID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, e := range s.events {
		if e.ApplicantID == applicantID {
			out = append(out, e)
		}
	}
	return out, nil
}
