package applicant

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"irgate/pkg/platform/sentinel"
)

// MemoryStore is a mutex-guarded in-memory Store used in development and
// unit tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) GetByEmail(_ context.Context, email string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := NormalizeEmail(email)
	for _, rec := range s.records {
		if NormalizeEmail(rec.Email) == want {
			return rec, nil
		}
	}
	return Record{}, sentinel.ErrNotFound
}

func (s *MemoryStore) Query(_ context.Context, field Field, value string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, rec := range s.records {
		var got string
		switch field {
		case FieldEmail:
			got = NormalizeEmail(rec.Email)
		case FieldPhone:
			got = NormalizePhone(rec.PhoneNumber)
		case FieldFullName:
			got = NormalizeName(rec.FullName)
		default:
			continue
		}
		if got != "" && got == value {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *MemoryStore) Create(_ context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, exists := s.records[rec.ID]; exists {
		return Record{}, sentinel.ErrConflict
	}
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = rec.CreatedAt
	}
	rec.UpdatedAt = rec.CreatedAt
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, patch Patch) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	rec = patch.Apply(rec)
	rec.UpdatedAt = time.Now()
	s.records[id] = rec
	return rec, nil
}

func (s *MemoryStore) RecordEngagement(_ context.Context, id string, kind EngagementKind, at time.Time) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}

	// Increment unconditionally, stamp first occurrence only.
	switch kind {
	case EngagementOpen:
		rec.EmailOpenedCount++
		if rec.EmailOpenedAt == nil {
			t := at
			rec.EmailOpenedAt = &t
		}
	case EngagementClick:
		rec.LinkClickedCount++
		if rec.LinkClickedAt == nil {
			t := at
			rec.LinkClickedAt = &t
		}
	default:
		return Record{}, sentinel.ErrInvalidState
	}

	rec.UpdatedAt = at
	s.records[id] = rec
	return rec, nil
}

func (s *MemoryStore) ListBySubmission(_ context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListExpirable(_ context.Context, cutoff time.Time) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, rec := range s.records {
		if !rec.IsPreVerified || rec.WorkflowStage.Terminal() {
			continue
		}
		ref := rec.CreatedAt
		if rec.EmailSentAt != nil {
			ref = *rec.EmailSentAt
		}
		if ref.Before(cutoff) {
			out = append(out, rec)
		}
	}
	return out, nil
}
