package applicant

import (
	"context"
	"time"
)

// Field names a queryable identity attribute. Query values are expected in
// normalized form (see normalize.go).
type Field string

const (
	FieldEmail    Field = "email"
	FieldPhone    Field = "phone"
	FieldFullName Field = "full_name"
)

// Store is interface-driven to keep the domain logic testable and to allow
// swapping in-memory and PostgreSQL persistence without rewiring business
// code. Implementations return sentinel.ErrNotFound for missing records.
type Store interface {
	GetByID(ctx context.Context, id string) (Record, error)
	GetByEmail(ctx context.Context, email string) (Record, error)

	// Query matches records whose normalized field equals value.
	Query(ctx context.Context, field Field, value string) ([]Record, error)

	// Create persists a new record, assigning an ID when absent.
	Create(ctx context.Context, rec Record) (Record, error)

	// Update applies a partial patch; nil fields are stripped before write.
	Update(ctx context.Context, id string, patch Patch) (Record, error)

	// RecordEngagement atomically increments the open or click counter and
	// sets the paired timestamp only if currently absent. Safe under
	// concurrent duplicate deliveries of the same tracking event.
	RecordEngagement(ctx context.Context, id string, kind EngagementKind, at time.Time) (Record, error)

	// ListBySubmission returns records ordered by submission timestamp,
	// newest first, degrading to unordered results if the ordering index is
	// unavailable.
	ListBySubmission(ctx context.Context, limit int) ([]Record, error)

	// ListExpirable returns pre-verified records in a non-terminal stage
	// whose invitation was sent (or record created) before cutoff.
	ListExpirable(ctx context.Context, cutoff time.Time) ([]Record, error)
}
