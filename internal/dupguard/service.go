// Package dupguard blocks new registrations that match a locked-out
// applicant on email, phone, or name. The check runs before record creation
// only; updates to an existing record are exempt.
package dupguard

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"irgate/internal/applicant"
	"irgate/internal/audit"
	dErrors "irgate/pkg/domain-errors"
	"irgate/pkg/requestcontext"
)

// LockedAccountError reports an active lockout matching the attempted
// registration. MatchedField is the highest-priority field that matched
// (email over phone over name).
type LockedAccountError struct {
	RemainingDays int
	UnlockAt      time.Time
	MatchedField  applicant.Field
}

func (e *LockedAccountError) Error() string {
	return fmt.Sprintf("account locked for %d more day(s), matched on %s", e.RemainingDays, e.MatchedField)
}

// DomainError translates the lockout into the shared error envelope.
func (e *LockedAccountError) DomainError() *dErrors.DomainError {
	return dErrors.Wrap(e, dErrors.CodeLocked, e.Error())
}

// AuditPublisher is the subset of the audit publisher the guard uses.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service performs the cross-field duplicate lookup and lockout enforcement.
type Service struct {
	store  applicant.Store
	logger *slog.Logger
	audit  AuditPublisher
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithAuditPublisher records lockout hits as audit events.
func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// New constructs the guard.
func New(store applicant.Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("applicant store is required")
	}
	svc := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// lookup pairs a field with its normalized probe value, in priority order.
type lookup struct {
	field applicant.Field
	value string
}

// Check returns nil when registration may proceed, or a *LockedAccountError
// when any record matching the provided fields is still locked. A record
// never locks against itself: selfID exempts it.
func (s *Service) Check(ctx context.Context, email, phone, fullName, selfID string) error {
	lookups := make([]lookup, 0, 3)
	if v := applicant.NormalizeEmail(email); v != "" {
		lookups = append(lookups, lookup{applicant.FieldEmail, v})
	}
	if v := applicant.NormalizePhone(phone); v != "" {
		lookups = append(lookups, lookup{applicant.FieldPhone, v})
	}
	if v := applicant.NormalizeName(fullName); v != "" {
		lookups = append(lookups, lookup{applicant.FieldFullName, v})
	}
	if len(lookups) == 0 {
		return nil
	}

	results := make([][]applicant.Record, len(lookups))
	g, gctx := errgroup.WithContext(ctx)
	for i, l := range lookups {
		g.Go(func() error {
			records, err := s.store.Query(gctx, l.field, l.value)
			if err != nil {
				return fmt.Errorf("lookup %s: %w", l.field, err)
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "duplicate lookup failed")
	}

	now := requestcontext.Now(ctx)

	// Walk matches in field priority order so the reported field is always
	// the highest-priority one. Union by record identity is implicit: the
	// first locked candidate wins and self-matches are skipped everywhere.
	for i, l := range lookups {
		for _, rec := range results[i] {
			if rec.ID == selfID || !rec.LockedAt(now) {
				continue
			}

			lockErr := &LockedAccountError{
				RemainingDays: remainingDays(*rec.LockedUntil, now),
				UnlockAt:      *rec.LockedUntil,
				MatchedField:  l.field,
			}
			if s.audit != nil {
				s.audit.Emit(ctx, audit.Event{
					Kind:        audit.KindLockoutHit,
					ApplicantID: rec.ID,
					Detail: map[string]string{
						"matched_field": string(l.field),
						"unlock_at":     lockErr.UnlockAt.Format(time.RFC3339),
					},
				})
			}
			s.logger.InfoContext(ctx, "registration blocked by lockout",
				"applicant_id", rec.ID,
				"matched_field", l.field,
				"remaining_days", lockErr.RemainingDays,
			)
			return lockErr
		}
	}
	return nil
}

// remainingDays is the count of whole days until unlock, rounded up.
func remainingDays(until, now time.Time) int {
	days := int(math.Ceil(until.Sub(now).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}
