package applicant

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ExpirySweeper marks invitations whose validity window has elapsed as
// INVITE_EXPIRED. The external claim service drives claim-side transitions;
// expiry is the one transition this engine owns on a timer.
type ExpirySweeper struct {
	store    Store
	validity time.Duration
	interval time.Duration
	logger   *slog.Logger
}

// NewExpirySweeper constructs a sweeper. Validity defaults to 30 days and the
// sweep interval to one hour.
func NewExpirySweeper(store Store, validity time.Duration, logger *slog.Logger) *ExpirySweeper {
	if validity <= 0 {
		validity = 30 * 24 * time.Hour
	}
	return &ExpirySweeper{
		store:    store,
		validity: validity,
		interval: time.Hour,
		logger:   logger,
	}
}

// Run sweeps until the context is cancelled.
func (s *ExpirySweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n, err := s.SweepOnce(ctx, time.Now()); err != nil {
				s.logger.ErrorContext(ctx, "invite expiry sweep failed", "error", err)
			} else if n > 0 {
				s.logger.InfoContext(ctx, "invites expired", "count", n)
			}
		}
	}
}

// SweepOnce expires all stale invitations relative to now and returns how
// many records were transitioned.
func (s *ExpirySweeper) SweepOnce(ctx context.Context, now time.Time) (int, error) {
	stale, err := s.store.ListExpirable(ctx, now.Add(-s.validity))
	if err != nil {
		return 0, fmt.Errorf("list expirable: %w", err)
	}

	expired := 0
	for _, rec := range stale {
		stage := StageInviteExpired
		system := stage.SystemStatus()
		if _, err := s.store.Update(ctx, rec.ID, Patch{
			WorkflowStage: &stage,
			SystemStatus:  &system,
		}); err != nil {
			return expired, fmt.Errorf("expire invite %s: %w", rec.ID, err)
		}
		expired++
	}
	return expired, nil
}
