package applicant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"irgate/internal/platform/logger"
)

func TestExpirySweep(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	sentAt := now.Add(-31 * 24 * time.Hour)

	stale, err := store.Create(ctx, Record{
		Email:         "stale@example.com",
		IsPreVerified: true,
		WorkflowStage: StageClaimInProgress,
		EmailSentAt:   &sentAt,
	})
	require.NoError(t, err)

	fresh, err := store.Create(ctx, Record{
		Email:         "fresh@example.com",
		IsPreVerified: true,
		WorkflowStage: StageSentEmail,
	})
	require.NoError(t, err)

	sweeper := NewExpirySweeper(store, 30*24*time.Hour, logger.New())
	n, err := sweeper.SweepOnce(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := store.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	require.Equal(t, StageInviteExpired, got.WorkflowStage)
	require.Equal(t, SystemInactive, got.SystemStatus)

	got, err = store.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	require.Equal(t, StageSentEmail, got.WorkflowStage)

	// A second sweep finds nothing; expiry is terminal.
	n, err = sweeper.SweepOnce(ctx, now)
	require.NoError(t, err)
	require.Zero(t, n)
}
