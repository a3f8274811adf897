package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"irgate/internal/applicant"
	"irgate/pkg/requestcontext"
)

func seedApplicant(t *testing.T, store *applicant.MemoryStore) applicant.Record {
	t.Helper()
	rec, err := store.Create(context.Background(), applicant.Record{
		Email:         "ada@example.com",
		IsPreVerified: true,
		WorkflowStage: applicant.StageSentEmail,
	})
	require.NoError(t, err)
	return rec
}

func TestTrackerFirstEventWins(t *testing.T) {
	store := applicant.NewMemoryStore()
	rec := seedApplicant(t, store)
	tracker := NewTracker(store)

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	require.NoError(t, tracker.OnOpen(requestcontext.WithTime(context.Background(), first), rec.ID, nil))
	require.NoError(t, tracker.OnOpen(requestcontext.WithTime(context.Background(), second), rec.ID, nil))

	got, err := store.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.EmailOpenedCount)
	require.NotNil(t, got.EmailOpenedAt)
	require.Equal(t, first, *got.EmailOpenedAt)
}

func TestTrackerClickIndependentOfOpen(t *testing.T) {
	store := applicant.NewMemoryStore()
	rec := seedApplicant(t, store)
	tracker := NewTracker(store)

	require.NoError(t, tracker.OnClick(context.Background(), rec.ID, nil))

	got, err := store.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.LinkClickedCount)
	require.Equal(t, 0, got.EmailOpenedCount)
	require.Nil(t, got.EmailOpenedAt)
}

func TestTrackerUnknownApplicantReturnsError(t *testing.T) {
	tracker := NewTracker(applicant.NewMemoryStore())

	// The handler layer swallows this; the tracker itself reports it.
	require.Error(t, tracker.OnOpen(context.Background(), "missing", nil))
	require.Error(t, tracker.OnClick(context.Background(), "missing", nil))
}
