package applicant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecodeRaw(t *testing.T) {
	t.Run("typed record with workflow defaults", func(t *testing.T) {
		res, err := DecodeRaw(map[string]any{
			"id":            "app-1",
			"email":         "jane@example.com",
			"fullName":      "Jane Doe",
			"isPreVerified": true,
		})
		require.NoError(t, err)
		require.Equal(t, "app-1", res.Record.ID)
		require.Equal(t, ReviewPending, res.Record.Status)
		require.Equal(t, StageSendEmail, res.Record.WorkflowStage)
		require.Equal(t, AccountPending, res.Record.AccountStatus)
		require.Empty(t, res.UnknownKeys)
	})

	t.Run("missing email rejected", func(t *testing.T) {
		_, err := DecodeRaw(map[string]any{"fullName": "Jane Doe"})
		require.Error(t, err)
	})

	t.Run("unknown keys flagged not absorbed", func(t *testing.T) {
		res, err := DecodeRaw(map[string]any{
			"email":       "jane@example.com",
			"legacyScore": 3,
		})
		require.NoError(t, err)
		require.Equal(t, []string{"legacyScore"}, res.UnknownKeys)
	})

	t.Run("lockedUntil parsed from RFC3339", func(t *testing.T) {
		res, err := DecodeRaw(map[string]any{
			"email":       "jane@example.com",
			"lockedUntil": "2026-09-01T00:00:00Z",
		})
		require.NoError(t, err)
		require.NotNil(t, res.Record.LockedUntil)
		require.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), res.Record.LockedUntil.UTC())
	})
}

func TestStageBefore(t *testing.T) {
	require.True(t, StageSendEmail.Before(StageSentEmail))
	require.True(t, StageSentEmail.Before(StageClaimInProgress))
	require.True(t, StageSentEmail.Before(StageAccountClaimed))
	require.True(t, StageSentEmail.Before(StageInviteExpired))

	require.False(t, StageSentEmail.Before(StageSentEmail))
	require.False(t, StageClaimInProgress.Before(StageSentEmail))
	require.False(t, StageAccountClaimed.Before(StageInviteExpired), "terminal stages share a rank")

	// Absent or unknown stages rank below every real stage.
	require.True(t, WorkflowStage("").Before(StageSentEmail))
	require.False(t, StageSentEmail.Before(WorkflowStage("bogus")))
}

func TestPatchApply(t *testing.T) {
	stage := StageSentEmail
	count := 2
	rec := Patch{WorkflowStage: &stage, EmailSentCount: &count}.Apply(Record{
		FullName:      "Jane Doe",
		WorkflowStage: StageSendEmail,
	})
	require.Equal(t, StageSentEmail, rec.WorkflowStage)
	require.Equal(t, 2, rec.EmailSentCount)
	require.Equal(t, "Jane Doe", rec.FullName, "unset patch fields leave record untouched")
}
