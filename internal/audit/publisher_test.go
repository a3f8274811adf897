package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"irgate/internal/platform/logger"
	"irgate/pkg/requestcontext"
)

func TestPublisherWorkerRoundTrip(t *testing.T) {
	log := logger.New()
	store := NewMemoryStore()
	publisher := NewPublisher(8, log)
	worker := NewWorker(store, publisher.Inbox(), log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	emitCtx := requestcontext.WithRequestID(context.Background(), "req-1")
	publisher.Emit(emitCtx, Event{Kind: KindInviteSent, ApplicantID: "app-1"})

	require.Eventually(t, func() bool {
		events, err := store.ListByApplicant(context.Background(), "app-1")
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	events, err := store.ListByApplicant(context.Background(), "app-1")
	require.NoError(t, err)
	require.Equal(t, KindInviteSent, events[0].Kind)
	require.Equal(t, "req-1", events[0].RequestID)
	require.False(t, events[0].Timestamp.IsZero())

	cancel()
	<-done
}

func TestEmitDropsWhenInboxFull(t *testing.T) {
	publisher := NewPublisher(1, logger.New())

	// No worker attached; second emit must not block.
	publisher.Emit(context.Background(), Event{Kind: KindEmailOpened})
	doneCh := make(chan struct{})
	go func() {
		publisher.Emit(context.Background(), Event{Kind: KindEmailOpened})
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full inbox")
	}
}
