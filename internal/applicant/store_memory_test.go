package applicant

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"irgate/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) seed(rec Record) Record {
	created, err := s.store.Create(s.ctx, rec)
	s.Require().NoError(err)
	return created
}

func (s *MemoryStoreSuite) TestCreateAndGet() {
	created := s.seed(Record{Email: "jane@example.com", FullName: "Jane Doe"})
	s.NotEmpty(created.ID)
	s.False(created.CreatedAt.IsZero())

	got, err := s.store.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.Email, got.Email)

	got, err = s.store.GetByEmail(s.ctx, "  JANE@example.com ")
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)

	_, err = s.store.GetByID(s.ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestQueryMatchesNormalizedFields() {
	created := s.seed(Record{
		Email:       "Jane.Doe@Example.com",
		FullName:    "Jane  van der Berg",
		PhoneNumber: "+31 6 1234-5678",
	})

	byEmail, err := s.store.Query(s.ctx, FieldEmail, "jane.doe@example.com")
	s.Require().NoError(err)
	s.Require().Len(byEmail, 1)
	s.Equal(created.ID, byEmail[0].ID)

	byName, err := s.store.Query(s.ctx, FieldFullName, "jane van der berg")
	s.Require().NoError(err)
	s.Len(byName, 1)

	byPhone, err := s.store.Query(s.ctx, FieldPhone, "+31612345678")
	s.Require().NoError(err)
	s.Len(byPhone, 1)

	none, err := s.store.Query(s.ctx, FieldEmail, "other@example.com")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *MemoryStoreSuite) TestQueryIgnoresEmptyStoredFields() {
	s.seed(Record{Email: "a@example.com"})

	// Records without a phone must not match an empty-normalized probe.
	got, err := s.store.Query(s.ctx, FieldPhone, "")
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *MemoryStoreSuite) TestUpdateAppliesPatchOnly() {
	created := s.seed(Record{Email: "jane@example.com", FullName: "Jane Doe"})

	stage := StageSentEmail
	updated, err := s.store.Update(s.ctx, created.ID, Patch{WorkflowStage: &stage})
	s.Require().NoError(err)
	s.Equal(StageSentEmail, updated.WorkflowStage)
	s.Equal("Jane Doe", updated.FullName)

	_, err = s.store.Update(s.ctx, "missing", Patch{})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestRecordEngagementFirstEventWins() {
	created := s.seed(Record{Email: "jane@example.com"})
	first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	later := first.Add(2 * time.Hour)

	rec, err := s.store.RecordEngagement(s.ctx, created.ID, EngagementOpen, first)
	s.Require().NoError(err)
	s.Equal(1, rec.EmailOpenedCount)
	s.Require().NotNil(rec.EmailOpenedAt)
	s.Equal(first, *rec.EmailOpenedAt)

	rec, err = s.store.RecordEngagement(s.ctx, created.ID, EngagementOpen, later)
	s.Require().NoError(err)
	s.Equal(2, rec.EmailOpenedCount)
	s.Equal(first, *rec.EmailOpenedAt, "timestamp set exactly once")
}

func (s *MemoryStoreSuite) TestRecordEngagementConcurrentHits() {
	created := s.seed(Record{Email: "jane@example.com"})

	const hits = 50
	var wg sync.WaitGroup
	for range hits {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.RecordEngagement(s.ctx, created.ID, EngagementClick, time.Now())
			s.NoError(err)
		}()
	}
	wg.Wait()

	rec, err := s.store.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(hits, rec.LinkClickedCount)
	s.NotNil(rec.LinkClickedAt)
}

func (s *MemoryStoreSuite) TestListBySubmissionOrders() {
	old := s.seed(Record{Email: "old@example.com", SubmittedAt: time.Now().Add(-time.Hour)})
	recent := s.seed(Record{Email: "new@example.com", SubmittedAt: time.Now()})

	got, err := s.store.ListBySubmission(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(recent.ID, got[0].ID)
	s.Equal(old.ID, got[1].ID)

	limited, err := s.store.ListBySubmission(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(limited, 1)
}

func (s *MemoryStoreSuite) TestListExpirable() {
	sentAt := time.Now().Add(-31 * 24 * time.Hour)
	stale := s.seed(Record{
		Email:         "stale@example.com",
		IsPreVerified: true,
		WorkflowStage: StageSentEmail,
		EmailSentAt:   &sentAt,
	})
	s.seed(Record{
		Email:         "claimed@example.com",
		IsPreVerified: true,
		WorkflowStage: StageAccountClaimed,
		EmailSentAt:   &sentAt,
	})
	s.seed(Record{
		Email:         "fresh@example.com",
		IsPreVerified: true,
		WorkflowStage: StageSentEmail,
	})

	got, err := s.store.ListExpirable(s.ctx, time.Now().Add(-30*24*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(stale.ID, got[0].ID)
}
