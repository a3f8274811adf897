package delivery

import (
	"context"
	"log/slog"

	"irgate/internal/applicant"
	"irgate/internal/audit"
	"irgate/internal/delivery/metrics"
	"irgate/pkg/requestcontext"
)

// Tracker records open and click callbacks against the applicant store.
// Callers must never let a tracker error block the user-visible response:
// the pixel renders and the redirect fires regardless.
type Tracker struct {
	store   applicant.Store
	logger  *slog.Logger
	audit   *audit.Publisher
	metrics *metrics.Metrics
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithTrackerLogger sets the tracker logger.
func WithTrackerLogger(logger *slog.Logger) TrackerOption {
	return func(t *Tracker) { t.logger = logger }
}

// WithTrackerAudit emits tracking audit events.
func WithTrackerAudit(pub *audit.Publisher) TrackerOption {
	return func(t *Tracker) { t.audit = pub }
}

// WithTrackerMetrics records tracking outcomes.
func WithTrackerMetrics(m *metrics.Metrics) TrackerOption {
	return func(t *Tracker) { t.metrics = m }
}

// NewTracker wires a tracker over the applicant store.
func NewTracker(store applicant.Store, opts ...TrackerOption) *Tracker {
	t := &Tracker{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OnOpen records one open-pixel hit. Counts increment on every hit; the
// opened-at timestamp is set only by the first. The optional detail map
// (client classification and the like) travels with the audit event.
func (t *Tracker) OnOpen(ctx context.Context, applicantID string, detail map[string]string) error {
	return t.record(ctx, applicantID, applicant.EngagementOpen, audit.KindEmailOpened, detail)
}

// OnClick records one click-redirect hit with the same first-event-wins
// timestamp semantics as OnOpen.
func (t *Tracker) OnClick(ctx context.Context, applicantID string, detail map[string]string) error {
	return t.record(ctx, applicantID, applicant.EngagementClick, audit.KindLinkClicked, detail)
}

func (t *Tracker) record(ctx context.Context, applicantID string, kind applicant.EngagementKind, auditKind audit.Kind, detail map[string]string) error {
	now := requestcontext.Now(ctx)
	_, err := t.store.RecordEngagement(ctx, applicantID, kind, now)
	if err != nil {
		t.logger.WarnContext(ctx, "tracking event not recorded",
			"kind", string(kind), "applicant_id", applicantID, "error", err)
		t.metrics.RecordTracking(string(kind), "error")
		return err
	}

	t.metrics.RecordTracking(string(kind), "ok")
	if t.audit != nil {
		t.audit.Emit(ctx, audit.Event{Kind: auditKind, ApplicantID: applicantID, Detail: detail})
	}
	return nil
}
