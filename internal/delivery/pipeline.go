// Package delivery turns a composed invitation into a delivered, tracked
// email: sentinel substitution at send time, HTML/text rendering, tracking
// URL injection, lifecycle advancement, and the open/click callbacks.
package delivery

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"irgate/internal/applicant"
	"irgate/internal/audit"
	"irgate/internal/delivery/mailer"
	"irgate/internal/delivery/metrics"
	"irgate/internal/dupguard"
	"irgate/internal/invitation"
	"irgate/internal/invitation/generation"
	"irgate/internal/invitation/token"
	"irgate/internal/platform/config"
	dErrors "irgate/pkg/domain-errors"
	"irgate/pkg/email"
	"irgate/pkg/platform/sentinel"
	"irgate/pkg/requestcontext"
)

// Composer produces the subject/body pair the pipeline delivers.
type Composer interface {
	Compose(ctx context.Context, style, baseSubject, baseBody string) invitation.Message
}

// Guard is the duplicate-registration lockout check, run before the pipeline
// creates a record for a previously unseen address.
type Guard interface {
	Check(ctx context.Context, email, phone, fullName, selfID string) error
}

// SendRequest is one invitation to preview or dispatch.
type SendRequest struct {
	ToEmail        string
	FirstName      string
	LastName       string
	RegistrationID string
	MessageStyle   string
	CustomSubject  string
	CustomBody     string
	Preview        bool
}

// SendResult reports a preview or a completed send. PersistenceWarning is
// set when the email went out but the store update behind it failed; the
// send still counts as successful.
type SendResult struct {
	Subject            string
	Body               string
	RegistrationLink   string
	ExpiresAt          time.Time
	RateLimitState     generation.RateLimitState
	MessageID          string
	PersistenceWarning string
}

// Pipeline orchestrates compose, render, send, and lifecycle persistence.
type Pipeline struct {
	store    applicant.Store
	composer Composer
	mailer   mailer.Mailer
	tokens   *token.Manager
	invite   config.InviteConfig
	guard    Guard

	logger  *slog.Logger
	audit   *audit.Publisher
	metrics *metrics.Metrics
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithAuditPublisher emits lifecycle audit events.
func WithAuditPublisher(pub *audit.Publisher) Option {
	return func(p *Pipeline) { p.audit = pub }
}

// WithMetrics records pipeline outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithGuard screens create-on-missing sends against active lockouts.
func WithGuard(guard Guard) Option {
	return func(p *Pipeline) { p.guard = guard }
}

// NewPipeline wires the delivery pipeline.
func NewPipeline(store applicant.Store, composer Composer, m mailer.Mailer, tokens *token.Manager, invite config.InviteConfig, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:    store,
		composer: composer,
		mailer:   m,
		tokens:   tokens,
		invite:   invite,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Send composes and, unless previewing, dispatches one invitation.
//
// Failures before the provider call surface as errors. Once the provider has
// accepted the message, the send is the source of truth: a store failure
// afterwards is logged and reported through SendResult.PersistenceWarning,
// never as a request failure.
func (p *Pipeline) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	now := requestcontext.Now(ctx)

	firstName, lastName := req.FirstName, req.LastName
	if firstName == "" && lastName == "" {
		firstName, lastName = email.DeriveNameFromEmail(req.ToEmail)
	}

	// Existing record, if any, fixes the applicant id; otherwise one is
	// minted up front so the signed link and the created record agree.
	rec, err := p.store.GetByEmail(ctx, req.ToEmail)
	exists := err == nil
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return SendResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "applicant lookup failed")
	}
	applicantID := rec.ID
	if applicantID == "" {
		applicantID = uuid.NewString()
	}

	if !req.Preview {
		// Stages only move forward: a completed or expired lifecycle refuses
		// further sends instead of being knocked back to SENT_EMAIL.
		if exists && rec.WorkflowStage.Terminal() {
			return SendResult{}, dErrors.New(dErrors.CodeConflict, "invitation lifecycle already completed for this applicant")
		}
		// Sending to an unseen address creates a record, so the lockout guard
		// runs here, before any provider call.
		if !exists && p.guard != nil {
			if err := p.guard.Check(ctx, req.ToEmail, "", joinName(firstName, lastName), ""); err != nil {
				var locked *dupguard.LockedAccountError
				if errors.As(err, &locked) {
					return SendResult{}, locked.DomainError()
				}
				return SendResult{}, err
			}
		}
	}

	regToken, err := p.tokens.RegistrationToken(applicantID, now, p.invite.Validity)
	if err != nil {
		return SendResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "sign registration token")
	}
	registrationLink := p.invite.RegistrationBaseURL + "?token=" + url.QueryEscape(regToken)
	expiresAt := now.Add(p.invite.Validity)

	composed := p.composer.Compose(ctx, req.MessageStyle, req.CustomSubject, req.CustomBody)
	if composed.RateLimitState == generation.RateLimitBothUnavailable {
		p.auditEmit(ctx, audit.Event{
			Kind:        audit.KindProviderDegraded,
			ApplicantID: applicantID,
			Detail:      map[string]string{"rate_limit_state": string(composed.RateLimitState)},
		})
	}

	if req.Preview {
		p.metrics.RecordSend("previewed")
		p.auditEmit(ctx, audit.Event{Kind: audit.KindInvitePreviewed, ApplicantID: applicantID})
		return SendResult{
			Subject:          invitation.Substitute(composed.Subject, firstName, lastName, registrationLink),
			Body:             invitation.Substitute(composed.Body, firstName, lastName, registrationLink),
			RegistrationLink: registrationLink,
			ExpiresAt:        expiresAt,
			RateLimitState:   composed.RateLimitState,
		}, nil
	}

	trackToken, err := p.tokens.TrackingToken(applicantID, now, 2*p.invite.Validity)
	if err != nil {
		return SendResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "sign tracking token")
	}
	pixelURL, clickURL := p.trackingURLs(applicantID, trackToken, registrationLink)

	subject := invitation.Substitute(composed.Subject, firstName, lastName, registrationLink)
	body := invitation.Substitute(composed.Body, firstName, lastName, clickURL)
	rendered := Render(body, pixelURL)

	sent, err := p.mailer.Send(ctx, mailer.Message{
		To:         req.ToEmail,
		Subject:    subject,
		HTML:       rendered.HTML,
		Text:       rendered.Text,
		Categories: []string{"shareholder-invitation"},
	})
	if err != nil {
		p.metrics.RecordSend("failed")
		return SendResult{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "delivery provider rejected the send")
	}
	p.metrics.RecordSend("sent")

	result := SendResult{
		RegistrationLink: registrationLink,
		ExpiresAt:        expiresAt,
		RateLimitState:   composed.RateLimitState,
		MessageID:        sent.MessageID,
	}

	if err := p.persistSent(ctx, rec, exists, applicantID, req, firstName, lastName, now); err != nil {
		p.logger.WarnContext(ctx, "store update failed after successful send",
			"applicant_id", applicantID, "message_id", sent.MessageID, "error", err)
		p.metrics.RecordPersistenceWarning()
		result.PersistenceWarning = "invitation sent, but recording it failed; lifecycle state will lag until retried"
	}

	p.auditEmit(ctx, audit.Event{
		Kind:        audit.KindInviteSent,
		ApplicantID: applicantID,
		Detail: map[string]string{
			"message_id":       sent.MessageID,
			"style":            composed.Style,
			"rate_limit_state": string(composed.RateLimitState),
		},
	})
	return result, nil
}

// persistSent advances the lifecycle after a provider-accepted send, creating
// the pre-verified record when the invitation ran ahead of registry import.
func (p *Pipeline) persistSent(ctx context.Context, rec applicant.Record, exists bool, applicantID string, req SendRequest, firstName, lastName string, now time.Time) error {
	if !exists {
		fresh := applicant.Record{
			ID:             applicantID,
			FullName:       joinName(firstName, lastName),
			Email:          req.ToEmail,
			Status:         applicant.ReviewApproved,
			IsPreVerified:  true,
			AccountStatus:  applicant.AccountPending,
			RegistrationID: req.RegistrationID,
			EmailSentAt:    &now,
			EmailSentCount: 1,
			SubmittedAt:    now,
		}
		fresh = fresh.WithStage(applicant.StageSentEmail)
		fresh.EmailGeneratedAt = &now
		_, err := p.store.Create(ctx, fresh)
		return err
	}

	count := rec.EmailSentCount + 1
	patch := applicant.Patch{EmailSentCount: &count}

	// A resend never regresses the lifecycle: stage and account fields move
	// only when the record has not advanced past SENT_EMAIL.
	if !applicant.StageSentEmail.Before(rec.WorkflowStage) {
		stage := applicant.StageSentEmail
		status := applicant.AccountPending
		derived := stage.SystemStatus()
		patch.WorkflowStage = &stage
		patch.AccountStatus = &status
		patch.SystemStatus = &derived
	}
	if rec.EmailGeneratedAt == nil {
		patch.EmailGeneratedAt = &now
	}
	if rec.EmailSentAt == nil {
		patch.EmailSentAt = &now
	}
	if req.RegistrationID != "" && rec.RegistrationID == "" {
		patch.RegistrationID = &req.RegistrationID
	}
	_, err := p.store.Update(ctx, applicantID, patch)
	return err
}

func (p *Pipeline) trackingURLs(applicantID, trackToken, registrationLink string) (pixelURL, clickURL string) {
	q := url.Values{}
	q.Set("applicantId", applicantID)
	q.Set("token", trackToken)
	pixelURL = p.invite.PublicBaseURL + "/track-email-open?" + q.Encode()

	q.Set("redirect", registrationLink)
	clickURL = p.invite.PublicBaseURL + "/track-link-click?" + q.Encode()
	return pixelURL, clickURL
}

func (p *Pipeline) auditEmit(ctx context.Context, event audit.Event) {
	if p.audit != nil {
		p.audit.Emit(ctx, event)
	}
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
