// Package audit records append-only lifecycle events for the invitation
// engine. Events flow through a buffered publisher into a store so request
// handling never blocks on audit persistence.
package audit

import "time"

// Kind classifies an audit event.
type Kind string

const (
	KindInvitePreviewed  Kind = "invite_previewed"
	KindInviteSent       Kind = "invite_sent"
	KindEmailOpened      Kind = "email_opened"
	KindLinkClicked      Kind = "link_clicked"
	KindReviewRecorded   Kind = "review_recorded"
	KindLockoutHit       Kind = "lockout_hit"
	KindProviderDegraded Kind = "provider_degraded"
)

// Event is one structured audit entry.
type Event struct {
	Kind        Kind
	ApplicantID string
	RequestID   string
	ClientIP    string
	UserAgent   string
	Detail      map[string]string
	Timestamp   time.Time
}
