// Package applicant holds the shareholder applicant record, its closed
// lifecycle vocabulary, and the pure status/review logic built on it.
package applicant

import (
	"fmt"
	"time"
)

// ReviewStatus is the staff-facing decision on a self-registered applicant.
type ReviewStatus string

const (
	ReviewPending     ReviewStatus = "PENDING"
	ReviewApproved    ReviewStatus = "APPROVED"
	ReviewRejected    ReviewStatus = "REJECTED"
	ReviewFurtherInfo ReviewStatus = "FURTHER_INFO"
)

// WorkflowStage is a pre-verified account's position in the invite-to-claim
// lifecycle. Stages advance monotonically; InviteExpired is reachable from any
// non-terminal stage once the invitation validity window elapses.
type WorkflowStage string

const (
	StageSendEmail       WorkflowStage = "SEND_EMAIL"
	StageSentEmail       WorkflowStage = "SENT_EMAIL"
	StageClaimInProgress WorkflowStage = "CLAIM_IN_PROGRESS"
	StageAccountClaimed  WorkflowStage = "ACCOUNT_CLAIMED"
	StageInviteExpired   WorkflowStage = "INVITE_EXPIRED"
)

// Terminal reports whether no further stage transitions are possible.
func (s WorkflowStage) Terminal() bool {
	return s == StageAccountClaimed || s == StageInviteExpired
}

// stageRank orders the forward path; both terminal stages share the top rank.
var stageRank = map[WorkflowStage]int{
	StageSendEmail:       0,
	StageSentEmail:       1,
	StageClaimInProgress: 2,
	StageAccountClaimed:  3,
	StageInviteExpired:   3,
}

// Before reports whether s precedes other on the forward path. Absent and
// unknown stages rank lowest, so any real stage is an advance over them.
func (s WorkflowStage) Before(other WorkflowStage) bool {
	return stageRank[s] < stageRank[other]
}

// AccountStatus tracks verification of a pre-verified account.
type AccountStatus string

const (
	AccountPending    AccountStatus = "PENDING"
	AccountVerified   AccountStatus = "VERIFIED"
	AccountUnverified AccountStatus = "UNVERIFIED"
)

// SystemStatus is derived from WorkflowStage and never mutated independently.
// The zero value represents the absent (NULL) status before any email is sent.
type SystemStatus string

const (
	SystemNone     SystemStatus = ""
	SystemActive   SystemStatus = "ACTIVE"
	SystemClaimed  SystemStatus = "CLAIMED"
	SystemInactive SystemStatus = "INACTIVE"
)

// EngagementKind selects which tracked email event to record.
type EngagementKind string

const (
	EngagementOpen  EngagementKind = "open"
	EngagementClick EngagementKind = "click"
)

// Record is one shareholder applicant. Pre-verified lifecycle fields are
// meaningful only when IsPreVerified is set.
type Record struct {
	ID          string
	FullName    string
	Email       string
	PhoneNumber string

	Status ReviewStatus

	IsPreVerified  bool
	WorkflowStage  WorkflowStage
	AccountStatus  AccountStatus
	SystemStatus   SystemStatus
	RegistrationID string

	// LockedUntil blocks new registrations matching this record on email,
	// phone, or name while it lies in the future.
	LockedUntil *time.Time

	EmailGeneratedAt *time.Time
	EmailSentAt      *time.Time
	EmailSentCount   int
	EmailOpenedAt    *time.Time
	EmailOpenedCount int
	LinkClickedAt    *time.Time
	LinkClickedCount int
	AccountClaimedAt *time.Time

	SubmittedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LockedAt reports whether the record's lockout is still in force at t.
func (r Record) LockedAt(t time.Time) bool {
	return r.LockedUntil != nil && t.Before(*r.LockedUntil)
}

// WithStage returns a copy with the workflow stage advanced and the derived
// system status recomputed, keeping the two fields consistent.
func (r Record) WithStage(stage WorkflowStage) Record {
	r.WorkflowStage = stage
	r.SystemStatus = stage.SystemStatus()
	return r
}

// Patch is a partial update. Nil fields are left untouched by stores, which
// mirrors the "strip undefined fields before write" contract of the original
// document store.
type Patch struct {
	FullName       *string
	PhoneNumber    *string
	Status         *ReviewStatus
	WorkflowStage  *WorkflowStage
	AccountStatus  *AccountStatus
	SystemStatus   *SystemStatus
	RegistrationID *string
	LockedUntil    *time.Time

	EmailGeneratedAt *time.Time
	EmailSentAt      *time.Time
	EmailSentCount   *int
	AccountClaimedAt *time.Time
}

// Apply folds the patch into a copy of r.
func (p Patch) Apply(r Record) Record {
	if p.FullName != nil {
		r.FullName = *p.FullName
	}
	if p.PhoneNumber != nil {
		r.PhoneNumber = *p.PhoneNumber
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.WorkflowStage != nil {
		r.WorkflowStage = *p.WorkflowStage
	}
	if p.AccountStatus != nil {
		r.AccountStatus = *p.AccountStatus
	}
	if p.SystemStatus != nil {
		r.SystemStatus = *p.SystemStatus
	}
	if p.RegistrationID != nil {
		r.RegistrationID = *p.RegistrationID
	}
	if p.LockedUntil != nil {
		r.LockedUntil = p.LockedUntil
	}
	if p.EmailGeneratedAt != nil {
		r.EmailGeneratedAt = p.EmailGeneratedAt
	}
	if p.EmailSentAt != nil {
		r.EmailSentAt = p.EmailSentAt
	}
	if p.EmailSentCount != nil {
		r.EmailSentCount = *p.EmailSentCount
	}
	if p.AccountClaimedAt != nil {
		r.AccountClaimedAt = p.AccountClaimedAt
	}
	return r
}

// DecodeResult carries a decoded record plus the raw keys that were not
// recognized, so callers can flag suspect rows instead of silently dropping
// or spreading unknown fields.
type DecodeResult struct {
	Record      Record
	UnknownKeys []string
}

// DecodeRaw converts a loosely-typed registry row into a typed Record with
// named defaults per field. Rows missing an email are rejected outright;
// unrecognized keys are reported, not absorbed.
func DecodeRaw(raw map[string]any) (DecodeResult, error) {
	known := map[string]bool{
		"id": true, "fullName": true, "email": true, "phoneNumber": true,
		"status": true, "isPreVerified": true, "workflowStage": true,
		"accountStatus": true, "systemStatus": true, "registrationId": true,
		"lockedUntil": true, "submittedAt": true,
	}

	email := rawString(raw, "email")
	if email == "" {
		return DecodeResult{}, fmt.Errorf("registry row missing email")
	}

	rec := Record{
		ID:             rawString(raw, "id"),
		FullName:       rawString(raw, "fullName"),
		Email:          email,
		PhoneNumber:    rawString(raw, "phoneNumber"),
		Status:         ReviewStatus(rawString(raw, "status")),
		IsPreVerified:  rawBool(raw, "isPreVerified"),
		WorkflowStage:  WorkflowStage(rawString(raw, "workflowStage")),
		AccountStatus:  AccountStatus(rawString(raw, "accountStatus")),
		SystemStatus:   SystemStatus(rawString(raw, "systemStatus")),
		RegistrationID: rawString(raw, "registrationId"),
	}
	if t, ok := rawTime(raw, "lockedUntil"); ok {
		rec.LockedUntil = &t
	}
	if t, ok := rawTime(raw, "submittedAt"); ok {
		rec.SubmittedAt = t
	}

	rec = EnsureWorkflow(rec)

	var unknown []string
	for k := range raw {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}

	return DecodeResult{Record: rec, UnknownKeys: unknown}, nil
}

func rawString(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

func rawBool(raw map[string]any, key string) bool {
	if v, ok := raw[key].(bool); ok {
		return v
	}
	return false
}

func rawTime(raw map[string]any, key string) (time.Time, bool) {
	switch v := raw[key].(type) {
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case time.Time:
		return v, true
	default:
		return time.Time{}, false
	}
}
