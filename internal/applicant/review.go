package applicant

import (
	"time"

	"irgate/pkg/platform/sentinel"
)

// RecordManualReview applies a staff matching decision to a self-registered
// applicant. A positive match approves the account; a failed match returns it
// to PENDING so the shareholder can resubmit rather than being terminally
// rejected. Pre-verified accounts are invitation-driven and reject manual
// review outright.
func RecordManualReview(r Record, isMatch bool, now time.Time) (Record, error) {
	if r.IsPreVerified {
		return r, sentinel.ErrInvalidState
	}

	if isMatch {
		r.Status = ReviewApproved
	} else {
		r.Status = ReviewPending
	}
	r.UpdatedAt = now
	return r, nil
}

// RecordRequestInfo marks an applicant as needing further information before
// a decision can be made.
func RecordRequestInfo(r Record, now time.Time) (Record, error) {
	if r.IsPreVerified {
		return r, sentinel.ErrInvalidState
	}

	r.Status = ReviewFurtherInfo
	r.UpdatedAt = now
	return r, nil
}

// EnsureWorkflow back-fills lifecycle defaults on legacy records created
// before the pre-verified workflow existed.
func EnsureWorkflow(r Record) Record {
	if r.Status == "" {
		r.Status = ReviewPending
	}
	if !r.IsPreVerified {
		return r
	}
	if r.WorkflowStage == "" {
		r.WorkflowStage = StageSendEmail
	}
	if r.AccountStatus == "" {
		r.AccountStatus = AccountPending
	}
	r.SystemStatus = r.WorkflowStage.SystemStatus()
	return r
}
