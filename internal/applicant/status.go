package applicant

// SystemStatus derives the system status for a workflow stage. The mapping is
// fixed: a record's stored system status must always equal this derivation.
func (s WorkflowStage) SystemStatus() SystemStatus {
	switch s {
	case StageSendEmail:
		return SystemNone
	case StageSentEmail:
		return SystemActive
	case StageClaimInProgress:
		return SystemActive
	case StageAccountClaimed:
		return SystemClaimed
	case StageInviteExpired:
		return SystemInactive
	default:
		return SystemNone
	}
}

// StatusLabels is the user-facing rendering of a record's lifecycle state.
// Raw enum casing never reaches display layers.
type StatusLabels struct {
	System  string
	Account string
}

const labelNA = "N/A"

var systemLabels = map[SystemStatus]string{
	SystemActive:   "Active",
	SystemClaimed:  "Claimed",
	SystemInactive: "Inactive",
}

var accountLabels = map[AccountStatus]string{
	AccountPending:    "Pending",
	AccountVerified:   "Verified",
	AccountUnverified: "Unverified",
}

// Resolve maps stored lifecycle fields to display labels. It is pure and
// total: every declared enum value resolves, and missing fields fall back to
// "N/A". When the workflow stage is absent the record's raw system status is
// used instead.
func Resolve(r Record) StatusLabels {
	system := r.SystemStatus
	if r.WorkflowStage != "" {
		system = r.WorkflowStage.SystemStatus()
	}

	labels := StatusLabels{System: labelNA, Account: labelNA}
	if l, ok := systemLabels[system]; ok {
		labels.System = l
	}
	if l, ok := accountLabels[r.AccountStatus]; ok {
		labels.Account = l
	}
	return labels
}
