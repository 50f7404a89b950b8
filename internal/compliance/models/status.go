package models

// Status is the workflow position of a compliance record.
type Status string

const (
	StatusInitiated            Status = "initiated"
	StatusDocumentsCollected   Status = "documents_collected"
	StatusIdentityVerified     Status = "identity_verified"
	StatusSanctionsScreened    Status = "sanctions_screened"
	StatusRiskAssessed         Status = "risk_assessed"
	StatusApproved             Status = "approved"
	StatusRejected             Status = "rejected"
	StatusRequiresManualReview Status = "requires_manual_review"
)

// statusRank orders the forward path. The manual review sink has no rank.
var statusRank = map[Status]int{
	StatusInitiated:          0,
	StatusDocumentsCollected: 1,
	StatusIdentityVerified:   2,
	StatusSanctionsScreened:  3,
	StatusRiskAssessed:       4,
	StatusApproved:           5,
	StatusRejected:           5,
}

func (s Status) IsValid() bool {
	if s == StatusRequiresManualReview {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// IsTerminal reports whether the record is closed to workflow operations.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Advance returns whichever of current and target is further along the
// forward path, so a stage re-run never moves a record backwards.
func Advance(current, target Status) Status {
	cr, okCurrent := statusRank[current]
	tr, okTarget := statusRank[target]
	if !okTarget {
		return current
	}
	if !okCurrent || tr > cr {
		return target
	}
	return current
}
