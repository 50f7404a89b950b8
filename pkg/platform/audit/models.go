// Package audit carries the compliance audit trail: every state change on a
// compliance record produces one ComplianceEvent.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "kyc-gateway/pkg/domain"
)

// Action names what happened to a compliance record.
type Action string

const (
	ActionInitiated            Action = "compliance_initiated"
	ActionProfileCollected     Action = "profile_collected"
	ActionDocumentProcessed    Action = "document_processed"
	ActionIdentityVerified     Action = "identity_verified"
	ActionSanctionsScreened    Action = "sanctions_screened"
	ActionRiskAssessed         Action = "risk_assessed"
	ActionDecisionMade         Action = "decision_made"
	ActionManualReviewRequired Action = "manual_review_required"
	ActionReviewOverridden     Action = "review_overridden"
	ActionRecordAnnotated      Action = "record_annotated"
)

// officerActions are taken by a compliance officer rather than the workflow.
var officerActions = map[Action]bool{
	ActionReviewOverridden: true,
	ActionRecordAnnotated:  true,
}

// IsOfficerAction reports whether the action requires an identified actor.
func (a Action) IsOfficerAction() bool {
	return officerActions[a]
}

// ComplianceEvent is one entry in a customer's audit trail. Fields hold no
// profile PII; the customer id is the join key back to the record.
type ComplianceEvent struct {
	ID         uuid.UUID     `json:"id"`
	Timestamp  time.Time     `json:"timestamp"`
	CustomerID id.CustomerID `json:"customerId"`
	Action     Action        `json:"action"`
	Status     string        `json:"status,omitempty"`
	Decision   string        `json:"decision,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	RequestID  string        `json:"requestId,omitempty"`
	ActorID    string        `json:"actorId,omitempty"`
	ClientIP   string        `json:"clientIp,omitempty"`
	Device     string        `json:"device,omitempty"`
}

// Store appends audit events to durable storage or a stream.
type Store interface {
	Append(ctx context.Context, event ComplianceEvent) error
}
