package service

import (
	"kyc-gateway/internal/compliance/models"
	"kyc-gateway/internal/compliance/policy"
	id "kyc-gateway/pkg/domain"
)

// ServiceFailure is set on a stage result when the capability ran but could
// not produce a usable answer. The record is left unchanged.
type ServiceFailure struct {
	Capability string
	Message    string
}

// InitiateSteps is the full path a new record has to go through.
var InitiateSteps = []string{
	"Collect customer information",
	"Upload identity documents",
	"Complete identity verification",
	"Conduct sanctions screening",
	"Perform risk assessment",
	"Complete compliance review",
}

type InitiateResult struct {
	CustomerID   id.CustomerID
	CustomerType models.CustomerType
	Status       models.Status
	NextSteps    []string
}

// ProfileInput carries both decodings of a profile payload; the record's
// customer type decides which one is used.
type ProfileInput struct {
	Personal *models.PersonalInfo
	Business *models.BusinessInfo
}

type ProfileResult struct {
	CustomerID id.CustomerID
	Status     models.Status
	NextStep   string
}

type DocumentInput struct {
	DocumentType  models.DocumentType
	DocumentImage string
}

type DocumentResult struct {
	Document *models.ProcessedDocument
	Status   models.Status
	NextStep string
	Failure  *ServiceFailure
}

type IdentityResult struct {
	Verified bool
	Score    int
	Checks   map[string]bool
	Reasons  []string
	Status   models.Status
	NextStep string
	Failure  *ServiceFailure
}

type SanctionsResult struct {
	Screened         bool
	HasMatches       bool
	Matches          []models.SanctionsMatch
	OverallRiskScore int
	ListsScreened    []string
	Status           models.Status
	NextStep         string
	Failure          *ServiceFailure
}

type RiskResult struct {
	Assessment *models.RiskAssessment
	Status     models.Status
	NextStep   string
	Failure    *ServiceFailure
}

type ReviewResult struct {
	Decision        models.ApprovalDecision
	ComplianceScore int
	ReviewSummary   policy.ReviewSummary
	NextSteps       []string
	Status          models.Status
}

// StatusView is the read projection of a record.
type StatusView struct {
	Record   *models.ComplianceRecord
	Progress models.Progress
	NextStep string
}

// OverrideAction is what an officer does with a record in manual review.
type OverrideAction string

const (
	// OverrideResume returns the record to the furthest status its recorded
	// results justify.
	OverrideResume  OverrideAction = "resume"
	OverrideApprove OverrideAction = "approve"
	OverrideReject  OverrideAction = "reject"
)

func (a OverrideAction) IsValid() bool {
	switch a {
	case OverrideResume, OverrideApprove, OverrideReject:
		return true
	}
	return false
}

type OverrideInput struct {
	Action OverrideAction
	Reason string
}

type OverrideResult struct {
	CustomerID id.CustomerID
	Status     models.Status
	Decision   *models.ApprovalDecision
	NextStep   string
}

// nextStep names the next thing to do with a record.
func nextStep(rec *models.ComplianceRecord) string {
	p := rec.Progress()
	switch {
	case rec.Status == models.StatusApproved:
		return "Account setup"
	case rec.Status == models.StatusRejected:
		return "Customer notification"
	case rec.Status == models.StatusRequiresManualReview:
		return "Manual review by a compliance officer"
	case !p.ProfileCollected:
		return "Collect customer information"
	case !p.DocumentsCollected:
		return "Upload identity documents for verification"
	case !p.IdentityVerified:
		return "Complete identity verification"
	case !p.SanctionsScreened:
		return "Conduct sanctions screening"
	case !p.RiskAssessed:
		return "Perform risk assessment"
	default:
		return "Complete compliance review"
	}
}
