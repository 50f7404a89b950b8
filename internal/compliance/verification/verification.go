// Package verification defines the four pluggable checks the compliance
// workflow calls out to. Implementations return data only; they never touch
// compliance records.
package verification

import (
	"context"
	"time"

	"kyc-gateway/internal/compliance/models"
	id "kyc-gateway/pkg/domain"
)

// Capability names one of the verification checks.
type Capability string

const (
	CapabilityDocument  Capability = "document_processing"
	CapabilityIdentity  Capability = "identity_verification"
	CapabilitySanctions Capability = "sanctions_screening"
	CapabilityRisk      Capability = "risk_assessment"
)

// DocumentProcessor extracts structured data from an uploaded document.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, req DocumentRequest) (*DocumentResult, error)
}

// IdentityVerifier checks a subject against identity sources and the
// documents already on file.
type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context, req IdentityRequest) (*IdentityResult, error)
}

// SanctionsScreener checks a subject against watchlists.
type SanctionsScreener interface {
	ScreenSanctions(ctx context.Context, req SanctionsRequest) (*SanctionsResult, error)
}

// RiskAssessor scores the customer's overall risk.
type RiskAssessor interface {
	AssessRisk(ctx context.Context, req RiskRequest) (*RiskResult, error)
}

// Services bundles one implementation of each capability.
type Services struct {
	Documents DocumentProcessor
	Identity  IdentityVerifier
	Sanctions SanctionsScreener
	Risk      RiskAssessor
}

type DocumentRequest struct {
	CustomerID    id.CustomerID
	DocumentType  models.DocumentType
	DocumentImage string
}

type DocumentResult struct {
	ExtractedData   map[string]any
	ConfidenceScore int
	ProcessedAt     time.Time
}

// DocumentRef is the view of a processed document sent to the identity verifier.
type DocumentRef struct {
	Type          models.DocumentType
	Number        string
	ExtractedData map[string]any
}

type IdentityRequest struct {
	CustomerID id.CustomerID
	Subject    models.PersonalInfo
	Documents  []DocumentRef
}

type IdentityResult struct {
	Verified bool
	Score    int
	Checks   map[string]bool
	Reasons  []string
}

// SanctionsSubject carries the fields screened for an individual.
type SanctionsSubject struct {
	FirstName    string
	LastName     string
	DateOfBirth  string
	Nationality  string
	PlaceOfBirth string
}

// SanctionsBusiness carries the fields screened for a business.
type SanctionsBusiness struct {
	CompanyName        string
	RegistrationNumber string
	Country            string
}

// SanctionsRequest has exactly one of Person or Business set.
type SanctionsRequest struct {
	CustomerID id.CustomerID
	Person     *SanctionsSubject
	Business   *SanctionsBusiness
}

type SanctionsResult struct {
	HasMatches       bool
	Matches          []models.SanctionsMatch
	OverallRiskScore int
	ListsScreened    []string
}

// TransactionProfile describes the expected account activity.
type TransactionProfile struct {
	ExpectedVolume   float64
	TransactionTypes []string
}

// DefaultTransactionTypes are assumed for every customer.
var DefaultTransactionTypes = []string{"deposit", "withdrawal", "transfer"}

type RiskRequest struct {
	CustomerID    id.CustomerID
	Personal      *models.PersonalInfo
	Business      *models.BusinessInfo
	Transactions  TransactionProfile
	IdentityScore int
	SanctionsRisk int
}

type RiskResult struct {
	OverallRiskScore   int
	RiskLevel          models.RiskLevel
	Factors            models.RiskFactors
	RiskReasons        []string
	MitigationMeasures []string
}

// Validate rejects results outside the documented ranges.
func (r *DocumentResult) Validate() error {
	if r == nil {
		return NewError(ErrorBadData, CapabilityDocument, "empty result", nil)
	}
	if !inRange(r.ConfidenceScore) {
		return NewError(ErrorBadData, CapabilityDocument, "confidence score out of range", nil)
	}
	return nil
}

func (r *IdentityResult) Validate() error {
	if r == nil {
		return NewError(ErrorBadData, CapabilityIdentity, "empty result", nil)
	}
	if !inRange(r.Score) {
		return NewError(ErrorBadData, CapabilityIdentity, "score out of range", nil)
	}
	return nil
}

func (r *SanctionsResult) Validate() error {
	if r == nil {
		return NewError(ErrorBadData, CapabilitySanctions, "empty result", nil)
	}
	if !inRange(r.OverallRiskScore) {
		return NewError(ErrorBadData, CapabilitySanctions, "risk score out of range", nil)
	}
	if r.HasMatches != (len(r.Matches) > 0) {
		return NewError(ErrorBadData, CapabilitySanctions, "match flag disagrees with match list", nil)
	}
	return nil
}

func (r *RiskResult) Validate() error {
	if r == nil {
		return NewError(ErrorBadData, CapabilityRisk, "empty result", nil)
	}
	if !inRange(r.OverallRiskScore) {
		return NewError(ErrorBadData, CapabilityRisk, "overall risk score out of range", nil)
	}
	if !r.RiskLevel.IsValid() {
		return NewError(ErrorBadData, CapabilityRisk, "unknown risk level", nil)
	}
	return nil
}

func inRange(score int) bool {
	return score >= 0 && score <= 100
}
