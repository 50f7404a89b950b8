package models

import (
	"time"

	id "kyc-gateway/pkg/domain"
)

// CustomerType determines which profile a record carries.
type CustomerType string

const (
	CustomerTypeIndividual CustomerType = "individual"
	CustomerTypeBusiness   CustomerType = "business"
)

// ParseCustomerType defaults to individual when s is empty.
func ParseCustomerType(s string) (CustomerType, bool) {
	switch CustomerType(s) {
	case "", CustomerTypeIndividual:
		return CustomerTypeIndividual, true
	case CustomerTypeBusiness:
		return CustomerTypeBusiness, true
	}
	return "", false
}

// RiskLevel is the band derived from an overall risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// Decision is the outcome of the compliance review.
type Decision string

const (
	DecisionApproved      Decision = "approved"
	DecisionRejected      Decision = "rejected"
	DecisionPendingReview Decision = "pending_review"
)

// IsFinal reports whether the decision closes the record.
func (d Decision) IsFinal() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// ComplianceRecord is the per-customer aggregate. The workflow engine is its
// only writer; stores hand out copies.
type ComplianceRecord struct {
	CustomerID     id.CustomerID       `json:"customerId"`
	CustomerType   CustomerType        `json:"customerType"`
	Status         Status              `json:"status"`
	PersonalInfo   *PersonalInfo       `json:"personalInfo,omitempty"`
	BusinessInfo   *BusinessInfo       `json:"businessInfo,omitempty"`
	Documents      []ProcessedDocument `json:"documents,omitempty"`
	Verification   VerificationResults `json:"verificationResults"`
	RiskAssessment *RiskAssessment     `json:"riskAssessment,omitempty"`
	Decision       *ApprovalDecision   `json:"approvalDecision,omitempty"`
	Annotations    []Annotation        `json:"annotations,omitempty"`
	ReviewReason   string              `json:"reviewReason,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// ProcessedDocument is one extracted document; the list is append-only.
type ProcessedDocument struct {
	ID              id.DocumentID  `json:"id"`
	DocumentType    DocumentType   `json:"documentType"`
	ExtractedData   map[string]any `json:"extractedData"`
	ConfidenceScore int            `json:"confidenceScore"`
	ProcessedAt     time.Time      `json:"processedAt"`
}

// VerificationResults holds stage outcomes. A nil pointer means the stage
// has not produced that field yet.
type VerificationResults struct {
	IdentityVerified  *bool            `json:"identityVerified,omitempty"`
	IdentityScore     *int             `json:"identityScore,omitempty"`
	VerificationNotes string           `json:"verificationNotes,omitempty"`
	SanctionsScreened *bool            `json:"sanctionsScreened,omitempty"`
	SanctionsRisk     *int             `json:"sanctionsRisk,omitempty"`
	SanctionsMatches  []SanctionsMatch `json:"sanctionsMatches,omitempty"`
	ComplianceScore   *int             `json:"complianceScore,omitempty"`
}

// SanctionsMatch is a single watchlist hit.
type SanctionsMatch struct {
	ListName    string  `json:"listName"`
	MatchScore  float64 `json:"matchScore"`
	MatchReason string  `json:"matchReason"`
}

// RiskFactors are the contributing scores, each in [0,100].
type RiskFactors struct {
	GeographicRisk   int `json:"geographicRisk"`
	OccupationRisk   int `json:"occupationRisk"`
	TransactionRisk  int `json:"transactionRisk"`
	SanctionsRisk    int `json:"sanctionsRisk"`
	PEPRisk          int `json:"pepRisk"`
	AdverseMediaRisk int `json:"adverseMediaRisk"`
}

// RiskAssessment is written by the risk stage and may be recomputed.
type RiskAssessment struct {
	OverallRiskScore   int         `json:"overallRiskScore"`
	RiskLevel          RiskLevel   `json:"riskLevel"`
	Factors            RiskFactors `json:"factors"`
	RiskReasons        []string    `json:"riskReasons"`
	MitigationMeasures []string    `json:"mitigationMeasures"`
	AssessedAt         time.Time   `json:"assessedAt"`
}

// ApprovalDecision is written by the review stage or by an officer override.
type ApprovalDecision struct {
	Decision     Decision  `json:"decision"`
	DecisionDate time.Time `json:"decisionDate"`
	DecisionBy   string    `json:"decisionBy"`
	Reasoning    string    `json:"reasoning"`
	Conditions   []string  `json:"conditions"`
}

// Annotation is an audit note; allowed even on finalized records.
type Annotation struct {
	Author    string    `json:"author"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
}

// Progress is the boolean projection returned by status queries.
//
// SanctionsScreened is true only for a clean screening. A screening with
// matches sends the record to manual review and reports false here, even
// though the screening ran; the matches are on the record's verification.
type Progress struct {
	ProfileCollected   bool `json:"profileCollected"`
	DocumentsCollected bool `json:"documentsCollected"`
	IdentityVerified   bool `json:"identityVerified"`
	SanctionsScreened  bool `json:"sanctionsScreened"`
	RiskAssessed       bool `json:"riskAssessed"`
	ComplianceReviewed bool `json:"complianceReviewed"`
	ApprovalComplete   bool `json:"approvalComplete"`
}
