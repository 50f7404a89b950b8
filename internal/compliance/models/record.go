package models

import (
	"maps"
	"slices"
	"time"

	id "kyc-gateway/pkg/domain"
)

// NewComplianceRecord creates a record in the initiated state.
func NewComplianceRecord(customerID id.CustomerID, customerType CustomerType, now time.Time) *ComplianceRecord {
	return &ComplianceRecord{
		CustomerID:   customerID,
		CustomerType: customerType,
		Status:       StatusInitiated,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (r *ComplianceRecord) HasProfile() bool {
	return r.PersonalInfo != nil || r.BusinessInfo != nil
}

func (r *ComplianceRecord) HasDocuments() bool {
	return len(r.Documents) > 0
}

// IsFinalized reports whether an approved or rejected decision closed the record.
func (r *ComplianceRecord) IsFinalized() bool {
	return r.Decision != nil && r.Decision.Decision.IsFinal()
}

func (r *ComplianceRecord) Touch(now time.Time) {
	r.UpdatedAt = now
}

// Progress projects the record onto boolean milestones.
func (r *ComplianceRecord) Progress() Progress {
	return Progress{
		ProfileCollected:   r.HasProfile(),
		DocumentsCollected: r.HasDocuments(),
		IdentityVerified:   isTrue(r.Verification.IdentityVerified),
		SanctionsScreened:  isTrue(r.Verification.SanctionsScreened),
		RiskAssessed:       r.RiskAssessment != nil,
		ComplianceReviewed: r.Decision != nil,
		ApprovalComplete:   r.Status == StatusApproved,
	}
}

// ResumeStatus is the furthest forward status the recorded results justify.
// Used when an officer releases a record from manual review.
func (r *ComplianceRecord) ResumeStatus() Status {
	switch {
	case r.RiskAssessment != nil:
		return StatusRiskAssessed
	case isTrue(r.Verification.SanctionsScreened):
		return StatusSanctionsScreened
	case isTrue(r.Verification.IdentityVerified):
		return StatusIdentityVerified
	case r.HasProfile() || r.HasDocuments():
		return StatusDocumentsCollected
	default:
		return StatusInitiated
	}
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (r *ComplianceRecord) Clone() *ComplianceRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.PersonalInfo != nil {
		p := r.PersonalInfo.clone()
		c.PersonalInfo = &p
	}
	if r.BusinessInfo != nil {
		b := *r.BusinessInfo
		b.AnnualRevenue = clonePtr(r.BusinessInfo.AnnualRevenue)
		b.NumberOfEmployees = clonePtr(r.BusinessInfo.NumberOfEmployees)
		if r.BusinessInfo.BeneficialOwners != nil {
			b.BeneficialOwners = make([]PersonalInfo, len(r.BusinessInfo.BeneficialOwners))
			for i, owner := range r.BusinessInfo.BeneficialOwners {
				b.BeneficialOwners[i] = owner.clone()
			}
		}
		c.BusinessInfo = &b
	}
	if r.Documents != nil {
		c.Documents = make([]ProcessedDocument, len(r.Documents))
		for i, doc := range r.Documents {
			doc.ExtractedData = maps.Clone(doc.ExtractedData)
			c.Documents[i] = doc
		}
	}
	c.Verification = VerificationResults{
		IdentityVerified:  clonePtr(r.Verification.IdentityVerified),
		IdentityScore:     clonePtr(r.Verification.IdentityScore),
		VerificationNotes: r.Verification.VerificationNotes,
		SanctionsScreened: clonePtr(r.Verification.SanctionsScreened),
		SanctionsRisk:     clonePtr(r.Verification.SanctionsRisk),
		SanctionsMatches:  slices.Clone(r.Verification.SanctionsMatches),
		ComplianceScore:   clonePtr(r.Verification.ComplianceScore),
	}
	if r.RiskAssessment != nil {
		ra := *r.RiskAssessment
		ra.RiskReasons = slices.Clone(r.RiskAssessment.RiskReasons)
		ra.MitigationMeasures = slices.Clone(r.RiskAssessment.MitigationMeasures)
		c.RiskAssessment = &ra
	}
	if r.Decision != nil {
		d := *r.Decision
		d.Conditions = slices.Clone(r.Decision.Conditions)
		c.Decision = &d
	}
	c.Annotations = slices.Clone(r.Annotations)
	return &c
}

// Minimized returns a copy without the customer profile and without the
// fields extracted from documents. Workflow state, scores and the decision
// are kept.
func (r *ComplianceRecord) Minimized() *ComplianceRecord {
	c := r.Clone()
	if c == nil {
		return nil
	}
	c.PersonalInfo = nil
	c.BusinessInfo = nil
	for i := range c.Documents {
		c.Documents[i].ExtractedData = nil
	}
	return c
}

func (p PersonalInfo) clone() PersonalInfo {
	p.AnnualIncome = clonePtr(p.AnnualIncome)
	return p
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
