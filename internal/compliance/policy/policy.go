// Package policy turns verification outcomes and a risk assessment into a
// compliance decision. Everything here is pure: no I/O, no clock, no state.
package policy

import (
	"math"

	"kyc-gateway/internal/compliance/models"
)

// Reason is a stable identifier for the rule that produced a decision.
type Reason string

const (
	ReasonIncompleteVerification Reason = "incomplete_verification"
	ReasonSeniorApproval         Reason = "high_risk_senior_approval"
	ReasonAdditionalReview       Reason = "additional_review"
	ReasonAllChecksPassed        Reason = "all_checks_passed"
	ReasonAcceptableRisk         Reason = "acceptable_risk"
)

const (
	ConditionEnhancedDueDiligence = "Enhanced due diligence required"
	ConditionSeniorApproval       = "Senior compliance officer approval needed"
	ConditionAdditionalDocuments  = "Additional documentation may be required"
	ConditionEnhancedMonitoring   = "Enhanced monitoring procedures"
	ConditionStandardMonitoring   = "Standard monitoring procedures apply"
)

var reasoning = map[Reason]string{
	ReasonIncompleteVerification: "Incomplete verification process or missing required documents",
	ReasonSeniorApproval:         "High risk profile requires manual review and senior approval",
	ReasonAdditionalReview:       "Medium-high risk profile requires additional review",
	ReasonAllChecksPassed:        "All verification checks passed with low risk profile",
	ReasonAcceptableRisk:         "Verification completed with acceptable risk level",
}

// Thresholds that define observable decision behavior.
const (
	SeniorReviewRiskScore = 80
	MinComplianceScore    = 70
	CleanApprovalScore    = 85
	SanctionsClearedBelow = 50
	RiskAcceptableBelow   = 70
	documentationWeight   = 10
	componentWeight       = 0.3
	maxScore              = 100
)

// Input is everything the decision depends on.
type Input struct {
	CustomerType      models.CustomerType
	IdentityVerified  bool
	IdentityScore     int
	SanctionsScreened bool
	SanctionsRisk     int
	OverallRiskScore  int
	RiskLevel         models.RiskLevel
	DocumentsPresent  bool
}

// ReviewSummary is the checklist reported alongside a decision.
type ReviewSummary struct {
	IdentityVerified      bool `json:"identityVerified"`
	SanctionsCleared      bool `json:"sanctionsCleared"`
	RiskAcceptable        bool `json:"riskAcceptable"`
	DocumentationComplete bool `json:"documentationComplete"`
}

// Result is the outcome of Evaluate.
type Result struct {
	Decision        models.Decision
	Reason          Reason
	Reasoning       string
	Conditions      []string
	ComplianceScore int
	ReviewSummary   ReviewSummary
	NextSteps       []string
}

// InputFromRecord reads the decision inputs off a record. Missing values
// count as zero or false.
func InputFromRecord(rec *models.ComplianceRecord) Input {
	in := Input{
		CustomerType:      rec.CustomerType,
		IdentityVerified:  deref(rec.Verification.IdentityVerified),
		IdentityScore:     deref(rec.Verification.IdentityScore),
		SanctionsScreened: deref(rec.Verification.SanctionsScreened),
		SanctionsRisk:     deref(rec.Verification.SanctionsRisk),
		DocumentsPresent:  rec.HasDocuments(),
	}
	if rec.RiskAssessment != nil {
		in.OverallRiskScore = rec.RiskAssessment.OverallRiskScore
		in.RiskLevel = rec.RiskAssessment.RiskLevel
	}
	return in
}

// ComplianceScore weighs identity, sanctions, risk and documentation into [0,100].
func ComplianceScore(in Input) int {
	var score float64
	if in.IdentityVerified {
		score += componentWeight * float64(in.IdentityScore)
	}
	if in.SanctionsScreened {
		score += componentWeight * float64(maxScore-in.SanctionsRisk)
	}
	score += componentWeight * float64(maxScore-in.OverallRiskScore)
	if in.DocumentsPresent {
		score += documentationWeight
	}
	return clamp(int(math.Round(score)))
}

// Evaluate applies the decision rules in order; the first match wins.
func Evaluate(in Input) Result {
	score := ComplianceScore(in)
	res := Result{
		ComplianceScore: score,
		Conditions:      []string{},
		ReviewSummary: ReviewSummary{
			IdentityVerified:      in.IdentityVerified,
			SanctionsCleared:      in.SanctionsRisk < SanctionsClearedBelow,
			RiskAcceptable:        in.OverallRiskScore < RiskAcceptableBelow,
			DocumentationComplete: in.DocumentsPresent,
		},
	}

	switch {
	case !in.IdentityVerified || !in.SanctionsScreened || !in.DocumentsPresent:
		res.Decision = models.DecisionRejected
		res.Reason = ReasonIncompleteVerification
	case in.RiskLevel == models.RiskCritical || in.OverallRiskScore >= SeniorReviewRiskScore:
		res.Decision = models.DecisionPendingReview
		res.Reason = ReasonSeniorApproval
		res.Conditions = append(res.Conditions, ConditionEnhancedDueDiligence, ConditionSeniorApproval)
	case in.RiskLevel == models.RiskHigh || score < MinComplianceScore:
		res.Decision = models.DecisionPendingReview
		res.Reason = ReasonAdditionalReview
		res.Conditions = append(res.Conditions, ConditionAdditionalDocuments, ConditionEnhancedMonitoring)
	case score >= CleanApprovalScore && in.RiskLevel == models.RiskLow:
		res.Decision = models.DecisionApproved
		res.Reason = ReasonAllChecksPassed
	default:
		res.Decision = models.DecisionApproved
		res.Reason = ReasonAcceptableRisk
		res.Conditions = append(res.Conditions, ConditionStandardMonitoring)
	}

	res.Reasoning = reasoning[res.Reason]
	res.NextSteps = NextSteps(res.Decision)
	return res
}

// NextSteps lists what follows a decision.
func NextSteps(d models.Decision) []string {
	switch d {
	case models.DecisionApproved:
		return []string{"Account setup", "Welcome package", "Ongoing monitoring"}
	case models.DecisionPendingReview:
		return []string{"Manual review required", "Additional documentation", "Senior approval"}
	default:
		return []string{"Application rejected", "Customer notification", "Appeal process available"}
	}
}

// RiskBand maps an overall risk score onto a level.
func RiskBand(score int) models.RiskLevel {
	switch {
	case score >= 70:
		return models.RiskCritical
	case score >= 50:
		return models.RiskHigh
	case score >= 30:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func clamp(v int) int {
	return max(0, min(maxScore, v))
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
