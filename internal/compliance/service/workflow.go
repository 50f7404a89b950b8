package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"kyc-gateway/internal/compliance/models"
	"kyc-gateway/internal/compliance/policy"
	"kyc-gateway/internal/compliance/verification"
	id "kyc-gateway/pkg/domain"
	dErrors "kyc-gateway/pkg/domain-errors"
	audit "kyc-gateway/pkg/platform/audit"
	"kyc-gateway/pkg/requestcontext"
)

// decidedByAutomation marks decisions produced by the decision policy.
const decidedByAutomation = "automated"

// Initiate creates a new record in the initiated state.
func (s *Service) Initiate(ctx context.Context, customerType string) (res *InitiateResult, err error) {
	ctx, end := s.begin(ctx, "initiate", id.CustomerID{})
	defer func() { end("ok", err) }()

	ct, ok := models.ParseCustomerType(customerType)
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "customerType must be individual or business")
	}
	rec := models.NewComplianceRecord(id.NewCustomerID(), ct, requestcontext.Now(ctx))
	if err := s.commit(ctx, rec, nil, change{action: audit.ActionInitiated}); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "compliance process initiated",
		"customer_id", rec.CustomerID,
		"customer_type", ct,
		"request_id", requestcontext.RequestID(ctx),
	)

	return &InitiateResult{
		CustomerID:   rec.CustomerID,
		CustomerType: ct,
		Status:       rec.Status,
		NextSteps:    slices.Clone(InitiateSteps),
	}, nil
}

// CollectProfile stores the personal or business profile, replacing any
// earlier one. Allowed during manual review without changing status.
func (s *Service) CollectProfile(ctx context.Context, customerID id.CustomerID, in ProfileInput) (*ProfileResult, error) {
	var res *ProfileResult
	err := s.mutate(ctx, "collect_profile", customerID, func(ctx context.Context, rec *models.ComplianceRecord) (*change, error) {
		if err := requireOpen(rec); err != nil {
			return nil, err
		}
		switch rec.CustomerType {
		case models.CustomerTypeBusiness:
			if in.Business == nil {
				return nil, dErrors.New(dErrors.CodeValidation, "business profile is required for business customers")
			}
			if err := in.Business.Validate(); err != nil {
				return nil, err
			}
			rec.BusinessInfo = in.Business
		default:
			if in.Personal == nil {
				return nil, dErrors.New(dErrors.CodeValidation, "personal profile is required for individual customers")
			}
			if err := in.Personal.Validate(); err != nil {
				return nil, err
			}
			rec.PersonalInfo = in.Personal
		}
		if rec.Status != models.StatusRequiresManualReview {
			rec.Status = models.Advance(rec.Status, models.StatusDocumentsCollected)
		}
		res = &ProfileResult{CustomerID: rec.CustomerID, Status: rec.Status, NextStep: nextStep(rec)}
		return &change{action: audit.ActionProfileCollected}, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ProcessDocument extracts a document and appends it to the record.
func (s *Service) ProcessDocument(ctx context.Context, customerID id.CustomerID, in DocumentInput) (*DocumentResult, error) {
	if !in.DocumentType.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "documentType is not supported")
	}
	if strings.TrimSpace(in.DocumentImage) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "documentImage is required")
	}

	var res *DocumentResult
	err := s.mutate(ctx, "process_document", customerID, func(ctx context.Context, rec *models.ComplianceRecord) (*change, error) {
		if err := requireOpen(rec); err != nil {
			return nil, err
		}
		out, err := s.verifier.ProcessDocument(ctx, verification.DocumentRequest{
			CustomerID:    customerID,
			DocumentType:  in.DocumentType,
			DocumentImage: in.DocumentImage,
		})
		if err != nil {
			failure, err := s.serviceFailure(ctx, verification.CapabilityDocument, err)
			if err != nil {
				return nil, err
			}
			res = &DocumentResult{Status: rec.Status, NextStep: nextStep(rec), Failure: failure}
			return nil, nil
		}

		doc := models.ProcessedDocument{
			ID:              id.NewDocumentID(),
			DocumentType:    in.DocumentType,
			ExtractedData:   out.ExtractedData,
			ConfidenceScore: out.ConfidenceScore,
			ProcessedAt:     out.ProcessedAt,
		}
		if doc.ProcessedAt.IsZero() {
			doc.ProcessedAt = requestcontext.Now(ctx)
		}
		rec.Documents = append(rec.Documents, doc)
		if rec.Status != models.StatusRequiresManualReview {
			rec.Status = models.Advance(rec.Status, models.StatusDocumentsCollected)
		}
		res = &DocumentResult{Document: &doc, Status: rec.Status, NextStep: nextStep(rec)}
		return &change{action: audit.ActionDocumentProcessed, reason: string(in.DocumentType)}, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// VerifyIdentity checks the identity subject against the documents on file.
// An unverified identity sends the record to manual review.
func (s *Service) VerifyIdentity(ctx context.Context, customerID id.CustomerID) (*IdentityResult, error) {
	var res *IdentityResult
	err := s.mutate(ctx, "verify_identity", customerID, func(ctx context.Context, rec *models.ComplianceRecord) (*change, error) {
		if err := requireOpen(rec); err != nil {
			return nil, err
		}
		if err := requireNotInReview(rec); err != nil {
			return nil, err
		}
		if !rec.HasProfile() {
			return nil, precondition("customer information is required before identity verification")
		}
		if !rec.HasDocuments() {
			return nil, precondition("at least one processed document is required before identity verification")
		}

		out, err := s.verifier.VerifyIdentity(ctx, verification.IdentityRequest{
			CustomerID: customerID,
			Subject:    rec.IdentitySubject(),
			Documents:  documentRefs(rec.Documents),
		})
		if err != nil {
			failure, err := s.serviceFailure(ctx, verification.CapabilityIdentity, err)
			if err != nil {
				return nil, err
			}
			res = &IdentityResult{Status: rec.Status, NextStep: nextStep(rec), Failure: failure}
			return nil, nil
		}

		rec.Verification.IdentityVerified = models.Ptr(out.Verified)
		rec.Verification.IdentityScore = models.Ptr(out.Score)
		rec.Verification.VerificationNotes = "Identity verification completed"
		if len(out.Reasons) > 0 {
			rec.Verification.VerificationNotes = strings.Join(out.Reasons, "; ")
		}

		ch := &change{action: audit.ActionIdentityVerified}
		if out.Verified {
			rec.Status = models.Advance(rec.Status, models.StatusIdentityVerified)
		} else {
			s.enterReview(rec, fmt.Sprintf("identity not verified (score %d)", out.Score))
			ch = &change{action: audit.ActionManualReviewRequired, reason: rec.ReviewReason}
		}
		res = &IdentityResult{
			Verified: out.Verified,
			Score:    out.Score,
			Checks:   out.Checks,
			Reasons:  out.Reasons,
			Status:   rec.Status,
			NextStep: nextStep(rec),
		}
		return ch, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ScreenSanctions checks the customer against watchlists. Any match sends the
// record to manual review and leaves sanctionsScreened false.
func (s *Service) ScreenSanctions(ctx context.Context, customerID id.CustomerID) (*SanctionsResult, error) {
	var res *SanctionsResult
	err := s.mutate(ctx, "screen_sanctions", customerID, func(ctx context.Context, rec *models.ComplianceRecord) (*change, error) {
		if err := requireOpen(rec); err != nil {
			return nil, err
		}
		if err := requireNotInReview(rec); err != nil {
			return nil, err
		}
		if !rec.HasProfile() {
			return nil, precondition("customer information is required before sanctions screening")
		}

		out, err := s.verifier.ScreenSanctions(ctx, sanctionsRequest(rec))
		if err != nil {
			failure, err := s.serviceFailure(ctx, verification.CapabilitySanctions, err)
			if err != nil {
				return nil, err
			}
			res = &SanctionsResult{Status: rec.Status, NextStep: nextStep(rec), Failure: failure}
			return nil, nil
		}

		rec.Verification.SanctionsScreened = models.Ptr(!out.HasMatches)
		rec.Verification.SanctionsRisk = models.Ptr(out.OverallRiskScore)
		rec.Verification.SanctionsMatches = slices.Clone(out.Matches)

		ch := &change{action: audit.ActionSanctionsScreened}
		if out.HasMatches {
			s.enterReview(rec, fmt.Sprintf("sanctions screening returned %d potential match(es)", len(out.Matches)))
			ch = &change{action: audit.ActionManualReviewRequired, reason: rec.ReviewReason}
		} else {
			rec.Status = models.Advance(rec.Status, models.StatusSanctionsScreened)
		}
		res = &SanctionsResult{
			Screened:         true,
			HasMatches:       out.HasMatches,
			Matches:          out.Matches,
			OverallRiskScore: out.OverallRiskScore,
			ListsScreened:    out.ListsScreened,
			Status:           rec.Status,
			NextStep:         nextStep(rec),
		}
		return ch, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// AssessRisk scores the customer once identity and sanctions results exist.
func (s *Service) AssessRisk(ctx context.Context, customerID id.CustomerID) (*RiskResult, error) {
	var res *RiskResult
	err := s.mutate(ctx, "assess_risk", customerID, func(ctx context.Context, rec *models.ComplianceRecord) (*change, error) {
		if err := requireOpen(rec); err != nil {
			return nil, err
		}
		if err := requireNotInReview(rec); err != nil {
			return nil, err
		}
		if rec.Verification.IdentityScore == nil {
			return nil, precondition("identity verification is required before risk assessment")
		}
		if rec.Verification.SanctionsRisk == nil {
			return nil, precondition("sanctions screening is required before risk assessment")
		}

		out, err := s.verifier.AssessRisk(ctx, verification.RiskRequest{
			CustomerID: customerID,
			Personal:   rec.PersonalInfo,
			Business:   rec.BusinessInfo,
			Transactions: verification.TransactionProfile{
				ExpectedVolume:   rec.ExpectedVolume(),
				TransactionTypes: slices.Clone(verification.DefaultTransactionTypes),
			},
			IdentityScore: *rec.Verification.IdentityScore,
			SanctionsRisk: *rec.Verification.SanctionsRisk,
		})
		if err != nil {
			failure, err := s.serviceFailure(ctx, verification.CapabilityRisk, err)
			if err != nil {
				return nil, err
			}
			res = &RiskResult{Status: rec.Status, NextStep: nextStep(rec), Failure: failure}
			return nil, nil
		}

		rec.RiskAssessment = &models.RiskAssessment{
			OverallRiskScore:   out.OverallRiskScore,
			RiskLevel:          out.RiskLevel,
			Factors:            out.Factors,
			RiskReasons:        nonNil(out.RiskReasons),
			MitigationMeasures: nonNil(out.MitigationMeasures),
			AssessedAt:         requestcontext.Now(ctx),
		}
		rec.Status = models.Advance(rec.Status, models.StatusRiskAssessed)
		assessment := *rec.RiskAssessment
		res = &RiskResult{Assessment: &assessment, Status: rec.Status, NextStep: nextStep(rec)}
		return &change{action: audit.ActionRiskAssessed, reason: string(out.RiskLevel)}, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ComplianceReview runs the decision policy. A pending_review decision sends
// the record to manual review; approved and rejected close it.
func (s *Service) ComplianceReview(ctx context.Context, customerID id.CustomerID) (*ReviewResult, error) {
	var res *ReviewResult
	err := s.mutate(ctx, "compliance_review", customerID, func(ctx context.Context, rec *models.ComplianceRecord) (*change, error) {
		if err := requireOpen(rec); err != nil {
			return nil, err
		}
		if err := requireNotInReview(rec); err != nil {
			return nil, err
		}
		if rec.RiskAssessment == nil {
			return nil, precondition("risk assessment is required before compliance review")
		}
		if rec.Verification.IdentityVerified == nil {
			return nil, precondition("identity verification is required before compliance review")
		}

		outcome := policy.Evaluate(policy.InputFromRecord(rec))
		rec.Verification.ComplianceScore = models.Ptr(outcome.ComplianceScore)
		rec.Decision = &models.ApprovalDecision{
			Decision:     outcome.Decision,
			DecisionDate: requestcontext.Now(ctx),
			DecisionBy:   decidedByAutomation,
			Reasoning:    outcome.Reasoning,
			Conditions:   outcome.Conditions,
		}
		switch outcome.Decision {
		case models.DecisionApproved:
			rec.Status = models.StatusApproved
		case models.DecisionRejected:
			rec.Status = models.StatusRejected
		default:
			s.enterReview(rec, outcome.Reasoning)
		}
		s.metrics.IncDecision(string(outcome.Decision), decidedByAutomation)
		s.metrics.ObserveComplianceScore(outcome.ComplianceScore)

		res = &ReviewResult{
			Decision:        *rec.Decision,
			ComplianceScore: outcome.ComplianceScore,
			ReviewSummary:   outcome.ReviewSummary,
			NextSteps:       outcome.NextSteps,
			Status:          rec.Status,
		}
		return &change{action: audit.ActionDecisionMade, decision: outcome.Decision, reason: string(outcome.Reason)}, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GetStatus reads the record without taking the customer lock; a read that
// races a write sees either the old or the new record.
func (s *Service) GetStatus(ctx context.Context, customerID id.CustomerID) (view *StatusView, err error) {
	ctx, end := s.begin(ctx, "get_status", customerID)
	defer func() { end("ok", err) }()

	rec, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &StatusView{Record: rec, Progress: rec.Progress(), NextStep: nextStep(rec)}, nil
}

func documentRefs(docs []models.ProcessedDocument) []verification.DocumentRef {
	refs := make([]verification.DocumentRef, 0, len(docs))
	for _, doc := range docs {
		number, _ := doc.ExtractedData["documentNumber"].(string)
		if number == "" {
			number = "N/A"
		}
		refs = append(refs, verification.DocumentRef{
			Type:          doc.DocumentType,
			Number:        number,
			ExtractedData: doc.ExtractedData,
		})
	}
	return refs
}

func sanctionsRequest(rec *models.ComplianceRecord) verification.SanctionsRequest {
	req := verification.SanctionsRequest{CustomerID: rec.CustomerID}
	if p := rec.PersonalInfo; p != nil {
		req.Person = &verification.SanctionsSubject{
			FirstName:    p.FirstName,
			LastName:     p.LastName,
			DateOfBirth:  p.DateOfBirth,
			Nationality:  p.Nationality,
			PlaceOfBirth: p.PlaceOfBirth,
		}
	}
	if b := rec.BusinessInfo; b != nil {
		req.Business = &verification.SanctionsBusiness{
			CompanyName:        b.CompanyName,
			RegistrationNumber: b.RegistrationNumber,
			Country:            b.Address.Country,
		}
	}
	return req
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
