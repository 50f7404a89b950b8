package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"kyc-gateway/internal/compliance/models"
	id "kyc-gateway/pkg/domain"
	dErrors "kyc-gateway/pkg/domain-errors"
	audit "kyc-gateway/pkg/platform/audit"
	"kyc-gateway/pkg/requestcontext"
)

const (
	maxNoteLength       = 2000
	defaultQueueLimit   = 50
	maxQueueLimit       = 500
	decidedByOfficerTag = "officer"
)

// Override is the compliance officer's way out of manual review. Resume puts
// the record back on the forward path; approve and reject close it.
func (s *Service) Override(ctx context.Context, customerID id.CustomerID, in OverrideInput) (*OverrideResult, error) {
	officer := requestcontext.ActorID(ctx)
	if officer == "" {
		return nil, dErrors.New(dErrors.CodeForbidden, "a compliance officer is required to override a review")
	}
	if !in.Action.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "action must be resume, approve or reject")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reason is required")
	}

	var res *OverrideResult
	err := s.mutate(ctx, "override", customerID, func(ctx context.Context, rec *models.ComplianceRecord) (*change, error) {
		if rec.Status != models.StatusRequiresManualReview {
			return nil, precondition("override is only allowed while the record requires manual review")
		}

		ch := &change{action: audit.ActionReviewOverridden, reason: reason}
		switch in.Action {
		case OverrideResume:
			rec.Status = rec.ResumeStatus()
		case OverrideApprove, OverrideReject:
			decision := models.DecisionApproved
			if in.Action == OverrideReject {
				decision = models.DecisionRejected
			}
			conditions := []string{}
			if rec.Decision != nil && decision == models.DecisionApproved {
				conditions = append(conditions, rec.Decision.Conditions...)
			}
			rec.Decision = &models.ApprovalDecision{
				Decision:     decision,
				DecisionDate: requestcontext.Now(ctx),
				DecisionBy:   officer,
				Reasoning:    reason,
				Conditions:   conditions,
			}
			rec.Status = models.Status(decision)
			ch.decision = decision
			s.metrics.IncDecision(string(decision), decidedByOfficerTag)
		}
		rec.ReviewReason = ""

		s.logger.InfoContext(ctx, "manual review overridden",
			"customer_id", customerID,
			"action", in.Action,
			"officer", officer,
			"status", rec.Status,
		)
		res = &OverrideResult{CustomerID: customerID, Status: rec.Status, NextStep: nextStep(rec)}
		if rec.Decision != nil {
			decision := *rec.Decision
			res.Decision = &decision
		}
		return ch, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Annotate appends an officer note. Allowed in every state, including
// finalized records; the status never changes.
func (s *Service) Annotate(ctx context.Context, customerID id.CustomerID, note string) (*models.Annotation, error) {
	officer := requestcontext.ActorID(ctx)
	if officer == "" {
		return nil, dErrors.New(dErrors.CodeForbidden, "a compliance officer is required to annotate a record")
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "note is required")
	}
	if utf8.RuneCountInString(note) > maxNoteLength {
		return nil, dErrors.New(dErrors.CodeValidation, "note must be at most 2000 characters")
	}

	var added models.Annotation
	err := s.mutate(ctx, "annotate", customerID, func(ctx context.Context, rec *models.ComplianceRecord) (*change, error) {
		added = models.Annotation{Author: officer, Note: note, CreatedAt: requestcontext.Now(ctx)}
		rec.Annotations = append(rec.Annotations, added)
		return &change{action: audit.ActionRecordAnnotated}, nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

// ReviewQueue lists records waiting for an officer, oldest first.
func (s *Service) ReviewQueue(ctx context.Context, limit int) (recs []*models.ComplianceRecord, err error) {
	ctx, end := s.begin(ctx, "review_queue", id.CustomerID{})
	defer func() { end("ok", err) }()

	switch {
	case limit <= 0:
		limit = defaultQueueLimit
	case limit > maxQueueLimit:
		limit = maxQueueLimit
	}
	recs, err = s.store.ListByStatus(ctx, models.StatusRequiresManualReview, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list review queue")
	}
	return recs, nil
}
