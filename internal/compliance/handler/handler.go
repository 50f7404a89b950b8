package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"kyc-gateway/internal/compliance/models"
	"kyc-gateway/internal/compliance/service"
	id "kyc-gateway/pkg/domain"
	dErrors "kyc-gateway/pkg/domain-errors"
	"kyc-gateway/pkg/platform/httputil"
	"kyc-gateway/pkg/requestcontext"
)

const maxProfileBytes = 1 << 20

// Service is the workflow engine as seen by the HTTP layer.
type Service interface {
	Initiate(ctx context.Context, customerType string) (*service.InitiateResult, error)
	CollectProfile(ctx context.Context, customerID id.CustomerID, in service.ProfileInput) (*service.ProfileResult, error)
	ProcessDocument(ctx context.Context, customerID id.CustomerID, in service.DocumentInput) (*service.DocumentResult, error)
	VerifyIdentity(ctx context.Context, customerID id.CustomerID) (*service.IdentityResult, error)
	ScreenSanctions(ctx context.Context, customerID id.CustomerID) (*service.SanctionsResult, error)
	AssessRisk(ctx context.Context, customerID id.CustomerID) (*service.RiskResult, error)
	ComplianceReview(ctx context.Context, customerID id.CustomerID) (*service.ReviewResult, error)
	GetStatus(ctx context.Context, customerID id.CustomerID) (*service.StatusView, error)
	Override(ctx context.Context, customerID id.CustomerID, in service.OverrideInput) (*service.OverrideResult, error)
	Annotate(ctx context.Context, customerID id.CustomerID, note string) (*models.Annotation, error)
	ReviewQueue(ctx context.Context, limit int) ([]*models.ComplianceRecord, error)
}

// Handler exposes the compliance workflow over HTTP.
type Handler struct {
	service   Service
	logger    *slog.Logger
	regulated bool
}

type Option func(*Handler)

// WithRegulatedMode strips the customer profile and extracted document data
// from status responses. Officer endpoints are unaffected.
func WithRegulatedMode(enabled bool) Option {
	return func(h *Handler) {
		h.regulated = enabled
	}
}

func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{service: service, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the customer-facing workflow endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/compliance/initiate", h.HandleInitiate)
	r.Route("/compliance/{customerId}", func(r chi.Router) {
		r.Put("/customer-info", h.HandleCustomerInfo)
		r.Post("/process-document", h.HandleProcessDocument)
		r.Post("/verify-identity", h.HandleVerifyIdentity)
		r.Post("/sanctions-screening", h.HandleSanctionsScreening)
		r.Post("/risk-assessment", h.HandleRiskAssessment)
		r.Post("/compliance-review", h.HandleComplianceReview)
		r.Get("/status", h.HandleStatus)
	})
}

// RegisterAdmin mounts the officer endpoints. The caller is expected to put
// them behind officer authentication.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/compliance/review-queue", h.HandleReviewQueue)
	r.Post("/admin/compliance/{customerId}/override", h.HandleOverride)
	r.Post("/admin/compliance/{customerId}/annotations", h.HandleAnnotate)
}

// HandleInitiate handles POST /compliance/initiate.
func (h *Handler) HandleInitiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	req, ok := httputil.DecodeAndPrepare[InitiateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	res, err := h.service.Initiate(ctx, req.CustomerType)
	if err != nil {
		h.fail(ctx, w, "initiate", "", start, err)
		return
	}
	h.succeeded(ctx, "initiate", res.CustomerID.String(), res.Status, start)
	httputil.WriteJSON(w, http.StatusCreated, InitiateResponse{
		Success:      true,
		CustomerID:   res.CustomerID.String(),
		Status:       string(res.Status),
		CustomerType: string(res.CustomerType),
		Message:      "Compliance process initiated",
		NextSteps:    res.NextSteps,
	})
}

// HandleCustomerInfo handles PUT /compliance/{customerId}/customer-info. The
// body is decoded as both profile shapes; the record's customer type picks one.
func (h *Handler) HandleCustomerInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxProfileBytes))
	if err != nil || len(raw) == 0 {
		h.fail(ctx, w, "collect_profile", customerID.String(), start,
			dErrors.New(dErrors.CodeBadRequest, "invalid json request body"))
		return
	}
	var in service.ProfileInput
	var personal models.PersonalInfo
	if json.Unmarshal(raw, &personal) == nil {
		in.Personal = &personal
	}
	var business models.BusinessInfo
	if json.Unmarshal(raw, &business) == nil {
		in.Business = &business
	}
	if in.Personal == nil && in.Business == nil {
		h.fail(ctx, w, "collect_profile", customerID.String(), start,
			dErrors.New(dErrors.CodeBadRequest, "invalid json request body"))
		return
	}

	res, err := h.service.CollectProfile(ctx, customerID, in)
	if err != nil {
		h.fail(ctx, w, "collect_profile", customerID.String(), start, err)
		return
	}
	h.succeeded(ctx, "collect_profile", customerID.String(), res.Status, start)
	httputil.WriteJSON(w, http.StatusOK, stage(customerID.String(), res.Status,
		"Customer information collected", res.NextStep))
}

// HandleProcessDocument handles POST /compliance/{customerId}/process-document.
func (h *Handler) HandleProcessDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ProcessDocumentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	res, err := h.service.ProcessDocument(ctx, customerID, req.toInput())
	if err != nil {
		h.fail(ctx, w, "process_document", customerID.String(), start, err)
		return
	}
	if res.Failure != nil {
		h.serviceFailure(ctx, w, "process_document", customerID.String(), res.Status, res.Failure)
		return
	}
	h.succeeded(ctx, "process_document", customerID.String(), res.Status, start)
	doc := res.Document
	httputil.WriteJSON(w, http.StatusOK, DocumentResponse{
		StageResponse:   stage(customerID.String(), res.Status, "Document processed", res.NextStep),
		DocumentID:      doc.ID.String(),
		DocumentType:    string(doc.DocumentType),
		ExtractedData:   doc.ExtractedData,
		ConfidenceScore: doc.ConfidenceScore,
		ProcessedAt:     doc.ProcessedAt,
	})
}

// HandleVerifyIdentity handles POST /compliance/{customerId}/verify-identity.
func (h *Handler) HandleVerifyIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	res, err := h.service.VerifyIdentity(ctx, customerID)
	if err != nil {
		h.fail(ctx, w, "verify_identity", customerID.String(), start, err)
		return
	}
	if res.Failure != nil {
		h.serviceFailure(ctx, w, "verify_identity", customerID.String(), res.Status, res.Failure)
		return
	}
	h.succeeded(ctx, "verify_identity", customerID.String(), res.Status, start)
	message := "Identity verified"
	if !res.Verified {
		message = "Identity could not be verified"
	}
	httputil.WriteJSON(w, http.StatusOK, IdentityResponse{
		StageResponse: stage(customerID.String(), res.Status, message, res.NextStep),
		Verified:      res.Verified,
		Score:         res.Score,
		Checks:        res.Checks,
		Reasons:       emptyIfNil(res.Reasons),
	})
}

// HandleSanctionsScreening handles POST /compliance/{customerId}/sanctions-screening.
func (h *Handler) HandleSanctionsScreening(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	res, err := h.service.ScreenSanctions(ctx, customerID)
	if err != nil {
		h.fail(ctx, w, "screen_sanctions", customerID.String(), start, err)
		return
	}
	if res.Failure != nil {
		h.serviceFailure(ctx, w, "screen_sanctions", customerID.String(), res.Status, res.Failure)
		return
	}
	h.succeeded(ctx, "screen_sanctions", customerID.String(), res.Status, start)
	message := "Sanctions screening completed with no matches"
	if res.HasMatches {
		message = "Sanctions screening found potential matches"
	}
	httputil.WriteJSON(w, http.StatusOK, SanctionsResponse{
		StageResponse:    stage(customerID.String(), res.Status, message, res.NextStep),
		Screened:         res.Screened,
		HasMatches:       res.HasMatches,
		Matches:          emptyIfNil(res.Matches),
		OverallRiskScore: res.OverallRiskScore,
		ListsScreened:    emptyIfNil(res.ListsScreened),
	})
}

// HandleRiskAssessment handles POST /compliance/{customerId}/risk-assessment.
func (h *Handler) HandleRiskAssessment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	res, err := h.service.AssessRisk(ctx, customerID)
	if err != nil {
		h.fail(ctx, w, "assess_risk", customerID.String(), start, err)
		return
	}
	if res.Failure != nil {
		h.serviceFailure(ctx, w, "assess_risk", customerID.String(), res.Status, res.Failure)
		return
	}
	h.succeeded(ctx, "assess_risk", customerID.String(), res.Status, start)
	a := res.Assessment
	httputil.WriteJSON(w, http.StatusOK, RiskResponse{
		StageResponse:      stage(customerID.String(), res.Status, "Risk assessment completed", res.NextStep),
		OverallRiskScore:   a.OverallRiskScore,
		RiskLevel:          string(a.RiskLevel),
		Factors:            a.Factors,
		RiskReasons:        emptyIfNil(a.RiskReasons),
		MitigationMeasures: emptyIfNil(a.MitigationMeasures),
	})
}

// HandleComplianceReview handles POST /compliance/{customerId}/compliance-review.
func (h *Handler) HandleComplianceReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	res, err := h.service.ComplianceReview(ctx, customerID)
	if err != nil {
		h.fail(ctx, w, "compliance_review", customerID.String(), start, err)
		return
	}
	h.succeeded(ctx, "compliance_review", customerID.String(), res.Status, start)
	d := res.Decision
	httputil.WriteJSON(w, http.StatusOK, ReviewResponse{
		Success:         true,
		CustomerID:      customerID.String(),
		Status:          string(res.Status),
		Decision:        string(d.Decision),
		ComplianceScore: res.ComplianceScore,
		Reasoning:       d.Reasoning,
		Conditions:      emptyIfNil(d.Conditions),
		DecisionBy:      d.DecisionBy,
		DecisionDate:    d.DecisionDate,
		ReviewSummary:   res.ReviewSummary,
		NextSteps:       emptyIfNil(res.NextSteps),
		Message:         "Compliance review completed",
	})
}

// HandleStatus handles GET /compliance/{customerId}/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	view, err := h.service.GetStatus(ctx, customerID)
	if err != nil {
		h.fail(ctx, w, "get_status", customerID.String(), start, err)
		return
	}
	record := view.Record
	if h.regulated {
		record = record.Minimized()
	}
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Success:  true,
		Record:   record,
		Progress: view.Progress,
		NextStep: view.NextStep,
	})
}

// HandleOverride handles POST /admin/compliance/{customerId}/override.
func (h *Handler) HandleOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[OverrideRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	res, err := h.service.Override(ctx, customerID, service.OverrideInput{
		Action: service.OverrideAction(req.Action),
		Reason: req.Reason,
	})
	if err != nil {
		h.fail(ctx, w, "override", customerID.String(), start, err)
		return
	}
	h.succeeded(ctx, "override", customerID.String(), res.Status, start)
	httputil.WriteJSON(w, http.StatusOK, OverrideResponse{
		Success:    true,
		CustomerID: customerID.String(),
		Status:     string(res.Status),
		Decision:   res.Decision,
		NextStep:   res.NextStep,
		Message:    "Manual review resolved",
	})
}

// HandleAnnotate handles POST /admin/compliance/{customerId}/annotations.
func (h *Handler) HandleAnnotate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AnnotateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	note, err := h.service.Annotate(ctx, customerID, req.Note)
	if err != nil {
		h.fail(ctx, w, "annotate", customerID.String(), start, err)
		return
	}
	h.logger.InfoContext(ctx, "compliance record annotated",
		"request_id", requestcontext.RequestID(ctx),
		"customer_id", customerID,
		"author", note.Author,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, AnnotationResponse{
		Success:    true,
		CustomerID: customerID.String(),
		Annotation: *note,
	})
}

// HandleReviewQueue handles GET /admin/compliance/review-queue?limit=N.
func (h *Handler) HandleReviewQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.fail(ctx, w, "review_queue", "", start,
				dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	recs, err := h.service.ReviewQueue(ctx, limit)
	if err != nil {
		h.fail(ctx, w, "review_queue", "", start, err)
		return
	}
	items := make([]QueueItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, QueueItem{
			CustomerID:   rec.CustomerID.String(),
			CustomerType: string(rec.CustomerType),
			ReviewReason: rec.ReviewReason,
			UpdatedAt:    rec.UpdatedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, QueueResponse{Success: true, Count: len(items), Items: items})
}

// customerID reads the path id. A malformed id cannot name a record, so it
// is reported the same way as an unknown one.
func (h *Handler) customerID(w http.ResponseWriter, r *http.Request) (id.CustomerID, bool) {
	raw := chi.URLParam(r, "customerId")
	customerID, err := id.ParseCustomerID(raw)
	if err != nil {
		h.logger.WarnContext(r.Context(), "malformed customer id",
			"request_id", requestcontext.RequestID(r.Context()),
			"customer_id", raw,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "customer compliance record not found"))
		return id.CustomerID{}, false
	}
	return customerID, true
}

func (h *Handler) succeeded(ctx context.Context, operation, customerID string, status models.Status, start time.Time) {
	h.logger.InfoContext(ctx, "compliance operation completed",
		"request_id", requestcontext.RequestID(ctx),
		"customer_id", customerID,
		"operation", operation,
		"status", status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, operation, customerID string, start time.Time, err error) {
	status := httputil.StatusFor(dErrors.CodeOf(err))
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "compliance operation failed",
		"request_id", requestcontext.RequestID(ctx),
		"customer_id", customerID,
		"operation", operation,
		"status", status,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err,
	)
	httputil.WriteError(w, err)
}

func (h *Handler) serviceFailure(ctx context.Context, w http.ResponseWriter, operation, customerID string, status models.Status, f *service.ServiceFailure) {
	h.logger.WarnContext(ctx, "verification service reported a failure",
		"request_id", requestcontext.RequestID(ctx),
		"customer_id", customerID,
		"operation", operation,
		"capability", f.Capability,
		"message", f.Message,
	)
	httputil.WriteJSON(w, http.StatusUnprocessableEntity, failureResponse(customerID, status, f))
}
