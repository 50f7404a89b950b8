package handler

import (
	"time"

	"kyc-gateway/internal/compliance/models"
	"kyc-gateway/internal/compliance/policy"
	"kyc-gateway/internal/compliance/service"
)

type InitiateResponse struct {
	Success      bool     `json:"success"`
	CustomerID   string   `json:"customerId"`
	Status       string   `json:"status"`
	CustomerType string   `json:"customerType"`
	Message      string   `json:"message"`
	NextSteps    []string `json:"nextSteps"`
}

type StageResponse struct {
	Success    bool   `json:"success"`
	CustomerID string `json:"customerId"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	NextStep   string `json:"nextStep,omitempty"`
}

// ServiceFailureResponse is written with 422 when a capability ran but
// rejected its input.
type ServiceFailureResponse struct {
	Success          bool   `json:"success"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Capability       string `json:"capability"`
	CustomerID       string `json:"customerId"`
	Status           string `json:"status"`
}

type DocumentResponse struct {
	StageResponse
	DocumentID      string         `json:"documentId"`
	DocumentType    string         `json:"documentType"`
	ExtractedData   map[string]any `json:"extractedData"`
	ConfidenceScore int            `json:"confidenceScore"`
	ProcessedAt     time.Time      `json:"processedAt"`
}

type IdentityResponse struct {
	StageResponse
	Verified bool            `json:"verified"`
	Score    int             `json:"score"`
	Checks   map[string]bool `json:"checks,omitempty"`
	Reasons  []string        `json:"reasons"`
}

type SanctionsResponse struct {
	StageResponse
	Screened         bool                    `json:"screened"`
	HasMatches       bool                    `json:"hasMatches"`
	Matches          []models.SanctionsMatch `json:"matches"`
	OverallRiskScore int                     `json:"overallRiskScore"`
	ListsScreened    []string                `json:"listsScreened"`
}

type RiskResponse struct {
	StageResponse
	OverallRiskScore   int                `json:"overallRiskScore"`
	RiskLevel          string             `json:"riskLevel"`
	Factors            models.RiskFactors `json:"factors"`
	RiskReasons        []string           `json:"riskReasons"`
	MitigationMeasures []string           `json:"mitigationMeasures"`
}

type ReviewResponse struct {
	Success         bool                 `json:"success"`
	CustomerID      string               `json:"customerId"`
	Status          string               `json:"status"`
	Decision        string               `json:"decision"`
	ComplianceScore int                  `json:"complianceScore"`
	Reasoning       string               `json:"reasoning"`
	Conditions      []string             `json:"conditions"`
	DecisionBy      string               `json:"decisionBy"`
	DecisionDate    time.Time            `json:"decisionDate"`
	ReviewSummary   policy.ReviewSummary `json:"reviewSummary"`
	NextSteps       []string             `json:"nextSteps"`
	Message         string               `json:"message"`
}

// StatusResponse is the GET /status body. In regulated mode Record carries no
// profile and no extracted document data. Progress.SanctionsScreened stays
// false after a screening with matches; the record is in manual review and
// the matches are under record.verification.
type StatusResponse struct {
	Success  bool                     `json:"success"`
	Record   *models.ComplianceRecord `json:"record"`
	Progress models.Progress          `json:"progress"`
	NextStep string                   `json:"nextStep"`
}

type OverrideResponse struct {
	Success    bool                     `json:"success"`
	CustomerID string                   `json:"customerId"`
	Status     string                   `json:"status"`
	Decision   *models.ApprovalDecision `json:"approvalDecision,omitempty"`
	NextStep   string                   `json:"nextStep"`
	Message    string                   `json:"message"`
}

type AnnotationResponse struct {
	Success    bool              `json:"success"`
	CustomerID string            `json:"customerId"`
	Annotation models.Annotation `json:"annotation"`
}

type QueueItem struct {
	CustomerID   string    `json:"customerId"`
	CustomerType string    `json:"customerType"`
	ReviewReason string    `json:"reviewReason,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type QueueResponse struct {
	Success bool        `json:"success"`
	Count   int         `json:"count"`
	Items   []QueueItem `json:"items"`
}

func stage(customerID string, status models.Status, message, next string) StageResponse {
	return StageResponse{
		Success:    true,
		CustomerID: customerID,
		Status:     string(status),
		Message:    message,
		NextStep:   next,
	}
}

func failureResponse(customerID string, status models.Status, f *service.ServiceFailure) ServiceFailureResponse {
	return ServiceFailureResponse{
		Success:          false,
		Error:            "service_failure",
		ErrorDescription: f.Message,
		Capability:       f.Capability,
		CustomerID:       customerID,
		Status:           string(status),
	}
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
