package handler

import (
	"strings"

	"kyc-gateway/internal/compliance/models"
	"kyc-gateway/internal/compliance/service"
	dErrors "kyc-gateway/pkg/domain-errors"
)

// InitiateRequest is the body of POST /compliance/initiate.
type InitiateRequest struct {
	CustomerType string `json:"customerType"`
}

func (r *InitiateRequest) Validate() error {
	r.CustomerType = strings.ToLower(strings.TrimSpace(r.CustomerType))
	if _, ok := models.ParseCustomerType(r.CustomerType); !ok {
		return dErrors.New(dErrors.CodeValidation, "customerType must be individual or business")
	}
	return nil
}

// ProcessDocumentRequest is the body of POST /compliance/{customerId}/process-document.
type ProcessDocumentRequest struct {
	DocumentType  string `json:"documentType"`
	DocumentImage string `json:"documentImage"`
}

func (r *ProcessDocumentRequest) Validate() error {
	r.DocumentType = strings.TrimSpace(r.DocumentType)
	if r.DocumentType == "" {
		return dErrors.New(dErrors.CodeValidation, "documentType is required")
	}
	if !models.DocumentType(r.DocumentType).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "documentType is not supported")
	}
	if strings.TrimSpace(r.DocumentImage) == "" {
		return dErrors.New(dErrors.CodeValidation, "documentImage is required")
	}
	return nil
}

func (r *ProcessDocumentRequest) toInput() service.DocumentInput {
	return service.DocumentInput{
		DocumentType:  models.DocumentType(r.DocumentType),
		DocumentImage: r.DocumentImage,
	}
}

// OverrideRequest is the body of POST /admin/compliance/{customerId}/override.
type OverrideRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

func (r *OverrideRequest) Validate() error {
	r.Action = strings.ToLower(strings.TrimSpace(r.Action))
	r.Reason = strings.TrimSpace(r.Reason)
	if !service.OverrideAction(r.Action).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "action must be resume, approve or reject")
	}
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}

// AnnotateRequest is the body of POST /admin/compliance/{customerId}/annotations.
type AnnotateRequest struct {
	Note string `json:"note"`
}

func (r *AnnotateRequest) Validate() error {
	if strings.TrimSpace(r.Note) == "" {
		return dErrors.New(dErrors.CodeValidation, "note is required")
	}
	return nil
}
