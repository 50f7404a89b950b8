// Package domain holds typed identifiers shared across modules.
//
// Typed IDs keep customer and document identifiers from being swapped at
// compile time. Parsing happens once at trust boundaries (HTTP handlers);
// everything behind them works with the typed value.
package domain

import (
	"github.com/google/uuid"

	dErrors "kyc-gateway/pkg/domain-errors"
)

// CustomerID identifies one customer's compliance record.
type CustomerID uuid.UUID

// DocumentID identifies a processed document within a compliance record.
type DocumentID uuid.UUID

// NewCustomerID returns a random customer identifier.
func NewCustomerID() CustomerID { return CustomerID(uuid.New()) }

// NewDocumentID returns a random document identifier.
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

func (id CustomerID) String() string { return uuid.UUID(id).String() }
func (id CustomerID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id DocumentID) String() string { return uuid.UUID(id).String() }
func (id DocumentID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id CustomerID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *CustomerID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id DocumentID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *DocumentID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// ParseCustomerID validates an external customer identifier.
func ParseCustomerID(s string) (CustomerID, error) {
	u, err := parseUUID(s, "customer id")
	return CustomerID(u), err
}

// ParseDocumentID validates an external document identifier.
func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s, "document id")
	return DocumentID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	if len(s) > 64 {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be nil")
	}
	return u, nil
}
