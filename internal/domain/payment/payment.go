// Package payment records money movements reported by payment providers.
package payment

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purpose says what a payment pays for
type Purpose string

const (
	PurposeSubscription Purpose = "subscription"
	PurposeSale         Purpose = "sale"
)

// Status is the provider-reported state of a payment
type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusFailed   Status = "failed"
	StatusExpired  Status = "expired"
	StatusRefunded Status = "refunded"
)

// IsFinal reports whether no further transition is expected
func (s Status) IsFinal() bool {
	return s == StatusPaid || s == StatusExpired || s == StatusRefunded
}

// Record is one payment as seen by a provider
type Record struct {
	shared.BaseEntity
	TenantID    uuid.UUID
	Provider    identity.PaymentProvider
	ExternalID  string
	Purpose     Purpose
	ReferenceID string
	Amount      decimal.Decimal
	Currency    string
	Status      Status
	CheckoutURL string
	PaidAt      *time.Time
	RawEvent    json.RawMessage
}

// NewRecord creates a pending payment
func NewRecord(tenantID uuid.UUID, provider identity.PaymentProvider, externalID string, purpose Purpose, referenceID string, amount decimal.Decimal, currency string) (*Record, error) {
	if externalID == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT", "External id is required")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PAYMENT", "Amount cannot be negative")
	}
	return &Record{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    tenantID,
		Provider:    provider,
		ExternalID:  externalID,
		Purpose:     purpose,
		ReferenceID: referenceID,
		Amount:      amount.Round(2),
		Currency:    strings.ToUpper(currency),
		Status:      StatusPending,
	}, nil
}

// Transition moves the record to status and keeps the raw provider event.
// It returns false when the record was already in that state; a paid record
// only moves on to refunded.
func (r *Record) Transition(status Status, raw json.RawMessage, at time.Time) (bool, error) {
	if r.Status == status {
		return false, nil
	}
	if r.Status == StatusPaid && status != StatusRefunded {
		return false, shared.NewDomainError("INVALID_STATE", "Paid payment can only be refunded")
	}
	if r.Status.IsFinal() && r.Status != StatusPaid {
		return false, shared.NewDomainError("INVALID_STATE", "Payment is already "+string(r.Status))
	}
	r.Status = status
	if len(raw) > 0 {
		r.RawEvent = raw
	}
	if status == StatusPaid {
		r.PaidAt = &at
	}
	r.UpdatedAt = at
	return true, nil
}

// Repository persists payment records
type Repository interface {
	FindByExternalID(ctx context.Context, provider identity.PaymentProvider, externalID string) (*Record, error)
	FindByReference(ctx context.Context, tenantID uuid.UUID, referenceID string) ([]Record, error)
	Save(ctx context.Context, r *Record) error
}

// InvoiceRequest asks a provider for a hosted payment page
type InvoiceRequest struct {
	ExternalID  string
	Description string
	PayerEmail  string
	Amount      decimal.Decimal
	Currency    string
	SuccessURL  string
	FailureURL  string
}

// Invoice is a hosted payment page issued by a provider
type Invoice struct {
	ID        string
	URL       string
	ExpiresAt time.Time
}

// InvoiceIssuer creates hosted invoices
type InvoiceIssuer interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error)
}
