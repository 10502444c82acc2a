package models

import (
	"time"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRecordModel is the persistence model for provider payments.
type PaymentRecordModel struct {
	BaseModel
	TenantID    uuid.UUID                `gorm:"type:uuid;not null;index:idx_payment_reference,priority:1"`
	Provider    identity.PaymentProvider `gorm:"type:varchar(20);not null;uniqueIndex:idx_payment_external,priority:1"`
	ExternalID  string                   `gorm:"type:varchar(128);not null;uniqueIndex:idx_payment_external,priority:2"`
	Purpose     payment.Purpose          `gorm:"type:varchar(20);not null"`
	ReferenceID string                   `gorm:"type:varchar(128);not null;index:idx_payment_reference,priority:2"`
	Amount      decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	Currency    string                   `gorm:"type:varchar(3);not null"`
	Status      payment.Status           `gorm:"type:varchar(20);not null"`
	CheckoutURL string                   `gorm:"type:varchar(1000)"`
	PaidAt      *time.Time               `gorm:"column:paid_at"`
	RawEvent    *string                  `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (PaymentRecordModel) TableName() string {
	return "payment_records"
}

// ToDomain converts the persistence model to a domain payment Record.
func (m *PaymentRecordModel) ToDomain() *payment.Record {
	return &payment.Record{
		BaseEntity:  m.BaseModel.ToDomain(),
		TenantID:    m.TenantID,
		Provider:    m.Provider,
		ExternalID:  m.ExternalID,
		Purpose:     m.Purpose,
		ReferenceID: m.ReferenceID,
		Amount:      m.Amount,
		Currency:    m.Currency,
		Status:      m.Status,
		CheckoutURL: m.CheckoutURL,
		PaidAt:      m.PaidAt,
		RawEvent:    rawJSON(m.RawEvent),
	}
}

// PaymentRecordModelFromDomain creates a persistence model from a domain payment Record.
func PaymentRecordModelFromDomain(r *payment.Record) *PaymentRecordModel {
	m := &PaymentRecordModel{
		TenantID:    r.TenantID,
		Provider:    r.Provider,
		ExternalID:  r.ExternalID,
		Purpose:     r.Purpose,
		ReferenceID: r.ReferenceID,
		Amount:      r.Amount,
		Currency:    r.Currency,
		Status:      r.Status,
		CheckoutURL: r.CheckoutURL,
		PaidAt:      r.PaidAt,
		RawEvent:    jsonText(r.RawEvent),
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}
