package shift

import (
	"context"
	"strings"
	"time"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the state of a cash shift
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// PaymentBucket groups sales for cash reconciliation
type PaymentBucket string

const (
	BucketCash  PaymentBucket = "cash"
	BucketCard  PaymentBucket = "card"
	BucketOther PaymentBucket = "other"
)

// Shift is one cashier's working session at a location. ExpectedCash is the
// starting float plus cash sales; Variance is counted minus expected cash.
type Shift struct {
	shared.TenantAggregateRoot
	LocationID   shared.LocationID
	UserID       uuid.UUID
	Status       Status
	OpenedAt     time.Time
	ClosedAt     *time.Time
	StartingCash decimal.Decimal
	CashSales    decimal.Decimal
	CardSales    decimal.Decimal
	OtherSales   decimal.Decimal
	SalesCount   int
	EndingCash   decimal.Decimal
	Variance     decimal.Decimal
	Notes        string
}

// Open starts a shift with a cash float
func Open(tenantID uuid.UUID, loc shared.LocationID, userID uuid.UUID, startingCash decimal.Decimal) (*Shift, error) {
	if _, err := shared.ParseLocationID(loc.String()); err != nil {
		return nil, err
	}
	if startingCash.IsNegative() {
		return nil, shared.NewDomainError("INVALID_CASH", "Starting cash cannot be negative")
	}
	s := &Shift{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		LocationID:          loc,
		UserID:              userID,
		Status:              StatusOpen,
		StartingCash:        startingCash,
		CashSales:           decimal.Zero,
		CardSales:           decimal.Zero,
		OtherSales:          decimal.Zero,
		EndingCash:          decimal.Zero,
		Variance:            decimal.Zero,
	}
	s.OpenedAt = s.CreatedAt
	s.SetCreatedBy(userID)
	s.AddDomainEvent(NewShiftOpenedEvent(s))
	return s, nil
}

// IsOpen reports whether the shift still takes sales
func (s *Shift) IsOpen() bool { return s.Status == StatusOpen }

// ExpectedCash is the cash that should be in the drawer
func (s *Shift) ExpectedCash() decimal.Decimal {
	return s.StartingCash.Add(s.CashSales)
}

// TotalSales sums every payment bucket
func (s *Shift) TotalSales() decimal.Decimal {
	return s.CashSales.Add(s.CardSales).Add(s.OtherSales)
}

// RecordSale adds a completed sale to the shift totals. A negative amount
// reverses a voided sale.
func (s *Shift) RecordSale(bucket PaymentBucket, amount decimal.Decimal) error {
	if !s.IsOpen() {
		return shared.NewDomainError("SHIFT_CLOSED", "Shift is closed")
	}
	switch bucket {
	case BucketCash:
		s.CashSales = s.CashSales.Add(amount)
	case BucketCard:
		s.CardSales = s.CardSales.Add(amount)
	default:
		s.OtherSales = s.OtherSales.Add(amount)
	}
	if amount.IsNegative() {
		s.SalesCount--
	} else {
		s.SalesCount++
	}
	s.IncrementVersion()
	return nil
}

// Close counts the drawer and ends the shift. Only the cashier who opened it
// or a manager may close it.
func (s *Shift) Close(closedBy uuid.UUID, isManager bool, endingCash decimal.Decimal, notes string) error {
	if !s.IsOpen() {
		return shared.NewDomainError("SHIFT_CLOSED", "Shift is already closed")
	}
	if closedBy != s.UserID && !isManager {
		return shared.WrapDomainError(shared.ErrForbidden.Code, "Only the cashier or a manager can close this shift", shared.ErrForbidden)
	}
	if endingCash.IsNegative() {
		return shared.NewDomainError("INVALID_CASH", "Ending cash cannot be negative")
	}
	now := time.Now().UTC()
	s.Status = StatusClosed
	s.ClosedAt = &now
	s.EndingCash = endingCash
	s.Variance = endingCash.Sub(s.ExpectedCash())
	s.Notes = strings.TrimSpace(notes)
	s.IncrementVersion()
	s.AddDomainEvent(NewShiftClosedEvent(s))
	return nil
}

// Filter narrows shift listings
type Filter struct {
	shared.Filter
	LocationID shared.LocationID
	UserID     *uuid.UUID
	Status     Status
	From       *time.Time
	To         *time.Time
}

// Repository persists shifts
type Repository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Shift, error)
	FindOpen(ctx context.Context, tenantID uuid.UUID, loc shared.LocationID, userID uuid.UUID) (*Shift, error)
	CountOpenAtLocation(ctx context.Context, tenantID uuid.UUID, loc shared.LocationID) (int64, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]Shift, int64, error)
	Save(ctx context.Context, s *Shift) error
}

const (
	AggregateTypeShift = "Shift"

	EventTypeShiftOpened = "ShiftOpened"
	EventTypeShiftClosed = "ShiftClosed"
)

// ShiftOpenedEvent is raised when a cashier starts a shift
type ShiftOpenedEvent struct {
	shared.BaseDomainEvent
	LocationID   shared.LocationID `json:"location_id"`
	UserID       uuid.UUID         `json:"user_id"`
	StartingCash decimal.Decimal   `json:"starting_cash"`
}

func NewShiftOpenedEvent(s *Shift) *ShiftOpenedEvent {
	return &ShiftOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShiftOpened, AggregateTypeShift, s.ID, s.TenantID),
		LocationID:      s.LocationID,
		UserID:          s.UserID,
		StartingCash:    s.StartingCash,
	}
}

// ShiftClosedEvent is raised when the drawer is counted
type ShiftClosedEvent struct {
	shared.BaseDomainEvent
	LocationID   shared.LocationID `json:"location_id"`
	UserID       uuid.UUID         `json:"user_id"`
	ExpectedCash decimal.Decimal   `json:"expected_cash"`
	EndingCash   decimal.Decimal   `json:"ending_cash"`
	Variance     decimal.Decimal   `json:"variance"`
}

func NewShiftClosedEvent(s *Shift) *ShiftClosedEvent {
	return &ShiftClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShiftClosed, AggregateTypeShift, s.ID, s.TenantID),
		LocationID:      s.LocationID,
		UserID:          s.UserID,
		ExpectedCash:    s.ExpectedCash(),
		EndingCash:      s.EndingCash,
		Variance:        s.Variance,
	}
}
