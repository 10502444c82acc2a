package pos

import (
	"strings"
	"time"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/domain/shift"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer paid
type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentCard    PaymentMethod = "card"
	PaymentEWallet PaymentMethod = "ewallet"
	PaymentXendit  PaymentMethod = "xendit"
)

// IsValid reports whether m is a known payment method
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentEWallet, PaymentXendit:
		return true
	}
	return false
}

// Bucket maps the method to a shift reconciliation bucket
func (m PaymentMethod) Bucket() shift.PaymentBucket {
	switch m {
	case PaymentCash:
		return shift.BucketCash
	case PaymentCard:
		return shift.BucketCard
	}
	return shift.BucketOther
}

// PaymentStatus tracks settlement of the sale
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Status is the lifecycle state of a sale
type Status string

const (
	StatusCompleted Status = "completed"
	StatusVoided    Status = "voided"
)

// SaleLine is one menu item on a sale
type SaleLine struct {
	ID         uuid.UUID
	MenuItemID uuid.UUID
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
	LineTotal  decimal.Decimal
}

// LineInput describes a requested sale line
type LineInput struct {
	MenuItemID uuid.UUID
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
}

// SaleOrder is a POS ticket rung up during a shift
type SaleOrder struct {
	shared.TenantAggregateRoot
	LocationID    shared.LocationID
	ShiftID       uuid.UUID
	CashierID     uuid.UUID
	Number        string
	Lines         []SaleLine
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	TaxRate       decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	PaymentRef    string
	Status        Status
	VoidReason    string
	VoidedAt      *time.Time
}

// NewSaleOrder builds a completed sale. Tax is applied after discount and
// everything is rounded to cents. Cash, card and e-wallet sales are paid on
// the spot; Xendit sales wait for the payment callback.
func NewSaleOrder(tenantID uuid.UUID, sh *shift.Shift, number string, lines []LineInput,
	discount, taxRate decimal.Decimal, method PaymentMethod) (*SaleOrder, error) {
	if sh == nil || !sh.IsOpen() {
		return nil, shared.NewDomainError("NO_OPEN_SHIFT", "An open shift is required to record sales")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unknown payment method")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_SALE", "Sale has no items")
	}
	if discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be between 0 and 1")
	}

	o := &SaleOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		LocationID:          sh.LocationID,
		ShiftID:             sh.ID,
		CashierID:           sh.UserID,
		Number:              strings.TrimSpace(number),
		Lines:               make([]SaleLine, 0, len(lines)),
		Discount:            discount.Round(2),
		TaxRate:             taxRate,
		PaymentMethod:       method,
		PaymentStatus:       PaymentPaid,
		Status:              StatusCompleted,
	}
	if method == PaymentXendit {
		o.PaymentStatus = PaymentPending
	}
	o.SetCreatedBy(sh.UserID)

	subtotal := decimal.Zero
	for _, in := range lines {
		if in.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
		}
		if in.UnitPrice.IsNegative() {
			return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
		}
		total := in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2)
		o.Lines = append(o.Lines, SaleLine{
			ID:         uuid.New(),
			MenuItemID: in.MenuItemID,
			Name:       in.Name,
			Quantity:   in.Quantity,
			UnitPrice:  in.UnitPrice,
			LineTotal:  total,
		})
		subtotal = subtotal.Add(total)
	}
	if o.Discount.GreaterThan(subtotal) {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot exceed the subtotal")
	}
	o.Subtotal = subtotal
	taxable := subtotal.Sub(o.Discount)
	o.Tax = taxable.Mul(taxRate).Round(2)
	o.Total = taxable.Add(o.Tax)

	o.AddDomainEvent(NewSaleCompletedEvent(o))
	return o, nil
}

// MenuQuantities sums portions sold per menu item
func (o *SaleOrder) MenuQuantities() map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(o.Lines))
	for _, l := range o.Lines {
		out[l.MenuItemID] += l.Quantity
	}
	return out
}

// Void cancels a completed sale
func (o *SaleOrder) Void(reason string) error {
	if o.Status == StatusVoided {
		return shared.NewDomainError("ALREADY_VOIDED", "Sale is already voided")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("REASON_REQUIRED", "Void reason is required")
	}
	now := time.Now().UTC()
	o.Status = StatusVoided
	o.VoidReason = reason
	o.VoidedAt = &now
	if o.PaymentStatus == PaymentPaid {
		o.PaymentStatus = PaymentRefunded
	}
	o.IncrementVersion()
	o.AddDomainEvent(NewSaleVoidedEvent(o))
	return nil
}

// MarkPaid settles a pending electronic payment
func (o *SaleOrder) MarkPaid(reference string) error {
	if o.Status == StatusVoided {
		return shared.NewDomainError("INVALID_STATE", "Voided sale cannot be paid")
	}
	if o.PaymentStatus == PaymentPaid {
		return nil
	}
	o.PaymentStatus = PaymentPaid
	o.PaymentRef = reference
	o.IncrementVersion()
	return nil
}

// MarkPaymentFailed records an expired or failed electronic payment
func (o *SaleOrder) MarkPaymentFailed(reference string) {
	if o.PaymentStatus != PaymentPending {
		return
	}
	o.PaymentStatus = PaymentFailed
	o.PaymentRef = reference
	o.IncrementVersion()
}

// AttachPaymentReference records the provider invoice of a pending payment
func (o *SaleOrder) AttachPaymentReference(reference string) error {
	if o.PaymentStatus != PaymentPending {
		return shared.NewDomainError("INVALID_STATE", "Sale is not awaiting payment")
	}
	o.PaymentRef = reference
	o.IncrementVersion()
	return nil
}
