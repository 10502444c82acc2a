// Package shift implements cashier shifts and drawer reconciliation.
package shift

import (
	"context"
	"errors"
	"time"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/location"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/domain/shift"
	"github.com/coretrack/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrShiftAlreadyOpen is returned when the cashier already has an open shift at the location
var ErrShiftAlreadyOpen = shared.NewDomainError("SHIFT_ALREADY_OPEN", "You already have an open shift at this location")

// OpenShiftRequest starts a shift
type OpenShiftRequest struct {
	LocationID   string          `json:"location_id" binding:"required,location_id"`
	StartingCash decimal.Decimal `json:"starting_cash"`
}

// CloseShiftRequest counts the drawer
type CloseShiftRequest struct {
	EndingCash decimal.Decimal `json:"ending_cash"`
	Notes      string          `json:"notes" binding:"max=1000"`
}

// ListFilter is bound from list query parameters
type ListFilter struct {
	LocationID string     `form:"location_id" binding:"omitempty,location_id"`
	UserID     *uuid.UUID `form:"user_id"`
	Status     string     `form:"status" binding:"omitempty,oneof=open closed"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ShiftResponse is a shift as returned by the API
type ShiftResponse struct {
	ID           uuid.UUID       `json:"id"`
	LocationID   string          `json:"location_id"`
	UserID       uuid.UUID       `json:"user_id"`
	Status       string          `json:"status"`
	OpenedAt     time.Time       `json:"opened_at"`
	ClosedAt     *time.Time      `json:"closed_at,omitempty"`
	StartingCash decimal.Decimal `json:"starting_cash"`
	CashSales    decimal.Decimal `json:"cash_sales"`
	CardSales    decimal.Decimal `json:"card_sales"`
	OtherSales   decimal.Decimal `json:"other_sales"`
	TotalSales   decimal.Decimal `json:"total_sales"`
	SalesCount   int             `json:"sales_count"`
	ExpectedCash decimal.Decimal `json:"expected_cash"`
	EndingCash   decimal.Decimal `json:"ending_cash"`
	Variance     decimal.Decimal `json:"variance"`
	Notes        string          `json:"notes,omitempty"`
}

// ToShiftResponse maps a shift
func ToShiftResponse(s *shift.Shift) ShiftResponse {
	return ShiftResponse{
		ID:           s.ID,
		LocationID:   s.LocationID.String(),
		UserID:       s.UserID,
		Status:       string(s.Status),
		OpenedAt:     s.OpenedAt,
		ClosedAt:     s.ClosedAt,
		StartingCash: s.StartingCash,
		CashSales:    s.CashSales,
		CardSales:    s.CardSales,
		OtherSales:   s.OtherSales,
		TotalSales:   s.TotalSales(),
		SalesCount:   s.SalesCount,
		ExpectedCash: s.ExpectedCash(),
		EndingCash:   s.EndingCash,
		Variance:     s.Variance,
		Notes:        s.Notes,
	}
}

// ShiftService handles shift operations
type ShiftService struct {
	tx       shared.TransactionScope
	shifts   shift.Repository
	branches location.Repository
	events   shared.EventPublisher
	logger   *zap.Logger
}

// NewShiftService creates a new ShiftService
func NewShiftService(tx shared.TransactionScope, shifts shift.Repository, branches location.Repository, events shared.EventPublisher, logger *zap.Logger) *ShiftService {
	return &ShiftService{tx: tx, shifts: shifts, branches: branches, events: events, logger: logger}
}

// Open starts a shift for the caller. One open shift per user and location.
func (s *ShiftService) Open(ctx context.Context, actor identity.Actor, req OpenShiftRequest) (*ShiftResponse, error) {
	loc, err := shared.ParseLocationID(req.LocationID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireLocation(loc); err != nil {
		return nil, err
	}

	var opened *shift.Shift
	err = s.tx.Execute(ctx, func(ctx context.Context) error {
		if _, err := location.LoadOperational(ctx, s.branches, actor.TenantID, loc); err != nil {
			return err
		}
		existing, err := s.shifts.FindOpen(ctx, actor.TenantID, loc, actor.UserID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if existing != nil {
			return ErrShiftAlreadyOpen
		}
		if opened, err = shift.Open(actor.TenantID, loc, actor.UserID, req.StartingCash); err != nil {
			return err
		}
		return s.shifts.Save(ctx, opened)
	})
	if err != nil {
		// a concurrent open hit the unique index
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, ErrShiftAlreadyOpen
		}
		return nil, err
	}

	s.publish(ctx, opened)
	resp := ToShiftResponse(opened)
	return &resp, nil
}

// Current returns the caller's open shift at a location
func (s *ShiftService) Current(ctx context.Context, actor identity.Actor, locationID string) (*ShiftResponse, error) {
	loc, err := shared.ParseLocationID(locationID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireLocation(loc); err != nil {
		return nil, err
	}
	open, err := s.shifts.FindOpen(ctx, actor.TenantID, loc, actor.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.WrapDomainError(shared.ErrNotFound.Code, "No open shift at this location", shared.ErrNotFound)
		}
		return nil, err
	}
	resp := ToShiftResponse(open)
	return &resp, nil
}

// Close counts the drawer and ends the shift
func (s *ShiftService) Close(ctx context.Context, actor identity.Actor, id uuid.UUID, req CloseShiftRequest) (*ShiftResponse, error) {
	var closed *shift.Shift
	err := s.tx.Execute(ctx, func(ctx context.Context) error {
		var err error
		if closed, err = s.load(ctx, actor, id); err != nil {
			return err
		}
		if err := closed.Close(actor.UserID, actor.Role.CanManage(), req.EndingCash, req.Notes); err != nil {
			return err
		}
		return s.shifts.Save(ctx, closed)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, closed)
	logger.L(ctx).Info("shift closed",
		zap.String("shift_id", closed.ID.String()),
		zap.String("location_id", closed.LocationID.String()),
		zap.String("variance", closed.Variance.String()))
	resp := ToShiftResponse(closed)
	return &resp, nil
}

// Get returns one shift. Staff only see their own shifts.
func (s *ShiftService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ShiftResponse, error) {
	found, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.Role.CanManage() && found.UserID != actor.UserID {
		return nil, shared.ErrNotFound
	}
	resp := ToShiftResponse(found)
	return &resp, nil
}

// List returns shifts, newest first. Staff only see their own shifts.
func (s *ShiftService) List(ctx context.Context, actor identity.Actor, f ListFilter) ([]ShiftResponse, int64, error) {
	filter := shift.Filter{
		Filter: shared.DefaultFilter(),
		UserID: f.UserID,
		Status: shift.Status(f.Status),
		From:   f.From,
		To:     f.To,
	}
	filter.OrderBy = "opened_at"
	filter.OrderDir = "desc"
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.LocationID != "" {
		loc, err := shared.ParseLocationID(f.LocationID)
		if err != nil {
			return nil, 0, err
		}
		if err := actor.RequireLocation(loc); err != nil {
			return nil, 0, err
		}
		filter.LocationID = loc
	}
	if !actor.Role.CanManage() {
		self := actor.UserID
		filter.UserID = &self
	}

	shifts, total, err := s.shifts.FindAll(ctx, actor.TenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ShiftResponse, len(shifts))
	for i := range shifts {
		out[i] = ToShiftResponse(&shifts[i])
	}
	return out, total, nil
}

func (s *ShiftService) load(ctx context.Context, actor identity.Actor, id uuid.UUID) (*shift.Shift, error) {
	found, err := s.shifts.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireLocation(found.LocationID); err != nil {
		return nil, err
	}
	return found, nil
}

func (s *ShiftService) publish(ctx context.Context, sh *shift.Shift) {
	if err := shared.PublishAndClear(ctx, s.events, sh); err != nil {
		logger.L(ctx).Warn("publish shift events", zap.String("shift_id", sh.ID.String()), zap.Error(err))
	}
}
