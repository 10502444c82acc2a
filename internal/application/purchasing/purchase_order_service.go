// Package purchasing implements supplier management, purchase orders and
// the delivery flow that books received goods into inventory.
package purchasing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/inventory"
	"github.com/coretrack/backend/internal/domain/location"
	"github.com/coretrack/backend/internal/domain/purchasing"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// numberAttempts bounds retries when two orders race for the same number
const numberAttempts = 3

// PurchaseOrderService handles purchase order operations
type PurchaseOrderService struct {
	tx        shared.TransactionScope
	orders    purchasing.OrderRepository
	suppliers purchasing.SupplierRepository
	items     inventory.ItemRepository
	movements inventory.MovementRepository
	branches  location.Repository
	events    shared.EventPublisher
	now       func() time.Time
	logger    *zap.Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(
	tx shared.TransactionScope,
	orders purchasing.OrderRepository,
	suppliers purchasing.SupplierRepository,
	items inventory.ItemRepository,
	movements inventory.MovementRepository,
	branches location.Repository,
	events shared.EventPublisher,
	logger *zap.Logger,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		tx:        tx,
		orders:    orders,
		suppliers: suppliers,
		items:     items,
		movements: movements,
		branches:  branches,
		events:    events,
		now:       time.Now,
		logger:    logger,
	}
}

// Create creates a draft purchase order with a fresh PO number
func (s *PurchaseOrderService) Create(ctx context.Context, actor identity.Actor, req CreateOrderRequest) (*OrderResponse, error) {
	loc, err := shared.ParseLocationID(req.LocationID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireLocation(loc); err != nil {
		return nil, err
	}

	var order *purchasing.PurchaseOrder
	for attempt := 1; ; attempt++ {
		err = s.tx.Execute(ctx, func(ctx context.Context) error {
			if _, err := location.LoadOperational(ctx, s.branches, actor.TenantID, loc); err != nil {
				return err
			}
			supplierName, err := s.supplierName(ctx, actor.TenantID, req.SupplierID, req.SupplierName)
			if err != nil {
				return err
			}
			number, err := s.orders.NextNumber(ctx, actor.TenantID, s.now())
			if err != nil {
				return err
			}
			order, err = purchasing.NewPurchaseOrder(actor.TenantID, loc, number, req.SupplierID, supplierName)
			if err != nil {
				return err
			}
			order.SetCreatedBy(actor.UserID)
			if err := s.fill(ctx, order, req.SupplierID, supplierName, req.Notes, req.ExpectedAt, req.ShippingFee, req.Items); err != nil {
				return err
			}
			return s.orders.Save(ctx, order)
		})
		if err == nil || !errors.Is(err, shared.ErrAlreadyExists) || attempt == numberAttempts {
			break
		}
		logger.L(ctx).Debug("purchase order number taken, retrying", zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, order)
	resp := ToOrderResponse(order)
	return &resp, nil
}

// Get returns one purchase order
func (s *PurchaseOrderService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*OrderResponse, error) {
	order, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// List returns purchase orders, newest first
func (s *PurchaseOrderService) List(ctx context.Context, actor identity.Actor, f OrderListFilter) ([]OrderResponse, int64, error) {
	filter := purchasing.OrderFilter{
		Filter:     shared.DefaultFilter(),
		Status:     purchasing.OrderStatus(f.Status),
		SupplierID: f.SupplierID,
	}
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	filter.Search = strings.TrimSpace(f.Search)
	if f.LocationID != "" {
		loc, err := shared.ParseLocationID(f.LocationID)
		if err != nil {
			return nil, 0, err
		}
		if err := actor.RequireLocation(loc); err != nil {
			return nil, 0, err
		}
		filter.LocationID = loc
	} else if err := actor.RequireManager(); err != nil {
		return nil, 0, err
	}

	orders, total, err := s.orders.FindAll(ctx, actor.TenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out, total, nil
}

// Update replaces supplier, notes, shipping fee and lines of a draft
func (s *PurchaseOrderService) Update(ctx context.Context, actor identity.Actor, id uuid.UUID, req UpdateOrderRequest) (*OrderResponse, error) {
	var order *purchasing.PurchaseOrder
	err := s.tx.Execute(ctx, func(ctx context.Context) error {
		var err error
		if order, err = s.load(ctx, actor, id); err != nil {
			return err
		}
		supplierName, err := s.supplierName(ctx, actor.TenantID, req.SupplierID, req.SupplierName)
		if err != nil {
			return err
		}
		if err := s.fill(ctx, order, req.SupplierID, supplierName, req.Notes, req.ExpectedAt, req.ShippingFee, req.Items); err != nil {
			return err
		}
		return s.orders.Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// Submit moves a draft to ordered
func (s *PurchaseOrderService) Submit(ctx context.Context, actor identity.Actor, id uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, actor, id, func(order *purchasing.PurchaseOrder) error {
		return order.Submit()
	})
}

// Cancel abandons a draft or ordered purchase order
func (s *PurchaseOrderService) Cancel(ctx context.Context, actor identity.Actor, id uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	return s.transition(ctx, actor, id, func(order *purchasing.PurchaseOrder) error {
		return order.Cancel(req.Reason)
	})
}

// Delete removes a draft
func (s *PurchaseOrderService) Delete(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	return s.tx.Execute(ctx, func(ctx context.Context) error {
		order, err := s.load(ctx, actor, id)
		if err != nil {
			return err
		}
		if order.Status != purchasing.OrderStatusDraft {
			return shared.WrapDomainError(shared.ErrInvalidState.Code, "Only draft orders can be deleted", shared.ErrInvalidState)
		}
		return s.orders.Delete(ctx, actor.TenantID, order.ID)
	})
}

// Deliver receives the goods of an order. Shipping is allocated over the
// received lines, every line is booked into inventory at its effective unit
// cost with a receive movement, and lines without an inventory item get one
// at the order's location. All of it commits or rolls back together.
func (s *PurchaseOrderService) Deliver(ctx context.Context, actor identity.Actor, id uuid.UUID, req DeliverOrderRequest) (*DeliveryResponse, error) {
	input := purchasing.DeliveryInput{
		Received:    make(map[uuid.UUID]decimal.Decimal, len(req.Lines)),
		ShippingFee: req.ShippingFee,
	}
	for _, l := range req.Lines {
		input.Received[l.LineID] = l.ReceivedQuantity
	}

	var (
		order   *purchasing.PurchaseOrder
		touched []*inventory.InventoryItem
		lines   []DeliveredLineResponse
	)
	err := s.tx.Execute(ctx, func(ctx context.Context) error {
		// the runner may retry; start from a clean slate
		touched, lines = nil, nil

		var err error
		if order, err = s.load(ctx, actor, id); err != nil {
			return err
		}
		if _, err := location.LoadOperational(ctx, s.branches, actor.TenantID, order.LocationID); err != nil {
			return err
		}
		for lineID := range input.Received {
			if !hasLine(order, lineID) {
				return shared.WrapDomainError(shared.ErrInvalidInput.Code, "Unknown order line "+lineID.String(), shared.ErrInvalidInput)
			}
		}

		delivered, err := order.Deliver(input)
		if err != nil {
			return err
		}
		for _, dl := range delivered {
			item, link, created, err := s.resolveItem(ctx, actor, order, dl)
			if err != nil {
				return err
			}
			movement, err := item.Receive(dl.Quantity, dl.EffectiveUnitCost, order.Number)
			if err != nil {
				return err
			}
			if err := s.items.Save(ctx, item); err != nil {
				return err
			}
			by := actor.UserID
			movement.CreatedBy = &by
			if err := s.movements.Save(ctx, movement); err != nil {
				return err
			}
			if link {
				order.LinkInventoryItem(dl.LineID, item.ID)
			}
			touched = append(touched, item)
			lines = append(lines, DeliveredLineResponse{
				LineID:            dl.LineID,
				InventoryItemID:   item.ID,
				Name:              item.Name,
				Quantity:          dl.Quantity,
				EffectiveUnitCost: dl.EffectiveUnitCost,
				NewUnitCost:       item.UnitCost,
				QuantityAfter:     item.Quantity,
				Created:           created,
			})
		}
		return s.orders.Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, order)
	for _, item := range touched {
		if err := shared.PublishAndClear(ctx, s.events, item); err != nil {
			logger.L(ctx).Warn("publish inventory events", zap.Error(err))
		}
	}
	logger.L(ctx).Info("purchase order delivered",
		zap.String("order_id", order.ID.String()),
		zap.String("number", order.Number),
		zap.Int("lines", len(lines)),
		zap.String("total", order.Total.String()))

	return &DeliveryResponse{Order: ToOrderResponse(order), Lines: lines}, nil
}

// resolveItem returns the inventory item a delivered line books into. An
// unlinked line reuses an item with the same name at the order's location
// or creates a new one; link reports that the line must be linked to it.
func (s *PurchaseOrderService) resolveItem(ctx context.Context, actor identity.Actor, order *purchasing.PurchaseOrder, dl purchasing.DeliveredLine) (item *inventory.InventoryItem, link, created bool, err error) {
	if dl.InventoryItemID != nil {
		item, err = s.items.FindByID(ctx, actor.TenantID, *dl.InventoryItemID)
		if errors.Is(err, shared.ErrNotFound) {
			err = shared.WrapDomainError(shared.ErrNotFound.Code,
				"Inventory item of line "+dl.Name+" no longer exists", shared.ErrNotFound)
		}
		return item, false, false, err
	}

	item, err = s.items.FindByName(ctx, actor.TenantID, order.LocationID, dl.Name)
	if err == nil {
		return item, true, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, false, err
	}
	item, err = inventory.NewInventoryItem(actor.TenantID, order.LocationID, dl.Name, dl.Unit)
	if err != nil {
		return nil, false, false, err
	}
	item.SetCreatedBy(actor.UserID)
	if order.SupplierID != nil {
		supplier := *order.SupplierID
		item.SupplierID = &supplier
	}
	return item, true, true, nil
}

// fill applies editable fields and validates line references against the
// order's location
func (s *PurchaseOrderService) fill(ctx context.Context, order *purchasing.PurchaseOrder, supplierID *uuid.UUID, supplierName, notes string, expectedAt *time.Time, fee decimal.Decimal, reqItems []OrderItemRequest) error {
	if err := order.SetDetails(supplierID, supplierName, notes, expectedAt); err != nil {
		return err
	}
	inputs := make([]purchasing.ItemInput, len(reqItems))
	var ids []uuid.UUID
	for i, it := range reqItems {
		inputs[i] = purchasing.ItemInput{
			InventoryItemID: it.InventoryItemID,
			Name:            it.Name,
			Unit:            it.Unit,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
		}
		if it.InventoryItemID != nil {
			ids = append(ids, *it.InventoryItemID)
		}
	}
	if len(ids) > 0 {
		found, err := s.items.FindByIDs(ctx, order.TenantID, ids)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]inventory.InventoryItem, len(found))
		for _, f := range found {
			byID[f.ID] = f
		}
		for _, id := range ids {
			item, ok := byID[id]
			if !ok {
				return shared.WrapDomainError(shared.ErrNotFound.Code, "Inventory item "+id.String()+" not found", shared.ErrNotFound)
			}
			if item.LocationID != order.LocationID {
				return shared.WrapDomainError(shared.ErrInvalidInput.Code,
					"Inventory item "+item.Name+" belongs to another location", shared.ErrInvalidInput)
			}
		}
	}
	if err := order.SetItems(inputs); err != nil {
		return err
	}
	return order.SetShippingFee(fee)
}

func (s *PurchaseOrderService) supplierName(ctx context.Context, tenantID uuid.UUID, supplierID *uuid.UUID, fallback string) (string, error) {
	if supplierID == nil {
		return fallback, nil
	}
	supplier, err := s.suppliers.FindByID(ctx, tenantID, *supplierID)
	if err != nil {
		return "", err
	}
	if !supplier.Active {
		return "", shared.WrapDomainError(shared.ErrInvalidState.Code, "Supplier "+supplier.Name+" is inactive", shared.ErrInvalidState)
	}
	return supplier.Name, nil
}

func (s *PurchaseOrderService) transition(ctx context.Context, actor identity.Actor, id uuid.UUID, apply func(*purchasing.PurchaseOrder) error) (*OrderResponse, error) {
	var order *purchasing.PurchaseOrder
	err := s.tx.Execute(ctx, func(ctx context.Context) error {
		var err error
		if order, err = s.load(ctx, actor, id); err != nil {
			return err
		}
		if err := apply(order); err != nil {
			return err
		}
		return s.orders.Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, order)
	resp := ToOrderResponse(order)
	return &resp, nil
}

func (s *PurchaseOrderService) load(ctx context.Context, actor identity.Actor, id uuid.UUID) (*purchasing.PurchaseOrder, error) {
	order, err := s.orders.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireLocation(order.LocationID); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *PurchaseOrderService) publish(ctx context.Context, order *purchasing.PurchaseOrder) {
	if err := shared.PublishAndClear(ctx, s.events, order); err != nil {
		logger.L(ctx).Warn("publish purchase order events",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}
}

func hasLine(order *purchasing.PurchaseOrder, lineID uuid.UUID) bool {
	for _, it := range order.Items {
		if it.ID == lineID {
			return true
		}
	}
	return false
}
