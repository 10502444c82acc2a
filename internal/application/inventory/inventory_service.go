// Package inventory implements stock keeping use cases on top of the
// inventory domain.
package inventory

import (
	"context"
	"strings"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/inventory"
	"github.com/coretrack/backend/internal/domain/location"
	"github.com/coretrack/backend/internal/domain/menu"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const openingReference = "opening balance"

// IngredientUsage finds menu items that consume an inventory item
type IngredientUsage interface {
	FindUsingIngredient(ctx context.Context, tenantID, inventoryItemID uuid.UUID) ([]menu.MenuItem, error)
}

// InventoryService handles inventory-related business operations
type InventoryService struct {
	tx        shared.TransactionScope
	items     inventory.ItemRepository
	movements inventory.MovementRepository
	branches  location.Repository
	usage     IngredientUsage
	events    shared.EventPublisher
	logger    *zap.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	tx shared.TransactionScope,
	items inventory.ItemRepository,
	movements inventory.MovementRepository,
	branches location.Repository,
	usage IngredientUsage,
	events shared.EventPublisher,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		tx:        tx,
		items:     items,
		movements: movements,
		branches:  branches,
		usage:     usage,
		events:    events,
		logger:    logger,
	}
}

// Create adds an item at a location, optionally with an opening balance
func (s *InventoryService) Create(ctx context.Context, actor identity.Actor, req CreateItemRequest) (*ItemResponse, error) {
	loc, err := shared.ParseLocationID(req.LocationID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireLocation(loc); err != nil {
		return nil, err
	}

	var item *inventory.InventoryItem
	err = s.tx.Execute(ctx, func(ctx context.Context) error {
		if _, err := location.LoadOperational(ctx, s.branches, actor.TenantID, loc); err != nil {
			return err
		}
		var err error
		item, err = inventory.NewInventoryItem(actor.TenantID, loc, req.Name, req.Unit)
		if err != nil {
			return err
		}
		if err := item.UpdateDetails(inventory.ItemDetails{
			SKU:             req.SKU,
			Category:        req.Category,
			MinStock:        req.MinStock,
			ReorderQuantity: req.ReorderQuantity,
			SupplierID:      req.SupplierID,
		}); err != nil {
			return err
		}
		item.SetCreatedBy(actor.UserID)

		var opening *inventory.StockMovement
		if req.OpeningQuantity != nil && req.OpeningQuantity.IsPositive() {
			cost := decimal.Zero
			if req.OpeningCost != nil {
				cost = *req.OpeningCost
			}
			if opening, err = item.Receive(*req.OpeningQuantity, cost, openingReference); err != nil {
				return err
			}
		}
		if err := s.items.Save(ctx, item); err != nil {
			return err
		}
		if opening != nil {
			return s.saveMovement(ctx, actor, opening)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, item)
	resp := ToItemResponse(item)
	return &resp, nil
}

// Get returns one item
func (s *InventoryService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ItemResponse, error) {
	item, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// List returns items visible to the caller. Staff assigned to a single
// location default to it.
func (s *InventoryService) List(ctx context.Context, actor identity.Actor, f ItemListFilter) ([]ItemResponse, int64, error) {
	filter := inventory.ListFilter{
		Filter:       toFilter(f.Page, f.PageSize, f.OrderBy, f.OrderDir, f.Search),
		Category:     strings.TrimSpace(f.Category),
		LowStockOnly: f.LowStockOnly,
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
	} else if !actor.Role.CanManage() {
		if len(actor.LocationIDs) != 1 {
			return nil, 0, shared.WrapDomainError(shared.ErrInvalidInput.Code, "location_id is required", shared.ErrInvalidInput)
		}
		filter.LocationID = actor.LocationIDs[0]
	}

	items, total, err := s.items.FindAll(ctx, actor.TenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ItemResponse, len(items))
	for i := range items {
		out[i] = ToItemResponse(&items[i])
	}
	return out, total, nil
}

// Update changes descriptive fields and thresholds
func (s *InventoryService) Update(ctx context.Context, actor identity.Actor, id uuid.UUID, req UpdateItemRequest) (*ItemResponse, error) {
	var item *inventory.InventoryItem
	err := s.tx.Execute(ctx, func(ctx context.Context) error {
		var err error
		if item, err = s.load(ctx, actor, id); err != nil {
			return err
		}
		if err := item.UpdateDetails(inventory.ItemDetails{
			Name:            req.Name,
			SKU:             req.SKU,
			Unit:            req.Unit,
			Category:        req.Category,
			MinStock:        req.MinStock,
			ReorderQuantity: req.ReorderQuantity,
			SupplierID:      req.SupplierID,
		}); err != nil {
			return err
		}
		return s.items.Save(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// Delete removes an item that no menu recipe uses
func (s *InventoryService) Delete(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	if err := actor.RequireManager(); err != nil {
		return err
	}
	return s.tx.Execute(ctx, func(ctx context.Context) error {
		item, err := s.load(ctx, actor, id)
		if err != nil {
			return err
		}
		used, err := s.usage.FindUsingIngredient(ctx, actor.TenantID, item.ID)
		if err != nil {
			return err
		}
		if len(used) > 0 {
			return shared.WrapDomainError(shared.ErrInvalidState.Code,
				"Item is an ingredient of "+used[0].Name, shared.ErrInvalidState)
		}
		return s.items.Delete(ctx, actor.TenantID, item.ID)
	})
}

// Adjust applies a manual stock correction
func (s *InventoryService) Adjust(ctx context.Context, actor identity.Actor, id uuid.UUID, req AdjustStockRequest) (*ItemResponse, error) {
	return s.move(ctx, actor, id, func(item *inventory.InventoryItem) (*inventory.StockMovement, error) {
		return item.Adjust(req.Delta, req.Reason)
	})
}

// Receive books in stock at a unit price and updates the average cost
func (s *InventoryService) Receive(ctx context.Context, actor identity.Actor, id uuid.UUID, req ReceiveStockRequest) (*ItemResponse, error) {
	return s.move(ctx, actor, id, func(item *inventory.InventoryItem) (*inventory.StockMovement, error) {
		return item.Receive(req.Quantity, req.UnitPrice, req.Reference)
	})
}

// Consume removes stock; it never drives the balance below zero
func (s *InventoryService) Consume(ctx context.Context, actor identity.Actor, id uuid.UUID, req ConsumeStockRequest) (*ItemResponse, error) {
	return s.move(ctx, actor, id, func(item *inventory.InventoryItem) (*inventory.StockMovement, error) {
		return item.Consume(req.Quantity, req.Reference)
	})
}

// Movements lists the stock ledger of an item, newest first
func (s *InventoryService) Movements(ctx context.Context, actor identity.Actor, id uuid.UUID, filter shared.Filter) ([]MovementResponse, int64, error) {
	item, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, 0, err
	}
	movements, total, err := s.movements.FindByItem(ctx, actor.TenantID, item.ID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]MovementResponse, len(movements))
	for i := range movements {
		out[i] = ToMovementResponse(&movements[i])
	}
	return out, total, nil
}

// move runs one quantity change and its ledger line in a transaction
func (s *InventoryService) move(ctx context.Context, actor identity.Actor, id uuid.UUID, apply func(*inventory.InventoryItem) (*inventory.StockMovement, error)) (*ItemResponse, error) {
	var item *inventory.InventoryItem
	err := s.tx.Execute(ctx, func(ctx context.Context) error {
		var err error
		if item, err = s.load(ctx, actor, id); err != nil {
			return err
		}
		if _, err := location.LoadOperational(ctx, s.branches, actor.TenantID, item.LocationID); err != nil {
			return err
		}
		movement, err := apply(item)
		if err != nil {
			return err
		}
		if err := s.items.Save(ctx, item); err != nil {
			return err
		}
		return s.saveMovement(ctx, actor, movement)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, item)
	resp := ToItemResponse(item)
	return &resp, nil
}

func (s *InventoryService) load(ctx context.Context, actor identity.Actor, id uuid.UUID) (*inventory.InventoryItem, error) {
	item, err := s.items.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireLocation(item.LocationID); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *InventoryService) saveMovement(ctx context.Context, actor identity.Actor, m *inventory.StockMovement) error {
	by := actor.UserID
	m.CreatedBy = &by
	return s.movements.Save(ctx, m)
}

func (s *InventoryService) publish(ctx context.Context, item *inventory.InventoryItem) {
	if err := shared.PublishAndClear(ctx, s.events, item); err != nil {
		logger.L(ctx).Warn("publish inventory events",
			zap.String("item_id", item.ID.String()),
			zap.Error(err))
	}
}

func toFilter(page, pageSize int, orderBy, orderDir, search string) shared.Filter {
	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}
	if orderBy != "" {
		filter.OrderBy = orderBy
	}
	if orderDir != "" {
		filter.OrderDir = orderDir
	}
	filter.Search = strings.TrimSpace(search)
	return filter
}
