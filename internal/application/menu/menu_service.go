// Package menu implements menu categories, menu items with their recipes,
// food costing and item pictures.
package menu

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

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

// MaxImageSize is the largest picture accepted for a menu item
const MaxImageSize = 5 << 20

// allowedImageTypes maps accepted content types to the stored extension.
// SVG is excluded because it can carry scripts.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageStorage stores menu item pictures
type ImageStorage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	DownloadURL(ctx context.Context, key string) (string, time.Time, error)
	UploadURL(ctx context.Context, key, contentType string) (string, time.Time, error)
}

// MenuService handles menu categories and items
type MenuService struct {
	tx         shared.TransactionScope
	items      menu.ItemRepository
	categories menu.CategoryRepository
	inventory  inventory.ItemRepository
	branches   location.Repository
	images     ImageStorage
	logger     *zap.Logger
}

// NewMenuService creates a new MenuService
func NewMenuService(
	tx shared.TransactionScope,
	items menu.ItemRepository,
	categories menu.CategoryRepository,
	inventoryItems inventory.ItemRepository,
	branches location.Repository,
	images ImageStorage,
	logger *zap.Logger,
) *MenuService {
	return &MenuService{
		tx:         tx,
		items:      items,
		categories: categories,
		inventory:  inventoryItems,
		branches:   branches,
		images:     images,
		logger:     logger,
	}
}

// ListCategories returns every category of the tenant ordered for display
func (s *MenuService) ListCategories(ctx context.Context, actor identity.Actor) ([]CategoryResponse, error) {
	categories, err := s.categories.FindAll(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryResponse, len(categories))
	for i := range categories {
		out[i] = ToCategoryResponse(&categories[i])
	}
	return out, nil
}

// CreateCategory adds a category
func (s *MenuService) CreateCategory(ctx context.Context, actor identity.Actor, req CategoryRequest) (*CategoryResponse, error) {
	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	category, err := menu.NewCategory(actor.TenantID, req.Name, req.SortOrder)
	if err != nil {
		return nil, err
	}
	category.SetCreatedBy(actor.UserID)
	if err := s.categories.Save(ctx, category); err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// UpdateCategory renames or reorders a category
func (s *MenuService) UpdateCategory(ctx context.Context, actor identity.Actor, id uuid.UUID, req CategoryRequest) (*CategoryResponse, error) {
	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	category, err := s.categories.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := category.Rename(req.Name, req.SortOrder); err != nil {
		return nil, err
	}
	if err := s.categories.Save(ctx, category); err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// DeleteCategory removes an empty category
func (s *MenuService) DeleteCategory(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	if err := actor.RequireManager(); err != nil {
		return err
	}
	category, err := s.categories.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}
	filter := menu.ListFilter{Filter: shared.DefaultFilter(), CategoryID: &category.ID}
	filter.PageSize = 1
	_, total, err := s.items.FindAll(ctx, actor.TenantID, filter)
	if err != nil {
		return err
	}
	if total > 0 {
		return shared.WrapDomainError(shared.ErrInvalidState.Code,
			fmt.Sprintf("Category %s still has %d menu items", category.Name, total), shared.ErrInvalidState)
	}
	return s.categories.Delete(ctx, actor.TenantID, category.ID)
}

// Create adds a menu item with its recipe
func (s *MenuService) Create(ctx context.Context, actor identity.Actor, req CreateItemRequest) (*ItemResponse, error) {
	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	loc, err := shared.ParseLocationID(req.LocationID)
	if err != nil {
		return nil, err
	}

	var item *menu.MenuItem
	err = s.tx.Execute(ctx, func(ctx context.Context) error {
		if _, err := location.LoadOperational(ctx, s.branches, actor.TenantID, loc); err != nil {
			return err
		}
		if err := s.checkCategory(ctx, actor.TenantID, req.CategoryID); err != nil {
			return err
		}
		var err error
		if item, err = menu.NewMenuItem(actor.TenantID, loc, req.Name, req.Price); err != nil {
			return err
		}
		item.SetCreatedBy(actor.UserID)
		if err := item.Update(req.Name, req.Description, req.Price, req.CategoryID); err != nil {
			return err
		}
		if err := s.setRecipe(ctx, item, req.Ingredients); err != nil {
			return err
		}
		return s.items.Save(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(ctx, item)
	return &resp, nil
}

// Get returns one menu item
func (s *MenuService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ItemResponse, error) {
	item, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(ctx, item)
	return &resp, nil
}

// List returns menu items visible to the caller
func (s *MenuService) List(ctx context.Context, actor identity.Actor, f ItemListFilter) ([]ItemResponse, int64, error) {
	filter := menu.ListFilter{
		Filter:        shared.DefaultFilter(),
		CategoryID:    f.CategoryID,
		AvailableOnly: f.AvailableOnly,
	}
	filter.OrderBy = "name"
	filter.OrderDir = "asc"
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
		out[i] = s.toResponse(ctx, &items[i])
	}
	return out, total, nil
}

// Update replaces the descriptive fields, price and recipe
func (s *MenuService) Update(ctx context.Context, actor identity.Actor, id uuid.UUID, req UpdateItemRequest) (*ItemResponse, error) {
	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	var item *menu.MenuItem
	err := s.tx.Execute(ctx, func(ctx context.Context) error {
		var err error
		if item, err = s.load(ctx, actor, id); err != nil {
			return err
		}
		if err := s.checkCategory(ctx, actor.TenantID, req.CategoryID); err != nil {
			return err
		}
		if err := item.Update(req.Name, req.Description, req.Price, req.CategoryID); err != nil {
			return err
		}
		if req.Ingredients != nil {
			if err := s.setRecipe(ctx, item, req.Ingredients); err != nil {
				return err
			}
		}
		return s.items.Save(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(ctx, item)
	return &resp, nil
}

// Delete removes a menu item and its picture
func (s *MenuService) Delete(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	if err := actor.RequireManager(); err != nil {
		return err
	}
	item, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.items.Delete(ctx, actor.TenantID, item.ID); err != nil {
		return err
	}
	s.dropImage(ctx, item.ImageKey)
	return nil
}

// SetAvailability toggles whether the item can be sold
func (s *MenuService) SetAvailability(ctx context.Context, actor identity.Actor, id uuid.UUID, available bool) (*ItemResponse, error) {
	item, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	item.SetAvailability(available)
	if err := s.items.Save(ctx, item); err != nil {
		return nil, err
	}
	resp := s.toResponse(ctx, item)
	return &resp, nil
}

// Costing computes food cost and margin from the current inventory costs
func (s *MenuService) Costing(ctx context.Context, actor identity.Actor, id uuid.UUID) (*CostingResponse, error) {
	item, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	stock, err := s.ingredientItems(ctx, actor.TenantID, item.IngredientIDs())
	if err != nil {
		return nil, err
	}

	costs := make(map[uuid.UUID]decimal.Decimal, len(stock))
	for invID, inv := range stock {
		costs[invID] = inv.UnitCost
	}
	c := item.CalculateCosting(costs)

	lines := make([]CostingLine, 0, len(item.Ingredients))
	for _, ing := range item.Ingredients {
		inv, ok := stock[ing.InventoryItemID]
		if !ok {
			continue
		}
		lines = append(lines, CostingLine{
			InventoryItemID: inv.ID,
			Name:            inv.Name,
			Unit:            inv.Unit,
			Quantity:        ing.Quantity,
			UnitCost:        inv.UnitCost,
			Cost:            ing.Quantity.Mul(inv.UnitCost).Round(4),
		})
	}
	return &CostingResponse{
		MenuItemID:    item.ID,
		Price:         c.Price,
		FoodCost:      c.FoodCost,
		Margin:        c.Margin,
		MarginPercent: c.MarginPercent,
		Lines:         lines,
		Missing:       c.Missing,
	}, nil
}

// UploadImage streams a picture into storage and attaches it to the item.
// The previous picture is removed.
func (s *MenuService) UploadImage(ctx context.Context, actor identity.Actor, id uuid.UUID, upload ImageUpload, body io.Reader) (*ItemResponse, error) {
	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	ext, err := checkImage(upload.ContentType, upload.Size)
	if err != nil {
		return nil, err
	}
	item, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	key := imageKey(item, ext)
	if err := s.images.Put(ctx, key, io.LimitReader(body, MaxImageSize), upload.Size, upload.ContentType); err != nil {
		return nil, err
	}
	previous := item.ImageKey
	item.SetImage(key)
	if err := s.items.Save(ctx, item); err != nil {
		s.dropImage(ctx, key)
		return nil, err
	}
	s.dropImage(ctx, previous)

	logger.L(ctx).Info("menu image uploaded",
		zap.String("menu_item_id", item.ID.String()),
		zap.String("key", key),
		zap.Int64("size", upload.Size))
	resp := s.toResponse(ctx, item)
	return &resp, nil
}

// ImageUploadURL presigns a direct upload; ConfirmImage attaches the result
func (s *MenuService) ImageUploadURL(ctx context.Context, actor identity.Actor, id uuid.UUID, contentType string) (*UploadURLResponse, error) {
	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	ext, err := checkImage(contentType, 0)
	if err != nil {
		return nil, err
	}
	item, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	key := imageKey(item, ext)
	url, expires, err := s.images.UploadURL(ctx, key, contentType)
	if err != nil {
		return nil, err
	}
	return &UploadURLResponse{Key: key, UploadURL: url, ExpiresAt: expires}, nil
}

// ConfirmImage attaches a picture uploaded through ImageUploadURL
func (s *MenuService) ConfirmImage(ctx context.Context, actor identity.Actor, id uuid.UUID, key string) (*ItemResponse, error) {
	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	item, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(key, imagePrefix(item)) || strings.Contains(key, "..") {
		return nil, shared.WrapDomainError(shared.ErrInvalidInput.Code, "Image key does not belong to this item", shared.ErrInvalidInput)
	}
	previous := item.ImageKey
	item.SetImage(key)
	if err := s.items.Save(ctx, item); err != nil {
		return nil, err
	}
	if previous != key {
		s.dropImage(ctx, previous)
	}
	resp := s.toResponse(ctx, item)
	return &resp, nil
}

// setRecipe validates ingredient references and replaces the recipe.
// Ingredients must be inventory items of the same tenant and location.
func (s *MenuService) setRecipe(ctx context.Context, item *menu.MenuItem, reqs []IngredientRequest) error {
	ingredients := make([]menu.Ingredient, len(reqs))
	ids := make([]uuid.UUID, 0, len(reqs))
	for i, r := range reqs {
		ingredients[i] = menu.Ingredient{InventoryItemID: r.InventoryItemID, Quantity: r.Quantity}
		ids = append(ids, r.InventoryItemID)
	}
	if len(ids) > 0 {
		stock, err := s.ingredientItems(ctx, item.TenantID, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			inv, ok := stock[id]
			if !ok {
				return shared.WrapDomainError(shared.ErrNotFound.Code, "Ingredient "+id.String()+" not found", shared.ErrNotFound)
			}
			if inv.LocationID != item.LocationID {
				return shared.WrapDomainError(shared.ErrInvalidInput.Code,
					"Ingredient "+inv.Name+" belongs to another location", shared.ErrInvalidInput)
			}
		}
	}
	return item.SetIngredients(ingredients)
}

func (s *MenuService) ingredientItems(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]inventory.InventoryItem, error) {
	out := make(map[uuid.UUID]inventory.InventoryItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	found, err := s.inventory.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	for _, f := range found {
		out[f.ID] = f
	}
	return out, nil
}

func (s *MenuService) checkCategory(ctx context.Context, tenantID uuid.UUID, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	_, err := s.categories.FindByID(ctx, tenantID, *categoryID)
	return err
}

func (s *MenuService) load(ctx context.Context, actor identity.Actor, id uuid.UUID) (*menu.MenuItem, error) {
	item, err := s.items.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireLocation(item.LocationID); err != nil {
		return nil, err
	}
	return item, nil
}

// toResponse maps an item and presigns its picture. A storage failure only
// leaves the URL empty.
func (s *MenuService) toResponse(ctx context.Context, item *menu.MenuItem) ItemResponse {
	resp := ToItemResponse(item)
	if item.ImageKey == "" {
		return resp
	}
	url, _, err := s.images.DownloadURL(ctx, item.ImageKey)
	if err != nil {
		logger.L(ctx).Debug("presign menu image", zap.String("key", item.ImageKey), zap.Error(err))
		return resp
	}
	resp.ImageURL = url
	return resp
}

func (s *MenuService) dropImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		logger.L(ctx).Warn("delete menu image", zap.String("key", key), zap.Error(err))
	}
}

func checkImage(contentType string, size int64) (string, error) {
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		return "", shared.WrapDomainError(shared.ErrInvalidInput.Code,
			"Content type '"+contentType+"' is not allowed; use JPEG, PNG, WebP or GIF", shared.ErrInvalidInput)
	}
	if size > MaxImageSize {
		return "", shared.WrapDomainError(shared.ErrInvalidInput.Code,
			fmt.Sprintf("Image exceeds %d bytes", MaxImageSize), shared.ErrInvalidInput)
	}
	return ext, nil
}

func imagePrefix(item *menu.MenuItem) string {
	return path.Join("menu", item.TenantID.String(), item.ID.String()) + "/"
}

func imageKey(item *menu.MenuItem, ext string) string {
	return imagePrefix(item) + uuid.NewString() + ext
}
