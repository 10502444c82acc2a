package handler

import (
	"context"

	inventoryapp "github.com/coretrack/backend/internal/application/inventory"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InventoryService is the stock API used by InventoryHandler
type InventoryService interface {
	Create(ctx context.Context, actor identity.Actor, req inventoryapp.CreateItemRequest) (*inventoryapp.ItemResponse, error)
	Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*inventoryapp.ItemResponse, error)
	List(ctx context.Context, actor identity.Actor, f inventoryapp.ItemListFilter) ([]inventoryapp.ItemResponse, int64, error)
	Update(ctx context.Context, actor identity.Actor, id uuid.UUID, req inventoryapp.UpdateItemRequest) (*inventoryapp.ItemResponse, error)
	Delete(ctx context.Context, actor identity.Actor, id uuid.UUID) error
	Adjust(ctx context.Context, actor identity.Actor, id uuid.UUID, req inventoryapp.AdjustStockRequest) (*inventoryapp.ItemResponse, error)
	Receive(ctx context.Context, actor identity.Actor, id uuid.UUID, req inventoryapp.ReceiveStockRequest) (*inventoryapp.ItemResponse, error)
	Consume(ctx context.Context, actor identity.Actor, id uuid.UUID, req inventoryapp.ConsumeStockRequest) (*inventoryapp.ItemResponse, error)
	Movements(ctx context.Context, actor identity.Actor, id uuid.UUID, filter shared.Filter) ([]inventoryapp.MovementResponse, int64, error)
}

// InventoryHandler serves /inventory
type InventoryHandler struct {
	BaseHandler
	service InventoryService
}

// NewInventoryHandler creates an InventoryHandler
func NewInventoryHandler(service InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// Create handles POST /inventory
// @ID           inventoryCreate
// @Summary      Create inventory item
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.CreateItemRequest true "Request body"
// @Success      201 {object} dto.Response{data=inventoryapp.ItemResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /inventory [post]
func (h *InventoryHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req inventoryapp.CreateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// List handles GET /inventory
// @ID           inventoryList
// @Summary      List inventory items
// @Tags         inventory
// @Produce      json
// @Param        filter query inventoryapp.ItemListFilter false "Filters"
// @Success      200 {object} dto.Response{data=[]inventoryapp.ItemResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /inventory [get]
func (h *InventoryHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var f inventoryapp.ItemListFilter
	if !h.BindQuery(c, &f) {
		return
	}
	f.Page, f.PageSize = paging(f.Page, f.PageSize)
	items, total, err := h.service.List(c.Request.Context(), actor, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, f.Page, f.PageSize)
}

// Get handles GET /inventory/:id
// @ID           inventoryGet
// @Summary      Get inventory item
// @Tags         inventory
// @Produce      json
// @Param        id path string true "ID of the inventory item" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.ItemResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /inventory/{id} [get]
func (h *InventoryHandler) Get(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Update handles PUT /inventory/:id
// @ID           inventoryUpdate
// @Summary      Update inventory item
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the inventory item" format(uuid)
// @Param        request body inventoryapp.UpdateItemRequest true "Request body"
// @Success      200 {object} dto.Response{data=inventoryapp.ItemResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /inventory/{id} [put]
func (h *InventoryHandler) Update(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.UpdateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Delete handles DELETE /inventory/:id
// @ID           inventoryDelete
// @Summary      Delete inventory item
// @Tags         inventory
// @Produce      json
// @Param        id path string true "ID of the inventory item" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /inventory/{id} [delete]
func (h *InventoryHandler) Delete(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Adjust handles POST /inventory/:id/adjust
// @ID           inventoryAdjust
// @Summary      Adjust stock
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the inventory item" format(uuid)
// @Param        request body inventoryapp.AdjustStockRequest true "Request body"
// @Success      200 {object} dto.Response{data=inventoryapp.ItemResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /inventory/{id}/adjust [post]
func (h *InventoryHandler) Adjust(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.service.Adjust(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Receive handles POST /inventory/:id/receive
// @ID           inventoryReceive
// @Summary      Receive stock
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the inventory item" format(uuid)
// @Param        request body inventoryapp.ReceiveStockRequest true "Request body"
// @Success      200 {object} dto.Response{data=inventoryapp.ItemResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /inventory/{id}/receive [post]
func (h *InventoryHandler) Receive(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.ReceiveStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.service.Receive(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Consume handles POST /inventory/:id/consume
// @ID           inventoryConsume
// @Summary      Consume stock
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the inventory item" format(uuid)
// @Param        request body inventoryapp.ConsumeStockRequest true "Request body"
// @Success      200 {object} dto.Response{data=inventoryapp.ItemResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /inventory/{id}/consume [post]
func (h *InventoryHandler) Consume(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.ConsumeStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.service.Consume(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Movements handles GET /inventory/:id/movements
// @ID           inventoryMovements
// @Summary      List stock movements
// @Tags         inventory
// @Produce      json
// @Param        id path string true "ID of the inventory item" format(uuid)
// @Param        filter query dto.ListRequest false "Filters"
// @Success      200 {object} dto.Response{data=[]inventoryapp.MovementResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /inventory/{id}/movements [get]
func (h *InventoryHandler) Movements(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	req.Normalize()
	movements, total, err := h.service.Movements(c.Request.Context(), actor, id, shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, movements, total, req.Page, req.PageSize)
}
