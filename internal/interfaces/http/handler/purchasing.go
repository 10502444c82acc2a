package handler

import (
	"context"

	purchasingapp "github.com/coretrack/backend/internal/application/purchasing"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SupplierService is the supplier API used by PurchasingHandler
type SupplierService interface {
	Create(ctx context.Context, actor identity.Actor, req purchasingapp.SupplierRequest) (*purchasingapp.SupplierResponse, error)
	Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*purchasingapp.SupplierResponse, error)
	List(ctx context.Context, actor identity.Actor, page, pageSize int, search string) ([]purchasingapp.SupplierResponse, int64, error)
	Update(ctx context.Context, actor identity.Actor, id uuid.UUID, req purchasingapp.SupplierRequest) (*purchasingapp.SupplierResponse, error)
	Deactivate(ctx context.Context, actor identity.Actor, id uuid.UUID) error
}

// PurchaseOrderService is the purchase order API used by PurchasingHandler
type PurchaseOrderService interface {
	Create(ctx context.Context, actor identity.Actor, req purchasingapp.CreateOrderRequest) (*purchasingapp.OrderResponse, error)
	Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*purchasingapp.OrderResponse, error)
	List(ctx context.Context, actor identity.Actor, f purchasingapp.OrderListFilter) ([]purchasingapp.OrderResponse, int64, error)
	Update(ctx context.Context, actor identity.Actor, id uuid.UUID, req purchasingapp.UpdateOrderRequest) (*purchasingapp.OrderResponse, error)
	Submit(ctx context.Context, actor identity.Actor, id uuid.UUID) (*purchasingapp.OrderResponse, error)
	Cancel(ctx context.Context, actor identity.Actor, id uuid.UUID, req purchasingapp.CancelOrderRequest) (*purchasingapp.OrderResponse, error)
	Delete(ctx context.Context, actor identity.Actor, id uuid.UUID) error
	Deliver(ctx context.Context, actor identity.Actor, id uuid.UUID, req purchasingapp.DeliverOrderRequest) (*purchasingapp.DeliveryResponse, error)
}

// PurchasingHandler serves /suppliers and /purchase-orders
type PurchasingHandler struct {
	BaseHandler
	suppliers SupplierService
	orders    PurchaseOrderService
}

// NewPurchasingHandler creates a PurchasingHandler
func NewPurchasingHandler(suppliers SupplierService, orders PurchaseOrderService) *PurchasingHandler {
	return &PurchasingHandler{suppliers: suppliers, orders: orders}
}

// CreateSupplier handles POST /suppliers
// @ID           suppliersCreateSupplier
// @Summary      Create supplier
// @Tags         suppliers
// @Accept       json
// @Produce      json
// @Param        request body purchasingapp.SupplierRequest true "Request body"
// @Success      201 {object} dto.Response{data=purchasingapp.SupplierResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /suppliers [post]
func (h *PurchasingHandler) CreateSupplier(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req purchasingapp.SupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}
	supplier, err := h.suppliers.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, supplier)
}

// ListSuppliers handles GET /suppliers
// @ID           suppliersListSuppliers
// @Summary      List suppliers
// @Tags         suppliers
// @Produce      json
// @Param        filter query dto.ListRequest false "Filters"
// @Success      200 {object} dto.Response{data=[]purchasingapp.SupplierResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /suppliers [get]
func (h *PurchasingHandler) ListSuppliers(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	req.Normalize()
	suppliers, total, err := h.suppliers.List(c.Request.Context(), actor, req.Page, req.PageSize, req.Search)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, suppliers, total, req.Page, req.PageSize)
}

// GetSupplier handles GET /suppliers/:id
// @ID           suppliersGetSupplier
// @Summary      Get supplier
// @Tags         suppliers
// @Produce      json
// @Param        id path string true "ID of the supplier" format(uuid)
// @Success      200 {object} dto.Response{data=purchasingapp.SupplierResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /suppliers/{id} [get]
func (h *PurchasingHandler) GetSupplier(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	supplier, err := h.suppliers.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, supplier)
}

// UpdateSupplier handles PUT /suppliers/:id
// @ID           suppliersUpdateSupplier
// @Summary      Update supplier
// @Tags         suppliers
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the supplier" format(uuid)
// @Param        request body purchasingapp.SupplierRequest true "Request body"
// @Success      200 {object} dto.Response{data=purchasingapp.SupplierResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /suppliers/{id} [put]
func (h *PurchasingHandler) UpdateSupplier(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req purchasingapp.SupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}
	supplier, err := h.suppliers.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, supplier)
}

// DeactivateSupplier handles DELETE /suppliers/:id
// @ID           suppliersDeactivateSupplier
// @Summary      Deactivate supplier
// @Tags         suppliers
// @Produce      json
// @Param        id path string true "ID of the supplier" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /suppliers/{id} [delete]
func (h *PurchasingHandler) DeactivateSupplier(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.suppliers.Deactivate(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateOrder handles POST /purchase-orders
// @ID           purchaseOrdersCreateOrder
// @Summary      Create order
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        request body purchasingapp.CreateOrderRequest true "Request body"
// @Success      201 {object} dto.Response{data=purchasingapp.SupplierResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /purchase-orders [post]
func (h *PurchasingHandler) CreateOrder(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req purchasingapp.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.orders.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// ListOrders handles GET /purchase-orders
// @ID           purchaseOrdersListOrders
// @Summary      List orders
// @Tags         purchase-orders
// @Produce      json
// @Param        filter query purchasingapp.OrderListFilter false "Filters"
// @Success      200 {object} dto.Response{data=[]purchasingapp.SupplierResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /purchase-orders [get]
func (h *PurchasingHandler) ListOrders(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var f purchasingapp.OrderListFilter
	if !h.BindQuery(c, &f) {
		return
	}
	f.Page, f.PageSize = paging(f.Page, f.PageSize)
	orders, total, err := h.orders.List(c.Request.Context(), actor, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, f.Page, f.PageSize)
}

// GetOrder handles GET /purchase-orders/:id
// @ID           purchaseOrdersGetOrder
// @Summary      Get order
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "ID of the purchase order" format(uuid)
// @Success      200 {object} dto.Response{data=purchasingapp.SupplierResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /purchase-orders/{id} [get]
func (h *PurchasingHandler) GetOrder(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// UpdateOrder handles PUT /purchase-orders/:id
// @ID           purchaseOrdersUpdateOrder
// @Summary      Update order
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the purchase order" format(uuid)
// @Param        request body purchasingapp.UpdateOrderRequest true "Request body"
// @Success      200 {object} dto.Response{data=purchasingapp.SupplierResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /purchase-orders/{id} [put]
func (h *PurchasingHandler) UpdateOrder(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req purchasingapp.UpdateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.orders.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// SubmitOrder handles POST /purchase-orders/:id/submit
// @ID           purchaseOrdersSubmitOrder
// @Summary      Submit order
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the purchase order" format(uuid)
// @Success      200 {object} dto.Response{data=purchasingapp.OrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /purchase-orders/{id}/submit [post]
func (h *PurchasingHandler) SubmitOrder(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Submit(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// CancelOrder handles POST /purchase-orders/:id/cancel
// @ID           purchaseOrdersCancelOrder
// @Summary      Cancel order
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the purchase order" format(uuid)
// @Param        request body purchasingapp.CancelOrderRequest true "Request body"
// @Success      200 {object} dto.Response{data=purchasingapp.OrderResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /purchase-orders/{id}/cancel [post]
func (h *PurchasingHandler) CancelOrder(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req purchasingapp.CancelOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.orders.Cancel(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// DeleteOrder handles DELETE /purchase-orders/:id
// @ID           purchaseOrdersDeleteOrder
// @Summary      Delete order
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "ID of the purchase order" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /purchase-orders/{id} [delete]
func (h *PurchasingHandler) DeleteOrder(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.orders.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// DeliverOrder handles POST /purchase-orders/:id/deliver
// @ID           purchaseOrdersDeliverOrder
// @Summary      Deliver a purchase order
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the purchase order" format(uuid)
// @Param        request body purchasingapp.DeliverOrderRequest true "Request body"
// @Success      200 {object} dto.Response{data=purchasingapp.DeliveryResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /purchase-orders/{id}/deliver [post]
func (h *PurchasingHandler) DeliverOrder(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req purchasingapp.DeliverOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	delivery, err := h.orders.Deliver(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, delivery)
}
