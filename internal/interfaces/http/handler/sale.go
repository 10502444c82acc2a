package handler

import (
	"context"
	"fmt"
	"net/http"

	posapp "github.com/coretrack/backend/internal/application/pos"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SaleService is the POS API used by SaleHandler
type SaleService interface {
	Create(ctx context.Context, actor identity.Actor, req posapp.CreateSaleRequest) (*posapp.SaleResponse, error)
	RequestPayment(ctx context.Context, actor identity.Actor, id uuid.UUID) (*posapp.SaleResponse, error)
	Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*posapp.SaleResponse, error)
	List(ctx context.Context, actor identity.Actor, f posapp.SaleListFilter) ([]posapp.SaleResponse, int64, error)
	Void(ctx context.Context, actor identity.Actor, id uuid.UUID, req posapp.VoidSaleRequest) (*posapp.SaleResponse, error)
	Receipt(ctx context.Context, actor identity.Actor, id uuid.UUID, format posapp.ReceiptFormat) (*posapp.Receipt, error)
}

// SaleHandler serves /sales
type SaleHandler struct {
	BaseHandler
	service SaleService
}

// NewSaleHandler creates a SaleHandler
func NewSaleHandler(service SaleService) *SaleHandler {
	return &SaleHandler{service: service}
}

// Create handles POST /sales
// @ID           salesCreate
// @Summary      Create sale
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body posapp.CreateSaleRequest true "Request body"
// @Success      201 {object} dto.Response{data=posapp.SaleResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req posapp.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sale, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// List handles GET /sales
// @ID           salesList
// @Summary      List sales
// @Tags         sales
// @Produce      json
// @Param        filter query posapp.SaleListFilter false "Filters"
// @Success      200 {object} dto.Response{data=[]posapp.SaleResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var f posapp.SaleListFilter
	if !h.BindQuery(c, &f) {
		return
	}
	f.Page, f.PageSize = paging(f.Page, f.PageSize)
	sales, total, err := h.service.List(c.Request.Context(), actor, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, sales, total, f.Page, f.PageSize)
}

// Get handles GET /sales/:id
// @ID           salesGet
// @Summary      Get sale
// @Tags         sales
// @Produce      json
// @Param        id path string true "ID of the sale" format(uuid)
// @Success      200 {object} dto.Response{data=posapp.SaleResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /sales/{id} [get]
func (h *SaleHandler) Get(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	sale, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Void handles POST /sales/:id/void
// @ID           salesVoid
// @Summary      Void sale
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the sale" format(uuid)
// @Param        request body posapp.VoidSaleRequest true "Request body"
// @Success      200 {object} dto.Response{data=posapp.SaleResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /sales/{id}/void [post]
func (h *SaleHandler) Void(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req posapp.VoidSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sale, err := h.service.Void(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// RequestPayment handles POST /sales/:id/payment and opens a provider invoice
// @ID           salesRequestPayment
// @Summary      Request an online payment for a sale
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the sale" format(uuid)
// @Success      200 {object} dto.Response{data=posapp.SaleResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /sales/{id}/payment [post]
func (h *SaleHandler) RequestPayment(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	sale, err := h.service.RequestPayment(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Receipt handles GET /sales/:id/receipt?format=html|pdf
// @ID           salesReceipt
// @Summary      Sale receipt
// @Tags         sales
// @Produce      html,pdf
// @Param        id path string true "ID of the sale" format(uuid)
// @Param        format query string false "format"
// @Success      200 {file} binary
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /sales/{id}/receipt [get]
func (h *SaleHandler) Receipt(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	format := posapp.ReceiptFormat(c.DefaultQuery("format", string(posapp.ReceiptHTML)))
	if format != posapp.ReceiptHTML && format != posapp.ReceiptPDF {
		h.BadRequest(c, "format must be html or pdf")
		return
	}
	receipt, err := h.service.Receipt(c.Request.Context(), actor, id, format)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	disposition := "inline"
	if format == posapp.ReceiptPDF {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, receipt.FileName))
	c.Data(http.StatusOK, receipt.ContentType, receipt.Body)
}
