package handler

import (
	"context"

	billingapp "github.com/coretrack/backend/internal/application/billing"
	identityapp "github.com/coretrack/backend/internal/application/identity"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
)

// SubscriptionService is the tenant and plan API used by TenantHandler
type SubscriptionService interface {
	GetTenant(ctx context.Context, actor identity.Actor) (*identityapp.TenantResponse, error)
	UpdateSettings(ctx context.Context, actor identity.Actor, req billingapp.UpdateSettingsRequest) (*identityapp.TenantResponse, error)
	CurrentSubscription(ctx context.Context, actor identity.Actor) (*billingapp.SubscriptionResponse, error)
	StartCheckout(ctx context.Context, actor identity.Actor, req billingapp.CheckoutRequest) (*billingapp.CheckoutResponse, error)
}

// TenantHandler serves /tenant
type TenantHandler struct {
	BaseHandler
	service SubscriptionService
}

// NewTenantHandler creates a TenantHandler
func NewTenantHandler(service SubscriptionService) *TenantHandler {
	return &TenantHandler{service: service}
}

// Get handles GET /tenant
// @ID           tenantGet
// @Summary      Get tenant
// @Tags         tenant
// @Produce      json
// @Success      200 {object} dto.Response{data=identityapp.TenantResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /tenant [get]
func (h *TenantHandler) Get(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	tenant, err := h.service.GetTenant(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tenant)
}

// UpdateSettings handles PATCH /tenant
// @ID           tenantUpdateSettings
// @Summary      Update tenant settings
// @Tags         tenant
// @Accept       json
// @Produce      json
// @Param        request body billingapp.UpdateSettingsRequest true "Request body"
// @Success      200 {object} dto.Response{data=identityapp.TenantResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /tenant [patch]
func (h *TenantHandler) UpdateSettings(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req billingapp.UpdateSettingsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tenant, err := h.service.UpdateSettings(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tenant)
}

// Subscription handles GET /tenant/subscription
// @ID           tenantSubscription
// @Summary      Current subscription
// @Tags         tenant
// @Produce      json
// @Success      200 {object} dto.Response{data=billingapp.SubscriptionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /tenant/subscription [get]
func (h *TenantHandler) Subscription(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	sub, err := h.service.CurrentSubscription(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sub)
}

// Checkout handles POST /tenant/checkout
// @ID           tenantCheckout
// @Summary      Start a plan checkout
// @Tags         tenant
// @Accept       json
// @Produce      json
// @Param        request body billingapp.CheckoutRequest true "Request body"
// @Success      201 {object} dto.Response{data=billingapp.CheckoutResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /tenant/checkout [post]
func (h *TenantHandler) Checkout(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req billingapp.CheckoutRequest
	if !h.BindJSON(c, &req) {
		return
	}
	checkout, err := h.service.StartCheckout(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, checkout)
}
