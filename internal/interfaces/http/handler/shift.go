package handler

import (
	"context"

	shiftapp "github.com/coretrack/backend/internal/application/shift"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ShiftService is the cash shift API used by ShiftHandler
type ShiftService interface {
	Open(ctx context.Context, actor identity.Actor, req shiftapp.OpenShiftRequest) (*shiftapp.ShiftResponse, error)
	Current(ctx context.Context, actor identity.Actor, locationID string) (*shiftapp.ShiftResponse, error)
	Close(ctx context.Context, actor identity.Actor, id uuid.UUID, req shiftapp.CloseShiftRequest) (*shiftapp.ShiftResponse, error)
	Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*shiftapp.ShiftResponse, error)
	List(ctx context.Context, actor identity.Actor, f shiftapp.ListFilter) ([]shiftapp.ShiftResponse, int64, error)
}

// ShiftHandler serves /shifts
type ShiftHandler struct {
	BaseHandler
	service ShiftService
}

// NewShiftHandler creates a ShiftHandler
func NewShiftHandler(service ShiftService) *ShiftHandler {
	return &ShiftHandler{service: service}
}

// Open handles POST /shifts
// @ID           shiftsOpen
// @Summary      Open shift
// @Tags         shifts
// @Accept       json
// @Produce      json
// @Param        request body shiftapp.OpenShiftRequest true "Request body"
// @Success      201 {object} dto.Response{data=shiftapp.ShiftResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /shifts [post]
func (h *ShiftHandler) Open(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req shiftapp.OpenShiftRequest
	if !h.BindJSON(c, &req) {
		return
	}
	shift, err := h.service.Open(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, shift)
}

// Current handles GET /shifts/current?location_id=
// @ID           shiftsCurrent
// @Summary      Current open shift
// @Tags         shifts
// @Produce      json
// @Param        location_id query string false "location id"
// @Success      200 {object} dto.Response{data=shiftapp.ShiftResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /shifts/current [get]
func (h *ShiftHandler) Current(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	shift, err := h.service.Current(c.Request.Context(), actor, c.Query("location_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shift)
}

// Close handles POST /shifts/:id/close
// @ID           shiftsClose
// @Summary      Close shift
// @Tags         shifts
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the shift" format(uuid)
// @Param        request body shiftapp.CloseShiftRequest true "Request body"
// @Success      200 {object} dto.Response{data=shiftapp.ShiftResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /shifts/{id}/close [post]
func (h *ShiftHandler) Close(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req shiftapp.CloseShiftRequest
	if !h.BindJSON(c, &req) {
		return
	}
	shift, err := h.service.Close(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shift)
}

// Get handles GET /shifts/:id
// @ID           shiftsGet
// @Summary      Get shift
// @Tags         shifts
// @Produce      json
// @Param        id path string true "ID of the shift" format(uuid)
// @Success      200 {object} dto.Response{data=shiftapp.ShiftResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /shifts/{id} [get]
func (h *ShiftHandler) Get(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	shift, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shift)
}

// List handles GET /shifts
// @ID           shiftsList
// @Summary      List shifts
// @Tags         shifts
// @Produce      json
// @Param        filter query shiftapp.ListFilter false "Filters"
// @Success      200 {object} dto.Response{data=[]shiftapp.ShiftResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /shifts [get]
func (h *ShiftHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var f shiftapp.ListFilter
	if !h.BindQuery(c, &f) {
		return
	}
	f.Page, f.PageSize = paging(f.Page, f.PageSize)
	shifts, total, err := h.service.List(c.Request.Context(), actor, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, shifts, total, f.Page, f.PageSize)
}
