package handler

import (
	"context"

	locationapp "github.com/coretrack/backend/internal/application/location"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BranchService is the branch API used by BranchHandler
type BranchService interface {
	Create(ctx context.Context, actor identity.Actor, req locationapp.CreateBranchRequest) (*locationapp.BranchResponse, error)
	List(ctx context.Context, actor identity.Actor, includeInactive bool) ([]locationapp.BranchResponse, error)
	Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*locationapp.BranchResponse, error)
	Update(ctx context.Context, actor identity.Actor, id uuid.UUID, req locationapp.UpdateBranchRequest) (*locationapp.BranchResponse, error)
	Deactivate(ctx context.Context, actor identity.Actor, id uuid.UUID) error
	Reactivate(ctx context.Context, actor identity.Actor, id uuid.UUID) (*locationapp.BranchResponse, error)
}

// BranchHandler serves /branches
type BranchHandler struct {
	BaseHandler
	service BranchService
}

// NewBranchHandler creates a BranchHandler
func NewBranchHandler(service BranchService) *BranchHandler {
	return &BranchHandler{service: service}
}

// Create handles POST /branches
// @ID           branchesCreate
// @Summary      Create branch
// @Tags         branches
// @Accept       json
// @Produce      json
// @Param        request body locationapp.CreateBranchRequest true "Request body"
// @Success      201 {object} dto.Response{data=locationapp.BranchResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /branches [post]
func (h *BranchHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req locationapp.CreateBranchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	branch, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, branch)
}

// List handles GET /branches?include_inactive=true
// @ID           branchesList
// @Summary      List branches
// @Tags         branches
// @Produce      json
// @Param        include_inactive query string false "include inactive"
// @Success      200 {object} dto.Response{data=[]locationapp.BranchResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /branches [get]
func (h *BranchHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	branches, err := h.service.List(c.Request.Context(), actor, c.Query("include_inactive") == "true")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, branches)
}

// Get handles GET /branches/:id
// @ID           branchesGet
// @Summary      Get branch
// @Tags         branches
// @Produce      json
// @Param        id path string true "ID of the branch" format(uuid)
// @Success      200 {object} dto.Response{data=locationapp.BranchResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /branches/{id} [get]
func (h *BranchHandler) Get(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	branch, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, branch)
}

// Update handles PUT /branches/:id
// @ID           branchesUpdate
// @Summary      Update branch
// @Tags         branches
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the branch" format(uuid)
// @Param        request body locationapp.UpdateBranchRequest true "Request body"
// @Success      200 {object} dto.Response{data=locationapp.BranchResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /branches/{id} [put]
func (h *BranchHandler) Update(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req locationapp.UpdateBranchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	branch, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, branch)
}

// Deactivate handles POST /branches/:id/deactivate
// @ID           branchesDeactivate
// @Summary      Deactivate branch
// @Tags         branches
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the branch" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /branches/{id}/deactivate [post]
func (h *BranchHandler) Deactivate(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Reactivate handles POST /branches/:id/reactivate
// @ID           branchesReactivate
// @Summary      Reactivate branch
// @Tags         branches
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the branch" format(uuid)
// @Success      200 {object} dto.Response{data=locationapp.BranchResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /branches/{id}/reactivate [post]
func (h *BranchHandler) Reactivate(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	branch, err := h.service.Reactivate(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, branch)
}
