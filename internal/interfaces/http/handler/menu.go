package handler

import (
	"context"
	"io"
	"net/http"

	menuapp "github.com/coretrack/backend/internal/application/menu"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MenuService is the menu API used by MenuHandler
type MenuService interface {
	ListCategories(ctx context.Context, actor identity.Actor) ([]menuapp.CategoryResponse, error)
	CreateCategory(ctx context.Context, actor identity.Actor, req menuapp.CategoryRequest) (*menuapp.CategoryResponse, error)
	UpdateCategory(ctx context.Context, actor identity.Actor, id uuid.UUID, req menuapp.CategoryRequest) (*menuapp.CategoryResponse, error)
	DeleteCategory(ctx context.Context, actor identity.Actor, id uuid.UUID) error
	Create(ctx context.Context, actor identity.Actor, req menuapp.CreateItemRequest) (*menuapp.ItemResponse, error)
	Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*menuapp.ItemResponse, error)
	List(ctx context.Context, actor identity.Actor, f menuapp.ItemListFilter) ([]menuapp.ItemResponse, int64, error)
	Update(ctx context.Context, actor identity.Actor, id uuid.UUID, req menuapp.UpdateItemRequest) (*menuapp.ItemResponse, error)
	Delete(ctx context.Context, actor identity.Actor, id uuid.UUID) error
	SetAvailability(ctx context.Context, actor identity.Actor, id uuid.UUID, available bool) (*menuapp.ItemResponse, error)
	Costing(ctx context.Context, actor identity.Actor, id uuid.UUID) (*menuapp.CostingResponse, error)
	UploadImage(ctx context.Context, actor identity.Actor, id uuid.UUID, upload menuapp.ImageUpload, body io.Reader) (*menuapp.ItemResponse, error)
	ImageUploadURL(ctx context.Context, actor identity.Actor, id uuid.UUID, contentType string) (*menuapp.UploadURLResponse, error)
	ConfirmImage(ctx context.Context, actor identity.Actor, id uuid.UUID, key string) (*menuapp.ItemResponse, error)
}

// MenuHandler serves /menu
type MenuHandler struct {
	BaseHandler
	service MenuService
}

// NewMenuHandler creates a MenuHandler
func NewMenuHandler(service MenuService) *MenuHandler {
	return &MenuHandler{service: service}
}

type uploadURLRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

// ListCategories handles GET /menu/categories
// @ID           menuCategoriesListCategories
// @Summary      List categories
// @Tags         menu-categories
// @Produce      json
// @Success      200 {object} dto.Response{data=[]menuapp.CategoryResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /menu/categories [get]
func (h *MenuHandler) ListCategories(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	categories, err := h.service.ListCategories(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, categories)
}

// CreateCategory handles POST /menu/categories
// @ID           menuCategoriesCreateCategory
// @Summary      Create category
// @Tags         menu-categories
// @Accept       json
// @Produce      json
// @Param        request body menuapp.CategoryRequest true "Request body"
// @Success      201 {object} dto.Response{data=menuapp.CategoryResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /menu/categories [post]
func (h *MenuHandler) CreateCategory(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req menuapp.CategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	category, err := h.service.CreateCategory(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, category)
}

// UpdateCategory handles PUT /menu/categories/:id
// @ID           menuCategoriesUpdateCategory
// @Summary      Update category
// @Tags         menu-categories
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the menu category" format(uuid)
// @Param        request body menuapp.CategoryRequest true "Request body"
// @Success      200 {object} dto.Response{data=menuapp.CategoryResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /menu/categories/{id} [put]
func (h *MenuHandler) UpdateCategory(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req menuapp.CategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	category, err := h.service.UpdateCategory(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, category)
}

// DeleteCategory handles DELETE /menu/categories/:id
// @ID           menuCategoriesDeleteCategory
// @Summary      Delete category
// @Tags         menu-categories
// @Produce      json
// @Param        id path string true "ID of the menu category" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /menu/categories/{id} [delete]
func (h *MenuHandler) DeleteCategory(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteCategory(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Create handles POST /menu/items
// @ID           menuItemsCreate
// @Summary      Create menu item
// @Tags         menu-items
// @Accept       json
// @Produce      json
// @Param        request body menuapp.CreateItemRequest true "Request body"
// @Success      201 {object} dto.Response{data=menuapp.ItemResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /menu/items [post]
func (h *MenuHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req menuapp.CreateItemRequest
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

// List handles GET /menu/items
// @ID           menuItemsList
// @Summary      List menu items
// @Tags         menu-items
// @Produce      json
// @Param        filter query menuapp.ItemListFilter false "Filters"
// @Success      200 {object} dto.Response{data=[]menuapp.ItemResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /menu/items [get]
func (h *MenuHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var f menuapp.ItemListFilter
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

// Get handles GET /menu/items/:id
// @ID           menuItemsGet
// @Summary      Get menu item
// @Tags         menu-items
// @Produce      json
// @Param        id path string true "ID of the menu item" format(uuid)
// @Success      200 {object} dto.Response{data=menuapp.ItemResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /menu/items/{id} [get]
func (h *MenuHandler) Get(c *gin.Context) {
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

// Update handles PUT /menu/items/:id
// @ID           menuItemsUpdate
// @Summary      Update menu item
// @Tags         menu-items
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the menu item" format(uuid)
// @Param        request body menuapp.UpdateItemRequest true "Request body"
// @Success      200 {object} dto.Response{data=menuapp.ItemResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /menu/items/{id} [put]
func (h *MenuHandler) Update(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req menuapp.UpdateItemRequest
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

// Delete handles DELETE /menu/items/:id
// @ID           menuItemsDelete
// @Summary      Delete menu item
// @Tags         menu-items
// @Produce      json
// @Param        id path string true "ID of the menu item" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /menu/items/{id} [delete]
func (h *MenuHandler) Delete(c *gin.Context) {
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

// SetAvailability handles PATCH /menu/items/:id/availability
// @ID           menuItemsSetAvailability
// @Summary      Set menu item availability
// @Tags         menu-items
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the menu item" format(uuid)
// @Param        request body menuapp.AvailabilityRequest true "Request body"
// @Success      200 {object} dto.Response{data=menuapp.ItemResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /menu/items/{id}/availability [patch]
func (h *MenuHandler) SetAvailability(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req menuapp.AvailabilityRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.service.SetAvailability(c.Request.Context(), actor, id, req.Available)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Costing handles GET /menu/items/:id/costing
// @ID           menuItemsCosting
// @Summary      Food cost and margin of a menu item
// @Tags         menu-items
// @Produce      json
// @Param        id path string true "ID of the menu item" format(uuid)
// @Success      200 {object} dto.Response{data=menuapp.CostingResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /menu/items/{id}/costing [get]
func (h *MenuHandler) Costing(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	costing, err := h.service.Costing(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, costing)
}

// UploadImage handles POST /menu/items/:id/image as multipart form field "image"
// @ID           menuItemsUploadImage
// @Summary      Upload a menu item image
// @Tags         menu-items
// @Accept       mpfd
// @Produce      json
// @Param        id path string true "ID of the menu item" format(uuid)
// @Param        image formData file true "Image file"
// @Success      200 {object} dto.Response{data=menuapp.ItemResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /menu/items/{id}/image [post]
func (h *MenuHandler) UploadImage(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	header, err := c.FormFile("image")
	if err != nil {
		h.BadRequest(c, "Missing image file")
		return
	}
	if header.Size > menuapp.MaxImageSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge, "Image exceeds the size limit")
		return
	}
	file, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer file.Close()

	item, err := h.service.UploadImage(c.Request.Context(), actor, id, menuapp.ImageUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// ImageUploadURL handles POST /menu/items/:id/image/upload-url
// @ID           menuItemsImageUploadURL
// @Summary      Presign a menu item image upload
// @Tags         menu-items
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the menu item" format(uuid)
// @Param        request body uploadURLRequest true "Request body"
// @Success      200 {object} dto.Response{data=menuapp.UploadURLResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /menu/items/{id}/image/upload-url [post]
func (h *MenuHandler) ImageUploadURL(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req uploadURLRequest
	if !h.BindJSON(c, &req) {
		return
	}
	upload, err := h.service.ImageUploadURL(c.Request.Context(), actor, id, req.ContentType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, upload)
}

// ConfirmImage handles POST /menu/items/:id/image/confirm
// @ID           menuItemsConfirmImage
// @Summary      Confirm a presigned image upload
// @Tags         menu-items
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the menu item" format(uuid)
// @Param        request body menuapp.ConfirmImageRequest true "Request body"
// @Success      200 {object} dto.Response{data=menuapp.ItemResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /menu/items/{id}/image/confirm [post]
func (h *MenuHandler) ConfirmImage(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req menuapp.ConfirmImageRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.service.ConfirmImage(c.Request.Context(), actor, id, req.Key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}
