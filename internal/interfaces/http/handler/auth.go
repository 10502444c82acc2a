package handler

import (
	"context"

	identityapp "github.com/coretrack/backend/internal/application/identity"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/interfaces/http/dto"
	"github.com/coretrack/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthService is the sign-up and session API used by AuthHandler
type AuthService interface {
	SignUp(ctx context.Context, in identityapp.SignUpInput) (*identityapp.SessionResponse, error)
	Login(ctx context.Context, in identityapp.LoginInput) (*identityapp.SessionResponse, error)
	Refresh(ctx context.Context, in identityapp.RefreshInput) (*identityapp.SessionResponse, error)
	Logout(ctx context.Context, in identityapp.LogoutInput) error
	Me(ctx context.Context, actor identity.Actor) (*identityapp.MeResponse, error)
}

// UserService is the team management API used by AuthHandler
type UserService interface {
	Invite(ctx context.Context, actor identity.Actor, in identityapp.InviteUserInput) (*identityapp.UserResponse, error)
	List(ctx context.Context, actor identity.Actor, filter shared.Filter) (*shared.Paginated[identityapp.UserResponse], error)
	Update(ctx context.Context, actor identity.Actor, id uuid.UUID, in identityapp.UpdateUserInput) (*identityapp.UserResponse, error)
	Deactivate(ctx context.Context, actor identity.Actor, id uuid.UUID) error
}

// AuthHandler serves /auth and /users
type AuthHandler struct {
	BaseHandler
	auth  AuthService
	users UserService
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(auth AuthService, users UserService) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

// SignUp handles POST /auth/signup
// @ID           authSignUp
// @Summary      Sign up a new business
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.SignUpInput true "Request body"
// @Success      201 {object} dto.Response{data=identityapp.SessionResponse}
// @Failure      400 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /auth/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req identityapp.SignUpInput
	if !h.BindJSON(c, &req) {
		return
	}
	session, err := h.auth.SignUp(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, session)
}

// Login handles POST /auth/login
// @ID           authLogin
// @Summary      Log in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.LoginInput true "Request body"
// @Success      200 {object} dto.Response{data=identityapp.SessionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req identityapp.LoginInput
	if !h.BindJSON(c, &req) {
		return
	}
	session, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// Refresh handles POST /auth/refresh
// @ID           authRefresh
// @Summary      Exchange a refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.RefreshInput true "Request body"
// @Success      200 {object} dto.Response{data=identityapp.SessionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req identityapp.RefreshInput
	if !h.BindJSON(c, &req) {
		return
	}
	session, err := h.auth.Refresh(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// Logout handles POST /auth/logout. The refresh token in the body is optional.
// @ID           authLogout
// @Summary      Log out and revoke tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.LogoutInput true "Request body"
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req identityapp.LogoutInput
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	req.AccessClaims = middleware.GetClaims(c)
	if err := h.auth.Logout(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Me handles GET /auth/me
// @ID           authMe
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=identityapp.MeResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	me, err := h.auth.Me(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, me)
}

// InviteUser handles POST /users
// @ID           usersInviteUser
// @Summary      Invite user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body identityapp.InviteUserInput true "Request body"
// @Success      201 {object} dto.Response{data=identityapp.UserResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /users [post]
func (h *AuthHandler) InviteUser(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req identityapp.InviteUserInput
	if !h.BindJSON(c, &req) {
		return
	}
	user, err := h.users.Invite(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// ListUsers handles GET /users
// @ID           usersListUsers
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        filter query dto.ListRequest false "Filters"
// @Success      200 {object} dto.Response{data=shared.Paginated[identityapp.UserResponse]}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /users [get]
func (h *AuthHandler) ListUsers(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	req.Normalize()
	page, err := h.users.List(c.Request.Context(), actor, shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		Search:   req.Search,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// UpdateUser handles PATCH /users/:id
// @ID           usersUpdateUser
// @Summary      Update user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the user" format(uuid)
// @Param        request body identityapp.UpdateUserInput true "Request body"
// @Success      200 {object} dto.Response{data=identityapp.UserResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /users/{id} [patch]
func (h *AuthHandler) UpdateUser(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req identityapp.UpdateUserInput
	if !h.BindJSON(c, &req) {
		return
	}
	user, err := h.users.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// DeactivateUser handles DELETE /users/:id
// @ID           usersDeactivateUser
// @Summary      Deactivate user
// @Tags         users
// @Produce      json
// @Param        id path string true "ID of the user" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /users/{id} [delete]
func (h *AuthHandler) DeactivateUser(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.users.Deactivate(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
