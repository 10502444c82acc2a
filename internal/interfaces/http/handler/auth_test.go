package handler

import (
	"context"
	"net/http"
	"testing"

	identityapp "github.com/coretrack/backend/internal/application/identity"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/auth"
	"github.com/coretrack/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAuthService struct {
	err       error
	gotLogout identityapp.LogoutInput
}

func (m *mockAuthService) SignUp(context.Context, identityapp.SignUpInput) (*identityapp.SessionResponse, error) {
	return &identityapp.SessionResponse{}, m.err
}

func (m *mockAuthService) Login(context.Context, identityapp.LoginInput) (*identityapp.SessionResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &identityapp.SessionResponse{}, nil
}

func (m *mockAuthService) Refresh(context.Context, identityapp.RefreshInput) (*identityapp.SessionResponse, error) {
	return &identityapp.SessionResponse{}, m.err
}

func (m *mockAuthService) Logout(_ context.Context, in identityapp.LogoutInput) error {
	m.gotLogout = in
	return m.err
}

func (m *mockAuthService) Me(context.Context, identity.Actor) (*identityapp.MeResponse, error) {
	return &identityapp.MeResponse{}, m.err
}

type mockUserService struct {
	gotFilter shared.Filter
}

func (m *mockUserService) Invite(context.Context, identity.Actor, identityapp.InviteUserInput) (*identityapp.UserResponse, error) {
	return &identityapp.UserResponse{}, nil
}

func (m *mockUserService) List(_ context.Context, _ identity.Actor, f shared.Filter) (*shared.Paginated[identityapp.UserResponse], error) {
	m.gotFilter = f
	page := shared.NewPaginated([]identityapp.UserResponse{{}}, 1, f.Page, f.PageSize)
	return &page, nil
}

func (m *mockUserService) Update(context.Context, identity.Actor, uuid.UUID, identityapp.UpdateUserInput) (*identityapp.UserResponse, error) {
	return &identityapp.UserResponse{}, nil
}

func (m *mockUserService) Deactivate(context.Context, identity.Actor, uuid.UUID) error {
	return nil
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		err    error
		status int
	}{
		{"ok", map[string]string{"email": "owner@bakery.test", "password": "s3cret-pass"}, nil, http.StatusOK},
		{"bad email", map[string]string{"email": "owner", "password": "s3cret-pass"}, nil, http.StatusBadRequest},
		{"wrong password", map[string]string{"email": "owner@bakery.test", "password": "nope"}, identityapp.ErrInvalidCredentials, http.StatusUnauthorized},
		{"suspended", map[string]string{"email": "owner@bakery.test", "password": "nope"}, identityapp.ErrTenantSuspended, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthService{err: tt.err}, &mockUserService{})
			r := gin.New()
			r.POST("/auth/login", h.Login)
			w := doJSON(r, http.MethodPost, "/auth/login", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestAuthHandler_SignUpCreated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, &mockUserService{})
	r := gin.New()
	r.POST("/auth/signup", h.SignUp)

	w := doJSON(r, http.MethodPost, "/auth/signup", map[string]string{
		"tenant_name": "Corner Bakery",
		"owner_name":  "Sam",
		"email":       "sam@bakery.test",
		"password":    "long-enough",
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestAuthHandler_LogoutPassesClaims(t *testing.T) {
	svc := &mockAuthService{}
	h := NewAuthHandler(svc, &mockUserService{})
	claims := &auth.Claims{TenantID: uuid.NewString(), UserID: uuid.NewString()}

	r := gin.New()
	r.POST("/auth/logout", func(c *gin.Context) {
		c.Set(middleware.ClaimsKey, claims)
		c.Next()
	}, h.Logout)

	w := doJSON(r, http.MethodPost, "/auth/logout", map[string]string{"refresh_token": "rt"})
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Same(t, claims, svc.gotLogout.AccessClaims)
	assert.Equal(t, "rt", svc.gotLogout.RefreshToken)

	w = doJSON(r, http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAuthHandler_ListUsers(t *testing.T) {
	actor := testActor(identity.RoleOwner)
	users := &mockUserService{}
	h := NewAuthHandler(&mockAuthService{}, users)
	r := newEngine(&actor)
	r.GET("/users", h.ListUsers)

	w := doJSON(r, http.MethodGet, "/users?search=sam&page_size=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sam", users.gotFilter.Search)
	assert.Equal(t, 1, users.gotFilter.Page)
	assert.Equal(t, 10, users.gotFilter.PageSize)
	assert.Equal(t, int64(1), decode(t, w).Meta.Total)
}
