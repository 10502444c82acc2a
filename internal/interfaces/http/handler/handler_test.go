package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/interfaces/http/dto"
	"github.com/coretrack/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
	m.Run()
}

func testActor(role identity.Role) identity.Actor {
	return identity.Actor{
		TenantID:    uuid.New(),
		UserID:      uuid.New(),
		Role:        role,
		LocationIDs: []shared.LocationID{shared.NewLocationID(uuid.New())},
	}
}

// newEngine returns an engine whose requests carry actor, unless it is nil
func newEngine(actor *identity.Actor) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if actor != nil {
			c.Set(middleware.ActorKey, *actor)
		}
		c.Next()
	})
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"wrapped domain code", shared.WrapDomainError("INSUFFICIENT_STOCK", "Not enough flour", errors.New("qty")), http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"shift open", shared.NewDomainError("SHIFT_ALREADY_OPEN", "A shift is already open"), http.StatusConflict, "SHIFT_ALREADY_OPEN"},
		{"plain error", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			r := gin.New()
			r.GET("/", func(c *gin.Context) { h.HandleError(c, tt.err) })

			w := doJSON(r, http.MethodGet, "/", nil)
			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "connection reset")
			}
		})
	}
}

func TestBaseHandler_BindJSON(t *testing.T) {
	type payload struct {
		Name       string `json:"name" binding:"required"`
		LocationID string `json:"location_id" binding:"required,location_id"`
	}
	h := &BaseHandler{}
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var p payload
		if !h.BindJSON(c, &p) {
			return
		}
		h.Success(c, p)
	})

	t.Run("malformed body", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/", "{")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, decode(t, w).Error.Code)
	})

	t.Run("field details", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/", map[string]string{"location_id": "main"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		fields := make([]string, 0, len(resp.Error.Details))
		for _, d := range resp.Error.Details {
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"name", "location_id"}, fields)
	})

	t.Run("valid", func(t *testing.T) {
		loc := shared.NewLocationID(uuid.New()).String()
		w := doJSON(r, http.MethodPost, "/", map[string]string{"name": "Flour", "location_id": loc})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestBaseHandler_PathIDAndActor(t *testing.T) {
	h := &BaseHandler{}
	r := newEngine(nil)
	r.GET("/items/:id", func(c *gin.Context) {
		if _, ok := h.PathID(c, "id"); !ok {
			return
		}
		if _, ok := h.Actor(c); !ok {
			return
		}
		h.NoContent(c)
	})

	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/items/abc", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodGet, "/items/"+uuid.NewString(), nil).Code)
}

func TestPaging(t *testing.T) {
	page, size := paging(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	page, size = paging(3, 50)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, size)
}
