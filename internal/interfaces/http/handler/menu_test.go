package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	menuapp "github.com/coretrack/backend/internal/application/menu"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockMenuService embeds the interface so tests only stub what they call
type mockMenuService struct {
	MenuService
	err          error
	gotUpload    menuapp.ImageUpload
	gotBody      []byte
	gotAvailable *bool
	gotKey       string
}

func (m *mockMenuService) UploadImage(_ context.Context, _ identity.Actor, id uuid.UUID, upload menuapp.ImageUpload, body io.Reader) (*menuapp.ItemResponse, error) {
	m.gotUpload = upload
	m.gotBody, _ = io.ReadAll(body)
	if m.err != nil {
		return nil, m.err
	}
	return &menuapp.ItemResponse{ID: id}, nil
}

func (m *mockMenuService) SetAvailability(_ context.Context, _ identity.Actor, id uuid.UUID, available bool) (*menuapp.ItemResponse, error) {
	m.gotAvailable = &available
	return &menuapp.ItemResponse{ID: id}, m.err
}

func (m *mockMenuService) ConfirmImage(_ context.Context, _ identity.Actor, id uuid.UUID, key string) (*menuapp.ItemResponse, error) {
	m.gotKey = key
	return &menuapp.ItemResponse{ID: id}, m.err
}

func menuRouter(svc MenuService, actor *identity.Actor) http.Handler {
	h := NewMenuHandler(svc)
	r := newEngine(actor)
	r.POST("/menu/items/:id/image", h.UploadImage)
	r.POST("/menu/items/:id/image/confirm", h.ConfirmImage)
	r.PATCH("/menu/items/:id/availability", h.SetAvailability)
	return r
}

func imageRequest(t *testing.T, path, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="latte.png"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestMenuHandler_UploadImage(t *testing.T) {
	actor := testActor(identity.RoleManager)
	path := "/menu/items/" + uuid.NewString() + "/image"

	t.Run("stored", func(t *testing.T) {
		svc := &mockMenuService{}
		w := httptest.NewRecorder()
		menuRouter(svc, &actor).ServeHTTP(w, imageRequest(t, path, "image/png", []byte("png-bytes")))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "latte.png", svc.gotUpload.FileName)
		assert.Equal(t, "image/png", svc.gotUpload.ContentType)
		assert.Equal(t, int64(9), svc.gotUpload.Size)
		assert.Equal(t, "png-bytes", string(svc.gotBody))
	})

	t.Run("storage disabled", func(t *testing.T) {
		svc := &mockMenuService{err: shared.NewDomainError("STORAGE_DISABLED", "Image storage is not configured")}
		w := httptest.NewRecorder()
		menuRouter(svc, &actor).ServeHTTP(w, imageRequest(t, path, "image/png", []byte("png")))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		w := doJSON(menuRouter(&mockMenuService{}, &actor), http.MethodPost, path, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMenuHandler_AvailabilityAndConfirm(t *testing.T) {
	actor := testActor(identity.RoleStaff)
	svc := &mockMenuService{}
	r := menuRouter(svc, &actor)
	id := uuid.NewString()

	w := doJSON(r, http.MethodPatch, "/menu/items/"+id+"/availability", map[string]bool{"available": false})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.gotAvailable)
	assert.False(t, *svc.gotAvailable)

	w = doJSON(r, http.MethodPost, "/menu/items/"+id+"/image/confirm", map[string]string{"key": "menu/abc.png"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "menu/abc.png", svc.gotKey)

	w = doJSON(r, http.MethodPost, "/menu/items/"+id+"/image/confirm", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
