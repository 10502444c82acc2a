package handler

import (
	"context"
	"net/http"
	"testing"

	posapp "github.com/coretrack/backend/internal/application/pos"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSaleService struct {
	sale      *posapp.SaleResponse
	err       error
	gotFormat posapp.ReceiptFormat
	gotVoid   posapp.VoidSaleRequest
}

func (m *mockSaleService) Create(context.Context, identity.Actor, posapp.CreateSaleRequest) (*posapp.SaleResponse, error) {
	return m.sale, m.err
}

func (m *mockSaleService) RequestPayment(context.Context, identity.Actor, uuid.UUID) (*posapp.SaleResponse, error) {
	return m.sale, m.err
}

func (m *mockSaleService) Get(context.Context, identity.Actor, uuid.UUID) (*posapp.SaleResponse, error) {
	return m.sale, m.err
}

func (m *mockSaleService) List(context.Context, identity.Actor, posapp.SaleListFilter) ([]posapp.SaleResponse, int64, error) {
	return nil, 0, m.err
}

func (m *mockSaleService) Void(_ context.Context, _ identity.Actor, _ uuid.UUID, req posapp.VoidSaleRequest) (*posapp.SaleResponse, error) {
	m.gotVoid = req
	return m.sale, m.err
}

func (m *mockSaleService) Receipt(_ context.Context, _ identity.Actor, id uuid.UUID, format posapp.ReceiptFormat) (*posapp.Receipt, error) {
	m.gotFormat = format
	if m.err != nil {
		return nil, m.err
	}
	if format == posapp.ReceiptPDF {
		return &posapp.Receipt{ContentType: "application/pdf", FileName: "receipt-0001.pdf", Body: []byte("%PDF-1.4")}, nil
	}
	return &posapp.Receipt{ContentType: "text/html; charset=utf-8", FileName: "receipt-0001.html", Body: []byte("<html></html>")}, nil
}

func saleRouter(svc SaleService, actor *identity.Actor) http.Handler {
	h := NewSaleHandler(svc)
	r := newEngine(actor)
	r.GET("/sales", h.List)
	r.POST("/sales/:id/void", h.Void)
	r.GET("/sales/:id/receipt", h.Receipt)
	return r
}

func TestSaleHandler_Receipt(t *testing.T) {
	actor := testActor(identity.RoleStaff)
	path := "/sales/" + uuid.NewString() + "/receipt"

	t.Run("html by default", func(t *testing.T) {
		svc := &mockSaleService{}
		w := doJSON(saleRouter(svc, &actor), http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, posapp.ReceiptHTML, svc.gotFormat)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Equal(t, `inline; filename="receipt-0001.html"`, w.Header().Get("Content-Disposition"))
	})

	t.Run("pdf attachment", func(t *testing.T) {
		w := doJSON(saleRouter(&mockSaleService{}, &actor), http.MethodGet, path+"?format=pdf", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="receipt-0001.pdf"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "%PDF-1.4", w.Body.String())
	})

	t.Run("unknown format", func(t *testing.T) {
		w := doJSON(saleRouter(&mockSaleService{}, &actor), http.MethodGet, path+"?format=docx", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("renderer disabled", func(t *testing.T) {
		svc := &mockSaleService{err: shared.NewDomainError("PDF_DISABLED", "PDF rendering is not available")}
		w := doJSON(saleRouter(svc, &actor), http.MethodGet, path+"?format=pdf", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestSaleHandler_Void(t *testing.T) {
	actor := testActor(identity.RoleManager)
	svc := &mockSaleService{sale: &posapp.SaleResponse{ID: uuid.New()}}
	w := doJSON(saleRouter(svc, &actor), http.MethodPost, "/sales/"+uuid.NewString()+"/void",
		map[string]string{"reason": "customer left"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "customer left", svc.gotVoid.Reason)
}

func TestSaleHandler_ListRejectsBadStatus(t *testing.T) {
	actor := testActor(identity.RoleStaff)
	w := doJSON(saleRouter(&mockSaleService{}, &actor), http.MethodGet, "/sales?status=refunded", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
