package pos

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/inventory"
	"github.com/coretrack/backend/internal/domain/location"
	"github.com/coretrack/backend/internal/domain/menu"
	"github.com/coretrack/backend/internal/domain/payment"
	"github.com/coretrack/backend/internal/domain/pos"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/domain/shift"
	"github.com/coretrack/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRenderer struct {
	view ReceiptView
}

func (r *fakeRenderer) RenderHTML(_ context.Context, template string, data any) ([]byte, error) {
	if template != ReceiptTemplate {
		return nil, fmt.Errorf("unexpected template %q", template)
	}
	view := data.(ReceiptView)
	r.view = view
	return []byte("<html>" + view.Sale.Number + "</html>"), nil
}

func (r *fakeRenderer) RenderPDF(_ context.Context, html []byte) ([]byte, error) {
	return append([]byte("%PDF-"), html...), nil
}

type fixture struct {
	sales     *testutil.MockSaleOrderRepository
	shifts    *testutil.MockShiftRepository
	menu      *testutil.MockMenuItemRepository
	items     *testutil.MockInventoryItemRepository
	movements *testutil.MockMovementRepository
	branches  *testutil.MockBranchRepository
	tenants   *testutil.MockTenantRepository
	payments  *testutil.MockPaymentRepository
	invoices  *testutil.MockInvoiceIssuer
	renderer  *fakeRenderer
	events    *testutil.RecordingPublisher
	svc       *SaleService

	tenant  *identity.Tenant
	branch  *location.Branch
	cashier identity.Actor
	shift   *shift.Shift
	coffee  *menu.MenuItem
	beans   *inventory.InventoryItem
	milk    *inventory.InventoryItem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tenant, err := identity.NewTrialTenant("Kopi Kita", "owner@kopikita.example", 14)
	require.NoError(t, err)
	branch, err := location.NewBranch(tenant.ID, "Main", "MAIN")
	require.NoError(t, err)
	loc := branch.LocationID()

	f := &fixture{
		sales:     new(testutil.MockSaleOrderRepository),
		shifts:    new(testutil.MockShiftRepository),
		menu:      new(testutil.MockMenuItemRepository),
		items:     new(testutil.MockInventoryItemRepository),
		movements: new(testutil.MockMovementRepository),
		branches:  new(testutil.MockBranchRepository),
		tenants:   new(testutil.MockTenantRepository),
		payments:  new(testutil.MockPaymentRepository),
		invoices:  new(testutil.MockInvoiceIssuer),
		renderer:  &fakeRenderer{},
		events:    &testutil.RecordingPublisher{},
		tenant:    tenant,
		branch:    branch,
	}
	f.cashier = identity.Actor{TenantID: tenant.ID, UserID: uuid.New(), Role: identity.RoleStaff,
		LocationIDs: []shared.LocationID{loc}}

	f.shift, err = shift.Open(tenant.ID, loc, f.cashier.UserID, decimal.NewFromInt(100))
	require.NoError(t, err)
	f.shift.ClearDomainEvents()

	f.beans = stockedItem(t, tenant.ID, loc, "Beans", 100, decimal.NewFromFloat(0.5))
	f.milk = stockedItem(t, tenant.ID, loc, "Milk", 1000, decimal.NewFromFloat(0.01))
	f.coffee, err = menu.NewMenuItem(tenant.ID, loc, "Latte", decimal.NewFromInt(4))
	require.NoError(t, err)
	require.NoError(t, f.coffee.SetIngredients([]menu.Ingredient{
		{InventoryItemID: f.beans.ID, Quantity: decimal.NewFromInt(18)},
		{InventoryItemID: f.milk.ID, Quantity: decimal.NewFromInt(200)},
	}))

	f.tenants.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil).Maybe()
	f.branches.On("FindByLocationID", mock.Anything, tenant.ID, loc).Return(branch, nil).Maybe()
	f.menu.On("FindByIDs", mock.Anything, tenant.ID, mock.Anything).Return([]menu.MenuItem{*f.coffee}, nil).Maybe()
	f.items.On("FindByIDs", mock.Anything, tenant.ID, mock.Anything).
		Return([]inventory.InventoryItem{*f.beans, *f.milk}, nil).Maybe()
	f.items.On("Save", mock.Anything, mock.AnythingOfType("*inventory.InventoryItem")).Return(nil).Maybe()
	f.movements.On("Save", mock.Anything, mock.AnythingOfType("*inventory.StockMovement")).Return(nil).Maybe()

	f.svc = NewSaleService(shared.NoOpTransactionScope{}, Repositories{
		Sales:     f.sales,
		Shifts:    f.shifts,
		Menu:      f.menu,
		Items:     f.items,
		Movements: f.movements,
		Branches:  f.branches,
		Tenants:   f.tenants,
		Payments:  f.payments,
	}, f.invoices, f.renderer, f.events, zap.NewNop())
	return f
}

func stockedItem(t *testing.T, tenantID uuid.UUID, loc shared.LocationID, name string, qty int64, cost decimal.Decimal) *inventory.InventoryItem {
	t.Helper()
	item, err := inventory.NewInventoryItem(tenantID, loc, name, "g")
	require.NoError(t, err)
	_, err = item.Receive(decimal.NewFromInt(qty), cost, "seed")
	require.NoError(t, err)
	item.ClearDomainEvents()
	return item
}

func (f *fixture) expectOpenShift() {
	f.shifts.On("FindOpen", mock.Anything, f.tenant.ID, f.branch.LocationID(), f.cashier.UserID).Return(f.shift, nil)
	f.sales.On("NextNumber", mock.Anything, f.tenant.ID, f.branch.LocationID(), mock.Anything).Return("S-20261016-0001", nil)
}

func (f *fixture) request(qty int, method string) CreateSaleRequest {
	return CreateSaleRequest{
		LocationID:    f.branch.LocationID().String(),
		Lines:         []SaleLineRequest{{MenuItemID: f.coffee.ID, Quantity: qty}},
		Discount:      decimal.NewFromInt(1),
		TaxRate:       decimal.NewFromFloat(0.1),
		PaymentMethod: method,
	}
}

func TestSaleService_Create(t *testing.T) {
	f := newFixture(t)
	f.expectOpenShift()
	var savedItems []*inventory.InventoryItem
	f.items.ExpectedCalls = nil
	f.items.On("FindByIDs", mock.Anything, f.tenant.ID, mock.Anything).
		Return([]inventory.InventoryItem{*f.beans, *f.milk}, nil)
	f.items.On("Save", mock.Anything, mock.AnythingOfType("*inventory.InventoryItem")).
		Run(func(args mock.Arguments) { savedItems = append(savedItems, args.Get(1).(*inventory.InventoryItem)) }).
		Return(nil)
	f.shifts.On("Save", mock.Anything, f.shift).Return(nil)
	f.sales.On("Save", mock.Anything, mock.AnythingOfType("*pos.SaleOrder")).Return(nil)

	resp, err := f.svc.Create(context.Background(), f.cashier, f.request(2, "cash"))
	require.NoError(t, err)

	assert.Equal(t, "S-20261016-0001", resp.Number)
	assert.Equal(t, "8", resp.Subtotal.String())
	assert.Equal(t, "0.7", resp.Tax.String())
	assert.Equal(t, "7.7", resp.Total.String())
	assert.Equal(t, "paid", resp.PaymentStatus)

	require.Len(t, savedItems, 2)
	remaining := map[string]string{}
	for _, it := range savedItems {
		remaining[it.Name] = it.Quantity.String()
	}
	assert.Equal(t, map[string]string{"Beans": "64", "Milk": "600"}, remaining)
	f.movements.AssertNumberOfCalls(t, "Save", 2)

	assert.Equal(t, "7.7", f.shift.CashSales.String())
	assert.Equal(t, 1, f.shift.SalesCount)
	assert.Equal(t, []string{pos.EventTypeSaleCompleted}, f.events.Types())
}

func TestSaleService_Create_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("no open shift", func(t *testing.T) {
		f := newFixture(t)
		f.shifts.On("FindOpen", mock.Anything, f.tenant.ID, f.branch.LocationID(), f.cashier.UserID).Return(nil, shared.ErrNotFound)
		f.sales.On("NextNumber", mock.Anything, f.tenant.ID, f.branch.LocationID(), mock.Anything).Return("S-20261016-0001", nil)

		_, err := f.svc.Create(ctx, f.cashier, f.request(1, "cash"))
		assert.Equal(t, "NO_OPEN_SHIFT", shared.ErrorCode(err))
		f.sales.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		f := newFixture(t)
		f.expectOpenShift()

		_, err := f.svc.Create(ctx, f.cashier, f.request(6, "cash"))
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		f.sales.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.shifts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("unavailable menu item", func(t *testing.T) {
		f := newFixture(t)
		f.expectOpenShift()
		f.coffee.SetAvailability(false)
		f.menu.ExpectedCalls = nil
		f.menu.On("FindByIDs", mock.Anything, f.tenant.ID, mock.Anything).Return([]menu.MenuItem{*f.coffee}, nil)

		_, err := f.svc.Create(ctx, f.cashier, f.request(1, "cash"))
		assert.Equal(t, "MENU_ITEM_UNAVAILABLE", shared.ErrorCode(err))
	})

	t.Run("location outside the caller's assignment", func(t *testing.T) {
		f := newFixture(t)
		req := f.request(1, "cash")
		req.LocationID = shared.NewLocationID(uuid.New()).String()

		_, err := f.svc.Create(ctx, f.cashier, req)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestSaleService_Create_Xendit(t *testing.T) {
	f := newFixture(t)
	f.expectOpenShift()
	f.shifts.On("Save", mock.Anything, f.shift).Return(nil)
	f.sales.On("Save", mock.Anything, mock.AnythingOfType("*pos.SaleOrder")).Return(nil)
	f.invoices.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(req payment.InvoiceRequest) bool {
		return req.Amount.String() == "3.3" && req.PayerEmail == f.tenant.Email
	})).Return(&payment.Invoice{ID: "inv_123", URL: "https://checkout.xendit.example/inv_123"}, nil)
	f.payments.On("Save", mock.Anything, mock.MatchedBy(func(r *payment.Record) bool {
		return r.ExternalID == "inv_123" && r.Purpose == payment.PurposeSale
	})).Return(nil)

	resp, err := f.svc.Create(context.Background(), f.cashier, f.request(1, "xendit"))
	require.NoError(t, err)
	assert.Equal(t, "pending", resp.PaymentStatus)
	assert.Equal(t, "https://checkout.xendit.example/inv_123", resp.PaymentURL)
	assert.Equal(t, "3.3", f.shift.OtherSales.String())
	f.invoices.AssertExpectations(t)
	f.payments.AssertExpectations(t)
}

func TestSaleService_Create_InvoiceFailureKeepsSale(t *testing.T) {
	f := newFixture(t)
	f.expectOpenShift()
	f.shifts.On("Save", mock.Anything, f.shift).Return(nil)
	f.sales.On("Save", mock.Anything, mock.AnythingOfType("*pos.SaleOrder")).Return(nil)
	f.invoices.On("CreateInvoice", mock.Anything, mock.Anything).Return(nil, errors.New("gateway timeout"))

	resp, err := f.svc.Create(context.Background(), f.cashier, f.request(1, "xendit"))
	require.NoError(t, err)
	assert.Equal(t, "pending", resp.PaymentStatus)
	assert.Empty(t, resp.PaymentURL)
}

func (f *fixture) completedSale(t *testing.T, qty int) *pos.SaleOrder {
	t.Helper()
	order, err := pos.NewSaleOrder(f.tenant.ID, f.shift, "S-20261016-0001",
		[]pos.LineInput{{MenuItemID: f.coffee.ID, Name: f.coffee.Name, Quantity: qty, UnitPrice: f.coffee.Price}},
		decimal.Zero, decimal.Zero, pos.PaymentCash)
	require.NoError(t, err)
	order.ClearDomainEvents()
	require.NoError(t, f.shift.RecordSale(shift.BucketCash, order.Total))
	f.sales.On("FindByID", mock.Anything, f.tenant.ID, order.ID).Return(order, nil)
	return order
}

func TestSaleService_Void(t *testing.T) {
	ctx := context.Background()

	t.Run("restocks and reverses the shift", func(t *testing.T) {
		f := newFixture(t)
		order := f.completedSale(t, 2)
		f.shifts.On("FindByID", mock.Anything, f.tenant.ID, f.shift.ID).Return(f.shift, nil)
		f.shifts.On("Save", mock.Anything, f.shift).Return(nil)
		f.sales.On("Save", mock.Anything, order).Return(nil)

		resp, err := f.svc.Void(ctx, f.cashier, order.ID, VoidSaleRequest{Reason: "wrong order"})
		require.NoError(t, err)
		assert.Equal(t, "voided", resp.Status)
		assert.Equal(t, "refunded", resp.PaymentStatus)
		assert.True(t, f.shift.CashSales.IsZero())
		f.movements.AssertNumberOfCalls(t, "Save", 2)
		assert.Equal(t, []string{pos.EventTypeSaleVoided}, f.events.Types())
	})

	t.Run("cashier cannot void after the shift closed", func(t *testing.T) {
		f := newFixture(t)
		order := f.completedSale(t, 1)
		require.NoError(t, f.shift.Close(f.cashier.UserID, false, decimal.NewFromInt(104), ""))
		f.shifts.On("FindByID", mock.Anything, f.tenant.ID, f.shift.ID).Return(f.shift, nil)

		_, err := f.svc.Void(ctx, f.cashier, order.ID, VoidSaleRequest{Reason: "late"})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("manager voids a closed shift sale without touching totals", func(t *testing.T) {
		f := newFixture(t)
		order := f.completedSale(t, 1)
		require.NoError(t, f.shift.Close(f.cashier.UserID, false, decimal.NewFromInt(104), ""))
		f.shifts.On("FindByID", mock.Anything, f.tenant.ID, f.shift.ID).Return(f.shift, nil)
		f.sales.On("Save", mock.Anything, order).Return(nil)

		manager := identity.Actor{TenantID: f.tenant.ID, UserID: uuid.New(), Role: identity.RoleManager}
		_, err := f.svc.Void(ctx, manager, order.ID, VoidSaleRequest{Reason: "complaint"})
		require.NoError(t, err)
		assert.Equal(t, "4", f.shift.CashSales.String())
		f.shifts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("twice", func(t *testing.T) {
		f := newFixture(t)
		order := f.completedSale(t, 1)
		require.NoError(t, order.Void("first"))
		f.shifts.On("FindByID", mock.Anything, f.tenant.ID, f.shift.ID).Return(f.shift, nil)

		_, err := f.svc.Void(ctx, f.cashier, order.ID, VoidSaleRequest{Reason: "again"})
		assert.Equal(t, "ALREADY_VOIDED", shared.ErrorCode(err))
	})
}

func TestSaleService_Receipt(t *testing.T) {
	f := newFixture(t)
	order := f.completedSale(t, 1)
	ctx := context.Background()

	html, err := f.svc.Receipt(ctx, f.cashier, order.ID, ReceiptHTML)
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", html.ContentType)
	assert.Equal(t, "Kopi Kita", f.renderer.view.BusinessName)
	assert.Equal(t, "Main", f.renderer.view.BranchName)

	pdf, err := f.svc.Receipt(ctx, f.cashier, order.ID, ReceiptPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.Equal(t, "S-20261016-0001.pdf", pdf.FileName)

	_, err = f.svc.Receipt(ctx, f.cashier, order.ID, "docx")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestIngredientUsage(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	beans, milk := uuid.New(), uuid.New()
	items := map[uuid.UUID]*menu.MenuItem{
		a: {Ingredients: []menu.Ingredient{{InventoryItemID: beans, Quantity: decimal.NewFromInt(18)}}},
		b: {Ingredients: []menu.Ingredient{
			{InventoryItemID: beans, Quantity: decimal.NewFromInt(9)},
			{InventoryItemID: milk, Quantity: decimal.NewFromFloat(0.25)},
		}},
	}

	usage := ingredientUsage(map[uuid.UUID]int{a: 2, b: 3, uuid.New(): 5}, items)
	assert.Equal(t, "63", usage[beans].String())
	assert.Equal(t, "0.75", usage[milk].String())
	assert.Len(t, usage, 2)
}
