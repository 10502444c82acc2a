package testutil

import (
	"context"
	"time"

	"github.com/coretrack/backend/internal/domain/assistant"
	"github.com/coretrack/backend/internal/domain/datasync"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/inventory"
	"github.com/coretrack/backend/internal/domain/location"
	"github.com/coretrack/backend/internal/domain/menu"
	"github.com/coretrack/backend/internal/domain/payment"
	"github.com/coretrack/backend/internal/domain/pos"
	"github.com/coretrack/backend/internal/domain/purchasing"
	"github.com/coretrack/backend/internal/domain/report"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/domain/shift"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// ptr returns args.Get(i) as *T, tolerating a nil return
func ptr[T any](args mock.Arguments, i int) *T {
	if v := args.Get(i); v != nil {
		return v.(*T)
	}
	return nil
}

func list[T any](args mock.Arguments, i int) []T {
	if v := args.Get(i); v != nil {
		return v.([]T)
	}
	return nil
}

// MockTenantRepository mocks identity.TenantRepository
type MockTenantRepository struct{ mock.Mock }

func (m *MockTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	args := m.Called(ctx, id)
	return ptr[identity.Tenant](args, 0), args.Error(1)
}

func (m *MockTenantRepository) FindBySlug(ctx context.Context, slug string) (*identity.Tenant, error) {
	args := m.Called(ctx, slug)
	return ptr[identity.Tenant](args, 0), args.Error(1)
}

func (m *MockTenantRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*identity.Tenant, error) {
	args := m.Called(ctx, customerID)
	return ptr[identity.Tenant](args, 0), args.Error(1)
}

func (m *MockTenantRepository) FindByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*identity.Tenant, error) {
	args := m.Called(ctx, subscriptionID)
	return ptr[identity.Tenant](args, 0), args.Error(1)
}

func (m *MockTenantRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.Tenant, int64, error) {
	args := m.Called(ctx, filter)
	return list[identity.Tenant](args, 0), args.Get(1).(int64), args.Error(2)
}

func (m *MockTenantRepository) FindTrialsEndingBefore(ctx context.Context, before time.Time) ([]identity.Tenant, error) {
	args := m.Called(ctx, before)
	return list[identity.Tenant](args, 0), args.Error(1)
}

func (m *MockTenantRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

// MockUserRepository mocks identity.UserRepository
type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, tenantID, id)
	return ptr[identity.User](args, 0), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	return ptr[identity.User](args, 0), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]identity.User, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return list[identity.User](args, 0), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) CountActive(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) CountActiveOwners(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

// MockSubscriptionRepository mocks identity.SubscriptionRepository
type MockSubscriptionRepository struct{ mock.Mock }

func (m *MockSubscriptionRepository) FindByExternalID(ctx context.Context, provider identity.PaymentProvider, externalID string) (*identity.Subscription, error) {
	args := m.Called(ctx, provider, externalID)
	return ptr[identity.Subscription](args, 0), args.Error(1)
}

func (m *MockSubscriptionRepository) FindLatestForTenant(ctx context.Context, tenantID uuid.UUID) (*identity.Subscription, error) {
	args := m.Called(ctx, tenantID)
	return ptr[identity.Subscription](args, 0), args.Error(1)
}

func (m *MockSubscriptionRepository) Save(ctx context.Context, sub *identity.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

// MockBranchRepository mocks location.Repository
type MockBranchRepository struct{ mock.Mock }

func (m *MockBranchRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*location.Branch, error) {
	args := m.Called(ctx, tenantID, id)
	return ptr[location.Branch](args, 0), args.Error(1)
}

func (m *MockBranchRepository) FindByLocationID(ctx context.Context, tenantID uuid.UUID, loc shared.LocationID) (*location.Branch, error) {
	args := m.Called(ctx, tenantID, loc)
	return ptr[location.Branch](args, 0), args.Error(1)
}

func (m *MockBranchRepository) FindAll(ctx context.Context, tenantID uuid.UUID, includeInactive bool) ([]location.Branch, error) {
	args := m.Called(ctx, tenantID, includeInactive)
	return list[location.Branch](args, 0), args.Error(1)
}

func (m *MockBranchRepository) FindDefault(ctx context.Context, tenantID uuid.UUID) (*location.Branch, error) {
	args := m.Called(ctx, tenantID)
	return ptr[location.Branch](args, 0), args.Error(1)
}

func (m *MockBranchRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockBranchRepository) CountActive(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBranchRepository) Save(ctx context.Context, branch *location.Branch) error {
	return m.Called(ctx, branch).Error(0)
}

// MockInventoryItemRepository mocks inventory.ItemRepository
type MockInventoryItemRepository struct{ mock.Mock }

func (m *MockInventoryItemRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.InventoryItem, error) {
	args := m.Called(ctx, tenantID, id)
	return ptr[inventory.InventoryItem](args, 0), args.Error(1)
}

func (m *MockInventoryItemRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]inventory.InventoryItem, error) {
	args := m.Called(ctx, tenantID, ids)
	return list[inventory.InventoryItem](args, 0), args.Error(1)
}

func (m *MockInventoryItemRepository) FindByName(ctx context.Context, tenantID uuid.UUID, loc shared.LocationID, name string) (*inventory.InventoryItem, error) {
	args := m.Called(ctx, tenantID, loc, name)
	return ptr[inventory.InventoryItem](args, 0), args.Error(1)
}

func (m *MockInventoryItemRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter inventory.ListFilter) ([]inventory.InventoryItem, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return list[inventory.InventoryItem](args, 0), args.Get(1).(int64), args.Error(2)
}

func (m *MockInventoryItemRepository) Save(ctx context.Context, item *inventory.InventoryItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockInventoryItemRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

// MockMovementRepository mocks inventory.MovementRepository
type MockMovementRepository struct{ mock.Mock }

func (m *MockMovementRepository) Save(ctx context.Context, movement *inventory.StockMovement) error {
	return m.Called(ctx, movement).Error(0)
}

func (m *MockMovementRepository) FindByItem(ctx context.Context, tenantID, itemID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, int64, error) {
	args := m.Called(ctx, tenantID, itemID, filter)
	return list[inventory.StockMovement](args, 0), args.Get(1).(int64), args.Error(2)
}

// MockMenuItemRepository mocks menu.ItemRepository
type MockMenuItemRepository struct{ mock.Mock }

func (m *MockMenuItemRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*menu.MenuItem, error) {
	args := m.Called(ctx, tenantID, id)
	return ptr[menu.MenuItem](args, 0), args.Error(1)
}

func (m *MockMenuItemRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]menu.MenuItem, error) {
	args := m.Called(ctx, tenantID, ids)
	return list[menu.MenuItem](args, 0), args.Error(1)
}

func (m *MockMenuItemRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter menu.ListFilter) ([]menu.MenuItem, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return list[menu.MenuItem](args, 0), args.Get(1).(int64), args.Error(2)
}

func (m *MockMenuItemRepository) FindUsingIngredient(ctx context.Context, tenantID, inventoryItemID uuid.UUID) ([]menu.MenuItem, error) {
	args := m.Called(ctx, tenantID, inventoryItemID)
	return list[menu.MenuItem](args, 0), args.Error(1)
}

func (m *MockMenuItemRepository) Save(ctx context.Context, item *menu.MenuItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockMenuItemRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

// MockMenuCategoryRepository mocks menu.CategoryRepository
type MockMenuCategoryRepository struct{ mock.Mock }

func (m *MockMenuCategoryRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*menu.Category, error) {
	args := m.Called(ctx, tenantID, id)
	return ptr[menu.Category](args, 0), args.Error(1)
}

func (m *MockMenuCategoryRepository) FindAll(ctx context.Context, tenantID uuid.UUID) ([]menu.Category, error) {
	args := m.Called(ctx, tenantID)
	return list[menu.Category](args, 0), args.Error(1)
}

func (m *MockMenuCategoryRepository) Save(ctx context.Context, category *menu.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockMenuCategoryRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

// MockPurchaseOrderRepository mocks purchasing.OrderRepository
type MockPurchaseOrderRepository struct{ mock.Mock }

func (m *MockPurchaseOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*purchasing.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, id)
	return ptr[purchasing.PurchaseOrder](args, 0), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter purchasing.OrderFilter) ([]purchasing.PurchaseOrder, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return list[purchasing.PurchaseOrder](args, 0), args.Get(1).(int64), args.Error(2)
}

func (m *MockPurchaseOrderRepository) FindReferencingItem(ctx context.Context, tenantID, inventoryItemID uuid.UUID) ([]purchasing.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, inventoryItemID)
	return list[purchasing.PurchaseOrder](args, 0), args.Error(1)
}

func (m *MockPurchaseOrderRepository) NextNumber(ctx context.Context, tenantID uuid.UUID, day time.Time) (string, error) {
	args := m.Called(ctx, tenantID, day)
	return args.String(0), args.Error(1)
}

func (m *MockPurchaseOrderRepository) Save(ctx context.Context, order *purchasing.PurchaseOrder) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockPurchaseOrderRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

// MockSupplierRepository mocks purchasing.SupplierRepository
type MockSupplierRepository struct{ mock.Mock }

func (m *MockSupplierRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*purchasing.Supplier, error) {
	args := m.Called(ctx, tenantID, id)
	return ptr[purchasing.Supplier](args, 0), args.Error(1)
}

func (m *MockSupplierRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]purchasing.Supplier, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return list[purchasing.Supplier](args, 0), args.Get(1).(int64), args.Error(2)
}

func (m *MockSupplierRepository) Save(ctx context.Context, supplier *purchasing.Supplier) error {
	return m.Called(ctx, supplier).Error(0)
}

// MockShiftRepository mocks shift.Repository
type MockShiftRepository struct{ mock.Mock }

func (m *MockShiftRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*shift.Shift, error) {
	args := m.Called(ctx, tenantID, id)
	return ptr[shift.Shift](args, 0), args.Error(1)
}

func (m *MockShiftRepository) FindOpen(ctx context.Context, tenantID uuid.UUID, loc shared.LocationID, userID uuid.UUID) (*shift.Shift, error) {
	args := m.Called(ctx, tenantID, loc, userID)
	return ptr[shift.Shift](args, 0), args.Error(1)
}

func (m *MockShiftRepository) CountOpenAtLocation(ctx context.Context, tenantID uuid.UUID, loc shared.LocationID) (int64, error) {
	args := m.Called(ctx, tenantID, loc)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockShiftRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shift.Filter) ([]shift.Shift, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return list[shift.Shift](args, 0), args.Get(1).(int64), args.Error(2)
}

func (m *MockShiftRepository) Save(ctx context.Context, s *shift.Shift) error {
	return m.Called(ctx, s).Error(0)
}

// MockSaleOrderRepository mocks pos.Repository
type MockSaleOrderRepository struct{ mock.Mock }

func (m *MockSaleOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*pos.SaleOrder, error) {
	args := m.Called(ctx, tenantID, id)
	return ptr[pos.SaleOrder](args, 0), args.Error(1)
}

func (m *MockSaleOrderRepository) FindByPaymentRef(ctx context.Context, tenantID uuid.UUID, ref string) (*pos.SaleOrder, error) {
	args := m.Called(ctx, tenantID, ref)
	return ptr[pos.SaleOrder](args, 0), args.Error(1)
}

func (m *MockSaleOrderRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter pos.Filter) ([]pos.SaleOrder, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return list[pos.SaleOrder](args, 0), args.Get(1).(int64), args.Error(2)
}

func (m *MockSaleOrderRepository) NextNumber(ctx context.Context, tenantID uuid.UUID, loc shared.LocationID, day time.Time) (string, error) {
	args := m.Called(ctx, tenantID, loc, day)
	return args.String(0), args.Error(1)
}

func (m *MockSaleOrderRepository) Save(ctx context.Context, order *pos.SaleOrder) error {
	return m.Called(ctx, order).Error(0)
}

// MockSyncDocumentRepository mocks datasync.DocumentRepository
type MockSyncDocumentRepository struct{ mock.Mock }

func (m *MockSyncDocumentRepository) Find(ctx context.Context, tenantID uuid.UUID, collection, documentID string) (*datasync.Document, error) {
	args := m.Called(ctx, tenantID, collection, documentID)
	return ptr[datasync.Document](args, 0), args.Error(1)
}

func (m *MockSyncDocumentRepository) FindChangedSince(ctx context.Context, tenantID uuid.UUID, collection string, since int64, limit int) ([]datasync.Document, error) {
	args := m.Called(ctx, tenantID, collection, since, limit)
	return list[datasync.Document](args, 0), args.Error(1)
}

func (m *MockSyncDocumentRepository) Save(ctx context.Context, doc *datasync.Document) error {
	return m.Called(ctx, doc).Error(0)
}

// MockSyncConflictRepository mocks datasync.ConflictRepository
type MockSyncConflictRepository struct{ mock.Mock }

func (m *MockSyncConflictRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*datasync.Conflict, error) {
	args := m.Called(ctx, tenantID, id)
	return ptr[datasync.Conflict](args, 0), args.Error(1)
}

func (m *MockSyncConflictRepository) FindOpen(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]datasync.Conflict, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return list[datasync.Conflict](args, 0), args.Get(1).(int64), args.Error(2)
}

func (m *MockSyncConflictRepository) Save(ctx context.Context, c *datasync.Conflict) error {
	return m.Called(ctx, c).Error(0)
}

// MockPendingWriteRepository mocks datasync.PendingWriteRepository
type MockPendingWriteRepository struct{ mock.Mock }

func (m *MockPendingWriteRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]datasync.PendingWrite, error) {
	args := m.Called(ctx, now, limit)
	return list[datasync.PendingWrite](args, 0), args.Error(1)
}

func (m *MockPendingWriteRepository) CountQueued(ctx context.Context, tenantID uuid.UUID, clientID string) (int64, error) {
	args := m.Called(ctx, tenantID, clientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPendingWriteRepository) Save(ctx context.Context, p *datasync.PendingWrite) error {
	return m.Called(ctx, p).Error(0)
}

// MockConversationRepository mocks assistant.ConversationRepository
type MockConversationRepository struct{ mock.Mock }

func (m *MockConversationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*assistant.Conversation, error) {
	args := m.Called(ctx, tenantID, id)
	return ptr[assistant.Conversation](args, 0), args.Error(1)
}

func (m *MockConversationRepository) FindByUser(ctx context.Context, tenantID, userID uuid.UUID, filter shared.Filter) ([]assistant.Conversation, int64, error) {
	args := m.Called(ctx, tenantID, userID, filter)
	return list[assistant.Conversation](args, 0), args.Get(1).(int64), args.Error(2)
}

func (m *MockConversationRepository) Save(ctx context.Context, c *assistant.Conversation) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockConversationRepository) AppendMessages(ctx context.Context, msgs ...*assistant.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

func (m *MockConversationRepository) Messages(ctx context.Context, tenantID, conversationID uuid.UUID, limit int) ([]assistant.Message, error) {
	args := m.Called(ctx, tenantID, conversationID, limit)
	return list[assistant.Message](args, 0), args.Error(1)
}

// MockPaymentRepository mocks payment.Repository
type MockPaymentRepository struct{ mock.Mock }

func (m *MockPaymentRepository) FindByExternalID(ctx context.Context, provider identity.PaymentProvider, externalID string) (*payment.Record, error) {
	args := m.Called(ctx, provider, externalID)
	return ptr[payment.Record](args, 0), args.Error(1)
}

func (m *MockPaymentRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, referenceID string) ([]payment.Record, error) {
	args := m.Called(ctx, tenantID, referenceID)
	return list[payment.Record](args, 0), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, r *payment.Record) error {
	return m.Called(ctx, r).Error(0)
}

// MockInvoiceIssuer mocks payment.InvoiceIssuer
type MockInvoiceIssuer struct{ mock.Mock }

func (m *MockInvoiceIssuer) CreateInvoice(ctx context.Context, req payment.InvoiceRequest) (*payment.Invoice, error) {
	args := m.Called(ctx, req)
	return ptr[payment.Invoice](args, 0), args.Error(1)
}

var (
	_ identity.TenantRepository          = (*MockTenantRepository)(nil)
	_ identity.UserRepository            = (*MockUserRepository)(nil)
	_ identity.SubscriptionRepository    = (*MockSubscriptionRepository)(nil)
	_ location.Repository                = (*MockBranchRepository)(nil)
	_ inventory.ItemRepository           = (*MockInventoryItemRepository)(nil)
	_ inventory.MovementRepository       = (*MockMovementRepository)(nil)
	_ menu.ItemRepository                = (*MockMenuItemRepository)(nil)
	_ menu.CategoryRepository            = (*MockMenuCategoryRepository)(nil)
	_ purchasing.OrderRepository         = (*MockPurchaseOrderRepository)(nil)
	_ purchasing.SupplierRepository      = (*MockSupplierRepository)(nil)
	_ shift.Repository                   = (*MockShiftRepository)(nil)
	_ pos.Repository                     = (*MockSaleOrderRepository)(nil)
	_ datasync.DocumentRepository        = (*MockSyncDocumentRepository)(nil)
	_ datasync.ConflictRepository        = (*MockSyncConflictRepository)(nil)
	_ datasync.PendingWriteRepository    = (*MockPendingWriteRepository)(nil)
	_ assistant.ConversationRepository   = (*MockConversationRepository)(nil)
	_ payment.Repository                 = (*MockPaymentRepository)(nil)
	_ payment.InvoiceIssuer              = (*MockInvoiceIssuer)(nil)
)

// MockReportRepository mocks report.Repository
type MockReportRepository struct{ mock.Mock }

func (m *MockReportRepository) SalesSummary(ctx context.Context, f report.Filter) (*report.SalesSummary, error) {
	args := m.Called(ctx, f)
	return ptr[report.SalesSummary](args, 0), args.Error(1)
}

func (m *MockReportRepository) InventoryValuation(ctx context.Context, f report.Filter) ([]report.ValuationRow, error) {
	args := m.Called(ctx, f)
	return list[report.ValuationRow](args, 0), args.Error(1)
}

func (m *MockReportRepository) LowStock(ctx context.Context, f report.Filter) ([]report.LowStockRow, error) {
	args := m.Called(ctx, f)
	return list[report.LowStockRow](args, 0), args.Error(1)
}

func (m *MockReportRepository) PurchaseSpend(ctx context.Context, f report.Filter) ([]report.SupplierSpend, error) {
	args := m.Called(ctx, f)
	return list[report.SupplierSpend](args, 0), args.Error(1)
}

func (m *MockReportRepository) Shifts(ctx context.Context, f report.Filter) ([]report.ShiftRow, error) {
	args := m.Called(ctx, f)
	return list[report.ShiftRow](args, 0), args.Error(1)
}

func (m *MockReportRepository) OpenPurchaseOrders(ctx context.Context, f report.Filter) ([]report.OpenPurchaseOrder, error) {
	args := m.Called(ctx, f)
	return list[report.OpenPurchaseOrder](args, 0), args.Error(1)
}
