// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities are free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. ToDomain / XxxModelFromDomain convert between the two
// 4. Aggregates rebuilt by ToDomain are marked persisted so repositories can
//    guard updates by the stored version
//
// Structure:
// - base.go: Base persistence models (BaseModel, TenantAggregateModel)
// - identity.go: tenants, users, subscriptions
// - location.go: branches
// - inventory.go: inventory items and the stock ledger
// - menu.go: menu categories, items and recipe lines
// - purchasing.go: suppliers and purchase orders
// - sales.go: shifts and sale orders
// - datasync.go: sync documents, conflicts and the retry list
// - payment.go: provider payment records
// - assistant.go: assistant conversations and messages
package models

// All returns every model in migration order. Used by AutoMigrate in tests
// and by the ops tooling; production schema changes go through migrations/.
func All() []any {
	return []any{
		&TenantModel{},
		&UserModel{},
		&SubscriptionModel{},
		&BranchModel{},
		&InventoryItemModel{},
		&StockMovementModel{},
		&MenuCategoryModel{},
		&MenuItemModel{},
		&MenuIngredientModel{},
		&SupplierModel{},
		&PurchaseOrderModel{},
		&PurchaseOrderItemModel{},
		&ShiftModel{},
		&SaleOrderModel{},
		&SaleLineModel{},
		&SyncDocumentModel{},
		&SyncConflictModel{},
		&SyncPendingWriteModel{},
		&PaymentRecordModel{},
		&ConversationModel{},
		&MessageModel{},
	}
}
