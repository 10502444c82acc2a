package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// Sort field whitelists per table. Every list includes the base columns.

// TenantSortFields contains allowed sort fields for tenants
var TenantSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"name":          true,
	"slug":          true,
	"status":        true,
	"plan":          true,
	"trial_ends_at": true,
}

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"email":         true,
	"name":          true,
	"role":          true,
	"active":        true,
	"last_login_at": true,
}

// SupplierSortFields contains allowed sort fields for suppliers
var SupplierSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"name":         true,
	"contact_name": true,
	"email":        true,
	"active":       true,
}

// InventorySortFields contains allowed sort fields for inventory items
var InventorySortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"name":        true,
	"sku":         true,
	"category":    true,
	"location_id": true,
	"quantity":    true,
	"unit_cost":   true,
	"min_stock":   true,
}

// StockMovementSortFields contains allowed sort fields for stock movements
var StockMovementSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"type":       true,
	"quantity":   true,
	"reference":  true,
}

// MenuItemSortFields contains allowed sort fields for menu items
var MenuItemSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"name":        true,
	"price":       true,
	"category_id": true,
	"available":   true,
}

// PurchaseOrderSortFields contains allowed sort fields for purchase orders
var PurchaseOrderSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"number":        true,
	"supplier_name": true,
	"status":        true,
	"total":         true,
	"expected_at":   true,
	"ordered_at":    true,
	"delivered_at":  true,
}

// ShiftSortFields contains allowed sort fields for shifts
var ShiftSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"opened_at":  true,
	"closed_at":  true,
	"status":     true,
	"variance":   true,
}

// SaleOrderSortFields contains allowed sort fields for sales
var SaleOrderSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"number":         true,
	"total":          true,
	"status":         true,
	"payment_method": true,
	"payment_status": true,
}

// SyncConflictSortFields contains allowed sort fields for sync conflicts
var SyncConflictSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"collection":  true,
	"document_id": true,
}

// ConversationSortFields contains allowed sort fields for assistant conversations
var ConversationSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"title":      true,
}
