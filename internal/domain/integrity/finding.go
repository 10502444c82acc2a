// Package integrity detects data that breaks the tenant/location scoping rules
// and describes how each problem can be repaired.
package integrity

import (
	"context"
	"fmt"
	"sort"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Check names a rule
type Check string

const (
	CheckInventoryMissingLocation Check = "inventory_missing_location"
	CheckInvalidLocationFormat    Check = "invalid_location_format"
	CheckUnknownBranch            Check = "unknown_branch"
	CheckOrphanedMenuIngredient   Check = "orphaned_menu_ingredient"
	CheckOrphanedPOItem           Check = "orphaned_po_item"
	CheckNegativeStock            Check = "negative_stock"
	CheckSaleWithoutShift         Check = "sale_without_shift"
)

// AllChecks lists every rule in reporting order
var AllChecks = []Check{
	CheckInventoryMissingLocation,
	CheckInvalidLocationFormat,
	CheckUnknownBranch,
	CheckOrphanedMenuIngredient,
	CheckOrphanedPOItem,
	CheckNegativeStock,
	CheckSaleWithoutShift,
}

// ParseCheck validates a check name
func ParseCheck(s string) (Check, error) {
	for _, c := range AllChecks {
		if string(c) == s {
			return c, nil
		}
	}
	return "", shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown check %q", s))
}

// Severity ranks findings
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Finding is one violation
type Finding struct {
	Check      Check     `json:"check" yaml:"check"`
	Severity   Severity  `json:"severity" yaml:"severity"`
	TenantID   uuid.UUID `json:"tenant_id" yaml:"tenant_id"`
	EntityType string    `json:"entity_type" yaml:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id" yaml:"entity_id"`
	// RelatedID is the dangling reference (ingredient, PO line target, branch)
	RelatedID *uuid.UUID `json:"related_id,omitempty" yaml:"related_id,omitempty"`
	Detail    string     `json:"detail" yaml:"detail"`
	Fixable   bool       `json:"fixable" yaml:"fixable"`
	// Value carries the offending value, e.g. the malformed location id
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// BranchRef is a branch as seen by the checks
type BranchRef struct {
	ID     uuid.UUID
	Active bool
}

// ItemRef is an inventory row projection
type ItemRef struct {
	ID         uuid.UUID
	Name       string
	LocationID string
	Quantity   decimal.Decimal
}

// IngredientRef is one recipe line of a menu item
type IngredientRef struct {
	MenuItemID      uuid.UUID
	MenuItemName    string
	InventoryItemID uuid.UUID
}

// POLineRef is a purchase order line linked to inventory
type POLineRef struct {
	OrderID         uuid.UUID
	OrderNumber     string
	LineID          uuid.UUID
	InventoryItemID uuid.UUID
}

// SaleRef is a sale that references a missing shift
type SaleRef struct {
	ID      uuid.UUID
	Number  string
	ShiftID uuid.UUID
}

// Snapshot is the slice of tenant data the checks need
type Snapshot struct {
	TenantID        uuid.UUID
	Branches        []BranchRef
	DefaultBranchID *uuid.UUID
	Items           []ItemRef
	Ingredients     []IngredientRef
	POLines         []POLineRef
	// ShiftlessSales is computed by the store with an anti-join
	ShiftlessSales []SaleRef
	// MissingItems are ingredient and PO targets that do not exist
	MissingItems map[uuid.UUID]bool
}

// Inspect runs the selected checks (all when none given) over snap
func Inspect(snap Snapshot, checks ...Check) []Finding {
	if len(checks) == 0 {
		checks = AllChecks
	}
	enabled := make(map[Check]bool, len(checks))
	for _, c := range checks {
		enabled[c] = true
	}

	branches := make(map[uuid.UUID]bool, len(snap.Branches))
	for _, b := range snap.Branches {
		branches[b.ID] = true
	}
	hasDefault := snap.DefaultBranchID != nil

	var out []Finding
	add := func(f Finding) {
		f.TenantID = snap.TenantID
		out = append(out, f)
	}

	for _, item := range snap.Items {
		if item.LocationID == "" {
			if enabled[CheckInventoryMissingLocation] {
				add(Finding{
					Check:      CheckInventoryMissingLocation,
					Severity:   SeverityError,
					EntityType: "inventory_item",
					EntityID:   item.ID,
					Detail:     fmt.Sprintf("%q has no location", item.Name),
					Fixable:    hasDefault,
				})
			}
		} else if branchID, err := shared.BranchIDFromLocation(item.LocationID); err != nil {
			if enabled[CheckInvalidLocationFormat] {
				fixable := false
				if normalized, nerr := shared.NormalizeLocationID(item.LocationID); nerr == nil {
					bid, _ := normalized.BranchID()
					fixable = branches[bid]
				}
				add(Finding{
					Check:      CheckInvalidLocationFormat,
					Severity:   SeverityError,
					EntityType: "inventory_item",
					EntityID:   item.ID,
					Detail:     fmt.Sprintf("%q has malformed location", item.Name),
					Value:      item.LocationID,
					Fixable:    fixable,
				})
			}
		} else if !branches[branchID] && enabled[CheckUnknownBranch] {
			id := branchID
			add(Finding{
				Check:      CheckUnknownBranch,
				Severity:   SeverityError,
				EntityType: "inventory_item",
				EntityID:   item.ID,
				RelatedID:  &id,
				Value:      item.LocationID,
				Detail:     fmt.Sprintf("%q points to a branch outside the tenant", item.Name),
			})
		}
		if item.Quantity.IsNegative() && enabled[CheckNegativeStock] {
			add(Finding{
				Check:      CheckNegativeStock,
				Severity:   SeverityWarning,
				EntityType: "inventory_item",
				EntityID:   item.ID,
				Value:      item.Quantity.String(),
				Detail:     fmt.Sprintf("%q has negative stock", item.Name),
				Fixable:    true,
			})
		}
	}

	if enabled[CheckOrphanedMenuIngredient] {
		for _, ing := range snap.Ingredients {
			if snap.MissingItems[ing.InventoryItemID] {
				id := ing.InventoryItemID
				add(Finding{
					Check:      CheckOrphanedMenuIngredient,
					Severity:   SeverityWarning,
					EntityType: "menu_item",
					EntityID:   ing.MenuItemID,
					RelatedID:  &id,
					Detail:     fmt.Sprintf("%q uses a deleted inventory item", ing.MenuItemName),
					Fixable:    true,
				})
			}
		}
	}

	if enabled[CheckOrphanedPOItem] {
		for _, line := range snap.POLines {
			if snap.MissingItems[line.InventoryItemID] {
				id := line.InventoryItemID
				add(Finding{
					Check:      CheckOrphanedPOItem,
					Severity:   SeverityWarning,
					EntityType: "purchase_order",
					EntityID:   line.OrderID,
					RelatedID:  &id,
					Value:      line.LineID.String(),
					Detail:     fmt.Sprintf("%s has a line linked to a deleted inventory item", line.OrderNumber),
					Fixable:    true,
				})
			}
		}
	}

	if enabled[CheckSaleWithoutShift] {
		for _, sale := range snap.ShiftlessSales {
			id := sale.ShiftID
			add(Finding{
				Check:      CheckSaleWithoutShift,
				Severity:   SeverityWarning,
				EntityType: "sale_order",
				EntityID:   sale.ID,
				RelatedID:  &id,
				Detail:     fmt.Sprintf("%s references a missing shift", sale.Number),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return checkOrder(out[i].Check) < checkOrder(out[j].Check) })
	return out
}

func checkOrder(c Check) int {
	for i, k := range AllChecks {
		if k == c {
			return i
		}
	}
	return len(AllChecks)
}

// Summary counts findings per check
func Summary(findings []Finding) map[Check]int {
	m := make(map[Check]int)
	for _, f := range findings {
		m[f.Check]++
	}
	return m
}

// FixOutcome reports what a repair did
type FixOutcome struct {
	Finding Finding `json:"finding" yaml:"finding"`
	Applied bool    `json:"applied" yaml:"applied"`
	Action  string  `json:"action" yaml:"action"`
	Error   string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// Store loads the projections the checks run on
type Store interface {
	TenantIDs(ctx context.Context) ([]uuid.UUID, error)
	Snapshot(ctx context.Context, tenantID uuid.UUID) (*Snapshot, error)
}
