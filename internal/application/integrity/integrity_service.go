// Package integrity runs the data integrity checks and applies their repairs.
package integrity

import (
	"context"
	"fmt"
	"time"

	"github.com/coretrack/backend/internal/domain/integrity"
	"github.com/coretrack/backend/internal/domain/inventory"
	"github.com/coretrack/backend/internal/domain/location"
	"github.com/coretrack/backend/internal/domain/menu"
	"github.com/coretrack/backend/internal/domain/purchasing"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const repairReason = "integrity repair"

// ScanResult is the outcome of a scan over one or more tenants
type ScanResult struct {
	Tenants   int                     `json:"tenants" yaml:"tenants"`
	Findings  []integrity.Finding     `json:"findings" yaml:"findings"`
	Summary   map[integrity.Check]int `json:"summary" yaml:"summary"`
	ScannedAt time.Time               `json:"scanned_at" yaml:"scanned_at"`
}

// IntegrityService scans tenants for broken references and repairs them
type IntegrityService struct {
	store     integrity.Store
	branches  location.Repository
	items     inventory.ItemRepository
	movements inventory.MovementRepository
	menuItems menu.ItemRepository
	orders    purchasing.OrderRepository
	tx        shared.TransactionScope
	logger    *zap.Logger
	now       func() time.Time
}

// IntegrityServiceConfig contains configuration for IntegrityService
type IntegrityServiceConfig struct {
	Store     integrity.Store
	Branches  location.Repository
	Items     inventory.ItemRepository
	Movements inventory.MovementRepository
	MenuItems menu.ItemRepository
	Orders    purchasing.OrderRepository
	TX        shared.TransactionScope
	Logger    *zap.Logger
}

// NewIntegrityService creates a new IntegrityService
func NewIntegrityService(cfg IntegrityServiceConfig) *IntegrityService {
	return &IntegrityService{
		store:     cfg.Store,
		branches:  cfg.Branches,
		items:     cfg.Items,
		movements: cfg.Movements,
		menuItems: cfg.MenuItems,
		orders:    cfg.Orders,
		tx:        cfg.TX,
		logger:    cfg.Logger,
		now:       time.Now,
	}
}

// Scan inspects one tenant, or every tenant when tenantID is nil
func (s *IntegrityService) Scan(ctx context.Context, tenantID *uuid.UUID, checks ...integrity.Check) (*ScanResult, error) {
	var tenants []uuid.UUID
	if tenantID != nil {
		tenants = []uuid.UUID{*tenantID}
	} else {
		var err error
		tenants, err = s.store.TenantIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list tenants: %w", err)
		}
	}

	result := &ScanResult{Tenants: len(tenants), Findings: []integrity.Finding{}, ScannedAt: s.now().UTC()}
	for _, id := range tenants {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap, err := s.store.Snapshot(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load tenant %s: %w", id, err)
		}
		findings := integrity.Inspect(*snap, checks...)
		if len(findings) > 0 {
			s.logger.Warn("Integrity findings",
				zap.String("tenant_id", id.String()),
				zap.Int("count", len(findings)))
		}
		result.Findings = append(result.Findings, findings...)
	}
	result.Summary = integrity.Summary(result.Findings)
	return result, nil
}

// Fix repairs the fixable findings. A dry run only reports the actions.
// Each repair runs in its own transaction; a failure is recorded and the rest continue.
func (s *IntegrityService) Fix(ctx context.Context, findings []integrity.Finding, dryRun bool) ([]integrity.FixOutcome, error) {
	outcomes := make([]integrity.FixOutcome, 0, len(findings))
	for _, f := range findings {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		out := integrity.FixOutcome{Finding: f}
		if !f.Fixable {
			out.Action = "manual review required"
			outcomes = append(outcomes, out)
			continue
		}

		action, err := s.repair(ctx, f, dryRun)
		out.Action = action
		if err != nil {
			out.Error = err.Error()
			s.logger.Warn("Integrity repair failed",
				zap.String("check", string(f.Check)),
				zap.String("entity_id", f.EntityID.String()),
				zap.Error(err))
		} else {
			out.Applied = !dryRun
		}
		outcomes = append(outcomes, out)
	}

	applied := 0
	for _, o := range outcomes {
		if o.Applied {
			applied++
		}
	}
	s.logger.Info("Integrity fix finished",
		zap.Int("findings", len(findings)),
		zap.Int("applied", applied),
		zap.Bool("dry_run", dryRun))
	return outcomes, nil
}

func (s *IntegrityService) repair(ctx context.Context, f integrity.Finding, dryRun bool) (string, error) {
	switch f.Check {
	case integrity.CheckInventoryMissingLocation:
		branch, err := s.branches.FindDefault(ctx, f.TenantID)
		if err != nil {
			return "assign default branch", err
		}
		return s.moveItem(ctx, f, branch.LocationID(), dryRun)

	case integrity.CheckInvalidLocationFormat:
		loc, err := shared.NormalizeLocationID(f.Value)
		if err != nil {
			return "normalise location", err
		}
		if _, err := s.branches.FindByLocationID(ctx, f.TenantID, loc); err != nil {
			return "normalise location", err
		}
		return s.moveItem(ctx, f, loc, dryRun)

	case integrity.CheckOrphanedMenuIngredient:
		if f.RelatedID == nil {
			return "drop ingredient", shared.ErrInvalidInput
		}
		action := "drop ingredient " + f.RelatedID.String()
		if dryRun {
			return action, nil
		}
		return action, s.tx.Execute(ctx, func(ctx context.Context) error {
			item, err := s.menuItems.FindByID(ctx, f.TenantID, f.EntityID)
			if err != nil {
				return err
			}
			if !item.RemoveIngredient(*f.RelatedID) {
				return nil
			}
			return s.menuItems.Save(ctx, item)
		})

	case integrity.CheckOrphanedPOItem:
		if f.RelatedID == nil {
			return "unlink order line", shared.ErrInvalidInput
		}
		action := "unlink order line " + f.Value
		if dryRun {
			return action, nil
		}
		return action, s.tx.Execute(ctx, func(ctx context.Context) error {
			order, err := s.orders.FindByID(ctx, f.TenantID, f.EntityID)
			if err != nil {
				return err
			}
			if !order.UnlinkInventoryItem(*f.RelatedID) {
				return nil
			}
			return s.orders.Save(ctx, order)
		})

	case integrity.CheckNegativeStock:
		action := "clamp stock " + f.Value + " to 0"
		if dryRun {
			return action, nil
		}
		return action, s.tx.Execute(ctx, func(ctx context.Context) error {
			item, err := s.items.FindByID(ctx, f.TenantID, f.EntityID)
			if err != nil {
				return err
			}
			movement := item.ClampNegative(repairReason)
			if movement == nil {
				return nil
			}
			if err := s.items.Save(ctx, item); err != nil {
				return err
			}
			return s.movements.Save(ctx, movement)
		})
	}
	return "no repair available", nil
}

func (s *IntegrityService) moveItem(ctx context.Context, f integrity.Finding, loc shared.LocationID, dryRun bool) (string, error) {
	action := "move to " + loc.String()
	if dryRun {
		return action, nil
	}
	return action, s.tx.Execute(ctx, func(ctx context.Context) error {
		item, err := s.items.FindByID(ctx, f.TenantID, f.EntityID)
		if err != nil {
			return err
		}
		movement, err := item.MoveTo(loc, repairReason)
		if err != nil {
			return err
		}
		if err := s.items.Save(ctx, item); err != nil {
			return err
		}
		return s.movements.Save(ctx, movement)
	})
}
