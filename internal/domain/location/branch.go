package location

import (
	"context"
	"regexp"
	"strings"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

var branchCodeRe = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{0,19}$`)

// Branch is a physical outlet of a tenant. Inventory and sales rows refer to
// it through its LocationID.
type Branch struct {
	shared.TenantAggregateRoot
	Name    string
	Code    string
	Address string
	Phone   string
	Active  bool
}

// NewBranch creates an active branch
func NewBranch(tenantID uuid.UUID, name, code string) (*Branch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_BRANCH_NAME", "Branch name cannot be empty")
	}
	code, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}
	b := &Branch{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Code:                code,
		Active:              true,
	}
	b.AddDomainEvent(NewBranchCreatedEvent(b))
	return b, nil
}

func normalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !branchCodeRe.MatchString(code) {
		return "", shared.NewDomainError("INVALID_BRANCH_CODE", "Branch code must be 1-20 letters, digits, dash or underscore")
	}
	return code, nil
}

// LocationID returns the scoping key used by inventory and sales data
func (b *Branch) LocationID() shared.LocationID {
	return shared.NewLocationID(b.ID)
}

// Update changes the descriptive fields of the branch
func (b *Branch) Update(name, address, phone string) error {
	if name = strings.TrimSpace(name); name != "" {
		b.Name = name
	}
	b.Address = strings.TrimSpace(address)
	b.Phone = strings.TrimSpace(phone)
	b.IncrementVersion()
	return nil
}

// Deactivate closes the branch for new sales, shifts and deliveries
func (b *Branch) Deactivate() error {
	if !b.Active {
		return shared.NewDomainError("ALREADY_INACTIVE", "Branch is already inactive")
	}
	b.Active = false
	b.IncrementVersion()
	b.AddDomainEvent(NewBranchDeactivatedEvent(b))
	return nil
}

// Reactivate reopens a deactivated branch
func (b *Branch) Reactivate() error {
	if b.Active {
		return shared.NewDomainError("ALREADY_ACTIVE", "Branch is already active")
	}
	b.Active = true
	b.IncrementVersion()
	return nil
}

// EnsureOperational returns an error when the branch cannot take new operations
func (b *Branch) EnsureOperational() error {
	if !b.Active {
		return shared.NewDomainError("BRANCH_INACTIVE", "Branch is inactive")
	}
	return nil
}

// Repository persists branches
type Repository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Branch, error)
	FindByLocationID(ctx context.Context, tenantID uuid.UUID, loc shared.LocationID) (*Branch, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, includeInactive bool) ([]Branch, error)
	FindDefault(ctx context.Context, tenantID uuid.UUID) (*Branch, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	CountActive(ctx context.Context, tenantID uuid.UUID) (int64, error)
	Save(ctx context.Context, branch *Branch) error
}

const (
	AggregateTypeBranch = "Branch"

	EventTypeBranchCreated     = "BranchCreated"
	EventTypeBranchDeactivated = "BranchDeactivated"
)

// BranchCreatedEvent is raised when a new outlet is opened
type BranchCreatedEvent struct {
	shared.BaseDomainEvent
	LocationID shared.LocationID `json:"location_id"`
	Name       string            `json:"name"`
}

func NewBranchCreatedEvent(b *Branch) *BranchCreatedEvent {
	return &BranchCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBranchCreated, AggregateTypeBranch, b.ID, b.TenantID),
		LocationID:      b.LocationID(),
		Name:            b.Name,
	}
}

// BranchDeactivatedEvent is raised when an outlet is closed
type BranchDeactivatedEvent struct {
	shared.BaseDomainEvent
	LocationID shared.LocationID `json:"location_id"`
}

func NewBranchDeactivatedEvent(b *Branch) *BranchDeactivatedEvent {
	return &BranchDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBranchDeactivated, AggregateTypeBranch, b.ID, b.TenantID),
		LocationID:      b.LocationID(),
	}
}
