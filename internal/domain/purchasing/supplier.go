package purchasing

import (
	"net/mail"
	"strings"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Supplier is a vendor goods are purchased from
type Supplier struct {
	shared.TenantAggregateRoot
	Name        string
	ContactName string
	Email       string
	Phone       string
	Address     string
	Active      bool
}

// SupplierDetails holds the editable fields of a supplier
type SupplierDetails struct {
	Name        string
	ContactName string
	Email       string
	Phone       string
	Address     string
}

// NewSupplier creates an active supplier
func NewSupplier(tenantID uuid.UUID, d SupplierDetails) (*Supplier, error) {
	s := &Supplier{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Active:              true,
	}
	if err := s.apply(d); err != nil {
		return nil, err
	}
	return s, nil
}

// Update replaces the supplier details
func (s *Supplier) Update(d SupplierDetails) error {
	if err := s.apply(d); err != nil {
		return err
	}
	s.IncrementVersion()
	return nil
}

func (s *Supplier) apply(d SupplierDetails) error {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_SUPPLIER_NAME", "Supplier name cannot be empty")
	}
	email := strings.ToLower(strings.TrimSpace(d.Email))
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return shared.NewDomainError("INVALID_EMAIL", "Supplier email is invalid")
		}
	}
	s.Name = name
	s.ContactName = strings.TrimSpace(d.ContactName)
	s.Email = email
	s.Phone = strings.TrimSpace(d.Phone)
	s.Address = strings.TrimSpace(d.Address)
	return nil
}

// Deactivate hides the supplier from new orders
func (s *Supplier) Deactivate() {
	s.Active = false
	s.IncrementVersion()
}
