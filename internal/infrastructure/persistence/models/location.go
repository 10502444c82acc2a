package models

import (
	"github.com/coretrack/backend/internal/domain/location"
)

// BranchModel is the persistence model for the Branch aggregate root.
type BranchModel struct {
	TenantAggregateModel
	Name    string `gorm:"type:varchar(200);not null"`
	Code    string `gorm:"type:varchar(20);not null;index"`
	Address string `gorm:"type:varchar(500)"`
	Phone   string `gorm:"type:varchar(50)"`
	Active  bool   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BranchModel) TableName() string {
	return "branches"
}

// ToDomain converts the persistence model to a domain Branch.
func (m *BranchModel) ToDomain() *location.Branch {
	return &location.Branch{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Name:                m.Name,
		Code:                m.Code,
		Address:             m.Address,
		Phone:               m.Phone,
		Active:              m.Active,
	}
}

// BranchModelFromDomain creates a persistence model from a domain Branch.
func BranchModelFromDomain(b *location.Branch) *BranchModel {
	m := &BranchModel{
		Name:    b.Name,
		Code:    b.Code,
		Address: b.Address,
		Phone:   b.Phone,
		Active:  b.Active,
	}
	m.FromDomainTenantAggregateRoot(b.TenantAggregateRoot)
	return m
}
