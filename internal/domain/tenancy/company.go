package tenancy

import (
	"strings"

	"github.com/crpledger/core/internal/domain/shared"
	"time"
)

// Company is the tenant root. Every business record belongs to exactly one
// company (or declares tenant-optional semantics). The core only ever reads
// the active flag of a company; ownership of the rest of the profile lives
// with the admin layer.
type Company struct {
	shared.BaseEntity
	Code                  string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name                  string `gorm:"type:varchar(200);not null"`
	SubdomainPrefix       string `gorm:"type:varchar(63);uniqueIndex"`
	DefaultCurrencyCode   string `gorm:"type:varchar(10);not null;default:'USD'"`
	DefaultCurrencySymbol string `gorm:"type:varchar(10)"`
	IsActive              bool   `gorm:"not null;default:true"`
	SuspendedByAdmin      bool   `gorm:"not null;default:false"`
	Version               int    `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (Company) TableName() string {
	return "companies"
}

// NewCompany creates an active company with required fields
func NewCompany(code, name, defaultCurrency string) (*Company, error) {
	if err := validateCompanyCode(code); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, shared.NewValidationError("name", "company name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewValidationError("name", "company name cannot exceed 200 characters")
	}
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}

	return &Company{
		BaseEntity:          shared.NewBaseEntity(),
		Code:                strings.ToUpper(code),
		Name:                name,
		SubdomainPrefix:     strings.ToLower(code),
		DefaultCurrencyCode: strings.ToUpper(defaultCurrency),
		IsActive:            true,
		Version:             1,
	}, nil
}

// EffectiveIsActive reports whether operations may run against this
// company. A company suspended by an administrator is not effectively
// active even while its own flag remains set.
func (c *Company) EffectiveIsActive() bool {
	return c.IsActive && !c.SuspendedByAdmin
}

// Suspend marks the company suspended by an administrator
func (c *Company) Suspend() error {
	if c.SuspendedByAdmin {
		return shared.NewDomainError("ALREADY_SUSPENDED", "Company is already suspended")
	}
	c.SuspendedByAdmin = true
	c.UpdatedAt = time.Now()
	return nil
}

// Reinstate lifts an administrative suspension
func (c *Company) Reinstate() error {
	if !c.SuspendedByAdmin {
		return shared.NewDomainError("NOT_SUSPENDED", "Company is not suspended")
	}
	c.SuspendedByAdmin = false
	c.UpdatedAt = time.Now()
	return nil
}

// Deactivate marks the company inactive
func (c *Company) Deactivate() error {
	if !c.IsActive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Company is already inactive")
	}
	c.IsActive = false
	c.UpdatedAt = time.Now()
	return nil
}

// Activate marks the company active again
func (c *Company) Activate() error {
	if c.IsActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Company is already active")
	}
	c.IsActive = true
	c.UpdatedAt = time.Now()
	return nil
}

func validateCompanyCode(code string) error {
	if code == "" {
		return shared.NewValidationError("code", "company code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewValidationError("code", "company code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewValidationError("code", "company code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}
