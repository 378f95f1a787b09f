package tenancy

import (
	"github.com/crpledger/core/internal/domain/shared"
	"github.com/google/uuid"
)

// MembershipRole is the role a user holds inside a company
type MembershipRole string

const (
	RoleOwner      MembershipRole = "owner"
	RoleAccountant MembershipRole = "accountant"
	RoleViewer     MembershipRole = "viewer"
)

// Membership links a user to a company. It is a regular tenant-scoped
// record: it is created through the save pipeline, soft-deletes instead of
// disappearing, and is only visible inside its own company.
type Membership struct {
	shared.TenantRecord
	UserID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_memberships_company_user" validate:"required"`
	Role     MembershipRole `gorm:"type:varchar(20);not null;default:'viewer'" validate:"required,oneof=owner accountant viewer"`
	IsActive bool           `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Membership) TableName() string {
	return "company_memberships"
}

// NewMembership creates a membership bound to a company
func NewMembership(companyID, userID uuid.UUID, role MembershipRole) *Membership {
	return &Membership{
		TenantRecord: shared.NewTenantRecord(companyID),
		UserID:       userID,
		Role:         role,
		IsActive:     true,
	}
}

// Validate checks membership fields beyond struct tags
func (m *Membership) Validate() error {
	if m.UserID == uuid.Nil {
		return shared.NewValidationError("user_id", "membership requires a user")
	}
	switch m.Role {
	case RoleOwner, RoleAccountant, RoleViewer:
		return nil
	default:
		return shared.NewValidationError("role", "unknown membership role")
	}
}
