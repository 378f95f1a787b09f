package shared

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantOwned is implemented by anything that can name its owning company.
// The second return is false for records with no owner (global records).
type TenantOwned interface {
	OwningCompany() (uuid.UUID, bool)
}

// Record is the contract every persistent tenant-scoped record fulfils.
// TenantRecord and OptionalTenantRecord provide everything except Validate,
// which each concrete type implements for its own fields.
type Record interface {
	Entity
	TenantOwned
	// RequiresCompany reports whether the record must belong to a company.
	// Optional-tenant records return false and may be global.
	RequiresCompany() bool
	// AdoptCompany sets the owning company if none is set yet.
	AdoptCompany(id uuid.UUID)
	GetVersion() int
	IncrementVersion()
	StampCreated(actor *uuid.UUID, at time.Time)
	StampUpdated(actor *uuid.UUID, at time.Time)
	Deleted() bool
	DeletedTime() (time.Time, bool)
	MarkDeleted(at time.Time)
	ClearDeleted()
	Validate() error
}

// TenantRecord is the embeddable base for records owned by exactly one
// company. Deletion is a marker, never a row removal; default queries
// exclude marked rows.
type TenantRecord struct {
	BaseEntity
	CompanyID uuid.UUID      `gorm:"type:uuid;not null;index" json:"company_id"`
	CreatedBy *uuid.UUID     `gorm:"type:uuid;index" json:"created_by"`
	UpdatedBy *uuid.UUID     `gorm:"type:uuid;index" json:"updated_by"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
	Version   int            `gorm:"not null;default:1" json:"version"`
}

// NewTenantRecord creates a record base bound to a company
func NewTenantRecord(companyID uuid.UUID) TenantRecord {
	return TenantRecord{
		BaseEntity: NewBaseEntity(),
		CompanyID:  companyID,
	}
}

// OwningCompany returns the owning company ID
func (r *TenantRecord) OwningCompany() (uuid.UUID, bool) {
	return r.CompanyID, r.CompanyID != uuid.Nil
}

// RequiresCompany is true for the required-tenant base
func (r *TenantRecord) RequiresCompany() bool { return true }

// AdoptCompany sets the owning company if unset
func (r *TenantRecord) AdoptCompany(id uuid.UUID) {
	if r.CompanyID == uuid.Nil {
		r.CompanyID = id
	}
}

// GetVersion returns the record version for optimistic locking
func (r *TenantRecord) GetVersion() int { return r.Version }

// IncrementVersion increments the version number
func (r *TenantRecord) IncrementVersion() { r.Version++ }

// StampCreated sets the create-time audit fields. Called exactly once.
func (r *TenantRecord) StampCreated(actor *uuid.UUID, at time.Time) {
	r.CreatedAt = at
	r.UpdatedAt = at
	r.CreatedBy = actor
	r.UpdatedBy = actor
}

// StampUpdated refreshes the update-time audit fields. Called on every
// mutation, soft delete included.
func (r *TenantRecord) StampUpdated(actor *uuid.UUID, at time.Time) {
	r.UpdatedAt = at
	r.UpdatedBy = actor
}

// Deleted reports whether the deletion marker is set
func (r *TenantRecord) Deleted() bool { return r.DeletedAt.Valid }

// DeletedTime returns the deletion timestamp if the marker is set
func (r *TenantRecord) DeletedTime() (time.Time, bool) {
	return r.DeletedAt.Time, r.DeletedAt.Valid
}

// MarkDeleted sets the deletion marker. No-op if already set, so the
// original deletion timestamp survives repeated calls.
func (r *TenantRecord) MarkDeleted(at time.Time) {
	if r.DeletedAt.Valid {
		return
	}
	r.DeletedAt = gorm.DeletedAt{Time: at, Valid: true}
}

// ClearDeleted removes the deletion marker, restoring the record
func (r *TenantRecord) ClearDeleted() {
	r.DeletedAt = gorm.DeletedAt{}
}

// OptionalTenantRecord is the embeddable base for records whose company is
// optional: a nil company means "global, applies to all tenants unless a
// company-specific row overrides it".
type OptionalTenantRecord struct {
	BaseEntity
	CompanyID *uuid.UUID     `gorm:"type:uuid;index" json:"company_id"`
	CreatedBy *uuid.UUID     `gorm:"type:uuid;index" json:"created_by"`
	UpdatedBy *uuid.UUID     `gorm:"type:uuid;index" json:"updated_by"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
	Version   int            `gorm:"not null;default:1" json:"version"`
}

// NewOptionalTenantRecord creates a record base with an optional company
func NewOptionalTenantRecord(companyID *uuid.UUID) OptionalTenantRecord {
	return OptionalTenantRecord{
		BaseEntity: NewBaseEntity(),
		CompanyID:  companyID,
	}
}

// OwningCompany returns the owning company, false when global
func (r *OptionalTenantRecord) OwningCompany() (uuid.UUID, bool) {
	if r.CompanyID == nil {
		return uuid.Nil, false
	}
	return *r.CompanyID, true
}

// RequiresCompany is false for the optional-tenant base
func (r *OptionalTenantRecord) RequiresCompany() bool { return false }

// AdoptCompany sets the owning company if unset
func (r *OptionalTenantRecord) AdoptCompany(id uuid.UUID) {
	if r.CompanyID == nil {
		r.CompanyID = &id
	}
}

// GetVersion returns the record version for optimistic locking
func (r *OptionalTenantRecord) GetVersion() int { return r.Version }

// IncrementVersion increments the version number
func (r *OptionalTenantRecord) IncrementVersion() { r.Version++ }

// StampCreated sets the create-time audit fields
func (r *OptionalTenantRecord) StampCreated(actor *uuid.UUID, at time.Time) {
	r.CreatedAt = at
	r.UpdatedAt = at
	r.CreatedBy = actor
	r.UpdatedBy = actor
}

// StampUpdated refreshes the update-time audit fields
func (r *OptionalTenantRecord) StampUpdated(actor *uuid.UUID, at time.Time) {
	r.UpdatedAt = at
	r.UpdatedBy = actor
}

// Deleted reports whether the deletion marker is set
func (r *OptionalTenantRecord) Deleted() bool { return r.DeletedAt.Valid }

// DeletedTime returns the deletion timestamp if the marker is set
func (r *OptionalTenantRecord) DeletedTime() (time.Time, bool) {
	return r.DeletedAt.Time, r.DeletedAt.Valid
}

// MarkDeleted sets the deletion marker, keeping the first timestamp
func (r *OptionalTenantRecord) MarkDeleted(at time.Time) {
	if r.DeletedAt.Valid {
		return
	}
	r.DeletedAt = gorm.DeletedAt{Time: at, Valid: true}
}

// ClearDeleted removes the deletion marker
func (r *OptionalTenantRecord) ClearDeleted() {
	r.DeletedAt = gorm.DeletedAt{}
}
