// Package scope turns the two filtering axes of tenant-scoped storage,
// tenant scope and deletion state, into one parameterized GORM scope.
//
// Every query names its Criteria explicitly:
//
//	db := scope.Apply(ctx, db.Model(&tenancy.Membership{}), scope.Criteria{
//		Tenant:   scope.TenantScoped,
//		Deletion: scope.ActiveOnly,
//	})
//	db.Find(&memberships) // WHERE company_id = ? AND deleted_at IS NULL
//
// The axes compose orthogonally: adding a deletion filter never drops the
// tenant filter. A tenant-scoped query with no resolvable company fails
// closed to an empty result set, never to every tenant's rows.
package scope

import (
	"context"

	"github.com/crpledger/core/internal/domain/tenancy"
	"github.com/crpledger/core/internal/infrastructure/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantScope selects the tenant axis of a query
type TenantScope int

const (
	// TenantScoped restricts rows to the company bound to the unit of work
	TenantScoped TenantScope = iota
	// Unscoped spans all tenants; reachable only by elevated principals
	Unscoped
)

// DeletionFilter selects the deletion axis of a query
type DeletionFilter int

const (
	// ActiveOnly excludes soft-deleted rows (the default access path)
	ActiveOnly DeletionFilter = iota
	// DeletedOnly returns only soft-deleted rows
	DeletedOnly
	// All returns rows regardless of deletion state
	All
)

// Criteria pairs the two axes. The zero value is the strictest
// combination: tenant-scoped, active rows only.
type Criteria struct {
	Tenant   TenantScope
	Deletion DeletionFilter
}

// denyAll is the fail-closed predicate: an empty result set rather than
// an error, and never another tenant's rows.
func denyAll(db *gorm.DB) *gorm.DB {
	return db.Where("1 = 0")
}

// exemptKey marks a context whose statements the guard callbacks leave
// alone. The mark lives on the context rather than on a *gorm.DB
// instance: GORM materializes a shared statement as soon as a setting is
// stored on a handle, and a finisher run on that statement would leak
// its error and clauses into every later use of the same handle. A
// context mark survives GORM's per-chain statement cloning instead.
type exemptKey struct{}

// ExemptContext marks the context as a trusted path (the save pipeline,
// migrations) so the guard callbacks skip its statements.
func ExemptContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, exemptKey{}, true)
}

func exempted(ctx context.Context) bool {
	v, _ := ctx.Value(exemptKey{}).(bool)
	return v
}

// Apply filters db according to the criteria and the unit-of-work context.
// The returned DB is marked exempt from the guard callbacks, which exist
// to catch queries that never went through here.
func Apply(ctx context.Context, db *gorm.DB, c Criteria) *gorm.DB {
	db = db.WithContext(ExemptContext(ctx))
	db = applyDeletion(db, c.Deletion)

	switch c.Tenant {
	case TenantScoped:
		if id, ok := tenancy.CurrentCompanyID(ctx); ok {
			return db.Where("company_id = ?", id)
		}
		if tenancy.IsElevated(ctx) {
			// An explicitly elevated caller with no binding spans tenants.
			return db
		}
		logger.L(ctx).Debug("tenant-scoped query with no resolvable company; returning empty set")
		return denyAll(db)
	case Unscoped:
		if tenancy.IsElevated(ctx) {
			return db
		}
		logger.L(ctx).Warn("unscoped query attempted without elevation; returning empty set")
		return denyAll(db)
	default:
		return denyAll(db)
	}
}

// applyDeletion applies the deletion axis on the deleted_at marker
func applyDeletion(db *gorm.DB, d DeletionFilter) *gorm.DB {
	switch d {
	case ActiveOnly:
		// GORM's soft-delete default already excludes marked rows.
		return db
	case DeletedOnly:
		return db.Unscoped().Where("deleted_at IS NOT NULL")
	case All:
		return db.Unscoped()
	default:
		return denyAll(db)
	}
}

// Exempt marks the handle's statements as produced by a trusted path so
// the guard callbacks leave them alone. The returned handle stays in
// session mode: each chained query gets its own statement, so a finisher
// on one query never pollutes the next.
func Exempt(db *gorm.DB) *gorm.DB {
	return db.WithContext(ExemptContext(db.Statement.Context))
}

// CompanyScope filters by an explicit company ID. For privileged flows
// that act on a named tenant instead of the unit-of-work binding.
func CompanyScope(companyID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("company_id = ?", companyID)
	}
}

// CompanyOrGlobalScope filters to a company's rows plus global fallbacks
// (company_id IS NULL). For optional-tenant records like the rate ledger.
func CompanyOrGlobalScope(companyID *uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if companyID == nil {
			return db.Where("company_id IS NULL")
		}
		return db.Where("company_id = ? OR company_id IS NULL", *companyID)
	}
}
