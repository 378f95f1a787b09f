// Package authz decides whether a principal may run an operation against
// tenant-scoped data. It resolves the caller's company exactly once per
// operation and, for single-object operations, independently re-checks that
// the object belongs to that company, even when the object was fetched by
// primary key through a path that skipped query-time scoping.
package authz

import (
	"context"

	"github.com/crpledger/core/internal/domain/shared"
	"github.com/crpledger/core/internal/domain/tenancy"
	"github.com/crpledger/core/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// resolution is the per-operation state: Unresolved until the caller's
// binding has been looked at, then exactly one of the three resolved
// states, then a terminal Decision.
type resolution int

const (
	unresolved resolution = iota
	resolvedActive
	resolvedInactive
	unresolvedDenied
)

// Guard authorizes operations against tenant-scoped records
type Guard struct {
	companies tenancy.CompanyResolver
}

// NewGuard creates a guard backed by the given company resolver
func NewGuard(companies tenancy.CompanyResolver) *Guard {
	return &Guard{companies: companies}
}

// Authorize decides one operation for one principal. object may be nil for
// list-level checks; when present, its ownership is verified against the
// caller's company regardless of how it was loaded.
//
// Elevated principals bypass tenant restriction entirely. Elevation is
// only ever the explicit flag on the principal; a missing company binding
// does not grant anything.
func (g *Guard) Authorize(ctx context.Context, p tenancy.Principal, op Operation, object shared.TenantOwned) Decision {
	if p.Elevated {
		return allowed(op, nil)
	}

	state := unresolved
	var company *tenancy.Company

	companyID, bound := p.BoundCompany()
	if !bound {
		state = unresolvedDenied
	} else {
		resolved, err := g.companies.Resolve(ctx, companyID)
		if err != nil || resolved == nil {
			logger.L(ctx).Warn("authorize: bound company could not be resolved",
				zap.String("operation", string(op)),
				zap.String("company_id", companyID.String()),
				zap.Error(err))
			state = unresolvedDenied
		} else if !resolved.EffectiveIsActive() {
			state = resolvedInactive
		} else {
			state = resolvedActive
			company = resolved
		}
	}

	switch state {
	case unresolvedDenied:
		return denied(op, ReasonUnauthorizedNoContext)
	case resolvedInactive:
		return denied(op, ReasonInactiveTenant)
	}

	if object != nil {
		ownerID, owned := object.OwningCompany()
		// Global records (no owner) pass the object check.
		if owned && ownerID != company.ID {
			logger.L(ctx).Warn("authorize: cross-tenant object access denied",
				zap.String("operation", string(op)),
				zap.String("caller_company_id", company.ID.String()),
				zap.String("object_company_id", ownerID.String()))
			return denied(op, ReasonCrossTenantAccessDenied)
		}
	}

	return allowed(op, company)
}

// AuthorizeCurrent authorizes using the principal bound to the unit of
// work. An anonymous unit of work is denied with no-context.
func (g *Guard) AuthorizeCurrent(ctx context.Context, op Operation, object shared.TenantOwned) Decision {
	p, ok := tenancy.CurrentPrincipal(ctx)
	if !ok {
		return denied(op, ReasonUnauthorizedNoContext)
	}
	return g.Authorize(ctx, p, op, object)
}
