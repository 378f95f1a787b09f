package tenancy

import (
	"context"

	"github.com/google/uuid"
)

// The current company and principal are carried by the unit-of-work
// context.Context, set at the boundary (request middleware, task runner)
// and gone when the context is. There is no process-wide current tenant:
// concurrent units of work can never observe each other's binding.
//
// Operations spanning multiple tenants must pass companies explicitly
// instead of reading the binding.

// contextKey is a type for context keys used by this package
type contextKey string

const (
	companyKey   contextKey = "tenancy_company"
	principalKey contextKey = "tenancy_principal"
)

// WithCompany returns a context bound to the given company for the
// duration of one unit of work
func WithCompany(ctx context.Context, company *Company) context.Context {
	return context.WithValue(ctx, companyKey, company)
}

// CurrentCompany returns the company the unit of work is running as,
// or false when no binding exists
func CurrentCompany(ctx context.Context) (*Company, bool) {
	company, ok := ctx.Value(companyKey).(*Company)
	if !ok || company == nil {
		return nil, false
	}
	return company, true
}

// CurrentCompanyID returns the bound company ID, or false
func CurrentCompanyID(ctx context.Context) (uuid.UUID, bool) {
	company, ok := CurrentCompany(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return company.ID, true
}

// WithPrincipal returns a context carrying the acting principal
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// CurrentPrincipal returns the acting principal, or false when the unit
// of work is anonymous
func CurrentPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// CurrentActor returns the acting principal's ID for audit stamping,
// nil when anonymous
func CurrentActor(ctx context.Context) *uuid.UUID {
	p, ok := CurrentPrincipal(ctx)
	if !ok {
		return nil
	}
	return p.Actor()
}

// IsElevated reports whether the unit of work runs with an explicitly
// elevated principal
func IsElevated(ctx context.Context) bool {
	p, ok := CurrentPrincipal(ctx)
	return ok && p.Elevated
}

// BindUnitOfWork binds both the principal and, when the principal carries
// an active company, the company itself. Boundary code resolves the
// company once and calls this; everything downstream reuses the binding.
func BindUnitOfWork(ctx context.Context, p Principal, company *Company) context.Context {
	ctx = WithPrincipal(ctx, p)
	if company != nil {
		ctx = WithCompany(ctx, company)
	}
	return ctx
}
