package authz

import "github.com/crpledger/core/internal/domain/tenancy"

// DenialReason says why an operation was denied. The three reasons are
// deliberately distinct: a caller with no company binding, a caller whose
// binding does not own the object, and a caller whose company is suspended
// are different faults and must surface differently.
type DenialReason string

const (
	// ReasonNone is set on allowed decisions
	ReasonNone DenialReason = ""
	// ReasonUnauthorizedNoContext denies a non-elevated caller with no bound company
	ReasonUnauthorizedNoContext DenialReason = "UNAUTHORIZED_NO_CONTEXT"
	// ReasonCrossTenantAccessDenied denies access to an object owned by another company
	ReasonCrossTenantAccessDenied DenialReason = "CROSS_TENANT_ACCESS_DENIED"
	// ReasonInactiveTenant denies a caller whose company is inactive or suspended
	ReasonInactiveTenant DenialReason = "INACTIVE_TENANT"
)

// Operation names the operation being authorized, for decisions and logs
type Operation string

// Decision is the terminal outcome of one authorization. Denial is a value,
// not an error: every caller has to look at it before touching storage.
type Decision struct {
	Operation Operation
	Allowed   bool
	Reason    DenialReason
	// Company is the caller's company, resolved exactly once for the
	// operation. Nil for elevated callers acting without a binding.
	Company *tenancy.Company
}

// Denied reports whether the operation was denied
func (d Decision) Denied() bool {
	return !d.Allowed
}

func allowed(op Operation, company *tenancy.Company) Decision {
	return Decision{Operation: op, Allowed: true, Company: company}
}

func denied(op Operation, reason DenialReason) Decision {
	return Decision{Operation: op, Reason: reason}
}
