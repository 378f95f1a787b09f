package tenancy

import "github.com/google/uuid"

// Principal is the acting caller of an operation. Elevation is an explicit
// flag set by the authentication layer; it is never inferred from a missing
// company binding.
type Principal struct {
	ID        uuid.UUID
	Name      string
	Elevated  bool
	CompanyID *uuid.UUID
}

// NewPrincipal creates a principal bound to a company
func NewPrincipal(id uuid.UUID, name string, companyID uuid.UUID) Principal {
	return Principal{ID: id, Name: name, CompanyID: &companyID}
}

// NewElevatedPrincipal creates a principal that bypasses tenant restriction
func NewElevatedPrincipal(id uuid.UUID, name string) Principal {
	return Principal{ID: id, Name: name, Elevated: true}
}

// BoundCompany returns the company the principal is bound to
func (p Principal) BoundCompany() (uuid.UUID, bool) {
	if p.CompanyID == nil {
		return uuid.Nil, false
	}
	return *p.CompanyID, true
}

// Actor returns the principal ID for audit stamping, nil for the zero
// principal (system actions)
func (p Principal) Actor() *uuid.UUID {
	if p.ID == uuid.Nil {
		return nil
	}
	id := p.ID
	return &id
}
