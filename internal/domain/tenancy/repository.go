package tenancy

import (
	"context"

	"github.com/google/uuid"
)

// CompanyResolver resolves a company by ID. The save pipeline and the
// permission guard read the active flag through this exactly once per
// operation; implementations may cache.
type CompanyResolver interface {
	Resolve(ctx context.Context, id uuid.UUID) (*Company, error)
}

// CompanyRepository is the storage contract for companies
type CompanyRepository interface {
	CompanyResolver
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)
	FindByCode(ctx context.Context, code string) (*Company, error)
	FindAll(ctx context.Context) ([]Company, error)
	Save(ctx context.Context, company *Company) error
}

// MembershipRepository is the storage contract for company memberships
type MembershipRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Membership, error)
	FindByUser(ctx context.Context, companyID, userID uuid.UUID) (*Membership, error)
}
