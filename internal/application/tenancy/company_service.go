// Package tenancy implements the application services for company
// lifecycle and membership administration.
package tenancy

import (
	"context"

	"github.com/crpledger/core/internal/domain/shared"
	"github.com/crpledger/core/internal/domain/tenancy"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrElevationRequired rejects company lifecycle calls from non-elevated
// principals. Membership in a company, even as owner, does not grant
// control over the tenant roster itself.
var ErrElevationRequired = shared.NewDomainError("ELEVATION_REQUIRED", "Operation requires an elevated principal")

// CompanyCacheInvalidator drops a company from the resolver cache so a
// lifecycle change takes effect immediately
type CompanyCacheInvalidator interface {
	Invalidate(ctx context.Context, id uuid.UUID)
}

// CompanyService handles company lifecycle operations
type CompanyService struct {
	companies tenancy.CompanyRepository
	cache     CompanyCacheInvalidator
	logger    *zap.Logger
}

// NewCompanyService creates a new company service
func NewCompanyService(
	companies tenancy.CompanyRepository,
	cache CompanyCacheInvalidator,
	logger *zap.Logger,
) *CompanyService {
	return &CompanyService{
		companies: companies,
		cache:     cache,
		logger:    logger,
	}
}

// CreateCompanyInput contains input for creating a company
type CreateCompanyInput struct {
	Code            string
	Name            string
	DefaultCurrency string
}

// CreateCompany registers a new tenant. Elevated principals only.
func (s *CompanyService) CreateCompany(ctx context.Context, input CreateCompanyInput) (*tenancy.Company, error) {
	if !tenancy.IsElevated(ctx) {
		return nil, ErrElevationRequired
	}

	company, err := tenancy.NewCompany(input.Code, input.Name, input.DefaultCurrency)
	if err != nil {
		return nil, err
	}
	if err := s.companies.Save(ctx, company); err != nil {
		return nil, err
	}

	s.logger.Info("company created",
		zap.String("company_id", company.ID.String()),
		zap.String("code", company.Code))
	return company, nil
}

// GetCompany returns a company by ID
func (s *CompanyService) GetCompany(ctx context.Context, id uuid.UUID) (*tenancy.Company, error) {
	return s.companies.FindByID(ctx, id)
}

// ListCompanies returns all companies. Elevated principals only.
func (s *CompanyService) ListCompanies(ctx context.Context) ([]tenancy.Company, error) {
	if !tenancy.IsElevated(ctx) {
		return nil, ErrElevationRequired
	}
	return s.companies.FindAll(ctx)
}

// SuspendCompany suspends a tenant. Every save and authorization against
// the company starts failing as soon as the cache entry is dropped.
func (s *CompanyService) SuspendCompany(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, "company suspended", (*tenancy.Company).Suspend)
}

// ReinstateCompany lifts an administrative suspension
func (s *CompanyService) ReinstateCompany(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, "company reinstated", (*tenancy.Company).Reinstate)
}

// DeactivateCompany marks a tenant inactive
func (s *CompanyService) DeactivateCompany(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, "company deactivated", (*tenancy.Company).Deactivate)
}

// ActivateCompany marks a tenant active again
func (s *CompanyService) ActivateCompany(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, "company activated", (*tenancy.Company).Activate)
}

func (s *CompanyService) transition(ctx context.Context, id uuid.UUID, msg string, change func(*tenancy.Company) error) error {
	if !tenancy.IsElevated(ctx) {
		return ErrElevationRequired
	}

	company, err := s.companies.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := change(company); err != nil {
		return err
	}
	if err := s.companies.Save(ctx, company); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}

	s.logger.Info(msg, zap.String("company_id", id.String()))
	return nil
}
