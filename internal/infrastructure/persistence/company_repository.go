package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/crpledger/core/internal/domain/shared"
	"github.com/crpledger/core/internal/domain/tenancy"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCompanyRepository implements tenancy.CompanyRepository. Companies
// are the tenants themselves, so none of the tenant scoping applies here;
// callers gate access through the permission guard instead.
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a company repository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// Resolve loads a company by ID for activeness checks
func (r *GormCompanyRepository) Resolve(ctx context.Context, id uuid.UUID) (*tenancy.Company, error) {
	return r.FindByID(ctx, id)
}

// FindByID finds a company by its ID
func (r *GormCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.Company, error) {
	var company tenancy.Company
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// FindByCode finds a company by its unique code
func (r *GormCompanyRepository) FindByCode(ctx context.Context, code string) (*tenancy.Company, error) {
	var company tenancy.Company
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// FindAll returns all companies ordered by code
func (r *GormCompanyRepository) FindAll(ctx context.Context) ([]tenancy.Company, error) {
	var companies []tenancy.Company
	err := r.db.WithContext(ctx).Order("code").Find(&companies).Error
	return companies, err
}

// Save creates or updates a company with an optimistic version check
func (r *GormCompanyRepository) Save(ctx context.Context, company *tenancy.Company) error {
	db := r.db.WithContext(ctx)

	var stored struct{ Version int }
	err := db.Model(&tenancy.Company{}).
		Select("version").
		Where("id = ?", company.ID).
		Take(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if company.Version == 0 {
			company.Version = 1
		}
		err := db.Create(company).Error
		if err != nil && isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	if err != nil {
		return err
	}

	if stored.Version != company.Version {
		return shared.ErrConcurrentModification
	}
	expected := company.Version
	company.Version++
	result := db.Model(company).
		Where("id = ? AND version = ?", company.ID, expected).
		Save(company)
	if result.Error != nil {
		company.Version = expected
		return result.Error
	}
	if result.RowsAffected == 0 {
		company.Version = expected
		return shared.ErrConcurrentModification
	}
	return nil
}

// isUniqueViolation matches driver-level unique constraint errors
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
