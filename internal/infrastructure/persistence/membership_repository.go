package persistence

import (
	"context"
	"errors"

	"github.com/crpledger/core/internal/domain/shared"
	"github.com/crpledger/core/internal/domain/tenancy"
	"github.com/crpledger/core/internal/infrastructure/persistence/scope"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMembershipRepository implements tenancy.MembershipRepository on top
// of the scoped query path. Every read states its criteria; a caller with
// no resolvable company gets nothing.
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewGormMembershipRepository creates a membership repository
func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	return &GormMembershipRepository{db: db}
}

// FindByID finds an active membership visible to the current unit of work
func (r *GormMembershipRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.Membership, error) {
	var m tenancy.Membership
	err := scope.Apply(ctx, r.db.Model(&tenancy.Membership{}), scope.Criteria{}).
		Where("id = ?", id).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindIncludingDeleted finds a membership regardless of deletion state,
// still restricted to the current unit of work's company
func (r *GormMembershipRepository) FindIncludingDeleted(ctx context.Context, id uuid.UUID) (*tenancy.Membership, error) {
	var m tenancy.Membership
	err := scope.Apply(ctx, r.db.Model(&tenancy.Membership{}), scope.Criteria{Deletion: scope.All}).
		Where("id = ?", id).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns memberships under explicit scope criteria
func (r *GormMembershipRepository) List(ctx context.Context, c scope.Criteria) ([]tenancy.Membership, error) {
	return QueryRecords[tenancy.Membership](ctx, r.db, c)
}

// FindByUser finds a user's active membership in a company
func (r *GormMembershipRepository) FindByUser(ctx context.Context, companyID, userID uuid.UUID) (*tenancy.Membership, error) {
	var m tenancy.Membership
	err := scope.Apply(ctx, r.db.Model(&tenancy.Membership{}), scope.Criteria{}).
		Scopes(scope.CompanyScope(companyID)).
		Where("user_id = ?", userID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
