package tenancy

import (
	"context"
	"errors"

	"github.com/crpledger/core/internal/domain/authz"
	"github.com/crpledger/core/internal/domain/shared"
	"github.com/crpledger/core/internal/domain/tenancy"
	"github.com/crpledger/core/internal/infrastructure/persistence/scope"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Membership operations, named for decisions and logs
const (
	OpMemberAdd     authz.Operation = "members.add"
	OpMemberRemove  authz.Operation = "members.remove"
	OpMemberRestore authz.Operation = "members.restore"
	OpMemberList    authz.Operation = "members.list"
)

// RecordPipeline is the write path every tenant-scoped record goes through
type RecordPipeline interface {
	Save(ctx context.Context, rec shared.Record) error
	SoftDelete(ctx context.Context, rec shared.Record) error
	Restore(ctx context.Context, rec shared.Record) error
}

// MembershipStore extends the domain repository with the scoped reads the
// services need
type MembershipStore interface {
	tenancy.MembershipRepository
	FindIncludingDeleted(ctx context.Context, id uuid.UUID) (*tenancy.Membership, error)
	List(ctx context.Context, c scope.Criteria) ([]tenancy.Membership, error)
}

// MembershipService administers the members of a company. Every call is
// authorized first; the returned Decision says why a call changed nothing.
type MembershipService struct {
	store    MembershipStore
	pipeline RecordPipeline
	guard    *authz.Guard
	logger   *zap.Logger
}

// NewMembershipService creates a new membership service
func NewMembershipService(
	store MembershipStore,
	pipeline RecordPipeline,
	guard *authz.Guard,
	logger *zap.Logger,
) *MembershipService {
	return &MembershipService{
		store:    store,
		pipeline: pipeline,
		guard:    guard,
		logger:   logger,
	}
}

// AddMemberInput contains input for adding a member
type AddMemberInput struct {
	// CompanyID is only honored for elevated callers; everyone else adds
	// members to their own company.
	CompanyID *uuid.UUID
	UserID    uuid.UUID
	Role      tenancy.MembershipRole
}

// AddMember adds a user to a company
func (s *MembershipService) AddMember(ctx context.Context, input AddMemberInput) (*tenancy.Membership, authz.Decision, error) {
	decision := s.guard.AuthorizeCurrent(ctx, OpMemberAdd, nil)
	if decision.Denied() {
		return nil, decision, nil
	}

	companyID, err := s.targetCompany(decision, input.CompanyID)
	if err != nil {
		return nil, decision, err
	}

	if existing, err := s.store.FindByUser(ctx, companyID, input.UserID); err == nil && existing != nil {
		return nil, decision, shared.ErrAlreadyExists
	} else if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, decision, err
	}

	m := tenancy.NewMembership(companyID, input.UserID, input.Role)
	if err := s.pipeline.Save(ctx, m); err != nil {
		return nil, decision, err
	}

	s.logger.Info("member added",
		zap.String("membership_id", m.ID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("user_id", input.UserID.String()))
	return m, decision, nil
}

// RemoveMember soft-deletes a membership
func (s *MembershipService) RemoveMember(ctx context.Context, id uuid.UUID) (authz.Decision, error) {
	m, err := s.store.FindByID(ctx, id)
	if err != nil {
		return authz.Decision{Operation: OpMemberRemove}, err
	}

	decision := s.guard.AuthorizeCurrent(ctx, OpMemberRemove, m)
	if decision.Denied() {
		return decision, nil
	}

	if err := s.pipeline.SoftDelete(ctx, m); err != nil {
		return decision, err
	}
	s.logger.Info("member removed", zap.String("membership_id", id.String()))
	return decision, nil
}

// RestoreMember brings a soft-deleted membership back
func (s *MembershipService) RestoreMember(ctx context.Context, id uuid.UUID) (authz.Decision, error) {
	m, err := s.store.FindIncludingDeleted(ctx, id)
	if err != nil {
		return authz.Decision{Operation: OpMemberRestore}, err
	}

	decision := s.guard.AuthorizeCurrent(ctx, OpMemberRestore, m)
	if decision.Denied() {
		return decision, nil
	}

	if err := s.pipeline.Restore(ctx, m); err != nil {
		return decision, err
	}
	s.logger.Info("member restored", zap.String("membership_id", id.String()))
	return decision, nil
}

// ListMembers returns the current company's members under the given
// deletion filter
func (s *MembershipService) ListMembers(ctx context.Context, deletion scope.DeletionFilter) ([]tenancy.Membership, authz.Decision, error) {
	decision := s.guard.AuthorizeCurrent(ctx, OpMemberList, nil)
	if decision.Denied() {
		return nil, decision, nil
	}
	members, err := s.store.List(ctx, scope.Criteria{
		Tenant:   scope.TenantScoped,
		Deletion: deletion,
	})
	return members, decision, err
}

// targetCompany resolves which company a mutation applies to. Elevated
// callers must name one; everyone else gets their own.
func (s *MembershipService) targetCompany(decision authz.Decision, explicit *uuid.UUID) (uuid.UUID, error) {
	if decision.Company != nil {
		if explicit != nil && *explicit != decision.Company.ID {
			return uuid.Nil, shared.NewValidationError("company_id", "cannot act on another company")
		}
		return decision.Company.ID, nil
	}
	if explicit == nil {
		return uuid.Nil, shared.NewValidationError("company_id", "elevated callers must name a company")
	}
	return *explicit, nil
}
