package tenancy

import (
	"context"

	"github.com/crpledger/core/internal/domain/tenancy"
	"github.com/crpledger/core/internal/infrastructure/persistence/scope"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecordAdminService is the admin tooling over tenant-scoped records:
// listing across the full scope and deletion matrix, and reversing soft
// deletes. Callers state their criteria explicitly; a non-elevated caller
// asking for an unscoped view gets an empty result, not an error.
type RecordAdminService struct {
	store    MembershipStore
	pipeline RecordPipeline
	logger   *zap.Logger
}

// NewRecordAdminService creates a new record admin service
func NewRecordAdminService(
	store MembershipStore,
	pipeline RecordPipeline,
	logger *zap.Logger,
) *RecordAdminService {
	return &RecordAdminService{
		store:    store,
		pipeline: pipeline,
		logger:   logger,
	}
}

// ListMemberships lists membership records under explicit criteria
func (s *RecordAdminService) ListMemberships(ctx context.Context, c scope.Criteria) ([]tenancy.Membership, error) {
	return s.store.List(ctx, c)
}

// SoftDeleteMembership marks a membership deleted, cascading to any
// registered children
func (s *RecordAdminService) SoftDeleteMembership(ctx context.Context, id uuid.UUID) error {
	m, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.pipeline.SoftDelete(ctx, m); err != nil {
		return err
	}
	s.logger.Info("membership soft-deleted by admin", zap.String("membership_id", id.String()))
	return nil
}

// RestoreMembership reverses a soft delete
func (s *RecordAdminService) RestoreMembership(ctx context.Context, id uuid.UUID) error {
	m, err := s.store.FindIncludingDeleted(ctx, id)
	if err != nil {
		return err
	}
	if err := s.pipeline.Restore(ctx, m); err != nil {
		return err
	}
	s.logger.Info("membership restored by admin", zap.String("membership_id", id.String()))
	return nil
}
