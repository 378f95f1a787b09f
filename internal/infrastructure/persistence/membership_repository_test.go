package persistence

import (
	"testing"

	"github.com/crpledger/core/internal/domain/shared"
	"github.com/crpledger/core/internal/domain/tenancy"
	"github.com/crpledger/core/internal/infrastructure/persistence/scope"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A record created under one company is visible inside it and invisible
// from any other company, across every scope and deletion combination.
func TestMembershipIsolationRoundTrip(t *testing.T) {
	f := newFixture(t)
	repo := NewGormMembershipRepository(f.db)

	ctxA, _ := f.ctxFor(f.companyA)
	ctxB, _ := f.ctxFor(f.companyB)

	m := newUnboundMembership(uuid.New())
	require.NoError(t, f.pipeline.Save(ctxA, m))

	found, err := repo.FindByID(ctxA, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, found.ID)

	_, err = repo.FindByID(ctxB, m.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	for _, d := range []scope.DeletionFilter{scope.ActiveOnly, scope.DeletedOnly, scope.All} {
		listedA, err := repo.List(ctxA, scope.Criteria{Tenant: scope.TenantScoped, Deletion: d})
		require.NoError(t, err)
		listedB, err := repo.List(ctxB, scope.Criteria{Tenant: scope.TenantScoped, Deletion: d})
		require.NoError(t, err)
		if d == scope.DeletedOnly {
			assert.Empty(t, listedA)
		} else {
			assert.Len(t, listedA, 1)
		}
		assert.Empty(t, listedB)
	}
}

func TestMembershipDeletionAxis(t *testing.T) {
	f := newFixture(t)
	repo := NewGormMembershipRepository(f.db)
	ctx, _ := f.ctxFor(f.companyA)

	live := newUnboundMembership(uuid.New())
	gone := newUnboundMembership(uuid.New())
	require.NoError(t, f.pipeline.Save(ctx, live))
	require.NoError(t, f.pipeline.Save(ctx, gone))
	require.NoError(t, f.pipeline.SoftDelete(ctx, gone))

	active, err := repo.List(ctx, scope.Criteria{Deletion: scope.ActiveOnly})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, live.ID, active[0].ID)

	deleted, err := repo.List(ctx, scope.Criteria{Deletion: scope.DeletedOnly})
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, gone.ID, deleted[0].ID)

	all, err := repo.List(ctx, scope.Criteria{Deletion: scope.All})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMembershipUnscopedNeedsElevation(t *testing.T) {
	f := newFixture(t)
	repo := NewGormMembershipRepository(f.db)

	ctxA, _ := f.ctxFor(f.companyA)
	ctxB, _ := f.ctxFor(f.companyB)
	require.NoError(t, f.pipeline.Save(ctxA, newUnboundMembership(uuid.New())))
	require.NoError(t, f.pipeline.Save(ctxB, newUnboundMembership(uuid.New())))

	// A tenant-bound caller asking for the unscoped view gets nothing.
	listed, err := repo.List(ctxA, scope.Criteria{Tenant: scope.Unscoped, Deletion: scope.All})
	require.NoError(t, err)
	assert.Empty(t, listed)

	listed, err = repo.List(f.elevatedCtx(), scope.Criteria{Tenant: scope.Unscoped, Deletion: scope.All})
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestMembershipFindByUser(t *testing.T) {
	f := newFixture(t)
	repo := NewGormMembershipRepository(f.db)
	ctx, _ := f.ctxFor(f.companyA)

	userID := uuid.New()
	m := newUnboundMembership(userID)
	require.NoError(t, f.pipeline.Save(ctx, m))

	found, err := repo.FindByUser(ctx, f.companyA.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, found.ID)

	_, err = repo.FindByUser(ctx, f.companyA.ID, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMembershipFindIncludingDeleted(t *testing.T) {
	f := newFixture(t)
	repo := NewGormMembershipRepository(f.db)
	ctx, _ := f.ctxFor(f.companyA)

	m := newUnboundMembership(uuid.New())
	require.NoError(t, f.pipeline.Save(ctx, m))
	require.NoError(t, f.pipeline.SoftDelete(ctx, m))

	_, err := repo.FindByID(ctx, m.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	found, err := repo.FindIncludingDeleted(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, found.Deleted())
}

var _ tenancy.MembershipRepository = (*GormMembershipRepository)(nil)
