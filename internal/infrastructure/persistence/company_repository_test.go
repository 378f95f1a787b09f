package persistence

import (
	"context"
	"testing"

	"github.com/crpledger/core/internal/domain/shared"
	"github.com/crpledger/core/internal/domain/tenancy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyRepositoryRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	byID, err := f.companies.FindByID(ctx, f.companyA.ID)
	require.NoError(t, err)
	assert.Equal(t, "AAA", byID.Code)

	byCode, err := f.companies.FindByCode(ctx, "AAA")
	require.NoError(t, err)
	assert.Equal(t, f.companyA.ID, byCode.ID)

	all, err := f.companies.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCompanyRepositoryNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.companies.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = f.companies.FindByCode(context.Background(), "NOPE")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCompanyRepositoryVersionedUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.companyA.Suspend())
	require.NoError(t, f.companies.Save(ctx, f.companyA))
	assert.Equal(t, 2, f.companyA.Version)

	stored, err := f.companies.FindByID(ctx, f.companyA.ID)
	require.NoError(t, err)
	assert.True(t, stored.SuspendedByAdmin)
	assert.False(t, stored.EffectiveIsActive())
}

func TestCompanyRepositoryConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stale := *f.companyA
	require.NoError(t, f.companyA.Suspend())
	require.NoError(t, f.companies.Save(ctx, f.companyA))

	require.NoError(t, stale.Deactivate())
	err := f.companies.Save(ctx, &stale)
	assert.ErrorIs(t, err, shared.ErrConcurrentModification)
}

func TestCompanyRepositoryDuplicateCode(t *testing.T) {
	f := newFixture(t)
	dup, err := tenancy.NewCompany("aaa", "Another A", "USD")
	require.NoError(t, err)

	err = f.companies.Save(context.Background(), dup)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}
