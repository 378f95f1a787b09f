package persistence

import (
	"testing"
	"time"

	"github.com/crpledger/core/internal/domain/currency"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRateFixture(t *testing.T) (*fixture, *GormRateRepository) {
	t.Helper()
	f := newFixture(t)
	return f, NewGormRateRepository(f.db, f.pipeline)
}

func mustRate(t *testing.T, companyID *uuid.UUID, from, to currency.Code, day time.Time, value string) *currency.ExchangeRate {
	t.Helper()
	rate, err := currency.NewExchangeRate(companyID, from, to, day, decimal.RequireFromString(value), "")
	require.NoError(t, err)
	return rate
}

var march15 = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

// A company's own rate shadows the global one for the same date.
func TestEffectiveCompanyOverridesGlobal(t *testing.T) {
	f, rates := newRateFixture(t)
	ctx := f.elevatedCtx()

	require.NoError(t, rates.Save(ctx, mustRate(t, nil, currency.USD, currency.INR, march15, "83.0")))
	require.NoError(t, rates.Save(ctx, mustRate(t, &f.companyA.ID, currency.USD, currency.INR, march15, "84.0")))

	got, err := rates.Effective(ctx, &f.companyA.ID, currency.USD, currency.INR, march15)
	require.NoError(t, err)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("84.0")))

	// Another company without an override sees the global rate.
	got, err = rates.Effective(ctx, &f.companyB.ID, currency.USD, currency.INR, march15)
	require.NoError(t, err)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("83.0")))

	// So does a global lookup.
	got, err = rates.Effective(ctx, nil, currency.USD, currency.INR, march15)
	require.NoError(t, err)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("83.0")))
}

// With no row for the requested date the most recent prior row applies.
func TestEffectiveFallsBackToPriorDate(t *testing.T) {
	f, rates := newRateFixture(t)
	ctx := f.elevatedCtx()

	require.NoError(t, rates.Save(ctx, mustRate(t, nil, currency.USD, currency.INR, march15.AddDate(0, 0, -10), "82.0")))
	require.NoError(t, rates.Save(ctx, mustRate(t, nil, currency.USD, currency.INR, march15.AddDate(0, 0, -3), "82.5")))

	got, err := rates.Effective(ctx, nil, currency.USD, currency.INR, march15)
	require.NoError(t, err)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("82.5")))
	assert.True(t, got.Date.Equal(march15.AddDate(0, 0, -3)))
}

// A company's older row still wins over a fresher global row.
func TestEffectivePrefersCompanyOverFresherGlobal(t *testing.T) {
	f, rates := newRateFixture(t)
	ctx := f.elevatedCtx()

	require.NoError(t, rates.Save(ctx, mustRate(t, &f.companyA.ID, currency.USD, currency.INR, march15.AddDate(0, 0, -10), "84.0")))
	require.NoError(t, rates.Save(ctx, mustRate(t, nil, currency.USD, currency.INR, march15.AddDate(0, 0, -1), "83.0")))

	got, err := rates.Effective(ctx, &f.companyA.ID, currency.USD, currency.INR, march15)
	require.NoError(t, err)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("84.0")))
}

func TestEffectiveIgnoresFutureRates(t *testing.T) {
	f, rates := newRateFixture(t)
	ctx := f.elevatedCtx()

	require.NoError(t, rates.Save(ctx, mustRate(t, nil, currency.USD, currency.INR, march15.AddDate(0, 0, 5), "85.0")))

	_, err := rates.Effective(ctx, nil, currency.USD, currency.INR, march15)
	assert.ErrorIs(t, err, currency.ErrRateNotFound)
}

func TestEffectiveNotFound(t *testing.T) {
	f, rates := newRateFixture(t)
	_, err := rates.Effective(f.elevatedCtx(), nil, currency.EUR, currency.JPY, march15)
	assert.ErrorIs(t, err, currency.ErrRateNotFound)
}

// One tenant's rates never influence another tenant's lookups.
func TestEffectiveNeverLeaksAcrossCompanies(t *testing.T) {
	f, rates := newRateFixture(t)
	ctx := f.elevatedCtx()

	require.NoError(t, rates.Save(ctx, mustRate(t, &f.companyA.ID, currency.USD, currency.INR, march15, "84.0")))

	_, err := rates.Effective(ctx, &f.companyB.ID, currency.USD, currency.INR, march15)
	assert.ErrorIs(t, err, currency.ErrRateNotFound)
}

func TestSaveRejectsDuplicateKey(t *testing.T) {
	f, rates := newRateFixture(t)
	ctx := f.elevatedCtx()

	require.NoError(t, rates.Save(ctx, mustRate(t, &f.companyA.ID, currency.USD, currency.INR, march15, "84.0")))

	err := rates.Save(ctx, mustRate(t, &f.companyA.ID, currency.USD, currency.INR, march15, "84.5"))
	assert.ErrorIs(t, err, currency.ErrDuplicateRate)

	// The same key under another company, or globally, is fine.
	assert.NoError(t, rates.Save(ctx, mustRate(t, &f.companyB.ID, currency.USD, currency.INR, march15, "83.5")))
	assert.NoError(t, rates.Save(ctx, mustRate(t, nil, currency.USD, currency.INR, march15, "83.0")))

	err = rates.Save(ctx, mustRate(t, nil, currency.USD, currency.INR, march15, "82.0"))
	assert.ErrorIs(t, err, currency.ErrDuplicateRate)
}

func TestSaveAllowsUpdatingExistingRow(t *testing.T) {
	f, rates := newRateFixture(t)
	ctx := f.elevatedCtx()

	rate := mustRate(t, &f.companyA.ID, currency.USD, currency.INR, march15, "84.0")
	require.NoError(t, rates.Save(ctx, rate))

	rate.Rate = decimal.RequireFromString("84.2")
	require.NoError(t, rates.Save(ctx, rate))

	got, err := rates.FindByID(ctx, rate.ID)
	require.NoError(t, err)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("84.2")))
}

// Deleting the override resurfaces the global fallback.
func TestSoftDeletedRateStopsApplying(t *testing.T) {
	f, rates := newRateFixture(t)
	ctx := f.elevatedCtx()

	require.NoError(t, rates.Save(ctx, mustRate(t, nil, currency.USD, currency.INR, march15, "83.0")))
	override := mustRate(t, &f.companyA.ID, currency.USD, currency.INR, march15, "84.0")
	require.NoError(t, rates.Save(ctx, override))

	require.NoError(t, rates.SoftDelete(ctx, override))

	got, err := rates.Effective(ctx, &f.companyA.ID, currency.USD, currency.INR, march15)
	require.NoError(t, err)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("83.0")))

	// The key is free again for a new live row.
	assert.NoError(t, rates.Save(ctx, mustRate(t, &f.companyA.ID, currency.USD, currency.INR, march15, "84.1")))
}

func TestListShowsCompanyAndGlobalRows(t *testing.T) {
	f, rates := newRateFixture(t)
	ctx := f.elevatedCtx()

	require.NoError(t, rates.Save(ctx, mustRate(t, nil, currency.USD, currency.INR, march15, "83.0")))
	require.NoError(t, rates.Save(ctx, mustRate(t, &f.companyA.ID, currency.USD, currency.INR, march15, "84.0")))
	require.NoError(t, rates.Save(ctx, mustRate(t, &f.companyB.ID, currency.USD, currency.INR, march15, "85.0")))

	listed, err := rates.List(ctx, &f.companyA.ID, currency.USD, currency.INR)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	for _, r := range listed {
		if owner, ok := r.OwningCompany(); ok {
			assert.Equal(t, f.companyA.ID, owner)
		}
	}
}
