package currency

import (
	"context"
	"testing"
	"time"

	"github.com/crpledger/core/internal/domain/authz"
	"github.com/crpledger/core/internal/domain/currency"
	"github.com/crpledger/core/internal/domain/tenancy"
	"github.com/crpledger/core/internal/infrastructure/cache"
	"github.com/crpledger/core/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type rateHarness struct {
	service  *RateService
	companyA *tenancy.Company
	companyB *tenancy.Company
}

var march15 = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

func newRateHarness(t *testing.T) *rateHarness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&tenancy.Company{},
		&currency.ExchangeRate{},
		&persistence.HistoryEntry{},
	))

	companyRepo := persistence.NewGormCompanyRepository(db)
	resolver := cache.NewCachingResolver(companyRepo, cache.NewMemoryCompanyCache(time.Minute))
	pipeline := persistence.NewPipeline(db, resolver)
	rateRepo := persistence.NewGormRateRepository(db, pipeline)
	guard := authz.NewGuard(resolver)

	h := &rateHarness{
		service: NewRateService(rateRepo, guard, zap.NewNop()),
	}

	ctx := context.Background()
	h.companyA, err = tenancy.NewCompany("aaa", "Company A", "USD")
	require.NoError(t, err)
	require.NoError(t, companyRepo.Save(ctx, h.companyA))
	h.companyB, err = tenancy.NewCompany("bbb", "Company B", "USD")
	require.NoError(t, err)
	require.NoError(t, companyRepo.Save(ctx, h.companyB))
	return h
}

func (h *rateHarness) memberCtx(company *tenancy.Company) context.Context {
	p := tenancy.NewPrincipal(uuid.New(), "member", company.ID)
	return tenancy.BindUnitOfWork(context.Background(), p, company)
}

func (h *rateHarness) elevatedCtx() context.Context {
	admin := tenancy.NewElevatedPrincipal(uuid.New(), "ops")
	return tenancy.BindUnitOfWork(context.Background(), admin, nil)
}

func TestSetRateDeniedWithoutContext(t *testing.T) {
	h := newRateHarness(t)
	_, decision, err := h.service.SetRate(context.Background(), SetRateInput{
		From: currency.USD, To: currency.INR, Date: march15, Rate: decimal.NewFromInt(83),
	})
	require.NoError(t, err)
	assert.True(t, decision.Denied())
	assert.Equal(t, authz.ReasonUnauthorizedNoContext, decision.Reason)
}

func TestSetRateBindsCallersCompany(t *testing.T) {
	h := newRateHarness(t)
	rate, decision, err := h.service.SetRate(h.memberCtx(h.companyA), SetRateInput{
		From: currency.USD, To: currency.INR, Date: march15, Rate: decimal.NewFromInt(84),
	})
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	owner, ok := rate.OwningCompany()
	require.True(t, ok)
	assert.Equal(t, h.companyA.ID, owner)
}

func TestSetRateRejectsForeignCompany(t *testing.T) {
	h := newRateHarness(t)
	_, decision, err := h.service.SetRate(h.memberCtx(h.companyA), SetRateInput{
		CompanyID: &h.companyB.ID,
		From:      currency.USD, To: currency.INR, Date: march15, Rate: decimal.NewFromInt(84),
	})
	require.NoError(t, err)
	assert.True(t, decision.Denied())
	assert.Equal(t, authz.ReasonCrossTenantAccessDenied, decision.Reason)
}

func TestSetRateGlobalByElevated(t *testing.T) {
	h := newRateHarness(t)
	rate, decision, err := h.service.SetRate(h.elevatedCtx(), SetRateInput{
		From: currency.USD, To: currency.INR, Date: march15, Rate: decimal.NewFromInt(83),
	})
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	assert.True(t, rate.IsGlobal())
}

func TestSetRateDuplicate(t *testing.T) {
	h := newRateHarness(t)
	ctx := h.memberCtx(h.companyA)
	_, _, err := h.service.SetRate(ctx, SetRateInput{
		From: currency.USD, To: currency.INR, Date: march15, Rate: decimal.NewFromInt(84),
	})
	require.NoError(t, err)

	_, _, err = h.service.SetRate(ctx, SetRateInput{
		From: currency.USD, To: currency.INR, Date: march15, Rate: decimal.NewFromInt(85),
	})
	assert.ErrorIs(t, err, currency.ErrDuplicateRate)
}

func TestSetRateInvalid(t *testing.T) {
	h := newRateHarness(t)
	_, _, err := h.service.SetRate(h.memberCtx(h.companyA), SetRateInput{
		From: currency.USD, To: currency.USD, Date: march15, Rate: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, currency.ErrInvalidRate)
}

// The company's own rate wins; a company without an override falls back
// to the global row.
func TestGetEffectiveRateTenantOverride(t *testing.T) {
	h := newRateHarness(t)
	_, _, err := h.service.SetRate(h.elevatedCtx(), SetRateInput{
		From: currency.USD, To: currency.INR, Date: march15, Rate: decimal.RequireFromString("83.0"),
	})
	require.NoError(t, err)
	_, _, err = h.service.SetRate(h.memberCtx(h.companyA), SetRateInput{
		From: currency.USD, To: currency.INR, Date: march15, Rate: decimal.RequireFromString("84.0"),
	})
	require.NoError(t, err)

	got, err := h.service.GetEffectiveRate(h.memberCtx(h.companyA), currency.USD, currency.INR, march15)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("84.0")))

	got, err = h.service.GetEffectiveRate(h.memberCtx(h.companyB), currency.USD, currency.INR, march15)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("83.0")))
}

func TestGetEffectiveRateSameCurrency(t *testing.T) {
	h := newRateHarness(t)
	got, err := h.service.GetEffectiveRate(context.Background(), currency.USD, currency.USD, march15)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(1)))
}

func TestGetEffectiveRateNotFound(t *testing.T) {
	h := newRateHarness(t)
	_, err := h.service.GetEffectiveRate(h.memberCtx(h.companyA), currency.EUR, currency.JPY, march15)
	assert.ErrorIs(t, err, currency.ErrRateNotFound)
}

func TestConvertAmountDirect(t *testing.T) {
	h := newRateHarness(t)
	_, _, err := h.service.SetRate(h.elevatedCtx(), SetRateInput{
		From: currency.USD, To: currency.INR, Date: march15, Rate: decimal.NewFromInt(80),
	})
	require.NoError(t, err)

	got, err := h.service.ConvertAmount(h.memberCtx(h.companyA), decimal.NewFromInt(5), currency.USD, currency.INR, march15)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(400)))
}

// With no INR→USD rate recorded, conversion derives the quantized inverse
// of the USD→INR rate.
func TestConvertAmountInverseFallback(t *testing.T) {
	h := newRateHarness(t)
	_, _, err := h.service.SetRate(h.elevatedCtx(), SetRateInput{
		From: currency.USD, To: currency.INR, Date: march15, Rate: decimal.NewFromInt(80),
	})
	require.NoError(t, err)

	got, err := h.service.ConvertAmount(h.memberCtx(h.companyA), decimal.NewFromInt(160), currency.INR, currency.USD, march15)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(2)), "got %s", got)
}

func TestConvertAmountSameCurrency(t *testing.T) {
	h := newRateHarness(t)
	amount := decimal.RequireFromString("123.45")
	got, err := h.service.ConvertAmount(context.Background(), amount, currency.EUR, currency.EUR, march15)
	require.NoError(t, err)
	assert.True(t, got.Equal(amount))
}

func TestConvertAmountNoRateAtAll(t *testing.T) {
	h := newRateHarness(t)
	_, err := h.service.ConvertAmount(h.memberCtx(h.companyA), decimal.NewFromInt(1), currency.EUR, currency.JPY, march15)
	assert.ErrorIs(t, err, currency.ErrRateNotFound)
}

func TestDeleteRateGlobalNeedsElevation(t *testing.T) {
	h := newRateHarness(t)
	rate, _, err := h.service.SetRate(h.elevatedCtx(), SetRateInput{
		From: currency.USD, To: currency.INR, Date: march15, Rate: decimal.NewFromInt(83),
	})
	require.NoError(t, err)

	decision, err := h.service.DeleteRate(h.memberCtx(h.companyA), rate.ID)
	require.NoError(t, err)
	assert.True(t, decision.Denied())

	decision, err = h.service.DeleteRate(h.elevatedCtx(), rate.ID)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	_, err = h.service.GetEffectiveRate(h.memberCtx(h.companyA), currency.USD, currency.INR, march15)
	assert.ErrorIs(t, err, currency.ErrRateNotFound)
}
