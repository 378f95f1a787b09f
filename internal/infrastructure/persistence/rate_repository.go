package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/crpledger/core/internal/domain/currency"
	"github.com/crpledger/core/internal/domain/shared"
	"github.com/crpledger/core/internal/domain/tenancy"
	"github.com/crpledger/core/internal/infrastructure/persistence/scope"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRateRepository implements currency.RateRepository. Writes go through
// the save pipeline; reads restrict rows to one company plus the global
// fallbacks so one tenant's rates never leak into another's lookups.
type GormRateRepository struct {
	db       *gorm.DB
	pipeline *Pipeline
}

// NewGormRateRepository creates a rate repository
func NewGormRateRepository(db *gorm.DB, pipeline *Pipeline) *GormRateRepository {
	return &GormRateRepository{db: db, pipeline: pipeline}
}

// Save stores a rate row after rejecting duplicates of the
// (company, from, to, date) key among live rows
func (r *GormRateRepository) Save(ctx context.Context, rate *currency.ExchangeRate) error {
	if err := rate.Validate(); err != nil {
		return err
	}

	q := scope.Exempt(r.db.WithContext(ctx)).Model(&currency.ExchangeRate{}).
		Where("from_currency = ? AND to_currency = ? AND date = ?",
			rate.FromCurrency, rate.ToCurrency, currency.DateOnly(rate.Date)).
		Where("id <> ?", rate.ID)
	if rate.CompanyID == nil {
		q = q.Where("company_id IS NULL")
	} else {
		q = q.Where("company_id = ?", *rate.CompanyID)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return currency.ErrDuplicateRate
	}

	return r.pipeline.Save(ctx, rate)
}

// FindByID finds a rate row visible to the current unit of work: the
// bound company's rows plus global ones. Elevated callers see any row.
func (r *GormRateRepository) FindByID(ctx context.Context, id uuid.UUID) (*currency.ExchangeRate, error) {
	q := scope.Exempt(r.db.WithContext(ctx)).Where("id = ?", id)
	if !tenancy.IsElevated(ctx) {
		var companyID *uuid.UUID
		if cid, ok := tenancy.CurrentCompanyID(ctx); ok {
			companyID = &cid
		}
		q = q.Scopes(scope.CompanyOrGlobalScope(companyID))
	}

	var rate currency.ExchangeRate
	err := q.First(&rate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, currency.ErrRateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// Effective resolves the rate in force for a currency pair on a date.
// Preference order: the company's row for the exact date, the global row
// for the exact date, then the most recent prior row, company rows
// before global ones.
func (r *GormRateRepository) Effective(ctx context.Context, companyID *uuid.UUID, from, to currency.Code, on time.Time) (*currency.ExchangeRate, error) {
	day := currency.DateOnly(on)
	base := func() *gorm.DB {
		return scope.Exempt(r.db.WithContext(ctx)).
			Where("from_currency = ? AND to_currency = ?", from, to)
	}

	// Exact date, the company's override shadowing the global row.
	rate, err := r.firstRate(base().
		Scopes(scope.CompanyOrGlobalScope(companyID)).
		Where("date = ?", day).
		Order("CASE WHEN company_id IS NULL THEN 1 ELSE 0 END"))
	if err == nil || !errors.Is(err, currency.ErrRateNotFound) {
		return rate, err
	}

	// Most recent prior row, the company's rows first even when a later
	// global row exists.
	if companyID != nil {
		rate, err = r.firstRate(base().
			Where("company_id = ? AND date <= ?", *companyID, day).
			Order("date DESC"))
		if err == nil || !errors.Is(err, currency.ErrRateNotFound) {
			return rate, err
		}
	}
	return r.firstRate(base().
		Where("company_id IS NULL AND date <= ?", day).
		Order("date DESC"))
}

func (r *GormRateRepository) firstRate(q *gorm.DB) (*currency.ExchangeRate, error) {
	var rate currency.ExchangeRate
	err := q.First(&rate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, currency.ErrRateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// List returns the rows visible to a company for a currency pair, newest
// first, company overrides before the globals they shadow
func (r *GormRateRepository) List(ctx context.Context, companyID *uuid.UUID, from, to currency.Code) ([]currency.ExchangeRate, error) {
	var rates []currency.ExchangeRate
	err := scope.Exempt(r.db.WithContext(ctx)).
		Scopes(scope.CompanyOrGlobalScope(companyID)).
		Where("from_currency = ? AND to_currency = ?", from, to).
		Order("date DESC").
		Order("CASE WHEN company_id IS NULL THEN 1 ELSE 0 END").
		Find(&rates).Error
	return rates, err
}

// SoftDelete marks a rate row deleted through the pipeline
func (r *GormRateRepository) SoftDelete(ctx context.Context, rate *currency.ExchangeRate) error {
	return r.pipeline.SoftDelete(ctx, rate)
}

var _ currency.RateRepository = (*GormRateRepository)(nil)
var _ shared.Record = (*currency.ExchangeRate)(nil)
