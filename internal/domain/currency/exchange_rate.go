// Package currency holds the exchange-rate ledger: rate rows optionally
// scoped to a company, with company-over-global and most-recent-prior-date
// fallback when resolving the effective rate.
package currency

import (
	"time"

	"github.com/crpledger/core/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Rate ledger errors
var (
	ErrInvalidRate   = shared.NewDomainError("INVALID_RATE", "Exchange rate is invalid")
	ErrDuplicateRate = shared.NewDomainError("DUPLICATE_RATE", "An exchange rate for this company, currency pair, and date already exists")
	ErrRateNotFound  = shared.NewDomainError("RATE_NOT_FOUND", "No exchange rate found for the requested currency pair and date")
)

// ExchangeRate is one row of the rate ledger: 1 unit of FromCurrency =
// Rate units of ToCurrency, effective from Date (inclusive). A nil company
// makes the row a global fallback shared by all tenants; a set company
// overrides the global row for that tenant.
//
// Rows are unique per (company, from, to, date).
type ExchangeRate struct {
	shared.OptionalTenantRecord
	FromCurrency Code            `gorm:"type:varchar(10);not null;index" validate:"required"`
	ToCurrency   Code            `gorm:"type:varchar(10);not null;index" validate:"required"`
	Date         time.Time       `gorm:"type:date;not null;index"`
	Rate         decimal.Decimal `gorm:"type:numeric(20,10);not null"`
	Source       string          `gorm:"type:varchar(100)" validate:"max=100"`
}

// TableName returns the table name for GORM
func (ExchangeRate) TableName() string {
	return "exchange_rates"
}

// NewExchangeRate creates a rate row. companyID nil means global.
func NewExchangeRate(companyID *uuid.UUID, from, to Code, date time.Time, rate decimal.Decimal, source string) (*ExchangeRate, error) {
	r := &ExchangeRate{
		OptionalTenantRecord: shared.NewOptionalTenantRecord(companyID),
		FromCurrency:         from,
		ToCurrency:           to,
		Date:                 DateOnly(date),
		Rate:                 rate,
		Source:               source,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate enforces the ledger invariants: distinct currencies, positive
// rate, known codes, a date present.
func (r *ExchangeRate) Validate() error {
	if !r.FromCurrency.Valid() {
		return shared.NewValidationError("from_currency", "unknown currency code")
	}
	if !r.ToCurrency.Valid() {
		return shared.NewValidationError("to_currency", "unknown currency code")
	}
	if r.FromCurrency == r.ToCurrency {
		return ErrInvalidRate
	}
	if !r.Rate.IsPositive() {
		return ErrInvalidRate
	}
	if r.Date.IsZero() {
		return shared.NewValidationError("date", "effective date is required")
	}
	return nil
}

// IsGlobal reports whether the row is a global fallback
func (r *ExchangeRate) IsGlobal() bool {
	return r.CompanyID == nil
}

// DateOnly truncates a timestamp to its UTC calendar date. Effective dates
// compare by day, never by time of day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
