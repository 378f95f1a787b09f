// Package currency implements the application service over the exchange
// rate ledger.
package currency

import (
	"context"
	"errors"
	"time"

	"github.com/crpledger/core/internal/domain/authz"
	"github.com/crpledger/core/internal/domain/currency"
	"github.com/crpledger/core/internal/domain/tenancy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Rate ledger operations, named for decisions and logs
const (
	OpRateSet    authz.Operation = "rates.set"
	OpRateDelete authz.Operation = "rates.delete"
	OpRateList   authz.Operation = "rates.list"
)

// inversePrecision is the scale an inverted rate is quantized to
const inversePrecision = 10

// RateService manages the rate ledger and resolves effective rates
type RateService struct {
	rates  currency.RateRepository
	guard  *authz.Guard
	logger *zap.Logger
}

// NewRateService creates a new rate service
func NewRateService(
	rates currency.RateRepository,
	guard *authz.Guard,
	logger *zap.Logger,
) *RateService {
	return &RateService{
		rates:  rates,
		guard:  guard,
		logger: logger,
	}
}

// SetRateInput contains input for recording a rate
type SetRateInput struct {
	// CompanyID nil records a global fallback row (elevated only);
	// non-elevated callers always write their own company's row.
	CompanyID *uuid.UUID
	From      currency.Code
	To        currency.Code
	Date      time.Time
	Rate      decimal.Decimal
	Source    string
}

// SetRate records a rate row after authorization and validation
func (s *RateService) SetRate(ctx context.Context, input SetRateInput) (*currency.ExchangeRate, authz.Decision, error) {
	companyID := input.CompanyID
	if !tenancy.IsElevated(ctx) {
		decision := s.guard.AuthorizeCurrent(ctx, OpRateSet, nil)
		if decision.Denied() {
			return nil, decision, nil
		}
		if companyID != nil && *companyID != decision.Company.ID {
			return nil, authz.Decision{Operation: OpRateSet, Reason: authz.ReasonCrossTenantAccessDenied}, nil
		}
		id := decision.Company.ID
		companyID = &id

		rate, err := s.persist(ctx, companyID, input)
		return rate, decision, err
	}

	decision := s.guard.AuthorizeCurrent(ctx, OpRateSet, nil)
	rate, err := s.persist(ctx, companyID, input)
	return rate, decision, err
}

func (s *RateService) persist(ctx context.Context, companyID *uuid.UUID, input SetRateInput) (*currency.ExchangeRate, error) {
	rate, err := currency.NewExchangeRate(companyID, input.From, input.To, input.Date, input.Rate, input.Source)
	if err != nil {
		return nil, err
	}
	if err := s.rates.Save(ctx, rate); err != nil {
		return nil, err
	}

	s.logger.Info("exchange rate recorded",
		zap.String("rate_id", rate.ID.String()),
		zap.String("pair", string(input.From)+"/"+string(input.To)),
		zap.Time("date", rate.Date),
		zap.Bool("global", rate.IsGlobal()))
	return rate, nil
}

// DeleteRate soft-deletes a rate row. Tenant callers may only remove
// their own company's rows; global rows take an elevated caller.
func (s *RateService) DeleteRate(ctx context.Context, id uuid.UUID) (authz.Decision, error) {
	rate, err := s.rates.FindByID(ctx, id)
	if err != nil {
		return authz.Decision{Operation: OpRateDelete}, err
	}
	if rate.IsGlobal() && !tenancy.IsElevated(ctx) {
		// Global rows are shared state; only elevated callers may remove them.
		return authz.Decision{Operation: OpRateDelete, Reason: authz.ReasonCrossTenantAccessDenied}, nil
	}

	decision := s.guard.AuthorizeCurrent(ctx, OpRateDelete, rate)
	if decision.Denied() {
		return decision, nil
	}
	if err := s.rates.SoftDelete(ctx, rate); err != nil {
		return decision, err
	}
	s.logger.Info("exchange rate removed", zap.String("rate_id", id.String()))
	return decision, nil
}

// ListRates returns the rows visible to the current company for a pair
func (s *RateService) ListRates(ctx context.Context, from, to currency.Code) ([]currency.ExchangeRate, authz.Decision, error) {
	decision := s.guard.AuthorizeCurrent(ctx, OpRateList, nil)
	if decision.Denied() {
		return nil, decision, nil
	}
	var companyID *uuid.UUID
	if decision.Company != nil {
		id := decision.Company.ID
		companyID = &id
	}
	rates, err := s.rates.List(ctx, companyID, from, to)
	return rates, decision, err
}

// GetEffectiveRate resolves the rate in force for the current company on
// a date. A same-currency pair is always 1 without touching storage.
func (s *RateService) GetEffectiveRate(ctx context.Context, from, to currency.Code, on time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	var companyID *uuid.UUID
	if id, ok := tenancy.CurrentCompanyID(ctx); ok {
		companyID = &id
	}
	rate, err := s.rates.Effective(ctx, companyID, from, to, on)
	if err != nil {
		return decimal.Zero, err
	}
	return rate.Rate, nil
}

// ConvertAmount converts an amount between currencies using the effective
// rate, falling back to the quantized inverse of the opposite pair when
// no direct rate exists. Any direct rate, company or global, outranks an
// inverse one: a company's inverse row is consulted only after both
// direct lookups for the requested pair come up empty.
func (s *RateService) ConvertAmount(ctx context.Context, amount decimal.Decimal, from, to currency.Code, on time.Time) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}

	rate, err := s.GetEffectiveRate(ctx, from, to, on)
	if err == nil {
		return amount.Mul(rate), nil
	}
	if !errors.Is(err, currency.ErrRateNotFound) {
		return decimal.Zero, err
	}

	inverse, err := s.GetEffectiveRate(ctx, to, from, on)
	if err != nil {
		return decimal.Zero, err
	}
	derived := decimal.NewFromInt(1).DivRound(inverse, inversePrecision)
	return amount.Mul(derived), nil
}
