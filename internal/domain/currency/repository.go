package currency

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RateRepository is the storage contract for the rate ledger.
//
// Effective implements the fallback order of the ledger: an exact
// company-specific row for the date, else the global row for the date,
// else (keeping the company-then-global preference) the most recent row
// at or before the date. ErrRateNotFound when nothing matches.
type RateRepository interface {
	Save(ctx context.Context, rate *ExchangeRate) error
	FindByID(ctx context.Context, id uuid.UUID) (*ExchangeRate, error)
	Effective(ctx context.Context, companyID *uuid.UUID, from, to Code, on time.Time) (*ExchangeRate, error)
	// List returns the rows visible to a company: its own plus global
	// fallbacks. A nil company lists global rows only.
	List(ctx context.Context, companyID *uuid.UUID, from, to Code) ([]ExchangeRate, error)
	SoftDelete(ctx context.Context, rate *ExchangeRate) error
}
