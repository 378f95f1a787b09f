package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crpledger/core/internal/domain/shared"
	"github.com/crpledger/core/internal/domain/tenancy"
	"github.com/crpledger/core/internal/infrastructure/logger"
	"github.com/crpledger/core/internal/infrastructure/persistence/scope"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Pipeline persists tenant-scoped records. Every mutation (create,
// update, soft delete, restore) runs the same steps in one transaction:
//
//  1. fill the owning company from the unit-of-work context when a new
//     record requires one and none was set; never a default tenant
//  2. resolve the company and reject when it is not effectively active
//  3. field-level validation, before any storage write
//  4. audit stamping: created_* exactly once, updated_* on every mutation
//  5. append a history snapshot of the post-write field state
//
// Writes carry an optimistic version predicate; a lost race surfaces as
// ErrConcurrentModification instead of a silent overwrite.
type Pipeline struct {
	db        *gorm.DB
	companies tenancy.CompanyResolver
	validate  *validator.Validate
}

// NewPipeline creates a save pipeline over the given DB and company resolver
func NewPipeline(db *gorm.DB, companies tenancy.CompanyResolver) *Pipeline {
	return &Pipeline{
		db:        db,
		companies: companies,
		validate:  validator.New(),
	}
}

// Save creates or updates a record through the full pipeline
func (p *Pipeline) Save(ctx context.Context, rec shared.Record) error {
	company, err := p.bindCompany(ctx, rec)
	if err != nil {
		return err
	}
	if err := p.runValidation(rec); err != nil {
		return err
	}

	actor := tenancy.CurrentActor(ctx)
	now := time.Now()

	return p.transaction(ctx, func(tx *gorm.DB) error {
		stored, found, err := p.loadStored(tx, rec)
		if err != nil {
			return err
		}

		if !found {
			rec.StampCreated(actor, now)
			if rec.GetVersion() == 0 {
				rec.IncrementVersion()
			}
			if err := tx.Create(rec).Error; err != nil {
				return err
			}
			logger.L(ctx).Info("record created",
				zap.String("record_id", rec.GetID().String()),
				zap.Stringp("company_id", companyLogID(company)))
			return p.appendHistory(tx, rec, actionCreated, actor, now)
		}

		if err := p.checkStored(rec, stored); err != nil {
			return err
		}
		rec.StampUpdated(actor, now)
		return p.writeVersioned(tx, rec, stored.Version, actionUpdated, actor, now)
	})
}

// SoftDelete sets the deletion marker and cascades it to registered
// same-tenant children. Already-deleted records are left untouched, so
// the original deletion timestamp survives repeated calls.
func (p *Pipeline) SoftDelete(ctx context.Context, rec shared.Record) error {
	if rec.Deleted() {
		return nil
	}
	company, err := p.bindCompany(ctx, rec)
	if err != nil {
		return err
	}

	actor := tenancy.CurrentActor(ctx)
	now := time.Now()

	return p.transaction(ctx, func(tx *gorm.DB) error {
		stored, found, err := p.loadStored(tx, rec)
		if err != nil {
			return err
		}
		if !found {
			return shared.ErrNotFound
		}
		if stored.DeletedAt.Valid {
			// Another worker already deleted it; keep their marker.
			rec.MarkDeleted(stored.DeletedAt.Time)
			return nil
		}
		if err := p.checkStored(rec, stored); err != nil {
			return err
		}

		rec.MarkDeleted(now)
		rec.StampUpdated(actor, now)
		if err := p.writeVersioned(tx, rec, stored.Version, actionSoftDeleted, actor, now); err != nil {
			return err
		}
		logger.L(ctx).Info("record soft-deleted",
			zap.String("record_id", rec.GetID().String()),
			zap.Stringp("company_id", companyLogID(company)))

		table, err := recordTable(tx, rec)
		if err != nil {
			return err
		}
		var owner *uuid.UUID
		if id, ok := rec.OwningCompany(); ok {
			owner = &id
		}
		return p.cascadeSoftDelete(tx, table, []uuid.UUID{rec.GetID()}, owner, actor, now)
	})
}

// Restore clears the deletion marker through the same checks as any
// other save. Restoring a live record is a no-op.
func (p *Pipeline) Restore(ctx context.Context, rec shared.Record) error {
	if !rec.Deleted() {
		return nil
	}
	if _, err := p.bindCompany(ctx, rec); err != nil {
		return err
	}
	if err := p.runValidation(rec); err != nil {
		return err
	}

	actor := tenancy.CurrentActor(ctx)
	now := time.Now()

	return p.transaction(ctx, func(tx *gorm.DB) error {
		stored, found, err := p.loadStored(tx, rec)
		if err != nil {
			return err
		}
		if !found {
			return shared.ErrNotFound
		}
		if err := p.checkStored(rec, stored); err != nil {
			return err
		}
		rec.ClearDeleted()
		rec.StampUpdated(actor, now)
		return p.writeVersioned(tx, rec, stored.Version, actionRestored, actor, now)
	})
}

func (p *Pipeline) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(scope.Exempt(tx))
	})
}

// bindCompany runs steps 1 and 2: fill the company from the resolver for
// new required-tenant records, then verify the owning company is
// effectively active. Optional-tenant records with no company are global
// and skip the activeness check.
func (p *Pipeline) bindCompany(ctx context.Context, rec shared.Record) (*tenancy.Company, error) {
	if _, ok := rec.OwningCompany(); !ok {
		if !rec.RequiresCompany() {
			return nil, nil
		}
		id, bound := tenancy.CurrentCompanyID(ctx)
		if !bound {
			return nil, fmt.Errorf("%w: cannot save %T", shared.ErrMissingTenantContext, rec)
		}
		rec.AdoptCompany(id)
	}

	owner, _ := rec.OwningCompany()
	company, err := p.companies.Resolve(ctx, owner)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewValidationError("company_id", "invalid company reference")
		}
		return nil, err
	}
	if company == nil {
		return nil, shared.NewValidationError("company_id", "invalid company reference")
	}
	if !company.EffectiveIsActive() {
		return nil, fmt.Errorf("%w: %s", shared.ErrInactiveTenant, company.Name)
	}
	return company, nil
}

// runValidation runs struct tags first, then the record's own rules
func (p *Pipeline) runValidation(rec shared.Record) error {
	if err := p.validate.Struct(rec); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return shared.NewValidationError(fe.Field(), fmt.Sprintf("failed %q constraint", fe.Tag()))
		}
		return err
	}
	return rec.Validate()
}

// storedState is the slice of a row the pipeline checks before writing
type storedState struct {
	Version   int
	CompanyID *uuid.UUID
	DeletedAt gorm.DeletedAt
}

func (p *Pipeline) loadStored(tx *gorm.DB, rec shared.Record) (storedState, bool, error) {
	var stored storedState
	err := tx.Unscoped().Model(rec).
		Select("version", "company_id", "deleted_at").
		Where("id = ?", rec.GetID()).
		Take(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return stored, false, nil
	}
	if err != nil {
		return stored, false, err
	}
	return stored, true, nil
}

// checkStored enforces tenant immutability and the optimistic version
func (p *Pipeline) checkStored(rec shared.Record, stored storedState) error {
	if stored.CompanyID != nil {
		owner, ok := rec.OwningCompany()
		if !ok || owner != *stored.CompanyID {
			return shared.NewValidationError("company_id", "owning company is immutable")
		}
	}
	if stored.Version != rec.GetVersion() {
		return shared.ErrConcurrentModification
	}
	return nil
}

// writeVersioned writes the record guarded by the version it was loaded
// at, bumps the version, and appends the history snapshot
func (p *Pipeline) writeVersioned(tx *gorm.DB, rec shared.Record, expected int, action historyAction, actor *uuid.UUID, now time.Time) error {
	rec.IncrementVersion()
	result := tx.Unscoped().Model(rec).
		Where("id = ? AND version = ?", rec.GetID(), expected).
		Save(rec)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification
	}
	return p.appendHistory(tx, rec, action, actor, now)
}

func companyLogID(company *tenancy.Company) *string {
	if company == nil {
		return nil
	}
	s := company.ID.String()
	return &s
}

// recordTable resolves the table a record maps to
func recordTable(tx *gorm.DB, model any) (string, error) {
	stmt := &gorm.Statement{DB: tx}
	if err := stmt.Parse(model); err != nil {
		return "", fmt.Errorf("cannot resolve table for %T: %w", model, err)
	}
	return stmt.Schema.Table, nil
}
