package persistence

import (
	"context"

	"github.com/crpledger/core/internal/infrastructure/persistence/scope"
	"gorm.io/gorm"
)

// QueryRecords lists records of one type under explicit scope criteria.
// This is the single read path for tenant-scoped records: callers state
// the tenant axis and the deletion axis instead of picking one of many
// pre-filtered accessors.
func QueryRecords[T any](ctx context.Context, db *gorm.DB, c scope.Criteria, conds ...func(*gorm.DB) *gorm.DB) ([]T, error) {
	var out []T
	var model T
	q := scope.Apply(ctx, db.Model(&model), c)
	for _, cond := range conds {
		q = cond(q)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CountRecords counts records of one type under explicit scope criteria
func CountRecords[T any](ctx context.Context, db *gorm.DB, c scope.Criteria, conds ...func(*gorm.DB) *gorm.DB) (int64, error) {
	var model T
	q := scope.Apply(ctx, db.Model(&model), c)
	for _, cond := range conds {
		q = cond(q)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
