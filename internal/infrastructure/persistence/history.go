package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/crpledger/core/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type historyAction string

const (
	actionCreated     historyAction = "created"
	actionUpdated     historyAction = "updated"
	actionSoftDeleted historyAction = "soft_deleted"
	actionRestored    historyAction = "restored"
)

// HistoryEntry is an append-only snapshot of a record after a write.
// Entries are never updated or deleted; together they form the audit
// trail of who changed what, and when.
type HistoryEntry struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	RecordTable string         `gorm:"type:varchar(64);not null;index:idx_history_record,priority:1"`
	RecordID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_history_record,priority:2"`
	CompanyID   *uuid.UUID     `gorm:"type:uuid;index"`
	Action      string         `gorm:"type:varchar(16);not null"`
	Snapshot    datatypes.JSON `gorm:"not null"`
	Version     int            `gorm:"not null"`
	RecordedAt  time.Time      `gorm:"not null"`
	RecordedBy  *uuid.UUID     `gorm:"type:uuid"`
}

// TableName returns the table name for the HistoryEntry entity
func (HistoryEntry) TableName() string {
	return "record_history"
}

// appendHistory snapshots the record's current field state into the
// history table, inside the same transaction as the write it records
func (p *Pipeline) appendHistory(tx *gorm.DB, rec shared.Record, action historyAction, actor *uuid.UUID, at time.Time) error {
	table, err := recordTable(tx, rec)
	if err != nil {
		return err
	}
	snapshot, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to snapshot %s record: %w", table, err)
	}
	var companyID *uuid.UUID
	if id, ok := rec.OwningCompany(); ok {
		companyID = &id
	}
	entry := HistoryEntry{
		ID:          uuid.New(),
		RecordTable: table,
		RecordID:    rec.GetID(),
		CompanyID:   companyID,
		Action:      string(action),
		Snapshot:    datatypes.JSON(snapshot),
		Version:     rec.GetVersion(),
		RecordedAt:  at,
		RecordedBy:  actor,
	}
	return tx.Create(&entry).Error
}

// appendCascadeHistory snapshots children just marked deleted by a
// cascade, one soft_deleted entry per row, inside the same transaction
// as the bulk update.
func (p *Pipeline) appendCascadeHistory(tx *gorm.DB, table string, ids []uuid.UUID, actor *uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	var rows []map[string]any
	if err := tx.Unscoped().Table(table).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return err
	}

	entries := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		snapshot, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to snapshot %s record: %w", table, err)
		}
		id := rowUUID(row["id"])
		if id == nil {
			return fmt.Errorf("cascade snapshot of %s row has no id", table)
		}
		entries = append(entries, HistoryEntry{
			ID:          uuid.New(),
			RecordTable: table,
			RecordID:    *id,
			CompanyID:   rowUUID(row["company_id"]),
			Action:      string(actionSoftDeleted),
			Snapshot:    datatypes.JSON(snapshot),
			Version:     rowVersion(row["version"]),
			RecordedAt:  at,
			RecordedBy:  actor,
		})
	}
	if len(entries) == 0 {
		return nil
	}
	return tx.Create(&entries).Error
}

// rowUUID reads a UUID column from a scanned row map; drivers hand the
// value back as string, bytes, or uuid depending on the dialect.
func rowUUID(v any) *uuid.UUID {
	var (
		id  uuid.UUID
		err error
	)
	switch t := v.(type) {
	case uuid.UUID:
		id = t
	case string:
		id, err = uuid.Parse(t)
	case []byte:
		id, err = uuid.ParseBytes(t)
	default:
		return nil
	}
	if err != nil || id == uuid.Nil {
		return nil
	}
	return &id
}

func rowVersion(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	}
	return 0
}

// GormHistoryRepository reads the audit trail
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository creates a history repository
func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

// ForRecord returns a record's history entries, newest first
func (r *GormHistoryRepository) ForRecord(ctx context.Context, model any, recordID uuid.UUID) ([]HistoryEntry, error) {
	table, err := recordTable(r.db, model)
	if err != nil {
		return nil, err
	}
	var entries []HistoryEntry
	err = r.db.WithContext(ctx).
		Where("record_table = ? AND record_id = ?", table, recordID).
		Order("version DESC").
		Find(&entries).Error
	return entries, err
}
