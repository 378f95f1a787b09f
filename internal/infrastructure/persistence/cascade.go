package persistence

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// cascadeLink declares that soft-deleting a parent row soft-deletes the
// child rows referencing it. Links are declared explicitly at startup;
// nothing is inferred from foreign keys.
type cascadeLink struct {
	childModel any
	foreignKey string
}

var (
	cascadeMu    sync.RWMutex
	cascadeLinks = map[string][]cascadeLink{}
)

// RegisterCascade wires a child model to follow its parent into soft
// deletion. parentModel and childModel are GORM models; foreignKey is
// the child column referencing the parent's id.
func RegisterCascade(db *gorm.DB, parentModel, childModel any, foreignKey string) error {
	parentTable, err := recordTable(db, parentModel)
	if err != nil {
		return err
	}
	cascadeMu.Lock()
	defer cascadeMu.Unlock()
	cascadeLinks[parentTable] = append(cascadeLinks[parentTable], cascadeLink{
		childModel: childModel,
		foreignKey: foreignKey,
	})
	return nil
}

// cascadeSoftDelete marks the registered children of the given parents
// as deleted, then recurses into their own children. Only live rows of
// the same company are touched, so a child's earlier deletion timestamp
// is preserved. Every cascaded child gets its own history entry.
func (p *Pipeline) cascadeSoftDelete(tx *gorm.DB, parentTable string, parentIDs []uuid.UUID, companyID *uuid.UUID, actor *uuid.UUID, now time.Time) error {
	if len(parentIDs) == 0 {
		return nil
	}
	cascadeMu.RLock()
	links := cascadeLinks[parentTable]
	cascadeMu.RUnlock()

	for _, link := range links {
		childTable, err := recordTable(tx, link.childModel)
		if err != nil {
			return err
		}

		query := tx.Unscoped().Model(link.childModel).
			Where(link.foreignKey+" IN ?", parentIDs).
			Where("deleted_at IS NULL")
		if companyID != nil {
			query = query.Where("company_id = ?", *companyID)
		}

		var childIDs []uuid.UUID
		if err := query.Pluck("id", &childIDs).Error; err != nil {
			return err
		}
		if len(childIDs) == 0 {
			continue
		}

		updates := map[string]any{
			"deleted_at": now,
			"updated_at": now,
			"version":    gorm.Expr("version + 1"),
		}
		if actor != nil {
			updates["updated_by"] = *actor
		}
		if err := tx.Unscoped().Model(link.childModel).
			Where("id IN ?", childIDs).
			Where("deleted_at IS NULL").
			Updates(updates).Error; err != nil {
			return err
		}
		if err := p.appendCascadeHistory(tx, childTable, childIDs, actor, now); err != nil {
			return err
		}

		if err := p.cascadeSoftDelete(tx, childTable, childIDs, companyID, actor, now); err != nil {
			return err
		}
	}
	return nil
}
