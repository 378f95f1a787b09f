package scope

import (
	"strings"

	"github.com/crpledger/core/internal/domain/tenancy"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const companyColumn = "company_id"

// Guard installs GORM callbacks that catch queries, updates, and deletes
// reaching storage without a company predicate. Repositories are expected
// to go through Apply; these callbacks are the backstop for lookup paths
// that skip it.
type Guard struct{}

// RegisterCallbacks registers the guard callbacks with GORM
func (g *Guard) RegisterCallbacks(db *gorm.DB) {
	_ = db.Callback().Query().Before("gorm:query").Register("scope:before_query", g.beforeStatement)
	_ = db.Callback().Update().Before("gorm:update").Register("scope:before_update", g.beforeStatement)
	_ = db.Callback().Delete().Before("gorm:delete").Register("scope:before_delete", g.beforeStatement)
	_ = db.Callback().Row().Before("gorm:row").Register("scope:before_row", g.beforeStatement)
}

// beforeStatement adds the company predicate from the unit-of-work
// context when the statement has none. With no bound company and no
// elevation, the statement fails closed to an empty match.
func (g *Guard) beforeStatement(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	if exempted(ctx) {
		return
	}
	if db.Statement.Unscoped {
		return
	}
	if !g.modelHasCompanyColumn(db) {
		return
	}
	if g.hasCompanyCondition(db) {
		return
	}

	if id, ok := tenancy.CurrentCompanyID(ctx); ok {
		db.Statement.AddClause(clause.Where{
			Exprs: []clause.Expression{
				clause.Eq{
					Column: clause.Column{Table: clause.CurrentTable, Name: companyColumn},
					Value:  id,
				},
			},
		})
		return
	}
	if tenancy.IsElevated(ctx) {
		return
	}
	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{clause.Expr{SQL: "1 = 0"}},
	})
}

// modelHasCompanyColumn reports whether the statement's model is tenant
// owned at all. Tables without a company column (companies itself, raw
// SQL paths) are outside the guard's remit.
func (g *Guard) modelHasCompanyColumn(db *gorm.DB) bool {
	if db.Statement.Schema == nil && db.Statement.Model != nil {
		if err := db.Statement.Parse(db.Statement.Model); err != nil {
			return false
		}
	}
	if db.Statement.Schema == nil {
		return false
	}
	return db.Statement.Schema.LookUpField(companyColumn) != nil
}

// hasCompanyCondition checks whether a company predicate is already present
func (g *Guard) hasCompanyCondition(db *gorm.DB) bool {
	if whereClause, ok := db.Statement.Clauses["WHERE"]; ok {
		if where, ok := whereClause.Expression.(clause.Where); ok {
			for _, expr := range where.Exprs {
				if exprMentionsCompany(expr) {
					return true
				}
			}
		}
	}
	if sql := db.Statement.SQL.String(); sql != "" && strings.Contains(sql, companyColumn) {
		return true
	}
	return false
}

func exprMentionsCompany(expr clause.Expression) bool {
	switch e := expr.(type) {
	case clause.Eq:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == companyColumn
		}
	case clause.IN:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == companyColumn
		}
	case clause.Expr:
		return strings.Contains(e.SQL, companyColumn)
	case clause.AndConditions:
		for _, cond := range e.Exprs {
			if exprMentionsCompany(cond) {
				return true
			}
		}
	case clause.OrConditions:
		for _, cond := range e.Exprs {
			if exprMentionsCompany(cond) {
				return true
			}
		}
	}
	return false
}

// EnableGuards installs the backstop callbacks on a GORM DB instance
func EnableGuards(db *gorm.DB) {
	g := &Guard{}
	g.RegisterCallbacks(db)
}
