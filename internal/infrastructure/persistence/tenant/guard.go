// Package tenant keeps ledger queries inside the tenant of the request.
//
// Repositories filter on tenant_id themselves. The guard registered here is
// a second line: when the context carries a tenant (set by the JWT
// middleware) and a query, update or delete has no tenant_id condition, the
// guard adds one. Queries from background jobs carry no tenant and pass
// through unchanged unless the guard is strict.
package tenant

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const column = "tenant_id"

var (
	// ErrTenantRequired is returned by a strict guard for a query without a tenant
	ErrTenantRequired = errors.New("tenant_id is required but not found in context")
	// ErrInvalidTenant is returned when the context tenant is not a UUID
	ErrInvalidTenant = errors.New("invalid tenant_id format")
)

var callbackNames = struct {
	query, update, delete, row string
}{
	query:  "tenant:before_query",
	update: "tenant:before_update",
	delete: "tenant:before_delete",
	row:    "tenant:before_row",
}

// Guard adds the context tenant to statements that lack one
type Guard struct {
	strict bool
}

// Option configures a Guard
type Option func(*Guard)

// Strict makes statements without a context tenant fail
func Strict() Option {
	return func(g *Guard) {
		g.strict = true
	}
}

// Register installs the guard callbacks on db
func Register(db *gorm.DB, opts ...Option) error {
	g := &Guard{}
	for _, opt := range opts {
		opt(g)
	}
	cb := db.Callback()
	return errors.Join(
		cb.Query().Before("gorm:query").Register(callbackNames.query, g.apply),
		cb.Update().Before("gorm:update").Register(callbackNames.update, g.apply),
		cb.Delete().Before("gorm:delete").Register(callbackNames.delete, g.apply),
		cb.Row().Before("gorm:row").Register(callbackNames.row, g.apply),
	)
}

// Unregister removes the guard callbacks
func Unregister(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Query().Remove(callbackNames.query),
		cb.Update().Remove(callbackNames.update),
		cb.Delete().Remove(callbackNames.delete),
		cb.Row().Remove(callbackNames.row),
	)
}

func (g *Guard) apply(db *gorm.DB) {
	stmt := db.Statement
	if stmt.Context == nil || stmt.Unscoped || hasTenantCondition(stmt) {
		return
	}

	tenantID := logger.GetTenantID(stmt.Context)
	if tenantID == "" {
		if g.strict {
			_ = db.AddError(ErrTenantRequired)
		}
		return
	}
	if _, err := uuid.Parse(tenantID); err != nil {
		_ = db.AddError(ErrInvalidTenant)
		return
	}

	stmt.AddClause(clause.Where{Exprs: []clause.Expression{
		clause.Eq{
			Column: clause.Column{Table: clause.CurrentTable, Name: column},
			Value:  tenantID,
		},
	}})
}

func hasTenantCondition(stmt *gorm.Statement) bool {
	// raw SQL is left alone
	if stmt.SQL.Len() > 0 {
		return true
	}
	c, ok := stmt.Clauses["WHERE"]
	if !ok {
		return false
	}
	where, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, expr := range where.Exprs {
		if mentionsTenant(expr) {
			return true
		}
	}
	return false
}

func mentionsTenant(expr clause.Expression) bool {
	switch e := expr.(type) {
	case clause.Eq:
		return isTenantColumn(e.Column)
	case clause.IN:
		return isTenantColumn(e.Column)
	case clause.Expr:
		return strings.Contains(e.SQL, column)
	case clause.NamedExpr:
		return strings.Contains(e.SQL, column)
	case clause.AndConditions:
		for _, cond := range e.Exprs {
			if mentionsTenant(cond) {
				return true
			}
		}
	case clause.OrConditions:
		// one branch filtering by tenant does not bound the other
		for _, cond := range e.Exprs {
			if !mentionsTenant(cond) {
				return false
			}
		}
		return len(e.Exprs) > 0
	}
	return false
}

func isTenantColumn(col any) bool {
	switch c := col.(type) {
	case clause.Column:
		return c.Name == column
	case string:
		return c == column || strings.HasSuffix(c, "."+column)
	}
	return false
}
