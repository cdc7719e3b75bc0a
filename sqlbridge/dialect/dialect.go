// Package dialect declares the capability descriptors generic query-building
// code selects on: placeholder style, identifier quoting, RETURNING support.
// Descriptors carry no runtime state; SQLite is the first implementation and
// other embedded engines slot in behind the same interface.
package dialect

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/SquattingSocrates/wasmlite/sqlbridge/types"
)

// Dialect describes the SQL quirks of one backend.
type Dialect interface {
	// Name identifies the dialect, e.g. "sqlite".
	Name() string
	// Placeholder renders the bind placeholder for the n-th parameter
	// (1-based).
	Placeholder(n int) string
	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(name string) string
	// SupportsReturning reports whether INSERT/UPDATE/DELETE may carry a
	// RETURNING clause.
	SupportsReturning() bool
}

// SQLite is the zero-state descriptor for the SQLite backend: positional `?`
// placeholders, double-quoted identifiers, RETURNING supported (3.35+).
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) Placeholder(n int) string { return "?" }

func (SQLite) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (SQLite) SupportsReturning() bool { return true }

// RegisterBindType teaches sqlx the placeholder style of a driver backed by
// the given dialect, so sqlx.In and named-query rebinding work out of the box.
func RegisterBindType(driverName string, d Dialect) {
	if d.Placeholder(1) == "?" {
		sqlx.BindDriver(driverName, sqlx.QUESTION)
	} else {
		sqlx.BindDriver(driverName, sqlx.DOLLAR)
	}
}

// Returning appends a RETURNING clause for the given columns (all columns if
// none are named) to a write statement. Dialects without RETURNING support
// yield a query error so callers can fall back to last-insert-id.
func Returning(d Dialect, query string, cols ...string) (string, error) {
	if !d.SupportsReturning() {
		return "", types.QueryErrorf("dialect %s does not support RETURNING", d.Name())
	}
	if len(cols) == 0 {
		return query + " RETURNING *", nil
	}
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.QuoteIdentifier(c)
	}
	return query + " RETURNING " + strings.Join(quoted, ", "), nil
}
