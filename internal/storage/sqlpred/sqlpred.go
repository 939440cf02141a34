// Package sqlpred compiles query predicates into SQL WHERE clauses.
//
// Prices are stored as integer cents in price_cents and sale timestamps in
// date_of_sale (UTC). Each dialect supplies placeholders, month extraction and
// case-insensitive containment.
package sqlpred

import (
	"fmt"
	"strings"

	"salesdash/internal/core"
	"salesdash/internal/query"
)

type Dialect interface {
	Placeholder(n int) string
	Month(column string) string
	ContainsFold(column, placeholder string) string
	Bool(v bool) any
}

var (
	SQLite   Dialect = sqliteDialect{}
	Postgres Dialect = postgresDialect{}
)

// FoldFunc is the SQL function the SQLite dialect lowercases text with.
// SQLite's lower() folds ASCII only, so the store registers FoldFunc with
// strings.ToLower semantics on the driver.
const FoldFunc = "unicode_lower"

type sqliteDialect struct{}

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) Month(column string) string {
	return fmt.Sprintf("CAST(strftime('%%m', %s) AS INTEGER)", column)
}

func (sqliteDialect) ContainsFold(column, ph string) string {
	return fmt.Sprintf("instr(%[1]s(%[2]s), %[1]s(%[3]s)) > 0", FoldFunc, column, ph)
}

func (sqliteDialect) Bool(v bool) any {
	if v {
		return 1
	}
	return 0
}

type postgresDialect struct{}

func (postgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) Month(column string) string {
	return fmt.Sprintf("EXTRACT(MONTH FROM %s AT TIME ZONE 'UTC')::int", column)
}

func (postgresDialect) ContainsFold(column, ph string) string {
	return fmt.Sprintf("strpos(lower(%s), lower(%s)) > 0", column, ph)
}

func (postgresDialect) Bool(v bool) any { return v }

// Clause is a compiled WHERE expression with its positional arguments.
type Clause struct {
	SQL  string
	Args []any
}

// Where compiles p. Placeholders are numbered from 1.
func Where(d Dialect, p query.Predicate) (Clause, error) {
	return WhereFrom(d, p, 1)
}

// WhereFrom compiles p numbering placeholders from first, for statements that
// bind other arguments before the WHERE clause.
func WhereFrom(d Dialect, p query.Predicate, first int) (Clause, error) {
	c := &compiler{d: d, next: first}
	sql, err := c.compile(p)
	if err != nil {
		return Clause{}, err
	}
	return Clause{SQL: sql, Args: c.args}, nil
}

// Next is the placeholder number following the clause's arguments.
func (c Clause) Next(first int) int {
	return first + len(c.Args)
}

type compiler struct {
	d    Dialect
	args []any
	next int
}

func (c *compiler) bind(v any) string {
	c.args = append(c.args, v)
	ph := c.d.Placeholder(c.next)
	c.next++
	return ph
}

func (c *compiler) compile(p query.Predicate) (string, error) {
	switch p := p.(type) {
	case nil, query.All:
		return "1=1", nil
	case query.Month:
		if p.Month < 1 || p.Month > 12 {
			return "", fmt.Errorf("compile month %d: %w", p.Month, query.ErrUnknownMonth)
		}
		return fmt.Sprintf("%s = %s", c.d.Month("date_of_sale"), c.bind(int(p.Month))), nil
	case query.Search:
		parts := []string{
			c.d.ContainsFold("title", c.bind(p.Text)),
			c.d.ContainsFold("description", c.bind(p.Text)),
		}
		// A price with sub-cent digits can never equal a stored cent amount.
		if p.HasPrice {
			if cents := p.Price.Shift(2); cents.IsInteger() {
				parts = append(parts, "price_cents = "+c.bind(cents.IntPart()))
			}
		}
		return "(" + strings.Join(parts, " OR ") + ")", nil
	case query.Sold:
		return "sold = " + c.bind(c.d.Bool(p.Value)), nil
	case query.PriceRange:
		var parts []string
		if p.Min != nil {
			parts = append(parts, "price_cents >= "+c.bind(core.CentsCeil(*p.Min)))
		}
		if p.Max != nil {
			parts = append(parts, "price_cents < "+c.bind(core.CentsCeil(*p.Max)))
		}
		if len(parts) == 0 {
			return "1=1", nil
		}
		return "(" + strings.Join(parts, " AND ") + ")", nil
	case query.And:
		left, err := c.compile(p.Left)
		if err != nil {
			return "", err
		}
		right, err := c.compile(p.Right)
		if err != nil {
			return "", err
		}
		return "(" + left + " AND " + right + ")", nil
	}
	return "", fmt.Errorf("compile predicate %T: unsupported", p)
}
