// Package query builds the record predicates that drive listing and
// aggregation.
//
// A Predicate is a closed set of variants. Match interprets a predicate against
// a single record; SQL backends translate the same variants into WHERE clauses
// (see internal/storage/sqlpred), so every backend agrees on what matches.
package query

import (
	"time"

	"github.com/shopspring/decimal"
)

// Predicate is implemented only by the variants in this package.
type Predicate interface {
	predicate()
}

type (
	// All matches every record.
	All struct{}

	// Month matches records sold in the given calendar month of any year (UTC).
	Month struct {
		Month time.Month
	}

	// Search matches records whose title or description contains Text
	// (case-insensitive) or, when HasPrice is set, whose price equals Price.
	Search struct {
		Text     string
		Price    decimal.Decimal
		HasPrice bool
	}

	// Sold matches records whose sold flag equals Value.
	Sold struct {
		Value bool
	}

	// PriceRange matches Min <= price < Max. A nil bound is open.
	PriceRange struct {
		Min *decimal.Decimal
		Max *decimal.Decimal
	}

	// And matches records satisfying both operands.
	And struct {
		Left  Predicate
		Right Predicate
	}
)

func (All) predicate()        {}
func (Month) predicate()      {}
func (Search) predicate()     {}
func (Sold) predicate()       {}
func (PriceRange) predicate() {}
func (And) predicate()        {}

// Field names a record attribute that stores can sum or group by.
type Field string

const (
	FieldPrice    Field = "price"
	FieldCategory Field = "category"
)
