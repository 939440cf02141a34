package query

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownMonth = errors.New("unknown month")
	ErrUnknownField = errors.New("unknown field")
)

// ParseMonth resolves an English month name, ignoring case.
func ParseMonth(name string) (time.Month, error) {
	name = strings.TrimSpace(name)
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String(), name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMonth, name)
}

// ForMonth returns All for an empty name and a Month predicate otherwise.
func ForMonth(name string) (Predicate, error) {
	if strings.TrimSpace(name) == "" {
		return All{}, nil
	}
	m, err := ParseMonth(name)
	if err != nil {
		return nil, err
	}
	return Month{Month: m}, nil
}

// ForSearch returns All for blank text. Otherwise the text is matched as a
// substring and, if it parses as a number, as an exact price.
func ForSearch(text string) Predicate {
	text = strings.TrimSpace(text)
	if text == "" {
		return All{}
	}
	s := Search{Text: text}
	if price, err := decimal.NewFromString(text); err == nil {
		s.Price = price
		s.HasPrice = true
	}
	return s
}

// AndOf conjoins predicates, dropping All and nil operands.
func AndOf(ps ...Predicate) Predicate {
	var out Predicate
	for _, p := range ps {
		switch p.(type) {
		case nil, All:
			continue
		}
		if out == nil {
			out = p
			continue
		}
		out = And{Left: out, Right: p}
	}
	if out == nil {
		return All{}
	}
	return out
}

// Listing is the predicate used by the paginated listing: month AND search.
func Listing(month, search string) (Predicate, error) {
	mp, err := ForMonth(month)
	if err != nil {
		return nil, err
	}
	return AndOf(mp, ForSearch(search)), nil
}

// Aggregate is the predicate used by statistics, histogram and categories.
// Search text never narrows an aggregate.
func Aggregate(month string) (Predicate, error) {
	return ForMonth(month)
}

// PriceBetween builds a half-open price range. Nil bounds are open.
func PriceBetween(lo, hi *decimal.Decimal) Predicate {
	if lo == nil && hi == nil {
		return All{}
	}
	return PriceRange{Min: lo, Max: hi}
}

// ValidateField reports whether stores know how to sum or group by f.
func ValidateField(f Field) error {
	switch f {
	case FieldPrice, FieldCategory:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownField, string(f))
}
