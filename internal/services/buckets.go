package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"salesdash/internal/query"
)

// PriceBucket describes one histogram bar: [Lower, Upper) with nil meaning open.
type PriceBucket struct {
	Label string
	Lower *decimal.Decimal
	Upper *decimal.Decimal
}

// Predicate selects the prices falling into the bucket.
func (b PriceBucket) Predicate() query.Predicate {
	return query.PriceBetween(b.Lower, b.Upper)
}

// PriceBuckets are the ten fixed bars: 0-100, 101-200, ..., 801-900, 901-above.
// Each bucket runs up to the next bucket's lower bound, so integer prices land
// in the labelled inclusive range and fractional prices are never dropped.
// The first bucket has no lower bound so every record is counted once.
var PriceBuckets = buildPriceBuckets()

func buildPriceBuckets() []PriceBucket {
	const n = 10
	lowers := make([]decimal.Decimal, n)
	for i := range lowers {
		if i > 0 {
			lowers[i] = decimal.NewFromInt(int64(i*100 + 1))
		}
	}

	out := make([]PriceBucket, n)
	for i := range out {
		b := PriceBucket{}
		if i > 0 {
			b.Lower = &lowers[i]
		}
		if i < n-1 {
			b.Upper = &lowers[i+1]
		}
		switch {
		case i == 0:
			b.Label = "0-100"
		case i == n-1:
			b.Label = fmt.Sprintf("%d-above", i*100+1)
		default:
			b.Label = fmt.Sprintf("%d-%d", i*100+1, (i+1)*100)
		}
		out[i] = b
	}
	return out
}
