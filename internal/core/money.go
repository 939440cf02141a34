package core

import "github.com/shopspring/decimal"

// PriceToCents converts a price to integer cents, rounding half away from zero
// on the third decimal place.
//
//	PriceToCents(decimal.RequireFromString("12.345")) -> 1235
//	PriceToCents(decimal.RequireFromString("12.344")) -> 1234
func PriceToCents(p decimal.Decimal) int64 {
	return p.Shift(2).Round(0).IntPart()
}

// PriceFromCents is the inverse of PriceToCents.
func PriceFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// CentsCeil returns the smallest cent amount that is >= p.
// Storage backends use it to translate decimal bounds into cent comparisons.
func CentsCeil(p decimal.Decimal) int64 {
	return p.Shift(2).Ceil().IntPart()
}
