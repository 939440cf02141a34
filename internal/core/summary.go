package core

import "github.com/shopspring/decimal"

// Statistics summarises the transactions of a selection.
type Statistics struct {
	TotalSaleAmount decimal.Decimal `json:"totalSaleAmount"`
	SoldCount       int64           `json:"totalSoldItems"`
	UnsoldCount     int64           `json:"totalNotSoldItems"`
}

// PriceBucket is one bar of the price histogram.
type PriceBucket struct {
	Range string `json:"range"`
	Count int64  `json:"count"`
}

// CategoryCount is one slice of the category breakdown.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}
