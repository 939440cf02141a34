package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, the way the product feed publishes them.
	decimal.MarshalJSONWithoutQuotes = true
}

type (
	// Transaction is one sales record. The analytics engine never mutates it.
	Transaction struct {
		ID          int64           `json:"id"`
		Title       string          `json:"title"`
		Price       decimal.Decimal `json:"price"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Image       string          `json:"image"`
		Sold        bool            `json:"sold"`
		DateOfSale  time.Time       `json:"dateOfSale"`
	}
)

var (
	ErrInvalidID         = errors.New("invalid id")
	ErrEmptyTitle        = errors.New("empty title")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyCategory     = errors.New("empty category")
	ErrEmptyImage        = errors.New("empty image")
	ErrInvalidDateOfSale = errors.New("invalid date of sale")
)

// Validate checks the required fields of an imported record.
// Prices are not range-checked: the engine accepts whatever the feed carries.
func (t Transaction) Validate() error {
	if t.ID <= 0 {
		return ErrInvalidID
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(t.Image) == "" {
		return ErrEmptyImage
	}
	if t.DateOfSale.IsZero() {
		return ErrInvalidDateOfSale
	}
	return nil
}

// SaleMonth is the calendar month of the sale, evaluated in UTC.
func (t Transaction) SaleMonth() time.Month {
	return t.DateOfSale.UTC().Month()
}
