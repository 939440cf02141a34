package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"salesdash/internal/core"
	"salesdash/internal/query"
	"salesdash/internal/store/memory"
)

var errStoreDown = errors.New("store down")

func record(id int64, title, price, cat string, sold bool, m time.Month) core.Transaction {
	return core.Transaction{
		ID:          id,
		Title:       title,
		Description: title + " description",
		Price:       decimal.RequireFromString(price),
		Category:    cat,
		Image:       "https://example.com/img.jpg",
		Sold:        sold,
		DateOfSale:  time.Date(2021+int(id%2), m, 10, 12, 0, 0, 0, time.UTC),
	}
}

func sampleStore() *memory.Store {
	return memory.New([]core.Transaction{
		record(1, "Backpack", "109.95", "men's clothing", true, time.March),
		record(2, "T-Shirt", "22.3", "men's clothing", false, time.March),
		record(3, "Bracelet", "100", "jewelery", true, time.March),
		record(4, "Hard Drive", "101", "electronics", false, time.March),
		record(5, "Monitor", "900", "electronics", true, time.March),
		record(6, "Television", "901", "electronics", false, time.March),
		record(7, "Jacket", "55.99", "women's clothing", true, time.April),
		record(8, "Ring", "0.5", "jewelery", false, time.April),
	})
}

// failingStore fails every call after the first okCalls.
type failingStore struct {
	*memory.Store
	okCalls int32
	calls   atomic.Int32
}

func (f *failingStore) fail() bool {
	return f.calls.Add(1) > f.okCalls
}

func (f *failingStore) Count(ctx context.Context, p query.Predicate) (int64, error) {
	if f.fail() {
		return 0, errStoreDown
	}
	return f.Store.Count(ctx, p)
}

func (f *failingStore) Find(ctx context.Context, p query.Predicate, offset, limit int) ([]core.Transaction, error) {
	if f.fail() {
		return nil, errStoreDown
	}
	return f.Store.Find(ctx, p, offset, limit)
}

func (f *failingStore) Sum(ctx context.Context, p query.Predicate, field query.Field) (decimal.Decimal, error) {
	if f.fail() {
		return decimal.Zero, errStoreDown
	}
	return f.Store.Sum(ctx, p, field)
}

func (f *failingStore) GroupCount(ctx context.Context, p query.Predicate, field query.Field) ([]core.CategoryCount, error) {
	if f.fail() {
		return nil, errStoreDown
	}
	return f.Store.GroupCount(ctx, p, field)
}
