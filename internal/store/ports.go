// Package store defines the record store ports the analytics services read
// through, and the write port used by the import pipeline.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"salesdash/internal/core"
	"salesdash/internal/query"
)

// Ports for outbound adapters.
type (
	Counter interface {
		Count(ctx context.Context, p query.Predicate) (int64, error)
	}

	// Finder returns matching records in the store's natural order.
	Finder interface {
		Find(ctx context.Context, p query.Predicate, offset, limit int) ([]core.Transaction, error)
	}

	// Summer totals a numeric field over matching records. Zero when none match.
	Summer interface {
		Sum(ctx context.Context, p query.Predicate, field query.Field) (decimal.Decimal, error)
	}

	// Grouper counts matching records per distinct value of field, in
	// first-seen order. Values with no matches never appear.
	Grouper interface {
		GroupCount(ctx context.Context, p query.Predicate, field query.Field) ([]core.CategoryCount, error)
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}

	// Reader is everything the analytics engine needs from a backend.
	Reader interface {
		Counter
		Finder
		Summer
		Grouper
		Pinger
	}

	// Writer inserts or replaces records by id. Used by imports only.
	Writer interface {
		Upsert(ctx context.Context, txs []core.Transaction) (int, error)
	}
)

// Observer receives one call per store operation.
type Observer func(op string, elapsed time.Duration, err error)

// Observe wraps r so each operation is reported to obs.
func Observe(r Reader, obs Observer) Reader {
	if obs == nil {
		return r
	}
	return &observed{next: r, obs: obs}
}

type observed struct {
	next Reader
	obs  Observer
}

func (o *observed) Count(ctx context.Context, p query.Predicate) (int64, error) {
	start := time.Now()
	n, err := o.next.Count(ctx, p)
	o.obs("count", time.Since(start), err)
	return n, err
}

func (o *observed) Find(ctx context.Context, p query.Predicate, offset, limit int) ([]core.Transaction, error) {
	start := time.Now()
	txs, err := o.next.Find(ctx, p, offset, limit)
	o.obs("find", time.Since(start), err)
	return txs, err
}

func (o *observed) Sum(ctx context.Context, p query.Predicate, field query.Field) (decimal.Decimal, error) {
	start := time.Now()
	d, err := o.next.Sum(ctx, p, field)
	o.obs("sum", time.Since(start), err)
	return d, err
}

func (o *observed) GroupCount(ctx context.Context, p query.Predicate, field query.Field) ([]core.CategoryCount, error) {
	start := time.Now()
	groups, err := o.next.GroupCount(ctx, p, field)
	o.obs("group_count", time.Since(start), err)
	return groups, err
}

func (o *observed) Ping(ctx context.Context) error {
	start := time.Now()
	err := o.next.Ping(ctx)
	o.obs("ping", time.Since(start), err)
	return err
}
