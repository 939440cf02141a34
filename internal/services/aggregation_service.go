package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"salesdash/internal/core"
	"salesdash/internal/query"
	"salesdash/internal/store"
)

// AggregationStore is the part of a record store the aggregates need.
type AggregationStore interface {
	store.Counter
	store.Summer
	store.Grouper
}

// Dashboard bundles the three aggregates of one selection.
type Dashboard struct {
	Statistics core.Statistics      `json:"statistics"`
	BarChart   []core.PriceBucket   `json:"barChart"`
	PieChart   []core.CategoryCount `json:"pieChart"`
}

// AggregationService computes statistics, the price histogram and the
// category breakdown over the records matching a predicate.
type AggregationService struct {
	store AggregationStore
}

func NewAggregationService(s AggregationStore) *AggregationService {
	return &AggregationService{store: s}
}

// Statistics returns the total price and the sold/unsold counts.
func (s *AggregationService) Statistics(ctx context.Context, p query.Predicate) (core.Statistics, error) {
	var stats core.Statistics
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := s.store.Sum(gctx, p, query.FieldPrice)
		if err != nil {
			return fmt.Errorf("sum sale amount: %w", err)
		}
		stats.TotalSaleAmount = total
		return nil
	})
	g.Go(func() error {
		n, err := s.store.Count(gctx, query.AndOf(p, query.Sold{Value: true}))
		if err != nil {
			return fmt.Errorf("count sold: %w", err)
		}
		stats.SoldCount = n
		return nil
	})
	g.Go(func() error {
		n, err := s.store.Count(gctx, query.AndOf(p, query.Sold{Value: false}))
		if err != nil {
			return fmt.Errorf("count unsold: %w", err)
		}
		stats.UnsoldCount = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Statistics{}, err
	}
	if stats.TotalSaleAmount.IsZero() {
		stats.TotalSaleAmount = decimal.Zero
	}
	return stats, nil
}

// Histogram counts the records per price bucket, in bucket order.
func (s *AggregationService) Histogram(ctx context.Context, p query.Predicate) ([]core.PriceBucket, error) {
	out := make([]core.PriceBucket, len(PriceBuckets))
	g, gctx := errgroup.WithContext(ctx)
	for i, b := range PriceBuckets {
		out[i].Range = b.Label
		g.Go(func() error {
			n, err := s.store.Count(gctx, query.AndOf(p, b.Predicate()))
			if err != nil {
				return fmt.Errorf("count bucket %s: %w", b.Label, err)
			}
			out[i].Count = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Categories counts the records per category, in first-seen order.
func (s *AggregationService) Categories(ctx context.Context, p query.Predicate) ([]core.CategoryCount, error) {
	groups, err := s.store.GroupCount(ctx, p, query.FieldCategory)
	if err != nil {
		return nil, fmt.Errorf("group by category: %w", err)
	}
	out := make([]core.CategoryCount, 0, len(groups))
	for _, g := range groups {
		if g.Count > 0 {
			out = append(out, g)
		}
	}
	return out, nil
}

// Dashboard computes all three aggregates concurrently.
func (s *AggregationService) Dashboard(ctx context.Context, p query.Predicate) (Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.Statistics(gctx, p)
		d.Statistics = stats
		return err
	})
	g.Go(func() error {
		bars, err := s.Histogram(gctx, p)
		d.BarChart = bars
		return err
	})
	g.Go(func() error {
		pie, err := s.Categories(gctx, p)
		d.PieChart = pie
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
