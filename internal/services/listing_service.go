package services

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"salesdash/internal/core"
	"salesdash/internal/query"
	"salesdash/internal/store"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
)

// ListingStore is the part of a record store the listing needs.
type ListingStore interface {
	store.Counter
	store.Finder
}

// Page is one window of the matching transactions.
type Page struct {
	Transactions []core.Transaction
	Page         int
	PerPage      int
	TotalPages   int
	Total        int64
}

// ListingService pages through the transactions matching a predicate.
type ListingService struct {
	store ListingStore
}

func NewListingService(s ListingStore) *ListingService {
	return &ListingService{store: s}
}

// List returns page (1-based) of the records matching p. Non-positive page or
// perPage fall back to the defaults. A page past the end is empty, not an error.
func (s *ListingService) List(ctx context.Context, p query.Predicate, page, perPage int) (Page, error) {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	// An offset that does not fit in an int is past any store's end.
	beyond := page-1 > math.MaxInt/perPage
	offset := 0
	if !beyond {
		offset = (page - 1) * perPage
	}

	var (
		total int64
		txs   []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.Count(gctx, p)
		if err != nil {
			return fmt.Errorf("count transactions: %w", err)
		}
		total = n
		return nil
	})
	if !beyond {
		g.Go(func() error {
			found, err := s.store.Find(gctx, p, offset, perPage)
			if err != nil {
				return fmt.Errorf("find transactions: %w", err)
			}
			txs = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Page{}, err
	}

	if txs == nil {
		txs = []core.Transaction{}
	}
	return Page{
		Transactions: txs,
		Page:         page,
		PerPage:      perPage,
		TotalPages:   TotalPages(total, perPage),
		Total:        total,
	}, nil
}

// TotalPages is ceil(total / perPage), zero when nothing matches.
func TotalPages(total int64, perPage int) int {
	if total <= 0 || perPage < 1 {
		return 0
	}
	pp := int64(perPage)
	pages := total / pp
	if total%pp != 0 {
		pages++
	}
	return int(pages)
}
