// Package memory is an in-process record store. It backs tests, local runs
// with a seed file, and the Google Sheets snapshot.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/shopspring/decimal"

	"salesdash/internal/core"
	"salesdash/internal/query"
	"salesdash/internal/store"
)

var (
	_ store.Reader = (*Store)(nil)
	_ store.Writer = (*Store)(nil)
)

type Store struct {
	mu    sync.RWMutex
	items []core.Transaction
	byID  map[int64]int
}

// New returns a store holding a copy of txs, in the given order.
func New(txs []core.Transaction) *Store {
	s := &Store{byID: make(map[int64]int, len(txs))}
	s.replace(txs)
	return s
}

// NewFromFile loads a JSON array of transactions, the same shape the product
// feed serves. A missing path yields an empty store.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return New(nil), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var txs []core.Transaction
	if err := json.Unmarshal(b, &txs); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return New(txs), nil
}

// Replace swaps the whole snapshot.
func (s *Store) Replace(txs []core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(txs)
}

func (s *Store) replace(txs []core.Transaction) {
	s.items = make([]core.Transaction, 0, len(txs))
	s.byID = make(map[int64]int, len(txs))
	for _, tx := range txs {
		s.put(tx)
	}
}

func (s *Store) put(tx core.Transaction) {
	if i, ok := s.byID[tx.ID]; ok {
		s.items[i] = tx
		return
	}
	s.byID[tx.ID] = len(s.items)
	s.items = append(s.items, tx)
}

// Upsert inserts new records at the end and replaces existing ids in place.
func (s *Store) Upsert(_ context.Context, txs []core.Transaction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range txs {
		s.put(tx)
	}
	return len(txs), nil
}

func (s *Store) Count(_ context.Context, p query.Predicate) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, tx := range s.items {
		if query.Match(p, tx) {
			n++
		}
	}
	return n, nil
}

func (s *Store) Find(_ context.Context, p query.Predicate, offset, limit int) ([]core.Transaction, error) {
	s.mu.RLock()
	matched := query.Filter(p, s.items)
	s.mu.RUnlock()

	offset = max(offset, 0)
	if limit <= 0 || offset >= len(matched) {
		return []core.Transaction{}, nil
	}
	return matched[offset : offset+min(limit, len(matched)-offset)], nil
}

func (s *Store) Sum(_ context.Context, p query.Predicate, field query.Field) (decimal.Decimal, error) {
	if field != query.FieldPrice {
		return decimal.Zero, fmt.Errorf("sum %s: %w", field, query.ErrUnknownField)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, tx := range s.items {
		if query.Match(p, tx) {
			total = total.Add(tx.Price)
		}
	}
	return total, nil
}

func (s *Store) GroupCount(_ context.Context, p query.Predicate, field query.Field) ([]core.CategoryCount, error) {
	if field != query.FieldCategory {
		return nil, fmt.Errorf("group by %s: %w", field, query.ErrUnknownField)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	index := map[string]int{}
	out := []core.CategoryCount{}
	for _, tx := range s.items {
		if !query.Match(p, tx) {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, core.CategoryCount{Category: tx.Category})
		}
		out[i].Count++
	}
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

// Len reports how many records the store holds.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
