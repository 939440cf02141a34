package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"salesdash/internal/query"
)

func TestListDefaultsAndPaging(t *testing.T) {
	svc := NewListingService(sampleStore())
	ctx := context.Background()

	tests := []struct {
		name           string
		p              query.Predicate
		page, perPage  int
		wantPage       int
		wantPerPage    int
		wantTotalPages int
		wantIDs        []int64
	}{
		{"defaults", query.All{}, 0, 0, 1, 10, 1, []int64{1, 2, 3, 4, 5, 6, 7, 8}},
		{"negative inputs", query.All{}, -3, -1, 1, 10, 1, []int64{1, 2, 3, 4, 5, 6, 7, 8}},
		{"second page", query.All{}, 2, 3, 2, 3, 3, []int64{4, 5, 6}},
		{"last partial page", query.All{}, 3, 3, 3, 3, 3, []int64{7, 8}},
		{"beyond last page", query.All{}, 9, 3, 9, 3, 3, []int64{}},
		{"offset overflows int", query.All{}, math.MaxInt/4 + 2, 8, math.MaxInt/4 + 2, 8, 1, []int64{}},
		{"huge page size", query.All{}, 3, math.MaxInt, 3, math.MaxInt, 1, []int64{}},
		{"month filter", query.Month{Month: time.April}, 1, 10, 1, 10, 1, []int64{7, 8}},
		{"no matches", query.ForSearch("laptop"), 1, 10, 1, 10, 0, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.List(ctx, tt.p, tt.page, tt.perPage)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Page != tt.wantPage || got.PerPage != tt.wantPerPage || got.TotalPages != tt.wantTotalPages {
				t.Fatalf("page=%d perPage=%d totalPages=%d", got.Page, got.PerPage, got.TotalPages)
			}
			if got.Transactions == nil {
				t.Fatalf("transactions must never be nil")
			}
			if len(got.Transactions) != len(tt.wantIDs) {
				t.Fatalf("got %d transactions, want %d", len(got.Transactions), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got.Transactions[i].ID != id {
					t.Fatalf("transaction %d = %d, want %d", i, got.Transactions[i].ID, id)
				}
			}
		})
	}
}

func TestListPagesPartitionMatches(t *testing.T) {
	svc := NewListingService(sampleStore())
	ctx := context.Background()

	first, err := svc.List(ctx, query.All{}, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[int64]bool{}
	for page := 1; page <= first.TotalPages; page++ {
		p, err := svc.List(ctx, query.All{}, page, 3)
		if err != nil {
			t.Fatal(err)
		}
		for _, tx := range p.Transactions {
			if seen[tx.ID] {
				t.Fatalf("record %d appears on more than one page", tx.ID)
			}
			seen[tx.ID] = true
		}
	}
	if int64(len(seen)) != first.Total {
		t.Fatalf("pages cover %d records, total is %d", len(seen), first.Total)
	}
}

func TestListStoreFailure(t *testing.T) {
	svc := NewListingService(&failingStore{Store: sampleStore()})
	_, err := svc.List(context.Background(), query.All{}, 1, 10)
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total   int64
		perPage int
		want    int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{60, 7, 9},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.total, tt.perPage); got != tt.want {
			t.Fatalf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.perPage, got, tt.want)
		}
	}
}
