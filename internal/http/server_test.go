package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"salesdash/internal/core"
	"salesdash/internal/query"
	"salesdash/internal/store/memory"
)

func tx(id int64, title, price, cat string, sold bool, m time.Month) core.Transaction {
	return core.Transaction{
		ID:          id,
		Title:       title,
		Description: title + " description",
		Price:       decimal.RequireFromString(price),
		Category:    cat,
		Image:       "https://example.com/img.jpg",
		Sold:        sold,
		DateOfSale:  time.Date(2021, m, 10, 12, 0, 0, 0, time.UTC),
	}
}

func sampleStore() *memory.Store {
	return memory.New([]core.Transaction{
		tx(1, "Backpack", "109.95", "men's clothing", true, time.March),
		tx(2, "T-Shirt", "22.3", "men's clothing", false, time.March),
		tx(3, "Bracelet", "100", "jewelery", true, time.March),
		tx(4, "Hard Drive", "101", "electronics", false, time.March),
		tx(5, "Monitor", "900", "electronics", true, time.March),
		tx(6, "Television", "901", "electronics", false, time.March),
		tx(7, "Jacket", "55.99", "women's clothing", true, time.April),
		tx(8, "Ring", "0.5", "jewelery", false, time.April),
	})
}

var errDown = errors.New("store down")

type brokenStore struct{ *memory.Store }

func (brokenStore) Count(context.Context, query.Predicate) (int64, error) { return 0, errDown }
func (brokenStore) Find(context.Context, query.Predicate, int, int) ([]core.Transaction, error) {
	return nil, errDown
}
func (brokenStore) Sum(context.Context, query.Predicate, query.Field) (decimal.Decimal, error) {
	return decimal.Zero, errDown
}
func (brokenStore) GroupCount(context.Context, query.Predicate, query.Field) ([]core.CategoryCount, error) {
	return nil, errDown
}
func (brokenStore) Ping(context.Context) error { return errDown }

type countingStore struct {
	*memory.Store
	sums atomic.Int32
}

func (c *countingStore) Sum(ctx context.Context, p query.Predicate, f query.Field) (decimal.Decimal, error) {
	c.sums.Add(1)
	return c.Store.Sum(ctx, p, f)
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.Store == nil {
		opts.Store = sampleStore()
	}
	srv := NewServer(opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = "203.0.113.7:1234"
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestTransactionsListing(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		name           string
		target         string
		wantIDs        []int64
		wantPage       int
		wantPerPage    int
		wantTotalPages int
	}{
		{"defaults", "/transactions", []int64{1, 2, 3, 4, 5, 6, 7, 8}, 1, 10, 1},
		{"second page", "/transactions?page=2&perPage=3", []int64{4, 5, 6}, 2, 3, 3},
		{"non-numeric paging falls back", "/transactions?page=abc&perPage=-4", []int64{1, 2, 3, 4, 5, 6, 7, 8}, 1, 10, 1},
		{"month filter", "/transactions?month=april", []int64{7, 8}, 1, 10, 1},
		{"text search is case-insensitive", "/transactions?searchText=RING", []int64{8}, 1, 10, 1},
		{"numeric search matches price", "/transactions?searchText=101", []int64{4}, 1, 10, 1},
		{"month and search combine", "/transactions?month=March&searchText=drive", []int64{4}, 1, 10, 1},
		{"page past the end", "/transactions?page=9&perPage=5", nil, 9, 5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, srv, tt.target)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
			}
			resp := decode[TransactionsResponse](t, rr)
			if resp.Page != tt.wantPage || resp.PerPage != tt.wantPerPage || resp.TotalPages != tt.wantTotalPages {
				t.Fatalf("paging = %d/%d/%d, want %d/%d/%d", resp.Page, resp.PerPage, resp.TotalPages,
					tt.wantPage, tt.wantPerPage, tt.wantTotalPages)
			}
			if len(resp.Transactions) != len(tt.wantIDs) {
				t.Fatalf("got %d transactions, want %d", len(resp.Transactions), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if resp.Transactions[i].ID != id {
					t.Fatalf("transactions[%d].id = %d, want %d", i, resp.Transactions[i].ID, id)
				}
			}
		})
	}
}

func TestTransactionsEmptyIsOK(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := get(t, srv, "/transactions?month=April&searchText=zzz")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `"transactions":[]`) {
		t.Fatalf("expected empty array, got %s", body)
	}
	if !strings.Contains(body, noTransactionsMessage) || !strings.Contains(body, `"totalPages":0`) {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestUnknownMonthIsBadRequest(t *testing.T) {
	srv := newTestServer(t, Options{})

	for _, path := range []string{"/transactions", "/statistics", "/barchart", "/piechart", "/dashboard"} {
		rr := get(t, srv, path+"?month=Smarch")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s status = %d", path, rr.Code)
		}
		if msg := decode[MessageResponse](t, rr).Message; !strings.Contains(msg, "Invalid month") {
			t.Fatalf("%s message = %q", path, msg)
		}
	}
}

func TestStatistics(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := get(t, srv, "/statistics?month=March")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	type statistics struct {
		TotalSaleAmount   json.Number `json:"totalSaleAmount"`
		TotalSoldItems    int64       `json:"totalSoldItems"`
		TotalNotSoldItems int64       `json:"totalNotSoldItems"`
	}
	got := decode[statistics](t, rr)
	if got.TotalSaleAmount.String() != "2134.25" || got.TotalSoldItems != 3 || got.TotalNotSoldItems != 3 {
		t.Fatalf("statistics = %+v", got)
	}

	rr = get(t, srv, "/statistics?month=December")
	if !strings.Contains(rr.Body.String(), `"totalSaleAmount":0`) {
		t.Fatalf("empty month should total zero, got %s", rr.Body.String())
	}
}

func TestBarChart(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := get(t, srv, "/barchart?month=march")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	got := decode[[]core.PriceBucket](t, rr)
	want := []core.PriceBucket{
		{Range: "0-100", Count: 2},
		{Range: "101-200", Count: 2},
		{Range: "201-300"}, {Range: "301-400"}, {Range: "401-500"},
		{Range: "501-600"}, {Range: "601-700"}, {Range: "701-800"},
		{Range: "801-900", Count: 1},
		{Range: "901-above", Count: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d buckets", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bucket %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPieChart(t *testing.T) {
	srv := newTestServer(t, Options{})

	got := decode[[]core.CategoryCount](t, get(t, srv, "/piechart?month=March"))
	want := []core.CategoryCount{
		{Category: "men's clothing", Count: 2},
		{Category: "jewelery", Count: 1},
		{Category: "electronics", Count: 3},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slice %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := get(t, srv, "/dashboard?month=April")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	got := decode[map[string]json.RawMessage](t, rr)
	for _, key := range []string{"statistics", "barChart", "pieChart"} {
		if _, ok := got[key]; !ok {
			t.Fatalf("dashboard missing %q: %s", key, rr.Body.String())
		}
	}
}

func TestStoreFailureAnswersGenericError(t *testing.T) {
	srv := newTestServer(t, Options{Store: brokenStore{sampleStore()}})

	tests := map[string]string{
		"/transactions": "Error retrieving transactions",
		"/statistics":   "Error retrieving statistics",
		"/barchart":     "Error retrieving bar chart data",
		"/piechart":     "Error retrieving pie chart data",
	}
	for path, want := range tests {
		rr := get(t, srv, path)
		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("%s status = %d", path, rr.Code)
		}
		if msg := decode[MessageResponse](t, rr).Message; msg != want {
			t.Fatalf("%s message = %q, want %q", path, msg, want)
		}
	}
}

func TestAggregatesAreCachedPerMonth(t *testing.T) {
	cs := &countingStore{Store: sampleStore()}
	srv := newTestServer(t, Options{Store: cs, CacheTTL: time.Minute, CacheSize: 8})

	for i := 0; i < 3; i++ {
		if rr := get(t, srv, "/statistics?month=march"); rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
	}
	if n := cs.sums.Load(); n != 1 {
		t.Fatalf("store summed %d times, want 1", n)
	}

	get(t, srv, "/statistics?month=MARCH")
	if n := cs.sums.Load(); n != 1 {
		t.Fatalf("month spelling should share a cache key, summed %d times", n)
	}
	get(t, srv, "/statistics?month=April")
	if n := cs.sums.Load(); n != 2 {
		t.Fatalf("new month should miss, summed %d times", n)
	}

	body := get(t, srv, "/metrics").Body.String()
	if !strings.Contains(body, `salesdash_cache_lookups_total{cache="statistics",result="hit"} 3`) {
		t.Fatalf("cache hits not exported:\n%s", body)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	srv := newTestServer(t, Options{})
	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := get(t, srv, path); rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rr.Code)
		}
	}

	down := newTestServer(t, Options{Store: brokenStore{sampleStore()}})
	rr := get(t, down, "/readyz")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "not_ready") {
		t.Fatalf("body %s", rr.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, Options{})
	get(t, srv, "/transactions")
	get(t, srv, "/nowhere")

	rr := get(t, srv, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	for _, want := range []string{
		`salesdash_http_requests_total{code="200",route="/transactions"} 1`,
		`salesdash_http_requests_total{code="404",route="other"} 1`,
		`salesdash_store_operation_duration_seconds_count{op="count"}`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, Options{RateLimitRPM: 2})

	for i := 0; i < 2; i++ {
		if rr := get(t, srv, "/healthz"); rr.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rr.Code)
		}
	}
	rr := get(t, srv, "/healthz")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
}

func TestRateLimitedResponseCarriesCORS(t *testing.T) {
	srv := newTestServer(t, Options{RateLimitRPM: 1, CORSAllowedOrigins: []string{"http://dashboard.local"}})

	var rr *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		rr = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/statistics?month=March", nil)
		req.RemoteAddr = "203.0.113.9:1234"
		req.Header.Set("Origin", "http://dashboard.local")
		srv.Handler.ServeHTTP(rr, req)
	}
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://dashboard.local" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
	if rr.Header().Get("X-Content-Type-Options") == "" {
		t.Fatal("missing security headers on 429")
	}
}

func TestMiddlewareHeaders(t *testing.T) {
	srv := newTestServer(t, Options{CORSAllowedOrigins: []string{"http://dashboard.local"}})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/statistics", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("X-Request-ID", "abc-123")
	srv.Handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://dashboard.local" {
		t.Fatalf("allow origin = %q", got)
	}
	if got := rr.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("request id = %q", got)
	}
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("nosniff = %q", got)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type = %q", ct)
	}
}

func TestParseListParams(t *testing.T) {
	tests := []struct {
		query string
		want  ListParams
	}{
		{"", ListParams{Page: 1, PerPage: 10}},
		{"page=3&perPage=25", ListParams{Page: 3, PerPage: 25}},
		{"page=0&perPage=x", ListParams{Page: 1, PerPage: 10}},
		{"month=%20March%20&searchText=a%00b", ListParams{Page: 1, PerPage: 10, Month: "March", SearchText: "ab"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			if got := ParseListParams(q); got != tt.want {
				t.Fatalf("ParseListParams(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
		})
	}
}

func TestParseSelection(t *testing.T) {
	sel, err := ParseSelection(url.Values{"month": {"july"}})
	if err != nil || sel.Key != "July" {
		t.Fatalf("sel = %+v, err = %v", sel, err)
	}
	sel, err = ParseSelection(url.Values{})
	if err != nil || sel.Key != "all" {
		t.Fatalf("sel = %+v, err = %v", sel, err)
	}
	if _, err := ParseSelection(url.Values{"month": {"13"}}); !errors.Is(err, query.ErrUnknownMonth) {
		t.Fatalf("err = %v", err)
	}
}
