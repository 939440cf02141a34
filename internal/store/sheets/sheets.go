// Package sheets serves transactions kept in a Google Sheets tab. The tab is
// read in full into an in-memory snapshot that is refreshed after a TTL.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"salesdash/internal/core"
	"salesdash/internal/query"
	"salesdash/internal/store"
	"salesdash/internal/store/memory"
)

var _ store.Reader = (*Client)(nil)

const DefaultRefresh = 5 * time.Minute

// ValuesFetcher returns the raw cell matrix of a range.
type ValuesFetcher interface {
	FetchValues(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)
}

type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
	Refresh            time.Duration
}

type Client struct {
	fetcher       ValuesFetcher
	spreadsheetID string
	sheetName     string
	refresh       time.Duration
	now           func() time.Time

	mu        sync.Mutex
	snapshot  *memory.Store
	expiresAt time.Time
}

// New creates a client backed by the Sheets API using service account credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithFetcher(apiFetcher{svc: svc}, cfg), nil
}

// NewWithFetcher builds a client over an arbitrary cell source.
func NewWithFetcher(f ValuesFetcher, cfg Config) *Client {
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Transactions"
	}
	refresh := cfg.Refresh
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	return &Client{
		fetcher:       f,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheet,
		refresh:       refresh,
		now:           time.Now,
	}
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		credentialsJSON = []byte(cfg.ServiceAccountJSON)
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

type apiFetcher struct {
	svc *gsheet.Service
}

func (a apiFetcher) FetchValues(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	resp, err := a.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// current returns a fresh snapshot, reloading the sheet when the TTL has passed.
func (c *Client) current(ctx context.Context) (*memory.Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot != nil && c.now().Before(c.expiresAt) {
		return c.snapshot, nil
	}

	rng := fmt.Sprintf("%s!A:H", c.sheetName)
	values, err := c.fetcher.FetchValues(ctx, c.spreadsheetID, rng)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", rng, err)
	}
	txs, skipped, err := parseTransactions(values)
	if err != nil {
		return nil, fmt.Errorf("parse sheet %s: %w", rng, err)
	}
	if skipped > 0 {
		slog.WarnContext(ctx, "Skipped malformed sheet rows", "sheet", c.sheetName, "skipped", skipped)
	}
	slog.InfoContext(ctx, "Loaded sheet snapshot", "sheet", c.sheetName, "rows", len(txs))

	c.snapshot = memory.New(txs)
	c.expiresAt = c.now().Add(c.refresh)
	return c.snapshot, nil
}

// Invalidate forces the next read to reload the sheet.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

func (c *Client) Count(ctx context.Context, p query.Predicate) (int64, error) {
	s, err := c.current(ctx)
	if err != nil {
		return 0, err
	}
	return s.Count(ctx, p)
}

func (c *Client) Find(ctx context.Context, p query.Predicate, offset, limit int) ([]core.Transaction, error) {
	s, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	return s.Find(ctx, p, offset, limit)
}

func (c *Client) Sum(ctx context.Context, p query.Predicate, field query.Field) (decimal.Decimal, error) {
	s, err := c.current(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return s.Sum(ctx, p, field)
}

func (c *Client) GroupCount(ctx context.Context, p query.Predicate, field query.Field) ([]core.CategoryCount, error) {
	s, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	return s.GroupCount(ctx, p, field)
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.current(ctx)
	return err
}
