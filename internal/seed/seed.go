// Package seed produces transaction sets for the import pipeline: the remote
// product feed, a local JSON file, or synthetic records.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bxcodec/faker/v3"
	"github.com/shopspring/decimal"

	"salesdash/internal/core"
)

// DefaultFeedURL is the public product feed the dashboard was built around.
const DefaultFeedURL = "https://s3.amazonaws.com/roxiler.com/product_transaction.json"

const maxFeedBytes = 32 << 20

// Categories used by the synthetic generator.
var Categories = []string{"men's clothing", "jewelery", "electronics", "women's clothing"}

// FetchFeed downloads a JSON array of transactions.
func FetchFeed(ctx context.Context, client *http.Client, url string) ([]core.Transaction, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: unexpected status %s", resp.Status)
	}
	return decode(io.LimitReader(resp.Body, maxFeedBytes))
}

// LoadFile reads a JSON array of transactions from path.
func LoadFile(path string) ([]core.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return decode(f)
}

func decode(r io.Reader) ([]core.Transaction, error) {
	var txs []core.Transaction
	if err := json.NewDecoder(r).Decode(&txs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	return txs, nil
}

// Fake returns n valid records with ids 1..n, sold dates spread over the year
// before now. The same seed yields the same prices, categories and dates.
func Fake(n int, seed int64, now time.Time) []core.Transaction {
	rng := rand.New(rand.NewSource(seed))
	out := make([]core.Transaction, n)
	for i := range out {
		cents := rng.Int63n(120000) + 1
		out[i] = core.Transaction{
			ID:          int64(i + 1),
			Title:       strings.TrimSuffix(faker.Sentence(), "."),
			Price:       core.PriceFromCents(cents),
			Description: faker.Paragraph(),
			Category:    Categories[rng.Intn(len(Categories))],
			Image:       faker.URL(),
			Sold:        rng.Intn(2) == 0,
			DateOfSale:  now.Add(-time.Duration(rng.Int63n(int64(365 * 24 * time.Hour)))).UTC().Truncate(time.Second),
		}
		if out[i].Title == "" {
			out[i].Title = faker.Word()
		}
	}
	return out
}

// TotalPrice sums the prices of txs.
func TotalPrice(txs []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Price)
	}
	return total
}
