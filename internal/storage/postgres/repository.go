// Package postgres is the PostgreSQL record store.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"salesdash/internal/core"
	"salesdash/internal/query"
	"salesdash/internal/storage/sqlpred"
	"salesdash/internal/store"
)

var (
	_ store.Reader = (*Repository)(nil)
	_ store.Writer = (*Repository)(nil)
)

const selectColumns = "id, title, price_cents, description, category, image, sold, date_of_sale"

const upsertSQL = `
INSERT INTO transactions (id, title, price_cents, description, category, image, sold, date_of_sale)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
    title = EXCLUDED.title,
    price_cents = EXCLUDED.price_cents,
    description = EXCLUDED.description,
    category = EXCLUDED.category,
    image = EXCLUDED.image,
    sold = EXCLUDED.sold,
    date_of_sale = EXCLUDED.date_of_sale,
    imported_at = NOW()`

type Repository struct {
	pool *pgxpool.Pool
}

// Open migrates the schema and connects a pool.
func Open(ctx context.Context, databaseURL string) (*Repository, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) Count(ctx context.Context, p query.Predicate) (int64, error) {
	where, err := sqlpred.Where(sqlpred.Postgres, p)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM transactions WHERE "+where.SQL, where.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (r *Repository) Find(ctx context.Context, p query.Predicate, offset, limit int) ([]core.Transaction, error) {
	out := []core.Transaction{}
	if limit <= 0 {
		return out, nil
	}
	where, err := sqlpred.Where(sqlpred.Postgres, p)
	if err != nil {
		return nil, err
	}
	next := where.Next(1)
	q := fmt.Sprintf("SELECT %s FROM transactions WHERE %s ORDER BY id LIMIT $%d OFFSET $%d",
		selectColumns, where.SQL, next, next+1)
	args := append(where.Args, limit, offset)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tx    core.Transaction
			cents int64
			when  time.Time
		)
		if err := rows.Scan(&tx.ID, &tx.Title, &cents, &tx.Description, &tx.Category, &tx.Image, &tx.Sold, &when); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Price = core.PriceFromCents(cents)
		tx.DateOfSale = when.UTC()
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *Repository) Sum(ctx context.Context, p query.Predicate, field query.Field) (decimal.Decimal, error) {
	if field != query.FieldPrice {
		return decimal.Zero, fmt.Errorf("sum %s: %w", field, query.ErrUnknownField)
	}
	where, err := sqlpred.Where(sqlpred.Postgres, p)
	if err != nil {
		return decimal.Zero, err
	}
	var cents int64
	q := "SELECT COALESCE(SUM(price_cents), 0)::bigint FROM transactions WHERE " + where.SQL
	if err := r.pool.QueryRow(ctx, q, where.Args...).Scan(&cents); err != nil {
		return decimal.Zero, fmt.Errorf("sum transactions: %w", err)
	}
	return core.PriceFromCents(cents), nil
}

func (r *Repository) GroupCount(ctx context.Context, p query.Predicate, field query.Field) ([]core.CategoryCount, error) {
	if field != query.FieldCategory {
		return nil, fmt.Errorf("group by %s: %w", field, query.ErrUnknownField)
	}
	where, err := sqlpred.Where(sqlpred.Postgres, p)
	if err != nil {
		return nil, err
	}
	q := "SELECT category, COUNT(*) FROM transactions WHERE " + where.SQL +
		" GROUP BY category ORDER BY MIN(id)"
	rows, err := r.pool.Query(ctx, q, where.Args...)
	if err != nil {
		return nil, fmt.Errorf("group transactions: %w", err)
	}
	defer rows.Close()

	out := []core.CategoryCount{}
	for rows.Next() {
		var c core.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category counts: %w", err)
	}
	return out, nil
}

// Upsert sends all rows in one batch inside a transaction.
func (r *Repository) Upsert(ctx context.Context, txs []core.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}
	dbTx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer dbTx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, tx := range txs {
		batch.Queue(upsertSQL,
			tx.ID,
			tx.Title,
			core.PriceToCents(tx.Price),
			tx.Description,
			tx.Category,
			tx.Image,
			tx.Sold,
			tx.DateOfSale.UTC(),
		)
	}
	results := dbTx.SendBatch(ctx, batch)
	for _, tx := range txs {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("upsert transaction %d: %w", tx.ID, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close upsert batch: %w", err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}

	slog.InfoContext(ctx, "Transactions upserted into Postgres", "count", len(txs))
	return len(txs), nil
}
