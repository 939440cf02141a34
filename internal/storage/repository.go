// Package storage is the SQLite record store.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"salesdash/internal/core"
	"salesdash/internal/query"
	"salesdash/internal/storage/sqlpred"
	"salesdash/internal/store"
)

var (
	_ store.Reader = (*SQLiteRepository)(nil)
	_ store.Writer = (*SQLiteRepository)(nil)
)

// dateLayout is how date_of_sale is stored: UTC, lexically sortable, and
// understood by strftime.
const dateLayout = "2006-01-02 15:04:05"

const selectColumns = "id, title, price_cents, description, category, image, sold, date_of_sale"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Count(ctx context.Context, p query.Predicate) (int64, error) {
	where, err := sqlpred.Where(sqlpred.SQLite, p)
	if err != nil {
		return 0, err
	}
	var n int64
	q := "SELECT COUNT(*) FROM transactions WHERE " + where.SQL
	if err := r.db.QueryRowContext(ctx, q, where.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Find(ctx context.Context, p query.Predicate, offset, limit int) ([]core.Transaction, error) {
	out := []core.Transaction{}
	if limit <= 0 {
		return out, nil
	}
	where, err := sqlpred.Where(sqlpred.SQLite, p)
	if err != nil {
		return nil, err
	}
	q := "SELECT " + selectColumns + " FROM transactions WHERE " + where.SQL + " ORDER BY id LIMIT ? OFFSET ?"
	args := append(where.Args, limit, offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Sum(ctx context.Context, p query.Predicate, field query.Field) (decimal.Decimal, error) {
	if field != query.FieldPrice {
		return decimal.Zero, fmt.Errorf("sum %s: %w", field, query.ErrUnknownField)
	}
	where, err := sqlpred.Where(sqlpred.SQLite, p)
	if err != nil {
		return decimal.Zero, err
	}
	var cents int64
	q := "SELECT COALESCE(SUM(price_cents), 0) FROM transactions WHERE " + where.SQL
	if err := r.db.QueryRowContext(ctx, q, where.Args...).Scan(&cents); err != nil {
		return decimal.Zero, fmt.Errorf("sum transactions: %w", err)
	}
	return core.PriceFromCents(cents), nil
}

func (r *SQLiteRepository) GroupCount(ctx context.Context, p query.Predicate, field query.Field) ([]core.CategoryCount, error) {
	if field != query.FieldCategory {
		return nil, fmt.Errorf("group by %s: %w", field, query.ErrUnknownField)
	}
	where, err := sqlpred.Where(sqlpred.SQLite, p)
	if err != nil {
		return nil, err
	}
	q := "SELECT category, COUNT(*) FROM transactions WHERE " + where.SQL +
		" GROUP BY category ORDER BY MIN(id)"
	rows, err := r.db.QueryContext(ctx, q, where.Args...)
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

// Upsert inserts or replaces records by id in a single transaction.
func (r *SQLiteRepository) Upsert(ctx context.Context, txs []core.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, `
INSERT INTO transactions (id, title, price_cents, description, category, image, sold, date_of_sale)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    price_cents = excluded.price_cents,
    description = excluded.description,
    category = excluded.category,
    image = excluded.image,
    sold = excluded.sold,
    date_of_sale = excluded.date_of_sale,
    imported_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, tx := range txs {
		_, err := stmt.ExecContext(ctx,
			tx.ID,
			tx.Title,
			core.PriceToCents(tx.Price),
			tx.Description,
			tx.Category,
			tx.Image,
			sqlpred.SQLite.Bool(tx.Sold),
			tx.DateOfSale.UTC().Format(dateLayout),
		)
		if err != nil {
			return 0, fmt.Errorf("upsert transaction %d: %w", tx.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}

	slog.InfoContext(ctx, "Transactions upserted into SQLite", "count", len(txs))
	return len(txs), nil
}

func scanTransaction(rows *sql.Rows) (core.Transaction, error) {
	var (
		tx    core.Transaction
		cents int64
		sold  int64
		date  string
	)
	if err := rows.Scan(&tx.ID, &tx.Title, &cents, &tx.Description, &tx.Category, &tx.Image, &sold, &date); err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	when, err := time.Parse(dateLayout, date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date_of_sale %q: %w", date, err)
	}
	tx.Price = core.PriceFromCents(cents)
	tx.Sold = sold != 0
	tx.DateOfSale = when
	return tx, nil
}
