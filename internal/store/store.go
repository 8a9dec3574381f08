// Package store keeps imported order entries in SQLite so that reports can
// be rebuilt and filtered without the original export files.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/ginjaninja78/order-reports/internal/orders"
)

// ErrBatchNotFound is returned when deleting an unknown batch.
var ErrBatchNotFound = errors.New("store: batch not found")

// Batch describes one import.
type Batch struct {
	ID         string
	ImportedAt time.Time
	Entries    int
}

// Store is a SQLite-backed order entry store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens the database at path, creating parent directories and running
// migrations.
func New(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: shared.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ImportEntries stores entries as one batch in a single transaction. An
// empty batchID is replaced by a new UUID. Continuation rows are stored
// with the order fields of the first row of their order. It returns the
// number of entries written.
func (s *Store) ImportEntries(ctx context.Context, batchID string, entries []orders.Entry) (int, error) {
	if batchID == "" {
		batchID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO batches (id, imported_at, entry_count) VALUES (?, ?, ?)",
		batchID, s.now().UTC().UnixNano(), len(entries),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert batch %s: %w", batchID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entries (
		batch_id, order_number, completed_at, state, customer_name, customer_email,
		distributor, payment_method, payment_total, shipping_total, supplier,
		product, variant, quantity, price, unit_value, unit_name, group_buy_unit_size
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range orders.FillOrderFields(entries) {
		_, err := stmt.ExecContext(ctx,
			batchID, e.OrderNumber, nullableTime(e.CompletedAt), e.State,
			e.CustomerName, e.CustomerEmail, e.Distributor, e.PaymentMethod,
			e.PaymentTotal.String(), e.ShippingTotal.String(), e.Supplier,
			e.Product, e.Variant, e.Quantity.String(), e.Price.String(),
			e.UnitValue.String(), e.UnitName, e.GroupBuyUnitSize.String(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert entry %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return len(entries), nil
}

// QueryEntries returns the entries matching filter in insertion order.
func (s *Store) QueryEntries(ctx context.Context, filter orders.Filter) ([]orders.Entry, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	where, args := buildWhere(filter)
	query := `SELECT order_number, completed_at, state, customer_name, customer_email,
		distributor, payment_method, payment_total, shipping_total, supplier,
		product, variant, quantity, price, unit_value, unit_name, group_buy_unit_size
		FROM entries` + where + ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []orders.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}

	return entries, nil
}

// Batches lists imports, most recent first.
func (s *Store) Batches(ctx context.Context) ([]Batch, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, imported_at, entry_count FROM batches ORDER BY imported_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var b Batch
		var importedAt int64
		if err := rows.Scan(&b.ID, &importedAt, &b.Entries); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		b.ImportedAt = time.Unix(0, importedAt).UTC()
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// DeleteBatch removes a batch and its entries.
func (s *Store) DeleteBatch(ctx context.Context, batchID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM batches WHERE id = ?", batchID)
	if err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}
	return nil
}

// buildWhere mirrors orders.Filter.Match in SQL.
func buildWhere(f orders.Filter) (string, []any) {
	var clauses []string
	var args []any

	in := func(column string, values []string) {
		if len(values) == 0 {
			return
		}
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = "?"
			args = append(args, strings.TrimSpace(v))
		}
		clauses = append(clauses, fmt.Sprintf("trim(%s) COLLATE NOCASE IN (%s)", column, strings.Join(placeholders, ", ")))
	}

	in("distributor", f.Distributors)
	in("supplier", f.Suppliers)
	in("state", f.States)

	if !f.From.IsZero() {
		clauses = append(clauses, "completed_at >= ?")
		args = append(args, f.From.UTC().UnixNano())
	}
	if !f.To.IsZero() {
		clauses = append(clauses, "completed_at <= ?")
		args = append(args, f.To.UTC().UnixNano())
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanEntry(rows *sql.Rows) (orders.Entry, error) {
	var e orders.Entry
	var completedAt sql.NullInt64
	var paymentTotal, shippingTotal, quantity, price, unitValue, unitSize string

	err := rows.Scan(
		&e.OrderNumber, &completedAt, &e.State, &e.CustomerName, &e.CustomerEmail,
		&e.Distributor, &e.PaymentMethod, &paymentTotal, &shippingTotal, &e.Supplier,
		&e.Product, &e.Variant, &quantity, &price, &unitValue, &e.UnitName, &unitSize,
	)
	if err != nil {
		return e, fmt.Errorf("failed to scan entry: %w", err)
	}

	if completedAt.Valid {
		e.CompletedAt = time.Unix(0, completedAt.Int64).UTC()
	}

	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&e.PaymentTotal, paymentTotal},
		{&e.ShippingTotal, shippingTotal},
		{&e.Quantity, quantity},
		{&e.Price, price},
		{&e.UnitValue, unitValue},
		{&e.GroupBuyUnitSize, unitSize},
	} {
		d, err := decimal.NewFromString(f.src)
		if err != nil {
			return e, fmt.Errorf("order %s: corrupt amount %q: %w", e.OrderNumber, f.src, err)
		}
		*f.dst = d
	}

	return e, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().UnixNano()
}
