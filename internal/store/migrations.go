package store

import (
	"context"
	"database/sql"
)

// Amounts are stored as decimal text so that no precision is lost.
// completed_at is Unix nanoseconds in UTC; NULL when the export had no date.
const schema = `
CREATE TABLE IF NOT EXISTS batches (
    id TEXT PRIMARY KEY,
    imported_at INTEGER NOT NULL,
    entry_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    batch_id TEXT NOT NULL,
    order_number TEXT NOT NULL,
    completed_at INTEGER,
    state TEXT NOT NULL DEFAULT '',
    customer_name TEXT NOT NULL DEFAULT '',
    customer_email TEXT NOT NULL DEFAULT '',
    distributor TEXT NOT NULL DEFAULT '',
    payment_method TEXT NOT NULL DEFAULT '',
    payment_total TEXT NOT NULL DEFAULT '0',
    shipping_total TEXT NOT NULL DEFAULT '0',
    supplier TEXT NOT NULL DEFAULT '',
    product TEXT NOT NULL DEFAULT '',
    variant TEXT NOT NULL DEFAULT '',
    quantity TEXT NOT NULL DEFAULT '0',
    price TEXT NOT NULL DEFAULT '0',
    unit_value TEXT NOT NULL DEFAULT '0',
    unit_name TEXT NOT NULL DEFAULT '',
    group_buy_unit_size TEXT NOT NULL DEFAULT '0',
    FOREIGN KEY (batch_id) REFERENCES batches(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_entries_batch_id ON entries(batch_id);
CREATE INDEX IF NOT EXISTS idx_entries_distributor ON entries(distributor COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_entries_supplier ON entries(supplier COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_entries_completed_at ON entries(completed_at);
`

func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
