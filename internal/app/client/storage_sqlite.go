package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/exp/slog"

	"coinkeeper/internal/domain/entity"
)

// SQLiteStorage is the device-side copy of the owner's data. It implements
// the same ledger contract as the server store, so the applier, collector
// and normalizer run unchanged on both sides; the userID argument those
// methods carry is ignored here because a device database belongs to exactly
// one owner.
//
// Writes are not wrapped in an explicit transaction: the agent serializes
// all sync work behind a try-lock, and a crash mid-apply just leaves rows
// the next run re-applies idempotently under last-write-wins.
type SQLiteStorage struct {
	db  *sql.DB
	log *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS sync_state (
    id             INTEGER PRIMARY KEY CHECK (id = 1),
    last_synced_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    global_id  TEXT    NOT NULL,
    name       TEXT    NOT NULL,
    kind       TEXT    NOT NULL,
    updated_at DATETIME NOT NULL,
    deleted    INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_categories_gid ON categories (global_id);
CREATE INDEX IF NOT EXISTS idx_categories_updated ON categories (updated_at);

CREATE TABLE IF NOT EXISTS savings_goals (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    global_id     TEXT    NOT NULL,
    name          TEXT    NOT NULL,
    target_amount INTEGER NOT NULL,
    deadline      DATETIME NOT NULL,
    updated_at    DATETIME NOT NULL,
    deleted       INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_savings_goals_gid ON savings_goals (global_id);
CREATE INDEX IF NOT EXISTS idx_savings_goals_updated ON savings_goals (updated_at);

CREATE TABLE IF NOT EXISTS settings (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    global_id       TEXT    NOT NULL,
    currency        TEXT    NOT NULL,
    month_start_day INTEGER NOT NULL,
    updated_at      DATETIME NOT NULL,
    deleted         INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_settings_gid ON settings (global_id);
CREATE INDEX IF NOT EXISTS idx_settings_updated ON settings (updated_at);

CREATE TABLE IF NOT EXISTS transactions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    global_id   TEXT    NOT NULL,
    category_id INTEGER NOT NULL DEFAULT 0,
    amount      INTEGER NOT NULL,
    note        TEXT    NOT NULL DEFAULT '',
    occurred_at DATETIME NOT NULL,
    updated_at  DATETIME NOT NULL,
    deleted     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_transactions_gid ON transactions (global_id);
CREATE INDEX IF NOT EXISTS idx_transactions_updated ON transactions (updated_at);

CREATE TABLE IF NOT EXISTS budgets (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    global_id   TEXT    NOT NULL,
    category_id INTEGER NOT NULL DEFAULT 0,
    amount      INTEGER NOT NULL,
    month       TEXT    NOT NULL,
    updated_at  DATETIME NOT NULL,
    deleted     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_budgets_gid ON budgets (global_id);
CREATE INDEX IF NOT EXISTS idx_budgets_updated ON budgets (updated_at);

CREATE TABLE IF NOT EXISTS recurring_transactions (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    global_id      TEXT    NOT NULL,
    category_id    INTEGER NOT NULL DEFAULT 0,
    amount         INTEGER NOT NULL,
    note           TEXT    NOT NULL DEFAULT '',
    recur_interval TEXT    NOT NULL,
    next_at        DATETIME NOT NULL,
    updated_at     DATETIME NOT NULL,
    deleted        INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_recurring_gid ON recurring_transactions (global_id);
CREATE INDEX IF NOT EXISTS idx_recurring_updated ON recurring_transactions (updated_at);

CREATE TABLE IF NOT EXISTS savings_goal_transactions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    global_id   TEXT    NOT NULL,
    goal_id     INTEGER NOT NULL DEFAULT 0,
    amount      INTEGER NOT NULL,
    note        TEXT    NOT NULL DEFAULT '',
    occurred_at DATETIME NOT NULL,
    updated_at  DATETIME NOT NULL,
    deleted     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_goal_txs_gid ON savings_goal_transactions (global_id);
CREATE INDEX IF NOT EXISTS idx_goal_txs_updated ON savings_goal_transactions (updated_at);
`

func NewSQLiteStorage(path string, log *slog.Logger) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer at a time keeps lock errors out of the sync path.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStorage{
		db:  db,
		log: log.With("module", "sqlite_storage"),
	}, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// LastSyncedAt returns the persisted watermark, zero before the first
// successful sync.
func (s *SQLiteStorage) LastSyncedAt(ctx context.Context) (time.Time, error) {
	var t time.Time
	err := s.db.QueryRowContext(ctx, `SELECT last_synced_at FROM sync_state WHERE id = 1`).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read watermark: %w", err)
	}
	return t.UTC(), nil
}

// SetLastSyncedAt persists the watermark. Called only after a fully
// successful round trip; any earlier failure leaves the old watermark so the
// next sync re-covers the same window.
func (s *SQLiteStorage) SetLastSyncedAt(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (id, last_synced_at) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET last_synced_at = excluded.last_synced_at`,
		t.UTC())
	if err != nil {
		return fmt.Errorf("persist watermark: %w", err)
	}
	return nil
}

// CountChangedSince reports how many local records would be uploaded by the
// next sync. Used by the status command.
func (s *SQLiteStorage) CountChangedSince(ctx context.Context, since time.Time) (int, error) {
	total := 0
	for _, table := range []string{
		"categories", "savings_goals", "settings", "transactions",
		"budgets", "recurring_transactions", "savings_goal_transactions",
	} {
		var n int
		query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE updated_at > ?`, table)
		if err := s.db.QueryRowContext(ctx, query, since.UTC()).Scan(&n); err != nil {
			return 0, fmt.Errorf("count %s: %w", table, err)
		}
		total += n
	}
	return total, nil
}

// SeedDefaults creates the starter categories and settings on a fresh
// database. A database that already has categories is left alone.
func (s *SQLiteStorage) SeedDefaults(ctx context.Context, now time.Time) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return fmt.Errorf("check categories: %w", err)
	}
	if n > 0 {
		return nil
	}

	defaults := []struct {
		name string
		kind entity.CategoryKind
	}{
		{"Groceries", entity.CategoryExpense},
		{"Rent", entity.CategoryExpense},
		{"Transport", entity.CategoryExpense},
		{"Entertainment", entity.CategoryExpense},
		{"Salary", entity.CategoryIncome},
		{entity.FallbackCategoryName, entity.CategoryExpense},
	}
	for _, d := range defaults {
		c := entity.NewCategory(d.name, d.kind, now)
		if _, err := s.InsertCategory(ctx, 0, c); err != nil {
			return fmt.Errorf("seed category %q: %w", d.name, err)
		}
	}

	st := entity.NewSettings("USD", 1, now)
	if _, err := s.InsertSettings(ctx, 0, st); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	s.log.Info("seeded default categories and settings")
	return nil
}
