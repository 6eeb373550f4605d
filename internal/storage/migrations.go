package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS users (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					email TEXT NOT NULL UNIQUE COLLATE NOCASE,
					password_hash TEXT NOT NULL,
					first_name TEXT NOT NULL,
					last_name TEXT NOT NULL,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS system_categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					key TEXT NOT NULL UNIQUE,
					display_name TEXT NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS user_categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL REFERENCES users(id),
					key TEXT NOT NULL,
					display_name TEXT NOT NULL,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(user_id, key)
				)`,
				`CREATE INDEX idx_user_categories_user ON user_categories(user_id)`,

				`CREATE TABLE IF NOT EXISTS expenses (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL REFERENCES users(id),
					amount REAL NOT NULL CHECK (amount > 0),
					kind TEXT NOT NULL CHECK (kind IN ('expense', 'income')),
					system_category_id INTEGER REFERENCES system_categories(id),
					user_category_id INTEGER REFERENCES user_categories(id),
					description TEXT,
					date TEXT NOT NULL,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					CHECK (system_category_id IS NULL OR user_category_id IS NULL)
				)`,
				`CREATE INDEX idx_expenses_user_date ON expenses(user_id, date)`,
				`CREATE INDEX idx_expenses_system_category ON expenses(system_category_id)`,
				`CREATE INDEX idx_expenses_user_category ON expenses(user_category_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Seed system categories",
		Up: func(tx *sql.Tx) error {
			seed := []struct {
				key  string
				name string
			}{
				{"GROCERIES", "Groceries"},
				{"TRANSPORT", "Transport"},
				{"HOUSING", "Housing"},
				{"UTILITIES", "Utilities"},
				{"HEALTH", "Health"},
				{"ENTERTAINMENT", "Entertainment"},
				{"DINING", "Dining"},
				{"TRAVEL", "Travel"},
				{"INCOME", "Income"},
				{"OTHER", "Other"},
			}

			stmt, err := tx.Prepare(`INSERT OR IGNORE INTO system_categories (key, display_name) VALUES (?, ?)`)
			if err != nil {
				return fmt.Errorf("failed to prepare seed statement: %w", err)
			}
			defer func() { _ = stmt.Close() }()

			for _, cat := range seed {
				if _, err := stmt.Exec(cat.key, cat.name); err != nil {
					return fmt.Errorf("failed to seed category %s: %w", cat.key, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add import reference for statement deduplication",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`ALTER TABLE expenses ADD COLUMN import_ref TEXT`,
				`CREATE UNIQUE INDEX idx_expenses_import_ref
					ON expenses(user_id, import_ref)
					WHERE import_ref IS NOT NULL`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies any pending schema migrations.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}

		slog.Info("applying migration",
			"version", migration.Version,
			"description", migration.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the database's current schema version.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
