package store

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// Migrate brings the schema up to schemaVersion. It is idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	stmts := []string{`
CREATE TABLE IF NOT EXISTS jobs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  company TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  link TEXT NOT NULL UNIQUE,
  emails TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL DEFAULT (datetime('now')),
  status TEXT NOT NULL DEFAULT 'new'
);`, `
CREATE TABLE IF NOT EXISTS scans (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  roles TEXT NOT NULL,
  location TEXT NOT NULL,
  language TEXT NOT NULL,
  job_count INTEGER NOT NULL,
  timestamp TEXT NOT NULL DEFAULT (datetime('now'))
);`, `
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);`,
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return err
		}
	}

	// dev databases created before the status column existed
	if !columnExists(ctx, tx, "jobs", "status") {
		if _, err := tx.ExecContext(ctx, `ALTER TABLE jobs ADD COLUMN status TEXT NOT NULL DEFAULT 'new';`); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func columnExists(ctx context.Context, tx *sql.Tx, table, col string) bool {
	query := fmt.Sprintf(`SELECT 1 FROM pragma_table_info('%s') WHERE name = ? LIMIT 1;`, table)
	var one int
	return tx.QueryRowContext(ctx, query, col).Scan(&one) == nil
}
