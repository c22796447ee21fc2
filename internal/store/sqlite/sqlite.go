// Package sqlite provides the durable history backend on SQLite.
//
// Records live in a single append-only table keyed by an auto-incrementing
// id, with a secondary index on the creation timestamp that every ordered
// read and delete walks.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/hay-kot/quill/internal/core/history"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

const schema = `
	CREATE TABLE IF NOT EXISTS input_history (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		content    TEXT    NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_input_history_created ON input_history(created_at, id);
`

// Backend implements history.Backend on a SQLite database file.
type Backend struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time

	// latest reads the newest record's content inside tx. Replaceable in tests.
	latest func(ctx context.Context, tx *sql.Tx) (string, bool, error)

	mu          sync.Mutex
	lastCreated int64
}

// Open opens (creating if needed) the database at path and migrates it.
// Any failure is reported as history.ErrUnavailable.
func Open(ctx context.Context, path string, log zerolog.Logger) (*Backend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %w", history.ErrUnavailable, err)
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := openDB("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", history.ErrUnavailable, err)
	}

	// One connection: SQLite serializes writers anyway, and a single
	// connection keeps transactions from waiting on each other's locks.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping database: %w", history.ErrUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrate: %w", history.ErrUnavailable, err)
	}

	b := &Backend{
		db:     db,
		log:    log,
		now:    time.Now,
		latest: latestContent,
	}

	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(created_at), 0) FROM input_history`).Scan(&b.lastCreated); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: read last timestamp: %w", history.ErrUnavailable, err)
	}

	log.Debug().Str("path", path).Msg("opened history database")
	return b, nil
}

// Opener returns a history.OpenFunc for the database at path.
func Opener(path string, log zerolog.Logger) history.OpenFunc {
	return func(ctx context.Context) (history.Backend, error) {
		return Open(ctx, path, log)
	}
}

// Close closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Append inserts content unless the newest record already holds it. A failed
// duplicate check is logged and treated as "no duplicate".
func (b *Backend) Append(ctx context.Context, content string) error {
	return b.withTx(ctx, func(tx *sql.Tx) error {
		last, found, err := b.latest(ctx, tx)
		if err != nil {
			b.log.Warn().Err(err).Msg("duplicate check failed, appending anyway")
		} else if found && last == content {
			return nil
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO input_history (content, created_at) VALUES (?, ?)`,
			content, b.nextCreatedAt(),
		)
		if err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
		return nil
	})
}

// QueryRecentDescending walks the time index newest first and stops after
// limit rows.
func (b *Backend) QueryRecentDescending(ctx context.Context, limit int) ([]history.Record, error) {
	if limit <= 0 {
		return []history.Record{}, nil
	}

	rows, err := b.db.QueryContext(ctx,
		`SELECT id, content, created_at FROM input_history ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	records := make([]history.Record, 0, min(limit, 64))
	for rows.Next() {
		var r history.Record
		if err := rows.Scan(&r.ID, &r.Content, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, r)
		if len(records) == limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

// Count returns the number of records.
func (b *Backend) Count(ctx context.Context) (int, error) {
	var n int
	if err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM input_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// DeleteOldestAscending deletes the first n records of the ascending time
// index.
func (b *Backend) DeleteOldestAscending(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}

	return b.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM input_history
			WHERE id IN (
				SELECT id FROM input_history
				ORDER BY created_at ASC, id ASC
				LIMIT ?
			)`, n)
		if err != nil {
			return fmt.Errorf("delete oldest records: %w", err)
		}

		deleted, _ := res.RowsAffected()
		b.log.Debug().Int64("deleted", deleted).Msg("deleted oldest records")
		return nil
	})
}

// Clear deletes every record.
func (b *Backend) Clear(ctx context.Context) error {
	return b.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM input_history`); err != nil {
			return fmt.Errorf("delete records: %w", err)
		}
		return nil
	})
}

// withTx runs fn in a transaction and commits it. The transaction is rolled
// back if fn or the commit fails.
func (b *Backend) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// nextCreatedAt returns the current time in milliseconds, bumped past the
// previous value so the time index never holds ties from this process.
func (b *Backend) nextCreatedAt() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	ts := b.now().UnixMilli()
	if ts <= b.lastCreated {
		ts = b.lastCreated + 1
	}
	b.lastCreated = ts
	return ts
}

func latestContent(ctx context.Context, tx *sql.Tx) (string, bool, error) {
	var content string
	err := tx.QueryRowContext(ctx,
		`SELECT content FROM input_history ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return content, true, nil
}
