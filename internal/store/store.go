// Package store persists file fingerprints in a SQLite database.
//
// Rows accumulate across runs so that one base database can be scanned
// once and later runs over other trees appended to it for duplicate
// detection. Each run writes inside a single transaction: either every
// record from the run becomes visible at commit, or none do.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store owns the SQLite database of file records.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at dbPath and ensures the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Clear deletes all previously recorded files. Used by the "clear" reset
// policy before a run begins; it is never called mid-run.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM files"); err != nil {
		return fmt.Errorf("clear files: %w", err)
	}
	return nil
}

// Count returns the number of recorded files visible outside any open run.
func (s *Store) Count() (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM files").Scan(&n)
	return n, err
}

// probeLock attempts and immediately releases an exclusive-intent
// transaction on a dedicated connection. A database already held by
// another writer fails here, before any traversal starts, instead of
// surfacing mid-run.
func (s *Store) probeLock() error {
	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("database is locked by another writer: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "ROLLBACK"); err != nil {
		return fmt.Errorf("release lock probe: %w", err)
	}
	return nil
}

// Run is one open recording transaction spanning an entire scan.
type Run struct {
	tx       *sql.Tx
	insert   *sql.Stmt
	finished bool
}

// BeginRun probes for a competing writer, then opens the transaction that
// will hold every record of the run until Commit or Rollback.
func (s *Store) BeginRun() (*Run, error) {
	if err := s.probeLock(); err != nil {
		return nil, err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	insert, err := tx.Prepare("INSERT INTO files (crc, name, path, size) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	return &Run{tx: tx, insert: insert}, nil
}

// Record inserts one file record inside the run's transaction. Values are
// bound as parameters; file and path names never reach the SQL text.
func (r *Run) Record(rec FileRecord) error {
	if r.finished {
		return fmt.Errorf("record after run finished")
	}
	_, err := r.insert.Exec(int64(rec.Fingerprint), rec.Name, rec.Path, int64(rec.SizeBytes))
	if err != nil {
		return fmt.Errorf("insert %s: %w", rec.Name, err)
	}
	return nil
}

// Commit makes every record of the run durable.
func (r *Run) Commit() error {
	if r.finished {
		return nil
	}
	r.finished = true
	r.insert.Close()
	if err := r.tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// Rollback discards every record of the run, restoring the store to its
// exact pre-run state. Safe to call after Commit; it then does nothing.
func (r *Run) Rollback() error {
	if r.finished {
		return nil
	}
	r.finished = true
	r.insert.Close()
	if err := r.tx.Rollback(); err != nil {
		return fmt.Errorf("rollback run: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
