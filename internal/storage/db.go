// Package storage persists the fallback corpus (documents and chunks) in a
// SQLite database with an FTS5 mirror, so a built corpus survives between
// runs and fallback search scales past in-memory scanning.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	lberrors "lorebook/internal/errors"
	"lorebook/internal/logging"
)

// DB is the corpus database handle.
type DB struct {
	conn   *sql.DB
	logger *logging.Logger
	path   string
}

// Exists reports whether a corpus database has been built under vaultRoot.
func Exists(vaultRoot string) bool {
	_, err := os.Stat(filepath.Join(vaultRoot, ".lorebook", "corpus.db"))
	return err == nil
}

// Open opens or creates the corpus database under <vaultRoot>/.lorebook/.
func Open(vaultRoot string, logger *logging.Logger) (*DB, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	dir := filepath.Join(vaultRoot, ".lorebook")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, lberrors.New(lberrors.StorageFailed, fmt.Sprintf("creating %s", dir), err)
	}
	path := filepath.Join(dir, "corpus.db")

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, lberrors.New(lberrors.StorageFailed, fmt.Sprintf("opening %s", path), err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, lberrors.New(lberrors.StorageFailed, "setting pragma", err)
		}
	}

	db := &DB{conn: conn, logger: logger, path: path}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Debug("corpus database ready", map[string]interface{}{"path": path})
	return db, nil
}

// Close closes the database.
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on error.
func (db *DB) withTx(fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return lberrors.New(lberrors.StorageFailed, "beginning transaction", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return lberrors.New(lberrors.StorageFailed, "committing transaction", err)
	}
	return nil
}

func (db *DB) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			uid     INTEGER NOT NULL,
			scope   TEXT    NOT NULL,
			path    TEXT    NOT NULL,
			title   TEXT    NOT NULL,
			content TEXT    NOT NULL,
			route   TEXT    NOT NULL,
			PRIMARY KEY (scope, uid)
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			chunk_id     TEXT    NOT NULL,
			scope        TEXT    NOT NULL,
			doc_uid      INTEGER NOT NULL,
			idx          INTEGER NOT NULL,
			heading      TEXT    NOT NULL,
			text         TEXT    NOT NULL,
			content_hash TEXT    NOT NULL,
			token_count  INTEGER NOT NULL,
			start_byte   INTEGER NOT NULL,
			end_byte     INTEGER NOT NULL,
			PRIMARY KEY (scope, chunk_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_doc ON chunks(scope, doc_uid)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS corpus_fts USING fts5(
			scope UNINDEXED,
			doc_uid UNINDEXED,
			chunk_id UNINDEXED,
			title,
			heading,
			text
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.conn.Exec(stmt); err != nil {
			return lberrors.New(lberrors.StorageFailed, "initializing schema", err)
		}
	}
	return nil
}
