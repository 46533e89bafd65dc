// Package transcache persists translated segments, per-file source
// fingerprints and run history in a SQLite database.
package transcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
)

// Cache is a SQLite-backed translation memory.
type Cache struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// Open opens or creates the cache at dbPath. Use ":memory:" for an in-memory cache.
func Open(dbPath string) (*Cache, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryCache, "create cache directory").
				WithContext("path", dbPath).
				Build()
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryCache, "open sqlite database").WithContext("path", dbPath).Build()
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	c := &Cache{db: db, now: time.Now}
	if err := c.initialize(); err != nil {
		_ = db.Close()
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryCache, "initialize schema").WithContext("path", dbPath).Build()
	}
	return c, nil
}

func (c *Cache) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS segments (
		lang TEXT NOT NULL,
		hash TEXT NOT NULL,
		source TEXT NOT NULL,
		translated TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (lang, hash)
	);
	CREATE TABLE IF NOT EXISTS files (
		lang TEXT NOT NULL,
		path TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (lang, path)
	);
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		status TEXT NOT NULL,
		summary BLOB
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key returns the lookup key of a source text.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the stored translation of text for lang.
func (c *Cache) Lookup(ctx context.Context, lang, text string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var translated string
	err := c.db.QueryRowContext(ctx,
		"SELECT translated FROM segments WHERE lang = ? AND hash = ?",
		lang, Key(text),
	).Scan(&translated)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query segment: %w", err)
	}
	return translated, true, nil
}

// Store records the translation of text for lang, replacing any previous one.
func (c *Cache) Store(ctx context.Context, lang, text, translated string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO segments (lang, hash, source, translated, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(lang, hash) DO UPDATE SET translated = excluded.translated, updated_at = excluded.updated_at`,
		lang, Key(text), text, translated, c.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert segment: %w", err)
	}
	return nil
}

// Segments returns the number of stored segments for lang, or for all languages when lang is empty.
func (c *Cache) Segments(ctx context.Context, lang string) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	query := "SELECT COUNT(*) FROM segments"
	var args []any
	if lang != "" {
		query += " WHERE lang = ?"
		args = append(args, lang)
	}
	var n int
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count segments: %w", err)
	}
	return n, nil
}

// FileFingerprint returns the source fingerprint recorded when path was last translated into lang.
func (c *Cache) FileFingerprint(ctx context.Context, lang, path string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var fp string
	err := c.db.QueryRowContext(ctx,
		"SELECT fingerprint FROM files WHERE lang = ? AND path = ?",
		lang, filepath.ToSlash(path),
	).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query file fingerprint: %w", err)
	}
	return fp, true, nil
}

// SetFileFingerprint records the source fingerprint of a translated file.
func (c *Cache) SetFileFingerprint(ctx context.Context, lang, path, fingerprint string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO files (lang, path, fingerprint, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(lang, path) DO UPDATE SET fingerprint = excluded.fingerprint, updated_at = excluded.updated_at`,
		lang, filepath.ToSlash(path), fingerprint, c.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert file fingerprint: %w", err)
	}
	return nil
}
