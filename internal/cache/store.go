// Package cache implements the client-side content-addressed cache
// (spec.md §4.10): a filesystem layout under $CACHE_ROOT/sources/ plus a
// SQLite catalog indexing what's present, mirroring the way
// internal/regdb owns its schema as an embedded .sql file.
package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/bdp-project/bdp/internal/bdperr"
)

//go:embed schema.sql
var schema string

// Entry is one row of the cache catalog: a fetched file and where to find
// it on disk.
type Entry struct {
	Spec       string
	Version    string
	Format     string
	Filename   string
	SHA256     string
	SizeBytes  int64
	Path       string
	FetchedAt  time.Time
}

// Store owns $CACHE_ROOT: the sources/ tree plus the SQLite catalog
// (catalog.db, WAL mode) that indexes it.
type Store struct {
	root string
	db   *sql.DB
}

// Open opens (creating if necessary) the cache catalog rooted at root.
func Open(root string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, "sources"), 0o755); err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "create cache root")
	}

	dsn := connString(filepath.Join(root, "catalog.db"))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "open cache catalog")
	}
	db.SetMaxOpenConns(1) // ncruces/go-sqlite3 connections don't share a WAL reader cursor across goroutines safely

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "enable WAL mode")
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=5000`); err != nil {
		db.Close()
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "set busy timeout")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "apply cache schema")
	}

	return &Store{root: root, db: db}, nil
}

// connString builds a SQLite DSN for the catalog file. Unlike the teacher's
// doctor package, BDP has no cgo/non-cgo split to accommodate: ncruces/go-sqlite3
// is pure Go, so a single helper covers every build.
func connString(path string) string {
	return fmt.Sprintf("file:%s", path)
}

// Root returns $CACHE_ROOT.
func (s *Store) Root() string { return s.root }

// DB exposes the underlying catalog database for internal/journal, which
// shares the same SQLite file for its audit_journal table.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// TargetPath returns the on-disk layout path for a cache entry, per
// spec.md §4.10: $CACHE_ROOT/sources/{org}/{name}@{internal_version}/{file_format}/{filename}.
func (s *Store) TargetPath(org, name, internalVersion, format, filename string) string {
	return filepath.Join(s.root, "sources", org, name+"@"+internalVersion, format, filename)
}

// Lookup returns the catalog row for (spec, version, format), if present.
func (s *Store) Lookup(ctx context.Context, spec, version, format string) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT spec, version, format, filename, sha256, size_bytes, path, fetched_at
		FROM cache_entries WHERE spec = ? AND version = ? AND format = ?`,
		spec, version, format)

	var e Entry
	var fetchedAt string
	err := row.Scan(&e.Spec, &e.Version, &e.Format, &e.Filename, &e.SHA256, &e.SizeBytes, &e.Path, &fetchedAt)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, bdperr.Wrap(bdperr.KindInternal, err, "lookup cache entry")
	}
	e.FetchedAt, err = time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return Entry{}, false, bdperr.Wrap(bdperr.KindInternal, err, "parse cache entry fetched_at")
	}
	return e, true, nil
}

// List returns every catalog row, for `bdp status` and age/lockfile-absence
// pruning.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT spec, version, format, filename, sha256, size_bytes, path, fetched_at
		FROM cache_entries ORDER BY fetched_at`)
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "list cache entries")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var fetchedAt string
		if err := rows.Scan(&e.Spec, &e.Version, &e.Format, &e.Filename, &e.SHA256, &e.SizeBytes, &e.Path, &fetchedAt); err != nil {
			return nil, bdperr.Wrap(bdperr.KindInternal, err, "scan cache entry")
		}
		e.FetchedAt, err = time.Parse(time.RFC3339Nano, fetchedAt)
		if err != nil {
			return nil, bdperr.Wrap(bdperr.KindInternal, err, "parse cache entry fetched_at")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) insert(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (spec, version, format, filename, sha256, size_bytes, path, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(spec, version, format) DO UPDATE SET
			filename = excluded.filename, sha256 = excluded.sha256,
			size_bytes = excluded.size_bytes, path = excluded.path, fetched_at = excluded.fetched_at`,
		e.Spec, e.Version, e.Format, e.Filename, e.SHA256, e.SizeBytes, e.Path, e.FetchedAt.Format(time.RFC3339Nano))
	if err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "insert cache entry")
	}
	return nil
}

func (s *Store) delete(ctx context.Context, spec, version, format string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE spec = ? AND version = ? AND format = ?`, spec, version, format)
	if err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "delete cache entry")
	}
	return nil
}
