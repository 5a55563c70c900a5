// Package localstore provides the durable, versioned key-value store that
// keeps documents, folders, audit logs and users on the local machine,
// independent of network availability.
//
// The store is an embedded SQLite database. Each named collection is a table
// keyed by the record's id and holding the record as a JSON payload. A file
// lock next to the database makes the store single-session: a second process
// opening the same path fails with ErrStorageUnavailable.
//
// Every write is committed before the call returns; there is no write-behind
// buffering.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

var (
	// ErrStorageUnavailable means the durable store could not be opened or
	// initialized. Nothing else can be trusted without it.
	ErrStorageUnavailable = errors.New("local storage unavailable")
	// ErrUnknownCollection is returned for a collection name outside the schema.
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrLocked means another session holds the store.
	ErrLocked = errors.New("local store is locked by another session")
)

// Collection names a group of records sharing one key space.
type Collection string

const (
	Documents Collection = "documents"
	Folders   Collection = "folders"
	AuditLogs Collection = "auditLogs"
	Users     Collection = "users"
)

// Collections lists every collection of the schema.
var Collections = []Collection{Documents, Folders, AuditLogs, Users}

func (c Collection) table() (string, error) {
	switch c {
	case Documents:
		return "documents", nil
	case Folders:
		return "folders", nil
	case AuditLogs:
		return "audit_logs", nil
	case Users:
		return "users", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCollection, string(c))
	}
}

// Backend is the raw record interface the generic helpers GetAll and Save
// work against. *Store implements it.
type Backend interface {
	ReadAll(ctx context.Context, c Collection) ([][]byte, error)
	Put(ctx context.Context, c Collection, id string, payload []byte) error
	Delete(ctx context.Context, c Collection, id string) error
	ClearAll(ctx context.Context) error
}

// Store is the SQLite-backed local store.
type Store struct {
	path string

	mu    sync.Mutex
	conn  *sql.DB
	lock  *flock.Flock
	ready bool
}

var _ Backend = (*Store)(nil)

// New returns a store for the database file at path. Nothing is opened until
// Init (or the first operation) runs.
func New(path string) *Store {
	return &Store{path: path}
}

// NewWithDB wraps an already open connection. Init still applies the schema.
func NewWithDB(db *sql.DB) *Store {
	return &Store{conn: db}
}

// Path returns the database file path, empty for stores built with NewWithDB.
func (s *Store) Path() string { return s.path }

// Init opens the database and brings the schema to SchemaVersion. It is
// idempotent and safe for concurrent callers: they serialize on the store
// and only the first one does any work.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initLocked(ctx)
}

func (s *Store) initLocked(ctx context.Context) error {
	if s.ready {
		return nil
	}
	if s.conn == nil {
		if err := s.open(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
		}
	}
	if err := s.migrate(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	s.ready = true
	return nil
}

func (s *Store) open(ctx context.Context) error {
	if s.path == "" {
		return errors.New("database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}

	lock := flock.New(s.path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire store lock: %w", err)
	}
	if !locked {
		return ErrLocked
	}

	conn, err := sql.Open("sqlite3", dsn(s.path))
	if err != nil {
		_ = lock.Unlock()
		return fmt.Errorf("open database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = lock.Unlock()
		return fmt.Errorf("ping database: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s.conn = conn
	s.lock = lock
	return nil
}

// dsn builds the connection URI. The path is made absolute and escaped so
// '#', '?' and '%' in directory names stay part of the file name. Pragmas go
// in the query so every pooled connection gets them.
func dsn(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	q := url.Values{}
	q.Add("_pragma", "journal_mode(wal)")
	q.Add("_pragma", "synchronous(full)")
	q.Add("_pragma", "busy_timeout(5000)")
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path), RawQuery: q.Encode()}
	return u.String()
}

// Close releases the connection and the session lock. The store can be
// initialized again afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ready = false
	var err error
	if s.conn != nil {
		if cerr := s.conn.Close(); cerr != nil {
			err = fmt.Errorf("close database: %w", cerr)
		}
		s.conn = nil
	}
	if s.lock != nil {
		if uerr := s.lock.Unlock(); uerr != nil && err == nil {
			err = fmt.Errorf("release store lock: %w", uerr)
		}
		s.lock = nil
	}
	return err
}

// db returns the initialized connection, initializing on first use.
func (s *Store) db(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.initLocked(ctx); err != nil {
		return nil, err
	}
	return s.conn, nil
}

// ReadAll returns every payload of a collection in no particular order.
func (s *Store) ReadAll(ctx context.Context, c Collection) ([][]byte, error) {
	table, err := c.table()
	if err != nil {
		return nil, err
	}
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT data FROM `+table)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c, err)
	}
	defer rows.Close()

	out := make([][]byte, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c, err)
		}
		out = append(out, data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", c, err)
	}
	return out, nil
}

// Put inserts the payload under id, or fully replaces the existing one.
func (s *Store) Put(ctx context.Context, c Collection, id string, payload []byte) error {
	table, err := c.table()
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("save %s: record id is empty", c)
	}
	db, err := s.db(ctx)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO ` + table + ` (id, data, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		data = excluded.data,
		updated_at = excluded.updated_at
	`
	if _, err := db.ExecContext(ctx, query, id, string(payload), time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("save %s %s: %w", c, id, err)
	}
	return nil
}

// Delete removes a record. Deleting a missing id is not an error.
func (s *Store) Delete(ctx context.Context, c Collection, id string) error {
	table, err := c.table()
	if err != nil {
		return err
	}
	db, err := s.db(ctx)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", c, id, err)
	}
	return nil
}

// ClearAll wipes the four collections in one transaction. Settings survive.
func (s *Store) ClearAll(ctx context.Context) error {
	db, err := s.db(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	for _, c := range Collections {
		table, _ := c.table()
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", c, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	return nil
}

// Count returns the number of records in a collection.
func (s *Store) Count(ctx context.Context, c Collection) (int, error) {
	table, err := c.table()
	if err != nil {
		return 0, err
	}
	db, err := s.db(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", c, err)
	}
	return n, nil
}
