package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"observe/internal/observe/core"
)

// Store is a SampleStore backed by a SQLite database file.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("open storage: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("open storage: create parent dir: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open storage: ping: %w", err)
	}
	if err := RunMigrations(ctx, db, DefaultMigrations()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, path: path, now: time.Now}, nil
}

// dsn applies pragmas per connection; writes take the lock up front so the
// busy timeout covers them instead of failing on lock upgrade.
func dsn(path string) string {
	params := url.Values{}
	params.Add("_pragma", "busy_timeout(5000)")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "foreign_keys(1)")
	params.Set("_txlock", "immediate")
	return "file:" + path + "?" + params.Encode()
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// Path returns the database file path.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Count returns the number of sample rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sample_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	return n, nil
}

// Create inserts a row and returns it with its assigned identifier.
func (s *Store) Create(ctx context.Context, rec *core.NewSampleRecord) (*core.SampleRecord, error) {
	if rec == nil {
		return nil, core.ErrInvalidInput
	}
	now := s.now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sample_records(name, value, updated_at) VALUES (?, ?, ?)`,
		rec.Name, rec.Value, fmtTime(now))
	if err != nil {
		return nil, fmt.Errorf("create sample: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create sample: last insert id: %w", err)
	}
	return &core.SampleRecord{ID: id, Name: rec.Name, Value: rec.Value, UpdatedAt: now}, nil
}

// Get fetches a row by identifier.
func (s *Store) Get(ctx context.Context, id int64) (*core.SampleRecord, error) {
	var (
		rec     core.SampleRecord
		updated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, value, updated_at FROM sample_records WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Name, &rec.Value, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.Wrap(core.CodeNotFound, fmt.Sprintf("sample %d not found", id), err)
	}
	if err != nil {
		return nil, fmt.Errorf("get sample %d: %w", id, err)
	}
	rec.UpdatedAt, err = parseTime(updated)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}
