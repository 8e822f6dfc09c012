// File path: internal/sqlite/store.go
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/jvaldebenito/cronoplan/internal/dataset"
	"github.com/jvaldebenito/cronoplan/internal/schedule"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS datasets (
    key         TEXT PRIMARY KEY,
    filename    TEXT NOT NULL,
    uploaded_at TIMESTAMP NOT NULL,
    stored_at   TIMESTAMP NOT NULL,
    payload     BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_datasets_stored_at ON datasets(stored_at);
`

// Store is a sqlx-backed dataset catalog. It persists each dataset as one
// snapshot row (raw and derived fields together, never derived fields on
// their own) and re-derives on load so statuses reflect the read-time date
// even across restarts.
type Store struct {
	db        *sqlx.DB
	loc       *time.Location
	retention time.Duration
}

var _ dataset.Store = (*Store)(nil)

// Open constructs a Store at the given path, overriding the environment
// configuration. loc is the zone used for the as-of date on re-derivation.
func Open(path string, loc *time.Location) (*Store, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		cfg.Path = trimmed
	}
	return OpenWithConfig(cfg, loc)
}

// OpenWithConfig constructs a Store using the provided configuration.
func OpenWithConfig(cfg Config, loc *time.Location) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path required")
	}
	if loc == nil {
		loc = time.UTC
	}
	cfg.applyDefaults()
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve sqlite path: %w", err)
	}
	busy := int(cfg.BusyTimeout / time.Millisecond)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", abs, busy)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.BusyTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &Store{db: db, loc: loc, retention: cfg.Retention}, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type datasetRow struct {
	Key        string    `db:"key"`
	Filename   string    `db:"filename"`
	UploadedAt time.Time `db:"uploaded_at"`
	StoredAt   time.Time `db:"stored_at"`
	Payload    []byte    `db:"payload"`
}

func (s *Store) Put(ctx context.Context, ds *dataset.Dataset) error {
	if ds == nil || ds.Key == "" {
		return errors.New("dataset key required")
	}
	payload, err := json.Marshal(ds.Table)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	now := time.Now().UTC()
	if s.retention > 0 {
		cutoff := now.Add(-s.retention)
		if _, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE stored_at < ?`, cutoff); err != nil {
			return fmt.Errorf("sweep datasets: %w", err)
		}
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO datasets (key, filename, uploaded_at, stored_at, payload)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
    filename = excluded.filename,
    uploaded_at = excluded.uploaded_at,
    stored_at = excluded.stored_at,
    payload = excluded.payload`,
		ds.Key, ds.Filename, ds.UploadedAt.UTC(), now, payload)
	if err != nil {
		return fmt.Errorf("store dataset: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (*dataset.Dataset, error) {
	var row datasetRow
	err := s.db.GetContext(ctx, &row, `SELECT key, filename, uploaded_at, stored_at, payload FROM datasets WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dataset.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	var table schedule.Table
	if err := json.Unmarshal(row.Payload, &table); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", key, err)
	}
	// Derived fields are a function of the raw fields and the current
	// date; recompute them instead of trusting the stored snapshot. An
	// empty project has no rows to carry its columns and nothing to derive.
	derived := &table
	if len(table.Tasks) > 0 {
		derived, err = schedule.Derive(table.Records(), schedule.Today(s.loc))
		if err != nil {
			return nil, fmt.Errorf("rederive dataset %s: %w", key, err)
		}
	}
	return &dataset.Dataset{
		Key:        row.Key,
		Filename:   row.Filename,
		UploadedAt: row.UploadedAt,
		Table:      derived,
	}, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return dataset.ErrNotFound
	}
	return nil
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.db.SelectContext(ctx, &keys, `SELECT key FROM datasets ORDER BY key`); err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	return keys, nil
}
