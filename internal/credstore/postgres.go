// internal/credstore/postgres.go
package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pgxPool is the slice of pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore keeps credentials in a single table keyed by the normalized
// site key. Useful when several machines share one credential set.
type PostgresStore struct {
	pool   pgxPool
	logger *zap.Logger
}

var _ Store = (*PostgresStore)(nil)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS site_credentials (
	site_key    TEXT PRIMARY KEY,
	site_name   TEXT NOT NULL,
	username    TEXT NOT NULL DEFAULT '',
	email       TEXT NOT NULL DEFAULT '',
	password    TEXT NOT NULL DEFAULT '',
	profile_url TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL DEFAULT ''
)`

// OpenPostgresStore connects to the database and ensures the schema exists.
func OpenPostgresStore(ctx context.Context, databaseURL string, logger *zap.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	s := NewPostgresStoreWithPool(pool, logger)
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreWithPool wraps an existing pool. The caller owns schema
// setup; tests inject mocks here.
func NewPostgresStoreWithPool(pool pgxPool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger.Named("credstore")}
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("creating credential table: %w", err)
	}
	return nil
}

const loadSQL = `
SELECT username, email, password, profile_url, created_at
FROM site_credentials WHERE site_key = $1`

// Load fetches the record stored under the normalized key.
func (s *PostgresStore) Load(ctx context.Context, siteKey string) (Record, bool, error) {
	var rec Record
	row := s.pool.QueryRow(ctx, loadSQL, NormalizeKey(siteKey))
	err := row.Scan(&rec.Username, &rec.Email, &rec.Password, &rec.ProfileURL, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("loading credentials for %s: %w", siteKey, err)
	}
	return rec, true, nil
}

const insertSQL = `
INSERT INTO site_credentials (site_key, site_name, username, email, password, profile_url, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (site_key) DO NOTHING`

const upsertSQL = `
INSERT INTO site_credentials (site_key, site_name, username, email, password, profile_url, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (site_key) DO UPDATE SET
	site_name = EXCLUDED.site_name,
	username = EXCLUDED.username,
	email = EXCLUDED.email,
	password = EXCLUDED.password,
	profile_url = EXCLUDED.profile_url,
	created_at = EXCLUDED.created_at`

// Save inserts the record; with overwrite false an existing row wins the
// conflict and stays untouched.
func (s *PostgresStore) Save(ctx context.Context, siteName string, rec Record, overwrite bool) error {
	query := insertSQL
	if overwrite {
		query = upsertSQL
	}
	_, err := s.pool.Exec(ctx, query,
		NormalizeKey(siteName), siteName,
		rec.Username, rec.Email, rec.Password, rec.ProfileURL, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving credentials for %s: %w", siteName, err)
	}
	return nil
}

const attachSQL = `
UPDATE site_credentials SET profile_url = $2 WHERE site_key = $1`

// AttachProfileURL updates only the profile URL of an existing record.
func (s *PostgresStore) AttachProfileURL(ctx context.Context, siteKey, profileURL string) error {
	tag, err := s.pool.Exec(ctx, attachSQL, NormalizeKey(siteKey), profileURL)
	if err != nil {
		return fmt.Errorf("updating profile url for %s: %w", siteKey, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no credentials stored for %s", siteKey)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
