package licensestore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultPostgresTable = "licensor_licenses"

// validIdentifier matches safe PostgreSQL identifiers (letters, digits, underscores).
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithTableName sets the PostgreSQL table name. Default: "licensor_licenses".
func WithTableName(name string) PostgresOption {
	return func(s *PostgresStore) {
		s.tableName = name
	}
}

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	pool      *pgxpool.Pool
	tableName string
}

// NewPostgresStore creates a PostgreSQL-backed store.
// It auto-creates the table and indexes on initialization.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	s := &PostgresStore{
		pool:      pool,
		tableName: defaultPostgresTable,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !validIdentifier.MatchString(s.tableName) {
		return nil, fmt.Errorf("invalid table name %q: must match [a-zA-Z_][a-zA-Z0-9_]*", s.tableName)
	}
	if err := s.ensureTable(ctx); err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) ensureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			license_id    TEXT PRIMARY KEY,
			algorithm     TEXT NOT NULL,
			encoding      TEXT NOT NULL,
			features      JSONB NOT NULL,
			signature     BYTEA NOT NULL,
			issued_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at    TIMESTAMPTZ,
			revoked_at    TIMESTAMPTZ,
			revoke_reason TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_%s_issued_at
			ON %s (issued_at);
	`, s.tableName, s.tableName, s.tableName)
	_, err := s.pool.Exec(ctx, query)
	return err
}

func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	features := rec.Features
	if features == nil {
		features = map[string]string{}
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (license_id, algorithm, encoding, features, signature, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (license_id) DO UPDATE SET
			algorithm = EXCLUDED.algorithm,
			encoding = EXCLUDED.encoding,
			features = EXCLUDED.features,
			signature = EXCLUDED.signature,
			issued_at = EXCLUDED.issued_at,
			expires_at = EXCLUDED.expires_at
	`, s.tableName)
	_, err := s.pool.Exec(ctx, query,
		rec.LicenseID, rec.Algorithm, rec.Encoding, features, rec.Signature, rec.IssuedAt, rec.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("save license: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, licenseID string) (*Record, error) {
	query := fmt.Sprintf(`
		SELECT license_id, algorithm, encoding, features, signature, issued_at, expires_at, revoked_at, revoke_reason
		FROM %s WHERE license_id = $1
	`, s.tableName)
	rec, err := scanRecord(s.pool.QueryRow(ctx, query, licenseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get license: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Record, error) {
	query := fmt.Sprintf(`
		SELECT license_id, algorithm, encoding, features, signature, issued_at, expires_at, revoked_at, revoke_reason
		FROM %s ORDER BY issued_at, license_id
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list licenses: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan license: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Revoke(ctx context.Context, licenseID, reason string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET revoked_at = $2, revoke_reason = $3 WHERE license_id = $1`, s.tableName)
	tag, err := s.pool.Exec(ctx, query, licenseID, at, reason)
	if err != nil {
		return fmt.Errorf("revoke license: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, licenseID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE license_id = $1`, s.tableName)
	if _, err := s.pool.Exec(ctx, query, licenseID); err != nil {
		return fmt.Errorf("delete license: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close(_ context.Context) error {
	return nil // user manages the pgxpool.Pool lifecycle
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	if err := row.Scan(&rec.LicenseID, &rec.Algorithm, &rec.Encoding, &rec.Features, &rec.Signature,
		&rec.IssuedAt, &rec.ExpiresAt, &rec.RevokedAt, &rec.RevokeReason); err != nil {
		return nil, err
	}
	return &rec, nil
}
