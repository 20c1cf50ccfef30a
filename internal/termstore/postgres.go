package termstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/homonym/internal/dictionary"
)

// Schema is the SQL DDL for the homonym_terms table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS homonym_terms (
    romanization TEXT PRIMARY KEY,
    canonical    TEXT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by the homonym_terms table.
type PostgresStore struct {
	db    DB
	close func()
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a [PostgresStore] that uses the given database
// connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db, close: func() {}}
}

// Open connects a pool to dsn, pings it, and migrates the schema. Call
// [PostgresStore.Close] to release the pool.
func Open(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("termstore: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("termstore: ping: %w", err)
	}
	s := &PostgresStore{db: pool, close: pool.Close}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool opened by [Open]. It is a no-op for
// stores created with [NewPostgresStore].
func (s *PostgresStore) Close() { s.close() }

// Migrate executes the [Schema] DDL against the database.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("termstore: migrate: %w", err)
	}
	return nil
}

// Put inserts terms, replacing the canonical spelling of any romanization
// that already exists. All terms are written in one statement.
func (s *PostgresStore) Put(ctx context.Context, terms ...dictionary.Term) error {
	if len(terms) == 0 {
		return nil
	}
	roms := make([]string, len(terms))
	canons := make([]string, len(terms))
	for i, t := range terms {
		if err := validate(t); err != nil {
			return err
		}
		roms[i] = t.Romanization
		canons[i] = t.Canonical
	}

	const query = `
		INSERT INTO homonym_terms (romanization, canonical)
		SELECT * FROM unnest($1::text[], $2::text[])
		ON CONFLICT (romanization) DO UPDATE
		SET canonical = EXCLUDED.canonical, updated_at = now()`

	if _, err := s.db.Exec(ctx, query, roms, canons); err != nil {
		return fmt.Errorf("termstore: put: %w", err)
	}
	return nil
}

// Delete removes the term stored under romanization. Deleting a missing term
// is not an error.
func (s *PostgresStore) Delete(ctx context.Context, romanization string) error {
	const query = `DELETE FROM homonym_terms WHERE romanization = $1`
	if _, err := s.db.Exec(ctx, query, romanization); err != nil {
		return fmt.Errorf("termstore: delete: %w", err)
	}
	return nil
}

// Terms returns every stored term ordered by romanization.
func (s *PostgresStore) Terms(ctx context.Context) ([]dictionary.Term, error) {
	const query = `SELECT romanization, canonical FROM homonym_terms ORDER BY romanization`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("termstore: list: %w", err)
	}
	defer rows.Close()

	var terms []dictionary.Term
	for rows.Next() {
		var t dictionary.Term
		if err := rows.Scan(&t.Romanization, &t.Canonical); err != nil {
			return nil, fmt.Errorf("termstore: scan: %w", err)
		}
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("termstore: list: %w", err)
	}
	return terms, nil
}
