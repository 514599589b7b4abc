package visitlog

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"nise/internal/proximity"
)

// DefaultDSN is used when DB_TYPE=postgres and DATABASE_URL is unset.
const DefaultDSN = "host=localhost user=nise password=nise dbname=nise sslmode=disable"

// PostgresStore keeps visits in a visits table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens and pings the database, then creates the schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &PostgresStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS visits (
		id SERIAL PRIMARY KEY,
		ts TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		level TEXT NOT NULL,
		kind TEXT NOT NULL,
		point_id TEXT NOT NULL,
		client TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS visits_ts_idx ON visits (ts DESC);
	`)
	return err
}

// Record inserts v.
func (s *PostgresStore) Record(v Visit) error {
	_, err := s.db.Exec(
		`INSERT INTO visits (ts, level, kind, point_id, client) VALUES ($1, $2, $3, $4, $5)`,
		v.Timestamp, v.Level, v.Kind.String(), v.ID, v.Client)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

// Recent returns up to n visits, newest first.
func (s *PostgresStore) Recent(n int) ([]Visit, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(
		`SELECT ts, level, kind, point_id, client FROM visits ORDER BY ts DESC, id DESC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()
	var out []Visit
	for rows.Next() {
		var v Visit
		var kind string
		if err := rows.Scan(&v.Timestamp, &v.Level, &kind, &v.ID, &v.Client); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		v.Kind, _ = proximity.ParseKind(kind)
		out = append(out, v)
	}
	return out, rows.Err()
}

// Close closes the database handle.
func (s *PostgresStore) Close() error { return s.db.Close() }
