package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"moviecatalog/internal/catalog"
)

// dialect captures what differs between the SQL backends.
type dialect struct {
	name      string
	schema    []string
	orderBy   string
	txOptions *sql.TxOptions
}

var postgresDialect = dialect{
	name: "postgres",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS movies (
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			genre TEXT NOT NULL DEFAULT '',
			director TEXT NOT NULL DEFAULT '',
			release_year INTEGER NOT NULL,
			rating DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS movies_title_release_year_idx ON movies (title, release_year)`,
		`CREATE INDEX IF NOT EXISTS movies_genre_idx ON movies (genre)`,
		`CREATE INDEX IF NOT EXISTS movies_director_idx ON movies (director)`,
		`CREATE INDEX IF NOT EXISTS movies_release_year_idx ON movies (release_year)`,
	},
	orderBy: "created_at, id",
	// Serializable isolation keeps the identity check and the write atomic.
	txOptions: &sql.TxOptions{Isolation: sql.LevelSerializable},
}

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS movies (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			genre TEXT NOT NULL DEFAULT '',
			director TEXT NOT NULL DEFAULT '',
			release_year INTEGER NOT NULL,
			rating REAL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS movies_title_release_year_idx ON movies (title, release_year)`,
		`CREATE INDEX IF NOT EXISTS movies_genre_idx ON movies (genre)`,
		`CREATE INDEX IF NOT EXISTS movies_director_idx ON movies (director)`,
		`CREATE INDEX IF NOT EXISTS movies_release_year_idx ON movies (release_year)`,
	},
	orderBy: "rowid",
}

// Postgres SQLSTATE codes that mean a concurrent transaction won the race.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateUniqueViolation      = "23505"
)

// classify maps driver errors onto catalog errors and wraps everything else.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if code := sqlState(err); code == sqlStateSerializationFailure || code == sqlStateUniqueViolation {
		return fmt.Errorf("%s: %w: %w", op, catalog.ErrConcurrentModification, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
