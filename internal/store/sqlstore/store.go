// Package sqlstore implements catalog.Store on database/sql for Postgres and SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"moviecatalog/internal/catalog"
)

// Compile-time contract assertion ensuring the store satisfies the catalog interface.
var _ catalog.Store = (*Store)(nil)

const movieColumns = `id, title, genre, director, release_year, rating`

type movieRow struct {
	ID          uuid.UUID       `db:"id"`
	Title       string          `db:"title"`
	Genre       string          `db:"genre"`
	Director    string          `db:"director"`
	ReleaseYear int             `db:"release_year"`
	Rating      sql.NullFloat64 `db:"rating"`
}

func (r movieRow) movie() catalog.Movie {
	m := catalog.Movie{
		ID:          r.ID,
		Title:       r.Title,
		Genre:       r.Genre,
		Director:    r.Director,
		ReleaseYear: r.ReleaseYear,
	}
	if r.Rating.Valid {
		v := r.Rating.Float64
		m.Rating = &v
	}
	return m
}

func nullRating(r *float64) sql.NullFloat64 {
	if r == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *r, Valid: true}
}

// Store persists movies in a single SQL table.
type Store struct {
	*repo
	db *sqlx.DB
}

func newStore(ctx context.Context, db *sqlx.DB, d dialect) (*Store, error) {
	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Store{
		repo: &repo{
			q:       db,
			dialect: d,
			tracer:  otel.Tracer("moviecatalog/store"),
		},
		db: db,
	}, nil
}

// RunInTransaction runs fn inside one database transaction and commits when it returns nil.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx catalog.Repository) error) error {
	ctx, span := s.tracer.Start(ctx, "moviestore.transaction",
		trace.WithAttributes(attribute.String("db.system", s.dialect.name)),
	)
	defer span.End()

	tx, err := s.db.BeginTxx(ctx, s.dialect.txOptions)
	if err != nil {
		return endSpan(span, classify("begin transaction", err))
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&repo{q: tx, dialect: s.dialect, tracer: s.tracer}); err != nil {
		return endSpan(span, err)
	}
	if err := tx.Commit(); err != nil {
		return endSpan(span, classify("commit transaction", err))
	}
	span.SetAttributes(attribute.Bool("commit.success", true))
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle for integration testing hooks.
func (s *Store) DB() *sqlx.DB { return s.db }

// repo runs movie queries against a pool or a transaction.
type repo struct {
	q       sqlx.ExtContext
	dialect dialect
	tracer  trace.Tracer
}

func endSpan(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *repo) selectMovies(ctx context.Context, spanName, where string, args ...any) ([]catalog.Movie, error) {
	ctx, span := r.tracer.Start(ctx, spanName)
	defer span.End()

	query := `SELECT ` + movieColumns + ` FROM movies`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY ` + r.dialect.orderBy

	var rows []movieRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(query), args...); err != nil {
		return nil, endSpan(span, classify("query movies", err))
	}
	movies := make([]catalog.Movie, 0, len(rows))
	for _, row := range rows {
		movies = append(movies, row.movie())
	}
	span.SetAttributes(attribute.Int("movies.loaded", len(movies)))
	return movies, nil
}

func (r *repo) getMovie(ctx context.Context, spanName, where string, args ...any) (catalog.Movie, bool, error) {
	ctx, span := r.tracer.Start(ctx, spanName)
	defer span.End()

	query := `SELECT ` + movieColumns + ` FROM movies WHERE ` + where + ` ORDER BY ` + r.dialect.orderBy + ` LIMIT 1`
	var row movieRow
	err := sqlx.GetContext(ctx, r.q, &row, r.q.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetAttributes(attribute.Bool("movie.found", false))
		return catalog.Movie{}, false, nil
	}
	if err != nil {
		return catalog.Movie{}, false, endSpan(span, classify("query movie", err))
	}
	span.SetAttributes(attribute.Bool("movie.found", true))
	return row.movie(), true, nil
}

func (r *repo) FindAll(ctx context.Context) ([]catalog.Movie, error) {
	return r.selectMovies(ctx, "moviestore.find_all", "")
}

func (r *repo) FindByID(ctx context.Context, id uuid.UUID) (catalog.Movie, bool, error) {
	return r.getMovie(ctx, "moviestore.find_by_id", `id = ?`, id)
}

func (r *repo) FindByTitleAndReleaseYear(ctx context.Context, title string, year int) (catalog.Movie, bool, error) {
	return r.getMovie(ctx, "moviestore.find_by_identity", `title = ? AND release_year = ?`, title, year)
}

func (r *repo) ExistsByTitleAndReleaseYear(ctx context.Context, title string, year int) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "moviestore.exists_by_identity")
	defer span.End()

	var exists bool
	query := r.q.Rebind(`SELECT EXISTS (SELECT 1 FROM movies WHERE title = ? AND release_year = ?)`)
	if err := r.q.QueryRowxContext(ctx, query, title, year).Scan(&exists); err != nil {
		return false, endSpan(span, classify("query identity", err))
	}
	span.SetAttributes(attribute.Bool("movie.exists", exists))
	return exists, nil
}

func (r *repo) FindByGenre(ctx context.Context, genre string) ([]catalog.Movie, error) {
	return r.selectMovies(ctx, "moviestore.find_by_genre", `genre = ?`, genre)
}

func (r *repo) FindByDirector(ctx context.Context, director string) ([]catalog.Movie, error) {
	return r.selectMovies(ctx, "moviestore.find_by_director", `director = ?`, director)
}

func (r *repo) FindByReleaseYear(ctx context.Context, year int) ([]catalog.Movie, error) {
	return r.selectMovies(ctx, "moviestore.find_by_release_year", `release_year = ?`, year)
}

func (r *repo) Insert(ctx context.Context, m catalog.Movie) (catalog.Movie, error) {
	m.ID = uuid.New()
	ctx, span := r.tracer.Start(ctx, "moviestore.insert",
		trace.WithAttributes(attribute.String("movie.id", m.ID.String())),
	)
	defer span.End()

	query := r.q.Rebind(`
		INSERT INTO movies (id, title, genre, director, release_year, rating)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if _, err := r.q.ExecContext(ctx, query, m.ID, m.Title, m.Genre, m.Director, m.ReleaseYear, nullRating(m.Rating)); err != nil {
		return catalog.Movie{}, endSpan(span, classify("insert movie", err))
	}
	return m, nil
}

func (r *repo) Update(ctx context.Context, m catalog.Movie) error {
	ctx, span := r.tracer.Start(ctx, "moviestore.update",
		trace.WithAttributes(attribute.String("movie.id", m.ID.String())),
	)
	defer span.End()

	query := r.q.Rebind(`
		UPDATE movies
		SET title = ?, genre = ?, director = ?, release_year = ?, rating = ?, updated_at = ?
		WHERE id = ?
	`)
	res, err := r.q.ExecContext(ctx, query, m.Title, m.Genre, m.Director, m.ReleaseYear, nullRating(m.Rating), time.Now().UTC(), m.ID)
	if err != nil {
		return endSpan(span, classify("update movie", err))
	}
	return endSpan(span, requireAffected(res, m.ID))
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := r.tracer.Start(ctx, "moviestore.delete",
		trace.WithAttributes(attribute.String("movie.id", id.String())),
	)
	defer span.End()

	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM movies WHERE id = ?`), id)
	if err != nil {
		return endSpan(span, classify("delete movie", err))
	}
	return endSpan(span, requireAffected(res, id))
}

func requireAffected(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w with id: %s", catalog.ErrMovieNotFound, id)
	}
	return nil
}
