// internal/catalog/service.go
package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the movie catalog service.
type Service interface {
	ListMovies(ctx context.Context) ([]Movie, error)
	GetMovie(ctx context.Context, id uuid.UUID) (*Movie, error)
	CreateMovie(ctx context.Context, candidate Movie) (*Movie, error)
	UpdateMovie(ctx context.Context, id uuid.UUID, candidate Movie) (*Movie, error)
	DeleteMovie(ctx context.Context, id uuid.UUID) error
	MoviesByGenre(ctx context.Context, genre string) ([]Movie, error)
	MoviesByDirector(ctx context.Context, director string) ([]Movie, error)
	MoviesByReleaseYear(ctx context.Context, year int) ([]Movie, error)
}

// Repository is the set of movie queries a store answers, both directly and
// inside a transaction. Lookups report absence through the bool result.
type Repository interface {
	FindAll(ctx context.Context) ([]Movie, error)
	FindByID(ctx context.Context, id uuid.UUID) (Movie, bool, error)
	FindByTitleAndReleaseYear(ctx context.Context, title string, year int) (Movie, bool, error)
	ExistsByTitleAndReleaseYear(ctx context.Context, title string, year int) (bool, error)
	FindByGenre(ctx context.Context, genre string) ([]Movie, error)
	FindByDirector(ctx context.Context, director string) ([]Movie, error)
	FindByReleaseYear(ctx context.Context, year int) ([]Movie, error)
	// Insert assigns a new ID and stores the movie.
	Insert(ctx context.Context, m Movie) (Movie, error)
	// Update overwrites the record with m.ID. Returns ErrMovieNotFound if absent.
	Update(ctx context.Context, m Movie) error
	// Delete removes the record. Returns ErrMovieNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error
}

// Store is a Repository that can group calls into one atomic unit.
// Writes made inside fn are discarded when fn returns an error.
type Store interface {
	Repository
	RunInTransaction(ctx context.Context, fn func(tx Repository) error) error
	Close() error
}
