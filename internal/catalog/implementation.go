// internal/catalog/implementation.go
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"moviecatalog/internal/util"
)

// service implements the Service interface.
type service struct {
	store Store
}

// NewService creates a new catalog service instance.
func NewService(store Store) Service {
	return &service{store: store}
}

// ListMovies returns every movie in store iteration order.
func (s *service) ListMovies(ctx context.Context) ([]Movie, error) {
	movies, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	return nonNil(movies), nil
}

// GetMovie retrieves a movie by its ID.
func (s *service) GetMovie(ctx context.Context, id uuid.UUID) (*Movie, error) {
	m, found, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get movie: %w", err)
	}
	if !found {
		return nil, notFoundError(id)
	}
	return &m, nil
}

// CreateMovie stores a new movie unless its title and release year are taken.
func (s *service) CreateMovie(ctx context.Context, candidate Movie) (*Movie, error) {
	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	candidate.ID = uuid.Nil

	var created Movie
	err := s.store.RunInTransaction(ctx, func(tx Repository) error {
		exists, err := tx.ExistsByTitleAndReleaseYear(ctx, candidate.Title, candidate.ReleaseYear)
		if err != nil {
			return fmt.Errorf("check identity: %w", err)
		}
		if exists {
			return alreadyExistsError(candidate.Title, candidate.ReleaseYear)
		}
		created, err = tx.Insert(ctx, candidate)
		if err != nil {
			return fmt.Errorf("insert movie: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "create", err)
		return nil, err
	}

	util.LoggerFromContext(ctx).InfoContext(ctx, "movie created",
		"movie_id", created.ID, "title", created.Title, "release_year", created.ReleaseYear)
	return &created, nil
}

// UpdateMovie replaces every mutable field of the movie with the candidate's.
// A missing id is reported before the candidate is validated.
func (s *service) UpdateMovie(ctx context.Context, id uuid.UUID, candidate Movie) (*Movie, error) {
	var updated Movie
	err := s.store.RunInTransaction(ctx, func(tx Repository) error {
		current, found, err := tx.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get movie: %w", err)
		}
		if !found {
			return notFoundError(id)
		}
		if err := candidate.Validate(); err != nil {
			return err
		}

		// The lookup uses the new identity; a hit on the record itself is not a conflict.
		holder, taken, err := tx.FindByTitleAndReleaseYear(ctx, candidate.Title, candidate.ReleaseYear)
		if err != nil {
			return fmt.Errorf("check identity: %w", err)
		}
		if taken && holder.ID != id {
			return alreadyExistsError(candidate.Title, candidate.ReleaseYear)
		}

		current.Title = candidate.Title
		current.Genre = candidate.Genre
		current.Director = candidate.Director
		current.ReleaseYear = candidate.ReleaseYear
		current.Rating = candidate.Rating
		if err := tx.Update(ctx, current); err != nil {
			return fmt.Errorf("update movie: %w", err)
		}
		updated = current
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "update", err)
		return nil, err
	}

	util.LoggerFromContext(ctx).InfoContext(ctx, "movie updated", "movie_id", id)
	return &updated, nil
}

// DeleteMovie removes a movie from the catalog.
func (s *service) DeleteMovie(ctx context.Context, id uuid.UUID) error {
	err := s.store.RunInTransaction(ctx, func(tx Repository) error {
		if _, found, err := tx.FindByID(ctx, id); err != nil {
			return fmt.Errorf("get movie: %w", err)
		} else if !found {
			return notFoundError(id)
		}
		if err := tx.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete movie: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure(ctx, "delete", err)
		return err
	}

	util.LoggerFromContext(ctx).InfoContext(ctx, "movie deleted", "movie_id", id)
	return nil
}

// MoviesByGenre returns movies whose genre matches exactly.
func (s *service) MoviesByGenre(ctx context.Context, genre string) ([]Movie, error) {
	movies, err := s.store.FindByGenre(ctx, genre)
	if err != nil {
		return nil, fmt.Errorf("find by genre: %w", err)
	}
	return nonNil(movies), nil
}

// MoviesByDirector returns movies whose director matches exactly.
func (s *service) MoviesByDirector(ctx context.Context, director string) ([]Movie, error) {
	movies, err := s.store.FindByDirector(ctx, director)
	if err != nil {
		return nil, fmt.Errorf("find by director: %w", err)
	}
	return nonNil(movies), nil
}

// MoviesByReleaseYear returns movies released in the given year.
func (s *service) MoviesByReleaseYear(ctx context.Context, year int) ([]Movie, error) {
	movies, err := s.store.FindByReleaseYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("find by release year: %w", err)
	}
	return nonNil(movies), nil
}

func (s *service) logFailure(ctx context.Context, op string, err error) {
	logger := util.LoggerFromContext(ctx)
	switch {
	case errors.Is(err, ErrMovieNotFound), errors.Is(err, ErrInvalidMovie):
		logger.DebugContext(ctx, "movie "+op+" rejected", "error", err)
	case errors.Is(err, ErrMovieAlreadyExists), errors.Is(err, ErrConcurrentModification):
		logger.WarnContext(ctx, "movie "+op+" conflict", "error", err)
	default:
		logger.ErrorContext(ctx, "movie "+op+" failed", "error", err)
	}
}

func nonNil(movies []Movie) []Movie {
	if movies == nil {
		return []Movie{}
	}
	return movies
}
