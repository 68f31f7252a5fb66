// Package memory provides an in-memory catalog store used for tests and
// ephemeral environments.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"moviecatalog/internal/catalog"
)

// Compile-time contract assertion ensuring the store satisfies the catalog interface.
var _ catalog.Store = (*Store)(nil)

type record struct {
	movie catalog.Movie
	seq   uint64
}

type memoryState struct {
	movies map[uuid.UUID]record
	seq    uint64
}

func newMemoryState() memoryState {
	return memoryState{movies: make(map[uuid.UUID]record)}
}

func (s memoryState) clone() memoryState {
	out := memoryState{movies: make(map[uuid.UUID]record, len(s.movies)), seq: s.seq}
	for id, r := range s.movies {
		out.movies[id] = record{movie: cloneMovie(r.movie), seq: r.seq}
	}
	return out
}

func cloneMovie(m catalog.Movie) catalog.Movie {
	if m.Rating != nil {
		r := *m.Rating
		m.Rating = &r
	}
	return m
}

// Store keeps movies in a map guarded by a mutex. Transactions run against a
// copy of the state that replaces the live state only on success.
type Store struct {
	mu    sync.RWMutex
	state memoryState
	newID func() uuid.UUID
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{
		state: newMemoryState(),
		newID: uuid.New,
	}
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx catalog.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{state: s.state.clone(), newID: s.newID}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) view(fn func(*transaction) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&transaction{state: s.state})
}

func (s *Store) FindAll(ctx context.Context) ([]catalog.Movie, error) {
	var out []catalog.Movie
	err := s.view(func(tx *transaction) (err error) {
		out, err = tx.FindAll(ctx)
		return err
	})
	return out, err
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (catalog.Movie, bool, error) {
	var (
		m     catalog.Movie
		found bool
	)
	err := s.view(func(tx *transaction) (err error) {
		m, found, err = tx.FindByID(ctx, id)
		return err
	})
	return m, found, err
}

func (s *Store) FindByTitleAndReleaseYear(ctx context.Context, title string, year int) (catalog.Movie, bool, error) {
	var (
		m     catalog.Movie
		found bool
	)
	err := s.view(func(tx *transaction) (err error) {
		m, found, err = tx.FindByTitleAndReleaseYear(ctx, title, year)
		return err
	})
	return m, found, err
}

func (s *Store) ExistsByTitleAndReleaseYear(ctx context.Context, title string, year int) (bool, error) {
	_, found, err := s.FindByTitleAndReleaseYear(ctx, title, year)
	return found, err
}

func (s *Store) FindByGenre(ctx context.Context, genre string) ([]catalog.Movie, error) {
	var out []catalog.Movie
	err := s.view(func(tx *transaction) (err error) {
		out, err = tx.FindByGenre(ctx, genre)
		return err
	})
	return out, err
}

func (s *Store) FindByDirector(ctx context.Context, director string) ([]catalog.Movie, error) {
	var out []catalog.Movie
	err := s.view(func(tx *transaction) (err error) {
		out, err = tx.FindByDirector(ctx, director)
		return err
	})
	return out, err
}

func (s *Store) FindByReleaseYear(ctx context.Context, year int) ([]catalog.Movie, error) {
	var out []catalog.Movie
	err := s.view(func(tx *transaction) (err error) {
		out, err = tx.FindByReleaseYear(ctx, year)
		return err
	})
	return out, err
}

// Insert, Update and Delete outside a transaction are wrapped in one.

func (s *Store) Insert(ctx context.Context, m catalog.Movie) (catalog.Movie, error) {
	var created catalog.Movie
	err := s.RunInTransaction(ctx, func(tx catalog.Repository) (err error) {
		created, err = tx.Insert(ctx, m)
		return err
	})
	return created, err
}

func (s *Store) Update(ctx context.Context, m catalog.Movie) error {
	return s.RunInTransaction(ctx, func(tx catalog.Repository) error {
		return tx.Update(ctx, m)
	})
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	return s.RunInTransaction(ctx, func(tx catalog.Repository) error {
		return tx.Delete(ctx, id)
	})
}

// transaction answers queries against one memoryState. Views share the live
// state and only call the read methods.
type transaction struct {
	state memoryState
	newID func() uuid.UUID
}

func (tx *transaction) filter(match func(catalog.Movie) bool) []catalog.Movie {
	records := make([]record, 0, len(tx.state.movies))
	for _, r := range tx.state.movies {
		if match(r.movie) {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].seq < records[j].seq })
	out := make([]catalog.Movie, 0, len(records))
	for _, r := range records {
		out = append(out, cloneMovie(r.movie))
	}
	return out
}

func (tx *transaction) FindAll(_ context.Context) ([]catalog.Movie, error) {
	return tx.filter(func(catalog.Movie) bool { return true }), nil
}

func (tx *transaction) FindByID(_ context.Context, id uuid.UUID) (catalog.Movie, bool, error) {
	r, ok := tx.state.movies[id]
	if !ok {
		return catalog.Movie{}, false, nil
	}
	return cloneMovie(r.movie), true, nil
}

func (tx *transaction) FindByTitleAndReleaseYear(_ context.Context, title string, year int) (catalog.Movie, bool, error) {
	key := catalog.Movie{Title: title, ReleaseYear: year}
	matches := tx.filter(key.SameIdentity)
	if len(matches) == 0 {
		return catalog.Movie{}, false, nil
	}
	return matches[0], true, nil
}

func (tx *transaction) ExistsByTitleAndReleaseYear(ctx context.Context, title string, year int) (bool, error) {
	_, found, err := tx.FindByTitleAndReleaseYear(ctx, title, year)
	return found, err
}

func (tx *transaction) FindByGenre(_ context.Context, genre string) ([]catalog.Movie, error) {
	return tx.filter(func(m catalog.Movie) bool { return m.Genre == genre }), nil
}

func (tx *transaction) FindByDirector(_ context.Context, director string) ([]catalog.Movie, error) {
	return tx.filter(func(m catalog.Movie) bool { return m.Director == director }), nil
}

func (tx *transaction) FindByReleaseYear(_ context.Context, year int) ([]catalog.Movie, error) {
	return tx.filter(func(m catalog.Movie) bool { return m.ReleaseYear == year }), nil
}

func (tx *transaction) Insert(_ context.Context, m catalog.Movie) (catalog.Movie, error) {
	m.ID = tx.newID()
	tx.state.seq++
	tx.state.movies[m.ID] = record{movie: cloneMovie(m), seq: tx.state.seq}
	return cloneMovie(m), nil
}

func (tx *transaction) Update(_ context.Context, m catalog.Movie) error {
	r, ok := tx.state.movies[m.ID]
	if !ok {
		return catalog.ErrMovieNotFound
	}
	r.movie = cloneMovie(m)
	tx.state.movies[m.ID] = r
	return nil
}

func (tx *transaction) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := tx.state.movies[id]; !ok {
		return catalog.ErrMovieNotFound
	}
	delete(tx.state.movies, id)
	return nil
}
