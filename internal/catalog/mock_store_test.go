package catalog_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"moviecatalog/internal/catalog"
)

// mockStore runs transactions inline so expectations cover every repository call.
type mockStore struct {
	mock.Mock
}

var _ catalog.Store = (*mockStore)(nil)

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx catalog.Repository) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }

func (m *mockStore) FindAll(ctx context.Context) ([]catalog.Movie, error) {
	args := m.Called(ctx)
	movies, _ := args.Get(0).([]catalog.Movie)
	return movies, args.Error(1)
}

func (m *mockStore) FindByID(ctx context.Context, id uuid.UUID) (catalog.Movie, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(catalog.Movie), args.Bool(1), args.Error(2)
}

func (m *mockStore) FindByTitleAndReleaseYear(ctx context.Context, title string, year int) (catalog.Movie, bool, error) {
	args := m.Called(ctx, title, year)
	return args.Get(0).(catalog.Movie), args.Bool(1), args.Error(2)
}

func (m *mockStore) ExistsByTitleAndReleaseYear(ctx context.Context, title string, year int) (bool, error) {
	args := m.Called(ctx, title, year)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) FindByGenre(ctx context.Context, genre string) ([]catalog.Movie, error) {
	args := m.Called(ctx, genre)
	movies, _ := args.Get(0).([]catalog.Movie)
	return movies, args.Error(1)
}

func (m *mockStore) FindByDirector(ctx context.Context, director string) ([]catalog.Movie, error) {
	args := m.Called(ctx, director)
	movies, _ := args.Get(0).([]catalog.Movie)
	return movies, args.Error(1)
}

func (m *mockStore) FindByReleaseYear(ctx context.Context, year int) ([]catalog.Movie, error) {
	args := m.Called(ctx, year)
	movies, _ := args.Get(0).([]catalog.Movie)
	return movies, args.Error(1)
}

func (m *mockStore) Insert(ctx context.Context, movie catalog.Movie) (catalog.Movie, error) {
	args := m.Called(ctx, movie)
	return args.Get(0).(catalog.Movie), args.Error(1)
}

func (m *mockStore) Update(ctx context.Context, movie catalog.Movie) error {
	return m.Called(ctx, movie).Error(0)
}

func (m *mockStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
