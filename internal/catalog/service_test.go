package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"moviecatalog/internal/catalog"
	"moviecatalog/internal/store/storetest"
)

var anyArg = mock.Anything

type fixture struct {
	store   *mockStore
	service catalog.Service
	matrix  catalog.Movie
	incep   catalog.Movie
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &mockStore{}
	t.Cleanup(func() { store.AssertExpectations(t) })

	matrix := storetest.Matrix()
	matrix.ID = uuid.New()
	incep := storetest.Inception()
	incep.ID = uuid.New()
	return &fixture{store: store, service: catalog.NewService(store), matrix: matrix, incep: incep}
}

func TestListMoviesReturnsAllMovies(t *testing.T) {
	f := newFixture(t)
	f.store.On("FindAll", anyArg).Return([]catalog.Movie{f.matrix, f.incep}, nil).Once()

	movies, err := f.service.ListMovies(context.Background())
	require.NoError(t, err)
	assert.Len(t, movies, 2)
}

func TestListMoviesNeverReturnsNil(t *testing.T) {
	f := newFixture(t)
	f.store.On("FindAll", anyArg).Return(nil, nil).Once()

	movies, err := f.service.ListMovies(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, movies)
	assert.Empty(t, movies)
}

func TestGetMovieWhenMovieExists(t *testing.T) {
	f := newFixture(t)
	f.store.On("FindByID", anyArg, f.matrix.ID).Return(f.matrix, true, nil).Once()

	movie, err := f.service.GetMovie(context.Background(), f.matrix.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Matrix", movie.Title)
	assert.Equal(t, 1999, movie.ReleaseYear)
}

func TestGetMovieWhenMovieDoesNotExist(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.store.On("FindByID", anyArg, id).Return(catalog.Movie{}, false, nil).Once()

	_, err := f.service.GetMovie(context.Background(), id)
	require.ErrorIs(t, err, catalog.ErrMovieNotFound)
	assert.Contains(t, err.Error(), id.String())
}

func TestGetMoviePropagatesStoreErrors(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("connection refused")
	f.store.On("FindByID", anyArg, f.matrix.ID).Return(catalog.Movie{}, false, boom).Once()

	_, err := f.service.GetMovie(context.Background(), f.matrix.ID)
	require.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, catalog.ErrMovieNotFound))
}

func TestCreateMovieWhenMovieDoesNotExist(t *testing.T) {
	f := newFixture(t)
	candidate := storetest.Matrix()
	stored := candidate
	stored.ID = uuid.New()

	f.store.On("ExistsByTitleAndReleaseYear", anyArg, "The Matrix", 1999).Return(false, nil).Once()
	f.store.On("Insert", anyArg, candidate).Return(stored, nil).Once()

	created, err := f.service.CreateMovie(context.Background(), candidate)
	require.NoError(t, err)
	assert.Equal(t, stored, *created)
}

func TestCreateMovieIgnoresCallerSuppliedID(t *testing.T) {
	f := newFixture(t)
	candidate := storetest.Matrix()
	candidate.ID = uuid.New()
	expected := candidate
	expected.ID = uuid.Nil
	stored := candidate
	stored.ID = uuid.New()

	f.store.On("ExistsByTitleAndReleaseYear", anyArg, "The Matrix", 1999).Return(false, nil).Once()
	f.store.On("Insert", anyArg, expected).Return(stored, nil).Once()

	_, err := f.service.CreateMovie(context.Background(), candidate)
	require.NoError(t, err)
}

func TestCreateMovieWhenMovieAlreadyExists(t *testing.T) {
	f := newFixture(t)
	f.store.On("ExistsByTitleAndReleaseYear", anyArg, "The Matrix", 1999).Return(true, nil).Once()

	_, err := f.service.CreateMovie(context.Background(), f.matrix)
	require.ErrorIs(t, err, catalog.ErrMovieAlreadyExists)
	assert.Equal(t, "movie already exists with title: The Matrix and release year: 1999", err.Error())
	f.store.AssertNotCalled(t, "Insert", anyArg, anyArg)
}

func TestCreateMovieRejectsInvalidCandidate(t *testing.T) {
	f := newFixture(t)
	bad := -1.0

	_, err := f.service.CreateMovie(context.Background(), catalog.Movie{Title: "  ", Rating: &bad})
	require.ErrorIs(t, err, catalog.ErrInvalidMovie)

	var validation *catalog.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Contains(t, validation.Fields, "title")
	assert.Contains(t, validation.Fields, "release_year")
	assert.Contains(t, validation.Fields, "rating")
	f.store.AssertNotCalled(t, "ExistsByTitleAndReleaseYear", anyArg, anyArg, anyArg)
	f.store.AssertNotCalled(t, "Insert", anyArg, anyArg)
}

func TestUpdateMovieWhenMovieExists(t *testing.T) {
	f := newFixture(t)
	candidate := catalog.Movie{Title: "The Matrix Reloaded", Genre: "Sci-Fi", Director: "Wachowski Brothers", ReleaseYear: 2003}
	expected := candidate
	expected.ID = f.matrix.ID

	f.store.On("FindByID", anyArg, f.matrix.ID).Return(f.matrix, true, nil).Once()
	f.store.On("FindByTitleAndReleaseYear", anyArg, "The Matrix Reloaded", 2003).Return(catalog.Movie{}, false, nil).Once()
	f.store.On("Update", anyArg, expected).Return(nil).Once()

	updated, err := f.service.UpdateMovie(context.Background(), f.matrix.ID, candidate)
	require.NoError(t, err)
	assert.Equal(t, expected, *updated)
	assert.Nil(t, updated.Rating, "rating is replaced, not merged")
}

func TestUpdateMovieWhenMovieDoesNotExist(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.store.On("FindByID", anyArg, id).Return(catalog.Movie{}, false, nil).Once()

	_, err := f.service.UpdateMovie(context.Background(), id, f.matrix)
	require.ErrorIs(t, err, catalog.ErrMovieNotFound)
	f.store.AssertNotCalled(t, "Update", anyArg, anyArg)
}

func TestUpdateMovieReportsMissingIDBeforeInvalidCandidate(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.store.On("FindByID", anyArg, id).Return(catalog.Movie{}, false, nil).Once()

	_, err := f.service.UpdateMovie(context.Background(), id, catalog.Movie{Title: " "})
	require.ErrorIs(t, err, catalog.ErrMovieNotFound)
	assert.NotErrorIs(t, err, catalog.ErrInvalidMovie)
}

func TestUpdateMovieRejectsInvalidCandidate(t *testing.T) {
	f := newFixture(t)
	f.store.On("FindByID", anyArg, f.matrix.ID).Return(f.matrix, true, nil).Once()

	_, err := f.service.UpdateMovie(context.Background(), f.matrix.ID, catalog.Movie{Title: "The Matrix"})
	require.ErrorIs(t, err, catalog.ErrInvalidMovie)
	f.store.AssertNotCalled(t, "FindByTitleAndReleaseYear", anyArg, anyArg, anyArg)
	f.store.AssertNotCalled(t, "Update", anyArg, anyArg)
}

func TestUpdateMovieWhenTitleAndYearConflictWithAnotherMovie(t *testing.T) {
	f := newFixture(t)
	conflicting := catalog.Movie{Title: "Inception", ReleaseYear: 2010}

	f.store.On("FindByID", anyArg, f.matrix.ID).Return(f.matrix, true, nil).Once()
	f.store.On("FindByTitleAndReleaseYear", anyArg, "Inception", 2010).Return(f.incep, true, nil).Once()

	_, err := f.service.UpdateMovie(context.Background(), f.matrix.ID, conflicting)
	require.ErrorIs(t, err, catalog.ErrMovieAlreadyExists)
	f.store.AssertNotCalled(t, "Update", anyArg, anyArg)
}

func TestUpdateMovieKeepingItsOwnTitleAndYear(t *testing.T) {
	f := newFixture(t)
	candidate := f.matrix
	candidate.ID = uuid.Nil
	candidate.Director = "The Wachowskis"
	expected := candidate
	expected.ID = f.matrix.ID

	f.store.On("FindByID", anyArg, f.matrix.ID).Return(f.matrix, true, nil).Once()
	f.store.On("FindByTitleAndReleaseYear", anyArg, "The Matrix", 1999).Return(f.matrix, true, nil).Once()
	f.store.On("Update", anyArg, expected).Return(nil).Once()

	updated, err := f.service.UpdateMovie(context.Background(), f.matrix.ID, candidate)
	require.NoError(t, err)
	assert.Equal(t, "The Wachowskis", updated.Director)
}

func TestDeleteMovieWhenMovieExists(t *testing.T) {
	f := newFixture(t)
	f.store.On("FindByID", anyArg, f.matrix.ID).Return(f.matrix, true, nil).Once()
	f.store.On("Delete", anyArg, f.matrix.ID).Return(nil).Once()

	require.NoError(t, f.service.DeleteMovie(context.Background(), f.matrix.ID))
}

func TestDeleteMovieWhenMovieDoesNotExist(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.store.On("FindByID", anyArg, id).Return(catalog.Movie{}, false, nil).Once()

	err := f.service.DeleteMovie(context.Background(), id)
	require.ErrorIs(t, err, catalog.ErrMovieNotFound)
	f.store.AssertNotCalled(t, "Delete", anyArg, anyArg)
}

func TestMoviesByGenre(t *testing.T) {
	f := newFixture(t)
	f.store.On("FindByGenre", anyArg, "Sci-Fi").Return([]catalog.Movie{f.matrix, f.incep}, nil).Once()

	movies, err := f.service.MoviesByGenre(context.Background(), "Sci-Fi")
	require.NoError(t, err)
	assert.Len(t, movies, 2)
}

func TestMoviesByDirector(t *testing.T) {
	f := newFixture(t)
	f.store.On("FindByDirector", anyArg, "Christopher Nolan").Return([]catalog.Movie{f.incep}, nil).Once()

	movies, err := f.service.MoviesByDirector(context.Background(), "Christopher Nolan")
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "Inception", movies[0].Title)
}

func TestMoviesByReleaseYear(t *testing.T) {
	f := newFixture(t)
	f.store.On("FindByReleaseYear", anyArg, 1999).Return([]catalog.Movie{f.matrix}, nil).Once()

	movies, err := f.service.MoviesByReleaseYear(context.Background(), 1999)
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "The Matrix", movies[0].Title)
}

func TestMoviesByReleaseYearWithNoMatches(t *testing.T) {
	f := newFixture(t)
	f.store.On("FindByReleaseYear", anyArg, 1888).Return(nil, nil).Once()

	movies, err := f.service.MoviesByReleaseYear(context.Background(), 1888)
	require.NoError(t, err)
	assert.NotNil(t, movies)
}
