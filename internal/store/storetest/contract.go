// Package storetest holds the behavioural contract every catalog.Store
// implementation is tested against.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviecatalog/internal/catalog"
)

// Factory returns an empty store. Cleanup is the factory's responsibility.
type Factory func(t *testing.T) catalog.Store

func rating(v float64) *float64 { return &v }

// Matrix and Inception are the fixtures shared by the contract and service tests.
func Matrix() catalog.Movie {
	return catalog.Movie{Title: "The Matrix", Genre: "Sci-Fi", Director: "Wachowski Brothers", ReleaseYear: 1999, Rating: rating(8.7)}
}

func Inception() catalog.Movie {
	return catalog.Movie{Title: "Inception", Genre: "Sci-Fi", Director: "Christopher Nolan", ReleaseYear: 2010, Rating: rating(8.8)}
}

// Run executes the contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("InsertAssignsID", func(t *testing.T) { testInsertAssignsID(t, newStore(t)) })
	t.Run("FindByID", func(t *testing.T) { testFindByID(t, newStore(t)) })
	t.Run("IdentityLookup", func(t *testing.T) { testIdentityLookup(t, newStore(t)) })
	t.Run("Filters", func(t *testing.T) { testFilters(t, newStore(t)) })
	t.Run("UpdateAndDelete", func(t *testing.T) { testUpdateAndDelete(t, newStore(t)) })
	t.Run("RollbackOnError", func(t *testing.T) { testRollbackOnError(t, newStore(t)) })
	t.Run("OptionalFields", func(t *testing.T) { testOptionalFields(t, newStore(t)) })
}

func testInsertAssignsID(t *testing.T, store catalog.Store) {
	ctx := context.Background()
	candidate := Matrix()
	candidate.ID = uuid.New()

	created, err := store.Insert(ctx, candidate)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	other, err := store.Insert(ctx, Inception())
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, other.ID)

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func testFindByID(t *testing.T, store catalog.Store) {
	ctx := context.Background()
	created, err := store.Insert(ctx, Matrix())
	require.NoError(t, err)

	got, found, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created, got)

	_, found, err = store.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
}

func testIdentityLookup(t *testing.T, store catalog.Store) {
	ctx := context.Background()
	created, err := store.Insert(ctx, Matrix())
	require.NoError(t, err)

	got, found, err := store.FindByTitleAndReleaseYear(ctx, "The Matrix", 1999)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created.ID, got.ID)

	exists, err := store.ExistsByTitleAndReleaseYear(ctx, "The Matrix", 1999)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.ExistsByTitleAndReleaseYear(ctx, "The Matrix", 2003)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = store.ExistsByTitleAndReleaseYear(ctx, "the matrix", 1999)
	require.NoError(t, err)
	assert.False(t, exists, "title match is exact")
}

func testFilters(t *testing.T, store catalog.Store) {
	ctx := context.Background()
	matrix, err := store.Insert(ctx, Matrix())
	require.NoError(t, err)
	inception, err := store.Insert(ctx, Inception())
	require.NoError(t, err)

	sciFi, err := store.FindByGenre(ctx, "Sci-Fi")
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{matrix.ID, inception.ID}, ids(sciFi))

	nolan, err := store.FindByDirector(ctx, "Christopher Nolan")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{inception.ID}, ids(nolan))

	of1999, err := store.FindByReleaseYear(ctx, 1999)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{matrix.ID}, ids(of1999))

	none, err := store.FindByGenre(ctx, "Western")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testUpdateAndDelete(t *testing.T, store catalog.Store) {
	ctx := context.Background()
	created, err := store.Insert(ctx, Matrix())
	require.NoError(t, err)

	created.Title = "The Matrix Reloaded"
	created.ReleaseYear = 2003
	created.Rating = nil
	require.NoError(t, store.Update(ctx, created))

	got, found, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created, got)

	missing := Matrix()
	missing.ID = uuid.New()
	assert.True(t, errors.Is(store.Update(ctx, missing), catalog.ErrMovieNotFound))

	require.NoError(t, store.Delete(ctx, created.ID))
	_, found, err = store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, errors.Is(store.Delete(ctx, created.ID), catalog.ErrMovieNotFound))
}

func testRollbackOnError(t *testing.T, store catalog.Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.RunInTransaction(ctx, func(tx catalog.Repository) error {
		if _, err := tx.Insert(ctx, Matrix()); err != nil {
			return err
		}
		exists, err := tx.ExistsByTitleAndReleaseYear(ctx, "The Matrix", 1999)
		if err != nil {
			return err
		}
		if !exists {
			return errors.New("insert not visible inside transaction")
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testOptionalFields(t *testing.T, store catalog.Store) {
	ctx := context.Background()
	created, err := store.Insert(ctx, catalog.Movie{Title: "Untitled", ReleaseYear: 2020})
	require.NoError(t, err)

	got, found, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Nil(t, got.Rating)
	assert.Empty(t, got.Genre)
	assert.Empty(t, got.Director)
}

func ids(movies []catalog.Movie) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(movies))
	for _, m := range movies {
		out = append(out, m.ID)
	}
	return out
}
