package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
)

func TestSeriesService_CreateUpdate(t *testing.T) {
	ctx := context.Background()
	svc := NewSeriesService(newCountingStore(t), testLogger())

	dw, err := svc.Create(ctx, testUser, CreateSeriesRequest{Name: "Discworld", TotalBooks: ptr(41)})
	require.NoError(t, err)
	assert.Equal(t, 41, *dw.TotalBooks)

	_, err = svc.Create(ctx, testUser, CreateSeriesRequest{Name: " DISCWORLD "})
	require.ErrorIs(t, err, domainerrors.ErrConflict)

	updated, err := svc.Update(ctx, testUser, dw.ID, UpdateSeriesRequest{TotalBooks: ptr(0)})
	require.NoError(t, err)
	assert.Nil(t, updated.TotalBooks)
	assert.Equal(t, "Discworld", updated.Name)

	list, err := svc.List(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestSeriesService_DeleteClearsReferences(t *testing.T) {
	ctx := context.Background()
	s := newCountingStore(t)
	svc := NewSeriesService(s, testLogger())
	dw := putSeries(t, s, "Discworld")
	other := putSeries(t, s, "Dune Chronicles")
	mort := putBook(t, s, domain.Book{Title: "Mort", SeriesID: dw, SeriesPosition: ptr(4)})
	guards := putBook(t, s, domain.Book{Title: "Guards! Guards!", SeriesID: dw, SeriesPosition: ptr(8)})
	dune := putBook(t, s, domain.Book{Title: "Dune", SeriesID: other, SeriesPosition: ptr(1)})

	n, err := svc.Delete(ctx, testUser, dw)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.EqualValues(t, 1, s.Commits.Load())

	for _, bookID := range []string{mort, guards} {
		b := getBook(t, s, bookID)
		assert.Empty(t, b.SeriesID)
		assert.Nil(t, b.SeriesPosition)
	}
	assert.Equal(t, other, getBook(t, s, dune).SeriesID)

	_, err = svc.Get(ctx, testUser, dw)
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = svc.Delete(ctx, testUser, dw)
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestSeriesService_Merge_KeepsPositions(t *testing.T) {
	ctx := context.Background()
	s := newCountingStore(t)
	svc := NewSeriesService(s, testLogger())
	source := putSeries(t, s, "Discworld: Death")
	target := putSeries(t, s, "Discworld")
	mort := putBook(t, s, domain.Book{Title: "Mort", SeriesID: source, SeriesPosition: ptr(1)})
	reaper := putBook(t, s, domain.Book{Title: "Reaper Man", SeriesID: source, SeriesPosition: ptr(2)})
	guards := putBook(t, s, domain.Book{Title: "Guards! Guards!", SeriesID: target, SeriesPosition: ptr(8)})
	s.Writes.Store(0)

	n, err := svc.Merge(ctx, testUser, source, target)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.EqualValues(t, 3, s.Writes.Load())

	// Positions carry over from the source series unchanged, even where they
	// clash with the target's own numbering.
	b := getBook(t, s, mort)
	assert.Equal(t, target, b.SeriesID)
	assert.Equal(t, 1, *b.SeriesPosition)
	b = getBook(t, s, reaper)
	assert.Equal(t, target, b.SeriesID)
	assert.Equal(t, 2, *b.SeriesPosition)
	assert.Equal(t, 8, *getBook(t, s, guards).SeriesPosition)

	_, err = svc.Get(ctx, testUser, source)
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestSeriesService_Merge_EdgeCases(t *testing.T) {
	ctx := context.Background()
	s := newCountingStore(t)
	svc := NewSeriesService(s, testLogger())
	empty := putSeries(t, s, "Empty")
	target := putSeries(t, s, "Target")
	s.Writes.Store(0)

	n, err := svc.Merge(ctx, testUser, empty, target)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, s.Writes.Load())

	_, err = svc.Merge(ctx, testUser, target, target)
	require.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = svc.Merge(ctx, testUser, empty, "series-missing")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}
