package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
)

func TestWishlistService_ListOrdersByPriority(t *testing.T) {
	ctx := context.Background()
	svc := NewWishlistService(newCountingStore(t), testLogger())

	for _, req := range []CreateWishlistRequest{
		{Title: "Unprioritised"},
		{Title: "Low", Priority: "low"},
		{Title: "High one", Priority: "high"},
		{Title: "Medium", Priority: "medium"},
		{Title: "High two", Priority: "high"},
	} {
		_, err := svc.Create(ctx, testUser, req)
		require.NoError(t, err)
	}

	items, err := svc.List(ctx, testUser)
	require.NoError(t, err)
	var titles []string
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	assert.Equal(t, []string{"High one", "High two", "Medium", "Low", "Unprioritised"}, titles)

	_, err = svc.Create(ctx, testUser, CreateWishlistRequest{Title: "Bad", Priority: "urgent"})
	require.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestWishlistService_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewWishlistService(newCountingStore(t), testLogger())
	it, err := svc.Create(ctx, testUser, CreateWishlistRequest{Title: "Dune", Priority: "low", Notes: "ask for it"})
	require.NoError(t, err)

	it, err = svc.Update(ctx, testUser, it.ID, UpdateWishlistRequest{Priority: ptr("none"), Notes: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, domain.Priority(""), it.Priority)
	assert.Empty(t, it.Notes)
	assert.Equal(t, "Dune", it.Title)

	_, err = svc.Update(ctx, testUser, it.ID, UpdateWishlistRequest{ISBN: ptr("123")})
	require.ErrorIs(t, err, domainerrors.ErrValidation)

	require.NoError(t, svc.Delete(ctx, testUser, it.ID))
	require.ErrorIs(t, svc.Delete(ctx, testUser, it.ID), domainerrors.ErrNotFound)
}

func TestWishlistService_MoveToLibrary(t *testing.T) {
	ctx := context.Background()
	s := newCountingStore(t)
	svc := NewWishlistService(s, testLogger())

	it, err := svc.Create(ctx, testUser, CreateWishlistRequest{
		Title:     "Hyperion",
		Author:    "Dan Simmons",
		ISBN:      "978-0-553-28368-8",
		PageCount: ptr(482),
		Priority:  "high",
	})
	require.NoError(t, err)

	b, err := svc.MoveToLibrary(ctx, testUser, it.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Hyperion", b.Title)
	assert.Equal(t, "9780553283688", b.ISBN)
	assert.Equal(t, 482, *b.PageCount)
	assert.EqualValues(t, 1, s.Commits.Load())

	stored := getBook(t, s, b.ID)
	assert.Equal(t, "Dan Simmons", stored.Author)
	_, err = svc.Get(ctx, testUser, it.ID)
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestWishlistService_MoveToLibrary_Duplicate(t *testing.T) {
	ctx := context.Background()
	s := newCountingStore(t)
	svc := NewWishlistService(s, testLogger())
	putBook(t, s, domain.Book{Title: "Hyperion", Author: "Dan Simmons"})

	it, err := svc.Create(ctx, testUser, CreateWishlistRequest{Title: "hyperion", Author: "dan  simmons"})
	require.NoError(t, err)

	_, err = svc.MoveToLibrary(ctx, testUser, it.ID, false)
	require.ErrorIs(t, err, domainerrors.ErrConflict)
	_, err = svc.Get(ctx, testUser, it.ID)
	require.NoError(t, err, "a refused move keeps the item")

	_, err = svc.MoveToLibrary(ctx, testUser, it.ID, true)
	require.NoError(t, err)
}
