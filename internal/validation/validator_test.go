package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/validation"
)

type bookRequest struct {
	Title  string `json:"title" validate:"required,max=500"`
	ISBN   string `json:"isbn,omitempty" validate:"omitempty,isbn"`
	Rating *int   `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Color  string `json:"color,omitempty" validate:"omitempty,color"`
	Level  string `json:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
}

func intPtr(v int) *int { return &v }

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	req := bookRequest{
		Title:  "Dune",
		ISBN:   "ISBN-13: 978-0-441-17271-9",
		Rating: intPtr(5),
		Color:  "teal",
		Level:  "high",
	}
	assert.NoError(t, v.Validate(req))
	assert.NoError(t, v.Validate(bookRequest{Title: "Only a title"}))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       bookRequest
		wantField string
		wantMsg   string
	}{
		{"missing title", bookRequest{}, "title", "is required"},
		{"bad isbn", bookRequest{Title: "x", ISBN: "The Great Gatsby"}, "isbn", "must be a 10 or 13 digit ISBN"},
		{"rating too high", bookRequest{Title: "x", Rating: intPtr(6)}, "rating", "must not exceed 5"},
		{"rating too low", bookRequest{Title: "x", Rating: intPtr(0)}, "rating", "must be at least 1"},
		{"bad color", bookRequest{Title: "x", Color: "#12"}, "color", "must be a hex color such as #3366cc"},
		{"bad priority", bookRequest{Title: "x", Level: "urgent"}, "priority", "must be one of: high medium low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)

			var derr *domainerrors.Error
			require.ErrorAs(t, err, &derr)
			details, ok := derr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

func TestValidator_Var(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Var("isbn", "0-12-345678-9", "isbn"))

	err := v.Var("isbn", "12345", "isbn")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}
