// Package search matches a free-text query against a user's books and
// produces highlight spans for display.
package search

import (
	"strings"
	"unicode/utf8"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/library"
	"github.com/bookshelfapp/bookshelf-server/internal/normalize"
)

// MinQueryLength is the shortest query, in runes, that is searched at all.
const MinQueryLength = 2

// Field names a searchable book field.
type Field string

// Searchable fields.
const (
	FieldTitle     Field = "title"
	FieldAuthor    Field = "author"
	FieldPublisher Field = "publisher"
	FieldNotes     Field = "notes"
	FieldISBN      Field = "isbn"
	FieldSeries    Field = "series"
)

// Match is a book that matched, with the fields the query was found in.
type Match struct {
	Book       *domain.Book
	SeriesName string
	Fields     []Field
}

// Books returns the books outside the bin matching query in any searchable
// field, in input order. ISBNs are matched against the query as typed, so
// "978-0" does not find a stored "9780...".
func Books(books []*domain.Book, series []*domain.Series, query string) []Match {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return nil
	}

	names := make(map[string]string, len(series))
	for _, s := range series {
		names[s.ID] = s.Name
	}

	var out []Match
	for _, b := range library.Active(books) {
		seriesName := ""
		if b.SeriesID != "" {
			seriesName = names[b.SeriesID]
		}
		if fields := matchFields(b, seriesName, query); len(fields) > 0 {
			out = append(out, Match{Book: b, SeriesName: seriesName, Fields: fields})
		}
	}
	return out
}

func matchFields(b *domain.Book, seriesName, query string) []Field {
	candidates := []struct {
		field Field
		value string
	}{
		{FieldTitle, b.Title},
		{FieldAuthor, b.Author},
		{FieldPublisher, b.Publisher},
		{FieldNotes, b.Notes},
		{FieldISBN, b.ISBN},
		{FieldSeries, seriesName},
	}
	var fields []Field
	for _, c := range candidates {
		if normalize.ContainsFold(c.value, query) {
			fields = append(fields, c.field)
		}
	}
	return fields
}

// Spans splits a display string around the first occurrence of a query.
type Spans struct {
	Before string `json:"before"`
	Match  string `json:"match"`
	After  string `json:"after"`
	Found  bool   `json:"found"`
}

// Highlight locates the first case-insensitive occurrence of query in text.
// When there is none, Before holds text unchanged.
func Highlight(text, query string) Spans {
	query = strings.TrimSpace(query)
	start, end := normalize.IndexFold(text, query)
	if start < 0 {
		return Spans{Before: text}
	}
	return Spans{
		Before: text[:start],
		Match:  text[start:end],
		After:  text[end:],
		Found:  true,
	}
}

// String reassembles the original text.
func (s Spans) String() string {
	return s.Before + s.Match + s.After
}
