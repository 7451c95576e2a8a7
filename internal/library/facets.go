package library

import (
	"strings"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
)

// MaxRating is the top of the rating scale.
const MaxRating = 5

// Facets holds, per filter dimension, how many books would match each option
// if every other active criterion stayed applied.
type Facets struct {
	Statuses map[domain.Status]int `json:"statuses"`
	Genres   map[string]int        `json:"genres"`
	Series   map[string]int        `json:"series"`
	// Ratings is cumulative: Ratings[3] counts books rated 3 or higher.
	Ratings map[int]int    `json:"ratings"`
	Authors map[string]int `json:"authors"`
}

// ComputeFacets runs the filter once per dimension with that dimension's
// criterion cleared and tallies the survivors.
func ComputeFacets(books []*domain.Book, c Criteria) Facets {
	f := Facets{
		Statuses: make(map[domain.Status]int),
		Genres:   make(map[string]int),
		Series:   make(map[string]int),
		Ratings:  make(map[int]int),
		Authors:  make(map[string]int),
	}

	without := c
	without.Statuses = nil
	for _, b := range Filter(books, without) {
		f.Statuses[DeriveStatus(b)]++
	}

	without = c
	without.GenreIDs = nil
	for _, b := range Filter(books, without) {
		for _, gid := range domain.UniqueGenreIDs(b.GenreIDs) {
			f.Genres[gid]++
		}
	}

	without = c
	without.SeriesIDs = nil
	for _, b := range Filter(books, without) {
		if b.SeriesID != "" {
			f.Series[b.SeriesID]++
		}
	}

	without = c
	without.MinRating = 0
	for _, b := range Filter(books, without) {
		if b.Rating == nil {
			continue
		}
		for threshold := 1; threshold <= min(*b.Rating, MaxRating); threshold++ {
			f.Ratings[threshold]++
		}
	}

	// Authors match case-insensitively, so spellings share one tally shown
	// under the first form seen.
	without = c
	without.Author = ""
	display := make(map[string]string)
	for _, b := range Filter(books, without) {
		author := strings.TrimSpace(b.Author)
		if author == "" {
			continue
		}
		key := strings.ToLower(author)
		if _, ok := display[key]; !ok {
			display[key] = author
		}
		f.Authors[display[key]]++
	}

	return f
}
