package domain

import (
	"slices"
	"time"
)

// Status is a book's reading status, derived from its read attempts.
type Status string

// Reading statuses.
const (
	StatusWantToRead Status = "want-to-read"
	StatusReading    Status = "reading"
	StatusFinished   Status = "finished"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusWantToRead, StatusReading, StatusFinished:
		return true
	}
	return false
}

// ReadAttempt is one pass through a book. Either end may be unknown.
type ReadAttempt struct {
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Book is an owned book. A non-nil DeletedAt puts it in the bin.
type Book struct {
	Document
	Title          string        `json:"title"`
	Author         string        `json:"author"`
	ISBN           string        `json:"isbn,omitempty"`
	Publisher      string        `json:"publisher,omitempty"`
	PublishedDate  string        `json:"published_date,omitempty"`
	PageCount      *int          `json:"page_count,omitempty"`
	PhysicalFormat string        `json:"physical_format,omitempty"`
	Rating         *int          `json:"rating,omitempty"`
	Reads          []ReadAttempt `json:"reads,omitempty"`
	GenreIDs       []string      `json:"genre_ids,omitempty"`
	SeriesID       string        `json:"series_id,omitempty"`
	SeriesPosition *int          `json:"series_position,omitempty"`
	CoverImageURL  string        `json:"cover_image_url,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	DeletedAt      *time.Time    `json:"deleted_at,omitempty"`
}

// InBin reports whether the book has been soft-deleted.
func (b *Book) InBin() bool {
	return b.DeletedAt != nil
}

// HasGenre reports whether the book references genreID.
func (b *Book) HasGenre(genreID string) bool {
	return slices.Contains(b.GenreIDs, genreID)
}

// UniqueGenreIDs returns ids in first-seen order with blanks and repeats removed.
func UniqueGenreIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, gid := range ids {
		if gid == "" {
			continue
		}
		if _, ok := seen[gid]; ok {
			continue
		}
		seen[gid] = struct{}{}
		out = append(out, gid)
	}
	return out
}
