package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
)

// Versions this package reads. Version 1 files predate series and the bin.
const (
	VersionLegacy  = 1
	CurrentVersion = 2
)

// Document is the backup file. Records carry no storage ids; genres and
// series keep their original id in ExportID so book references can be
// translated on import.
type Document struct {
	Version    int            `json:"version"`
	ExportedAt time.Time      `json:"exportedAt"`
	Genres     []Genre        `json:"genres"`
	Series     []Series       `json:"series"`
	Books      []Book         `json:"books"`
	Wishlist   []WishlistItem `json:"wishlist"`
	Bin        []Book         `json:"bin"`
}

// Total counts every record in the document.
func (d *Document) Total() int {
	return len(d.Genres) + len(d.Series) + len(d.Books) + len(d.Wishlist) + len(d.Bin)
}

// Genre is an exported genre.
type Genre struct {
	ExportID  string     `json:"_exportId"`
	Name      string     `json:"name"`
	Color     string     `json:"color,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Series is an exported series.
type Series struct {
	ExportID   string     `json:"_exportId"`
	Name       string     `json:"name"`
	TotalBooks *int       `json:"totalBooks,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// ReadAttempt is an exported read attempt.
type ReadAttempt struct {
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// Book is an exported book. GenreIDs and SeriesID hold export ids.
type Book struct {
	Title          string        `json:"title"`
	Author         string        `json:"author"`
	ISBN           string        `json:"isbn,omitempty"`
	Publisher      string        `json:"publisher,omitempty"`
	PublishedDate  string        `json:"publishedDate,omitempty"`
	PageCount      *int          `json:"pageCount,omitempty"`
	PhysicalFormat string        `json:"physicalFormat,omitempty"`
	Rating         *int          `json:"rating,omitempty"`
	Reads          []ReadAttempt `json:"reads,omitempty"`
	GenreIDs       []string      `json:"genreIds,omitempty"`
	SeriesID       string        `json:"seriesId,omitempty"`
	SeriesPosition *int          `json:"seriesPosition,omitempty"`
	CoverImageURL  string        `json:"coverImageUrl,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	CreatedAt      *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time    `json:"updatedAt,omitempty"`
	DeletedAt      *time.Time    `json:"deletedAt,omitempty"`
}

// WishlistItem is an exported wishlist entry.
type WishlistItem struct {
	Title         string          `json:"title"`
	Author        string          `json:"author"`
	ISBN          string          `json:"isbn,omitempty"`
	CoverImageURL string          `json:"coverImageUrl,omitempty"`
	Publisher     string          `json:"publisher,omitempty"`
	PublishedDate string          `json:"publishedDate,omitempty"`
	PageCount     *int            `json:"pageCount,omitempty"`
	Priority      domain.Priority `json:"priority,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     *time.Time      `json:"createdAt,omitempty"`
}

// FileName is the conventional file name for an export taken at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("bookshelf-backup-%s.json", t.Format(time.DateOnly))
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeOr(t *time.Time, def time.Time) time.Time {
	if t == nil || t.IsZero() {
		return def
	}
	return t.UTC()
}
