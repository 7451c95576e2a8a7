package lookup

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bookshelfapp/bookshelf-server/internal/normalize"
)

// GoogleBooksURL is the Books API base URL.
const GoogleBooksURL = "https://www.googleapis.com"

const googleBooksLimit = 10

// GoogleBooks searches the Google Books volumes API.
type GoogleBooks struct {
	client
	apiKey string
}

// NewGoogleBooks creates a client. apiKey may be empty for anonymous quota.
func NewGoogleBooks(baseURL, apiKey string) *GoogleBooks {
	if baseURL == "" {
		baseURL = GoogleBooksURL
	}
	return &GoogleBooks{
		client: newClient(baseURL, 500*time.Millisecond, 4),
		apiKey: apiKey,
	}
}

// Name implements Source.
func (g *GoogleBooks) Name() string { return "googlebooks" }

type volumes struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title               string   `json:"title"`
	Subtitle            string   `json:"subtitle"`
	Authors             []string `json:"authors"`
	Publisher           string   `json:"publisher"`
	PublishedDate       string   `json:"publishedDate"`
	Description         string   `json:"description"`
	PageCount           int      `json:"pageCount"`
	Categories          []string `json:"categories"`
	IndustryIdentifiers []struct {
		Type       string `json:"type"`
		Identifier string `json:"identifier"`
	} `json:"industryIdentifiers"`
	ImageLinks struct {
		SmallThumbnail string `json:"smallThumbnail"`
		Thumbnail      string `json:"thumbnail"`
	} `json:"imageLinks"`
}

// Lookup implements Source.
func (g *GoogleBooks) Lookup(ctx context.Context, q Query) ([]Candidate, error) {
	params := url.Values{}
	if q.ISBN != "" {
		params.Set("q", "isbn:"+q.ISBN)
	} else {
		params.Set("q", q.Text)
	}
	params.Set("maxResults", strconv.Itoa(googleBooksLimit))
	params.Set("printType", "books")
	if g.apiKey != "" {
		params.Set("key", g.apiKey)
	}

	var resp volumes
	if _, err := g.getJSON(ctx, g.baseURL+"/books/v1/volumes?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("google books search: %w", err)
	}

	out := make([]Candidate, 0, len(resp.Items))
	for i := range resp.Items {
		out = append(out, g.candidate(&resp.Items[i].VolumeInfo, q))
	}
	return out, nil
}

func (g *GoogleBooks) candidate(v *volumeInfo, q Query) Candidate {
	c := Candidate{
		Source:        g.Name(),
		Author:        cleanText(strings.Join(v.Authors, ", ")),
		Publisher:     cleanText(v.Publisher),
		PublishedDate: normalize.PublishedDate(v.PublishedDate),
		PageCount:     positive(v.PageCount),
		Genres:        capStrings(v.Categories, 5),
		Description:   descriptionMarkdown(v.Description),
	}
	c.applyTitle(v.Title)

	ids := make([]string, 0, len(v.IndustryIdentifiers))
	for _, id := range v.IndustryIdentifiers {
		if strings.HasPrefix(id.Type, "ISBN") {
			ids = append(ids, id.Identifier)
		}
	}
	c.ISBN = pickISBN(ids)
	if c.ISBN == "" {
		c.ISBN = q.ISBN
	}

	cover := v.ImageLinks.Thumbnail
	if cover == "" {
		cover = v.ImageLinks.SmallThumbnail
	}
	c.CoverURL = strings.Replace(cover, "http://", "https://", 1)
	return c
}
