package lookup

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// OpenLibrary base URLs.
const (
	OpenLibraryURL       = "https://openlibrary.org"
	OpenLibraryCoversURL = "https://covers.openlibrary.org"
)

const openLibraryLimit = 5

// OpenLibrary searches openlibrary.org.
type OpenLibrary struct {
	client
	coversURL string
}

// NewOpenLibrary creates a client at baseURL, one request per second.
func NewOpenLibrary(baseURL string) *OpenLibrary {
	if baseURL == "" {
		baseURL = OpenLibraryURL
	}
	return &OpenLibrary{
		client:    newClient(baseURL, time.Second, 3),
		coversURL: OpenLibraryCoversURL,
	}
}

// Name implements Source.
func (o *OpenLibrary) Name() string { return "openlibrary" }

type openLibrarySearch struct {
	NumFound int              `json:"numFound"`
	Docs     []openLibraryDoc `json:"docs"`
}

type openLibraryDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	Publisher        []string `json:"publisher"`
	ISBN             []string `json:"isbn"`
	CoverI           int      `json:"cover_i"`
	Subject          []string `json:"subject"`
	Pages            int      `json:"number_of_pages_median"`
	Series           []string `json:"series"`
}

// Lookup implements Source.
func (o *OpenLibrary) Lookup(ctx context.Context, q Query) ([]Candidate, error) {
	params := url.Values{}
	if q.ISBN != "" {
		params.Set("isbn", q.ISBN)
	} else {
		params.Set("q", q.Text)
	}
	params.Set("limit", strconv.Itoa(openLibraryLimit))

	var resp openLibrarySearch
	if _, err := o.getJSON(ctx, o.baseURL+"/search.json?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("openlibrary search: %w", err)
	}

	out := make([]Candidate, 0, len(resp.Docs))
	for i := range resp.Docs {
		out = append(out, o.candidate(&resp.Docs[i], q))
	}
	return out, nil
}

func (o *OpenLibrary) candidate(doc *openLibraryDoc, q Query) Candidate {
	c := Candidate{
		Source:     o.Name(),
		Author:     cleanText(firstNonEmpty(doc.AuthorName)),
		Publisher:  cleanText(firstNonEmpty(doc.Publisher)),
		PageCount:  positive(doc.Pages),
		Genres:     capStrings(doc.Subject, 5),
		SeriesHint: cleanText(firstNonEmpty(doc.Series)),
	}
	c.applyTitle(doc.Title)
	if doc.FirstPublishYear > 0 {
		c.PublishedDate = strconv.Itoa(doc.FirstPublishYear)
	}

	c.ISBN = q.ISBN
	if c.ISBN == "" {
		c.ISBN = pickISBN(doc.ISBN)
	}

	switch {
	case doc.CoverI != 0:
		c.CoverURL = fmt.Sprintf("%s/b/id/%d-L.jpg", o.coversURL, doc.CoverI)
	case c.ISBN != "":
		c.CoverURL = fmt.Sprintf("%s/b/isbn/%s-L.jpg", o.coversURL, c.ISBN)
	}
	return c
}
