package lookup

import (
	"regexp"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"

	"github.com/bookshelfapp/bookshelf-server/internal/duplicate"
	"github.com/bookshelfapp/bookshelf-server/internal/normalize"
)

//nolint:gochecknoglobals // Compiled once
var (
	htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)
	seriesSuffix   = regexp.MustCompile(`^(.*?)\s*\(([^()#]+?),?\s*#\s*(\d+)\)\s*$`)
)

// descriptionMarkdown converts an HTML description to markdown. Plain text is
// returned trimmed.
func descriptionMarkdown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !htmlTagPattern.MatchString(strings.ToLower(s)) {
		return s
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(md)
}

// cleanText unescapes entities and collapses whitespace.
func cleanText(s string) string {
	return normalize.Spaces(html.UnescapeString(s))
}

// splitSeries pulls a "(Series, #n)" suffix off a title.
func splitSeries(title string) (string, string, *int) {
	m := seriesSuffix.FindStringSubmatch(title)
	if m == nil {
		return title, "", nil
	}
	pos, err := strconv.Atoi(m[3])
	if err != nil || pos <= 0 {
		return title, "", nil
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), &pos
}

// applyTitle sets the candidate's title and any series hint parsed from it.
func (c *Candidate) applyTitle(raw string) {
	title, series, pos := splitSeries(cleanText(raw))
	c.Title = title
	if c.SeriesHint == "" && series != "" {
		c.SeriesHint = series
		c.SeriesPosition = pos
	}
}

// pickISBN prefers a 13-digit ISBN from ids.
func pickISBN(ids []string) string {
	var ten string
	for _, v := range ids {
		clean := duplicate.CleanISBN(v)
		if !duplicate.IsISBN(clean) {
			continue
		}
		if len(clean) == 13 {
			return clean
		}
		if ten == "" {
			ten = clean
		}
	}
	return ten
}

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func capStrings(values []string, n int) []string {
	out := make([]string, 0, min(len(values), n))
	for _, v := range values {
		if len(out) == n {
			break
		}
		if v = cleanText(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func positive(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}
