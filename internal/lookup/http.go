package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const userAgent = "Bookshelf/1.0 (+https://github.com/bookshelfapp/bookshelf-server)"

// maxBody bounds how much of an upstream response is read.
const maxBody = 4 << 20

// client is the rate-limited HTTP plumbing shared by sources.
type client struct {
	http    *http.Client
	limiter *rate.Limiter
	baseURL string
}

func newClient(baseURL string, every time.Duration, burst int) client {
	return client{
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(every), burst),
		baseURL: baseURL,
	}
}

// getJSON issues a GET and decodes a 200 response into out. A 404 leaves out
// untouched and reports found=false.
func (c *client) getJSON(ctx context.Context, url string, out any) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return false, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}
