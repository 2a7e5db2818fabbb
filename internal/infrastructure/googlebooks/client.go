package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/shelfscan/backend/internal/domain"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps how much of a response we read; a lite single-item
// projection is a few KB
const maxBodyBytes = 1 << 20

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	APIKey            string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerMinute int
}

// Client handles communication with the Google Books volumes API.
// It never retries and allows a single request in flight.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter
	inflight    chan struct{}
	debug       bool
}

// NewClient creates a new Google Books API client
func NewClient(baseURL string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "ShelfScan/1.0"
	}
	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      opts.APIKey,
		baseURL:     baseURL,
		userAgent:   userAgent,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		inflight:    make(chan struct{}, 1),
	}
}

// SetDebug toggles verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		log.Printf("[GoogleBooks] "+format, args...)
	}
}

// volumesURL builds the single-result lite query for an ISBN
func (c *Client) volumesURL(isbn string) string {
	params := url.Values{}
	params.Add("q", "isbn:"+isbn)
	params.Add("projection", "lite")
	params.Add("maxResults", "1")
	if c.apiKey != "" {
		params.Add("key", c.apiKey)
	}
	return fmt.Sprintf("%s/volumes?%s", c.baseURL, params.Encode())
}

// acquire blocks until no other lookup is outstanding
func (c *Client) acquire(ctx context.Context) error {
	select {
	case c.inflight <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) release() {
	<-c.inflight
}

// LookupISBN fetches metadata for an already validated ISBN-13.
// It returns domain.ErrBookNotFound when the API has no usable item and
// domain.ErrBooksAPIFailure when the request itself fails.
func (c *Client) LookupISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrBooksAPIFailure, err)
	}
	defer c.release()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", domain.ErrBooksAPIFailure, err)
	}

	reqURL := c.volumesURL(isbn)
	c.debugLog("LookupISBN %s", isbn)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[GoogleBooks] Request error for %s: %v", isbn, err)
		return nil, fmt.Errorf("%w: %v", domain.ErrBooksAPIFailure, err)
	}
	defer resp.Body.Close()

	body, err := readLimitedBody(resp.Body, maxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrBooksAPIFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[GoogleBooks] API error - Status: %d, Body: %s", resp.StatusCode, snippet(body, 300))
		return nil, fmt.Errorf("%w: status %d", domain.ErrBooksAPIFailure, resp.StatusCode)
	}

	var volumes domain.VolumesResponse
	if err := json.Unmarshal(body, &volumes); err != nil {
		log.Printf("[GoogleBooks] Malformed response for %s: %v", isbn, err)
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrBookNotFound, err)
	}

	book, ok := MapToBook(isbn, &volumes)
	if !ok {
		c.debugLog("No items for %s", isbn)
		return nil, domain.ErrBookNotFound
	}

	c.debugLog("Found %q for %s", book.Title, isbn)
	return book, nil
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func snippet(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
