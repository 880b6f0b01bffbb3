// Package bookinfo looks up book metadata from the Open Library API.
package bookinfo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/readstack/catalog/pkg/logger"
)

// BookInfo is the subset of Open Library metadata the book form can prefill.
type BookInfo struct {
	Title       string
	Summary     string
	PublishDate string
	Pages       int64
}

// Client fetches book records by ISBN.
type Client struct {
	client  *http.Client
	baseURL string
	log     *logger.Logger
}

// New creates a lookup client. A nil http.Client gets a 10 second timeout
// default; the base URL must be non-empty.
func New(client *http.Client, baseURL string, log *logger.Logger) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("bookinfo base URL is required")
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = logger.NewDefault("bookinfo")
	}
	return &Client{client: client, baseURL: baseURL, log: log}, nil
}

// LookupISBN fetches the record for one ISBN. Unknown ISBNs return an error
// wrapping the upstream 404.
func (c *Client) LookupISBN(ctx context.Context, isbn string) (BookInfo, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return BookInfo{}, fmt.Errorf("isbn is required")
	}

	endpoint := c.baseURL + "/isbn/" + url.PathEscape(isbn) + ".json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return BookInfo{}, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return BookInfo{}, fmt.Errorf("lookup isbn %s: %w", isbn, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return BookInfo{}, fmt.Errorf("lookup isbn %s: unexpected status %d", isbn, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return BookInfo{}, fmt.Errorf("read lookup response: %w", err)
	}

	info := parseBookInfo(body)
	if info.Title == "" {
		return BookInfo{}, fmt.Errorf("lookup isbn %s: record has no title", isbn)
	}

	c.log.WithField("isbn", isbn).WithField("title", info.Title).Debug("isbn lookup succeeded")
	return info, nil
}

// parseBookInfo extracts fields from an Open Library edition record. The
// description is either a plain string or a typed text object.
func parseBookInfo(body []byte) BookInfo {
	info := BookInfo{
		Title:       gjson.GetBytes(body, "title").String(),
		PublishDate: gjson.GetBytes(body, "publish_date").String(),
		Pages:       gjson.GetBytes(body, "number_of_pages").Int(),
	}

	description := gjson.GetBytes(body, "description")
	switch {
	case description.IsObject():
		info.Summary = description.Get("value").String()
	default:
		info.Summary = description.String()
	}
	return info
}
