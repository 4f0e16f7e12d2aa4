// Package feed fetches pages of the public EV charger info feed.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrUpstream is returned when the feed is unreachable or answers with something unusable.
var ErrUpstream = errors.New("charger feed upstream error")

const maxPageBytes = 32 << 20

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client calls the feed.
type Client struct {
	baseURL    string
	serviceKey string
	client     HTTPDoer
}

// NewClient builds client. The timeout of client bounds each page request.
func NewClient(baseURL, serviceKey string, client HTTPDoer) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		client:     client,
	}
}

// NewDefaultHTTPClient returns *http.Client with timeout.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Fetch returns one page. region is the province code and is omitted when blank.
// A page with no items is not an error.
func (c *Client) Fetch(ctx context.Context, page, pageSize int, region string) (*Page, error) {
	q := url.Values{}
	q.Set("serviceKey", c.serviceKey)
	q.Set("pageNo", strconv.Itoa(page))
	q.Set("numOfRows", strconv.Itoa(pageSize))
	q.Set("dataType", "JSON")
	if region = strings.TrimSpace(region); region != "" {
		q.Set("zcode", region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", ErrUpstream, page, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: read body: %v", ErrUpstream, page, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: page %d: status %d", ErrUpstream, page, resp.StatusCode)
	}

	var out Page
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: page %d: decode: %v", ErrUpstream, page, err)
	}
	return &out, nil
}
