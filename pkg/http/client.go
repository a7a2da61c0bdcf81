package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request describes one upstream GET. Providers in this system are all
// query-string JSON APIs, so nothing more general is needed here.
type Request struct {
	URL     string
	Query   url.Values
	Headers map[string]string
}

// Client is a thin JSON-oriented HTTP client with a hard per-request
// timeout on top of any context deadline the caller carries.
type Client struct {
	hc *http.Client
}

// NewClient builds a client whose requests never outlive timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{hc: &http.Client{Timeout: timeout}}
}

// Get performs the request and hands back the raw response. The caller
// owns the body and classifies the status code.
func (c *Client) Get(ctx context.Context, r Request) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if len(r.Query) > 0 {
		q := req.URL.Query()
		for k, vs := range r.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	return c.hc.Do(req)
}
