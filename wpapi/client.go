package wpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/michaelcarwile/wp-rest-importer/internal/httpclient"
)

const (
	apiIndexPath = "/wp-json"
	apiBasePath  = "/wp-json/wp/v2"
)

// ErrIncompatibleAPI marks a site that does not expose a usable WordPress
// REST API. It aborts the whole site run, not just one content type.
var ErrIncompatibleAPI = errors.New("no compatible WordPress REST API")

// ErrNoContent marks a run that found zero items for everything requested.
var ErrNoContent = errors.New("no content found")

// Client talks to one site's REST API. All calls are sequential; the
// configured delay is a blocking pause between consecutive requests.
type Client struct {
	base            *httpclient.BaseClient
	siteURL         string
	perPage         int
	taxonomyPerPage int
	delay           time.Duration
}

type Option func(*Client)

// WithPerPage sets the number of items requested per content page.
func WithPerPage(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.perPage = n
		}
	}
}

// WithTaxonomyPerPage sets the batch size for term lookups.
func WithTaxonomyPerPage(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.taxonomyPerPage = n
		}
	}
}

// WithDelay sets the courtesy pause between consecutive API requests.
// Zero or negative disables the pause.
func WithDelay(d time.Duration) Option {
	return func(c *Client) {
		if d < 0 {
			d = 0
		}
		c.delay = d
	}
}

// WithHTTPClient swaps the underlying http.Client (timeouts, transports).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.base = httpclient.NewBaseClientWithClient(h, c.siteURL)
	}
}

// NewClient creates a client for the given site URL.
func NewClient(siteURL string, opts ...Option) *Client {
	siteURL = strings.TrimRight(siteURL, "/")
	c := &Client{
		base:            httpclient.NewBaseClient(siteURL),
		siteURL:         siteURL,
		perPage:         20,
		taxonomyPerPage: 100,
		delay:           3 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SiteURL returns the normalized site URL the client was built for.
func (c *Client) SiteURL() string {
	return c.siteURL
}

// Host returns the site's host name with a leading "www." stripped,
// used to derive default output names.
func (c *Client) Host() string {
	u, err := url.Parse(c.siteURL)
	if err != nil || u.Hostname() == "" {
		return "site"
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// Probe issues a lightweight request against the API index and verifies the
// site answers with a recognizable wp/v2 capability listing.
func (c *Client) Probe(ctx context.Context) error {
	var index struct {
		Name       string                     `json:"name"`
		Namespaces []string                   `json:"namespaces"`
		Routes     map[string]json.RawMessage `json:"routes"`
	}
	if _, err := c.getJSON(ctx, apiIndexPath, nil, &index); err != nil {
		return fmt.Errorf("%s: %w: %v", c.siteURL, ErrIncompatibleAPI, err)
	}

	for _, ns := range index.Namespaces {
		if ns == "wp/v2" {
			return nil
		}
	}
	if _, ok := index.Routes["/wp/v2"]; ok {
		return nil
	}
	return fmt.Errorf("%s: %w: API index lists no wp/v2 namespace", c.siteURL, ErrIncompatibleAPI)
}

// getJSON performs one GET and decodes the JSON body into v.
// The response is returned so callers can read count headers.
func (c *Client) getJSON(ctx context.Context, relPath string, query url.Values, v any) (*http.Response, error) {
	req, err := c.base.NewRequest(ctx, http.MethodGet, relPath, query, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return resp, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, relPath)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp, fmt.Errorf("decode %s: %w", relPath, err)
	}
	return resp, nil
}

// sleep blocks for the configured inter-request delay. It returns early when
// the context is cancelled.
func (c *Client) sleep(ctx context.Context) {
	if c.delay <= 0 {
		return
	}
	select {
	case <-time.After(c.delay):
	case <-ctx.Done():
	}
}

func typePath(typeSlug string) string {
	return path.Join(apiBasePath, typeSlug)
}
