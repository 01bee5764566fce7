// Package osngd provides a client for the Ordnance Survey National Geographic
// Database (NGD) Features API (OGC API - Features).
package osngd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/usrn-labs/streetwise/internal/resilience"
)

// BNGCRS is the EPSG:27700 (British National Grid) CRS identifier the NGD API
// expects for bbox queries and responses.
const BNGCRS = "http://www.opengis.net/def/crs/EPSG/0/27700"

// Client defines the NGD Features API operations this system consumes.
type Client interface {
	// Collections lists the available feature collections.
	Collections(ctx context.Context) ([]CollectionInfo, error)

	// Features fetches one page of features from a collection.
	// Pagination is driven by the caller via the returned next link.
	Features(ctx context.Context, collectionID string, q FeatureQuery) (*FeatureCollection, error)

	// FeaturesAll fetches all pages of features from a collection, following
	// next links until the server stops returning one.
	FeaturesAll(ctx context.Context, collectionID string, q FeatureQuery) ([]Feature, error)
}

// CollectionInfo is the subset of collection metadata this system uses.
type CollectionInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// FeatureQuery selects features within a collection. Exactly one of Filter or
// BBox should be set; the server rejects requests mixing both.
type FeatureQuery struct {
	// Filter is a CQL attribute filter, e.g. "usrn=8100239".
	Filter string

	// BBox is "minx,miny,maxx,maxy" in British National Grid coordinates.
	// When set, bbox-crs and crs are sent as EPSG:27700.
	BBox string

	// Limit caps the page size. The API maximum is 100.
	Limit int

	// NextURL continues pagination from a previous page's next link. When set
	// it overrides all other query fields.
	NextURL string
}

// Feature is one GeoJSON feature from the NGD API.
type Feature struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

// Link is an OGC API hypermedia link.
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// FeatureCollection is one page of an NGD items response.
type FeatureCollection struct {
	Type           string    `json:"type"`
	NumberReturned int       `json:"numberReturned"`
	TimeStamp      string    `json:"timeStamp"`
	Features       []Feature `json:"features"`
	Links          []Link    `json:"links"`
}

// Next returns the next-page URL, or "" when this is the last page.
func (fc *FeatureCollection) Next() string {
	for _, l := range fc.Links {
		if l.Rel == "next" {
			return l.Href
		}
	}
	return ""
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the API base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit overrides the default request rate limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *httpClient) { c.retry = p }
}

// WithMaxPages caps how many pages FeaturesAll will follow.
func WithMaxPages(n int) Option {
	return func(c *httpClient) { c.maxPages = n }
}

type httpClient struct {
	apiKey   string
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	retry    resilience.Policy
	maxPages int
}

// NewClient creates an NGD Features API client. The key is sent in the "key"
// request header on every features call.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.os.uk/features/ngd/ofa/v1",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				MaxConnsPerHost:     20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:  rate.NewLimiter(10, 10),
		retry:    resilience.DefaultPolicy(),
		maxPages: 50,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) get(ctx context.Context, rawURL string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "osngd: rate limiter wait")
	}

	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "osngd: create request")
		}
		req.Header.Set("key", c.apiKey)
		req.Header.Set("Accept", "application/geo+json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "osngd: request")
		}
		defer resp.Body.Close() //nolint:errcheck

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "osngd: read body")
		}

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("osngd: status %d from %s", resp.StatusCode, rawURL)
			if resilience.RetryableStatus(resp.StatusCode) {
				return nil, resilience.Transient(err, resp.StatusCode)
			}
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "osngd: decode response")
	}
	return nil
}

// Collections lists the available feature collections.
func (c *httpClient) Collections(ctx context.Context) ([]CollectionInfo, error) {
	var result struct {
		Collections []CollectionInfo `json:"collections"`
	}
	if err := c.get(ctx, c.baseURL+"/collections", &result); err != nil {
		return nil, err
	}
	return result.Collections, nil
}

func (c *httpClient) itemsURL(collectionID string, q FeatureQuery) string {
	if q.NextURL != "" {
		return q.NextURL
	}
	params := url.Values{}
	if q.Filter != "" {
		params.Set("filter", q.Filter)
	}
	if q.BBox != "" {
		params.Set("bbox", q.BBox)
		params.Set("bbox-crs", BNGCRS)
		params.Set("crs", BNGCRS)
	}
	if q.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", q.Limit))
	}
	u := fmt.Sprintf("%s/collections/%s/items", c.baseURL, url.PathEscape(collectionID))
	if enc := params.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// Features fetches one page of features from a collection.
func (c *httpClient) Features(ctx context.Context, collectionID string, q FeatureQuery) (*FeatureCollection, error) {
	var fc FeatureCollection
	if err := c.get(ctx, c.itemsURL(collectionID, q), &fc); err != nil {
		return nil, err
	}
	return &fc, nil
}

// FeaturesAll fetches every page of a query, following next links. The page
// count is capped so a misbehaving upstream cannot loop forever.
func (c *httpClient) FeaturesAll(ctx context.Context, collectionID string, q FeatureQuery) ([]Feature, error) {
	var all []Feature
	for page := 0; page < c.maxPages; page++ {
		fc, err := c.Features(ctx, collectionID, q)
		if err != nil {
			return nil, err
		}
		all = append(all, fc.Features...)

		next := fc.Next()
		if next == "" {
			return all, nil
		}
		q = FeatureQuery{NextURL: next}
	}
	return all, eris.Errorf("osngd: pagination exceeded %d pages for %s", c.maxPages, collectionID)
}
