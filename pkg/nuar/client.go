// Package nuar provides a client for the National Underground Asset Register
// generalised-data metrics API.
package nuar

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/usrn-labs/streetwise/internal/resilience"
)

// Client defines the NUAR metric operations this system consumes.
type Client interface {
	// AssetCount returns the count of registered underground assets inside a
	// bounding box ("minx,miny,maxx,maxy", British National Grid).
	AssetCount(ctx context.Context, bbox string) (*AssetCountResult, error)
}

// AssetCountResult is the parsed asset-count metric response.
type AssetCountResult struct {
	AssetCount int    `json:"asset_count"`
	BBox       string `json:"bbox"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the metrics base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *httpClient) { c.retry = p }
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	retry   resilience.Policy
}

// NewClient creates a NUAR metrics client.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: "https://innovation.nuar-data-services.uk/services/generalised-data/api/v1/metrics/AssetCount/nuar/12",
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
		retry: resilience.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AssetCount returns the asset count for a bounding box.
func (c *httpClient) AssetCount(ctx context.Context, bbox string) (*AssetCountResult, error) {
	endpoint := c.baseURL + "/?bbox=" + url.QueryEscape(bbox)

	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, eris.Wrap(err, "nuar: create request")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "nuar: request")
		}
		defer resp.Body.Close() //nolint:errcheck

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "nuar: read body")
		}
		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("nuar: status %d", resp.StatusCode)
			if resilience.RetryableStatus(resp.StatusCode) {
				return nil, resilience.Transient(err, resp.StatusCode)
			}
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}

	var result AssetCountResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "nuar: decode response")
	}
	result.BBox = bbox
	return &result, nil
}
