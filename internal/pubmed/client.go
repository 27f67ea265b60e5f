// Package pubmed is a rate-limited client for external bibliographic
// lookups: NCBI E-utilities for PMIDs and the Crossref REST API for DOIs.
// Lookups are best-effort; unresolvable identifiers are omitted from
// results rather than reported as errors.
package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// EutilsBaseURL is the NCBI E-utilities base URL.
	EutilsBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	// CrossrefBaseURL is the Crossref REST API base URL.
	CrossrefBaseURL = "https://api.crossref.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit is 3 requests per second, the NCBI limit without an API
	// key. WithAPIKey raises it to 10.
	RateLimit        = 3.0
	RateLimitWithKey = 10.0

	// MaxBatchSize caps identifiers per esummary request.
	MaxBatchSize = 200
)

// PartialArticle is the metadata an external lookup can return. Fields may
// be empty when the upstream record lacks them.
type PartialArticle struct {
	PMID         string
	DOI          string
	Title        string
	Authors      []string
	Year         int
	Journal      string
	Abstract     string
	CitedByCount int
}

// Client is a throttled HTTP client for external bibliographic sources.
// One limiter covers every request the client issues; it is the single
// shared throttle for all enrichment traffic.
type Client struct {
	httpClient   *http.Client
	limiter      *rate.Limiter
	apiKey       string
	eutilsBase   string
	crossrefBase string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the NCBI API key and raises the rate limit accordingly.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
		if key != "" {
			c.limiter = rate.NewLimiter(rate.Limit(RateLimitWithKey), 1)
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURLs overrides both upstream base URLs (for testing).
func WithBaseURLs(eutils, crossref string) ClientOption {
	return func(c *Client) {
		c.eutilsBase = eutils
		c.crossrefBase = crossref
	}
}

// NewClient creates a lookup client. The NCBI_API_KEY environment variable
// is honored unless WithAPIKey overrides it.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		limiter:      rate.NewLimiter(rate.Limit(RateLimit), 1),
		eutilsBase:   EutilsBaseURL,
		crossrefBase: CrossrefBaseURL,
	}

	if key := os.Getenv("NCBI_API_KEY"); key != "" {
		WithAPIKey(key)(c)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchByPmids looks up PMIDs in batches. Unresolvable ids are omitted.
// Batches wait on the shared limiter, which bounds worst-case latency
// linearly in the number of batches.
func (c *Client) FetchByPmids(ctx context.Context, pmids []string) ([]PartialArticle, error) {
	var out []PartialArticle
	for start := 0; start < len(pmids); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(pmids) {
			end = len(pmids)
		}
		batch, err := c.fetchSummaryBatch(ctx, pmids[start:end])
		if err != nil {
			return out, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (c *Client) fetchSummaryBatch(ctx context.Context, pmids []string) ([]PartialArticle, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("retmode", "json")
	q.Set("id", strings.Join(pmids, ","))
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}

	body, err := c.get(ctx, c.eutilsBase+"/esummary.fcgi?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp esummaryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing esummary response: %w", err)
	}
	return resp.articles(), nil
}

// FetchByDoi looks up a single DOI via Crossref. Returns nil, nil when the
// DOI is unknown upstream.
func (c *Client) FetchByDoi(ctx context.Context, doi string) (*PartialArticle, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := c.get(ctx, c.crossrefBase+"/works/"+url.PathEscape(doi))
	if err != nil {
		if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	var resp crossrefResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing crossref response: %w", err)
	}
	a := resp.Message.article()
	a.DOI = doi
	return &a, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// APIError reports a non-200 upstream response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
}
