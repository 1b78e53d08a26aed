// Package regulations implements the regulations.gov v4 API client and the
// credential rotation used to spread request load across API keys.
package regulations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/commonsdocs/reggov-scraper/internal/metrics"
)

// ListQuery holds the filter parameters for one listing-page request.
type ListQuery struct {
	PostedDate    string // YYYY-MM-DD
	ModifiedSince string // watermark, empty for the first sweep
	PageSize      int
	PageNumber    int
	APIKey        string
}

// Client talks to the regulations.gov v4 API. It performs no throttling
// itself; callers own the inter-request pacing.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient constructs a Client for the given API base URL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ListComments fetches one page of the comment listing, sorted by
// lastModifiedDate so the harvester can advance its watermark.
func (c *Client) ListComments(ctx context.Context, q ListQuery) (*ListPage, error) {
	params := url.Values{}
	params.Set("filter[postedDate]", q.PostedDate)
	if q.ModifiedSince != "" {
		params.Set("filter[lastModifiedDate][ge]", q.ModifiedSince)
	}
	params.Set("page[size]", strconv.Itoa(q.PageSize))
	params.Set("page[number]", strconv.Itoa(q.PageNumber))
	params.Set("sort", "lastModifiedDate")
	params.Set("api_key", q.APIKey)

	body, err := c.get(ctx, "/comments", params)
	if err != nil {
		return nil, fmt.Errorf("list comments page %d: %w", q.PageNumber, err)
	}

	var page ListPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("parse listing page %d: %w", q.PageNumber, err)
	}
	return &page, nil
}

// GetComment fetches one comment's full detail record with its attachment
// descriptors included. The verbatim body is retained for archival.
func (c *Client) GetComment(ctx context.Context, commentID, apiKey string) (*Detail, error) {
	params := url.Values{}
	params.Set("include", "attachments")
	params.Set("api_key", apiKey)

	body, err := c.get(ctx, "/comments/"+commentID, params)
	if err != nil {
		return nil, fmt.Errorf("get comment %s: %w", commentID, err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse comment %s: %w", commentID, err)
	}
	return &Detail{
		ID:       commentID,
		DocketID: ParentDocketID(commentID),
		Body:     parsed,
		Raw:      body,
	}, nil
}

// GetDocket fetches docket metadata by id.
func (c *Client) GetDocket(ctx context.Context, docketID, apiKey string) (*DocketDetail, error) {
	params := url.Values{}
	params.Set("api_key", apiKey)

	body, err := c.get(ctx, "/dockets/"+docketID, params)
	if err != nil {
		return nil, fmt.Errorf("get docket %s: %w", docketID, err)
	}

	var docket DocketDetail
	if err := json.Unmarshal(body, &docket); err != nil {
		return nil, fmt.Errorf("parse docket %s: %w", docketID, err)
	}
	return &docket, nil
}

// GetDocument fetches document metadata by id.
func (c *Client) GetDocument(ctx context.Context, documentID, apiKey string) (*DocumentDetail, error) {
	params := url.Values{}
	params.Set("include", "attachments")
	params.Set("api_key", apiKey)

	body, err := c.get(ctx, "/documents/"+documentID, params)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", documentID, err)
	}

	var document DocumentDetail
	if err := json.Unmarshal(body, &document); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", documentID, err)
	}
	return &document, nil
}

// get issues one GET and returns the response body. The api_key query
// parameter never appears in errors or logs.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	endpoint := endpointLabel(path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveAPIRequest(endpoint, "error")
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	metrics.ObserveAPIRequest(endpoint, strconv.Itoa(resp.StatusCode))
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("close response body", zap.String("path", path), zap.Error(cerr))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response for %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request %s: unexpected status %d", path, resp.StatusCode)
	}
	return body, nil
}

// endpointLabel reduces a request path to its first segment so metric
// cardinality stays bounded regardless of the ids requested.
func endpointLabel(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}
