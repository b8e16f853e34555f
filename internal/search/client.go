// File path: internal/search/client.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/GH-TeamBID/gober-api/internal/common"
	"github.com/GH-TeamBID/gober-api/internal/common/telemetry"
)

// Index is the subset of search operations the API layer depends on.
type Index interface {
	Available() bool
	Search(ctx context.Context, query string, params SearchParams) (*SearchResult, error)
	AddDocuments(ctx context.Context, docs []map[string]interface{}) error
	UpdateDocuments(ctx context.Context, docs []map[string]interface{}) error
	DeleteDocuments(ctx context.Context, ids []string) error
}

// SearchParams carries paging and the structured filter map. Filters follow
/// the field-suffix convention: plain fields compare with equality, list
// values OR together, and _gte/_lte/_gt/_lt suffixes compare numerically
// against the base field.
type SearchParams struct {
	Page    int
	Size    int
	Filters map[string]interface{}
}

// SearchResult is the Meilisearch paged hit envelope.
type SearchResult struct {
	Hits             []map[string]interface{} `json:"hits"`
	Query            string                   `json:"query"`
	Page             int                      `json:"page"`
	HitsPerPage      int                      `json:"hitsPerPage"`
	TotalHits        int                      `json:"totalHits"`
	TotalPages       int                      `json:"totalPages"`
	ProcessingTimeMs int                      `json:"processingTimeMs"`
}

var errNotFound = errors.New("resource not found")

// Client talks to one Meilisearch index over its HTTP API.
type Client struct {
	httpClient *http.Client
	transport  *http.Transport

	baseURL string
	index   string
	apiKey  string

	mu        sync.RWMutex
	available bool
}

// NewFromEnv loads configuration and constructs a client. A nil client with
// nil error means search is not configured.
func NewFromEnv(ctx context.Context) (*Client, error) {
	cfg := LoadConfig()
	if !cfg.Enabled() {
		return nil, nil
	}
	return New(ctx, cfg)
}

// New constructs a client using the provided configuration. The index is
// created on first contact when it does not exist yet.
func New(ctx context.Context, cfg Config) (*Client, error) {
	logger := common.Logger()
	logger.Info("search: initializing meilisearch client",
		"host", cfg.Host, "index", cfg.Index, "timeout", cfg.Timeout)

	transport := &http.Transport{
		MaxIdleConns:        cfg.HTTPMaxIdleConns,
		MaxIdleConnsPerHost: cfg.HTTPMaxIdlePerHost,
		MaxConnsPerHost:     cfg.HTTPMaxConnsPerHost,
		IdleConnTimeout:     cfg.HTTPIdleConnTimeout,
	}
	client := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		transport:  transport,
		baseURL:    strings.TrimRight(cfg.Host, "/"),
		index:      cfg.Index,
		apiKey:     cfg.APIKey,
	}
	if err := client.ensureIndex(ctx); err != nil {
		logger.Warn("search: meilisearch initialization failed", "index", cfg.Index, "error", err)
		return client, nil
	}
	client.setAvailable(true)
	logger.Info("search: meilisearch connection established")
	return client, nil
}

// Available reports whether the index is reachable.
func (c *Client) Available() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

// Close releases pooled resources associated with the client.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	return nil
}

func (c *Client) setAvailable(ready bool) {
	c.mu.Lock()
	c.available = ready
	c.mu.Unlock()
}

func (c *Client) ensureIndex(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodGet, c.baseURL+"/health", nil, nil); err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/indexes/%s", c.baseURL, url.PathEscape(c.index))
	err := c.doRequest(ctx, http.MethodGet, endpoint, nil, nil)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errNotFound) {
		return err
	}
	payload := map[string]interface{}{"uid": c.index, "primaryKey": "id"}
	return c.doRequest(ctx, http.MethodPost, c.baseURL+"/indexes", payload, nil)
}

// SetFilterableAttributes declares which document fields the filter builder
// may reference.
func (c *Client) SetFilterableAttributes(ctx context.Context, fields []string) error {
	endpoint := fmt.Sprintf("%s/indexes/%s/settings/filterable-attributes", c.baseURL, url.PathEscape(c.index))
	return c.doRequest(ctx, http.MethodPut, endpoint, fields, nil)
}

// AddDocuments indexes new documents; existing ids are replaced.
func (c *Client) AddDocuments(ctx context.Context, docs []map[string]interface{}) error {
	if len(docs) == 0 {
		return nil
	}
	endpoint := fmt.Sprintf("%s/indexes/%s/documents", c.baseURL, url.PathEscape(c.index))
	return c.doRequest(ctx, http.MethodPost, endpoint, docs, nil)
}

// UpdateDocuments partially updates existing documents by id.
func (c *Client) UpdateDocuments(ctx context.Context, docs []map[string]interface{}) error {
	if len(docs) == 0 {
		return nil
	}
	endpoint := fmt.Sprintf("%s/indexes/%s/documents", c.baseURL, url.PathEscape(c.index))
	return c.doRequest(ctx, http.MethodPut, endpoint, docs, nil)
}

// DeleteDocuments removes documents by id.
func (c *Client) DeleteDocuments(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	endpoint := fmt.Sprintf("%s/indexes/%s/documents/delete-batch", c.baseURL, url.PathEscape(c.index))
	return c.doRequest(ctx, http.MethodPost, endpoint, ids, nil)
}

// Search runs a paged full-text query with the structured filters rendered
// into a Meilisearch filter expression.
func (c *Client) Search(ctx context.Context, query string, params SearchParams) (*SearchResult, error) {
	if c == nil {
		return nil, errors.New("meilisearch client not configured")
	}
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	body := map[string]interface{}{
		"q":           query,
		"page":        params.Page,
		"hitsPerPage": params.Size,
	}
	if expr := BuildFilter(params.Filters); expr != "" {
		body["filter"] = expr
	}
	endpoint := fmt.Sprintf("%s/indexes/%s/search", c.baseURL, url.PathEscape(c.index))
	start := time.Now()
	var result SearchResult
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &result); err != nil {
		c.setAvailable(false)
		return nil, err
	}
	telemetry.RecordSearch(time.Since(start))
	c.setAvailable(true)
	return &result, nil
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	if c == nil {
		return errors.New("meilisearch client not configured")
	}
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("meilisearch %s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ Index = (*Client)(nil)
