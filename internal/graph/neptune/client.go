// File path: internal/graph/neptune/client.go
package neptune

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/GH-TeamBID/gober-api/internal/common"
	"github.com/GH-TeamBID/gober-api/internal/common/telemetry"
	"github.com/GH-TeamBID/gober-api/internal/graph"
)

// Client implements graph.Client against the Neptune SPARQL HTTP endpoint,
// signing requests with SigV4 and limiting concurrency through a lightweight
// connection pool.
type Client struct {
	cfg        Config
	httpClient *http.Client
	transport  *http.Transport
	baseURL    string

	pool      chan struct{}
	closing   chan struct{}
	closeOnce sync.Once

	mu        sync.RWMutex
	available bool
}

// NewClient constructs a client from the provided configuration.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("neptune endpoint not configured")
	}
	logger := common.Logger()
	logger.Info("graph: initializing neptune client",
		"endpoint", cfg.Endpoint, "port", cfg.Port, "region", cfg.Region,
		"pool", cfg.MaxConnections, "timeout", cfg.Timeout)

	transport := &http.Transport{
		MaxIdleConns:        cfg.HTTPMaxIdleConns,
		MaxIdleConnsPerHost: cfg.HTTPMaxIdlePerHost,
		MaxConnsPerHost:     cfg.HTTPMaxConnsPerHost,
		IdleConnTimeout:     cfg.HTTPIdleConnTimeout,
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		transport:  transport,
		baseURL:    fmt.Sprintf("https://%s:%d", strings.TrimSuffix(cfg.Endpoint, "/"), cfg.Port),
		pool:       make(chan struct{}, cfg.MaxConnections),
		closing:    make(chan struct{}),
	}
	for i := 0; i < cfg.MaxConnections; i++ {
		client.pool <- struct{}{}
	}
	client.setAvailable(true)
	if err := client.ping(ctx); err != nil {
		logger.Warn("graph: neptune ping failed", "error", err)
		client.setAvailable(false)
		return client, nil
	}
	logger.Info("graph: neptune client ready")
	return client, nil
}

// NewFromEnv loads configuration and constructs a client instance. A nil
// client with nil error means the backend is not configured.
func NewFromEnv(ctx context.Context) (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		return nil, nil
	}
	return NewClient(ctx, cfg)
}

// Available reports whether the client is ready for use.
func (c *Client) Available() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

// Close releases the underlying HTTP client resources.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		close(c.closing)
		c.setAvailable(false)
		if c.transport != nil {
			c.transport.CloseIdleConnections()
		}
	})
	return nil
}

// Select executes a single SELECT/ASK query and decodes the SPARQL JSON
// result set.
func (c *Client) Select(ctx context.Context, query string) (*graph.Results, error) {
	body, err := c.execute(ctx, query)
	if err != nil {
		return nil, err
	}
	var results graph.Results
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode sparql results: %w", err)
	}
	return &results, nil
}

// RunNamed fans the batch out concurrently, one goroutine per query, and
// joins on a single barrier. A failed query is logged and omitted from the
// returned map; it never aborts the rest of the batch.
func (c *Client) RunNamed(ctx context.Context, queries []graph.NamedQuery) (graph.NamedResults, error) {
	if c == nil {
		return nil, errors.New("neptune client not configured")
	}
	logger := common.Logger()
	results := make(graph.NamedResults, len(queries))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, nq := range queries {
		wg.Add(1)
		go func(nq graph.NamedQuery) {
			defer wg.Done()
			start := time.Now()
			res, err := c.Select(ctx, nq.Query)
			telemetry.RecordGraphQuery(nq.Name, time.Since(start))
			if err != nil {
				logger.Warn("graph: named query failed", "query", nq.Name, "error", err)
				return
			}
			mu.Lock()
			results[nq.Name] = res
			mu.Unlock()
		}(nq)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) execute(ctx context.Context, query string) ([]byte, error) {
	if c == nil {
		return nil, errors.New("neptune client not configured")
	}
	release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	payload := []byte(query)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sparql", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/sparql-query")
	request.Header.Set("Accept", acceptHeader(query))
	if !c.cfg.DisableSigning {
		signRequest(request, payload, c.cfg, time.Now())
	}

	resp, err := c.httpClient.Do(request)
	if err != nil {
		c.setAvailable(false)
		return nil, fmt.Errorf("neptune request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read neptune response: %w", err)
	}
	if resp.StatusCode >= 400 {
		c.setAvailable(false)
		return nil, fmt.Errorf("neptune query failed: status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	c.setAvailable(true)
	return body, nil
}

// acceptHeader picks the response format by query form: CONSTRUCT and
// DESCRIBE return RDF documents, SELECT and ASK return result sets.
func acceptHeader(query string) string {
	upper := strings.ToUpper(query)
	if strings.Contains(upper, "CONSTRUCT") || strings.Contains(upper, "DESCRIBE") {
		return "application/ld+json"
	}
	return "application/sparql-results+json"
}

func (c *Client) ping(ctx context.Context) error {
	pingTimeout := c.cfg.Timeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	_, err := c.Select(ctx, "ASK { ?s ?p ?o }")
	return err
}

func (c *Client) setAvailable(ready bool) {
	c.mu.Lock()
	c.available = ready
	c.mu.Unlock()
}

func (c *Client) acquire(ctx context.Context) (func(), error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closing:
		return nil, errors.New("neptune client closed")
	case <-c.pool:
		var once sync.Once
		return func() {
			once.Do(func() {
				select {
				case c.pool <- struct{}{}:
				default:
				}
			})
		}, nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
