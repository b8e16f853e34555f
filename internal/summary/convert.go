// File path: internal/summary/convert.go
package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/GH-TeamBID/gober-api/internal/common"
)

const (
	defaultConverterURL = "https://www.datalab.to/api/v1/marker"
	maxPollAttempts     = 100
	pollInterval        = 200 * time.Millisecond
)

// ConverterConfig holds the Marker-compatible conversion API settings.
type ConverterConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// LoadConverterConfig reads the conversion settings from the environment.
func LoadConverterConfig() ConverterConfig {
	cfg := ConverterConfig{
		URL:     strings.TrimSpace(os.Getenv("MARKER_API_URL")),
		APIKey:  strings.TrimSpace(os.Getenv("MARKER_API_KEY")),
		Timeout: 120 * time.Second,
	}
	if cfg.URL == "" {
		cfg.URL = defaultConverterURL
	}
	if raw := strings.TrimSpace(os.Getenv("MARKER_TIMEOUT")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			cfg.Timeout = parsed
		}
	}
	return cfg
}

// Converter turns PDF bytes into paginated Markdown through a Marker-style
// HTTP API: a multipart submit followed by polling a per-request URL until
// the conversion completes.
type Converter struct {
	cfg        ConverterConfig
	httpClient *http.Client
}

func NewConverter(cfg ConverterConfig) (*Converter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("conversion API key not configured")
	}
	if cfg.URL == "" {
		cfg.URL = defaultConverterURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Converter{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}, nil
}

// NewConverterFromEnv returns (nil, nil) when no API key is configured so
// callers can treat conversion as an optional capability.
func NewConverterFromEnv() (*Converter, error) {
	cfg := LoadConverterConfig()
	if cfg.APIKey == "" {
		common.Logger().Warn("summary: conversion API key missing, converter disabled")
		return nil, nil
	}
	return NewConverter(cfg)
}

type submitResponse struct {
	Success       bool   `json:"success"`
	Error         string `json:"error"`
	RequestID     string `json:"request_id"`
	CheckStatusAt string `json:"request_check_url"`
}

type pollResponse struct {
	Status   string `json:"status"`
	Success  bool   `json:"success"`
	Error    string `json:"error"`
	Markdown string `json:"markdown"`
}

// Convert submits one PDF and polls until the Markdown result is ready.
func (c *Converter) Convert(ctx context.Context, filename string, content []byte) (string, error) {
	checkURL, err := c.submit(ctx, filename, content)
	if err != nil {
		return "", err
	}
	return c.poll(ctx, filename, checkURL)
}

func (c *Converter) submit(ctx context.Context, filename string, content []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("write pdf payload: %w", err)
	}
	fields := map[string]string{
		"output_format":            "markdown",
		"disable_image_extraction": "true",
		"paginate":                 "true",
		"skip_cache":               "false",
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return "", fmt.Errorf("write form field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, &body)
	if err != nil {
		return "", fmt.Errorf("build conversion request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-API-Key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit %s for conversion: %w", filename, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("conversion submit for %s: status %d", filename, resp.StatusCode)
	}
	var submitted submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		return "", fmt.Errorf("decode conversion response: %w", err)
	}
	if !submitted.Success {
		return "", fmt.Errorf("conversion rejected for %s: %s", filename, submitted.Error)
	}
	if submitted.CheckStatusAt != "" {
		return submitted.CheckStatusAt, nil
	}
	if submitted.RequestID == "" {
		return "", fmt.Errorf("conversion response for %s carries no request id", filename)
	}
	return strings.TrimRight(c.cfg.URL, "/") + "/" + submitted.RequestID, nil
}

func (c *Converter) poll(ctx context.Context, filename, checkURL string) (string, error) {
	logger := common.Logger()
	for attempt := 1; attempt <= maxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(pollInterval):
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, checkURL, nil)
		if err != nil {
			return "", fmt.Errorf("build poll request: %w", err)
		}
		req.Header.Set("X-API-Key", c.cfg.APIKey)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("poll conversion of %s: %w", filename, err)
		}
		var status pollResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()
		if decodeErr != nil {
			return "", fmt.Errorf("decode poll response: %w", decodeErr)
		}
		switch status.Status {
		case "complete":
			if !status.Success {
				return "", fmt.Errorf("conversion of %s failed: %s", filename, status.Error)
			}
			return status.Markdown, nil
		case "error", "failed":
			return "", fmt.Errorf("conversion of %s failed: %s", filename, status.Error)
		default:
			logger.Debug("summary: conversion pending", "file", filename, "attempt", attempt)
		}
	}
	return "", fmt.Errorf("conversion of %s timed out after %d polls", filename, maxPollAttempts)
}

// ConvertAll converts the downloaded documents concurrently. Failed
// conversions are logged and omitted so one broken PDF does not sink the
// whole tender.
func (c *Converter) ConvertAll(ctx context.Context, docs map[string]*PDFDocument) map[string]string {
	logger := common.Logger()
	out := make(map[string]string, len(docs))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for docID, doc := range docs {
		wg.Add(1)
		go func(docID string, doc *PDFDocument) {
			defer wg.Done()
			markdown, err := c.Convert(ctx, doc.Filename, doc.Content)
			if err != nil {
				logger.Error("summary: conversion failed", "doc", docID, "file", doc.Filename, "error", err)
				return
			}
			mu.Lock()
			out[docID] = markdown
			mu.Unlock()
		}(docID, doc)
	}
	wg.Wait()
	return out
}
