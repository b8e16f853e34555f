// File path: internal/summary/retrieval.go
package summary

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GH-TeamBID/gober-api/internal/common"
)

// PDFDocument is one downloaded procurement document held in memory for the
// rest of the pipeline.
type PDFDocument struct {
	Filename string
	Content  []byte
}

// docPrefixPattern matches the DOC{timestamp} prefix some procurement
// portals prepend to attachment filenames.
var docPrefixPattern = regexp.MustCompile(`^DOC\d{14}(.*)$`)

// Retriever downloads tender PDFs. Certificate verification is relaxed
// because several government portals serve misconfigured chains; the
// documents are public.
type Retriever struct {
	httpClient *http.Client
}

func NewRetriever(timeout time.Duration) *Retriever {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Retriever{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

// Retrieve downloads a single document and resolves its filename from the
// Content-Disposition header, the URL path, or a generated fallback.
func (r *Retriever) Retrieve(ctx context.Context, url string) (*PDFDocument, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("empty document url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return &PDFDocument{Filename: resolveFilename(resp.Header.Get("Content-Disposition"), url), Content: content}, nil
}

// RetrieveAll downloads documents concurrently, keyed by document id.
// Individual failures are logged and omitted, not fatal to the batch.
func (r *Retriever) RetrieveAll(ctx context.Context, urls map[string]string) map[string]*PDFDocument {
	logger := common.Logger()
	out := make(map[string]*PDFDocument, len(urls))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for docID, url := range urls {
		if strings.TrimSpace(url) == "" {
			continue
		}
		wg.Add(1)
		go func(docID, url string) {
			defer wg.Done()
			doc, err := r.Retrieve(ctx, url)
			if err != nil {
				logger.Error("summary: document download failed", "doc", docID, "error", err)
				return
			}
			mu.Lock()
			out[docID] = doc
			mu.Unlock()
		}(docID, url)
	}
	wg.Wait()
	return out
}

func resolveFilename(contentDisposition, url string) string {
	var filename string
	if idx := strings.Index(contentDisposition, "filename="); idx >= 0 {
		filename = strings.Trim(contentDisposition[idx+len("filename="):], `"' `)
	}
	if filename == "" {
		path := url
		if q := strings.Index(path, "?"); q >= 0 {
			path = path[:q]
		}
		if slash := strings.LastIndex(path, "/"); slash >= 0 {
			candidate := path[slash+1:]
			if strings.Contains(candidate, ".") {
				filename = candidate
			}
		}
	}
	if filename == "" {
		filename = fmt.Sprintf("document_%s.pdf", uuid.NewString())
	}
	if m := docPrefixPattern.FindStringSubmatch(filename); m != nil && m[1] != "" {
		filename = m[1]
	}
	return filename
}
