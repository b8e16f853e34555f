// File path: internal/summary/workflow.go
package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/GH-TeamBID/gober-api/internal/chunk"
	"github.com/GH-TeamBID/gober-api/internal/common"
	"github.com/GH-TeamBID/gober-api/internal/common/telemetry"
	"github.com/GH-TeamBID/gober-api/internal/store"
	"github.com/GH-TeamBID/gober-api/internal/tender"
)

// Downloader fetches tender PDFs keyed by document id.
type Downloader interface {
	RetrieveAll(ctx context.Context, urls map[string]string) map[string]*PDFDocument
}

// DocumentConverter turns downloaded PDFs into Markdown keyed by document id.
type DocumentConverter interface {
	ConvertAll(ctx context.Context, docs map[string]*PDFDocument) map[string]string
}

// Uploader persists pipeline artifacts to object storage.
type Uploader interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
}

// SummaryStore is the relational persistence the workflow needs.
type SummaryStore interface {
	Summary(ctx context.Context, tenderURI string) (*store.SummaryRecord, error)
	UpsertSummary(ctx context.Context, tenderURI, summary, urlDocument string) error
	RecordDocuments(ctx context.Context, tenderURI string, docs []store.DocumentRecord) error
}

// Result reports what one workflow run produced.
type Result struct {
	TenderURI    string `json:"tender_uri"`
	Summary      string `json:"summary"`
	DocumentKey  string `json:"document_key"`
	ChunksKey    string `json:"chunks_key"`
	Documents    int    `json:"documents"`
	Chunks       int    `json:"chunks"`
	Regenerated  bool   `json:"regenerated"`
	AlreadyFresh bool   `json:"already_fresh"`
}

// Workflow runs the full summary pipeline for one tender: download the
// procurement documents, convert them to Markdown, chunk them, generate the
// cited report and the conversational summary, and persist everything.
type Workflow struct {
	downloader Downloader
	converter  DocumentConverter
	generator  *Generator
	uploader   Uploader
	store      SummaryStore
	sections   []Section
}

func NewWorkflow(downloader Downloader, converter DocumentConverter, generator *Generator, uploader Uploader, st SummaryStore) *Workflow {
	return &Workflow{
		downloader: downloader,
		converter:  converter,
		generator:  generator,
		uploader:   uploader,
		store:      st,
		sections:   DefaultSections(),
	}
}

// Run executes the pipeline. When regenerate is false and a summary already
// exists for the tender, the stored one is returned untouched.
func (w *Workflow) Run(ctx context.Context, detail *tender.Detail, regenerate bool) (*Result, error) {
	if detail == nil || detail.URI == "" {
		return nil, errors.New("tender detail required")
	}
	logger := common.Logger()

	if !regenerate && w.store != nil {
		existing, err := w.store.Summary(ctx, detail.URI)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.Summary != "" {
			logger.Info("summary: reusing stored summary", "tender", detail.URI)
			return &Result{
				TenderURI:    detail.URI,
				Summary:      existing.Summary,
				DocumentKey:  existing.URLDocument,
				AlreadyFresh: true,
			}, nil
		}
	}

	urls, refs := documentPlan(detail)
	if len(urls) == 0 {
		return nil, fmt.Errorf("tender %s has no procurement documents", detail.URI)
	}

	downloaded := w.downloader.RetrieveAll(ctx, urls)
	if len(downloaded) == 0 {
		return nil, fmt.Errorf("no documents could be downloaded for %s", detail.URI)
	}
	logger.Info("summary: documents downloaded", "tender", detail.URI, "count", len(downloaded))

	markdown := w.converter.ConvertAll(ctx, downloaded)
	if len(markdown) == 0 {
		return nil, fmt.Errorf("no documents could be converted for %s", detail.URI)
	}

	pdfPaths := make(map[string]string, len(downloaded))
	for docID, doc := range downloaded {
		pdfPaths[docID] = doc.Filename
	}
	trees := chunk.Documents(markdown, pdfPaths)

	var flat []chunk.FlatChunk
	for _, docID := range sortedKeys(trees) {
		flat = append(flat, chunk.Flatten(trees[docID])...)
	}
	if len(flat) == 0 {
		return nil, fmt.Errorf("chunking produced no content for %s", detail.URI)
	}

	result := &Result{
		TenderURI:   detail.URI,
		Documents:   len(markdown),
		Chunks:      len(flat),
		Regenerated: true,
	}

	if w.uploader != nil {
		key := fmt.Sprintf("tenders/%s/combined_chunks.json", blobSlug(detail.URI))
		if err := w.uploadJSON(ctx, key, flat); err != nil {
			logger.Error("summary: chunk upload failed", "tender", detail.URI, "error", err)
		} else {
			result.ChunksKey = key
		}
	}

	document, err := w.generator.GenerateDocument(ctx, flat, w.sections)
	if err != nil {
		return nil, err
	}
	if w.uploader != nil {
		key := fmt.Sprintf("tenders/%s/ai_document.md", blobSlug(detail.URI))
		reader := strings.NewReader(document)
		if err := w.uploader.Upload(ctx, key, reader, int64(reader.Len()), "text/markdown"); err != nil {
			logger.Error("summary: document upload failed", "tender", detail.URI, "error", err)
		} else {
			result.DocumentKey = key
		}
	}

	summaryText, err := w.generator.GenerateConversationalSummary(ctx, document)
	if err != nil {
		return nil, err
	}
	result.Summary = strings.TrimSpace(summaryText)

	if w.store != nil {
		if err := w.store.UpsertSummary(ctx, detail.URI, result.Summary, result.DocumentKey); err != nil {
			return nil, err
		}
		records := make([]store.DocumentRecord, 0, len(refs))
		for docID, ref := range refs {
			if _, ok := markdown[docID]; !ok {
				continue
			}
			records = append(records, store.DocumentRecord{
				TenderURI:    detail.URI,
				Title:        ref.Title,
				DocumentType: ref.DocumentType,
				AccessURL:    ref.AccessURL,
				BlobKey:      result.ChunksKey,
			})
		}
		if err := w.store.RecordDocuments(ctx, detail.URI, records); err != nil {
			logger.Warn("summary: document bookkeeping failed", "tender", detail.URI, "error", err)
		}
	}

	telemetry.RecordSummaryRun(result.Documents, result.Chunks)
	logger.Info("summary: pipeline complete",
		"tender", detail.URI, "documents", result.Documents, "chunks", result.Chunks)
	return result, nil
}

// documentPlan assigns stable ids (doc1, doc2, ...) to the tender's
// procurement documents in their reconciled order. The ids end up embedded
// in every chunk id, so they must not depend on map iteration.
func documentPlan(detail *tender.Detail) (map[string]string, map[string]tender.ProcurementDocument) {
	urls := make(map[string]string, len(detail.ProcurementDocuments))
	refs := make(map[string]tender.ProcurementDocument, len(detail.ProcurementDocuments))
	for i, doc := range detail.ProcurementDocuments {
		if strings.TrimSpace(doc.AccessURL) == "" {
			continue
		}
		docID := fmt.Sprintf("doc%d", i+1)
		urls[docID] = doc.AccessURL
		refs[docID] = doc
	}
	return urls, refs
}

func (w *Workflow) uploadJSON(ctx context.Context, key string, payload interface{}) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return w.uploader.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json")
}

// blobSlug turns a tender URI into a key-safe path segment.
func blobSlug(uri string) string {
	slug := strings.TrimPrefix(strings.TrimPrefix(uri, "https://"), "http://")
	replacer := strings.NewReplacer("/", "_", ":", "_", "?", "_", "&", "_", "#", "_")
	return replacer.Replace(slug)
}

func sortedKeys(trees map[string]*chunk.Chunk) []string {
	keys := make([]string, 0, len(trees))
	for key := range trees {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
