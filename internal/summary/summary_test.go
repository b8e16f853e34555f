// File path: internal/summary/summary_test.go
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GH-TeamBID/gober-api/internal/chunk"
	"github.com/GH-TeamBID/gober-api/internal/llm"
	"github.com/GH-TeamBID/gober-api/internal/store"
	"github.com/GH-TeamBID/gober-api/internal/tender"
)

func TestResolveFilename(t *testing.T) {
	cases := []struct {
		name        string
		disposition string
		url         string
		want        string
	}{
		{"content disposition", `attachment; filename="pliego.pdf"`, "https://example.com/get?id=7", "pliego.pdf"},
		{"url tail", "", "https://example.com/docs/anexo_1.pdf?x=1", "anexo_1.pdf"},
		{"portal prefix stripped", `attachment; filename="DOC20240101120000pliego_tecnico.pdf"`, "https://example.com/d", "pliego_tecnico.pdf"},
	}
	for _, tc := range cases {
		if got := resolveFilename(tc.disposition, tc.url); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
	generated := resolveFilename("", "https://example.com/download")
	if !strings.HasPrefix(generated, "document_") || !strings.HasSuffix(generated, ".pdf") {
		t.Fatalf("fallback filename %q not generated as expected", generated)
	}
}

func TestRetrieveAllIsolatesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "broken") {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="ok.pdf"`)
		fmt.Fprint(w, "%PDF-1.4 fake")
	}))
	defer server.Close()

	r := NewRetriever(0)
	docs := r.RetrieveAll(context.Background(), map[string]string{
		"doc1": server.URL + "/fine.pdf",
		"doc2": server.URL + "/broken.pdf",
		"doc3": "",
	})
	if len(docs) != 1 {
		t.Fatalf("expected 1 successful download, got %d", len(docs))
	}
	doc, ok := docs["doc1"]
	if !ok {
		t.Fatalf("doc1 missing from results")
	}
	if doc.Filename != "ok.pdf" {
		t.Fatalf("unexpected filename %q", doc.Filename)
	}
	if !strings.Contains(string(doc.Content), "%PDF") {
		t.Fatalf("unexpected content %q", doc.Content)
	}
}

func TestConverterSubmitAndPoll(t *testing.T) {
	polls := 0
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-API-Key") != "secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("output_format"); got != "markdown" {
			t.Fatalf("unexpected output_format %q", got)
		}
		if got := r.FormValue("paginate"); got != "true" {
			t.Fatalf("unexpected paginate %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":           true,
			"request_id":        "req-1",
			"request_check_url": server.URL + "/req-1",
		})
	})
	mux.HandleFunc("/req-1", func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls < 3 {
			json.NewEncoder(w).Encode(map[string]any{"status": "processing"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status":   "complete",
			"success":  true,
			"markdown": "# Pliego\nContenido",
		})
	})

	converter, err := NewConverter(ConverterConfig{URL: server.URL, APIKey: "secret"})
	if err != nil {
		t.Fatalf("new converter: %v", err)
	}
	markdown, err := converter.Convert(context.Background(), "pliego.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if markdown != "# Pliego\nContenido" {
		t.Fatalf("unexpected markdown %q", markdown)
	}
	if polls != 3 {
		t.Fatalf("expected 3 polls, got %d", polls)
	}
}

func TestConverterReportsFailure(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success":           true,
			"request_id":        "req-2",
			"request_check_url": server.URL + "/req-2",
		})
	})
	mux.HandleFunc("/req-2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "error", "error": "corrupt pdf"})
	})

	converter, err := NewConverter(ConverterConfig{URL: server.URL, APIKey: "secret"})
	if err != nil {
		t.Fatalf("new converter: %v", err)
	}
	if _, err := converter.Convert(context.Background(), "bad.pdf", []byte("junk")); err == nil {
		t.Fatalf("expected conversion error")
	} else if !strings.Contains(err.Error(), "corrupt pdf") {
		t.Fatalf("error should carry the upstream reason, got %v", err)
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	parent := "doc_doc1"
	chunks := []chunk.FlatChunk{
		{
			Text: "Presupuesto base: 100.000 EUR",
			Metadata: chunk.Metadata{
				ChunkID:    "chunk_doc1,1,s1_1",
				Title:      "Presupuesto",
				ParentID:   &parent,
				PDFPath:    "pliego.pdf",
				PageNumber: 1,
			},
		},
	}
	prompt, err := buildSystemPrompt(chunks)
	if err != nil {
		t.Fatalf("build prompt: %v", err)
	}
	for _, want := range []string{
		"--- FRAGMENTO 1 ---",
		"ID: chunk_doc1,1,s1_1",
		"Título: Presupuesto",
		"Documento: pliego.pdf",
		"Página: 1",
		"Presupuesto base: 100.000 EUR",
		"[chunk_id: XXX]",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestGenerateDocumentJoinsSections(t *testing.T) {
	g := NewGenerator(llm.NewLocalProvider())
	chunks := []chunk.FlatChunk{{Text: "contenido", Metadata: chunk.Metadata{ChunkID: "chunk_doc1,1,s1_1", Title: "T"}}}
	sections := []Section{
		{Title: "Primera", Question: "¿Qué?"},
		{Title: "Segunda", Question: "¿Cuándo?"},
	}
	doc, err := g.GenerateDocument(context.Background(), chunks, sections)
	if err != nil {
		t.Fatalf("generate document: %v", err)
	}
	parts := strings.Split(doc, "\n\n")
	if len(parts) < 2 {
		t.Fatalf("expected two sections separated by a blank line, got %q", doc)
	}
	if !strings.Contains(doc, "Primera") || !strings.Contains(doc, "Segunda") {
		t.Fatalf("section titles missing from document %q", doc)
	}
	if _, err := g.GenerateDocument(context.Background(), nil, sections); err == nil {
		t.Fatalf("expected error with no chunks")
	}
}

type fakeDownloader struct {
	docs map[string]*PDFDocument
}

func (f *fakeDownloader) RetrieveAll(ctx context.Context, urls map[string]string) map[string]*PDFDocument {
	out := make(map[string]*PDFDocument)
	for docID := range urls {
		if doc, ok := f.docs[docID]; ok {
			out[docID] = doc
		}
	}
	return out
}

type fakeConverter struct {
	markdown map[string]string
}

func (f *fakeConverter) ConvertAll(ctx context.Context, docs map[string]*PDFDocument) map[string]string {
	out := make(map[string]string)
	for docID := range docs {
		if md, ok := f.markdown[docID]; ok {
			out[docID] = md
		}
	}
	return out
}

type fakeUploader struct {
	keys []string
}

func (f *fakeUploader) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if _, err := io.ReadAll(reader); err != nil {
		return err
	}
	f.keys = append(f.keys, key)
	return nil
}

type fakeSummaryStore struct {
	existing *store.SummaryRecord
	saved    *store.SummaryRecord
	recorded []store.DocumentRecord
}

func (f *fakeSummaryStore) Summary(ctx context.Context, tenderURI string) (*store.SummaryRecord, error) {
	return f.existing, nil
}

func (f *fakeSummaryStore) UpsertSummary(ctx context.Context, tenderURI, summary, urlDocument string) error {
	f.saved = &store.SummaryRecord{TenderURI: tenderURI, Summary: summary, URLDocument: urlDocument}
	return nil
}

func (f *fakeSummaryStore) RecordDocuments(ctx context.Context, tenderURI string, docs []store.DocumentRecord) error {
	f.recorded = append(f.recorded, docs...)
	return nil
}

func workflowDetail() *tender.Detail {
	return &tender.Detail{
		URI:   "http://gober.ai/spain/procedure/tender-1",
		Title: "Suministro de luminarias",
		ProcurementDocuments: []tender.ProcurementDocument{
			{Title: "Pliego técnico", DocumentType: "technical", AccessURL: "https://portal.example/doc1"},
			{Title: "Pliego legal", DocumentType: "legal", AccessURL: "https://portal.example/doc2"},
		},
	}
}

func TestWorkflowReusesStoredSummary(t *testing.T) {
	st := &fakeSummaryStore{existing: &store.SummaryRecord{
		TenderURI:   "http://gober.ai/spain/procedure/tender-1",
		Summary:     "resumen previo",
		URLDocument: "tenders/x/ai_document.md",
	}}
	w := NewWorkflow(&fakeDownloader{}, &fakeConverter{}, NewGenerator(llm.NewLocalProvider()), &fakeUploader{}, st)

	result, err := w.Run(context.Background(), workflowDetail(), false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.AlreadyFresh || result.Summary != "resumen previo" {
		t.Fatalf("expected stored summary to be reused, got %+v", result)
	}
	if st.saved != nil {
		t.Fatalf("store should not be written when reusing")
	}
}

func TestWorkflowFullRun(t *testing.T) {
	downloader := &fakeDownloader{docs: map[string]*PDFDocument{
		"doc1": {Filename: "pliego_tecnico.pdf", Content: []byte("%PDF")},
		"doc2": {Filename: "pliego_legal.pdf", Content: []byte("%PDF")},
	}}
	converter := &fakeConverter{markdown: map[string]string{
		"doc1": "# Objeto\nSuministro de luminarias LED.",
		"doc2": "# Condiciones\nPlazo de ejecución: 6 meses.",
	}}
	uploader := &fakeUploader{}
	st := &fakeSummaryStore{}
	w := NewWorkflow(downloader, converter, NewGenerator(llm.NewLocalProvider()), uploader, st)

	result, err := w.Run(context.Background(), workflowDetail(), true)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Regenerated || result.AlreadyFresh {
		t.Fatalf("expected a regenerated result, got %+v", result)
	}
	if result.Documents != 2 || result.Chunks != 2 {
		t.Fatalf("expected 2 documents and 2 chunks, got %+v", result)
	}
	if result.Summary == "" {
		t.Fatalf("summary should not be empty")
	}
	if len(uploader.keys) != 2 {
		t.Fatalf("expected chunk and document uploads, got %v", uploader.keys)
	}
	if !strings.HasSuffix(uploader.keys[0], "combined_chunks.json") || !strings.HasSuffix(uploader.keys[1], "ai_document.md") {
		t.Fatalf("unexpected upload keys %v", uploader.keys)
	}
	if st.saved == nil || st.saved.Summary != result.Summary {
		t.Fatalf("summary not persisted: %+v", st.saved)
	}
	if len(st.recorded) != 2 {
		t.Fatalf("expected 2 document records, got %d", len(st.recorded))
	}
}

func TestWorkflowFailsWithoutDocuments(t *testing.T) {
	w := NewWorkflow(&fakeDownloader{}, &fakeConverter{}, NewGenerator(llm.NewLocalProvider()), nil, nil)
	detail := workflowDetail()
	detail.ProcurementDocuments = nil
	if _, err := w.Run(context.Background(), detail, true); err == nil {
		t.Fatalf("expected error when the tender has no documents")
	}
}
