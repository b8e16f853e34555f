// File path: internal/api/server_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GH-TeamBID/gober-api/internal/chunk"
	"github.com/GH-TeamBID/gober-api/internal/search"
	"github.com/GH-TeamBID/gober-api/internal/store"
	"github.com/GH-TeamBID/gober-api/internal/summary"
	"github.com/GH-TeamBID/gober-api/internal/tender"
)

type fakeTenderService struct {
	detail *tender.Detail
	err    error
	lastID string
}

func (f *fakeTenderService) GetDetail(ctx context.Context, id string) (*tender.Detail, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

type fakeIndex struct {
	available  bool
	lastQuery  string
	lastParams search.SearchParams
	result     *search.SearchResult
}

func (f *fakeIndex) Available() bool { return f.available }

func (f *fakeIndex) Search(ctx context.Context, query string, params search.SearchParams) (*search.SearchResult, error) {
	f.lastQuery = query
	f.lastParams = params
	if f.result != nil {
		return f.result, nil
	}
	return &search.SearchResult{Page: params.Page, HitsPerPage: params.Size}, nil
}

func (f *fakeIndex) AddDocuments(ctx context.Context, docs []map[string]interface{}) error {
	return nil
}

func (f *fakeIndex) UpdateDocuments(ctx context.Context, docs []map[string]interface{}) error {
	return nil
}

func (f *fakeIndex) DeleteDocuments(ctx context.Context, ids []string) error {
	return nil
}

type fakeTenderStore struct {
	documents []store.DocumentRecord
	tracked   map[string]string
	untracked []string
	userRows  []store.UserTender
}

func (f *fakeTenderStore) Summary(ctx context.Context, tenderURI string) (*store.SummaryRecord, error) {
	return nil, nil
}

func (f *fakeTenderStore) Documents(ctx context.Context, tenderURI string) ([]store.DocumentRecord, error) {
	return f.documents, nil
}

func (f *fakeTenderStore) TrackTender(ctx context.Context, userID, tenderURI, status string) error {
	if f.tracked == nil {
		f.tracked = make(map[string]string)
	}
	f.tracked[userID+"|"+tenderURI] = status
	return nil
}

func (f *fakeTenderStore) UntrackTender(ctx context.Context, userID, tenderURI string) error {
	f.untracked = append(f.untracked, userID+"|"+tenderURI)
	return nil
}

func (f *fakeTenderStore) UserTenders(ctx context.Context, userID string) ([]store.UserTender, error) {
	return f.userRows, nil
}

type fakeRunner struct {
	result         *summary.Result
	lastRegenerate bool
}

func (f *fakeRunner) Run(ctx context.Context, detail *tender.Detail, regenerate bool) (*summary.Result, error) {
	f.lastRegenerate = regenerate
	if f.result != nil {
		return f.result, nil
	}
	return &summary.Result{TenderURI: detail.URI, Summary: "resumen"}, nil
}

type fakeBlobReader struct {
	payload []byte
}

func (f *fakeBlobReader) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.payload)), nil
}

func testConfig() Config {
	return Config{JWTSecret: "test-secret", SharedSecret: "shared"}
}

func newTestServer(t *testing.T, tenders TenderService, index search.Index, st TenderStore, runner SummaryRunner, blobs BlobReader) *Server {
	t.Helper()
	srv, err := NewServer(tenders, index, st, runner, blobs, testConfig())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func TestTenderDetailRoute(t *testing.T) {
	svc := &fakeTenderService{detail: &tender.Detail{
		URI:                  "http://gober.ai/spain/procedure/tender-1",
		Title:                "Obra civil",
		ProcurementDocuments: []tender.ProcurementDocument{},
		Lots:                 []tender.Lot{},
	}}
	srv := newTestServer(t, svc, &fakeIndex{}, &fakeTenderStore{}, nil, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tenders/tender-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastID != "tender-1" {
		t.Fatalf("service received id %q", svc.lastID)
	}
	var got tender.Detail
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Title != "Obra civil" {
		t.Fatalf("unexpected title %q", got.Title)
	}
}

func TestTenderDetailNotFound(t *testing.T) {
	svc := &fakeTenderService{err: tender.ErrTenderNotFound}
	srv := newTestServer(t, svc, &fakeIndex{}, &fakeTenderStore{}, nil, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tenders/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTenderSearchBuildsFilters(t *testing.T) {
	index := &fakeIndex{available: true}
	srv := newTestServer(t, &fakeTenderService{}, index, &fakeTenderStore{}, nil, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/tenders?q=luminarias&page=2&size=10&province=Ja%C3%A9n,Granada&budget_gte=50000", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if index.lastQuery != "luminarias" {
		t.Fatalf("unexpected query %q", index.lastQuery)
	}
	if index.lastParams.Page != 2 || index.lastParams.Size != 10 {
		t.Fatalf("paging not forwarded: %+v", index.lastParams)
	}
	provinces, ok := index.lastParams.Filters["province"].([]interface{})
	if !ok || len(provinces) != 2 {
		t.Fatalf("province filter not split: %#v", index.lastParams.Filters["province"])
	}
	if budget, ok := index.lastParams.Filters["budget_gte"].(float64); !ok || budget != 50000 {
		t.Fatalf("budget filter not numeric: %#v", index.lastParams.Filters["budget_gte"])
	}
}

func TestTenderSearchUnavailable(t *testing.T) {
	srv := newTestServer(t, &fakeTenderService{}, &fakeIndex{available: false}, &fakeTenderStore{}, nil, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tenders?q=x", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestSummaryRoutePassesRegenerate(t *testing.T) {
	svc := &fakeTenderService{detail: &tender.Detail{URI: "http://gober.ai/spain/procedure/tender-1"}}
	runner := &fakeRunner{}
	srv := newTestServer(t, svc, &fakeIndex{}, &fakeTenderStore{}, runner, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tenders/tender-1/summary?regenerate=true", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !runner.lastRegenerate {
		t.Fatalf("regenerate flag not forwarded")
	}
	var result summary.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Summary != "resumen" {
		t.Fatalf("unexpected summary %q", result.Summary)
	}
}

func TestChunkLookupRoute(t *testing.T) {
	chunks := []chunk.FlatChunk{
		{Text: "Presupuesto: 100.000 EUR", Metadata: chunk.Metadata{ChunkID: "chunk_doc1,1,s1_1", Title: "Presupuesto"}},
	}
	payload, err := json.Marshal(chunks)
	if err != nil {
		t.Fatalf("marshal chunks: %v", err)
	}
	st := &fakeTenderStore{documents: []store.DocumentRecord{
		{AccessURL: "https://portal/doc1", BlobKey: "tenders/t1/combined_chunks.json"},
	}}
	srv := newTestServer(t, &fakeTenderService{}, &fakeIndex{}, st, nil, &fakeBlobReader{payload: payload})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/tenders/tender-1/chunks/chunk_doc1,1,s1_1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got chunk.FlatChunk
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode chunk: %v", err)
	}
	if got.Metadata.Title != "Presupuesto" {
		t.Fatalf("unexpected chunk %+v", got)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tenders/tender-1/chunks/chunk_nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown chunk, got %d", rec.Code)
	}
}

func TestUserRoutesRequireToken(t *testing.T) {
	st := &fakeTenderStore{}
	srv := newTestServer(t, &fakeTenderService{}, &fakeIndex{}, st, nil, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user/tenders", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	body := strings.NewReader(`{"user_id":"u1","secret":"shared"}`)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/token", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("token request failed: %d %s", rec.Code, rec.Body.String())
	}
	var token tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &token); err != nil {
		t.Fatalf("decode token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/user/tenders/tender-7?status=favorite", nil)
	req.Header.Set("Authorization", "Bearer "+token.Token)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("track failed: %d %s", rec.Code, rec.Body.String())
	}
	status, ok := st.tracked["u1|http://gober.ai/spain/procedure/tender-7"]
	if !ok || status != "favorite" {
		t.Fatalf("track not recorded: %#v", st.tracked)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/user/tenders/tender-7", nil)
	req.Header.Set("Authorization", "Bearer "+token.Token)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("untrack failed: %d %s", rec.Code, rec.Body.String())
	}
	if len(st.untracked) != 1 {
		t.Fatalf("untrack not recorded: %#v", st.untracked)
	}
}

func TestTokenRejectsBadSecret(t *testing.T) {
	srv := newTestServer(t, &fakeTenderService{}, &fakeIndex{}, &fakeTenderStore{}, nil, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/token",
		strings.NewReader(`{"user_id":"u1","secret":"wrong"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
