// File path: internal/store/store_test.go
package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/GH-TeamBID/gober-api/internal/tender"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSummaryRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	record, err := s.Summary(ctx, "tender-1")
	if err != nil {
		t.Fatalf("summary lookup failed: %v", err)
	}
	if record != nil {
		t.Fatalf("expected no summary yet, got %+v", record)
	}

	if err := s.UpsertSummary(ctx, "tender-1", "first summary", "s3://bucket/doc.md"); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	record, err = s.Summary(ctx, "tender-1")
	if err != nil || record == nil {
		t.Fatalf("expected stored summary, got %+v, %v", record, err)
	}
	if record.Summary != "first summary" || record.URLDocument != "s3://bucket/doc.md" {
		t.Fatalf("unexpected record %+v", record)
	}

	if err := s.UpsertSummary(ctx, "tender-1", "revised summary", ""); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	record, err = s.Summary(ctx, "tender-1")
	if err != nil || record == nil {
		t.Fatalf("expected revised summary, got %v", err)
	}
	if record.Summary != "revised summary" {
		t.Fatalf("upsert did not replace summary: %+v", record)
	}
}

func TestMergeDetailOverlaysStoredFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.UpsertSummary(ctx, "tender-9", "stored", "https://blob/doc"); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	detail := &tender.Detail{URI: "tender-9", Title: "Obras"}
	if err := s.MergeDetail(ctx, detail); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if detail.Summary == nil || *detail.Summary != "stored" {
		t.Fatalf("summary not merged: %v", detail.Summary)
	}
	if detail.URLDocument == nil || *detail.URLDocument != "https://blob/doc" {
		t.Fatalf("url not merged: %v", detail.URLDocument)
	}

	// Unknown tender: no overlay, no error.
	other := &tender.Detail{URI: "tender-10"}
	if err := s.MergeDetail(ctx, other); err != nil {
		t.Fatalf("merge of unknown tender failed: %v", err)
	}
	if other.Summary != nil {
		t.Fatalf("expected no summary for unknown tender")
	}
}

func TestDocumentRecords(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	docs := []DocumentRecord{
		{Title: "Pliego", DocumentType: "legal", AccessURL: "https://a/1", BlobKey: "tender-1/doc1.md"},
		{Title: "Anexo", DocumentType: "adds", AccessURL: "https://a/2"},
	}
	if err := s.RecordDocuments(ctx, "tender-1", docs); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	// Re-recording the same URL updates instead of duplicating.
	docs[0].BlobKey = "tender-1/doc1-v2.md"
	if err := s.RecordDocuments(ctx, "tender-1", docs[:1]); err != nil {
		t.Fatalf("re-record failed: %v", err)
	}
	stored, err := s.Documents(ctx, "tender-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(stored))
	}
	if stored[0].BlobKey != "tender-1/doc1-v2.md" {
		t.Fatalf("blob key not updated: %+v", stored[0])
	}
}

func TestUserTenderTracking(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.TrackTender(ctx, "user-1", "tender-1", ""); err != nil {
		t.Fatalf("track failed: %v", err)
	}
	if err := s.TrackTender(ctx, "user-1", "tender-2", "submitted"); err != nil {
		t.Fatalf("track failed: %v", err)
	}
	rows, err := s.UserTenders(ctx, "user-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 tracked tenders, got %d", len(rows))
	}
	if err := s.UntrackTender(ctx, "user-1", "tender-1"); err != nil {
		t.Fatalf("untrack failed: %v", err)
	}
	rows, err = s.UserTenders(ctx, "user-1")
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected 1 tracked tender after untrack, got %d (%v)", len(rows), err)
	}
	if rows[0].TenderURI != "tender-2" || rows[0].Status != "submitted" {
		t.Fatalf("unexpected row %+v", rows[0])
	}
}
