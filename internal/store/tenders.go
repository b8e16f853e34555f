// File path: internal/store/tenders.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/GH-TeamBID/gober-api/internal/tender"
)

// SummaryRecord is one stored AI summary row.
type SummaryRecord struct {
	TenderURI   string    `db:"tender_uri"`
	Summary     string    `db:"summary"`
	URLDocument string    `db:"url_document"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// DocumentRecord tracks one downloaded procurement document and its blob key.
type DocumentRecord struct {
	TenderURI    string `db:"tender_uri"`
	Title        string `db:"title"`
	DocumentType string `db:"document_type"`
	AccessURL    string `db:"access_url"`
	BlobKey      string `db:"blob_key"`
}

// UserTender is one user-tracked tender row.
type UserTender struct {
	UserID    string    `db:"user_id"`
	TenderURI string    `db:"tender_uri"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

// UpsertSummary stores (or refreshes) the AI summary for a tender.
func (s *Store) UpsertSummary(ctx context.Context, tenderURI, summary, urlDocument string) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialised")
	}
	query := `INSERT INTO ai_summaries(tender_uri, summary, url_document)
                VALUES(?, ?, ?)
                ON CONFLICT(tender_uri) DO UPDATE SET
                        summary = excluded.summary,
                        url_document = excluded.url_document,
                        updated_at = CURRENT_TIMESTAMP`
	_, err := s.db.ExecContext(ctx, query, tenderURI, summary, nullIfEmpty(urlDocument))
	if err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}
	return nil
}

// Summary fetches the stored AI summary for a tender; (nil, nil) when none
// exists yet.
func (s *Store) Summary(ctx context.Context, tenderURI string) (*SummaryRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not initialised")
	}
	var row struct {
		TenderURI   string         `db:"tender_uri"`
		Summary     sql.NullString `db:"summary"`
		URLDocument sql.NullString `db:"url_document"`
		UpdatedAt   time.Time      `db:"updated_at"`
	}
	query := `SELECT tender_uri, summary, url_document, updated_at FROM ai_summaries WHERE tender_uri = ?`
	if err := s.db.GetContext(ctx, &row, query, tenderURI); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load summary: %w", err)
	}
	return &SummaryRecord{
		TenderURI:   row.TenderURI,
		Summary:     row.Summary.String,
		URLDocument: row.URLDocument.String,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

// MergeDetail overlays the relational extras onto a reconciled aggregate.
// Implements tender.Merger.
func (s *Store) MergeDetail(ctx context.Context, detail *tender.Detail) error {
	if detail == nil || detail.URI == "" {
		return nil
	}
	record, err := s.Summary(ctx, detail.URI)
	if err != nil {
		return err
	}
	if record != nil {
		if record.Summary != "" {
			detail.Summary = &record.Summary
		}
		if record.URLDocument != "" {
			detail.URLDocument = &record.URLDocument
		}
	}
	return nil
}

// RecordDocuments remembers which procurement documents were downloaded for
// a tender and where their converted artifacts live.
func (s *Store) RecordDocuments(ctx context.Context, tenderURI string, docs []DocumentRecord) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialised")
	}
	if len(docs) == 0 {
		return nil
	}
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		query := `INSERT INTO tender_documents(tender_uri, title, document_type, access_url, blob_key)
                        VALUES(?, ?, ?, ?, ?)
                        ON CONFLICT(tender_uri, access_url) DO UPDATE SET
                                title = excluded.title,
                                document_type = excluded.document_type,
                                blob_key = excluded.blob_key`
		for _, doc := range docs {
			if _, err := tx.ExecContext(ctx, query,
				tenderURI, doc.Title, doc.DocumentType, doc.AccessURL, nullIfEmpty(doc.BlobKey)); err != nil {
				return fmt.Errorf("record document %s: %w", doc.AccessURL, err)
			}
		}
		return nil
	})
}

// Documents lists the recorded documents for a tender.
func (s *Store) Documents(ctx context.Context, tenderURI string) ([]DocumentRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not initialised")
	}
	var rows []struct {
		TenderURI    string         `db:"tender_uri"`
		Title        sql.NullString `db:"title"`
		DocumentType sql.NullString `db:"document_type"`
		AccessURL    string         `db:"access_url"`
		BlobKey      sql.NullString `db:"blob_key"`
	}
	query := `SELECT tender_uri, title, document_type, access_url, blob_key
                FROM tender_documents WHERE tender_uri = ? ORDER BY id`
	if err := s.db.SelectContext(ctx, &rows, query, tenderURI); err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	docs := make([]DocumentRecord, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, DocumentRecord{
			TenderURI:    row.TenderURI,
			Title:        row.Title.String,
			DocumentType: row.DocumentType.String,
			AccessURL:    row.AccessURL,
			BlobKey:      row.BlobKey.String,
		})
	}
	return docs, nil
}

// TrackTender marks a tender as tracked by a user, updating the status when
// the pair already exists.
func (s *Store) TrackTender(ctx context.Context, userID, tenderURI, status string) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialised")
	}
	if strings.TrimSpace(status) == "" {
		status = "tracked"
	}
	query := `INSERT INTO user_tenders(user_id, tender_uri, status)
                VALUES(?, ?, ?)
                ON CONFLICT(user_id, tender_uri) DO UPDATE SET status = excluded.status`
	if _, err := s.db.ExecContext(ctx, query, userID, tenderURI, status); err != nil {
		return fmt.Errorf("track tender: %w", err)
	}
	return nil
}

// UntrackTender removes a user/tender pair.
func (s *Store) UntrackTender(ctx context.Context, userID, tenderURI string) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialised")
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM user_tenders WHERE user_id = ? AND tender_uri = ?`, userID, tenderURI); err != nil {
		return fmt.Errorf("untrack tender: %w", err)
	}
	return nil
}

// UserTenders lists the tenders a user tracks, newest first.
func (s *Store) UserTenders(ctx context.Context, userID string) ([]UserTender, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not initialised")
	}
	var rows []UserTender
	query := `SELECT user_id, tender_uri, status, created_at
                FROM user_tenders WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	if err := s.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("load user tenders: %w", err)
	}
	return rows, nil
}

func nullIfEmpty(value string) interface{} {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

var _ tender.Merger = (*Store)(nil)
