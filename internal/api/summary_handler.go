// File path: internal/api/summary_handler.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/GH-TeamBID/gober-api/internal/chunk"
	"github.com/GH-TeamBID/gober-api/internal/common"
	"github.com/GH-TeamBID/gober-api/internal/tender"
)

// handleTenderSummary runs (or replays) the AI summary pipeline for one
// tender. The regenerate query parameter forces a fresh run even when a
// stored summary exists.
func (s *Server) handleTenderSummary(w http.ResponseWriter, r *http.Request) {
	if s.summary == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("summary pipeline not configured"))
		return
	}
	id := chi.URLParam(r, "id")
	detail, err := s.tenders.GetDetail(r.Context(), id)
	if err != nil {
		if errors.Is(err, tender.ErrTenderNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	regenerate := strings.EqualFold(r.URL.Query().Get("regenerate"), "true")
	common.Logger().Info("api: summary requested", "tender", detail.URI, "regenerate", regenerate)
	result, err := s.summary.Run(r.Context(), detail, regenerate)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Errorf("summary pipeline: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleTenderChunk serves one chunk of a tender's combined chunk set so a
// client can resolve the [chunk_id: ...] citations embedded in summaries.
func (s *Server) handleTenderChunk(w http.ResponseWriter, r *http.Request) {
	if s.store == nil || s.blobs == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("chunk storage not configured"))
		return
	}
	uri := tender.ProcedureURI(chi.URLParam(r, "id"))
	chunkID := chi.URLParam(r, "chunkID")

	docs, err := s.store.Documents(r.Context(), uri)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	var blobKey string
	for _, doc := range docs {
		if doc.BlobKey != "" {
			blobKey = doc.BlobKey
			break
		}
	}
	if blobKey == "" {
		writeError(w, http.StatusNotFound, fmt.Errorf("no chunk artifacts recorded for %s", uri))
		return
	}
	reader, err := s.blobs.Download(r.Context(), blobKey)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Errorf("load chunk artifact: %w", err))
		return
	}
	defer reader.Close()
	var chunks []chunk.FlatChunk
	if err := json.NewDecoder(reader).Decode(&chunks); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("decode chunk artifact: %w", err))
		return
	}
	for _, c := range chunks {
		if c.Metadata.ChunkID == chunkID {
			writeJSON(w, http.StatusOK, c)
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Errorf("chunk %s not found", chunkID))
}
