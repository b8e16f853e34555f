// File path: internal/api/tenders_handler.go
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/GH-TeamBID/gober-api/internal/common"
	"github.com/GH-TeamBID/gober-api/internal/search"
	"github.com/GH-TeamBID/gober-api/internal/tender"
)

// reservedParams are query parameters consumed by paging and full-text
// search; everything else becomes a structured filter.
var reservedParams = map[string]struct{}{
	"q":    {},
	"page": {},
	"size": {},
}

func (s *Server) handleTenderDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	detail, err := s.tenders.GetDetail(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, tender.ErrTenderNotFound):
			writeError(w, http.StatusNotFound, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleTenderSearch(w http.ResponseWriter, r *http.Request) {
	if s.index == nil || !s.index.Available() {
		writeError(w, http.StatusServiceUnavailable, errors.New("search backend not available"))
		return
	}
	query := r.URL.Query().Get("q")
	params := search.SearchParams{
		Page:    intParam(r, "page", 1),
		Size:    intParam(r, "size", 20),
		Filters: filtersFromQuery(r),
	}
	result, err := s.index.Search(r.Context(), query, params)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Errorf("search tenders: %w", err))
		return
	}
	common.Logger().Debug("api: tender search", "q", query, "hits", result.TotalHits)
	writeJSON(w, http.StatusOK, result)
}

// filtersFromQuery maps the remaining query parameters onto the structured
// filter convention: comma-separated values become OR lists, numeric-looking
// values are passed through as numbers so range suffixes compare correctly.
func filtersFromQuery(r *http.Request) map[string]interface{} {
	filters := make(map[string]interface{})
	for key, values := range r.URL.Query() {
		if _, reserved := reservedParams[key]; reserved || len(values) == 0 {
			continue
		}
		raw := values[0]
		if strings.Contains(raw, ",") {
			parts := strings.Split(raw, ",")
			list := make([]interface{}, 0, len(parts))
			for _, part := range parts {
				list = append(list, coerceFilterValue(strings.TrimSpace(part)))
			}
			filters[key] = list
			continue
		}
		filters[key] = coerceFilterValue(raw)
	}
	if len(filters) == 0 {
		return nil
	}
	return filters
}

func coerceFilterValue(raw string) interface{} {
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}

func intParam(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func (s *Server) handleTenderDocuments(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("store not available"))
		return
	}
	uri := tender.ProcedureURI(chi.URLParam(r, "id"))
	docs, err := s.store.Documents(r.Context(), uri)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tender_uri": uri, "documents": docs})
}

func (s *Server) handleUserTenders(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("store not available"))
		return
	}
	userID := userFromContext(r.Context())
	rows, err := s.store.UserTenders(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user_id": userID, "tenders": rows})
}

func (s *Server) handleTrackTender(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("store not available"))
		return
	}
	userID := userFromContext(r.Context())
	uri := tender.ProcedureURI(chi.URLParam(r, "id"))
	status := r.URL.Query().Get("status")
	if err := s.store.TrackTender(r.Context(), userID, uri, status); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	common.Logger().Info("api: tender tracked", "user", userID, "tender", uri)
	writeJSON(w, http.StatusOK, map[string]string{"user_id": userID, "tender_uri": uri, "result": "tracked"})
}

func (s *Server) handleUntrackTender(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("store not available"))
		return
	}
	userID := userFromContext(r.Context())
	uri := tender.ProcedureURI(chi.URLParam(r, "id"))
	if err := s.store.UntrackTender(r.Context(), userID, uri); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"user_id": userID, "tender_uri": uri, "result": "untracked"})
}
