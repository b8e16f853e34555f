// File path: internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"expvar"
	"io"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/GH-TeamBID/gober-api/internal/common"
	"github.com/GH-TeamBID/gober-api/internal/search"
	"github.com/GH-TeamBID/gober-api/internal/store"
	"github.com/GH-TeamBID/gober-api/internal/summary"
	"github.com/GH-TeamBID/gober-api/internal/tender"
)

// TenderService resolves tender aggregates from the graph.
type TenderService interface {
	GetDetail(ctx context.Context, id string) (*tender.Detail, error)
}

// TenderStore is the relational surface the handlers need.
type TenderStore interface {
	Summary(ctx context.Context, tenderURI string) (*store.SummaryRecord, error)
	Documents(ctx context.Context, tenderURI string) ([]store.DocumentRecord, error)
	TrackTender(ctx context.Context, userID, tenderURI, status string) error
	UntrackTender(ctx context.Context, userID, tenderURI string) error
	UserTenders(ctx context.Context, userID string) ([]store.UserTender, error)
}

// SummaryRunner executes the document summary pipeline for one tender.
type SummaryRunner interface {
	Run(ctx context.Context, detail *tender.Detail, regenerate bool) (*summary.Result, error)
}

// BlobReader reads pipeline artifacts back from object storage.
type BlobReader interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

type Server struct {
	router  chi.Router
	tenders TenderService
	index   search.Index
	store   TenderStore
	summary SummaryRunner
	blobs   BlobReader
	auth    *Authenticator
}

// Config carries the server-level settings.
type Config struct {
	JWTSecret    string
	SharedSecret string
	TokenTTL     time.Duration
}

func NewServer(tenders TenderService, index search.Index, st TenderStore, runner SummaryRunner, blobs BlobReader, cfg Config) (*Server, error) {
	auth, err := NewAuthenticator(cfg)
	if err != nil {
		return nil, err
	}
	srv := &Server{
		router:  chi.NewRouter(),
		tenders: tenders,
		index:   index,
		store:   st,
		summary: runner,
		blobs:   blobs,
		auth:    auth,
	}
	srv.routes()
	common.Logger().Info("api: server ready",
		"search_available", index != nil && index.Available())
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	logger.Info("api: configuring routes")
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Handle("/debug/vars", expvar.Handler())

	s.router.Post("/api/auth/token", s.handleToken)

	s.router.Get("/api/tenders", s.handleTenderSearch)
	s.router.Get("/api/tenders/{id}", s.handleTenderDetail)
	s.router.Get("/api/tenders/{id}/documents", s.handleTenderDocuments)
	s.router.Get("/api/tenders/{id}/chunks/{chunkID}", s.handleTenderChunk)
	s.router.Post("/api/tenders/{id}/summary", s.handleTenderSummary)

	s.router.Group(func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Get("/api/user/tenders", s.handleUserTenders)
		r.Post("/api/user/tenders/{id}", s.handleTrackTender)
		r.Delete("/api/user/tenders/{id}", s.handleUntrackTender)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
