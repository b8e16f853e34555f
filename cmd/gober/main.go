// File path: cmd/gober/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/GH-TeamBID/gober-api/internal/api"
	"github.com/GH-TeamBID/gober-api/internal/blob"
	"github.com/GH-TeamBID/gober-api/internal/common"
	"github.com/GH-TeamBID/gober-api/internal/graph/neptune"
	"github.com/GH-TeamBID/gober-api/internal/llm"
	"github.com/GH-TeamBID/gober-api/internal/search"
	"github.com/GH-TeamBID/gober-api/internal/store"
	"github.com/GH-TeamBID/gober-api/internal/summary"
	"github.com/GH-TeamBID/gober-api/internal/tender"
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("gober: .env file not loaded", "error", err)
	} else {
		logger.Info("gober: environment loaded from .env")
	}

	addr := flag.String("addr", ":8080", "listen address")
	dbPath := flag.String("db", "", "path to the SQLite database (overrides SQLITE_PATH)")
	flag.Parse()

	logger.Info("gober: startup initiated", "addr", *addr)

	graphClient, err := neptune.NewFromEnv(ctx)
	if err != nil {
		logger.Error("gober: graph client initialization failed", "error", err)
		fmt.Println("graph error:", err)
		os.Exit(1)
	}
	if graphClient.Available() {
		logger.Info("gober: neptune available")
	} else {
		logger.Warn("gober: neptune unreachable at startup")
	}

	storeCfg := store.LoadConfig()
	if trimmed := strings.TrimSpace(*dbPath); trimmed != "" {
		storeCfg.Path = trimmed
	}
	st, err := store.OpenWithConfig(storeCfg)
	if err != nil {
		logger.Error("gober: store initialization failed", "error", err)
		fmt.Println("store error:", err)
		os.Exit(1)
	}
	defer st.Close()

	index, err := search.NewFromEnv(ctx)
	if err != nil {
		logger.Error("gober: meilisearch initialization failed", "error", err)
		fmt.Println("search error:", err)
		os.Exit(1)
	}
	if index == nil {
		logger.Info("gober: meilisearch not configured, tender search disabled")
	}

	blobs, err := blob.NewFromEnv(ctx)
	if err != nil {
		logger.Error("gober: object storage initialization failed", "error", err)
		fmt.Println("blob error:", err)
		os.Exit(1)
	}
	if blobs == nil {
		logger.Info("gober: object storage not configured, artifacts disabled")
	}

	tenderService := tender.NewService(graphClient, st)

	runner, err := buildSummaryWorkflow(st, blobs)
	if err != nil {
		logger.Warn("gober: summary pipeline disabled", "error", err)
	}

	cfg := api.Config{
		JWTSecret:    strings.TrimSpace(os.Getenv("JWT_SECRET")),
		SharedSecret: strings.TrimSpace(os.Getenv("AUTH_SHARED_SECRET")),
	}
	server, err := api.NewServer(tenderService, indexOrNil(index), st, runner, blobReaderOrNil(blobs), cfg)
	if err != nil {
		logger.Error("gober: server construction failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		logger.Info("gober: shutdown signal received")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("gober: shutdown failed", "error", err)
		}
		cancel()
	}()

	logger.Info("gober: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("gober: server stopped", "error", err)
		fmt.Println("server stopped:", err)
		os.Exit(1)
	}
	logger.Info("gober: server stopped")
}

// buildSummaryWorkflow wires the document pipeline when its external
// collaborators are configured; a missing converter or LLM key simply
// disables the summary routes.
func buildSummaryWorkflow(st *store.Store, blobs *blob.Store) (api.SummaryRunner, error) {
	converter, err := summary.NewConverterFromEnv()
	if err != nil {
		return nil, err
	}
	if converter == nil {
		return nil, errors.New("conversion API not configured")
	}
	provider := llm.NewProvider()
	generator := summary.NewGenerator(provider)
	retriever := summary.NewRetriever(0)
	var uploader summary.Uploader
	if blobs != nil {
		uploader = blobs
	}
	return summary.NewWorkflow(retriever, converter, generator, uploader, st), nil
}

// indexOrNil avoids handing the server a typed-nil interface value.
func indexOrNil(index *search.Client) search.Index {
	if index == nil {
		return nil
	}
	return index
}

func blobReaderOrNil(blobs *blob.Store) api.BlobReader {
	if blobs == nil {
		return nil
	}
	return blobs
}
