// File path: internal/common/telemetry/telemetry.go
package telemetry

import (
	"expvar"
	"strings"
	"sync"
	"time"
)

var (
	initOnce sync.Once

	graphQueryTotal     *expvar.Map
	graphQueryLatencyMS *expvar.Map

	searchRequestTotal     *expvar.Int
	searchRequestLatencyMS *expvar.Int

	summaryRunTotal    *expvar.Int
	summaryChunksTotal *expvar.Int
	summaryDocsTotal   *expvar.Int
)

func ensureInit() {
	initOnce.Do(func() {
		graphQueryTotal = expvar.NewMap("gober_graph_query_total")
		graphQueryLatencyMS = expvar.NewMap("gober_graph_query_latency_ms")

		searchRequestTotal = expvar.NewInt("gober_search_requests_total")
		searchRequestLatencyMS = expvar.NewInt("gober_search_latency_ms")

		summaryRunTotal = expvar.NewInt("gober_summary_runs_total")
		summaryChunksTotal = expvar.NewInt("gober_summary_chunks_total")
		summaryDocsTotal = expvar.NewInt("gober_summary_docs_total")
	})
}

// RecordGraphQuery counts one named SPARQL query and its latency, keyed by
// the query name so slow reconciliation queries stand out.
func RecordGraphQuery(name string, duration time.Duration) {
	ensureInit()
	key := strings.TrimSpace(strings.ToLower(name))
	if key == "" {
		key = "unknown"
	}
	graphQueryTotal.Add(key, 1)
	if duration > 0 {
		graphQueryLatencyMS.Add(key, duration.Milliseconds())
	}
}

// RecordSearch counts one Meilisearch request.
func RecordSearch(duration time.Duration) {
	ensureInit()
	searchRequestTotal.Add(1)
	if duration > 0 {
		searchRequestLatencyMS.Add(duration.Milliseconds())
	}
}

// RecordSummaryRun counts one completed summary pipeline run and the volume
// it processed.
func RecordSummaryRun(documents, chunks int) {
	ensureInit()
	summaryRunTotal.Add(1)
	if documents > 0 {
		summaryDocsTotal.Add(int64(documents))
	}
	if chunks > 0 {
		summaryChunksTotal.Add(int64(chunks))
	}
}
