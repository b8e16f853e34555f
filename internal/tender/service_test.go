// File path: internal/tender/service_test.go
package tender

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/GH-TeamBID/gober-api/internal/graph"
)

type fakeGraph struct {
	named   graph.NamedResults
	lastURI string
	err     error
}

func (f *fakeGraph) Available() bool { return true }
func (f *fakeGraph) Close() error    { return nil }

func (f *fakeGraph) Select(ctx context.Context, query string) (*graph.Results, error) {
	return nil, errors.New("not used")
}

func (f *fakeGraph) RunNamed(ctx context.Context, queries []graph.NamedQuery) (graph.NamedResults, error) {
	if len(queries) > 0 {
		f.lastURI = queries[0].Query
	}
	return f.named, f.err
}

type fakeMerger struct {
	called bool
	err    error
}

func (m *fakeMerger) MergeDetail(ctx context.Context, detail *Detail) error {
	m.called = true
	if m.err != nil {
		return m.err
	}
	summary := "stored summary"
	detail.Summary = &summary
	return nil
}

func TestGetDetailNotFound(t *testing.T) {
	svc := NewService(&fakeGraph{named: graph.NamedResults{
		"core": resultsOf(),
	}}, nil)
	_, err := svc.GetDetail(context.Background(), "tender-404")
	if !errors.Is(err, ErrTenderNotFound) {
		t.Fatalf("expected ErrTenderNotFound, got %v", err)
	}
}

func TestGetDetailMergesRelationalFields(t *testing.T) {
	client := &fakeGraph{named: graph.NamedResults{
		"core": resultsOf(graph.Row{
			"procedure": {Type: "uri", Value: "http://gober.ai/spain/procedure/tender-1"},
			"title":     lit("Obras"),
		}),
	}}
	merger := &fakeMerger{}
	svc := NewService(client, merger)
	detail, err := svc.GetDetail(context.Background(), "tender-1")
	if err != nil {
		t.Fatalf("get detail failed: %v", err)
	}
	if !merger.called {
		t.Fatalf("expected relational merge to run")
	}
	if detail.Summary == nil || *detail.Summary != "stored summary" {
		t.Fatalf("expected merged summary, got %v", detail.Summary)
	}
}

func TestGetDetailMergeFailureIsNotFatal(t *testing.T) {
	client := &fakeGraph{named: graph.NamedResults{
		"core": resultsOf(graph.Row{
			"procedure": {Type: "uri", Value: "http://gober.ai/spain/procedure/tender-1"},
			"title":     lit("Obras"),
		}),
	}}
	svc := NewService(client, &fakeMerger{err: errors.New("db down")})
	detail, err := svc.GetDetail(context.Background(), "tender-1")
	if err != nil {
		t.Fatalf("merge failure must not fail the request: %v", err)
	}
	if detail.Summary != nil {
		t.Fatalf("expected no summary after failed merge")
	}
}

func TestGetDetailExpandsShortID(t *testing.T) {
	client := &fakeGraph{named: graph.NamedResults{
		"identifier": resultsOf(graph.Row{"identifier": lit("EXP-1")}),
	}}
	svc := NewService(client, nil)
	detail, err := svc.GetDetail(context.Background(), "tender-9")
	if err != nil {
		t.Fatalf("get detail failed: %v", err)
	}
	// Core row absent: identity falls back to the request id.
	if detail.URI != "tender-9" {
		t.Fatalf("expected request id fallback, got %q", detail.URI)
	}
	wantFragment := "<http://gober.ai/spain/procedure/tender-9>"
	if !strings.Contains(client.lastURI, wantFragment) {
		t.Fatalf("expected queries bound to %s", wantFragment)
	}
}
