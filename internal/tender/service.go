// File path: internal/tender/service.go
package tender

import (
	"context"
	"errors"
	"fmt"

	"github.com/GH-TeamBID/gober-api/internal/common"
	"github.com/GH-TeamBID/gober-api/internal/graph"
)

// Merger enriches a reconciled aggregate with relationally stored fields
// (summary, summary document URL, tracking status). The store package
// implements it.
type Merger interface {
	MergeDetail(ctx context.Context, detail *Detail) error
}

// Service resolves tender details: fan out the named queries, reconcile the
// results, then overlay the relational extras.
type Service struct {
	client graph.Client
	merger Merger
}

// NewService wires the graph client and the optional relational merger. A
// nil merger skips the overlay step.
func NewService(client graph.Client, merger Merger) *Service {
	return &Service{client: client, merger: merger}
}

// GetDetail assembles the full detail aggregate for one tender id or URI.
// Returns ErrTenderNotFound when every query in the batch came back empty.
func (s *Service) GetDetail(ctx context.Context, id string) (*Detail, error) {
	if s.client == nil || !s.client.Available() {
		return nil, errors.New("graph backend not available")
	}
	uri := ProcedureURI(id)
	named, err := s.client.RunNamed(ctx, NamedQueries(uri))
	if err != nil {
		return nil, fmt.Errorf("run detail queries: %w", err)
	}
	if named.Empty() {
		return nil, ErrTenderNotFound
	}
	detail, err := Reconcile(named)
	if err != nil {
		return nil, err
	}
	// The graph may omit the core row while other sections match; the short
	// id from the request is still the aggregate's identity.
	if detail.URI == "" {
		detail.URI = lastSegment(uri, "/")
	}
	if s.merger != nil {
		if err := s.merger.MergeDetail(ctx, detail); err != nil {
			// Relational extras are additive; losing them degrades the
			// response, it does not fail it.
			common.Logger().Warn("tender: relational merge failed", "tender", detail.URI, "error", err)
		}
	}
	return detail, nil
}
