// File path: internal/graph/types.go
package graph

import "context"

// Binding is a single SPARQL variable binding as returned in the
// application/sparql-results+json envelope.
type Binding struct {
	Type     string `json:"type,omitempty"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// Row maps variable names to their bindings for one result row. Variables
// left unbound by the store are simply absent from the map.
type Row map[string]Binding

// Value returns the bound string value for the variable, or the empty string
// when the variable is unbound.
func (r Row) Value(name string) string {
	if r == nil {
		return ""
	}
	return r[name].Value
}

// Has reports whether the variable is bound in this row.
func (r Row) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r[name]
	return ok
}

// Results is the SPARQL JSON results document for SELECT and ASK queries.
type Results struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []Row `json:"bindings"`
	} `json:"results"`
}

// Rows returns the binding rows, tolerating a nil receiver.
func (r *Results) Rows() []Row {
	if r == nil {
		return nil
	}
	return r.Results.Bindings
}

// NamedQuery pairs a logical query name with its SPARQL text. All queries in
// a batch are bound to the same subject URI by the caller.
type NamedQuery struct {
	Name  string
	Query string
}

// NamedResults maps a query name to its result set. A query that failed or
// was never issued has no entry; consumers treat a missing entry exactly
// like a present-but-empty result set.
type NamedResults map[string]*Results

// RowsFor returns the binding rows for the named query, or nil when the
// query is absent or returned nothing.
func (n NamedResults) RowsFor(name string) []Row {
	if n == nil {
		return nil
	}
	return n[name].Rows()
}

// Empty reports whether every named query holds zero rows.
func (n NamedResults) Empty() bool {
	for _, res := range n {
		if len(res.Rows()) > 0 {
			return false
		}
	}
	return true
}

// Client defines the operations required for issuing SPARQL queries against
// the tender knowledge graph.
type Client interface {
	// Available reports whether the backend is reachable and ready.
	Available() bool
	// Select executes a single SELECT/ASK query and decodes its result set.
	Select(ctx context.Context, query string) (*Results, error)
	// RunNamed executes the batch concurrently. Individual query failures
	// are captured per query and surface as missing entries, never as a
	// batch error.
	RunNamed(ctx context.Context, queries []NamedQuery) (NamedResults, error)
	// Close releases resources associated with the client.
	Close() error
}
