// File path: internal/tender/binding_test.go
package tender

import (
	"errors"
	"testing"

	"github.com/GH-TeamBID/gober-api/internal/graph"
)

func lit(v string) graph.Binding {
	return graph.Binding{Type: "literal", Value: v}
}

func TestMapRowUnboundIsExplicitNil(t *testing.T) {
	row := graph.Row{"title": lit("Road works")}
	out, err := MapRow(row, []Rule{
		{Dest: "title", Source: "title"},
		{Dest: "description", Source: "description"},
	})
	if err != nil {
		t.Fatalf("map row failed: %v", err)
	}
	if out["title"] == nil || *out["title"] != "Road works" {
		t.Fatalf("expected title binding, got %v", out["title"])
	}
	if _, ok := out["description"]; !ok {
		t.Fatalf("expected description key to be present")
	}
	if out["description"] != nil {
		t.Fatalf("expected unbound description to be nil, got %q", *out["description"])
	}
}

func TestMapRowConverterFailureIsConversionError(t *testing.T) {
	row := graph.Row{"amount": lit("abc")}
	_, err := MapRow(row, []Rule{
		{Dest: "amount", Source: "amount", Convert: func(string) (string, error) {
			return "", errors.New("not a number")
		}},
	})
	if err == nil {
		t.Fatalf("expected conversion error")
	}
	if !IsConversion(err) {
		t.Fatalf("expected ConversionError, got %T: %v", err, err)
	}
	var ce *ConversionError
	if !errors.As(err, &ce) || ce.Field != "amount" || ce.Value != "abc" {
		t.Fatalf("unexpected error detail: %+v", ce)
	}
}

func TestCoreRulesShortenProcedureURI(t *testing.T) {
	row := graph.Row{
		"procedure": {Type: "uri", Value: "http://gober.ai/spain/procedure/tender-123"},
		"title":     lit("Supply contract"),
	}
	out, err := MapRow(row, coreRules())
	if err != nil {
		t.Fatalf("map row failed: %v", err)
	}
	if out["uri"] == nil || *out["uri"] != "tender-123" {
		t.Fatalf("expected short uri, got %v", out["uri"])
	}
	if out["additional_information"] != nil {
		t.Fatalf("expected nil additional information")
	}
}
