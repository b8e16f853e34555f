// File path: internal/tender/binding.go
package tender

import (
	"github.com/GH-TeamBID/gober-api/internal/graph"
)

// Rule projects one query variable onto a destination field. A nil Convert
// keeps the bound value as-is.
type Rule struct {
	Dest    string
	Source  string
	Convert func(string) (string, error)
}

// MapRow evaluates the ordered rule list against one binding row. Every
// destination key is present in the result: bound variables carry their
// converted value, unbound ones carry an explicit nil, never a sentinel.
// A converter failure aborts the whole projection with a ConversionError.
func MapRow(row graph.Row, rules []Rule) (map[string]*string, error) {
	out := make(map[string]*string, len(rules))
	for _, rule := range rules {
		if !row.Has(rule.Source) {
			out[rule.Dest] = nil
			continue
		}
		value := row.Value(rule.Source)
		if rule.Convert != nil {
			converted, err := rule.Convert(value)
			if err != nil {
				return nil, &ConversionError{Field: rule.Dest, Value: value, Err: err}
			}
			value = converted
		}
		out[rule.Dest] = &value
	}
	return out, nil
}

// coreRules maps the "core" query row onto the aggregate's base fields. The
// procedure URI keeps only its last path segment; the API layer and the
// relational merge both key on that short form.
func coreRules() []Rule {
	return []Rule{
		{Dest: "uri", Source: "procedure", Convert: func(v string) (string, error) {
			return lastSegment(v, "/"), nil
		}},
		{Dest: "title", Source: "title"},
		{Dest: "description", Source: "description"},
		{Dest: "additional_information", Source: "additionalInfo"},
	}
}
