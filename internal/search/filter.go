// File path: internal/search/filter.go
package search

import (
	"fmt"
	"sort"
	"strings"
)

// BuildFilter renders a structured filter map into a Meilisearch filter
// expression. Fields join with AND, in sorted field order so the same map
// always renders the same expression. Nil values are skipped, list values
// become an OR group, and the _gte/_lte/_gt/_lt field suffixes turn into
// range comparisons on the base field.
func BuildFilter(filters map[string]interface{}) string {
	if len(filters) == 0 {
		return ""
	}
	fields := make([]string, 0, len(filters))
	for field := range filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		value := filters[field]
		if value == nil {
			continue
		}
		if list, ok := value.([]interface{}); ok {
			if group := orGroup(field, list); group != "" {
				parts = append(parts, group)
			}
			continue
		}
		if strs, ok := value.([]string); ok {
			list := make([]interface{}, len(strs))
			for i, s := range strs {
				list[i] = s
			}
			if group := orGroup(field, list); group != "" {
				parts = append(parts, group)
			}
			continue
		}
		switch {
		case strings.HasSuffix(field, "_gte"):
			parts = append(parts, fmt.Sprintf("%s >= %v", strings.TrimSuffix(field, "_gte"), value))
		case strings.HasSuffix(field, "_lte"):
			parts = append(parts, fmt.Sprintf("%s <= %v", strings.TrimSuffix(field, "_lte"), value))
		case strings.HasSuffix(field, "_gt"):
			parts = append(parts, fmt.Sprintf("%s > %v", strings.TrimSuffix(field, "_gt"), value))
		case strings.HasSuffix(field, "_lt"):
			parts = append(parts, fmt.Sprintf("%s < %v", strings.TrimSuffix(field, "_lt"), value))
		default:
			parts = append(parts, comparison(field, value))
		}
	}
	return strings.Join(parts, " AND ")
}

func orGroup(field string, values []interface{}) string {
	if len(values) == 0 {
		return ""
	}
	sub := make([]string, 0, len(values))
	for _, v := range values {
		sub = append(sub, comparison(field, v))
	}
	return "(" + strings.Join(sub, " OR ") + ")"
}

func comparison(field string, value interface{}) string {
	if s, ok := value.(string); ok {
		return fmt.Sprintf("%s = '%s'", field, s)
	}
	return fmt.Sprintf("%s = %v", field, value)
}
