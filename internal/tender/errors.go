// File path: internal/tender/errors.go
package tender

import (
	"errors"
	"fmt"
)

// ErrTenderNotFound marks the "no rows at all across every query" case so
// the API boundary can answer 404 instead of 500.
var ErrTenderNotFound = errors.New("tender not found")

// ConversionError reports a present-but-malformed value handed to a
/// converter: a non-numeric amount, an unparseable deadline. It is always
// fatal to the reconciliation that raised it; partial aggregates are never
// returned.
type ConversionError struct {
	Field string
	Value string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s: %q: %v", e.Field, e.Value, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// IsConversion reports whether err is (or wraps) a ConversionError.
func IsConversion(err error) bool {
	var ce *ConversionError
	return errors.As(err, &ce)
}
