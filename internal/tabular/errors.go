package tabular

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns absent from an imported table.
type SchemaError struct {
	Required []string
	Missing  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("expected columns: %s; missing: %s", strings.Join(e.Required, ", "), strings.Join(e.Missing, ", "))
}

// ParseError reports a single cell that could not be parsed. The row it
// belongs to is excluded; the rest of the file proceeds.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %s: cannot parse %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
