package resultset

import (
	"errors"
	"fmt"
)

// Type tags used by the service to declare column types.
const (
	TypeInt32   = "Int32"
	TypeInt64   = "Int64"
	TypeFloat32 = "Float32"
	TypeFloat64 = "Float64"
	TypeBoolean = "Boolean"
	TypeUtf8    = "Utf8"
)

// Column describes a single column of a result.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Schema is the ordered list of columns of a result.
type Schema []Column

// Row is one row of nullable text cells; a nil cell is SQL NULL.
type Row []*string

// Record maps column names to coerced values for a single row.
type Record map[string]any

var (
	// ErrNoCurrentRow is returned by accessors when the cursor is not on a row.
	ErrNoCurrentRow = errors.New("resultset: no current row")
)

// ColumnIndexError reports a column index outside the available columns.
type ColumnIndexError struct {
	Index int
	Count int
}

func (e *ColumnIndexError) Error() string {
	return fmt.Sprintf("resultset: column index %d out of range [1, %d]", e.Index, e.Count)
}

// ColumnNotFoundError reports a column name without a case-insensitive match.
type ColumnNotFoundError struct {
	Name string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("resultset: column %q not found", e.Name)
}

// ConversionError reports a non-null cell that cannot be read as the
// requested type.
type ConversionError struct {
	Index int
	Type  string
	Text  string
}

func (e *ConversionError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("resultset: column %d: cannot convert %q to %s", e.Index, e.Text, e.Type)
	}
	return fmt.Sprintf("resultset: cannot convert %q to %s", e.Text, e.Type)
}

// Text returns a pointer to s, for building rows by hand.
func Text(s string) *string {
	return &s
}
