// Package format renders result cursors as text tables, CSV or JSON.
package format

import (
	"fmt"
	"strings"

	"github.com/Ratio1/chipstage_sdk_go/pkg/resultset"
)

// Formatter renders the whole snapshot behind a cursor. Formatters do not
// move the cursor.
type Formatter interface {
	Format(cur *resultset.Cursor) ([]byte, error)
}

// ByName returns the formatter registered under name.
func ByName(name string) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "table":
		return NewTable(), nil
	case "csv":
		return NewCSV(), nil
	case "json":
		return NewJSON(), nil
	default:
		return nil, fmt.Errorf("format: unknown format %q", name)
	}
}

const nullText = "NULL"

func cellText(row resultset.Row, i int) string {
	if i >= len(row) || row[i] == nil {
		return nullText
	}
	return *row[i]
}
