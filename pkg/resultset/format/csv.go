package format

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/Ratio1/chipstage_sdk_go/pkg/resultset"
)

var _ Formatter = (*CSV)(nil)

// CSV writes a header line with column names followed by raw cell text.
// Null cells are written as empty fields.
type CSV struct{}

func NewCSV() *CSV {
	return &CSV{}
}

func (cf *CSV) Format(cur *resultset.Cursor) ([]byte, error) {
	schema := cur.Schema()

	header := make([]string, len(schema))
	for i, col := range schema {
		header[i] = col.Name
	}
	data := [][]string{header}
	for _, row := range cur.Grid() {
		record := make([]string, len(schema))
		for j := range schema {
			if j < len(row) && row[j] != nil {
				record[j] = *row[j]
			}
		}
		data = append(data, record)
	}

	b := new(bytes.Buffer)
	w := csv.NewWriter(b)
	if err := w.WriteAll(data); err != nil {
		return nil, fmt.Errorf("w.WriteAll: %w", err)
	}
	return b.Bytes(), nil
}
