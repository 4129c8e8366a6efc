package format

import (
	"encoding/json"
	"fmt"

	"github.com/Ratio1/chipstage_sdk_go/pkg/resultset"
)

var _ Formatter = (*JSON)(nil)

// JSON writes the records produced by Cursor.ToArray as an indented array.
type JSON struct{}

func NewJSON() *JSON {
	return &JSON{}
}

func (jf *JSON) Format(cur *resultset.Cursor) ([]byte, error) {
	records, err := cur.ToArray()
	if err != nil {
		return nil, fmt.Errorf("cur.ToArray: %w", err)
	}

	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json.MarshalIndent: %w", err)
	}
	return out, nil
}
