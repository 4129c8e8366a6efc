// Package chipapi interprets decoded service responses.
//
// Every endpoint answers with an envelope {"result": ..., "error": ...}.
// The result may arrive double-encoded as a JSON string; Unwrap undoes
// that. Query results are a list of entries, each with a schema and a grid
// of nullable text cells.
package chipapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/Ratio1/chipstage_sdk_go/pkg/resultset"
	"github.com/Ratio1/chipstage_sdk_go/pkg/stream"
)

// ErrMalformed is wrapped by errors for responses that do not have the
// expected shape.
var ErrMalformed = errors.New("chipapi: malformed response")

// maxUnquote bounds how many layers of string encoding Unwrap peels off.
const maxUnquote = 4

// Entry is one result set of a query response.
type Entry struct {
	Schema resultset.Schema
	Rows   []resultset.Row
}

// Cursor returns a cursor positioned before the first row.
func (e Entry) Cursor() *resultset.Cursor {
	return resultset.New(e.Schema, e.Rows)
}

// Response is a parsed query response.
type Response struct {
	Entries []Entry
	// Error is the service-reported error message. It is passed through
	// untouched; HasError distinguishes an empty message from none.
	Error    string
	HasError bool
}

// Unwrap returns the value under the "result" key of an envelope, decoding
// it when it is a JSON document encoded as a string. Values that are not an
// envelope are returned as is.
func Unwrap(root any) any {
	obj, ok := root.(map[string]any)
	if !ok {
		return root
	}
	result, ok := obj["result"]
	if !ok {
		return root
	}
	if s, ok := result.(string); ok {
		if inner, ok := decodeEmbedded(s); ok {
			return inner
		}
	}
	return result
}

// decodeEmbedded decodes s when it holds an encoded JSON object or array,
// possibly quoted several times over.
func decodeEmbedded(s string) (any, bool) {
	decoded := s
	for i := 0; i < maxUnquote; i++ {
		unquoted, err := strconv.Unquote(decoded)
		if err != nil {
			break
		}
		decoded = unquoted
	}
	trimmed := bytes.TrimSpace([]byte(decoded))
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, false
	}
	v, err := stream.DecodeBytes(trimmed)
	if err != nil {
		return nil, false
	}
	return v, true
}

// BusinessError extracts the "error" field of an envelope.
func BusinessError(root any) (string, bool) {
	obj, ok := root.(map[string]any)
	if !ok {
		return "", false
	}
	v, ok := obj["error"]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v), true
	}
	return string(data), true
}

// ParseQuery interprets the root of a query response. A reported error is
// returned in Response.Error, not as a Go error; the result is still parsed
// when present.
func ParseQuery(root any) (*Response, error) {
	resp := &Response{}
	resp.Error, resp.HasError = BusinessError(root)

	switch result := Unwrap(root).(type) {
	case nil:
	case []any:
		for i, raw := range result {
			entry, err := ParseEntry(raw)
			if err != nil {
				return nil, fmt.Errorf("chipapi: entry %d: %w", i, err)
			}
			resp.Entries = append(resp.Entries, entry)
		}
	case map[string]any:
		if isEnvelopeOnly(result) {
			break
		}
		entry, err := ParseEntry(result)
		if err != nil {
			return nil, fmt.Errorf("chipapi: entry 0: %w", err)
		}
		resp.Entries = append(resp.Entries, entry)
	default:
		return nil, fmt.Errorf("%w: result is %T", ErrMalformed, result)
	}
	return resp, nil
}

// isEnvelopeOnly reports an envelope without a result, such as a bare
// {"error": "..."}.
func isEnvelopeOnly(obj map[string]any) bool {
	_, hasSchema := obj["schema"]
	_, hasError := obj["error"]
	return !hasSchema && hasError
}

// ParseEntry converts one decoded entry into a schema and a grid. The
// "rows" field takes precedence whenever it is present, even when empty;
// "data" is read only when "rows" is absent.
func ParseEntry(v any) (Entry, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Entry{}, fmt.Errorf("%w: entry is %T", ErrMalformed, v)
	}
	schema, err := parseSchema(obj["schema"])
	if err != nil {
		return Entry{}, err
	}
	rawRows, ok := obj["rows"]
	if !ok {
		rawRows = obj["data"]
	}
	rows, err := parseRows(rawRows)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Schema: schema, Rows: rows}, nil
}

func parseSchema(v any) (resultset.Schema, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: schema is %T", ErrMalformed, v)
	}
	schema := make(resultset.Schema, 0, len(list))
	for i, raw := range list {
		var name, typ any
		switch col := raw.(type) {
		case map[string]any:
			name, typ = col["name"], col["type"]
		case []any:
			if len(col) != 2 {
				return nil, fmt.Errorf("%w: schema column %d has %d elements", ErrMalformed, i, len(col))
			}
			name, typ = col[0], col[1]
		default:
			return nil, fmt.Errorf("%w: schema column %d is %T", ErrMalformed, i, raw)
		}
		n, ok1 := name.(string)
		t, ok2 := typ.(string)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: schema column %d needs string name and type", ErrMalformed, i)
		}
		schema = append(schema, resultset.Column{Name: n, Type: t})
	}
	return schema, nil
}

func parseRows(v any) ([]resultset.Row, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: rows is %T", ErrMalformed, v)
	}
	rows := make([]resultset.Row, 0, len(list))
	for i, raw := range list {
		cells, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: row %d is %T", ErrMalformed, i, raw)
		}
		row := make(resultset.Row, len(cells))
		for j, cell := range cells {
			text, err := cellText(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d cell %d: %v", ErrMalformed, i, j, err)
			}
			row[j] = text
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// cellText keeps text cells as they are. Numbers and booleans sent
// unquoted are kept in their wire spelling so coercion sees the same text.
func cellText(v any) (*string, error) {
	switch c := v.(type) {
	case nil:
		return nil, nil
	case string:
		return &c, nil
	case json.Number:
		s := c.String()
		return &s, nil
	case bool:
		s := strconv.FormatBool(c)
		return &s, nil
	default:
		return nil, fmt.Errorf("unsupported cell %T", v)
	}
}

// DecodeResult unwraps root and decodes the result into out, which must be
// a pointer as for json.Unmarshal.
func DecodeResult(root any, out any) error {
	data, err := json.Marshal(Unwrap(root))
	if err != nil {
		return fmt.Errorf("chipapi: re-encode result: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
