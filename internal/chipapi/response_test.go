package chipapi

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Ratio1/chipstage_sdk_go/pkg/resultset"
	"github.com/Ratio1/chipstage_sdk_go/pkg/stream"
)

func decode(t *testing.T, body string) any {
	t.Helper()
	v, err := stream.DecodeBytes([]byte(body))
	if err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return v
}

func TestUnwrap(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{
			name:     "double-encoded object",
			body:     `{"result":"{\"count\":1}"}`,
			expected: `{"count":1}`,
		},
		{
			name:     "quoted double-encoded object",
			body:     `{"result":"\"{\\\"count\\\":1}\""}`,
			expected: `{"count":1}`,
		},
		{
			name:     "double-encoded list",
			body:     `{"result":"[{\"schema\":[]}]"}`,
			expected: `[{"schema":[]}]`,
		},
		{
			name:     "direct object",
			body:     `{"result":{"keys":["a","b"]}}`,
			expected: `{"keys":["a","b"]}`,
		},
		{
			name:     "plain string",
			body:     `{"result":"hello"}`,
			expected: `"hello"`,
		},
		{
			name:     "string holding a number stays a string",
			body:     `{"result":"42"}`,
			expected: `"42"`,
		},
		{
			name:     "no envelope",
			body:     `[1,2]`,
			expected: `[1,2]`,
		},
		{
			name:     "null passthrough",
			body:     `null`,
			expected: `null`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Unwrap(decode(t, tc.body))
			want := decode(t, tc.expected)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("Unwrap mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseQuery(t *testing.T) {
	text := resultset.Text
	tests := []struct {
		name      string
		body      string
		want      []Entry
		wantError string
	}{
		{
			name: "object schema",
			body: `{"result":[{"schema":[{"name":"id","type":"Int32"},{"name":"name","type":"Utf8"}],
				"rows":[["1","John"],["2",null]]}],"error":null}`,
			want: []Entry{{
				Schema: resultset.Schema{{Name: "id", Type: "Int32"}, {Name: "name", Type: "Utf8"}},
				Rows:   []resultset.Row{{text("1"), text("John")}, {text("2"), nil}},
			}},
		},
		{
			name: "pair schema and data fallback",
			body: `{"result":[{"schema":[["id","Int64"]],"data":[["7"]]}]}`,
			want: []Entry{{
				Schema: resultset.Schema{{Name: "id", Type: "Int64"}},
				Rows:   []resultset.Row{{text("7")}},
			}},
		},
		{
			name: "empty rows win over data",
			body: `{"result":[{"schema":[["id","Int64"]],"rows":[],"data":[["7"]]}]}`,
			want: []Entry{{
				Schema: resultset.Schema{{Name: "id", Type: "Int64"}},
				Rows:   []resultset.Row{},
			}},
		},
		{
			name: "single entry and unquoted cells",
			body: `{"result":{"schema":[["n","Float64"],["b","Boolean"]],"rows":[[1.5,true]]}}`,
			want: []Entry{{
				Schema: resultset.Schema{{Name: "n", Type: "Float64"}, {Name: "b", Type: "Boolean"}},
				Rows:   []resultset.Row{{text("1.5"), text("true")}},
			}},
		},
		{
			name: "double-encoded result",
			body: `{"result":"[{\"schema\":[[\"id\",\"Int32\"]],\"rows\":[[\"3\"]]}]"}`,
			want: []Entry{{
				Schema: resultset.Schema{{Name: "id", Type: "Int32"}},
				Rows:   []resultset.Row{{text("3")}},
			}},
		},
		{
			name:      "business error",
			body:      `{"result":null,"error":"chip not found"}`,
			wantError: "chip not found",
		},
		{
			name:      "error without result",
			body:      `{"error":{"code":7}}`,
			wantError: `{"code":7}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := ParseQuery(decode(t, tc.body))
			if err != nil {
				t.Fatalf("ParseQuery returned error: %v", err)
			}
			if diff := cmp.Diff(tc.want, resp.Entries); diff != "" {
				t.Fatalf("entries mismatch (-want +got):\n%s", diff)
			}
			if resp.HasError != (tc.wantError != "") || resp.Error != tc.wantError {
				t.Fatalf("error mismatch: got %q (%v), want %q", resp.Error, resp.HasError, tc.wantError)
			}
		})
	}
}

func TestParseQueryMalformed(t *testing.T) {
	bodies := []string{
		`{"result":42}`,
		`{"result":[7]}`,
		`{"result":[{"schema":{"id":"Int32"}}]}`,
		`{"result":[{"schema":[["id"]]}]}`,
		`{"result":[{"schema":[[1,"Int32"]]}]}`,
		`{"result":[{"schema":[],"rows":"x"}]}`,
		`{"result":[{"schema":[],"rows":[1]}]}`,
		`{"result":[{"schema":[],"rows":[[{"a":1}]]}]}`,
	}
	for _, body := range bodies {
		_, err := ParseQuery(decode(t, body))
		if !errors.Is(err, ErrMalformed) {
			t.Fatalf("ParseQuery(%s): expected ErrMalformed, got %v", body, err)
		}
	}
}

func TestEntryCursor(t *testing.T) {
	resp, err := ParseQuery(decode(t, `{"result":[{"schema":[["id","Int32"]],"rows":[["5"]]}]}`))
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	cur := resp.Entries[0].Cursor()
	if !cur.Next() {
		t.Fatalf("expected a row")
	}
	id, err := cur.GetInt(resultset.Name("ID"))
	if err != nil || id != 5 {
		t.Fatalf("GetInt = %d, %v", id, err)
	}
}

func TestDecodeResult(t *testing.T) {
	var out []struct {
		Name string `json:"name"`
		Rows int    `json:"rows"`
	}
	root := decode(t, `{"result":"[{\"name\":\"users\",\"rows\":2}]"}`)
	if err := DecodeResult(root, &out); err != nil {
		t.Fatalf("DecodeResult: %v", err)
	}
	if len(out) != 1 || out[0].Name != "users" || out[0].Rows != 2 {
		t.Fatalf("unexpected result: %+v", out)
	}

	var flag bool
	if err := DecodeResult(decode(t, `{"result":true}`), &flag); err != nil || !flag {
		t.Fatalf("DecodeResult bool = %v, %v", flag, err)
	}

	var n json.Number
	if err := DecodeResult(decode(t, `{"result":{"a":1}}`), &n); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}
