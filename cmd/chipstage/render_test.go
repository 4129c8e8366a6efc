package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ratio1/chipstage_sdk_go/pkg/chips"
	"github.com/Ratio1/chipstage_sdk_go/pkg/chips/mock"
	"github.com/Ratio1/chipstage_sdk_go/pkg/resultset"
)

func newTestRenderer(t *testing.T, w io.Writer, name string) *renderer {
	t.Helper()
	r, err := (&MainConfig{Format: name}).newRenderer(w)
	require.NoError(t, err)
	return r
}

func TestChipsCursor(t *testing.T) {
	staged := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cur := chipsCursor([]chips.ChipInfo{
		{Name: "users", Source: "users.csv", Rows: 2, Columns: 3, StagedAt: staged},
		{Name: "empty"},
	})
	require.Equal(t, 2, cur.RowCount())

	records, err := cur.ToArray()
	require.NoError(t, err)
	assert.Equal(t, resultset.Record{
		"name": "users", "source": "users.csv", "rows": int64(2), "columns": int64(3),
		"staged_at": "2026-03-01T12:00:00Z",
	}, records[0])
	assert.Nil(t, records[1]["source"])
	assert.Nil(t, records[1]["staged_at"])
}

func TestRendererCSVAndJSON(t *testing.T) {
	cur := resultset.New(
		resultset.Schema{{Name: "id", Type: resultset.TypeInt32}, {Name: "name", Type: resultset.TypeUtf8}},
		[]resultset.Row{{resultset.Text("1"), resultset.Text("John")}, {resultset.Text("2"), nil}},
	)

	var csvOut bytes.Buffer
	require.NoError(t, newTestRenderer(t, &csvOut, "csv").cursor("ignored", cur))
	assert.Equal(t, "id,name\n1,John\n2,\n", csvOut.String())

	var jsonOut bytes.Buffer
	require.NoError(t, newTestRenderer(t, &jsonOut, "json").cursor("", cur))
	var got []map[string]any
	require.NoError(t, json.Unmarshal(jsonOut.Bytes(), &got))
	assert.Equal(t, []map[string]any{{"id": 1.0, "name": "John"}, {"id": 2.0, "name": nil}}, got)
}

func TestRendererTableFooter(t *testing.T) {
	cur := resultset.New(resultset.Schema{{Name: "id", Type: resultset.TypeInt32}},
		[]resultset.Row{{resultset.Text("7")}})

	var out bytes.Buffer
	r := newTestRenderer(t, &out, "table")
	require.NoError(t, r.result(&chips.Result{Cursors: []*resultset.Cursor{cur, cur}}, true))
	text := out.String()
	assert.Contains(t, text, "entry 1")
	assert.Contains(t, text, "entry 2")
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("(1 row)")))
	assert.NotContains(t, text, "\x1b[", "no color on a buffer")

	out.Reset()
	require.NoError(t, r.result(&chips.Result{}, false))
	assert.Equal(t, "(no result)\n", out.String())
}

func TestPainter(t *testing.T) {
	var buf bytes.Buffer
	newPainter(&buf, false).errorf(&buf, errors.New("boom"))
	assert.Equal(t, "error: boom\n", buf.String())

	buf.Reset()
	newPainter(&buf, true).errorf(&buf, errors.New("boom"))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "boom")
}

func newTestSession(t *testing.T, format string) (*session, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &session{
		ctx:    t.Context(),
		client: chips.NewWithBackend(chips.NewMockBackend(mock.New())),
		out:    newTestRenderer(t, &out, format),
		log:    newLogger(io.Discard, false),
	}, &out
}

func TestSessionStageQueryDrop(t *testing.T) {
	s, out := newTestSession(t, "csv")
	seed := writeFile(t, "seed.yaml", `
- name: users
  source: users.csv
  schema: [{name: id, type: Int32}, {name: name, type: Utf8}]
  rows: [[1, alice], [2, bob], [3, null]]
`)
	require.NoError(t, s.stage([]string{seed}))
	assert.Contains(t, out.String(), "users,users.csv,3,2,")

	out.Reset()
	require.NoError(t, s.query("users", "SELECT id, name FROM users WHERE id >= 2", false))
	assert.Equal(t, "id,name\n2,bob\n3,\n", out.String())

	out.Reset()
	require.NoError(t, s.listChips())
	assert.Contains(t, out.String(), "users")

	out.Reset()
	require.NoError(t, s.drop([]string{"users"}))
	assert.Equal(t, "dropped users\n", out.String())

	err := s.drop([]string{"users"})
	var svcErr *chips.ServiceError
	require.ErrorAs(t, err, &svcErr)

	err = s.query("users", "SELECT * FROM users", false)
	require.ErrorAs(t, err, &svcErr)
}

func TestSessionStageBadSeed(t *testing.T) {
	s, _ := newTestSession(t, "table")
	seed := writeFile(t, "seed.yaml", "- name: broken\n")
	require.Error(t, s.stage([]string{seed}))
}
