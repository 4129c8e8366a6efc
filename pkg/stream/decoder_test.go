package stream_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ratio1/chipstage_sdk_go/pkg/stream"
)

var validDocs = map[string]string{
	"object":          `{"a":1,"b":[true,false,null],"c":{"d":"x\"y\\zé"}}`,
	"empty object":    `{}`,
	"empty array":     `[]`,
	"top number":      `42`,
	"top string":      `"hello"`,
	"top null":        `null`,
	"padded":          " \n\t{ \"k\" : [ 1 , 2 ] }\r\n ",
	"numbers":         `[0,-0,-0.5e+10,1E3,123456789012345678901234567890,3.25]`,
	"escapes":         `["\b\f\n\r\t\/","Aß東"]`,
	"surrogate pair":  `"😀"`,
	"lone surrogate":  `["\ud800x","\udc00","\ud800A"]`,
	"invalid utf8":    "[\"a\xffb\",\"\xc3\"]",
	"multibyte":       `{"名前":"ジョン","emoji":"😀"}`,
	"duplicate keys":  `{"a":1,"a":2,"b":{"c":1,"c":[3]}}`,
	"nested":          `[[[[[[[[[[1]]]]]]]]]]`,
	"tabular payload": `{"result":[{"schema":[{"name":"id","type":"Int32"}],"rows":[["1"],[null]]}],"error":null}`,
}

func feedAll(t *testing.T, chunks [][]byte) (any, error) {
	t.Helper()
	dec := stream.NewDecoder()
	for _, c := range chunks {
		if err := dec.Feed(c); err != nil {
			return nil, err
		}
	}
	return dec.Close()
}

func singleChunk(doc string) [][]byte {
	return [][]byte{[]byte(doc)}
}

func byteChunks(doc string) [][]byte {
	out := make([][]byte, 0, len(doc))
	for i := 0; i < len(doc); i++ {
		out = append(out, []byte{doc[i]})
	}
	return out
}

func randomChunks(r *rand.Rand, doc string) [][]byte {
	var out [][]byte
	for len(doc) > 0 {
		n := 1 + r.IntN(7)
		if n > len(doc) {
			n = len(doc)
		}
		out = append(out, []byte(doc[:n]))
		doc = doc[n:]
	}
	return out
}

func TestDecoderMatchesBufferedPath(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for name, doc := range validDocs {
		t.Run(name, func(t *testing.T) {
			want, err := stream.DecodeBytes([]byte(doc))
			require.NoError(t, err)

			whole, err := feedAll(t, singleChunk(doc))
			require.NoError(t, err)
			if diff := cmp.Diff(want, whole); diff != "" {
				t.Fatalf("single chunk mismatch (-want +got):\n%s", diff)
			}

			bytewise, err := feedAll(t, byteChunks(doc))
			require.NoError(t, err)
			if diff := cmp.Diff(whole, bytewise); diff != "" {
				t.Fatalf("byte chunks mismatch (-whole +bytewise):\n%s", diff)
			}

			for i := 0; i < 5; i++ {
				got, err := feedAll(t, randomChunks(r, doc))
				require.NoError(t, err)
				if diff := cmp.Diff(whole, got); diff != "" {
					t.Fatalf("random chunks mismatch (-whole +got):\n%s", diff)
				}
			}
		})
	}
}

func TestDecoderTreeShape(t *testing.T) {
	got, err := feedAll(t, byteChunks(`{"a":1,"a":2.5,"s":"x\ud800","n":null,"l":[true]}`))
	require.NoError(t, err)
	want := map[string]any{
		"a": json.Number("2.5"),
		"s": "x\uFFFD",
		"n": nil,
		"l": []any{true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestDecoderLargeTabularPayload(t *testing.T) {
	rows := make([][]*string, 0, 2000)
	for i := 0; i < 2000; i++ {
		v := fmt.Sprintf("value-%d-\"quoted\"-é", i)
		row := []*string{&v, nil}
		rows = append(rows, row)
	}
	payload, err := json.Marshal(map[string]any{
		"result": []any{map[string]any{
			"schema": [][]string{{"name", "Utf8"}, {"note", "Utf8"}},
			"rows":   rows,
		}},
	})
	require.NoError(t, err)

	want, err := stream.DecodeBytes(payload)
	require.NoError(t, err)

	r := rand.New(rand.NewPCG(7, 11))
	got, err := feedAll(t, randomChunks(r, string(payload)))
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestDecoderRejectsInvalidDocuments(t *testing.T) {
	docs := []string{
		``,
		`   `,
		`{"a":}`,
		`[1,]`,
		`{"a":1,}`,
		`01`,
		`-`,
		`1.`,
		`1e+`,
		`tru`,
		`truex`,
		`nul1`,
		`[1 2]`,
		`{"a" 1}`,
		`{1:2}`,
		"\"a\x01\"",
		`"\q"`,
		`"\u12zz"`,
		`1 2`,
		`{}}`,
		`[}`,
		`{]`,
		`[`,
		`{"a":[1,2`,
		`"abc`,
		`["a""b"]`,
		"\xef\xbb\xbf{}",
	}
	for _, doc := range docs {
		t.Run(fmt.Sprintf("%q", doc), func(t *testing.T) {
			_, bufErr := stream.DecodeBytes([]byte(doc))
			require.Error(t, bufErr)

			for _, chunks := range [][][]byte{singleChunk(doc), byteChunks(doc)} {
				_, err := feedAll(t, chunks)
				require.Error(t, err)
				var de *stream.DecodeError
				require.ErrorAs(t, err, &de)
			}
		})
	}
}

func TestDecoderTruncated(t *testing.T) {
	for _, doc := range []string{``, `{"a":[1,2`, `"abc`, `[`, `{"a"`, `{"a":`} {
		_, err := feedAll(t, byteChunks(doc))
		require.ErrorIs(t, err, stream.ErrTruncated, "doc %q", doc)

		_, err = stream.DecodeBytes([]byte(doc))
		require.ErrorIs(t, err, stream.ErrTruncated, "doc %q", doc)
	}
}

func TestDecoderErrorOffset(t *testing.T) {
	_, err := feedAll(t, byteChunks(`[1,x]`))
	var de *stream.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, int64(3), de.Offset)
	assert.Contains(t, de.Error(), "offset 3")
}

func TestDecoderMaxDepth(t *testing.T) {
	dec := stream.NewDecoder(stream.WithMaxDepth(2))
	require.NoError(t, dec.Feed([]byte(`[[1]]`)))
	_, err := dec.Close()
	require.NoError(t, err)

	dec = stream.NewDecoder(stream.WithMaxDepth(2))
	err = dec.Feed([]byte(`[[[1]]]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max depth")
	assert.Equal(t, stream.StateFailed, dec.State())
}

func TestDecoderStates(t *testing.T) {
	dec := stream.NewDecoder()
	assert.Equal(t, stream.StateIdle, dec.State())

	require.NoError(t, dec.Feed([]byte(`{"a"`)))
	assert.Equal(t, stream.StateStreaming, dec.State())
	require.NoError(t, dec.Feed([]byte(`:[1]}`)))
	assert.Equal(t, stream.StateStreaming, dec.State())

	root, err := dec.Close()
	require.NoError(t, err)
	assert.Equal(t, stream.StateComplete, dec.State())
	assert.Equal(t, map[string]any{"a": []any{json.Number("1")}}, root)

	again, err := dec.Close()
	require.NoError(t, err)
	assert.Equal(t, root, again)
	require.ErrorIs(t, dec.Feed([]byte(` `)), stream.ErrClosed)
}

func TestDecoderFailureIsSticky(t *testing.T) {
	dec := stream.NewDecoder()
	first := dec.Feed([]byte(`[1,,`))
	require.Error(t, first)
	assert.Equal(t, stream.StateFailed, dec.State())

	assert.Equal(t, first, dec.Feed([]byte(`2]`)))
	root, err := dec.Close()
	assert.Nil(t, root)
	assert.Equal(t, first, err)

	dec.Abort(errors.New("late"))
	_, err = dec.Close()
	assert.Equal(t, first, err)
}

func TestDecoderAbort(t *testing.T) {
	dec := stream.NewDecoder()
	require.NoError(t, dec.Feed([]byte(`{"rows":[["1"],`)))
	dec.Abort(context.Canceled)
	assert.Equal(t, stream.StateFailed, dec.State())

	root, err := dec.Close()
	assert.Nil(t, root)
	require.ErrorIs(t, err, stream.ErrAborted)
	require.ErrorIs(t, err, context.Canceled)

	require.ErrorIs(t, dec.Feed([]byte(`["2"]]}`)), stream.ErrAborted)

	dec = stream.NewDecoder()
	dec.Abort(nil)
	_, err = dec.Close()
	require.ErrorIs(t, err, stream.ErrAborted)
}

func TestDecoderAbortAfterCompleteKeepsRoot(t *testing.T) {
	dec := stream.NewDecoder()
	require.NoError(t, dec.Feed([]byte(`true`)))
	root, err := dec.Close()
	require.NoError(t, err)

	dec.Abort(context.Canceled)
	assert.Equal(t, stream.StateComplete, dec.State())
	again, err := dec.Close()
	require.NoError(t, err)
	assert.Equal(t, root, again)
}

func TestDecoderEventHook(t *testing.T) {
	var events []stream.Event
	dec := stream.NewDecoder(stream.WithEventHook(func(ev stream.Event) {
		events = append(events, ev)
	}))
	for _, c := range byteChunks(`{"a":[1,"x"],"b":{}}`) {
		require.NoError(t, dec.Feed(c))
	}
	_, err := dec.Close()
	require.NoError(t, err)

	want := []stream.Event{
		{Type: stream.EventBeginObject, Depth: 0},
		{Type: stream.EventKey, Depth: 1, Key: "a"},
		{Type: stream.EventBeginArray, Depth: 1},
		{Type: stream.EventScalar, Depth: 2, Value: json.Number("1")},
		{Type: stream.EventScalar, Depth: 2, Value: "x"},
		{Type: stream.EventEndArray, Depth: 1},
		{Type: stream.EventKey, Depth: 1, Key: "b"},
		{Type: stream.EventBeginObject, Depth: 1},
		{Type: stream.EventEndObject, Depth: 1},
		{Type: stream.EventEndObject, Depth: 0},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeReader(t *testing.T) {
	doc := validDocs["tabular payload"]
	want, err := stream.DecodeBytes([]byte(doc))
	require.NoError(t, err)

	for _, size := range []int{0, 1, 3, 1 << 20} {
		got, err := stream.DecodeReader(context.Background(), strings.NewReader(doc), size)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("chunk size %d mismatch (-want +got):\n%s", size, diff)
		}
	}

	got, err := stream.DecodeReader(context.Background(), iotest.HalfReader(strings.NewReader(doc)), 8)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(want, got))
}

func TestDecodeReaderFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := stream.DecodeReader(ctx, strings.NewReader(`[1]`), 1)
	require.ErrorIs(t, err, stream.ErrAborted)
	require.ErrorIs(t, err, context.Canceled)

	boom := errors.New("connection reset")
	r := iotest.DataErrReader(strings.NewReader(`{"a":`))
	_, err = stream.DecodeReader(context.Background(), &failingReader{r: r, err: boom}, 2)
	require.ErrorIs(t, err, stream.ErrAborted)
	require.ErrorIs(t, err, boom)

	_, err = stream.DecodeReader(context.Background(), strings.NewReader(`{"a":`), 2)
	require.ErrorIs(t, err, stream.ErrTruncated)
}

// failingReader replaces io.EOF from r with err.
type failingReader struct {
	r   io.Reader
	err error
}

func (f *failingReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if err != nil {
		return n, f.err
	}
	return n, nil
}
