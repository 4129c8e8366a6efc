package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
)

// DefaultChunkSize is the read size used by DecodeReader when none is given.
const DefaultChunkSize = 32 * 1024

// DecodeBytes decodes a fully buffered document. It produces the same tree
// as feeding data to a Decoder.
func DecodeBytes(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &DecodeError{Offset: dec.InputOffset(), Msg: "unexpected end of JSON input", Err: ErrTruncated}
		}
		return nil, &DecodeError{Offset: dec.InputOffset(), Msg: "invalid JSON", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &DecodeError{Offset: dec.InputOffset(), Msg: "invalid character after top-level value"}
	}
	return v, nil
}

// DecodeReader feeds r to a Decoder in chunks of chunkSize bytes. A read
// error or a cancelled ctx aborts the decode.
func DecodeReader(ctx context.Context, r io.Reader, chunkSize int, opts ...Option) (any, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	dec := NewDecoder(opts...)
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			dec.Abort(err)
			return dec.Close()
		}
		n, err := r.Read(buf)
		if n > 0 {
			if ferr := dec.Feed(buf[:n]); ferr != nil {
				return nil, ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return dec.Close()
		}
		if err != nil {
			dec.Abort(err)
			return dec.Close()
		}
	}
}
