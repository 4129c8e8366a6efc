package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated is wrapped by decode errors caused by a body that ended
	// before the document was complete.
	ErrTruncated = errors.New("stream: unexpected end of input")
	// ErrAborted is wrapped by decode errors caused by Abort.
	ErrAborted = errors.New("stream: decode aborted")
	// ErrClosed is returned when feeding a decoder that already completed.
	ErrClosed = errors.New("stream: decoder already completed")
)

// DecodeError reports a failed decode. Offset counts the bytes consumed
// before the failure.
type DecodeError struct {
	Offset int64
	Msg    string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stream: %s at offset %d: %v", e.Msg, e.Offset, e.Err)
	}
	return fmt.Sprintf("stream: %s at offset %d", e.Msg, e.Offset)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
