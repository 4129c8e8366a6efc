package stream

// DecoderState is the lifecycle state of a Decoder.
type DecoderState int

const (
	StateIdle DecoderState = iota
	StateStreaming
	StateComplete
	StateFailed
)

func (s DecoderState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Decoder is a push-driven JSON decoder for a single document.
//
// A Decoder is not safe for concurrent use; chunks must be fed in arrival
// order from one goroutine.
type Decoder struct {
	state DecoderState
	scan  *scanner
	build *builder
	root  any
	err   error
}

// NewDecoder returns a decoder in the Idle state.
func NewDecoder(opts ...Option) *Decoder {
	o := decoderOpts{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	d := &Decoder{build: &builder{}}
	hook := o.hook
	d.scan = newScanner(o.maxDepth, func(ev Event) error {
		if hook != nil {
			hook(ev)
		}
		return d.build.WriteEvent(ev)
	})
	return d
}

// State reports the decoder's lifecycle state.
func (d *Decoder) State() DecoderState {
	return d.state
}

// Feed consumes the next chunk of the document. The chunk is not retained
// after Feed returns. Once the decoder has failed, Feed returns the same
// error without consuming anything.
func (d *Decoder) Feed(chunk []byte) error {
	switch d.state {
	case StateFailed:
		return d.err
	case StateComplete:
		return ErrClosed
	}
	d.state = StateStreaming
	if err := d.scan.feed(chunk); err != nil {
		return d.fail(err)
	}
	return nil
}

// Close signals the end of the input and returns the root value. It fails
// unless exactly one complete value was read.
func (d *Decoder) Close() (any, error) {
	switch d.state {
	case StateFailed:
		return nil, d.err
	case StateComplete:
		return d.root, nil
	}
	if err := d.scan.finish(); err != nil {
		return nil, d.fail(err)
	}
	root, err := d.build.result()
	if err != nil {
		return nil, d.fail(d.scan.truncated())
	}
	d.state = StateComplete
	d.root = root
	d.scan, d.build = nil, nil
	return root, nil
}

// Abort fails the decode because the input cannot be completed, for
// example after a transport error or cancellation. Aborting a decoder that
// already completed or failed has no effect.
func (d *Decoder) Abort(cause error) {
	if d.state == StateComplete || d.state == StateFailed {
		return
	}
	err := ErrAborted
	if cause != nil {
		err = &abortError{cause: cause}
	}
	d.fail(&DecodeError{Offset: d.scan.offset, Msg: "aborted", Err: err})
}

func (d *Decoder) fail(err error) error {
	d.state = StateFailed
	d.err = err
	d.scan, d.build = nil, nil
	return err
}

// abortError matches both ErrAborted and its cause.
type abortError struct {
	cause error
}

func (e *abortError) Error() string {
	return ErrAborted.Error() + ": " + e.cause.Error()
}

func (e *abortError) Unwrap() []error {
	return []error{ErrAborted, e.cause}
}
