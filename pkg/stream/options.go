package stream

// DefaultMaxDepth bounds the nesting of arrays and objects.
const DefaultMaxDepth = 10000

// Option configures a Decoder.
type Option func(*decoderOpts)

type decoderOpts struct {
	maxDepth int
	hook     func(Event)
}

// WithMaxDepth limits how deeply arrays and objects may nest.
func WithMaxDepth(n int) Option {
	return func(o *decoderOpts) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// WithEventHook registers fn to observe every structural event before it is
// applied to the tree.
func WithEventHook(fn func(Event)) Option {
	return func(o *decoderOpts) {
		o.hook = fn
	}
}
