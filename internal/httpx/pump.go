package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
)

// DefaultChunkSize is the read size used by PumpChunks when none is given.
const DefaultChunkSize = 32 * 1024

// Sink consumes a body chunk by chunk. stream.Decoder implements it.
type Sink interface {
	Feed(chunk []byte) error
	Abort(cause error)
}

// PumpChunks reads body in chunks of up to chunkSize bytes and feeds them to
// sink in arrival order. Reading and feeding run on separate goroutines so a
// slow sink does not stall the connection for longer than the buffered
// chunks allow. If reading fails or ctx is cancelled, sink is aborted with
// the cause. body is closed before PumpChunks returns.
func PumpChunks(ctx context.Context, body io.ReadCloser, chunkSize int, sink Sink) error {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	defer closeBody(body)

	g, gctx := errgroup.WithContext(ctx)
	// Unblocks a pending Read once the group is done or cancelled.
	stop := context.AfterFunc(gctx, func() { closeBody(body) })
	defer stop()

	chunks := make(chan []byte, 4)
	g.Go(func() error {
		defer close(chunks)
		for {
			buf := make([]byte, chunkSize)
			n, err := body.Read(buf)
			if n > 0 {
				select {
				case chunks <- buf[:n]:
				case <-gctx.Done():
					return context.Cause(gctx)
				}
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				return fmt.Errorf("httpx: read body: %w", err)
			}
		}
	})
	g.Go(func() error {
		for chunk := range chunks {
			if err := sink.Feed(chunk); err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		sink.Abort(err)
		return err
	}
	return nil
}
