package chips

import (
	"context"

	"github.com/Ratio1/chipstage_sdk_go/internal/devseed"
	"github.com/Ratio1/chipstage_sdk_go/pkg/chips/mock"
)

// MockBackend serves calls from an in-memory mock.Store. Responses are
// encoded and decoded again with the client's decode mode so they take the
// same path as HTTP responses.
type MockBackend struct {
	store *mock.Store
	cfg   config
}

// NewMockBackend wraps store. Only WithDecodeMode and WithChunkSize affect
// the backend.
func NewMockBackend(store *mock.Store, opts ...Option) *MockBackend {
	return &MockBackend{store: store, cfg: newConfig(opts)}
}

func (b *MockBackend) Query(ctx context.Context, req QueryRequest) (any, error) {
	env, err := b.store.Query(ctx, req.Chip, req.SQL)
	return b.roundTrip(ctx, env, err)
}

func (b *MockBackend) Chips(ctx context.Context) (any, error) {
	env, err := b.store.List(ctx)
	return b.roundTrip(ctx, env, err)
}

func (b *MockBackend) Stage(ctx context.Context, req StageRequest) (any, error) {
	env, err := b.store.Stage(ctx, devseed.ChipSeed{
		Name:   req.Name,
		Source: req.Source,
		Schema: req.Schema,
		Rows:   req.Rows,
	})
	return b.roundTrip(ctx, env, err)
}

func (b *MockBackend) Drop(ctx context.Context, name string) (any, error) {
	env, err := b.store.Drop(ctx, name)
	return b.roundTrip(ctx, env, err)
}

func (b *MockBackend) roundTrip(ctx context.Context, env *mock.Envelope, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	body, err := encodedBody(env)
	if err != nil {
		return nil, err
	}
	return decodeBody(ctx, body, b.cfg)
}
