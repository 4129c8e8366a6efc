package chips

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/Ratio1/chipstage_sdk_go/internal/httpx"
	"github.com/Ratio1/chipstage_sdk_go/pkg/stream"
)

// Backend performs the calls of the chipstage API. Each method returns the
// decoded response envelope.
type Backend interface {
	Query(ctx context.Context, req QueryRequest) (any, error)
	Chips(ctx context.Context) (any, error)
	Stage(ctx context.Context, req StageRequest) (any, error)
	Drop(ctx context.Context, name string) (any, error)
}

type httpBackend struct {
	client *httpx.Client
	cfg    config
}

func (b *httpBackend) Query(ctx context.Context, req QueryRequest) (any, error) {
	return b.post(ctx, "query", req.RequestID, req)
}

func (b *httpBackend) Chips(ctx context.Context) (any, error) {
	if b == nil || b.client == nil {
		return nil, fmt.Errorf("chips: http backend not configured")
	}
	resp, err := b.client.Do(ctx, &httpx.Request{Method: http.MethodGet, Path: "chips"})
	if err != nil {
		return nil, err
	}
	return decodeBody(ctx, resp.Body, b.cfg)
}

func (b *httpBackend) Stage(ctx context.Context, req StageRequest) (any, error) {
	return b.post(ctx, "stage", "", req)
}

func (b *httpBackend) Drop(ctx context.Context, name string) (any, error) {
	return b.post(ctx, "drop", "", map[string]string{"name": name})
}

func (b *httpBackend) post(ctx context.Context, path, id string, payload any) (any, error) {
	if b == nil || b.client == nil {
		return nil, fmt.Errorf("chips: http backend not configured")
	}
	body, ctype, err := httpx.JSONBody(payload)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(ctx, &httpx.Request{
		Method: http.MethodPost,
		Path:   path,
		ID:     id,
		Header: http.Header{"Content-Type": []string{ctype}},
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	return decodeBody(ctx, resp.Body, b.cfg)
}

// decodeBody decodes and closes body according to the configured mode.
func decodeBody(ctx context.Context, body io.ReadCloser, cfg config) (any, error) {
	if cfg.decode == DecodeBuffered {
		data, err := httpx.ReadAllAndClose(body)
		if err != nil {
			return nil, fmt.Errorf("chips: read response: %w", err)
		}
		return stream.DecodeBytes(data)
	}
	dec := stream.NewDecoder()
	if err := httpx.PumpChunks(ctx, body, cfg.chunkSize, dec); err != nil {
		cfg.log.Debug("response stream aborted", "err", err)
	}
	return dec.Close()
}

// encodedBody is used by in-process backends to push a value through the
// same decoding path as an HTTP response.
func encodedBody(v any) (io.ReadCloser, error) {
	r, _, err := httpx.JSONBody(v)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(r), nil
}
