package chips

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Ratio1/chipstage_sdk_go/internal/chipapi"
	"github.com/Ratio1/chipstage_sdk_go/internal/httpx"
	"github.com/Ratio1/chipstage_sdk_go/pkg/resultset"
)

// Client provides access to the chipstage API.
type Client struct {
	backend Backend
	log     *slog.Logger
}

type config struct {
	log       *slog.Logger
	decode    DecodeMode
	chunkSize int
	httpOpts  []httpx.Option
}

func newConfig(opts []Option) config {
	cfg := config{
		log:       slog.New(slog.DiscardHandler),
		chunkSize: httpx.DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures a Client.
type Option func(*config)

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithDecodeMode selects streaming or buffered decoding of response bodies.
func WithDecodeMode(m DecodeMode) Option {
	return func(c *config) {
		c.decode = m
	}
}

// WithChunkSize sets the read size used by streaming decoding.
func WithChunkSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithHTTPOptions passes options to the HTTP client built by New. The
// client's logger is used unless one of opts sets another.
func WithHTTPOptions(opts ...httpx.Option) Option {
	return func(c *config) {
		c.httpOpts = append(c.httpOpts, opts...)
	}
}

// New constructs a Client bound to the provided base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := newConfig(opts)
	httpOpts := append([]httpx.Option{httpx.WithLogger(cfg.log)}, cfg.httpOpts...)
	cl, err := httpx.NewClient(baseURL, httpOpts...)
	if err != nil {
		return nil, err
	}
	return NewWithHTTPClient(cl, opts...), nil
}

// NewWithHTTPClient wraps an existing httpx.Client.
func NewWithHTTPClient(httpClient *httpx.Client, opts ...Option) *Client {
	cfg := newConfig(opts)
	return &Client{
		backend: &httpBackend{client: httpClient, cfg: cfg},
		log:     cfg.log,
	}
}

// NewWithBackend allows callers to supply a custom backend (e.g., mocks).
func NewWithBackend(b Backend, opts ...Option) *Client {
	cfg := newConfig(opts)
	return &Client{backend: b, log: cfg.log}
}

// Query runs sql against chip. A service-reported failure is returned as a
// *ServiceError.
func (c *Client) Query(ctx context.Context, chip, sql string) (*Result, error) {
	if strings.TrimSpace(chip) == "" {
		return nil, ErrChipRequired
	}
	if strings.TrimSpace(sql) == "" {
		return nil, ErrSQLRequired
	}
	if c == nil || c.backend == nil {
		return nil, ErrNilClient
	}

	req := QueryRequest{Chip: chip, SQL: sql, RequestID: uuid.NewString()}
	log := c.log.With("chip", chip, "request_id", req.RequestID)
	root, err := c.backend.Query(ctx, req)
	if err != nil {
		log.Error("query failed", "err", err)
		return nil, fmt.Errorf("chips: query %s: %w", chip, err)
	}
	if msg, ok := chipapi.BusinessError(root); ok {
		log.Warn("query rejected", "error", msg)
		return nil, &ServiceError{Op: "query", Message: msg, RequestID: req.RequestID}
	}
	resp, err := chipapi.ParseQuery(root)
	if err != nil {
		return nil, fmt.Errorf("chips: query %s: %w", chip, err)
	}

	out := &Result{RequestID: req.RequestID, Cursors: make([]*resultset.Cursor, len(resp.Entries))}
	rows := 0
	for i, entry := range resp.Entries {
		out.Cursors[i] = entry.Cursor()
		rows += len(entry.Rows)
	}
	log.Debug("query done", "entries", len(out.Cursors), "rows", rows)
	return out, nil
}

// Chips lists the staged chips.
func (c *Client) Chips(ctx context.Context) ([]ChipInfo, error) {
	if c == nil || c.backend == nil {
		return nil, ErrNilClient
	}
	root, err := c.backend.Chips(ctx)
	if err != nil {
		return nil, fmt.Errorf("chips: list: %w", err)
	}
	if msg, ok := chipapi.BusinessError(root); ok {
		return nil, &ServiceError{Op: "list", Message: msg}
	}
	var out []ChipInfo
	if err := chipapi.DecodeResult(root, &out); err != nil {
		return nil, fmt.Errorf("chips: decode chip list: %w", err)
	}
	return out, nil
}

// Stage uploads a chip, replacing any chip with the same name.
func (c *Client) Stage(ctx context.Context, req StageRequest) (*ChipInfo, error) {
	if err := validateStage(req); err != nil {
		return nil, err
	}
	if c == nil || c.backend == nil {
		return nil, ErrNilClient
	}
	root, err := c.backend.Stage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chips: stage %s: %w", req.Name, err)
	}
	if msg, ok := chipapi.BusinessError(root); ok {
		return nil, &ServiceError{Op: "stage", Message: msg}
	}
	var info ChipInfo
	if err := chipapi.DecodeResult(root, &info); err != nil {
		return nil, fmt.Errorf("chips: decode stage result: %w", err)
	}
	c.log.Info("chip staged", "chip", info.Name, "rows", info.Rows)
	return &info, nil
}

// Drop removes a chip.
func (c *Client) Drop(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrChipRequired
	}
	if c == nil || c.backend == nil {
		return ErrNilClient
	}
	root, err := c.backend.Drop(ctx, name)
	if err != nil {
		return fmt.Errorf("chips: drop %s: %w", name, err)
	}
	if msg, ok := chipapi.BusinessError(root); ok {
		return &ServiceError{Op: "drop", Message: msg}
	}
	return nil
}

func validateStage(req StageRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return ErrChipRequired
	}
	if len(req.Schema) == 0 {
		return ErrSchemaRequired
	}
	for i, row := range req.Rows {
		if len(row) != len(req.Schema) {
			return fmt.Errorf("chips: row %d has %d cells, want %d", i, len(row), len(req.Schema))
		}
	}
	return nil
}
