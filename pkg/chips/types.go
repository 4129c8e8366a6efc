package chips

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ratio1/chipstage_sdk_go/pkg/resultset"
)

// DecodeMode selects how response bodies are decoded.
type DecodeMode int

const (
	// DecodeStream feeds the body to a streaming decoder chunk by chunk.
	DecodeStream DecodeMode = iota
	// DecodeBuffered reads the whole body before decoding it.
	DecodeBuffered
)

func (m DecodeMode) String() string {
	if m == DecodeBuffered {
		return "buffered"
	}
	return "stream"
}

// ParseDecodeMode parses "stream" or "buffered". The empty string selects
// DecodeStream.
func ParseDecodeMode(s string) (DecodeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stream":
		return DecodeStream, nil
	case "buffered":
		return DecodeBuffered, nil
	default:
		return DecodeStream, fmt.Errorf("chips: unknown decode mode %q", s)
	}
}

// QueryRequest is the body of a query call.
type QueryRequest struct {
	Chip      string `json:"chip"`
	SQL       string `json:"sql"`
	RequestID string `json:"request_id,omitempty"`
}

// StageRequest uploads a chip.
type StageRequest struct {
	Name   string           `json:"name"`
	Source string           `json:"source,omitempty"`
	Schema resultset.Schema `json:"schema"`
	Rows   []resultset.Row  `json:"rows"`
}

// ChipInfo describes a staged chip.
type ChipInfo struct {
	Name     string    `json:"name"`
	Source   string    `json:"source"`
	Rows     int       `json:"rows"`
	Columns  int       `json:"columns"`
	StagedAt time.Time `json:"staged_at"`
}

// Result holds the cursors of one query, one per returned entry.
type Result struct {
	RequestID string
	Cursors   []*resultset.Cursor
}

// First returns the first cursor, or nil when the query returned no entry.
func (r *Result) First() *resultset.Cursor {
	if r == nil || len(r.Cursors) == 0 {
		return nil
	}
	return r.Cursors[0]
}

// ServiceError is an error reported by the service inside a successful
// response.
type ServiceError struct {
	Op        string
	Message   string
	RequestID string
}

func (e *ServiceError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("chips: %s failed (request %s): %s", e.Op, e.RequestID, e.Message)
	}
	return fmt.Sprintf("chips: %s failed: %s", e.Op, e.Message)
}

var (
	// ErrChipRequired is returned when a chip name is empty.
	ErrChipRequired = errors.New("chips: chip name is required")
	// ErrSQLRequired is returned for an empty query.
	ErrSQLRequired = errors.New("chips: sql is required")
	// ErrSchemaRequired is returned when staging a chip without columns.
	ErrSchemaRequired = errors.New("chips: schema is required")
	// ErrNilClient is returned by methods called on an unconfigured client.
	ErrNilClient = errors.New("chips: client is nil")
)
