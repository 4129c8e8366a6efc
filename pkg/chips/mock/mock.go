// Package mock implements an in-memory chip store that answers with the
// same response envelopes as the chipstage service. It backs the client's
// mock runtime mode and the sandbox server.
package mock

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Ratio1/chipstage_sdk_go/internal/devseed"
	"github.com/Ratio1/chipstage_sdk_go/pkg/resultset"
)

// Envelope is the response shape of every endpoint. A nil Error encodes as
// JSON null.
type Envelope struct {
	Result any     `json:"result"`
	Error  *string `json:"error"`
}

// Failed reports whether the envelope carries an error message.
func (e *Envelope) Failed() bool {
	return e.Error != nil
}

// Entry is one result set of a query.
type Entry struct {
	Schema resultset.Schema `json:"schema"`
	Rows   []resultset.Row  `json:"rows"`
}

// ChipSummary describes a staged chip.
type ChipSummary struct {
	Name     string    `json:"name"`
	Source   string    `json:"source"`
	Rows     int       `json:"rows"`
	Columns  int       `json:"columns"`
	StagedAt time.Time `json:"staged_at"`
}

type chip struct {
	name     string
	source   string
	schema   resultset.Schema
	rows     []resultset.Row
	stagedAt time.Time
}

func (c *chip) summary() ChipSummary {
	return ChipSummary{
		Name:     c.name,
		Source:   c.source,
		Rows:     len(c.rows),
		Columns:  len(c.schema),
		StagedAt: c.stagedAt,
	}
}

// Store is an in-memory chip store safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	chips map[string]*chip
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for staging timestamps.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.now = fn
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		chips: make(map[string]*chip),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed stages every seed, replacing chips with the same name.
func (s *Store) Seed(seeds []devseed.ChipSeed) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seed := range seeds {
		c, err := s.newChip(seed)
		if err != nil {
			return fmt.Errorf("mock chips: %w", err)
		}
		s.chips[key(c.name)] = c
	}
	return nil
}

func (s *Store) newChip(seed devseed.ChipSeed) (*chip, error) {
	name := strings.TrimSpace(seed.Name)
	if name == "" {
		return nil, fmt.Errorf("chip name is required")
	}
	if len(seed.Schema) == 0 {
		return nil, fmt.Errorf("chip %q: schema is required", name)
	}
	rows := make([]resultset.Row, len(seed.Rows))
	for i, row := range seed.Rows {
		if len(row) != len(seed.Schema) {
			return nil, fmt.Errorf("chip %q: row %d has %d cells, want %d", name, i, len(row), len(seed.Schema))
		}
		rows[i] = slices.Clone(row)
	}
	return &chip{
		name:     name,
		source:   seed.Source,
		schema:   slices.Clone(seed.Schema),
		rows:     rows,
		stagedAt: s.now(),
	}, nil
}

// Stage adds or replaces a chip and returns its summary.
func (s *Store) Stage(ctx context.Context, seed devseed.ChipSeed) (*Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.newChip(seed)
	if err != nil {
		return failure("%v", err), nil
	}
	s.chips[key(c.name)] = c
	return &Envelope{Result: c.summary()}, nil
}

// Drop removes a chip.
func (s *Store) Drop(ctx context.Context, name string) (*Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(name)
	if _, ok := s.chips[k]; !ok {
		return failure("chip %q not found", name), nil
	}
	delete(s.chips, k)
	return &Envelope{Result: true}, nil
}

// List returns the summaries of all chips ordered by name.
func (s *Store) List(ctx context.Context) (*Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChipSummary, 0, len(s.chips))
	for _, c := range s.chips {
		out = append(out, c.summary())
	}
	slices.SortFunc(out, func(a, b ChipSummary) int {
		return strings.Compare(a.Name, b.Name)
	})
	return &Envelope{Result: out}, nil
}

// Query runs sql against the named chip. Problems with the chip or the
// statement are reported in the envelope; the returned error is only set
// when ctx is done.
func (s *Store) Query(ctx context.Context, chipName, sql string) (*Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	c, ok := s.chips[key(chipName)]
	s.mu.RUnlock()
	if !ok {
		return failure("chip %q not found", chipName), nil
	}

	q, err := parseQuery(sql)
	if err != nil {
		return failure("%v", err), nil
	}
	if !strings.EqualFold(q.table, c.name) {
		return failure("query reads %q but targets chip %q", q.table, c.name), nil
	}
	entry, err := q.run(ctx, c.schema, c.rows)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return failure("%v", err), nil
	}
	return &Envelope{Result: []Entry{*entry}}, nil
}

func failure(format string, args ...any) *Envelope {
	msg := fmt.Sprintf(format, args...)
	return &Envelope{Error: &msg}
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
