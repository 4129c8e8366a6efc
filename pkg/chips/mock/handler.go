package mock

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/Ratio1/chipstage_sdk_go/internal/devseed"
	"github.com/Ratio1/chipstage_sdk_go/pkg/resultset"
)

// HandlerOption configures the HTTP handler returned by NewHandler.
type HandlerOption func(*handler)

// WithChunkSize makes the handler write response bodies in flushed chunks
// of n bytes.
func WithChunkSize(n int) HandlerOption {
	return func(h *handler) {
		h.chunkSize = max(n, 0)
	}
}

// WithLatency delays every request by d.
func WithLatency(d time.Duration) HandlerOption {
	return func(h *handler) {
		h.latency = d
	}
}

// WithFailures answers a fraction rate of requests with status code.
func WithFailures(rate float64, code int) HandlerOption {
	return func(h *handler) {
		h.failRate = rate
		h.failCode = code
	}
}

// WithTruncation aborts every response body after n bytes.
func WithTruncation(n int) HandlerOption {
	return func(h *handler) {
		h.truncateAt = n
	}
}

// WithHandlerLogger logs every request to l.
func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *handler) {
		if l != nil {
			h.log = l
		}
	}
}

type handler struct {
	store      *Store
	mux        *http.ServeMux
	log        *slog.Logger
	chunkSize  int
	latency    time.Duration
	failRate   float64
	failCode   int
	truncateAt int
}

// NewHandler serves store over HTTP with the chipstage wire protocol:
//
//	POST /query {"chip","sql","request_id"}
//	GET  /chips
//	POST /stage {"name","source","schema","rows"}
//	POST /drop  {"name"}
func NewHandler(store *Store, opts ...HandlerOption) http.Handler {
	h := &handler{
		store:    store,
		mux:      http.NewServeMux(),
		log:      slog.New(slog.DiscardHandler),
		failCode: http.StatusInternalServerError,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.mux.HandleFunc("POST /query", h.query)
	h.mux.HandleFunc("GET /chips", h.chips)
	h.mux.HandleFunc("POST /stage", h.stage)
	h.mux.HandleFunc("POST /drop", h.drop)
	return h
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.log.Info("request", "method", r.Method, "path", r.URL.Path, "request_id", r.Header.Get("X-Request-Id"))
	if h.latency > 0 {
		select {
		case <-time.After(h.latency):
		case <-r.Context().Done():
			return
		}
	}
	if h.failRate > 0 && rand.Float64() < h.failRate {
		code := h.failCode
		if code == 0 {
			code = http.StatusInternalServerError
		}
		http.Error(w, "failure injected", code)
		return
	}
	h.mux.ServeHTTP(w, r)
}

func (h *handler) query(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Chip      string `json:"chip"`
		SQL       string `json:"sql"`
		RequestID string `json:"request_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	env, err := h.store.Query(r.Context(), payload.Chip, payload.SQL)
	h.reply(w, env, err)
}

func (h *handler) chips(w http.ResponseWriter, r *http.Request) {
	env, err := h.store.List(r.Context())
	h.reply(w, env, err)
}

func (h *handler) stage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name   string           `json:"name"`
		Source string           `json:"source"`
		Schema resultset.Schema `json:"schema"`
		Rows   []resultset.Row  `json:"rows"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	env, err := h.store.Stage(r.Context(), devseed.ChipSeed{
		Name:   payload.Name,
		Source: payload.Source,
		Schema: payload.Schema,
		Rows:   payload.Rows,
	})
	h.reply(w, env, err)
}

func (h *handler) drop(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	env, err := h.store.Drop(r.Context(), payload.Name)
	h.reply(w, env, err)
}

func (h *handler) reply(w http.ResponseWriter, env *Envelope, err error) {
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	h.write(w, data)
}

// write sends data in flushed chunks and honours the truncation setting.
func (h *handler) write(w http.ResponseWriter, data []byte) {
	truncated := false
	if h.truncateAt > 0 && h.truncateAt < len(data) {
		data, truncated = data[:h.truncateAt], true
	}
	if h.chunkSize <= 0 && !truncated {
		_, _ = w.Write(data)
		return
	}
	flusher, _ := w.(http.Flusher)
	size := h.chunkSize
	if size <= 0 {
		size = len(data)
	}
	r := bytes.NewReader(data)
	buf := make([]byte, size)
	for {
		n, _ := r.Read(buf)
		if n == 0 {
			break
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	if truncated {
		panic(http.ErrAbortHandler)
	}
}
