// Package chips is a client for the chipstage service, which stages tabular
// data sets ("chips") and answers SQL queries over them.
//
// Query results arrive as one or more entries, each exposed as a
// resultset.Cursor. Response bodies are decoded incrementally by default
// (see package stream) so a large result never has to exist as one
// contiguous buffer; WithDecodeMode(DecodeBuffered) reads the whole body
// first instead. Both paths produce identical results.
//
// NewFromEnv selects between the HTTP service and an in-memory mock using
// CHIPSTAGE_RUNTIME_MODE, CHIPSTAGE_API_URL, CHIPSTAGE_MOCK_SEED and
// CHIPSTAGE_DECODE.
package chips
