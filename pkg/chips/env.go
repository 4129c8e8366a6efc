package chips

import (
	"fmt"
	"os"
	"strings"

	"github.com/Ratio1/chipstage_sdk_go/internal/devseed"
	"github.com/Ratio1/chipstage_sdk_go/pkg/chips/mock"
)

// Environment variables read by NewFromEnv.
const (
	EnvRuntimeMode = "CHIPSTAGE_RUNTIME_MODE"
	EnvAPIURL      = "CHIPSTAGE_API_URL"
	EnvMockSeed    = "CHIPSTAGE_MOCK_SEED"
	EnvDecode      = "CHIPSTAGE_DECODE"
)

const (
	modeAuto = "auto"
	modeHTTP = "http"
	modeMock = "mock"
)

// NewFromEnv initialises a Client from CHIPSTAGE_* environment variables and
// returns the resolved mode ("http" or "mock"). In auto mode the HTTP
// backend is used whenever CHIPSTAGE_API_URL is set.
func NewFromEnv(opts ...Option) (client *Client, mode string, err error) {
	mode = strings.ToLower(strings.TrimSpace(os.Getenv(EnvRuntimeMode)))
	baseURL := strings.TrimSpace(os.Getenv(EnvAPIURL))

	decode, err := ParseDecodeMode(os.Getenv(EnvDecode))
	if err != nil {
		return nil, "", err
	}
	opts = append([]Option{WithDecodeMode(decode)}, opts...)

	switch mode {
	case "", modeAuto:
		if baseURL != "" {
			return newHTTPClient(baseURL, opts)
		}
		return newMockClient(opts)
	case modeHTTP:
		if baseURL == "" {
			return nil, "", fmt.Errorf("chips: HTTP mode requires %s", EnvAPIURL)
		}
		return newHTTPClient(baseURL, opts)
	case modeMock:
		return newMockClient(opts)
	default:
		return nil, "", fmt.Errorf("chips: unsupported %s value %q", EnvRuntimeMode, mode)
	}
}

func newHTTPClient(baseURL string, opts []Option) (*Client, string, error) {
	client, err := New(baseURL, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("chips: init HTTP client: %w", err)
	}
	cfg := newConfig(opts)
	cfg.log.Debug("using chipstage service", "url", baseURL, "decode", cfg.decode)
	return client, modeHTTP, nil
}

func newMockClient(opts []Option) (*Client, string, error) {
	store := mock.New()
	if path := strings.TrimSpace(os.Getenv(EnvMockSeed)); path != "" {
		seeds, err := devseed.LoadChipSeed(path)
		if err != nil {
			return nil, "", fmt.Errorf("chips: load mock seed: %w", err)
		}
		if err := store.Seed(seeds); err != nil {
			return nil, "", fmt.Errorf("chips: apply mock seed: %w", err)
		}
	}
	cfg := newConfig(opts)
	cfg.log.Debug("using in-memory chip store", "seed", os.Getenv(EnvMockSeed))
	return NewWithBackend(NewMockBackend(store, opts...), opts...), modeMock, nil
}
