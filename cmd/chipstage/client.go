package main

import (
	"fmt"
	"log/slog"

	"github.com/Ratio1/chipstage_sdk_go/internal/httpx"
	"github.com/Ratio1/chipstage_sdk_go/pkg/chips"
)

// newClient resolves the service endpoint from -url, then the profile, then
// the CHIPSTAGE_* environment.
func (cfg *MainConfig) newClient(log *slog.Logger) (*chips.Client, string, error) {
	p := &Profile{}
	if cfg.ConfigFile != "" {
		var err error
		if p, err = loadProfile(cfg.ConfigFile); err != nil {
			return nil, "", err
		}
	}

	opts := []chips.Option{chips.WithLogger(log)}
	decode := p.Decode
	if cfg.Decode != "" {
		decode = cfg.Decode
	}
	if decode != "" {
		m, err := chips.ParseDecodeMode(decode)
		if err != nil {
			return nil, "", err
		}
		opts = append(opts, chips.WithDecodeMode(m))
	}
	if p.ChunkSize > 0 {
		opts = append(opts, chips.WithChunkSize(p.ChunkSize))
	}

	baseURL := cfg.URL
	if baseURL == "" {
		baseURL = p.BaseURL
	}
	if baseURL == "" {
		return chips.NewFromEnv(opts...)
	}

	client, err := chips.New(baseURL, append(opts, chips.WithHTTPOptions(p.httpOptions()...))...)
	if err != nil {
		return nil, "", fmt.Errorf("init HTTP client: %w", err)
	}
	return client, "http", nil
}

func (p *Profile) httpOptions() []httpx.Option {
	var opts []httpx.Option
	if p.timeout > 0 {
		opts = append(opts, httpx.WithTimeout(p.timeout))
	}
	if h := p.header(); h != nil {
		opts = append(opts, httpx.WithHeaders(h))
	}
	if p.MaxRetries != nil {
		policy := httpx.DefaultRetryPolicy
		policy.MaxRetries = *p.MaxRetries
		opts = append(opts, httpx.WithRetryPolicy(policy))
	}
	return opts
}
