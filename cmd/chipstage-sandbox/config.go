package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/scott-cotton/cli"
)

type SandboxConfig struct {
	Addr     string `cli:"name=addr desc='listen address' default=:8787"`
	Seed     string `cli:"name=seed desc='chip seed file (yaml or json)'"`
	Chunk    int    `cli:"name=chunk desc='bytes per flushed response write (0 writes whole bodies)'"`
	Truncate int    `cli:"name=truncate desc='abort response bodies after n bytes'"`
	Verbose  bool   `cli:"name=v desc='log every request'"`

	Latency time.Duration
	Fail    failConfig

	Main *cli.Command
}

type failConfig struct {
	rate float64
	code int
}

func (cfg *SandboxConfig) latencyOpt(_ *cli.Context, a string) (any, error) {
	d, err := time.ParseDuration(a)
	if err != nil {
		return nil, fmt.Errorf("%w: latency: %w", cli.ErrUsage, err)
	}
	cfg.Latency = d
	return d, nil
}

func (cfg *SandboxConfig) failOpt(_ *cli.Context, a string) (any, error) {
	fc, err := parseFailConfig(a)
	if err != nil {
		return nil, fmt.Errorf("%w: fail: %w", cli.ErrUsage, err)
	}
	cfg.Fail = fc
	return fc, nil
}

// parseFailConfig reads "rate=<float>,code=<status>". An empty string
// disables failure injection.
func parseFailConfig(raw string) (failConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return failConfig{}, nil
	}
	cfg := failConfig{code: http.StatusInternalServerError}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return failConfig{}, fmt.Errorf("invalid fail segment %q", part)
		}
		val = strings.TrimSpace(val)
		switch strings.TrimSpace(key) {
		case "rate":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return failConfig{}, err
			}
			if f < 0 || f > 1 {
				return failConfig{}, fmt.Errorf("rate %v out of range [0,1]", f)
			}
			cfg.rate = f
		case "code":
			n, err := strconv.Atoi(val)
			if err != nil {
				return failConfig{}, err
			}
			if n < 100 || n > 599 {
				return failConfig{}, fmt.Errorf("invalid status code %d", n)
			}
			cfg.code = n
		default:
			return failConfig{}, fmt.Errorf("unknown fail key %q", key)
		}
	}
	return cfg, nil
}
