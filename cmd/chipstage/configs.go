package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/scott-cotton/cli"

	"github.com/Ratio1/chipstage_sdk_go/pkg/chips"
	"github.com/Ratio1/chipstage_sdk_go/pkg/resultset/format"
)

type MainConfig struct {
	ConfigFile string `cli:"name=config desc='YAML profile (base_url, timeout, max_retries, decode, chunk_size, headers)'"`
	URL        string `cli:"name=url desc='service base URL, overrides the profile and CHIPSTAGE_API_URL'"`
	Format     string `cli:"name=format aliases=f desc='output format: table, csv or json' default=table"`
	Types      bool   `cli:"name=types desc='show column types in table output'"`
	Decode     string `cli:"name=decode desc='response decoding: stream or buffered'"`
	Color      bool   `cli:"name=color desc='force colored output'"`
	Verbose    bool   `cli:"name=v desc='verbose logging'"`

	Main *cli.Command
}

type QueryConfig struct {
	*MainConfig
	All bool `cli:"name=all aliases=a desc='print every returned entry, not only the first'"`

	Query *cli.Command
}

type ChipsConfig struct {
	*MainConfig
	Chips *cli.Command
}

type StageConfig struct {
	*MainConfig
	Stage *cli.Command
}

type DropConfig struct {
	*MainConfig
	Drop *cli.Command
}

// Profile is the on-disk client configuration read with -config.
type Profile struct {
	BaseURL    string            `yaml:"base_url"`
	Timeout    string            `yaml:"timeout"`
	MaxRetries *int              `yaml:"max_retries"`
	Decode     string            `yaml:"decode"`
	ChunkSize  int               `yaml:"chunk_size"`
	Headers    map[string]string `yaml:"headers"`

	timeout time.Duration
}

func loadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	p, err := parseProfile(data)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

func parseProfile(data []byte) (*Profile, error) {
	p := &Profile{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, err
	}
	p.BaseURL = strings.TrimSpace(p.BaseURL)
	if p.Timeout != "" {
		d, err := time.ParseDuration(p.Timeout)
		if err != nil {
			return nil, fmt.Errorf("timeout: %w", err)
		}
		if d < 0 {
			return nil, errors.New("timeout must not be negative")
		}
		p.timeout = d
	}
	if p.MaxRetries != nil && *p.MaxRetries < 0 {
		return nil, errors.New("max_retries must not be negative")
	}
	if p.ChunkSize < 0 {
		return nil, errors.New("chunk_size must not be negative")
	}
	if _, err := chips.ParseDecodeMode(p.Decode); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Profile) header() http.Header {
	if len(p.Headers) == 0 {
		return nil
	}
	h := make(http.Header, len(p.Headers))
	for k, v := range p.Headers {
		h.Set(k, v)
	}
	return h
}

func (cfg *MainConfig) formatter() (format.Formatter, error) {
	f, err := format.ByName(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	if t, ok := f.(*format.Table); ok {
		t.Types = cfg.Types
	}
	return f, nil
}
