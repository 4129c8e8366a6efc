// Package devseed loads chip fixtures used to seed the mock store and the
// sandbox server.
//
// A seed file is YAML (or JSON, which YAML accepts) holding either a list of
// chips or a mapping with a "chips" list:
//
//	chips:
//	  - name: users
//	    source: users.csv
//	    schema:
//	      - {name: id, type: Int32}
//	      - {name: name, type: Utf8}
//	    rows:
//	      - [1, John]
//	      - [2, null]
//
// Cells may be written as any scalar; they are stored as text, and null
// stays null.
package devseed

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/Ratio1/chipstage_sdk_go/pkg/resultset"
)

// ChipSeed is one chip fixture.
type ChipSeed struct {
	Name   string
	Source string
	Schema resultset.Schema
	Rows   []resultset.Row
}

type columnDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type chipDoc struct {
	Name   string      `yaml:"name"`
	Source string      `yaml:"source"`
	Schema []columnDoc `yaml:"schema"`
	Rows   [][]any     `yaml:"rows"`
}

type fileDoc struct {
	Chips []chipDoc `yaml:"chips"`
}

// LoadChipSeed reads and validates the seed file at path.
func LoadChipSeed(path string) ([]ChipSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read %s: %w", path, err)
	}
	seeds, err := ParseChipSeed(data)
	if err != nil {
		return nil, fmt.Errorf("devseed: %s: %w", path, err)
	}
	return seeds, nil
}

// ParseChipSeed parses seed file contents.
func ParseChipSeed(data []byte) ([]ChipSeed, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	var docs []chipDoc
	if _, ok := doc.(map[string]any); ok {
		var file fileDoc
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse seed: %w", err)
		}
		docs = file.Chips
	} else if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	seen := make(map[string]bool, len(docs))
	seeds := make([]ChipSeed, 0, len(docs))
	for i, doc := range docs {
		seed, err := doc.toSeed()
		if err != nil {
			return nil, fmt.Errorf("chip %d: %w", i, err)
		}
		key := strings.ToLower(seed.Name)
		if seen[key] {
			return nil, fmt.Errorf("chip %d: duplicate name %q", i, seed.Name)
		}
		seen[key] = true
		seeds = append(seeds, seed)
	}
	return seeds, nil
}

func (d chipDoc) toSeed() (ChipSeed, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return ChipSeed{}, errors.New("name is required")
	}
	if len(d.Schema) == 0 {
		return ChipSeed{}, fmt.Errorf("chip %q: schema is required", name)
	}
	seed := ChipSeed{
		Name:   name,
		Source: d.Source,
		Schema: make(resultset.Schema, len(d.Schema)),
		Rows:   make([]resultset.Row, 0, len(d.Rows)),
	}
	for i, col := range d.Schema {
		if strings.TrimSpace(col.Name) == "" {
			return ChipSeed{}, fmt.Errorf("chip %q: column %d has no name", name, i)
		}
		seed.Schema[i] = resultset.Column{Name: col.Name, Type: col.Type}
	}
	for i, cells := range d.Rows {
		if len(cells) != len(seed.Schema) {
			return ChipSeed{}, fmt.Errorf("chip %q: row %d has %d cells, want %d", name, i, len(cells), len(seed.Schema))
		}
		row := make(resultset.Row, len(cells))
		for j, cell := range cells {
			row[j] = cellText(cell)
		}
		seed.Rows = append(seed.Rows, row)
	}
	return seed, nil
}

func cellText(v any) *string {
	var s string
	switch c := v.(type) {
	case nil:
		return nil
	case string:
		s = c
	case bool:
		s = strconv.FormatBool(c)
	case float64:
		s = strconv.FormatFloat(c, 'g', -1, 64)
	default:
		s = fmt.Sprint(c)
	}
	return &s
}
