// Package jsonstore reads and writes todo lists as files. It understands
// the todos.json written by the local-only tada CLI ({"title","done"}) so
// those lists can be imported into a server, and it writes exports as
// JSON or YAML.
package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/idilsaglam/tada-remote/internal/model"
)

// LegacyFileName is the file the local CLI kept in the working directory.
const LegacyFileName = "todos.json"

// Format selects the encoding for Save.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat accepts json, yaml and yml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unknown format %q (want json or yaml)", s)
}

// FormatFor guesses the format from a file extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSON
}

// record accepts both the legacy and the export shape.
type record struct {
	ID          *int64 `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Completed   *bool  `json:"completed,omitempty" yaml:"completed,omitempty"`
	Done        *bool  `json:"done,omitempty" yaml:"done,omitempty"`
}

func (r record) item() model.Item {
	it := model.Item{ID: r.ID, Title: r.Title, Description: r.Description}
	switch {
	case r.Completed != nil:
		it.Completed = *r.Completed
	case r.Done != nil:
		it.Completed = *r.Done
	}
	return it
}

// Load reads a list from path. A missing file is an empty list.
func Load(path string) ([]model.Item, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Item{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	var recs []record
	switch FormatFor(path) {
	case YAML:
		if err := yaml.Unmarshal(b, &recs); err != nil {
			return nil, fmt.Errorf("yaml unmarshal: %w", err)
		}
	default:
		if err := json.Unmarshal(b, &recs); err != nil {
			return nil, fmt.Errorf("json unmarshal: %w", err)
		}
	}
	items := make([]model.Item, 0, len(recs))
	for _, r := range recs {
		items = append(items, r.item())
	}
	return items, nil
}

// Encode renders items in format.
func Encode(items []model.Item, format Format) ([]byte, error) {
	recs := make([]record, 0, len(items))
	for _, it := range items {
		completed := it.Completed
		recs = append(recs, record{ID: it.ID, Title: it.Title, Description: it.Description, Completed: &completed})
	}
	switch format {
	case YAML:
		b, err := yaml.Marshal(recs)
		if err != nil {
			return nil, fmt.Errorf("yaml marshal: %w", err)
		}
		return b, nil
	default:
		b, err := json.MarshalIndent(recs, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("json marshal: %w", err)
		}
		return append(b, '\n'), nil
	}
}

// Save writes items to path in format.
func Save(path string, items []model.Item, format Format) error {
	b, err := Encode(items, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
