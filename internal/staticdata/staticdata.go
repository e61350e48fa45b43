// Package staticdata loads the hardcoded menu table and the external
// location list from YAML.
package staticdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/dining-data-service/internal/domain"
)

//go:embed static.yaml
var defaultYAML []byte

// Tables holds parsed static data. It is read-only after construction.
type Tables struct {
	menus    map[string]domain.Menu
	external []json.RawMessage
}

type document struct {
	Menus    map[string][]domain.MenuCategory `yaml:"menus"`
	External []map[string]any               `yaml:"external"`
}

// Default parses the tables compiled into the binary.
func Default() (*Tables, error) {
	return Parse(defaultYAML)
}

// Load parses the file at path, or the compiled-in tables when path is empty.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read static data: %w", err)
	}
	return Parse(data)
}

// Parse decodes a static data document. External records are re-encoded as
// JSON so they go through the same decoder as feed records.
func Parse(data []byte) (*Tables, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse static data: %w", err)
	}

	t := &Tables{
		menus:    make(map[string]domain.Menu, len(doc.Menus)),
		external: make([]json.RawMessage, 0, len(doc.External)),
	}
	for slug, categories := range doc.Menus {
		t.menus[slug] = domain.Menu(categories)
	}
	for i, rec := range doc.External {
		if slug, _ := rec["slug"].(string); slug == "" {
			return nil, fmt.Errorf("external record %d: slug is required", i)
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encode external record %d: %w", i, err)
		}
		t.external = append(t.external, raw)
	}
	return t, nil
}

// HardcodedMenu returns the fallback menu for slug, or nil.
func (t *Tables) HardcodedMenu(slug string) domain.Menu {
	return t.menus[slug]
}

// ExternalRecords returns the external locations in file order.
func (t *Tables) ExternalRecords() []json.RawMessage {
	return slices.Clone(t.external)
}

// MenuSlugs lists the slugs that have a fallback menu.
func (t *Tables) MenuSlugs() []string {
	out := make([]string, 0, len(t.menus))
	for slug := range t.menus {
		out = append(out, slug)
	}
	slices.Sort(out)
	return out
}
