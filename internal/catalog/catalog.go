// Package catalog holds the fixed set of dispatchable models and their
// display metadata.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// ModelInfo describes one dispatchable model
type ModelInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"desc"`
}

// Catalog is the set of models a submission may select from
type Catalog struct {
	models []ModelInfo
	byID   map[string]ModelInfo
}

// DefaultModels is the built-in model set served when no models.json override
// is provided.
var DefaultModels = []ModelInfo{
	{ID: "gpt4o", Title: "GPT-4o", Description: "High-capacity LLM"},
	{ID: "gpt4o-mini", Title: "GPT-4o Mini", Description: "Fast, cheap LLM"},
	{ID: "whisper", Title: "Whisper", Description: "Audio → Text"},
	{ID: "gpt4o-vision", Title: "Vision", Description: "Image understanding"},
}

// New builds a catalog from an explicit model list
func New(models []ModelInfo) (*Catalog, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("catalog requires at least one model")
	}

	byID := make(map[string]ModelInfo, len(models))
	for _, m := range models {
		if m.ID == "" {
			return nil, fmt.Errorf("catalog entry missing id")
		}
		if _, dup := byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog entry: %s", m.ID)
		}
		byID[m.ID] = m
	}

	return &Catalog{models: models, byID: byID}, nil
}

// Default returns the built-in catalog
func Default() *Catalog {
	c, err := New(DefaultModels)
	if err != nil {
		// DefaultModels is a compile-time constant set; this cannot happen
		panic(err)
	}
	return c
}

// LoadFile reads a catalog from a JSON file holding a ModelInfo array
func LoadFile(filePath string) (*Catalog, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var models []ModelInfo
	if err := json.Unmarshal(data, &models); err != nil {
		return nil, fmt.Errorf("invalid catalog file %s: %w", filePath, err)
	}

	return New(models)
}

// List returns all models in declaration order
func (c *Catalog) List() []ModelInfo {
	out := make([]ModelInfo, len(c.models))
	copy(out, c.models)
	return out
}

// Get looks up a model by identifier
func (c *Catalog) Get(id string) (ModelInfo, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// TitleFor returns the display title for a model id, falling back to the id
// for entries outside the catalog.
func (c *Catalog) TitleFor(id string) string {
	if m, ok := c.byID[id]; ok {
		return m.Title
	}
	return id
}

// Contains reports whether every given id is in the catalog
func (c *Catalog) Contains(ids ...string) bool {
	for _, id := range ids {
		if _, ok := c.byID[id]; !ok {
			return false
		}
	}
	return true
}

// Size returns the number of models in the catalog
func (c *Catalog) Size() int {
	return len(c.models)
}
