package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/rlch/graphplan"
)

var (
	// ErrDuplicateIntent is returned by Validate when two intents share an id.
	ErrDuplicateIntent = errors.New("duplicate intent id")
	// ErrTemplateParams is returned by Validate when a template does not bind
	// exactly the value parameter.
	ErrTemplateParams = errors.New("template must bind exactly one $value parameter")
)

// Catalog is the ordered, read-only set of intents served to the planner.
type Catalog struct {
	Version      string    `json:"version"`
	GeneratedAt  string    `json:"generated_at"`
	TotalIntents int       `json:"total_intents"`
	Intents      []*Intent `json:"intents"`

	byID map[string]*Intent
}

// New builds a catalog over intents, keeping their order.
func New(version, generatedAt string, intents []*Intent) *Catalog {
	c := &Catalog{
		Version:      version,
		GeneratedAt:  generatedAt,
		TotalIntents: len(intents),
		Intents:      intents,
	}
	c.reindex()

	return c
}

// Empty returns a catalog with no intents.
func Empty() *Catalog {
	return New("", "", nil)
}

func (c *Catalog) reindex() {
	c.byID = make(map[string]*Intent, len(c.Intents))
	for _, in := range c.Intents {
		if _, dup := c.byID[in.ID]; !dup {
			c.byID[in.ID] = in
		}
	}
}

// Len returns the number of intents.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}

	return len(c.Intents)
}

// Lookup returns the intent with the given id.
func (c *Catalog) Lookup(id string) (*Intent, bool) {
	if c == nil {
		return nil, false
	}

	in, ok := c.byID[id]

	return in, ok
}

// Template returns the query template of the intent with the given id.
func (c *Catalog) Template(id string) (string, bool) {
	in, ok := c.Lookup(id)
	if !ok || in.Template == "" {
		return "", false
	}

	return in.Template, true
}

// Validate checks catalog invariants: unique ids and a single $value
// parameter per template.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Intents))

	for _, in := range c.Intents {
		if seen[in.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateIntent, in.ID)
		}

		seen[in.ID] = true

		params := Params(in.Template)
		if len(params) != 1 || params[0] != ValueParam {
			return fmt.Errorf("%w: %s has %v", ErrTemplateParams, in.ID, params)
		}
	}

	return nil
}

// Load reads a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, graphplan.NewError("catalog.Load", graphplan.ErrCatalogUnavailable,
			fmt.Sprintf("intent catalog %s is unavailable", path), err)
	}

	var c Catalog

	err = json.Unmarshal(data, &c)
	if err != nil {
		return nil, graphplan.NewError("catalog.Load", graphplan.ErrCatalogUnavailable,
			fmt.Sprintf("intent catalog %s is not valid JSON", path), err)
	}

	c.TotalIntents = len(c.Intents)
	c.reindex()

	return &c, nil
}

// LoadOrEmpty reads a catalog file and degrades to an empty catalog when it
// is missing or unreadable.
func LoadOrEmpty(path string, logger *zap.Logger) *Catalog {
	c, err := Load(path)
	if err != nil {
		if logger != nil {
			logger.Warn("Intent catalog unavailable, serving zero intents",
				zap.String("path", path), zap.Error(err))
		}

		return Empty()
	}

	return c
}

// Save writes the catalog as indented JSON. The file is replaced atomically.
func (c *Catalog) Save(path string) error {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	err := enc.Encode(c)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("create temp catalog: %w", err)
	}

	defer func() { _ = os.Remove(tmp.Name()) }()

	_, err = tmp.Write(buf.Bytes())
	if err != nil {
		_ = tmp.Close()

		return fmt.Errorf("write catalog: %w", err)
	}

	err = tmp.Close()
	if err != nil {
		return fmt.Errorf("close catalog: %w", err)
	}

	err = os.Rename(tmp.Name(), path)
	if err != nil {
		return fmt.Errorf("replace catalog: %w", err)
	}

	return nil
}
