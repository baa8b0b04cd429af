package rubric

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Source provides rubric snapshots by document type.
type Source interface {
	Rubric(ctx context.Context, documentType string) (*Rubric, error)
	DocumentTypes(ctx context.Context) ([]string, error)
}

// Parse decodes and validates one YAML rubric.
func Parse(data []byte) (*Rubric, error) {
	var r Rubric
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode rubric: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadFile reads and validates a YAML rubric file.
func LoadFile(path string) (*Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Catalog is an in-memory Source.
type Catalog struct {
	mu      sync.RWMutex
	rubrics map[string]*Rubric
}

// NewCatalog builds a catalog from validated rubrics.
func NewCatalog(rubrics ...*Rubric) *Catalog {
	c := &Catalog{rubrics: make(map[string]*Rubric, len(rubrics))}
	for _, r := range rubrics {
		c.Put(r)
	}
	return c
}

// LoadDir loads every *.yaml / *.yml file in dir into a catalog.
func LoadDir(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	c := NewCatalog()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		r, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if _, dup := c.rubrics[r.DocumentType]; dup {
			return nil, fmt.Errorf("%s: document type %q defined twice", e.Name(), r.DocumentType)
		}
		c.Put(r)
	}
	return c, nil
}

// Put stores a copy of r, replacing any rubric for the same document type.
func (c *Catalog) Put(r *Rubric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rubrics[r.DocumentType] = r.Clone()
}

// Rubric returns a snapshot for the document type.
func (c *Catalog) Rubric(_ context.Context, documentType string) (*Rubric, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.rubrics[documentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocumentType, documentType)
	}
	return r.Clone(), nil
}

// DocumentTypes lists known document types in sorted order.
func (c *Catalog) DocumentTypes(_ context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.rubrics))
	for k := range c.rubrics {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}
