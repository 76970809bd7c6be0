// Package preset provides the built-in catalogue of named backtest parameter bundles.
package preset

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yourusername/backtest-console/internal/models"
)

const (
	// CustomID marks a form whose parameters are not taken from a preset
	CustomID = "custom"
	// CustomLabel is the display label of CustomID
	CustomLabel = "自定义"
)

var (
	// ErrDuplicateID indicates two presets share an id
	ErrDuplicateID = errors.New("duplicate preset id")
	// ErrReservedID indicates a preset uses an empty or reserved id
	ErrReservedID = errors.New("reserved preset id")
)

//go:embed presets.yaml
var catalogue []byte

var (
	defaultRegistry *Registry
	once            sync.Once
)

// Preset is a named parameter bundle
type Preset struct {
	ID          string                `yaml:"id"`
	Name        string                `yaml:"name"`
	Description string                `yaml:"description"`
	Params      models.BacktestParams `yaml:"params"`
}

// Registry is an immutable preset catalogue. It is safe for concurrent use
// because nothing mutates it after New returns.
type Registry struct {
	presets []Preset
	byID    map[string]int
}

// New builds a registry from presets, keeping their order
func New(presets []Preset) (*Registry, error) {
	r := &Registry{
		presets: make([]Preset, len(presets)),
		byID:    make(map[string]int, len(presets)),
	}
	copy(r.presets, presets)

	for i, p := range r.presets {
		if p.ID == "" || p.ID == CustomID {
			return nil, fmt.Errorf("%w: %q", ErrReservedID, p.ID)
		}
		if _, exists := r.byID[p.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, p.ID)
		}
		r.byID[p.ID] = i
	}
	return r, nil
}

// Parse builds a registry from a YAML catalogue
func Parse(data []byte) (*Registry, error) {
	var doc struct {
		Presets []Preset `yaml:"presets"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse preset catalogue: %w", err)
	}
	return New(doc.Presets)
}

// Default returns the process-wide built-in catalogue
func Default() *Registry {
	once.Do(func() {
		r, err := Parse(catalogue)
		if err != nil {
			panic(fmt.Sprintf("invalid embedded preset catalogue: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Get returns a copy of the parameters of preset id
func (r *Registry) Get(id string) (models.BacktestParams, bool) {
	p, ok := r.Lookup(id)
	if !ok {
		return models.BacktestParams{}, false
	}
	return p.Params, true
}

// Lookup returns a copy of preset id
func (r *Registry) Lookup(id string) (Preset, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Preset{}, false
	}
	return r.presets[i], true
}

// Has reports whether id names a preset in the catalogue
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// List returns every preset in catalogue order
func (r *Registry) List() []Preset {
	out := make([]Preset, len(r.presets))
	copy(out, r.presets)
	return out
}

// IDs returns the preset ids in catalogue order
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.presets))
	for i, p := range r.presets {
		ids[i] = p.ID
	}
	return ids
}

// DisplayName returns the name of preset id, or nil for CustomID and unknown ids
func (r *Registry) DisplayName(id string) *string {
	p, ok := r.Lookup(id)
	if !ok {
		return nil
	}
	return models.StrPtr(p.Name)
}
