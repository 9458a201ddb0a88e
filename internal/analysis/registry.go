// Package analysis implements the composite scoring core: the analyzer
// registry and the weighted-score aggregator.
package analysis

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/feanalyst/fe-analyst/internal/domain"
)

// Spec is one static registry entry for an analyzer.
type Spec struct {
	Name    string  `yaml:"name" json:"name"`
	Weight  float64 `yaml:"weight" json:"weight"`
	Enabled bool    `yaml:"enabled" json:"enabled"`
}

// Factory constructs an analyzer instance for a registry entry.
type Factory func() domain.Analyzer

// Registry holds the static analyzer specs and, for each enabled entry,
// a constructed analyzer instance. It is immutable after construction;
// reconfiguration builds a new registry.
type Registry struct {
	specs     []Spec
	analyzers map[string]domain.Analyzer
}

// registryFile is the on-disk shape of configs/analyzers.yaml.
type registryFile struct {
	Analyzers []Spec `yaml:"analyzers"`
}

// LoadSpecs reads analyzer specs from a YAML configuration file.
func LoadSpecs(path string) ([]Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read analyzer config %s: %w", path, err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse analyzer config %s: %w", path, err)
	}

	return file.Analyzers, nil
}

// NewRegistry validates the specs and constructs an analyzer for every
// enabled entry via the factory table. Validation failures are
// configuration errors and fatal: unique names, non-negative weights,
// at least one enabled analyzer, and a known factory per enabled entry.
func NewRegistry(specs []Spec, factories map[string]Factory) (*Registry, error) {
	seen := make(map[string]bool, len(specs))
	enabled := 0

	for _, spec := range specs {
		if spec.Name == "" {
			return nil, &domain.ConfigError{Reason: "analyzer with empty name"}
		}
		if seen[spec.Name] {
			return nil, &domain.ConfigError{Reason: fmt.Sprintf("duplicate analyzer name %q", spec.Name)}
		}
		seen[spec.Name] = true

		if spec.Weight < 0 {
			return nil, &domain.ConfigError{Reason: fmt.Sprintf("analyzer %q has negative weight %v", spec.Name, spec.Weight)}
		}
		if spec.Weight > 1 {
			return nil, &domain.ConfigError{Reason: fmt.Sprintf("analyzer %q has weight %v above 1", spec.Name, spec.Weight)}
		}

		if spec.Enabled {
			enabled++
		}
	}

	if enabled == 0 {
		return nil, &domain.ConfigError{Reason: "no analyzers enabled"}
	}

	analyzers := make(map[string]domain.Analyzer, enabled)
	for _, spec := range specs {
		if !spec.Enabled {
			continue
		}

		factory, ok := factories[spec.Name]
		if !ok {
			return nil, &domain.ConfigError{Reason: fmt.Sprintf("no factory registered for analyzer %q", spec.Name)}
		}
		analyzers[spec.Name] = factory()
	}

	// Copy so callers cannot mutate the registry through the input slice.
	owned := make([]Spec, len(specs))
	copy(owned, specs)

	return &Registry{
		specs:     owned,
		analyzers: analyzers,
	}, nil
}

// EnabledSpecs returns the enabled entries in declaration order.
// The order is stable across calls so repeated runs over unchanged
// configuration log identically; the math itself is order-independent.
func (r *Registry) EnabledSpecs() []Spec {
	out := make([]Spec, 0, len(r.analyzers))
	for _, spec := range r.specs {
		if spec.Enabled {
			out = append(out, spec)
		}
	}
	return out
}

// Specs returns all entries in declaration order, disabled included.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Analyzer returns the constructed analyzer for an enabled entry.
func (r *Registry) Analyzer(name string) (domain.Analyzer, bool) {
	a, ok := r.analyzers[name]
	return a, ok
}

// EffectiveWeights returns the enabled analyzers' weights renormalized
// to sum to 1. Exposed for the registry API endpoint.
func (r *Registry) EffectiveWeights() map[string]float64 {
	enabled := r.EnabledSpecs()

	var total float64
	for _, spec := range enabled {
		total += spec.Weight
	}

	out := make(map[string]float64, len(enabled))
	if total <= 0 {
		// All-zero weights: every enabled analyzer contributes equally.
		for _, spec := range enabled {
			out[spec.Name] = 1.0 / float64(len(enabled))
		}
		return out
	}

	for _, spec := range enabled {
		out[spec.Name] = spec.Weight / total
	}
	return out
}
