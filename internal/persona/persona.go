package persona

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed personas.yaml
var embeddedPersonas []byte

// Persona names a narration voice and style.
type Persona struct {
	Name  string  `yaml:"name"`
	Voice string  `yaml:"voice"`
	Speed float64 `yaml:"speed"`
	Style string  `yaml:"style"`
}

type personaFile struct {
	Personas []Persona `yaml:"personas"`
}

// Registry resolves persona names to presets.
type Registry struct {
	personas map[string]Persona
}

// Load builds a registry from the embedded presets, overlaid with the YAML
// file at path when it exists. An empty path loads only the embedded set.
func Load(path string) (*Registry, error) {
	registry := &Registry{personas: make(map[string]Persona)}
	if err := registry.merge(embeddedPersonas, "embedded personas"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		return registry, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return registry, nil
	}
	if err != nil {
		return nil, fmt.Errorf("persona: read %s: %w", path, err)
	}
	if err := registry.merge(data, path); err != nil {
		return nil, err
	}
	return registry, nil
}

func (r *Registry) merge(data []byte, source string) error {
	var file personaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("persona: parse %s: %w", source, err)
	}
	for _, p := range file.Personas {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			return fmt.Errorf("persona: %s contains an unnamed persona", source)
		}
		if p.Voice == "" {
			return fmt.Errorf("persona: %q in %s has no voice", p.Name, source)
		}
		if p.Speed <= 0 {
			p.Speed = 1.0
		}
		p.Name = name
		r.personas[name] = p
	}
	return nil
}

// Lookup returns the persona for name.
func (r *Registry) Lookup(name string) (Persona, bool) {
	p, ok := r.personas[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Names lists the registered persona names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.personas))
	for name := range r.personas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
