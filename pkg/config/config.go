package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppearanceOverrides is the local material table consulted before the
// server's appearance document
type AppearanceOverrides struct {
	Version   string            `yaml:"version" json:"version"`
	Materials []MaterialMapping `yaml:"materials" json:"materials"`
	Defaults  DefaultsConfig    `yaml:"defaults" json:"defaults"`
}

// MaterialMapping assigns a material to one display name
type MaterialMapping struct {
	Name     string `yaml:"name" json:"name"`
	Material string `yaml:"material" json:"material"`
	// Disabled entries stay in the file but resolve nothing.
	Disabled bool `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// DefaultsConfig holds the material used for mappings that leave it empty
type DefaultsConfig struct {
	Material string `yaml:"material" json:"material"`
}

// LoadAppearanceOverrides loads material overrides from the specified file path
func LoadAppearanceOverrides(path string) (*AppearanceOverrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading appearance overrides file: %w", err)
	}

	var overrides AppearanceOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("error parsing appearance overrides file: %w", err)
	}

	for i, m := range overrides.Materials {
		if m.Name == "" {
			return nil, fmt.Errorf("appearance overrides: material %d has no name", i)
		}
	}
	return &overrides, nil
}

// GetMappingByName returns the mapping for a display name with defaults applied
func (o *AppearanceOverrides) GetMappingByName(name string) (MaterialMapping, bool) {
	// Later entries win, like in the server document.
	for i := len(o.Materials) - 1; i >= 0; i-- {
		if o.Materials[i].Name == name {
			return applyDefaults(o.Materials[i], o.Defaults), true
		}
	}
	return MaterialMapping{}, false
}

// Hints returns the enabled mappings as a display name to material table.
func (o *AppearanceOverrides) Hints() map[string]string {
	hints := make(map[string]string, len(o.Materials))
	for _, m := range o.Materials {
		m = applyDefaults(m, o.Defaults)
		if m.Disabled || m.Material == "" {
			delete(hints, m.Name)
			continue
		}
		hints[m.Name] = m.Material
	}
	return hints
}

// applyDefaults merges default values into a mapping where fields are empty
func applyDefaults(mapping MaterialMapping, defaults DefaultsConfig) MaterialMapping {
	result := mapping
	if result.Material == "" {
		result.Material = defaults.Material
	}
	return result
}
