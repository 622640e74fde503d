package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shinobi-platform/shinobi/pkg/config"
	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// OverrideDocument is the on-disk shape of governance configuration
// overrides: framework (or "*" for all) -> component type -> partial config.
type OverrideDocument struct {
	// Overrides maps framework keys to per-type configuration fragments.
	Overrides map[string]map[string]map[string]interface{} `yaml:"overrides"`
}

// OverrideSource serves the policy-override configuration layer, the highest
// precedence layer of the five. It implements config.LayerSource.
type OverrideSource struct {
	doc OverrideDocument
}

// NewOverrideSource creates an override source from a parsed document.
func NewOverrideSource(doc OverrideDocument) *OverrideSource {
	return &OverrideSource{doc: doc}
}

// LoadOverrides reads an override document from a YAML file.
func LoadOverrides(path string) (*OverrideSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, engine.NewConfigurationError(
			fmt.Sprintf("failed to read policy overrides %s", path), err)
	}

	var doc OverrideDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, engine.NewConfigurationError(
			fmt.Sprintf("failed to parse policy overrides %s", path), err)
	}

	for framework := range doc.Overrides {
		if framework == "*" {
			continue
		}
		if _, err := engine.ParseFramework(framework); err != nil {
			return nil, engine.NewConfigurationError(
				fmt.Sprintf("policy overrides reference unknown framework %q", framework), nil)
		}
	}

	return NewOverrideSource(doc), nil
}

// Fetch implements config.LayerSource. Wildcard overrides apply to every
// framework; framework-specific entries win over the wildcard per field.
func (s *OverrideSource) Fetch(cc engine.ComponentContext, spec engine.ComponentSpec) (map[string]interface{}, error) {
	var out map[string]interface{}

	if byType, ok := s.doc.Overrides["*"]; ok {
		if fragment, ok := byType[spec.Type]; ok {
			out = fragment
		}
	}
	if byType, ok := s.doc.Overrides[string(cc.Framework)]; ok {
		if fragment, ok := byType[spec.Type]; ok {
			if out == nil {
				out = fragment
			} else {
				out = config.Merge(out, fragment)
			}
		}
	}

	return out, nil
}
