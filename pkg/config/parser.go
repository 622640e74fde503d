package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// Parser loads and validates service manifests.
type Parser struct {
	validate *validator.Validate
}

// NewParser creates a manifest parser.
func NewParser() *Parser {
	return &Parser{validate: validator.New()}
}

// LoadFile reads and parses a manifest from disk.
func (p *Parser) LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, engine.NewConfigurationError(
			fmt.Sprintf("failed to read manifest %s", path), err).
			WithCode(engine.ErrCodeManifestInvalid)
	}
	return p.Parse(data)
}

// Parse parses a manifest document and validates its structure. Structural
// validation stops at document shape; semantic checks (unknown component
// types, binding endpoints, cycles) happen during synthesis.
func (p *Parser) Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, engine.NewConfigurationError("failed to parse manifest YAML", err).
			WithCode(engine.ErrCodeManifestInvalid)
	}

	if err := p.validate.Struct(&m); err != nil {
		return nil, engine.NewConfigurationError(
			fmt.Sprintf("manifest validation failed: %s", validationSummary(err)), err).
			WithCode(engine.ErrCodeManifestInvalid)
	}

	normalizeConfigs(&m)
	return &m, nil
}

// Context builds the ComponentContext for one of the manifest's environments.
func (m *Manifest) Context(environment string) (engine.ComponentContext, error) {
	target, ok := m.Environments[environment]
	if !ok {
		return engine.ComponentContext{}, engine.NewConfigurationError(
			fmt.Sprintf("manifest declares no environment %q", environment), nil).
			WithCode(engine.ErrCodeManifestInvalid)
	}

	framework, err := engine.ParseFramework(m.Framework)
	if err != nil {
		return engine.ComponentContext{}, err
	}

	return engine.ComponentContext{
		Service:     m.Service,
		Owner:       m.Owner,
		Environment: environment,
		Framework:   framework,
		Region:      target.Region,
		Account:     target.Account,
		Tags:        m.Tags,
	}, nil
}

// Specs converts the manifest's component declarations to engine specs.
func (m *Manifest) Specs() []engine.ComponentSpec {
	specs := make([]engine.ComponentSpec, 0, len(m.Components))
	for _, c := range m.Components {
		specs = append(specs, engine.ComponentSpec{
			Name:   c.Name,
			Type:   c.Type,
			Config: c.Config,
		})
	}
	return specs
}

// Directives converts the manifest's binding declarations to engine
// directives, in document order.
func (m *Manifest) Directives() []engine.BindingDirective {
	directives := make([]engine.BindingDirective, 0, len(m.Bindings))
	for _, b := range m.Bindings {
		directives = append(directives, engine.BindingDirective{
			Source:     b.Source,
			Target:     b.Target,
			Capability: b.Capability,
			Access:     engine.AccessLevel(b.Access),
			EnvNames:   b.Env,
		})
	}
	return directives
}

// normalizeConfigs rewrites yaml.v3's map[interface{}]interface{} values (and
// any nested occurrences) to map[string]interface{} so the merge engine and
// JSON rendering see one map shape.
func normalizeConfigs(m *Manifest) {
	for i := range m.Components {
		if m.Components[i].Config != nil {
			m.Components[i].Config = normalizeMap(m.Components[i].Config)
		}
	}
}

func normalizeMap(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch typed := v.(type) {
	case map[string]interface{}:
		return normalizeMap(typed)
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(typed))
		for k, inner := range typed {
			out[fmt.Sprintf("%v", k)] = normalizeValue(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(typed))
		for i, inner := range typed {
			out[i] = normalizeValue(inner)
		}
		return out
	default:
		return v
	}
}

// validationSummary flattens validator field errors into one readable line.
func validationSummary(err error) string {
	var fieldErrs validator.ValidationErrors
	if !asValidationErrors(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	*target = ve
	return true
}
