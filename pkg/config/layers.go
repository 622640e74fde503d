package config

import (
	"fmt"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// Layer names the five configuration precedence layers, lowest first.
type Layer string

const (
	// LayerFallback is the compiled-in safe default per component type.
	LayerFallback Layer = "fallback"

	// LayerPlatform is the organization-wide default set.
	LayerPlatform Layer = "platform"

	// LayerEnvironment is the per-deployment-environment default set.
	LayerEnvironment Layer = "environment"

	// LayerComponent is the manifest author's override from the component spec.
	LayerComponent Layer = "component"

	// LayerPolicy is the governance-injected override, highest precedence.
	LayerPolicy Layer = "policy"
)

// LayerOrder is the fixed ascending precedence order of the five layers.
var LayerOrder = []Layer{LayerFallback, LayerPlatform, LayerEnvironment, LayerComponent, LayerPolicy}

// LayerSource supplies one layer's partial configuration for a component.
// Every source is passed to the Builder explicitly; there is no ambient
// global configuration state.
type LayerSource interface {
	// Fetch returns the layer's partial configuration for the component, or
	// nil when the layer has nothing to contribute. A non-nil error fails
	// resolution for that component only.
	Fetch(cc engine.ComponentContext, spec engine.ComponentSpec) (map[string]interface{}, error)
}

// LayerSourceFunc adapts a function to the LayerSource interface.
type LayerSourceFunc func(cc engine.ComponentContext, spec engine.ComponentSpec) (map[string]interface{}, error)

// Fetch implements LayerSource.
func (f LayerSourceFunc) Fetch(cc engine.ComponentContext, spec engine.ComponentSpec) (map[string]interface{}, error) {
	return f(cc, spec)
}

// EmptySource is a LayerSource that contributes nothing.
var EmptySource = LayerSourceFunc(func(engine.ComponentContext, engine.ComponentSpec) (map[string]interface{}, error) {
	return nil, nil
})

// StaticSource serves fixed per-component-type configuration, keyed first by
// compliance framework. Used for the platform-defaults layer, where the
// organization ships one document per framework.
type StaticSource struct {
	// byFramework maps framework -> component type -> partial config
	byFramework map[engine.Framework]map[string]map[string]interface{}

	// strict controls whether an unknown framework is an error. The
	// platform-defaults layer is strict: a framework the organization never
	// wrote defaults for is a misconfigured run, not an empty layer.
	strict bool
}

// NewStaticSource creates a framework-keyed static source. With strict set,
// Fetch fails on frameworks absent from the table.
func NewStaticSource(byFramework map[engine.Framework]map[string]map[string]interface{}, strict bool) *StaticSource {
	return &StaticSource{byFramework: byFramework, strict: strict}
}

// Fetch implements LayerSource.
func (s *StaticSource) Fetch(cc engine.ComponentContext, spec engine.ComponentSpec) (map[string]interface{}, error) {
	byType, ok := s.byFramework[cc.Framework]
	if !ok {
		if s.strict {
			return nil, engine.NewConfigurationError(
				fmt.Sprintf("no platform defaults registered for compliance framework %q", cc.Framework), nil)
		}
		return nil, nil
	}
	return byType[spec.Type], nil
}

// EnvironmentSource serves per-environment configuration, keyed by
// environment name then component type. An environment with no entry
// contributes nothing; environments are open-ended, unlike frameworks.
type EnvironmentSource struct {
	byEnvironment map[string]map[string]map[string]interface{}
}

// NewEnvironmentSource creates an environment-keyed source.
func NewEnvironmentSource(byEnvironment map[string]map[string]map[string]interface{}) *EnvironmentSource {
	return &EnvironmentSource{byEnvironment: byEnvironment}
}

// Fetch implements LayerSource.
func (s *EnvironmentSource) Fetch(cc engine.ComponentContext, spec engine.ComponentSpec) (map[string]interface{}, error) {
	byType, ok := s.byEnvironment[cc.Environment]
	if !ok {
		return nil, nil
	}
	return byType[spec.Type], nil
}
