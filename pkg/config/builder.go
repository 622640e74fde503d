package config

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// SchemaValidator checks a merged configuration against the component type's
// declared schema. Implemented by the schema package.
type SchemaValidator interface {
	// Validate returns nil when values satisfy the schema for componentType,
	// or a schema-class error carrying every violation.
	Validate(componentType string, values map[string]interface{}) error
}

// Builder is the five-layer configuration precedence engine. It implements
// engine.ConfigResolver.
//
// Layers merge in ascending precedence: compiled-in fallback, platform
// defaults, environment defaults, the component override from the manifest,
// and finally the policy override. Later layers win per field. The merged
// result is pruned of explicit nulls and validated before it is returned.
type Builder struct {
	fallback    map[string]map[string]interface{}
	platform    LayerSource
	environment LayerSource
	policy      LayerSource
	validator   SchemaValidator
	logger      zerolog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithFallbackDefaults replaces the compiled-in fallback table.
func WithFallbackDefaults(fallback map[string]map[string]interface{}) BuilderOption {
	return func(b *Builder) { b.fallback = fallback }
}

// WithPlatformSource replaces the platform-defaults layer source.
func WithPlatformSource(s LayerSource) BuilderOption {
	return func(b *Builder) { b.platform = s }
}

// WithEnvironmentSource replaces the environment-defaults layer source.
func WithEnvironmentSource(s LayerSource) BuilderOption {
	return func(b *Builder) { b.environment = s }
}

// WithPolicySource sets the policy-override layer source.
func WithPolicySource(s LayerSource) BuilderOption {
	return func(b *Builder) { b.policy = s }
}

// NewBuilder creates a Builder with the built-in fallback, platform, and
// environment tables. The policy layer is empty unless WithPolicySource is
// given.
func NewBuilder(validator SchemaValidator, logger zerolog.Logger, opts ...BuilderOption) *Builder {
	b := &Builder{
		fallback:    FallbackDefaults(),
		platform:    NewStaticSource(PlatformDefaults(), true),
		environment: NewEnvironmentSource(EnvironmentDefaults()),
		policy:      EmptySource,
		validator:   validator,
		logger:      logger.With().Str("component", "config-builder").Logger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Resolve implements engine.ConfigResolver. Failures are scoped to the one
// component; the synthesizer keeps resolving siblings.
func (b *Builder) Resolve(_ context.Context, cc engine.ComponentContext, spec engine.ComponentSpec) (*engine.ResolvedConfig, error) {
	if _, err := engine.ParseFramework(string(cc.Framework)); err != nil {
		return nil, err
	}

	fallback, ok := b.fallback[spec.Type]
	if !ok {
		return nil, engine.NewConfigurationError(
			fmt.Sprintf("unknown component type %q", spec.Type), nil)
	}

	platform, err := b.platform.Fetch(cc, spec)
	if err != nil {
		return nil, engine.NewConfigurationError(
			fmt.Sprintf("platform defaults layer failed for type %q", spec.Type), err)
	}

	environment, err := b.environment.Fetch(cc, spec)
	if err != nil {
		return nil, engine.NewConfigurationError(
			fmt.Sprintf("environment defaults layer failed for environment %q", cc.Environment), err)
	}

	policy, err := b.policy.Fetch(cc, spec)
	if err != nil {
		return nil, engine.NewConfigurationError(
			fmt.Sprintf("policy override layer failed for type %q", spec.Type), err)
	}

	merged := MergeLayers(fallback, platform, environment, spec.Config, policy)
	merged = PruneNulls(merged)

	if b.validator != nil {
		if err := b.validator.Validate(spec.Type, merged); err != nil {
			return nil, err
		}
	}

	b.logger.Debug().
		Str("component", spec.Name).
		Str("type", spec.Type).
		Str("framework", string(cc.Framework)).
		Str("environment", cc.Environment).
		Msg("Configuration resolved")

	return &engine.ResolvedConfig{
		Component: spec.Name,
		Type:      spec.Type,
		Framework: cc.Framework,
		Values:    merged,
	}, nil
}
