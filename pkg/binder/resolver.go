// Package binder resolves binding directives into environment variables,
// permission statements, network rules, and compliance actions.
//
// Strategies declare explicit claims over (source component type, capability)
// pairs. Overlapping claims are rejected when the strategy registers, so
// resolution never depends on registration order and an ambiguous pair is a
// startup failure instead of a silent first-match win.
package binder

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// AnySourceType is the wildcard claim matching every source component type.
const AnySourceType = "*"

// Claim declares that a strategy handles bindings from a source component
// type to a capability. SourceType may be AnySourceType.
type Claim struct {
	SourceType string
	Capability string
}

func (c Claim) String() string {
	return fmt.Sprintf("(%s, %s)", c.SourceType, c.Capability)
}

// overlaps reports whether two claims could both match one directive.
func (c Claim) overlaps(other Claim) bool {
	if c.Capability != other.Capability {
		return false
	}
	return c.SourceType == other.SourceType ||
		c.SourceType == AnySourceType ||
		other.SourceType == AnySourceType
}

// Strategy turns one binding directive into a BindingResult.
type Strategy interface {
	// Name identifies the strategy in logs and errors.
	Name() string

	// Claims returns the (source type, capability) pairs this strategy
	// handles. Claims are fixed for the strategy's lifetime.
	Claims() []Claim

	// Bind computes the result from the target's published capability
	// payload. Bind is pure: it returns a descriptor and touches nothing.
	Bind(cc engine.ComponentContext, directive engine.BindingDirective, payload map[string]interface{}) (*engine.BindingResult, error)
}

// Resolver selects and executes binding strategies. It implements
// engine.BindingResolver.
type Resolver struct {
	strategies []Strategy
	claims     []registeredClaim
	compliance *CompliancePolicy
	logger     zerolog.Logger
}

type registeredClaim struct {
	claim    Claim
	strategy Strategy
}

// NewResolver creates a resolver with the given compliance policy and no
// strategies registered.
func NewResolver(compliance *CompliancePolicy, logger zerolog.Logger) *Resolver {
	if compliance == nil {
		compliance = NewCompliancePolicy(ComplianceModeAdvisory)
	}
	return &Resolver{
		compliance: compliance,
		logger:     logger.With().Str("component", "binder").Logger(),
	}
}

// NewDefaultResolver creates a resolver with every built-in strategy.
func NewDefaultResolver(compliance *CompliancePolicy, logger zerolog.Logger) (*Resolver, error) {
	r := NewResolver(compliance, logger)
	builtins := []Strategy{
		&QueueStrategy{},
		&CacheStrategy{},
		&DatabaseStrategy{},
		&AuthStrategy{},
		&StorageStrategy{},
		&StreamStrategy{},
		&ParameterStrategy{},
	}
	for _, s := range builtins {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a strategy, rejecting any claim that overlaps an already
// registered one.
func (r *Resolver) Register(s Strategy) error {
	claims := s.Claims()
	if len(claims) == 0 {
		return engine.NewConfigurationError(
			fmt.Sprintf("strategy %q declares no claims", s.Name()), nil).
			WithCode(engine.ErrCodeAmbiguousBinder)
	}

	for _, claim := range claims {
		for _, existing := range r.claims {
			if claim.overlaps(existing.claim) {
				return engine.NewConfigurationError(
					fmt.Sprintf("strategy %q claim %s overlaps strategy %q claim %s",
						s.Name(), claim, existing.strategy.Name(), existing.claim), nil).
					WithCode(engine.ErrCodeAmbiguousBinder)
			}
		}
	}

	for _, claim := range claims {
		r.claims = append(r.claims, registeredClaim{claim: claim, strategy: s})
	}
	r.strategies = append(r.strategies, s)

	r.logger.Debug().
		Str("strategy", s.Name()).
		Int("claims", len(claims)).
		Msg("Binding strategy registered")
	return nil
}

// Resolve implements engine.BindingResolver.
func (r *Resolver) Resolve(
	_ context.Context,
	cc engine.ComponentContext,
	directive engine.BindingDirective,
	sourceType string,
	registry engine.CapabilityRegistry,
) (*engine.BindingResult, error) {
	strategy := r.match(sourceType, directive.Capability)
	if strategy == nil {
		return nil, engine.NewNoBinderFoundError(
			fmt.Sprintf("no strategy claims source type %q with capability %q (known capabilities: %s)",
				sourceType, directive.Capability, strings.Join(r.claimedCapabilities(), ", ")), nil)
	}

	payload, err := registry.Lookup(directive.Target, directive.Capability)
	if err != nil {
		return nil, err
	}

	result, err := strategy.Bind(cc, directive, payload)
	if err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(result, directive.EnvNames); err != nil {
		return nil, err
	}

	if err := r.compliance.Apply(cc, directive, payload, result); err != nil {
		return nil, err
	}

	r.logger.Debug().
		Str("strategy", strategy.Name()).
		Str("binding", directive.Key()).
		Msg("Binding resolved")
	return result, nil
}

// match returns the unique strategy claiming the pair, or nil. Uniqueness is
// guaranteed by overlap rejection in Register.
func (r *Resolver) match(sourceType, capability string) Strategy {
	for _, rc := range r.claims {
		if rc.claim.Capability != capability {
			continue
		}
		if rc.claim.SourceType == AnySourceType || rc.claim.SourceType == sourceType {
			return rc.strategy
		}
	}
	return nil
}

func (r *Resolver) claimedCapabilities() []string {
	seen := make(map[string]struct{})
	for _, rc := range r.claims {
		seen[rc.claim.Capability] = struct{}{}
	}
	caps := make([]string, 0, len(seen))
	for c := range seen {
		caps = append(caps, c)
	}
	sort.Strings(caps)
	return caps
}

// applyEnvOverrides renames default environment variables to caller-chosen
// names. Unmapped variables keep their defaults. Two variables landing on the
// same final name fail the binding; last-wins here would depend on map
// iteration order.
func applyEnvOverrides(result *engine.BindingResult, overrides map[string]string) error {
	if len(overrides) == 0 || len(result.Env) == 0 {
		return nil
	}
	origins := make(map[string]string, len(result.Env))
	renamed := make(map[string]string, len(result.Env))
	for name, value := range result.Env {
		final := name
		if custom, ok := overrides[name]; ok && custom != "" {
			final = custom
		}
		if prev, taken := origins[final]; taken {
			pair := []string{prev, name}
			sort.Strings(pair)
			return engine.NewConfigurationError(
				fmt.Sprintf("environment variable collision: %s and %s both map to %q",
					pair[0], pair[1], final), nil)
		}
		origins[final] = name
		renamed[final] = value
	}
	result.Env = renamed
	return nil
}

// sourceSecurityGroupRef is the deterministic logical reference to the
// binding source's security group. Matches the reference scheme used by
// capability payloads.
func sourceSecurityGroupRef(cc engine.ComponentContext, directive engine.BindingDirective) string {
	return fmt.Sprintf("sg/%s-%s-%s", cc.Service, cc.Environment, directive.Source)
}

// payloadString extracts a required string field from a capability payload.
func payloadString(payload map[string]interface{}, key, capability string) (string, error) {
	v, ok := payload[key].(string)
	if !ok || v == "" {
		return "", engine.NewCapabilityNotFoundError(
			fmt.Sprintf("capability %q payload is missing field %q", capability, key), nil)
	}
	return v, nil
}

// payloadInt extracts an integer field, tolerating JSON float64 decoding.
func payloadInt(payload map[string]interface{}, key string, fallback int) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// unsupportedAccess builds the standard error for an access level a strategy
// does not recognize, naming the offending value.
func unsupportedAccess(access engine.AccessLevel, capability string, supported []string) error {
	return engine.NewUnsupportedAccessLevelError(
		fmt.Sprintf("access level %q is not supported for capability %s (supported: %s)",
			access, capability, strings.Join(supported, ", ")), nil).
		WithDetail("access", string(access)).
		WithDetail("supported", supported)
}
