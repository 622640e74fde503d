package engine

import (
	"context"
	"time"
)

// ConfigResolver produces a ResolvedConfig for one component under one
// deployment context. Implemented by the config package's Builder.
type ConfigResolver interface {
	// Resolve merges the five configuration layers for the component and
	// validates the result against the component type's schema.
	Resolve(ctx context.Context, cc ComponentContext, spec ComponentSpec) (*ResolvedConfig, error)
}

// CapabilityRegistry holds the capabilities published during a synthesis run.
// A fresh registry is constructed per run.
type CapabilityRegistry interface {
	// Register records a capability payload for a component. Registering the
	// same (component, capability) pair twice is a programmer error.
	Register(component, capability string, payload map[string]interface{}) error

	// Lookup returns the payload a component published for a capability.
	// Returns a capability-class error when absent.
	Lookup(component, capability string) (map[string]interface{}, error)

	// Capabilities returns the sorted capability names a component published.
	Capabilities(component string) []string
}

// CapabilityPublisher derives the capabilities a resolved component exposes.
// Implemented per component type by the capability package.
type CapabilityPublisher interface {
	// Publish registers the component's capabilities into the registry.
	// Payload contents are deterministic functions of context and config.
	Publish(cc ComponentContext, config *ResolvedConfig, registry CapabilityRegistry) ([]string, error)
}

// BindingResolver turns binding directives into binding results.
// Implemented by the binder package's Resolver.
type BindingResolver interface {
	// Resolve selects the strategy claiming (source type, capability) and
	// executes it. The returned result is a pure descriptor.
	Resolve(ctx context.Context, cc ComponentContext, directive BindingDirective,
		sourceType string, registry CapabilityRegistry) (*BindingResult, error)
}

// AuditSink records synthesis run summaries and structured audit events.
type AuditSink interface {
	// RecordRun persists a summary of a completed synthesis run.
	RecordRun(ctx context.Context, report *SynthesisReport) error

	// RecordEvent persists one structured audit event.
	RecordEvent(ctx context.Context, runID, eventType, component, message string, details map[string]interface{}) error
}

// Clock supplies the current time. Injected so tests can assert exact
// timestamps and repeated runs produce identical reports.
type Clock interface {
	Now() time.Time
}

// IDGenerator supplies run identifiers. Injected for the same reason as Clock:
// random suffixes in synthesized output are a testability hazard.
type IDGenerator interface {
	NewID() string
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// IDFunc adapts a function to the IDGenerator interface.
type IDFunc func() string

// NewID implements IDGenerator.
func (f IDFunc) NewID() string { return f() }
