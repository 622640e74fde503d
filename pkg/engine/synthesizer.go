package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Observer receives structured notifications as a synthesis run progresses.
// Implementations must not block; the synthesizer calls them inline. The
// context is the run's context, so tracing observers can parent their spans
// on the run span.
type Observer interface {
	// ConfigResolved is called after a component's configuration resolves.
	ConfigResolved(ctx context.Context, cc ComponentContext, outcome ComponentOutcome)

	// BindingApplied is called after a binding resolves successfully.
	BindingApplied(ctx context.Context, cc ComponentContext, outcome BindingOutcome)

	// BindingRejected is called after a binding fails to resolve.
	BindingRejected(ctx context.Context, cc ComponentContext, outcome BindingOutcome)
}

// PolicyEvaluator evaluates governance policies against a completed report.
type PolicyEvaluator interface {
	Evaluate(ctx context.Context, cc ComponentContext, report *SynthesisReport) ([]PolicyViolation, error)
}

// RegistryFactory constructs the fresh capability registry for one run.
type RegistryFactory func() CapabilityRegistry

// Synthesizer drives one synthesis run: components in dependency order, then
// bindings in manifest order. It is synchronous and single-threaded;
// manifests are small and deterministic ordering of the output matters more
// than throughput.
type Synthesizer struct {
	config    ConfigResolver
	publisher CapabilityPublisher
	binder    BindingResolver
	registry  RegistryFactory
	policy    PolicyEvaluator
	audit     AuditSink
	observer  Observer
	clock     Clock
	ids       IDGenerator
	logger    zerolog.Logger
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithPolicyEvaluator attaches a governance policy evaluator to the run.
func WithPolicyEvaluator(p PolicyEvaluator) SynthesizerOption {
	return func(s *Synthesizer) { s.policy = p }
}

// WithAuditSink attaches an audit sink recording run summaries and events.
func WithAuditSink(a AuditSink) SynthesizerOption {
	return func(s *Synthesizer) { s.audit = a }
}

// WithObserver attaches an observer for structured run notifications.
func WithObserver(o Observer) SynthesizerOption {
	return func(s *Synthesizer) { s.observer = o }
}

// WithClock overrides the clock, so tests can assert exact timestamps.
func WithClock(c Clock) SynthesizerOption {
	return func(s *Synthesizer) { s.clock = c }
}

// WithIDGenerator overrides the run ID generator.
func WithIDGenerator(g IDGenerator) SynthesizerOption {
	return func(s *Synthesizer) { s.ids = g }
}

// NewSynthesizer creates a synthesizer from the core collaborators.
func NewSynthesizer(
	config ConfigResolver,
	publisher CapabilityPublisher,
	binder BindingResolver,
	registry RegistryFactory,
	logger zerolog.Logger,
	opts ...SynthesizerOption,
) *Synthesizer {
	s := &Synthesizer{
		config:    config,
		publisher: publisher,
		binder:    binder,
		registry:  registry,
		clock:     ClockFunc(time.Now),
		ids:       IDFunc(func() string { return "" }),
		logger:    logger.With().Str("component", "synthesizer").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize runs one manifest's components and bindings to completion.
//
// Component failures do not abort sibling components; binding failures do not
// abort sibling bindings. Every error lands in the report so callers surface
// the complete list at once. The returned error is non-nil only for
// manifest-level problems (duplicate names, unknown binding endpoints,
// dependency cycles) that prevent the run from starting at all.
func (s *Synthesizer) Synthesize(
	ctx context.Context,
	cc ComponentContext,
	specs []ComponentSpec,
	directives []BindingDirective,
) (*SynthesisReport, error) {
	order, err := NewOrderBuilder().Order(specs, directives)
	if err != nil {
		return nil, err
	}

	report := &SynthesisReport{
		RunID:     s.ids.NewID(),
		Service:   cc.Service,
		Framework: cc.Framework,
		StartedAt: s.clock.Now(),
	}

	specsByName := make(map[string]*ComponentSpec, len(specs))
	for i := range specs {
		specsByName[specs[i].Name] = &specs[i]
	}

	registry := s.registry()

	for _, name := range order {
		spec := specsByName[name]
		outcome := s.resolveComponent(ctx, cc, *spec, registry)
		report.Components = append(report.Components, outcome)

		if s.observer != nil {
			s.observer.ConfigResolved(ctx, cc, outcome)
		}
		s.recordComponentEvent(ctx, report.RunID, outcome)
	}

	for _, d := range directives {
		outcome := s.resolveBinding(ctx, cc, d, specsByName, registry)
		report.Bindings = append(report.Bindings, outcome)

		if s.observer != nil {
			if outcome.Error != nil {
				s.observer.BindingRejected(ctx, cc, outcome)
			} else {
				s.observer.BindingApplied(ctx, cc, outcome)
			}
		}
		s.recordBindingEvent(ctx, report.RunID, outcome)
	}

	if s.policy != nil {
		violations, perr := s.policy.Evaluate(ctx, cc, report)
		if perr != nil {
			s.logger.Error().Err(perr).Msg("Policy evaluation failed")
		} else {
			report.PolicyViolations = violations
		}
	}

	report.CompletedAt = s.clock.Now()

	if s.audit != nil {
		if aerr := s.audit.RecordRun(ctx, report); aerr != nil {
			s.logger.Error().Err(aerr).Str("run_id", report.RunID).Msg("Failed to record synthesis run")
		}
	}

	s.logger.Info().
		Str("run_id", report.RunID).
		Str("service", cc.Service).
		Str("framework", string(cc.Framework)).
		Bool("failed", report.Failed()).
		Msg("Synthesis run completed")

	return report, nil
}

// resolveComponent resolves one component's configuration and publishes its
// capabilities.
func (s *Synthesizer) resolveComponent(
	ctx context.Context,
	cc ComponentContext,
	spec ComponentSpec,
	registry CapabilityRegistry,
) ComponentOutcome {
	outcome := ComponentOutcome{Component: spec.Name, Type: spec.Type}

	resolved, err := s.config.Resolve(ctx, cc, spec)
	if err != nil {
		outcome.Error = asSynthesisError(err).WithComponent(spec.Name)
		s.logger.Error().Err(outcome.Error).
			Str("component", spec.Name).
			Str("type", spec.Type).
			Msg("Component resolution failed")
		return outcome
	}

	capabilities, err := s.publisher.Publish(cc, resolved, registry)
	if err != nil {
		outcome.Error = asSynthesisError(err).WithComponent(spec.Name)
		s.logger.Error().Err(outcome.Error).
			Str("component", spec.Name).
			Msg("Capability publication failed")
		return outcome
	}

	outcome.Config = resolved
	outcome.Capabilities = capabilities

	s.logger.Debug().
		Str("component", spec.Name).
		Str("type", spec.Type).
		Strs("capabilities", capabilities).
		Msg("Component resolved")

	return outcome
}

// resolveBinding resolves one binding directive.
func (s *Synthesizer) resolveBinding(
	ctx context.Context,
	cc ComponentContext,
	d BindingDirective,
	specsByName map[string]*ComponentSpec,
	registry CapabilityRegistry,
) BindingOutcome {
	outcome := BindingOutcome{Directive: d}

	source, ok := specsByName[d.Source]
	if !ok {
		// Unreachable after OrderBuilder validation; kept for direct callers.
		outcome.Error = NewConfigurationError(
			fmt.Sprintf("unknown source component %q", d.Source), nil).
			WithBinding(d.Source, d.Target, d.Capability)
		return outcome
	}

	result, err := s.binder.Resolve(ctx, cc, d, source.Type, registry)
	if err != nil {
		outcome.Error = asSynthesisError(err).WithBinding(d.Source, d.Target, d.Capability)
		s.logger.Error().Err(outcome.Error).
			Str("binding", d.Key()).
			Str("access", string(d.Access)).
			Msg("Binding resolution failed")
		return outcome
	}

	outcome.Result = result

	s.logger.Debug().
		Str("binding", d.Key()).
		Str("access", string(d.Access)).
		Int("permissions", len(result.Permissions)).
		Int("network_rules", len(result.NetworkRules)).
		Int("compliance_actions", len(result.ComplianceActions)).
		Msg("Binding resolved")

	return outcome
}

// recordComponentEvent writes a config_resolved audit event.
func (s *Synthesizer) recordComponentEvent(ctx context.Context, runID string, outcome ComponentOutcome) {
	if s.audit == nil {
		return
	}

	details := map[string]interface{}{"type": outcome.Type}
	message := fmt.Sprintf("configuration resolved for component %s", outcome.Component)
	if outcome.Error != nil {
		details["error_code"] = outcome.Error.Code
		message = fmt.Sprintf("configuration failed for component %s: %s", outcome.Component, outcome.Error.Message)
	}

	if err := s.audit.RecordEvent(ctx, runID, "config_resolved", outcome.Component, message, details); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record audit event")
	}
}

// recordBindingEvent writes a binding_applied or binding_rejected audit event.
func (s *Synthesizer) recordBindingEvent(ctx context.Context, runID string, outcome BindingOutcome) {
	if s.audit == nil {
		return
	}

	eventType := "binding_applied"
	message := fmt.Sprintf("binding %s resolved with access %s", outcome.Directive.Key(), outcome.Directive.Access)
	details := map[string]interface{}{
		"capability": outcome.Directive.Capability,
		"access":     string(outcome.Directive.Access),
	}
	if outcome.Error != nil {
		eventType = "binding_rejected"
		message = fmt.Sprintf("binding %s rejected: %s", outcome.Directive.Key(), outcome.Error.Message)
		details["error_code"] = outcome.Error.Code
	}

	if err := s.audit.RecordEvent(ctx, runID, eventType, outcome.Directive.Source, message, details); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record audit event")
	}
}

// asSynthesisError coerces an error into a *SynthesisError, wrapping foreign
// errors as internal configuration failures.
func asSynthesisError(err error) *SynthesisError {
	var se *SynthesisError
	if errors.As(err, &se) {
		return se
	}
	return &SynthesisError{
		Class:   ErrorClassConfiguration,
		Code:    ErrCodeInternal,
		Message: err.Error(),
		Err:     err,
	}
}
