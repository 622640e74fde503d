package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// Event represents a telemetry event emitted during synthesis.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// Service is the service the event belongs to.
	Service string `json:"service"`

	// Environment is the deployment environment.
	Environment string `json:"environment"`

	// Component is the component or binding source the event concerns.
	Component string `json:"component,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Level is the event severity level (info, warning, error).
	Level string `json:"level"`

	// TraceID correlates the event with the distributed trace, when tracing
	// is enabled.
	TraceID string `json:"trace_id,omitempty"`

	// Data contains additional event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// EventType constants for synthesis events.
const (
	EventTypeConfigResolved  = "component.config_resolved"
	EventTypeConfigFailed    = "component.config_failed"
	EventTypeBindingApplied  = "binding.applied"
	EventTypeBindingRejected = "binding.rejected"
)

// EventLevel constants for event severity.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// EventSubscriber is a function that handles events.
type EventSubscriber func(event Event)

// EventRecorder observes synthesis progress, feeds the metrics collector,
// and fans events out to subscribers. With a tracer attached it also emits
// one span per component resolution and one per binding resolution,
// parented on the run span carried by the context. It implements
// engine.Observer.
type EventRecorder struct {
	metrics *Metrics
	tracer  *Tracer
	logger  zerolog.Logger

	mu          sync.RWMutex
	subscribers []EventSubscriber
}

// NewEventRecorder creates an event recorder backed by the given metrics
// collector. A nil metrics collector disables metric recording.
func NewEventRecorder(metrics *Metrics, logger zerolog.Logger) *EventRecorder {
	return &EventRecorder{
		metrics: metrics,
		logger:  logger.With().Str("component", "events").Logger(),
	}
}

// WithTracer attaches a tracer so each observed outcome produces a span.
func (r *EventRecorder) WithTracer(tracer *Tracer) *EventRecorder {
	r.tracer = tracer
	return r
}

// Subscribe registers a subscriber for all future events.
func (r *EventRecorder) Subscribe(sub EventSubscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, sub)
}

// ConfigResolved implements engine.Observer.
func (r *EventRecorder) ConfigResolved(ctx context.Context, cc engine.ComponentContext, outcome engine.ComponentOutcome) {
	if r.tracer != nil {
		var span trace.Span
		ctx, span = r.tracer.StartComponentSpan(ctx, outcome.Component, outcome.Type)
		defer span.End()
		if outcome.Error != nil {
			span.SetAttributes(
				AttrErrorClass.String(string(outcome.Error.Class)),
				AttrErrorCode.String(outcome.Error.Code),
			)
			RecordError(span, outcome.Error)
		} else {
			RecordSuccess(span)
		}
	}

	if outcome.Error != nil {
		if r.metrics != nil {
			r.metrics.RecordComponentResolved(outcome.Type, "failure")
			r.metrics.RecordError(string(outcome.Error.Class), outcome.Error.Code)
		}
		r.publish(ctx, cc, Event{
			Type:      EventTypeConfigFailed,
			Component: outcome.Component,
			Message:   outcome.Error.Message,
			Level:     EventLevelError,
			Data:      map[string]interface{}{"type": outcome.Type, "code": outcome.Error.Code},
		})
		return
	}

	if r.metrics != nil {
		r.metrics.RecordComponentResolved(outcome.Type, "success")
	}
	r.publish(ctx, cc, Event{
		Type:      EventTypeConfigResolved,
		Component: outcome.Component,
		Message:   "component configuration resolved",
		Level:     EventLevelInfo,
		Data:      map[string]interface{}{"type": outcome.Type, "capabilities": outcome.Capabilities},
	})
}

// BindingApplied implements engine.Observer.
func (r *EventRecorder) BindingApplied(ctx context.Context, cc engine.ComponentContext, outcome engine.BindingOutcome) {
	if r.tracer != nil {
		var span trace.Span
		ctx, span = r.tracer.StartBindingSpan(ctx,
			outcome.Directive.Source, outcome.Directive.Target, outcome.Directive.Capability)
		defer span.End()
		RecordSuccess(span)
	}

	if r.metrics != nil {
		r.metrics.RecordBindingResolved(outcome.Directive.Capability, "success")
	}
	r.publish(ctx, cc, Event{
		Type:      EventTypeBindingApplied,
		Component: outcome.Directive.Source,
		Message:   "binding applied",
		Level:     EventLevelInfo,
		Data: map[string]interface{}{
			"target":     outcome.Directive.Target,
			"capability": outcome.Directive.Capability,
			"access":     string(outcome.Directive.Access),
		},
	})
}

// BindingRejected implements engine.Observer.
func (r *EventRecorder) BindingRejected(ctx context.Context, cc engine.ComponentContext, outcome engine.BindingOutcome) {
	if r.tracer != nil {
		var span trace.Span
		ctx, span = r.tracer.StartBindingSpan(ctx,
			outcome.Directive.Source, outcome.Directive.Target, outcome.Directive.Capability)
		defer span.End()
		if outcome.Error != nil {
			span.SetAttributes(
				AttrErrorClass.String(string(outcome.Error.Class)),
				AttrErrorCode.String(outcome.Error.Code),
			)
			RecordError(span, outcome.Error)
		}
	}

	if r.metrics != nil {
		r.metrics.RecordBindingResolved(outcome.Directive.Capability, "failure")
		if outcome.Error != nil {
			r.metrics.RecordError(string(outcome.Error.Class), outcome.Error.Code)
		}
	}

	message := "binding rejected"
	data := map[string]interface{}{
		"target":     outcome.Directive.Target,
		"capability": outcome.Directive.Capability,
		"access":     string(outcome.Directive.Access),
	}
	if outcome.Error != nil {
		message = outcome.Error.Message
		data["code"] = outcome.Error.Code
	}
	r.publish(ctx, cc, Event{
		Type:      EventTypeBindingRejected,
		Component: outcome.Directive.Source,
		Message:   message,
		Level:     EventLevelError,
		Data:      data,
	})
}

func (r *EventRecorder) publish(ctx context.Context, cc engine.ComponentContext, event Event) {
	event.ID = uuid.New().String()
	event.Timestamp = time.Now().UTC()
	event.Service = cc.Service
	event.Environment = cc.Environment
	event.TraceID = TraceID(ctx)

	r.logger.Debug().
		Str("event_type", event.Type).
		Str("component", event.Component).
		Str("level", event.Level).
		Msg(event.Message)

	r.mu.RLock()
	subs := r.subscribers
	r.mu.RUnlock()
	for _, sub := range subs {
		sub(event)
	}
}
