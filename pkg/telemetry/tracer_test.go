package telemetry

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// newTestTracer builds a sampling tracer with no exporter attached, so tests
// get real span contexts without any I/O.
func newTestTracer(t *testing.T) *Tracer {
	t.Helper()
	tracer, err := NewTracer(TracingConfig{
		Enabled:      true,
		Exporter:     "none",
		SamplingRate: 1.0,
	}, "shinobi", "test", "test")
	if err != nil {
		t.Fatalf("failed to build tracer: %v", err)
	}
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })
	return tracer
}

func TestTracer_RunSpanProducesTraceID(t *testing.T) {
	tracer := newTestTracer(t)

	ctx, span := tracer.StartRunSpan(context.Background(), "run-1", "orders", "fedramp-high")
	defer span.End()

	if !span.SpanContext().IsValid() {
		t.Fatal("run span must carry a valid span context")
	}
	if TraceID(ctx) == "" {
		t.Error("run context must expose the trace id")
	}
}

func TestTracer_ChildSpansShareRunTrace(t *testing.T) {
	tracer := newTestTracer(t)

	runCtx, runSpan := tracer.StartRunSpan(context.Background(), "run-1", "orders", "fedramp-high")
	defer runSpan.End()

	componentCtx, componentSpan := tracer.StartComponentSpan(runCtx, "api", "lambda-api")
	componentSpan.End()
	bindingCtx, bindingSpan := tracer.StartBindingSpan(runCtx, "api", "work-queue", "queue:sqs")
	bindingSpan.End()

	want := TraceID(runCtx)
	if TraceID(componentCtx) != want {
		t.Errorf("component span must parent on the run trace: %s != %s", TraceID(componentCtx), want)
	}
	if TraceID(bindingCtx) != want {
		t.Errorf("binding span must parent on the run trace: %s != %s", TraceID(bindingCtx), want)
	}
}

func TestEventRecorder_EventsCarryTraceID(t *testing.T) {
	tracer := newTestTracer(t)
	recorder := NewEventRecorder(nil, zerolog.Nop()).WithTracer(tracer)

	var events []Event
	recorder.Subscribe(func(e Event) { events = append(events, e) })

	runCtx, runSpan := tracer.StartRunSpan(context.Background(), "run-1", "orders", "fedramp-high")
	defer runSpan.End()

	directive := engine.BindingDirective{
		Source: "api", Target: "work-queue",
		Capability: "queue:sqs", Access: engine.AccessWrite,
	}

	recorder.ConfigResolved(runCtx, testContext(), engine.ComponentOutcome{
		Component: "api", Type: "lambda-api", Capabilities: []string{"api:rest"},
	})
	recorder.ConfigResolved(runCtx, testContext(), engine.ComponentOutcome{
		Component: "db", Type: "rds-postgres",
		Error: engine.NewConfigurationError("bad layer", nil),
	})
	recorder.BindingApplied(runCtx, testContext(), engine.BindingOutcome{
		Directive: directive, Result: &engine.BindingResult{},
	})
	recorder.BindingRejected(runCtx, testContext(), engine.BindingOutcome{
		Directive: directive,
		Error:     engine.NewNoBinderFoundError("no binder claims queue:sqs", nil),
	})

	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	want := TraceID(runCtx)
	if want == "" {
		t.Fatal("run context must expose the trace id")
	}
	for _, e := range events {
		if e.TraceID != want {
			t.Errorf("event %s must share the run trace: %q != %q", e.Type, e.TraceID, want)
		}
	}
}
