package telemetry

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

func testContext() engine.ComponentContext {
	return engine.ComponentContext{
		Service:     "orders",
		Environment: "prod",
		Framework:   engine.FrameworkCommercial,
	}
}

func TestEventRecorder_ConfigResolved(t *testing.T) {
	recorder := NewEventRecorder(nil, zerolog.Nop())

	var events []Event
	recorder.Subscribe(func(e Event) { events = append(events, e) })

	recorder.ConfigResolved(context.Background(), testContext(), engine.ComponentOutcome{
		Component:    "api",
		Type:         "lambda-api",
		Capabilities: []string{"api:rest"},
	})

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Type != EventTypeConfigResolved || e.Level != EventLevelInfo {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.Service != "orders" || e.Environment != "prod" || e.Component != "api" {
		t.Errorf("event must carry run context: %+v", e)
	}
	if e.ID == "" || e.Timestamp.IsZero() {
		t.Errorf("event must have id and timestamp: %+v", e)
	}
}

func TestEventRecorder_ConfigFailed(t *testing.T) {
	recorder := NewEventRecorder(nil, zerolog.Nop())

	var events []Event
	recorder.Subscribe(func(e Event) { events = append(events, e) })

	recorder.ConfigResolved(context.Background(), testContext(), engine.ComponentOutcome{
		Component: "db",
		Type:      "rds-postgres",
		Error:     engine.NewConfigurationError("bad layer", nil),
	})

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Type != EventTypeConfigFailed || e.Level != EventLevelError {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.Data["code"] != engine.ErrCodeConfiguration {
		t.Errorf("event data must carry the error code: %+v", e.Data)
	}
}

func TestEventRecorder_BindingOutcomes(t *testing.T) {
	recorder := NewEventRecorder(nil, zerolog.Nop())

	var events []Event
	recorder.Subscribe(func(e Event) { events = append(events, e) })

	directive := engine.BindingDirective{
		Source: "api", Target: "work-queue",
		Capability: "queue:sqs", Access: engine.AccessWrite,
	}

	recorder.BindingApplied(context.Background(), testContext(), engine.BindingOutcome{
		Directive: directive,
		Result:    &engine.BindingResult{},
	})
	recorder.BindingRejected(context.Background(), testContext(), engine.BindingOutcome{
		Directive: directive,
		Error:     engine.NewNoBinderFoundError("no binder claims queue:sqs", nil),
	})

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventTypeBindingApplied || events[0].Level != EventLevelInfo {
		t.Errorf("unexpected applied event: %+v", events[0])
	}
	if events[1].Type != EventTypeBindingRejected || events[1].Level != EventLevelError {
		t.Errorf("unexpected rejected event: %+v", events[1])
	}
	if events[1].Message != "no binder claims queue:sqs" {
		t.Errorf("rejected event should carry the error message: %+v", events[1])
	}
}

func TestDevelopmentConfig(t *testing.T) {
	cfg := DevelopmentConfig()
	if cfg.Logging.Level != "debug" || !cfg.Logging.EnableCaller {
		t.Errorf("development logging should be verbose with caller info: %+v", cfg.Logging)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.Exporter != "stdout" {
		t.Errorf("development tracing should export to stdout: %+v", cfg.Tracing)
	}
	if cfg.Metrics.Enabled {
		t.Errorf("development config should not start a metrics server: %+v", cfg.Metrics)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "default is valid", mutate: func(*Config) {}},
		{name: "production is valid", mutate: func(c *Config) { *c = *ProductionConfig() }},
		{name: "development is valid", mutate: func(c *Config) { *c = *DevelopmentConfig() }},
		{name: "empty service name", mutate: func(c *Config) { c.ServiceName = "" }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
		{
			name: "bad exporter",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "jaeger2"
			},
			wantErr: true,
		},
		{
			name:    "sampling rate out of range",
			mutate:  func(c *Config) { c.Tracing.SamplingRate = 1.5 },
			wantErr: true,
		},
		{
			name: "metrics without listen address",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.ListenAddress = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
