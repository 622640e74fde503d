package policy

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

func reportWith(components []engine.ComponentOutcome, bindings []engine.BindingOutcome) *engine.SynthesisReport {
	return &engine.SynthesisReport{
		RunID:      "run-0001",
		Service:    "orders",
		Components: components,
		Bindings:   bindings,
	}
}

func resolvedComponent(name, typ string, values map[string]interface{}) engine.ComponentOutcome {
	return engine.ComponentOutcome{
		Component: name,
		Type:      typ,
		Config: &engine.ResolvedConfig{
			Component: name,
			Type:      typ,
			Values:    values,
		},
	}
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to build policy engine: %v", err)
	}
	return e
}

func TestEngine_CleanRunNoViolations(t *testing.T) {
	e := testEngine(t)

	cc := engine.ComponentContext{
		Service:     "orders",
		Environment: "prod",
		Framework:   engine.FrameworkCommercial,
		Tags:        map[string]string{"cost-center": "4721"},
	}
	report := reportWith([]engine.ComponentOutcome{
		resolvedComponent("api", "lambda-api", map[string]interface{}{
			"runtime": "nodejs20.x",
			"logging": map[string]interface{}{"retentionDays": 90},
		}),
	}, nil)

	violations, err := e.Evaluate(context.Background(), cc, report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(violations) != 0 {
		t.Errorf("expected no violations, got %v", violations)
	}
}

func TestEngine_MissingCostCenterTag(t *testing.T) {
	e := testEngine(t)

	cc := engine.ComponentContext{Service: "orders", Environment: "prod", Framework: engine.FrameworkCommercial}
	report := reportWith(nil, nil)

	violations, err := e.Evaluate(context.Background(), cc, report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, v := range violations {
		if v.Policy == "required-tags" && v.Severity == "warning" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected required-tags warning, got %v", violations)
	}
}

func TestEngine_FedRAMPEncryptionAtRest(t *testing.T) {
	e := testEngine(t)

	cc := engine.ComponentContext{
		Service:     "orders",
		Environment: "prod",
		Framework:   engine.FrameworkFedRAMPModerate,
		Tags:        map[string]string{"cost-center": "4721"},
	}
	report := reportWith([]engine.ComponentOutcome{
		resolvedComponent("db", "rds-postgres", map[string]interface{}{
			"storageEncrypted": false,
		}),
		resolvedComponent("queue", "sqs-queue", map[string]interface{}{
			"encryption": map[string]interface{}{"enabled": true},
		}),
	}, nil)

	violations, err := e.Evaluate(context.Background(), cc, report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var hit *engine.PolicyViolation
	for i := range violations {
		if violations[i].Policy == "fedramp-encryption-at-rest" {
			hit = &violations[i]
		}
	}
	if hit == nil {
		t.Fatalf("expected encryption violation, got %v", violations)
	}
	if hit.Component != "db" || hit.Severity != "error" {
		t.Errorf("violation should name the component at error severity: %+v", hit)
	}
}

func TestEngine_AdminAccessInProd(t *testing.T) {
	e := testEngine(t)

	cc := engine.ComponentContext{
		Service:     "orders",
		Environment: "prod",
		Framework:   engine.FrameworkCommercial,
		Tags:        map[string]string{"cost-center": "4721"},
	}
	report := reportWith(nil, []engine.BindingOutcome{
		{
			Directive: engine.BindingDirective{
				Source: "api", Target: "work-queue", Capability: "queue:sqs", Access: engine.AccessAdmin,
			},
			Result: &engine.BindingResult{},
		},
	})

	violations, err := e.Evaluate(context.Background(), cc, report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, v := range violations {
		if v.Policy == "prod-admin-access" && v.Component == "api" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected prod-admin-access warning, got %v", violations)
	}
}

func TestEngine_FailedOutcomesExcludedFromInput(t *testing.T) {
	cc := engine.ComponentContext{Service: "orders", Framework: engine.FrameworkFedRAMPHigh}
	report := reportWith([]engine.ComponentOutcome{
		{
			Component: "broken",
			Type:      "rds-postgres",
			Error:     engine.NewSchemaError("bad", nil),
		},
	}, []engine.BindingOutcome{
		{
			Directive: engine.BindingDirective{Source: "a", Target: "b", Capability: "queue:sqs", Access: engine.AccessAdmin},
			Error:     engine.NewNoBinderFoundError("no", nil),
		},
	})

	input := BuildInput(cc, report)
	if len(input.Components) != 0 || len(input.Bindings) != 0 {
		t.Errorf("failed outcomes must not reach policies: %+v", input)
	}
}

func TestEngine_SetEnabled(t *testing.T) {
	e := testEngine(t)

	cc := engine.ComponentContext{Service: "orders", Environment: "prod", Framework: engine.FrameworkCommercial}

	if err := e.SetEnabled("required-tags", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	violations, err := e.Evaluate(context.Background(), cc, reportWith(nil, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range violations {
		if v.Policy == "required-tags" {
			t.Error("disabled policy must not run")
		}
	}

	if err := e.SetEnabled("no-such-policy", true); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestOverrideSource_Fetch(t *testing.T) {
	src := NewOverrideSource(OverrideDocument{
		Overrides: map[string]map[string]map[string]interface{}{
			"*": {
				"lambda-api": {"timeout": 60},
			},
			"fedramp-high": {
				"lambda-api": {"timeout": 15, "memory": 1024},
			},
		},
	})

	spec := engine.ComponentSpec{Name: "api", Type: "lambda-api"}

	// Commercial gets only the wildcard fragment.
	got, err := src.Fetch(engine.ComponentContext{Framework: engine.FrameworkCommercial}, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["timeout"] != 60 {
		t.Errorf("expected wildcard timeout, got %v", got)
	}

	// fedramp-high merges wildcard and specific, specific wins.
	got, err = src.Fetch(engine.ComponentContext{Framework: engine.FrameworkFedRAMPHigh}, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["timeout"] != 15 || got["memory"] != 1024 {
		t.Errorf("framework-specific should win: %v", got)
	}

	// Types without overrides contribute nothing.
	got, err = src.Fetch(engine.ComponentContext{Framework: engine.FrameworkCommercial},
		engine.ComponentSpec{Name: "q", Type: "sqs-queue"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil fragment, got %v", got)
	}
}
