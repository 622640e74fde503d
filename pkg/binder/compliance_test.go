package binder

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

func TestCompliance_MissingDLQAppendsAdvisoryAction(t *testing.T) {
	// fedramp-high, read access on a queue without a DLQ: the binding
	// succeeds and the compliance-action list records the obligation.
	r := defaultResolver(t)

	directive := engine.BindingDirective{
		Source: "worker", Target: "work-queue", Capability: "queue:sqs", Access: engine.AccessRead,
	}
	result, err := r.Resolve(context.Background(), fedrampHighCC(), directive, "lambda-api",
		registryWith("work-queue", "queue:sqs", queuePayload()))
	if err != nil {
		t.Fatalf("binding should succeed in advisory mode: %v", err)
	}

	found := false
	for _, action := range result.ComplianceActions {
		if action.Rule == "queue-dlq-required" {
			found = true
			if action.Framework != engine.FrameworkFedRAMPHigh {
				t.Errorf("action should carry the framework: %+v", action)
			}
			if action.Severity != engine.SeverityAdvisory {
				t.Errorf("advisory mode records advisory severity: %+v", action)
			}
		}
	}
	if !found {
		t.Errorf("expected queue-dlq-required action, got %v", result.ComplianceActions)
	}
}

func TestCompliance_DLQConfiguredNoAction(t *testing.T) {
	r := defaultResolver(t)

	payload := queuePayload()
	payload["dlqArn"] = "arn:aws:sqs:us-east-1:123456789012:orders-prod-work-queue-dlq"

	directive := engine.BindingDirective{
		Source: "worker", Target: "work-queue", Capability: "queue:sqs", Access: engine.AccessRead,
	}
	result, err := r.Resolve(context.Background(), fedrampHighCC(), directive, "lambda-api",
		registryWith("work-queue", "queue:sqs", payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, action := range result.ComplianceActions {
		if action.Rule == "queue-dlq-required" {
			t.Errorf("DLQ is configured, no action expected: %+v", action)
		}
	}
}

func TestCompliance_EnforcingModeFailsUnmetObligations(t *testing.T) {
	r, err := NewDefaultResolver(NewCompliancePolicy(ComplianceModeEnforcing), zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to build resolver: %v", err)
	}

	directive := engine.BindingDirective{
		Source: "worker", Target: "work-queue", Capability: "queue:sqs", Access: engine.AccessRead,
	}
	_, err = r.Resolve(context.Background(), fedrampHighCC(), directive, "lambda-api",
		registryWith("work-queue", "queue:sqs", queuePayload()))
	if err == nil {
		t.Fatal("enforcing mode should fail the binding")
	}
	if !engine.IsComplianceViolation(err) {
		t.Errorf("expected compliance-class error, got %v", err)
	}
}

func TestCompliance_OpenCIDRRejectedUnderFedRAMPHigh(t *testing.T) {
	policy := NewCompliancePolicy(ComplianceModeAdvisory)

	directive := engine.BindingDirective{
		Source: "api", Target: "cache", Capability: "cache:redis", Access: engine.AccessRead,
	}
	result := &engine.BindingResult{
		Directive: directive,
		NetworkRules: []engine.NetworkRule{
			{Direction: engine.DirectionIngress, Protocol: "tcp", Port: 6379, SourceCIDR: "0.0.0.0/0", TargetID: "sg/x"},
		},
	}

	err := policy.Apply(fedrampHighCC(), directive, map[string]interface{}{"transitEncryption": true}, result)
	if err == nil {
		t.Fatal("open CIDR must be rejected under fedramp-high")
	}
	if !engine.IsComplianceViolation(err) {
		t.Errorf("expected compliance-class error, got %v", err)
	}

	// The rejection holds in enforcing mode too, and for IPv6.
	result.NetworkRules[0].SourceCIDR = "::/0"
	err = NewCompliancePolicy(ComplianceModeEnforcing).
		Apply(fedrampHighCC(), directive, map[string]interface{}{"transitEncryption": true}, result)
	if err == nil || !engine.IsComplianceViolation(err) {
		t.Errorf("IPv6 open CIDR must also be rejected, got %v", err)
	}
}

func TestCompliance_OpenCIDRAllowedOutsideFedRAMPHigh(t *testing.T) {
	policy := NewCompliancePolicy(ComplianceModeAdvisory)

	directive := engine.BindingDirective{
		Source: "api", Target: "cache", Capability: "cache:redis", Access: engine.AccessRead,
	}

	for _, framework := range []engine.Framework{engine.FrameworkCommercial, engine.FrameworkFedRAMPModerate} {
		cc := commercialCC()
		cc.Framework = framework

		result := &engine.BindingResult{
			Directive: directive,
			NetworkRules: []engine.NetworkRule{
				{Direction: engine.DirectionIngress, Protocol: "tcp", Port: 6379, SourceCIDR: "0.0.0.0/0", TargetID: "sg/x"},
			},
		}
		if err := policy.Apply(cc, directive, map[string]interface{}{"transitEncryption": true}, result); err != nil {
			t.Errorf("framework %s should not hard-fail on open CIDR: %v", framework, err)
		}
	}
}

func TestCompliance_TransitEncryptionObligation(t *testing.T) {
	r := defaultResolver(t)

	payload := map[string]interface{}{
		"host":              "orders-prod-cache.cache.us-east-1.amazonaws.com",
		"port":              6379,
		"securityGroupId":   "sg/orders-prod-cache",
		"transitEncryption": false,
	}

	directive := engine.BindingDirective{
		Source: "api", Target: "cache", Capability: "cache:redis", Access: engine.AccessReadWrite,
	}
	result, err := r.Resolve(context.Background(), fedrampHighCC(), directive, "lambda-api",
		registryWith("cache", "cache:redis", payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, action := range result.ComplianceActions {
		if action.Rule == "encryption-in-transit" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected encryption-in-transit action, got %v", result.ComplianceActions)
	}
}

func TestCompliance_AuditLoggingRecordedForFedRAMP(t *testing.T) {
	r := defaultResolver(t)

	payload := queuePayload()
	payload["dlqArn"] = "arn:aws:sqs:us-east-1:123456789012:orders-prod-work-queue-dlq"

	directive := engine.BindingDirective{
		Source: "worker", Target: "work-queue", Capability: "queue:sqs", Access: engine.AccessRead,
	}

	// Every FedRAMP binding carries the obligation, even with all other
	// obligations met.
	for _, framework := range []engine.Framework{engine.FrameworkFedRAMPModerate, engine.FrameworkFedRAMPHigh} {
		cc := commercialCC()
		cc.Framework = framework

		result, err := r.Resolve(context.Background(), cc, directive, "lambda-api",
			registryWith("work-queue", "queue:sqs", payload))
		if err != nil {
			t.Fatalf("unexpected error under %s: %v", framework, err)
		}

		found := false
		for _, action := range result.ComplianceActions {
			if action.Rule == "audit-logging-required" {
				found = true
				if action.Framework != framework {
					t.Errorf("action should carry the framework: %+v", action)
				}
			}
		}
		if !found {
			t.Errorf("expected audit-logging-required action under %s, got %v",
				framework, result.ComplianceActions)
		}
	}

	// Enforcing mode does not fail a binding over it; the engine meets the
	// obligation itself.
	enforcing, err := NewDefaultResolver(NewCompliancePolicy(ComplianceModeEnforcing), zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to build resolver: %v", err)
	}
	if _, err := enforcing.Resolve(context.Background(), fedrampHighCC(), directive, "lambda-api",
		registryWith("work-queue", "queue:sqs", payload)); err != nil {
		t.Errorf("audit logging is met by the engine, binding should succeed: %v", err)
	}
}

func TestCompliance_CommercialPassThrough(t *testing.T) {
	policy := NewCompliancePolicy(ComplianceModeAdvisory)

	directive := engine.BindingDirective{
		Source: "worker", Target: "work-queue", Capability: "queue:sqs", Access: engine.AccessRead,
	}
	result := &engine.BindingResult{Directive: directive}

	if err := policy.Apply(commercialCC(), directive, queuePayload(), result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.ComplianceActions) != 0 {
		t.Errorf("commercial framework adds no actions: %v", result.ComplianceActions)
	}
}

func TestParseComplianceMode(t *testing.T) {
	for _, valid := range []string{"advisory", "enforcing"} {
		mode, err := ParseComplianceMode(valid)
		if err != nil || string(mode) != valid {
			t.Errorf("ParseComplianceMode(%q) = %v, %v", valid, mode, err)
		}
	}
	if _, err := ParseComplianceMode("lenient"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
