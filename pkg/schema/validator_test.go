package schema

import (
	"testing"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

func validLambdaConfig() map[string]interface{} {
	return map[string]interface{}{
		"runtime": "nodejs20.x",
		"memory":  512,
		"timeout": 30,
		"logging": map[string]interface{}{"level": "info", "retentionDays": 90},
	}
}

func TestValidator_ValidConfig(t *testing.T) {
	v := MustNewValidator()

	if err := v.Validate("lambda-api", validLambdaConfig()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidator_Idempotent(t *testing.T) {
	v := MustNewValidator()
	cfg := validLambdaConfig()

	for i := 0; i < 3; i++ {
		if err := v.Validate("lambda-api", cfg); err != nil {
			t.Fatalf("validation pass %d failed: %v", i, err)
		}
	}
}

func TestValidator_NonMutating(t *testing.T) {
	v := MustNewValidator()
	cfg := map[string]interface{}{
		"runtime": "not-a-runtime",
		"memory":  64,
	}

	_ = v.Validate("lambda-api", cfg)

	if cfg["runtime"] != "not-a-runtime" || cfg["memory"] != 64 {
		t.Error("validation must not mutate its input")
	}
}

func TestValidator_CollectsAllViolations(t *testing.T) {
	v := MustNewValidator()
	cfg := map[string]interface{}{
		// missing required runtime and timeout, memory below minimum,
		// unknown extra property
		"memory":   64,
		"nonsense": true,
	}

	violations, err := v.Check("lambda-api", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(violations) < 3 {
		t.Fatalf("expected at least 3 violations, got %d: %v", len(violations), violations)
	}

	sawMemory := false
	for _, viol := range violations {
		if viol.Path == "/memory" {
			sawMemory = true
		}
	}
	if !sawMemory {
		t.Errorf("violations should carry field paths: %v", violations)
	}

	err = v.Validate("lambda-api", cfg)
	if err == nil {
		t.Fatal("Validate should fail")
	}
	if !engine.IsSchemaError(err) {
		t.Errorf("expected schema-class error, got %v", err)
	}
}

func TestValidator_EnumMembership(t *testing.T) {
	v := MustNewValidator()
	cfg := map[string]interface{}{
		"mfa": "mandatory",
	}

	violations, err := v.Check("cognito-user-pool", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(violations) != 1 || violations[0].Rule != "enum" {
		t.Errorf("expected a single enum violation, got %v", violations)
	}
}

func TestValidator_UnknownComponentType(t *testing.T) {
	v := MustNewValidator()

	_, err := v.Check("quantum-annealer", map[string]interface{}{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !engine.IsConfigurationError(err) {
		t.Errorf("expected configuration-class error, got %v", err)
	}
}

func TestValidator_NumericStringsNotCoerced(t *testing.T) {
	v := MustNewValidator()
	cfg := map[string]interface{}{
		"runtime": "nodejs20.x",
		"memory":  "512",
		"timeout": 30,
	}

	violations, err := v.Check("lambda-api", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(violations) == 0 {
		t.Error("numeric strings must fail type validation, not coerce")
	}
}

func TestValidator_PatternAndBounds(t *testing.T) {
	v := MustNewValidator()

	cases := []struct {
		name   string
		typ    string
		config map[string]interface{}
		valid  bool
	}{
		{
			name: "dlq arn pattern ok",
			typ:  "sqs-queue",
			config: map[string]interface{}{
				"dlqArn": "arn:aws:sqs:us-east-1:123456789012:orders-dlq",
			},
			valid: true,
		},
		{
			name: "dlq arn pattern bad",
			typ:  "sqs-queue",
			config: map[string]interface{}{
				"dlqArn": "https://sqs.us-east-1.amazonaws.com/123456789012/orders-dlq",
			},
			valid: false,
		},
		{
			name: "backup retention above bound",
			typ:  "rds-postgres",
			config: map[string]interface{}{
				"engineVersion":       "15.4",
				"instanceClass":       "db.t3.micro",
				"backupRetentionDays": 36,
			},
			valid: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			violations, err := v.Check(tc.typ, tc.config)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.valid && len(violations) > 0 {
				t.Errorf("expected valid, got %v", violations)
			}
			if !tc.valid && len(violations) == 0 {
				t.Error("expected violations")
			}
		})
	}
}

func TestValidator_NormalizeSubstitutesEnumDefaults(t *testing.T) {
	v := MustNewValidator()
	cfg := map[string]interface{}{
		"runtime": "cobol85",
		"memory":  512,
		"timeout": 30,
	}

	out, warnings, err := v.Normalize("lambda-api", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["runtime"] != "nodejs20.x" {
		t.Errorf("expected default substitution, got %v", out["runtime"])
	}
	if len(warnings) != 1 {
		t.Errorf("expected one warning, got %v", warnings)
	}
	// The input stays untouched even on the lenient path.
	if cfg["runtime"] != "cobol85" {
		t.Error("Normalize must not mutate its input")
	}
}

func TestValidator_NormalizeStillFailsHardViolations(t *testing.T) {
	v := MustNewValidator()
	cfg := map[string]interface{}{
		"runtime": "nodejs20.x",
		"memory":  32,
		"timeout": 30,
	}

	_, _, err := v.Normalize("lambda-api", cfg)
	if err == nil {
		t.Fatal("bound violations must fail even on the lenient path")
	}
	if !engine.IsSchemaError(err) {
		t.Errorf("expected schema-class error, got %v", err)
	}
}

func TestValidator_DefaultsValidateForAllTypes(t *testing.T) {
	// The compiled-in fallback configurations must satisfy their own schemas.
	// Mirrors config.FallbackDefaults without importing it (the dependency
	// runs the other way).
	v := MustNewValidator()

	for _, typ := range BuiltinTypes() {
		if _, err := v.Check(typ, map[string]interface{}{}); err != nil {
			t.Errorf("schema for %s did not compile usably: %v", typ, err)
		}
	}
}
