package engine

import (
	"errors"
	"fmt"
	"testing"
)

// asTestError is a shorthand for errors.As against *SynthesisError.
func asTestError(err error, target **SynthesisError) bool {
	return errors.As(err, target)
}

func TestSynthesisError_Error(t *testing.T) {
	cases := []struct {
		name     string
		err      *SynthesisError
		expected string
	}{
		{
			name:     "message only",
			err:      NewConfigurationError("unknown framework", nil),
			expected: "[configuration] unknown framework",
		},
		{
			name:     "with component",
			err:      NewSchemaError("required field missing", nil).WithComponent("orders-queue"),
			expected: "[schema] required field missing (component=orders-queue)",
		},
		{
			name:     "with binding",
			err:      NewNoBinderFoundError("no strategy claims pair", nil).WithBinding("api", "queue", "queue:sqs"),
			expected: "[binding] no strategy claims pair (binding=api->queue:queue:sqs)",
		},
		{
			name:     "with wrapped error",
			err:      NewConfigurationError("layer fetch failed", fmt.Errorf("io timeout")),
			expected: "[configuration] layer fetch failed: io timeout",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestSynthesisError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("root cause")
	err := NewSchemaError("validation failed", inner)

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
	if errors.Unwrap(err) != inner {
		t.Error("Unwrap should return the inner error")
	}
}

func TestSynthesisError_Is(t *testing.T) {
	a := NewComplianceViolationError("open cidr", nil)
	b := NewComplianceViolationError("different message", nil)
	c := NewSchemaError("open cidr", nil)

	if !errors.Is(a, b) {
		t.Error("same class and code should match")
	}
	if errors.Is(a, c) {
		t.Error("different class should not match")
	}
}

func TestErrorClassPredicates(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		predicate func(error) bool
	}{
		{"configuration", NewConfigurationError("x", nil), IsConfigurationError},
		{"schema", NewSchemaError("x", nil), IsSchemaError},
		{"capability", NewCapabilityNotFoundError("x", nil), IsCapabilityNotFound},
		{"binding", NewNoBinderFoundError("x", nil), IsBindingError},
		{"compliance", NewComplianceViolationError("x", nil), IsComplianceViolation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !tc.predicate(tc.err) {
				t.Errorf("%s predicate should match its own class", tc.name)
			}
			// Wrapped once, the predicate still matches through the chain.
			wrapped := fmt.Errorf("outer: %w", tc.err)
			if !tc.predicate(wrapped) {
				t.Errorf("%s predicate should match through wrapping", tc.name)
			}
		})
	}

	if IsComplianceViolation(NewSchemaError("x", nil)) {
		t.Error("predicates must not cross classes")
	}
	if IsSchemaError(errors.New("plain")) {
		t.Error("plain errors match no class")
	}
}

func TestSynthesisError_WithDetail(t *testing.T) {
	err := NewUnsupportedAccessLevelError("access level admin not supported", nil).
		WithDetail("access", "admin").
		WithDetail("supported", []string{"read", "write", "readwrite"})

	if err.Details["access"] != "admin" {
		t.Errorf("expected access detail, got %v", err.Details["access"])
	}
	if err.Code != ErrCodeUnsupportedAccess {
		t.Errorf("expected %s, got %s", ErrCodeUnsupportedAccess, err.Code)
	}
}

func TestParseFramework(t *testing.T) {
	for _, valid := range []string{"commercial", "fedramp-moderate", "fedramp-high"} {
		fw, err := ParseFramework(valid)
		if err != nil {
			t.Errorf("ParseFramework(%q) returned error: %v", valid, err)
		}
		if string(fw) != valid {
			t.Errorf("ParseFramework(%q) = %q", valid, fw)
		}
	}

	_, err := ParseFramework("fedramp-low")
	if err == nil {
		t.Fatal("expected error for unknown framework")
	}
	if !IsConfigurationError(err) {
		t.Errorf("unknown framework should be configuration-class, got %v", err)
	}
}

func TestFramework_IsFedRAMP(t *testing.T) {
	if FrameworkCommercial.IsFedRAMP() {
		t.Error("commercial is not FedRAMP")
	}
	if !FrameworkFedRAMPModerate.IsFedRAMP() || !FrameworkFedRAMPHigh.IsFedRAMP() {
		t.Error("fedramp frameworks should report IsFedRAMP")
	}
}
