// Package engine provides the core types and interfaces for the Shinobi
// synthesis core. It defines the component resolution workflow:
// Manifest -> ResolvedConfig -> Capabilities -> Bindings -> Report.
package engine

import (
	"errors"
	"fmt"
)

// ErrorClass classifies a synthesis error by the subsystem that raised it.
type ErrorClass string

const (
	// ErrorClassConfiguration indicates a configuration layer could not be
	// retrieved or merged. Examples: unknown compliance framework,
	// malformed layer document.
	ErrorClassConfiguration ErrorClass = "configuration"

	// ErrorClassSchema indicates a merged configuration violates its
	// declared schema.
	ErrorClassSchema ErrorClass = "schema"

	// ErrorClassCapability indicates a binding references a capability the
	// target component never published.
	ErrorClassCapability ErrorClass = "capability"

	// ErrorClassBinding indicates a binding directive could not be resolved.
	// Examples: no strategy claims the pair, unsupported access level.
	ErrorClassBinding ErrorClass = "binding"

	// ErrorClassCompliance indicates a compliance-mandated restriction would
	// be violated. Never downgraded to a warning.
	ErrorClassCompliance ErrorClass = "compliance"
)

// SynthesisError represents a classified error with component or binding context.
// nolint:revive // SynthesisError is intentionally named to distinguish from standard errors
type SynthesisError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Component is the component name that caused the error, if applicable.
	Component string `json:"component,omitempty"`

	// Binding identifies the binding directive, if applicable,
	// formatted as "source->target:capability".
	Binding string `json:"binding,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`

	// Details contains additional context-specific information.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *SynthesisError) Error() string {
	switch {
	case e.Component != "" && e.Binding != "":
		return fmt.Sprintf("[%s] %s (component=%s, binding=%s)%s",
			e.Class, e.Message, e.Component, e.Binding, e.unwrapSuffix())
	case e.Component != "":
		return fmt.Sprintf("[%s] %s (component=%s)%s",
			e.Class, e.Message, e.Component, e.unwrapSuffix())
	case e.Binding != "":
		return fmt.Sprintf("[%s] %s (binding=%s)%s",
			e.Class, e.Message, e.Binding, e.unwrapSuffix())
	default:
		return fmt.Sprintf("[%s] %s%s", e.Class, e.Message, e.unwrapSuffix())
	}
}

// Unwrap returns the underlying error for error chain inspection.
func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// unwrapSuffix renders the underlying error, if any.
func (e *SynthesisError) unwrapSuffix() string {
	if e.Err != nil {
		return ": " + e.Err.Error()
	}
	return ""
}

// Is implements error equality checking for errors.Is.
func (e *SynthesisError) Is(target error) bool {
	t, ok := target.(*SynthesisError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewConfigurationError creates a configuration-class error.
func NewConfigurationError(message string, err error) *SynthesisError {
	return &SynthesisError{
		Class:   ErrorClassConfiguration,
		Code:    ErrCodeConfiguration,
		Message: message,
		Err:     err,
	}
}

// NewSchemaError creates a schema-class error.
func NewSchemaError(message string, err error) *SynthesisError {
	return &SynthesisError{
		Class:   ErrorClassSchema,
		Code:    ErrCodeSchemaValidation,
		Message: message,
		Err:     err,
	}
}

// NewCapabilityNotFoundError creates a capability-class error.
func NewCapabilityNotFoundError(message string, err error) *SynthesisError {
	return &SynthesisError{
		Class:   ErrorClassCapability,
		Code:    ErrCodeCapabilityNotFound,
		Message: message,
		Err:     err,
	}
}

// NewNoBinderFoundError creates a binding-class error for an unclaimed pair.
func NewNoBinderFoundError(message string, err error) *SynthesisError {
	return &SynthesisError{
		Class:   ErrorClassBinding,
		Code:    ErrCodeNoBinderFound,
		Message: message,
		Err:     err,
	}
}

// NewUnsupportedAccessLevelError creates a binding-class error for an
// access level the matched strategy does not recognize.
func NewUnsupportedAccessLevelError(message string, err error) *SynthesisError {
	return &SynthesisError{
		Class:   ErrorClassBinding,
		Code:    ErrCodeUnsupportedAccess,
		Message: message,
		Err:     err,
	}
}

// NewComplianceViolationError creates a compliance-class error.
func NewComplianceViolationError(message string, err error) *SynthesisError {
	return &SynthesisError{
		Class:   ErrorClassCompliance,
		Code:    ErrCodeComplianceViolation,
		Message: message,
		Err:     err,
	}
}

// WithComponent adds component context to an error.
func (e *SynthesisError) WithComponent(name string) *SynthesisError {
	e.Component = name
	return e
}

// WithBinding adds binding context to an error.
func (e *SynthesisError) WithBinding(source, target, capability string) *SynthesisError {
	e.Binding = fmt.Sprintf("%s->%s:%s", source, target, capability)
	return e
}

// WithCode overrides the error code.
func (e *SynthesisError) WithCode(code string) *SynthesisError {
	e.Code = code
	return e
}

// WithDetail adds a detail field to the error context.
func (e *SynthesisError) WithDetail(key string, value interface{}) *SynthesisError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsConfigurationError returns true if the error is configuration-class.
func IsConfigurationError(err error) bool {
	return hasClass(err, ErrorClassConfiguration)
}

// IsSchemaError returns true if the error is schema-class.
func IsSchemaError(err error) bool {
	return hasClass(err, ErrorClassSchema)
}

// IsCapabilityNotFound returns true if the error is capability-class.
func IsCapabilityNotFound(err error) bool {
	return hasClass(err, ErrorClassCapability)
}

// IsBindingError returns true if the error is binding-class.
func IsBindingError(err error) bool {
	return hasClass(err, ErrorClassBinding)
}

// IsComplianceViolation returns true if the error is compliance-class.
func IsComplianceViolation(err error) bool {
	return hasClass(err, ErrorClassCompliance)
}

func hasClass(err error, class ErrorClass) bool {
	var e *SynthesisError
	if errors.As(err, &e) {
		return e.Class == class
	}
	return false
}

// Common error codes.
const (
	ErrCodeConfiguration       = "CONFIGURATION_ERROR"
	ErrCodeSchemaValidation    = "SCHEMA_VALIDATION_FAILED"
	ErrCodeCapabilityNotFound  = "CAPABILITY_NOT_FOUND"
	ErrCodeNoBinderFound       = "NO_BINDER_FOUND"
	ErrCodeUnsupportedAccess   = "UNSUPPORTED_ACCESS_LEVEL"
	ErrCodeComplianceViolation = "COMPLIANCE_VIOLATION"
	ErrCodeDuplicateCapability = "DUPLICATE_CAPABILITY"
	ErrCodeAmbiguousBinder     = "AMBIGUOUS_BINDER"
	ErrCodeManifestInvalid     = "MANIFEST_INVALID"
	ErrCodeInternal            = "INTERNAL_ERROR"
)
