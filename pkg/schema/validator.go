// Package schema validates merged component configurations against the
// declared JSON Schema for their component type.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// Violation is one schema validation failure with its field path.
type Violation struct {
	// Path is a JSON pointer to the offending field ("/monitoring/enabled").
	Path string `json:"path"`

	// Rule is the schema keyword that failed ("enum", "required", "maximum").
	Rule string `json:"rule"`

	// Message is the human-readable reason.
	Message string `json:"message"`
}

func (v Violation) String() string {
	path := v.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%s: %s", path, v.Message)
}

// Validator validates configurations against the built-in component type
// schemas. Validation never mutates its input; the explicit lenient path is
// Normalize.
type Validator struct {
	compiled map[string]*jsonschema.Schema
	raw      map[string]map[string]interface{}
}

// NewValidator compiles the built-in schemas. Extra schemas extend or
// override the built-ins, keyed by component type.
func NewValidator(extra map[string]string) (*Validator, error) {
	docs := make(map[string]string, len(builtinSchemas)+len(extra))
	for t, doc := range builtinSchemas {
		docs[t] = doc
	}
	for t, doc := range extra {
		docs[t] = doc
	}

	v := &Validator{
		compiled: make(map[string]*jsonschema.Schema, len(docs)),
		raw:      make(map[string]map[string]interface{}, len(docs)),
	}

	for componentType, doc := range docs {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		url := "shinobi:///schemas/" + componentType + ".json"
		if err := compiler.AddResource(url, strings.NewReader(doc)); err != nil {
			return nil, fmt.Errorf("failed to load schema for type %q: %w", componentType, err)
		}
		compiled, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema for type %q: %w", componentType, err)
		}
		v.compiled[componentType] = compiled

		var raw map[string]interface{}
		if err := json.Unmarshal([]byte(doc), &raw); err != nil {
			return nil, fmt.Errorf("schema for type %q is not valid JSON: %w", componentType, err)
		}
		v.raw[componentType] = raw
	}

	return v, nil
}

// MustNewValidator is NewValidator panicking on compile failure. Built-in
// schemas are compile-time constants, so failure is a programmer error.
func MustNewValidator() *Validator {
	v, err := NewValidator(nil)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate implements the config package's SchemaValidator contract. The
// returned error carries every violation, not just the first.
func (v *Validator) Validate(componentType string, values map[string]interface{}) error {
	violations, err := v.Check(componentType, values)
	if err != nil {
		return err
	}
	if len(violations) == 0 {
		return nil
	}

	lines := make([]string, len(violations))
	for i, viol := range violations {
		lines[i] = viol.String()
	}
	return engine.NewSchemaError(
		fmt.Sprintf("configuration for type %q has %d schema violation(s): %s",
			componentType, len(violations), strings.Join(lines, "; ")), nil).
		WithDetail("violations", violations)
}

// Check returns the full violation list for a configuration. An empty list
// means the configuration is valid.
func (v *Validator) Check(componentType string, values map[string]interface{}) ([]Violation, error) {
	compiled, ok := v.compiled[componentType]
	if !ok {
		return nil, engine.NewConfigurationError(
			fmt.Sprintf("no schema registered for component type %q", componentType), nil)
	}

	instance, err := jsonRoundTrip(values)
	if err != nil {
		return nil, engine.NewSchemaError("configuration is not JSON-representable", err)
	}

	err = compiled.Validate(instance)
	if err == nil {
		return nil, nil
	}

	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, engine.NewSchemaError("schema validation failed", err)
	}
	return flatten(ve), nil
}

// Normalize is the explicitly chosen lenient path: invalid enum values are
// replaced with the schema's declared default and reported as warnings
// instead of failing validation. All other violations still fail. The input
// is never mutated; callers get a fresh map.
func (v *Validator) Normalize(componentType string, values map[string]interface{}) (map[string]interface{}, []string, error) {
	violations, err := v.Check(componentType, values)
	if err != nil {
		return nil, nil, err
	}
	if len(violations) == 0 {
		out, err := cloneConfig(values)
		return out, nil, err
	}

	out, err := cloneConfig(values)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	var hard []Violation
	for _, viol := range violations {
		if viol.Rule != "enum" {
			hard = append(hard, viol)
			continue
		}
		def, found := v.defaultAt(componentType, viol.Path)
		if !found {
			hard = append(hard, viol)
			continue
		}
		if !setAtPointer(out, viol.Path, def) {
			hard = append(hard, viol)
			continue
		}
		warnings = append(warnings,
			fmt.Sprintf("%s: invalid enum value replaced with default %v", viol.Path, def))
	}

	if len(hard) > 0 {
		lines := make([]string, len(hard))
		for i, viol := range hard {
			lines[i] = viol.String()
		}
		return nil, warnings, engine.NewSchemaError(
			fmt.Sprintf("configuration for type %q has %d schema violation(s): %s",
				componentType, len(hard), strings.Join(lines, "; ")), nil).
			WithDetail("violations", hard)
	}

	// Substituted defaults must themselves validate.
	if err := v.Validate(componentType, out); err != nil {
		return nil, warnings, err
	}
	return out, warnings, nil
}

// flatten walks the hierarchical validation error into a flat violation list,
// keeping only leaf causes.
func flatten(ve *jsonschema.ValidationError) []Violation {
	var out []Violation
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, Violation{
				Path:    e.InstanceLocation,
				Rule:    lastKeyword(e.KeywordLocation),
				Message: e.Message,
			})
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)
	return out
}

// lastKeyword extracts the failing keyword from a keyword location pointer.
func lastKeyword(keywordLocation string) string {
	segments := strings.Split(keywordLocation, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if seg == "" {
			continue
		}
		// Skip numeric segments such as allOf indices.
		if !strings.ContainsAny(seg, "0123456789") || strings.ContainsAny(seg, "abcdefghijklmnopqrstuvwxyz") {
			return seg
		}
	}
	return keywordLocation
}

// defaultAt looks up the schema-declared default for the property at a JSON
// pointer into the instance.
func (v *Validator) defaultAt(componentType, instancePointer string) (interface{}, bool) {
	node, ok := v.raw[componentType]
	if !ok {
		return nil, false
	}

	current := interface{}(node)
	for _, seg := range pointerSegments(instancePointer) {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		props, ok := obj["properties"].(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = props[seg]
		if !ok {
			return nil, false
		}
	}

	schemaObj, ok := current.(map[string]interface{})
	if !ok {
		return nil, false
	}
	def, ok := schemaObj["default"]
	return def, ok
}

// setAtPointer writes a value at a JSON pointer inside a config map.
func setAtPointer(values map[string]interface{}, pointer string, value interface{}) bool {
	segments := pointerSegments(pointer)
	if len(segments) == 0 {
		return false
	}
	current := values
	for _, seg := range segments[:len(segments)-1] {
		next, ok := current[seg].(map[string]interface{})
		if !ok {
			return false
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
	return true
}

func pointerSegments(pointer string) []string {
	trimmed := strings.Trim(pointer, "/")
	if trimmed == "" {
		return nil
	}
	segments := strings.Split(trimmed, "/")
	for i, seg := range segments {
		seg = strings.ReplaceAll(seg, "~1", "/")
		segments[i] = strings.ReplaceAll(seg, "~0", "~")
	}
	return segments
}

// jsonRoundTrip converts a config map into the plain JSON value shape the
// schema library expects, leaving the original untouched.
func jsonRoundTrip(values map[string]interface{}) (interface{}, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneConfig(values map[string]interface{}) (map[string]interface{}, error) {
	rt, err := jsonRoundTrip(values)
	if err != nil {
		return nil, engine.NewSchemaError("configuration is not JSON-representable", err)
	}
	out, ok := rt.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}, nil
	}
	return out, nil
}
