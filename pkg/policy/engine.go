package policy

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/open-policy-agent/opa/rego"
	"github.com/rs/zerolog"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// Engine compiles and evaluates Rego policies. It implements
// engine.PolicyEvaluator.
type Engine struct {
	mu       sync.RWMutex
	policies map[string]*compiledPolicy
	logger   zerolog.Logger
}

// compiledPolicy pairs a policy with its prepared query.
type compiledPolicy struct {
	policy *Policy
	query  rego.PreparedEvalQuery
}

// NewEngine creates a policy engine preloaded with the built-in policies.
func NewEngine(logger zerolog.Logger) (*Engine, error) {
	e := &Engine{
		policies: make(map[string]*compiledPolicy),
		logger:   logger.With().Str("component", "policy-engine").Logger(),
	}

	for _, p := range BuiltinPolicies() {
		policy := p
		if err := e.compileAndStore(context.Background(), &policy); err != nil {
			return nil, fmt.Errorf("failed to compile built-in policy %s: %w", policy.Name, err)
		}
	}

	e.logger.Debug().Int("count", len(e.policies)).Msg("Built-in policies loaded")
	return e, nil
}

// Evaluate implements engine.PolicyEvaluator. Policy engine failures for one
// policy become warnings in the log, not run failures; governance findings
// come back as violations.
func (e *Engine) Evaluate(ctx context.Context, cc engine.ComponentContext, report *engine.SynthesisReport) ([]engine.PolicyViolation, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	input := BuildInput(cc, report)

	var violations []engine.PolicyViolation
	for _, name := range e.sortedNames() {
		cp := e.policies[name]
		if !cp.policy.Enabled {
			continue
		}

		results, err := cp.query.Eval(ctx, rego.EvalInput(input))
		if err != nil {
			e.logger.Error().Err(err).
				Str("policy", cp.policy.Name).
				Msg("Policy evaluation failed")
			continue
		}

		for _, result := range results {
			for _, expr := range result.Expressions {
				denySet, ok := expr.Value.([]interface{})
				if !ok {
					continue
				}
				for _, d := range denySet {
					violations = append(violations, e.toViolation(cp.policy, d))
				}
			}
		}
	}

	return violations, nil
}

// LoadPaths loads and compiles extra policies from .rego files.
func (e *Engine) LoadPaths(ctx context.Context, paths []string) error {
	loader := NewLoader(e.logger)
	policies, err := loader.LoadFromPaths(paths)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range policies {
		if err := e.compileAndStore(ctx, &policies[i]); err != nil {
			return fmt.Errorf("failed to compile policy %s: %w", policies[i].Name, err)
		}
	}

	e.logger.Info().Int("count", len(policies)).Msg("Policies loaded")
	return nil
}

// List returns the loaded policies sorted by name.
func (e *Engine) List() []Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Policy, 0, len(e.policies))
	for _, name := range e.sortedNames() {
		out = append(out, *e.policies[name].policy)
	}
	return out
}

// SetEnabled flips a policy's enabled flag.
func (e *Engine) SetEnabled(name string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cp, exists := e.policies[name]
	if !exists {
		return fmt.Errorf("policy not found: %s", name)
	}
	cp.policy.Enabled = enabled
	return nil
}

// compileAndStore compiles one policy's deny query and stores it.
func (e *Engine) compileAndStore(ctx context.Context, policy *Policy) error {
	packageName := extractPackageName(policy.Rego)
	query := fmt.Sprintf("data.%s.deny", packageName)

	prepared, err := rego.New(
		rego.Module(policy.Name, policy.Rego),
		rego.Query(query),
	).PrepareForEval(ctx)
	if err != nil {
		return err
	}

	e.policies[policy.Name] = &compiledPolicy{policy: policy, query: prepared}

	e.logger.Debug().Str("policy", policy.Name).Msg("Policy compiled")
	return nil
}

func (e *Engine) sortedNames() []string {
	names := make([]string, 0, len(e.policies))
	for name := range e.policies {
		names = append(names, name)
	}
	// Deterministic evaluation order, so violation order is stable.
	sort.Strings(names)
	return names
}

// toViolation converts one deny-set entry into an engine violation.
func (e *Engine) toViolation(policy *Policy, result interface{}) engine.PolicyViolation {
	violation := engine.PolicyViolation{
		Policy:   policy.Name,
		Severity: string(policy.Severity),
	}

	switch v := result.(type) {
	case string:
		violation.Message = v
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok {
			violation.Message = msg
		}
		if sev, ok := v["severity"].(string); ok {
			violation.Severity = sev
		}
		if component, ok := v["component"].(string); ok {
			violation.Component = component
		}
	default:
		violation.Message = fmt.Sprintf("%v", result)
	}

	return violation
}

// extractPackageName extracts the package name from Rego source.
func extractPackageName(src string) string {
	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "package ") {
			parts := strings.Fields(trimmed)
			if len(parts) >= 2 {
				return parts[1]
			}
		}
	}
	return "shinobi.policies"
}
