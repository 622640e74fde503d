// Package policy evaluates Rego governance policies against synthesis
// reports and supplies the policy-override configuration layer.
package policy

import (
	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational findings.
	SeverityInfo Severity = "info"

	// SeverityWarning is for findings that should be reviewed.
	SeverityWarning Severity = "warning"

	// SeverityError is for findings that fail the synthesis run.
	SeverityError Severity = "error"

	// SeverityCritical is for findings that must be addressed immediately.
	SeverityCritical Severity = "critical"
)

// Policy is one governance rule with its Rego source.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code. The module must expose a deny set
	// of violation objects with message, severity, and component fields.
	Rego string `json:"rego"`

	// Severity is the default severity for violations that do not set one.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`
}

// Input is the document policies evaluate against. It carries the whole run:
// context, resolved components, and binding results.
type Input struct {
	// Context is the deployment context of the run.
	Context engine.ComponentContext `json:"context"`

	// Components are the successfully resolved components.
	Components []ComponentInput `json:"components"`

	// Bindings are the successfully resolved bindings.
	Bindings []BindingInput `json:"bindings"`
}

// ComponentInput is one resolved component as seen by policies.
type ComponentInput struct {
	// Name is the component name.
	Name string `json:"name"`

	// Type is the component type key.
	Type string `json:"type"`

	// Config is the resolved configuration.
	Config map[string]interface{} `json:"config"`

	// Capabilities are the published capability names.
	Capabilities []string `json:"capabilities,omitempty"`
}

// BindingInput is one resolved binding as seen by policies.
type BindingInput struct {
	// Source is the consuming component name.
	Source string `json:"source"`

	// Target is the providing component name.
	Target string `json:"target"`

	// Capability is the bound capability name.
	Capability string `json:"capability"`

	// Access is the granted access level.
	Access string `json:"access"`

	// NetworkRuleCount is the number of network rules in the result.
	NetworkRuleCount int `json:"network_rule_count"`
}

// BuildInput converts a synthesis report into the policy input document.
// Failed components and bindings are excluded; their errors are already in
// the report.
func BuildInput(cc engine.ComponentContext, report *engine.SynthesisReport) Input {
	in := Input{Context: cc}

	for i := range report.Components {
		outcome := &report.Components[i]
		if outcome.Error != nil || outcome.Config == nil {
			continue
		}
		in.Components = append(in.Components, ComponentInput{
			Name:         outcome.Component,
			Type:         outcome.Type,
			Config:       outcome.Config.Values,
			Capabilities: outcome.Capabilities,
		})
	}

	for i := range report.Bindings {
		outcome := &report.Bindings[i]
		if outcome.Error != nil || outcome.Result == nil {
			continue
		}
		in.Bindings = append(in.Bindings, BindingInput{
			Source:           outcome.Directive.Source,
			Target:           outcome.Directive.Target,
			Capability:       outcome.Directive.Capability,
			Access:           string(outcome.Directive.Access),
			NetworkRuleCount: len(outcome.Result.NetworkRules),
		})
	}

	return in
}
