package engine

import (
	"encoding/json"
	"fmt"
	"time"
)

// Framework identifies the compliance framework a service deploys under.
// It drives which configuration defaults and binding restrictions apply.
type Framework string

const (
	// FrameworkCommercial is the baseline framework with no extra restrictions.
	FrameworkCommercial Framework = "commercial"

	// FrameworkFedRAMPModerate adds mandatory compliance actions to bindings.
	FrameworkFedRAMPModerate Framework = "fedramp-moderate"

	// FrameworkFedRAMPHigh adds mandatory compliance actions and hard-fails
	// unrestricted network exposure.
	FrameworkFedRAMPHigh Framework = "fedramp-high"
)

// ParseFramework converts a string into a Framework.
// Returns a configuration-class error for unknown values.
func ParseFramework(s string) (Framework, error) {
	switch Framework(s) {
	case FrameworkCommercial, FrameworkFedRAMPModerate, FrameworkFedRAMPHigh:
		return Framework(s), nil
	default:
		return "", NewConfigurationError(fmt.Sprintf("unknown compliance framework: %q", s), nil)
	}
}

// IsFedRAMP returns true for the fedramp-moderate and fedramp-high frameworks.
func (f Framework) IsFedRAMP() bool {
	return f == FrameworkFedRAMPModerate || f == FrameworkFedRAMPHigh
}

// AccessLevel is the access a binding directive requests on a capability.
type AccessLevel string

const (
	AccessRead      AccessLevel = "read"
	AccessWrite     AccessLevel = "write"
	AccessReadWrite AccessLevel = "readwrite"
	AccessAdmin     AccessLevel = "admin"

	// AccessAuthenticate and AccessManage are domain-specific levels used by
	// identity capabilities such as auth:user-pool.
	AccessAuthenticate AccessLevel = "authenticate"
	AccessManage       AccessLevel = "manage"
)

// ComponentContext describes the deployment target for one synthesis run.
// It is created once per run and never mutated.
type ComponentContext struct {
	// Service is the service name from the manifest.
	Service string `json:"service"`

	// Owner is the owning team.
	Owner string `json:"owner"`

	// Environment is the deployment environment name (e.g., "dev", "prod").
	Environment string `json:"environment"`

	// Framework is the compliance framework for this deployment.
	Framework Framework `json:"framework"`

	// Region is the target cloud region.
	Region string `json:"region"`

	// Account is the target account identifier.
	Account string `json:"account"`

	// Tags are propagated to every synthesized resource.
	Tags map[string]string `json:"tags,omitempty"`
}

// ComponentSpec is a single component declaration from the manifest.
type ComponentSpec struct {
	// Name is the component name, unique within the service.
	Name string `json:"name"`

	// Type is the component type key (e.g., "sqs-queue", "lambda-api").
	Type string `json:"type"`

	// Config is the manifest author's configuration for this component.
	// It becomes the component-override layer during resolution.
	Config map[string]interface{} `json:"config,omitempty"`
}

// BindingDirective is a manifest-declared edge from a source component to a
// target component's capability.
type BindingDirective struct {
	// Source is the consuming component name.
	Source string `json:"source"`

	// Target is the providing component name.
	Target string `json:"target"`

	// Capability is the capability name on the target (e.g., "queue:sqs").
	Capability string `json:"capability"`

	// Access is the requested access level.
	Access AccessLevel `json:"access"`

	// EnvNames maps a strategy's default environment variable names to
	// caller-chosen names. Unmapped variables keep their defaults.
	EnvNames map[string]string `json:"env,omitempty"`
}

// Key renders the directive as "source->target:capability" for logs and errors.
func (d BindingDirective) Key() string {
	return fmt.Sprintf("%s->%s:%s", d.Source, d.Target, d.Capability)
}

// ResolvedConfig is the final configuration for one component after the
// five-layer merge and schema validation.
type ResolvedConfig struct {
	// Component is the component name.
	Component string `json:"component"`

	// Type is the component type key.
	Type string `json:"type"`

	// Framework is the compliance framework the config was resolved under.
	Framework Framework `json:"framework"`

	// Values is the merged configuration object.
	Values map[string]interface{} `json:"values"`
}

// CanonicalJSON renders the resolved values as deterministic JSON.
// encoding/json sorts map keys, so identical values yield identical bytes.
func (rc *ResolvedConfig) CanonicalJSON() ([]byte, error) {
	return json.Marshal(rc.Values)
}

// PermissionStatement describes one IAM-style permission to attach to the
// binding's source component.
type PermissionStatement struct {
	// Effect is "Allow" or "Deny".
	Effect string `json:"effect"`

	// Actions are the permitted actions (e.g., "sqs:ReceiveMessage").
	Actions []string `json:"actions"`

	// Resource is the target resource identifier (ARN).
	Resource string `json:"resource"`

	// Conditions are optional condition blocks keyed by condition operator.
	Conditions map[string]interface{} `json:"conditions,omitempty"`
}

// RuleDirection indicates the direction of a network rule.
type RuleDirection string

const (
	DirectionIngress RuleDirection = "ingress"
	DirectionEgress  RuleDirection = "egress"
)

// NetworkRule describes a network reachability rule between the two
// components of a binding, or between a component and a CIDR block.
type NetworkRule struct {
	// Direction is ingress or egress relative to the target component.
	Direction RuleDirection `json:"direction"`

	// Protocol is the IP protocol (tcp, udp).
	Protocol string `json:"protocol"`

	// Port is the destination port.
	Port int `json:"port"`

	// SourceID is the network identity of the connection source
	// (security group identifier), empty when SourceCIDR is set.
	SourceID string `json:"source_id,omitempty"`

	// SourceCIDR is a CIDR block, used instead of SourceID.
	SourceCIDR string `json:"source_cidr,omitempty"`

	// TargetID is the network identity of the connection target.
	TargetID string `json:"target_id"`

	// Description documents why the rule exists.
	Description string `json:"description,omitempty"`
}

// ComplianceAction is a restriction or monitoring obligation attached to a
// binding for audit purposes.
type ComplianceAction struct {
	// Framework is the framework that mandated the action.
	Framework Framework `json:"framework"`

	// Rule is a stable identifier for the obligation
	// (e.g., "queue-dlq-required").
	Rule string `json:"rule"`

	// Severity is "advisory" or "blocking".
	Severity string `json:"severity"`

	// Description is the human-readable obligation.
	Description string `json:"description"`
}

// Compliance action severities.
const (
	SeverityAdvisory = "advisory"
	SeverityBlocking = "blocking"
)

// BindingResult is the output of resolving one BindingDirective.
// It is a pure descriptor; the caller applies it to the target system.
type BindingResult struct {
	// Directive is the directive this result was computed from.
	Directive BindingDirective `json:"directive"`

	// Env maps environment variable names to values for the source component.
	Env map[string]string `json:"env"`

	// Permissions are the permission statements to attach to the source.
	Permissions []PermissionStatement `json:"permissions"`

	// NetworkRules are reachability rules, present only for network-bound
	// capabilities.
	NetworkRules []NetworkRule `json:"network_rules,omitempty"`

	// ComplianceActions are the obligations recorded for this binding.
	ComplianceActions []ComplianceAction `json:"compliance_actions,omitempty"`
}

// ComponentOutcome records the result of resolving one component.
type ComponentOutcome struct {
	// Component is the component name.
	Component string `json:"component"`

	// Type is the component type key.
	Type string `json:"type"`

	// Config is the resolved configuration, nil when resolution failed.
	Config *ResolvedConfig `json:"config,omitempty"`

	// Capabilities are the capability names published by this component.
	Capabilities []string `json:"capabilities,omitempty"`

	// Error is the resolution error, nil on success.
	Error *SynthesisError `json:"error,omitempty"`
}

// BindingOutcome records the result of resolving one binding directive.
type BindingOutcome struct {
	// Directive is the directive that was resolved.
	Directive BindingDirective `json:"directive"`

	// Result is the binding result, nil when resolution failed.
	Result *BindingResult `json:"result,omitempty"`

	// Error is the resolution error, nil on success.
	Error *SynthesisError `json:"error,omitempty"`
}

// SynthesisReport is the complete result of one synthesis run.
// Component failures do not abort sibling components and binding failures do
// not abort sibling bindings; the report carries every error at once so
// operators fix everything in one pass.
type SynthesisReport struct {
	// RunID is the unique identifier for this run.
	RunID string `json:"run_id"`

	// Service is the service name from the manifest.
	Service string `json:"service"`

	// Framework is the compliance framework of the run.
	Framework Framework `json:"framework"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the run completed.
	CompletedAt time.Time `json:"completed_at"`

	// Components are the per-component outcomes in resolution order.
	Components []ComponentOutcome `json:"components"`

	// Bindings are the per-binding outcomes in manifest order.
	Bindings []BindingOutcome `json:"bindings"`

	// PolicyViolations are governance policy findings for the run.
	PolicyViolations []PolicyViolation `json:"policy_violations,omitempty"`
}

// PolicyViolation is a governance policy finding attached to the report.
type PolicyViolation struct {
	// Policy is the name of the violated policy.
	Policy string `json:"policy"`

	// Component is the component the finding applies to, if any.
	Component string `json:"component,omitempty"`

	// Message is the human-readable finding.
	Message string `json:"message"`

	// Severity is the finding severity (info, warning, error, critical).
	Severity string `json:"severity"`
}

// Errors returns every component and binding error in report order.
func (r *SynthesisReport) Errors() []*SynthesisError {
	var errs []*SynthesisError
	for i := range r.Components {
		if r.Components[i].Error != nil {
			errs = append(errs, r.Components[i].Error)
		}
	}
	for i := range r.Bindings {
		if r.Bindings[i].Error != nil {
			errs = append(errs, r.Bindings[i].Error)
		}
	}
	return errs
}

// Failed reports whether any component or binding failed, or any policy
// violation of severity error or critical was recorded.
func (r *SynthesisReport) Failed() bool {
	if len(r.Errors()) > 0 {
		return true
	}
	for i := range r.PolicyViolations {
		sev := r.PolicyViolations[i].Severity
		if sev == "error" || sev == "critical" {
			return true
		}
	}
	return false
}

// Summary returns a one-line human-readable summary of the report.
func (r *SynthesisReport) Summary() string {
	okComponents := 0
	for i := range r.Components {
		if r.Components[i].Error == nil {
			okComponents++
		}
	}
	okBindings := 0
	for i := range r.Bindings {
		if r.Bindings[i].Error == nil {
			okBindings++
		}
	}
	return fmt.Sprintf("service=%s framework=%s components=%d/%d bindings=%d/%d violations=%d",
		r.Service, r.Framework,
		okComponents, len(r.Components),
		okBindings, len(r.Bindings),
		len(r.PolicyViolations))
}
