package binder

import (
	"fmt"
	"strings"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// ComplianceMode controls what happens when a FedRAMP obligation is unmet.
type ComplianceMode string

const (
	// ComplianceModeAdvisory records unmet obligations as compliance actions
	// on the binding result without failing the binding.
	ComplianceModeAdvisory ComplianceMode = "advisory"

	// ComplianceModeEnforcing fails the binding when an obligation is unmet.
	ComplianceModeEnforcing ComplianceMode = "enforcing"
)

// ParseComplianceMode converts a string into a ComplianceMode.
func ParseComplianceMode(s string) (ComplianceMode, error) {
	switch ComplianceMode(s) {
	case ComplianceModeAdvisory, ComplianceModeEnforcing:
		return ComplianceMode(s), nil
	default:
		return "", engine.NewConfigurationError(
			fmt.Sprintf("unknown compliance mode %q (expected advisory or enforcing)", s), nil)
	}
}

// CompliancePolicy layers framework-conditional restrictions on top of a
// strategy's binding result.
//
// Unrestricted network exposure under fedramp-high is rejected in both
// modes; that check is a hard guarantee, never an advisory.
type CompliancePolicy struct {
	mode ComplianceMode
}

// NewCompliancePolicy creates a policy in the given mode.
func NewCompliancePolicy(mode ComplianceMode) *CompliancePolicy {
	return &CompliancePolicy{mode: mode}
}

// Mode returns the policy's mode.
func (p *CompliancePolicy) Mode() ComplianceMode {
	return p.mode
}

// Apply checks the result against the context's compliance framework,
// appending compliance actions or failing the binding. Results for the
// commercial framework pass through untouched except for the open-CIDR
// check, which is unconditional under fedramp-high only.
func (p *CompliancePolicy) Apply(
	cc engine.ComponentContext,
	directive engine.BindingDirective,
	payload map[string]interface{},
	result *engine.BindingResult,
) error {
	if cc.Framework == engine.FrameworkFedRAMPHigh {
		if err := rejectOpenCIDRs(directive, result); err != nil {
			return err
		}
	}

	if !cc.Framework.IsFedRAMP() {
		return nil
	}

	// Every FedRAMP binding carries the audit-logging obligation; the engine
	// satisfies it by recording the binding in the audit store.
	result.ComplianceActions = append(result.ComplianceActions, engine.ComplianceAction{
		Framework:   cc.Framework,
		Rule:        "audit-logging-required",
		Severity:    engine.SeverityAdvisory,
		Description: fmt.Sprintf("binding %s access to %s is subject to audit logging", directive.Source, directive.Target),
	})

	var unmet []engine.ComplianceAction

	if strings.HasPrefix(directive.Capability, "queue:") {
		if dlq, _ := payload["dlqArn"].(string); dlq == "" {
			unmet = append(unmet, engine.ComplianceAction{
				Framework:   cc.Framework,
				Rule:        "queue-dlq-required",
				Severity:    engine.SeverityAdvisory,
				Description: fmt.Sprintf("queue bound by %s must configure a dead-letter queue", directive.Source),
			})
		}
	}

	if strings.HasPrefix(directive.Capability, "cache:") {
		if transit, _ := payload["transitEncryption"].(bool); !transit {
			unmet = append(unmet, engine.ComplianceAction{
				Framework:   cc.Framework,
				Rule:        "encryption-in-transit",
				Severity:    engine.SeverityAdvisory,
				Description: "cache connections must use encryption in transit",
			})
		}
	}

	// Network-bound capabilities always carry the in-transit obligation as a
	// recorded monitoring action under FedRAMP.
	if len(result.NetworkRules) > 0 {
		result.ComplianceActions = append(result.ComplianceActions, engine.ComplianceAction{
			Framework:   cc.Framework,
			Rule:        "network-traffic-monitored",
			Severity:    engine.SeverityAdvisory,
			Description: "network-bound capability traffic is subject to flow log monitoring",
		})
	}

	if len(unmet) == 0 {
		return nil
	}

	if p.mode == ComplianceModeEnforcing {
		rules := make([]string, len(unmet))
		for i, a := range unmet {
			rules[i] = a.Rule
		}
		return engine.NewComplianceViolationError(
			fmt.Sprintf("unmet compliance obligations under %s: %s",
				cc.Framework, strings.Join(rules, ", ")), nil).
			WithDetail("rules", rules)
	}

	result.ComplianceActions = append(result.ComplianceActions, unmet...)
	return nil
}

// rejectOpenCIDRs fails any rule that would allow unrestricted network
// access. The rule is rejected outright, never silently narrowed.
func rejectOpenCIDRs(directive engine.BindingDirective, result *engine.BindingResult) error {
	for _, rule := range result.NetworkRules {
		if isOpenCIDR(rule.SourceCIDR) {
			return engine.NewComplianceViolationError(
				fmt.Sprintf("network rule for port %d allows unrestricted source %s, forbidden under fedramp-high",
					rule.Port, rule.SourceCIDR), nil).
				WithDetail("cidr", rule.SourceCIDR).
				WithDetail("port", rule.Port).
				WithBinding(directive.Source, directive.Target, directive.Capability)
		}
	}
	return nil
}

func isOpenCIDR(cidr string) bool {
	return cidr == "0.0.0.0/0" || cidr == "::/0"
}
