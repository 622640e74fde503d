package policy

// BuiltinPolicies returns the governance policies compiled into every
// engine.
func BuiltinPolicies() []Policy {
	return []Policy{
		componentNamingPolicy(),
		requiredTagsPolicy(),
		encryptionAtRestPolicy(),
		logRetentionPolicy(),
		adminAccessPolicy(),
	}
}

// componentNamingPolicy enforces component naming conventions.
func componentNamingPolicy() Policy {
	return Policy{
		Name:        "component-naming",
		Description: "Component names must be lowercase alphanumeric with hyphens",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"naming", "conventions"},
		Rego: `package shinobi.policies.naming

import rego.v1

deny contains violation if {
	some component in input.components
	not regex.match("^[a-z][a-z0-9-]*[a-z0-9]$", component.name)
	violation := {
		"message": sprintf("component name '%s' must be lowercase alphanumeric with hyphens", [component.name]),
		"severity": "error",
		"component": component.name,
	}
}
`,
	}
}

// requiredTagsPolicy checks the run context carries the mandatory tags.
func requiredTagsPolicy() Policy {
	return Policy{
		Name:        "required-tags",
		Description: "Deployments must carry a cost-center tag",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"tagging", "finops"},
		Rego: `package shinobi.policies.tags

import rego.v1

deny contains violation if {
	not input.context.tags["cost-center"]
	violation := {
		"message": "deployment context is missing the cost-center tag",
		"severity": "warning",
	}
}
`,
	}
}

// encryptionAtRestPolicy requires at-rest encryption under FedRAMP.
func encryptionAtRestPolicy() Policy {
	return Policy{
		Name:        "fedramp-encryption-at-rest",
		Description: "FedRAMP deployments must encrypt data at rest",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"compliance", "encryption"},
		Rego: `package shinobi.policies.encryption

import rego.v1

fedramp if {
	input.context.framework in {"fedramp-moderate", "fedramp-high"}
}

deny contains violation if {
	fedramp
	some component in input.components
	component.type == "sqs-queue"
	component.config.encryption.enabled != true
	violation := {
		"message": sprintf("queue '%s' must enable encryption at rest", [component.name]),
		"severity": "error",
		"component": component.name,
	}
}

deny contains violation if {
	fedramp
	some component in input.components
	component.type == "rds-postgres"
	component.config.storageEncrypted != true
	violation := {
		"message": sprintf("database '%s' must enable storage encryption", [component.name]),
		"severity": "error",
		"component": component.name,
	}
}

deny contains violation if {
	fedramp
	some component in input.components
	component.type == "redis-cache"
	component.config.atRestEncryption != true
	violation := {
		"message": sprintf("cache '%s' must enable at-rest encryption", [component.name]),
		"severity": "error",
		"component": component.name,
	}
}
`,
	}
}

// logRetentionPolicy checks log retention meets the fedramp-high floor.
func logRetentionPolicy() Policy {
	return Policy{
		Name:        "fedramp-high-log-retention",
		Description: "fedramp-high functions must retain logs for at least a year",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"compliance", "logging"},
		Rego: `package shinobi.policies.logretention

import rego.v1

deny contains violation if {
	input.context.framework == "fedramp-high"
	some component in input.components
	component.type == "lambda-api"
	component.config.logging.retentionDays < 365
	violation := {
		"message": sprintf("function '%s' retains logs for %d days, fedramp-high requires 365", [component.name, component.config.logging.retentionDays]),
		"severity": "warning",
		"component": component.name,
	}
}
`,
	}
}

// adminAccessPolicy flags admin-level bindings in production.
func adminAccessPolicy() Policy {
	return Policy{
		Name:        "prod-admin-access",
		Description: "Admin access levels in production deserve review",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"access", "least-privilege"},
		Rego: `package shinobi.policies.adminaccess

import rego.v1

deny contains violation if {
	input.context.environment == "prod"
	some binding in input.bindings
	binding.access == "admin"
	violation := {
		"message": sprintf("binding %s->%s requests admin access in production", [binding.source, binding.target]),
		"severity": "warning",
		"component": binding.source,
	}
}
`,
	}
}
