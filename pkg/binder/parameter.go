package binder

import (
	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// ParameterStrategy binds any source component to a parameter:ssm capability.
//
// Default environment variables: PARAMETER_NAME, PARAMETER_ARN.
type ParameterStrategy struct{}

func (ParameterStrategy) Name() string { return "parameter-ssm" }

func (ParameterStrategy) Claims() []Claim {
	return []Claim{{SourceType: AnySourceType, Capability: "parameter:ssm"}}
}

var parameterActions = map[engine.AccessLevel][]string{
	engine.AccessRead: {
		"ssm:GetParameter",
		"ssm:GetParameters",
		"ssm:GetParameterHistory",
	},
	engine.AccessWrite: {
		"ssm:PutParameter",
	},
	engine.AccessReadWrite: {
		"ssm:GetParameter",
		"ssm:GetParameters",
		"ssm:GetParameterHistory",
		"ssm:PutParameter",
	},
	engine.AccessAdmin: {
		"ssm:GetParameter",
		"ssm:GetParameters",
		"ssm:GetParameterHistory",
		"ssm:PutParameter",
		"ssm:DeleteParameter",
		"ssm:AddTagsToResource",
	},
}

func (s ParameterStrategy) Bind(_ engine.ComponentContext, directive engine.BindingDirective, payload map[string]interface{}) (*engine.BindingResult, error) {
	actions, ok := parameterActions[directive.Access]
	if !ok {
		return nil, unsupportedAccess(directive.Access, directive.Capability,
			[]string{"read", "write", "readwrite", "admin"})
	}

	parameterName, err := payloadString(payload, "parameterName", directive.Capability)
	if err != nil {
		return nil, err
	}
	parameterArn, err := payloadString(payload, "parameterArn", directive.Capability)
	if err != nil {
		return nil, err
	}

	return &engine.BindingResult{
		Directive: directive,
		Env: map[string]string{
			"PARAMETER_NAME": parameterName,
			"PARAMETER_ARN":  parameterArn,
		},
		Permissions: []engine.PermissionStatement{
			{Effect: "Allow", Actions: actions, Resource: parameterArn},
		},
	}, nil
}
