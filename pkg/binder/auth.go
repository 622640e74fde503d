package binder

import (
	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// AuthStrategy binds any source component to an auth:user-pool capability.
// It recognizes the identity-domain access levels instead of the generic
// read/write set.
//
// Default environment variables: USER_POOL_ID, USER_POOL_CLIENT_ID,
// USER_POOL_ARN.
type AuthStrategy struct{}

func (AuthStrategy) Name() string { return "auth-user-pool" }

func (AuthStrategy) Claims() []Claim {
	return []Claim{{SourceType: AnySourceType, Capability: "auth:user-pool"}}
}

var authActions = map[engine.AccessLevel][]string{
	engine.AccessAuthenticate: {
		"cognito-idp:InitiateAuth",
		"cognito-idp:RespondToAuthChallenge",
		"cognito-idp:GetUser",
		"cognito-idp:GlobalSignOut",
	},
	engine.AccessManage: {
		"cognito-idp:AdminCreateUser",
		"cognito-idp:AdminDeleteUser",
		"cognito-idp:AdminGetUser",
		"cognito-idp:AdminUpdateUserAttributes",
		"cognito-idp:AdminResetUserPassword",
		"cognito-idp:ListUsers",
	},
	engine.AccessAdmin: {
		"cognito-idp:InitiateAuth",
		"cognito-idp:RespondToAuthChallenge",
		"cognito-idp:GetUser",
		"cognito-idp:GlobalSignOut",
		"cognito-idp:AdminCreateUser",
		"cognito-idp:AdminDeleteUser",
		"cognito-idp:AdminGetUser",
		"cognito-idp:AdminUpdateUserAttributes",
		"cognito-idp:AdminResetUserPassword",
		"cognito-idp:ListUsers",
		"cognito-idp:UpdateUserPool",
	},
}

func (s AuthStrategy) Bind(_ engine.ComponentContext, directive engine.BindingDirective, payload map[string]interface{}) (*engine.BindingResult, error) {
	actions, ok := authActions[directive.Access]
	if !ok {
		return nil, unsupportedAccess(directive.Access, directive.Capability,
			[]string{"authenticate", "manage", "admin"})
	}

	userPoolID, err := payloadString(payload, "userPoolId", directive.Capability)
	if err != nil {
		return nil, err
	}
	userPoolArn, err := payloadString(payload, "userPoolArn", directive.Capability)
	if err != nil {
		return nil, err
	}
	clientID, err := payloadString(payload, "clientId", directive.Capability)
	if err != nil {
		return nil, err
	}

	return &engine.BindingResult{
		Directive: directive,
		Env: map[string]string{
			"USER_POOL_ID":        userPoolID,
			"USER_POOL_CLIENT_ID": clientID,
			"USER_POOL_ARN":       userPoolArn,
		},
		Permissions: []engine.PermissionStatement{
			{Effect: "Allow", Actions: actions, Resource: userPoolArn},
		},
	}, nil
}
