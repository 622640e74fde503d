package binder

import (
	"fmt"
	"strconv"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// DatabaseStrategy binds any source component to a database:postgres
// capability. Credentials come from the secret referenced by the payload, so
// every access level grants secret retrieval; the database-level grants are
// the schema owner's concern.
//
// Default environment variables: DB_HOST, DB_PORT, DB_NAME, DB_SECRET_ARN.
type DatabaseStrategy struct{}

func (DatabaseStrategy) Name() string { return "database-postgres" }

func (DatabaseStrategy) Claims() []Claim {
	return []Claim{{SourceType: AnySourceType, Capability: "database:postgres"}}
}

func (s DatabaseStrategy) Bind(cc engine.ComponentContext, directive engine.BindingDirective, payload map[string]interface{}) (*engine.BindingResult, error) {
	var secretActions []string
	switch directive.Access {
	case engine.AccessRead, engine.AccessWrite, engine.AccessReadWrite:
		secretActions = []string{"secretsmanager:GetSecretValue"}
	case engine.AccessAdmin:
		secretActions = []string{"secretsmanager:GetSecretValue", "secretsmanager:DescribeSecret"}
	default:
		return nil, unsupportedAccess(directive.Access, directive.Capability,
			[]string{"read", "write", "readwrite", "admin"})
	}

	host, err := payloadString(payload, "host", directive.Capability)
	if err != nil {
		return nil, err
	}
	dbName, err := payloadString(payload, "dbName", directive.Capability)
	if err != nil {
		return nil, err
	}
	secretArn, err := payloadString(payload, "secretArn", directive.Capability)
	if err != nil {
		return nil, err
	}
	targetSG, err := payloadString(payload, "securityGroupId", directive.Capability)
	if err != nil {
		return nil, err
	}
	port := payloadInt(payload, "port", 5432)

	return &engine.BindingResult{
		Directive: directive,
		Env: map[string]string{
			"DB_HOST":       host,
			"DB_PORT":       strconv.Itoa(port),
			"DB_NAME":       dbName,
			"DB_SECRET_ARN": secretArn,
		},
		Permissions: []engine.PermissionStatement{
			{Effect: "Allow", Actions: secretActions, Resource: secretArn},
		},
		NetworkRules: []engine.NetworkRule{
			{
				Direction:   engine.DirectionIngress,
				Protocol:    "tcp",
				Port:        port,
				SourceID:    sourceSecurityGroupRef(cc, directive),
				TargetID:    targetSG,
				Description: fmt.Sprintf("%s to %s postgres", directive.Source, directive.Target),
			},
		},
	}, nil
}
