package binder

import (
	"fmt"
	"strconv"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// CacheStrategy binds any source component to a cache:redis capability.
//
// Redis access control lives in the protocol, not IAM, so the result carries
// connection env vars and a network rule rather than permission statements.
// Default environment variables: CACHE_HOST, CACHE_PORT.
type CacheStrategy struct{}

func (CacheStrategy) Name() string { return "cache-redis" }

func (CacheStrategy) Claims() []Claim {
	return []Claim{{SourceType: AnySourceType, Capability: "cache:redis"}}
}

func (s CacheStrategy) Bind(cc engine.ComponentContext, directive engine.BindingDirective, payload map[string]interface{}) (*engine.BindingResult, error) {
	switch directive.Access {
	case engine.AccessRead, engine.AccessWrite, engine.AccessReadWrite, engine.AccessAdmin:
	default:
		return nil, unsupportedAccess(directive.Access, directive.Capability,
			[]string{"read", "write", "readwrite", "admin"})
	}

	host, err := payloadString(payload, "host", directive.Capability)
	if err != nil {
		return nil, err
	}
	targetSG, err := payloadString(payload, "securityGroupId", directive.Capability)
	if err != nil {
		return nil, err
	}
	port := payloadInt(payload, "port", 6379)

	return &engine.BindingResult{
		Directive: directive,
		Env: map[string]string{
			"CACHE_HOST": host,
			"CACHE_PORT": strconv.Itoa(port),
		},
		Permissions: []engine.PermissionStatement{},
		NetworkRules: []engine.NetworkRule{
			{
				Direction:   engine.DirectionIngress,
				Protocol:    "tcp",
				Port:        port,
				SourceID:    sourceSecurityGroupRef(cc, directive),
				TargetID:    targetSG,
				Description: fmt.Sprintf("%s to %s redis", directive.Source, directive.Target),
			},
		},
	}, nil
}
