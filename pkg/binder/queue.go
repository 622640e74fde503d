package binder

import (
	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// QueueStrategy binds any source component to a queue:sqs capability.
//
// Default environment variables: QUEUE_URL, QUEUE_ARN.
type QueueStrategy struct{}

func (QueueStrategy) Name() string { return "queue-sqs" }

func (QueueStrategy) Claims() []Claim {
	return []Claim{{SourceType: AnySourceType, Capability: "queue:sqs"}}
}

var queueActions = map[engine.AccessLevel][]string{
	engine.AccessRead: {
		"sqs:ReceiveMessage",
		"sqs:DeleteMessage",
		"sqs:GetQueueAttributes",
		"sqs:GetQueueUrl",
	},
	engine.AccessWrite: {
		"sqs:SendMessage",
		"sqs:GetQueueAttributes",
		"sqs:GetQueueUrl",
	},
	engine.AccessReadWrite: {
		"sqs:ReceiveMessage",
		"sqs:DeleteMessage",
		"sqs:SendMessage",
		"sqs:GetQueueAttributes",
		"sqs:GetQueueUrl",
	},
	engine.AccessAdmin: {
		"sqs:ReceiveMessage",
		"sqs:DeleteMessage",
		"sqs:SendMessage",
		"sqs:GetQueueAttributes",
		"sqs:GetQueueUrl",
		"sqs:SetQueueAttributes",
		"sqs:PurgeQueue",
		"sqs:TagQueue",
	},
}

func (s QueueStrategy) Bind(_ engine.ComponentContext, directive engine.BindingDirective, payload map[string]interface{}) (*engine.BindingResult, error) {
	actions, ok := queueActions[directive.Access]
	if !ok {
		return nil, unsupportedAccess(directive.Access, directive.Capability,
			[]string{"read", "write", "readwrite", "admin"})
	}

	queueURL, err := payloadString(payload, "queueUrl", directive.Capability)
	if err != nil {
		return nil, err
	}
	queueArn, err := payloadString(payload, "queueArn", directive.Capability)
	if err != nil {
		return nil, err
	}

	return &engine.BindingResult{
		Directive: directive,
		Env: map[string]string{
			"QUEUE_URL": queueURL,
			"QUEUE_ARN": queueArn,
		},
		Permissions: []engine.PermissionStatement{
			{Effect: "Allow", Actions: actions, Resource: queueArn},
		},
	}, nil
}
