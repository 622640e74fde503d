package binder

import (
	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// StreamStrategy binds any source component to a stream:kinesis capability.
//
// Default environment variables: STREAM_NAME, STREAM_ARN.
type StreamStrategy struct{}

func (StreamStrategy) Name() string { return "stream-kinesis" }

func (StreamStrategy) Claims() []Claim {
	return []Claim{{SourceType: AnySourceType, Capability: "stream:kinesis"}}
}

var streamActions = map[engine.AccessLevel][]string{
	engine.AccessRead: {
		"kinesis:GetRecords",
		"kinesis:GetShardIterator",
		"kinesis:DescribeStream",
		"kinesis:DescribeStreamSummary",
		"kinesis:ListShards",
	},
	engine.AccessWrite: {
		"kinesis:PutRecord",
		"kinesis:PutRecords",
		"kinesis:DescribeStreamSummary",
	},
	engine.AccessReadWrite: {
		"kinesis:GetRecords",
		"kinesis:GetShardIterator",
		"kinesis:DescribeStream",
		"kinesis:DescribeStreamSummary",
		"kinesis:ListShards",
		"kinesis:PutRecord",
		"kinesis:PutRecords",
	},
	engine.AccessAdmin: {
		"kinesis:GetRecords",
		"kinesis:GetShardIterator",
		"kinesis:DescribeStream",
		"kinesis:DescribeStreamSummary",
		"kinesis:ListShards",
		"kinesis:PutRecord",
		"kinesis:PutRecords",
		"kinesis:MergeShards",
		"kinesis:SplitShard",
		"kinesis:UpdateShardCount",
	},
}

func (s StreamStrategy) Bind(_ engine.ComponentContext, directive engine.BindingDirective, payload map[string]interface{}) (*engine.BindingResult, error) {
	actions, ok := streamActions[directive.Access]
	if !ok {
		return nil, unsupportedAccess(directive.Access, directive.Capability,
			[]string{"read", "write", "readwrite", "admin"})
	}

	streamName, err := payloadString(payload, "streamName", directive.Capability)
	if err != nil {
		return nil, err
	}
	streamArn, err := payloadString(payload, "streamArn", directive.Capability)
	if err != nil {
		return nil, err
	}

	return &engine.BindingResult{
		Directive: directive,
		Env: map[string]string{
			"STREAM_NAME": streamName,
			"STREAM_ARN":  streamArn,
		},
		Permissions: []engine.PermissionStatement{
			{Effect: "Allow", Actions: actions, Resource: streamArn},
		},
	}, nil
}
