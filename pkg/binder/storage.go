package binder

import (
	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// StorageStrategy binds any source component to a storage:s3 capability.
// Object actions target bucketArn/*; bucket-level actions target the bucket
// itself, so the result carries two statements.
//
// Default environment variables: BUCKET_NAME, BUCKET_ARN.
type StorageStrategy struct{}

func (StorageStrategy) Name() string { return "storage-s3" }

func (StorageStrategy) Claims() []Claim {
	return []Claim{{SourceType: AnySourceType, Capability: "storage:s3"}}
}

var storageObjectActions = map[engine.AccessLevel][]string{
	engine.AccessRead: {
		"s3:GetObject",
		"s3:GetObjectVersion",
	},
	engine.AccessWrite: {
		"s3:PutObject",
		"s3:AbortMultipartUpload",
	},
	engine.AccessReadWrite: {
		"s3:GetObject",
		"s3:GetObjectVersion",
		"s3:PutObject",
		"s3:AbortMultipartUpload",
		"s3:DeleteObject",
	},
	engine.AccessAdmin: {
		"s3:GetObject",
		"s3:GetObjectVersion",
		"s3:PutObject",
		"s3:AbortMultipartUpload",
		"s3:DeleteObject",
		"s3:DeleteObjectVersion",
	},
}

var storageBucketActions = map[engine.AccessLevel][]string{
	engine.AccessRead:      {"s3:ListBucket", "s3:GetBucketLocation"},
	engine.AccessWrite:     {"s3:ListBucket", "s3:GetBucketLocation"},
	engine.AccessReadWrite: {"s3:ListBucket", "s3:GetBucketLocation"},
	engine.AccessAdmin: {
		"s3:ListBucket",
		"s3:GetBucketLocation",
		"s3:PutBucketTagging",
		"s3:PutLifecycleConfiguration",
	},
}

func (s StorageStrategy) Bind(_ engine.ComponentContext, directive engine.BindingDirective, payload map[string]interface{}) (*engine.BindingResult, error) {
	objectActions, ok := storageObjectActions[directive.Access]
	if !ok {
		return nil, unsupportedAccess(directive.Access, directive.Capability,
			[]string{"read", "write", "readwrite", "admin"})
	}
	bucketActions := storageBucketActions[directive.Access]

	bucketName, err := payloadString(payload, "bucketName", directive.Capability)
	if err != nil {
		return nil, err
	}
	bucketArn, err := payloadString(payload, "bucketArn", directive.Capability)
	if err != nil {
		return nil, err
	}

	return &engine.BindingResult{
		Directive: directive,
		Env: map[string]string{
			"BUCKET_NAME": bucketName,
			"BUCKET_ARN":  bucketArn,
		},
		Permissions: []engine.PermissionStatement{
			{Effect: "Allow", Actions: objectActions, Resource: bucketArn + "/*"},
			{Effect: "Allow", Actions: bucketActions, Resource: bucketArn},
		},
	}, nil
}
