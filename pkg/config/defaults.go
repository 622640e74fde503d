package config

import (
	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// FallbackDefaults returns the compiled-in safe defaults per component type.
// This is the lowest-precedence layer: values here are deliberately
// conservative and get overridden by platform, environment, component, and
// policy layers.
func FallbackDefaults() map[string]map[string]interface{} {
	return map[string]map[string]interface{}{
		"lambda-api": {
			"runtime": "nodejs20.x",
			"memory": 256,
			"timeout": 30,
			"logging": map[string]interface{}{"level": "info", "retentionDays": 30},
			"monitoring": map[string]interface{}{"enabled": false},
		},
		"sqs-queue": {
			"fifo": false,
			"visibilityTimeoutSeconds": 30,
			"messageRetentionSeconds": 345600,
			"encryption": map[string]interface{}{"enabled": true, "kmsKeyId": nil},
			"monitoring": map[string]interface{}{"enabled": false},
			"maxReceiveCount": 3,
			"receiveWaitTimeSeconds": 0,
			"contentBasedDeduplication": false,
		},
		"redis-cache": {
			"nodeType": "cache.t3.micro",
			"engineVersion": "7.0",
			"replicas": 0,
			"transitEncryption": false,
			"atRestEncryption": true,
			"monitoring": map[string]interface{}{"enabled": false},
		},
		"rds-postgres": {
			"engineVersion": "15.4",
			"instanceClass": "db.t3.micro",
			"allocatedStorageGiB": 20,
			"multiAz": false,
			"backupRetentionDays": 7,
			"storageEncrypted": true,
			"deletionProtection": false,
			"performanceInsights": false,
			"monitoring": map[string]interface{}{"enabled": false},
			"autoMinorVersionUpgrade": true,
		},
		"cognito-user-pool": {
			"mfa": "optional",
			"passwordPolicy": map[string]interface{}{"minLength": 12, "requireSymbols": true, "requireNumbers": true},
			"selfSignUp": false,
			"advancedSecurity": "audit",
			"deletionProtection": false,
		},
		"kinesis-stream": {
			"shardCount": 1,
			"retentionHours": 24,
			"streamMode": "provisioned",
			"encryption": map[string]interface{}{"enabled": true, "kmsKeyId": nil},
			"monitoring": map[string]interface{}{"enabled": false},
			"enhancedFanOut": false,
		},
		"ssm-parameter": {
			"tier": "Standard",
			"type": "String",
			"overwrite": false,
		},
		"s3-bucket": {
			"versioning": false,
			"encryption": map[string]interface{}{"algorithm": "AES256", "kmsKeyId": nil},
			"publicAccess": "blocked",
			"lifecycleDays": 0,
			"objectLock": false,
			"accessLogging": false,
		},
	}
}

// PlatformDefaults returns the organization-wide defaults keyed by compliance
// framework. FedRAMP frameworks harden encryption, retention, and monitoring
// over the commercial baseline.
func PlatformDefaults() map[engine.Framework]map[string]map[string]interface{} {
	commercial := map[string]map[string]interface{}{
		"lambda-api": {
			"monitoring": map[string]interface{}{"enabled": true},
		},
		"sqs-queue": {
			"monitoring": map[string]interface{}{"enabled": true},
		},
		"redis-cache": {
			"monitoring": map[string]interface{}{"enabled": true},
		},
		"rds-postgres": {
			"monitoring": map[string]interface{}{"enabled": true},
		},
		"kinesis-stream": {
			"monitoring": map[string]interface{}{"enabled": true},
		},
		"s3-bucket": {
			"accessLogging": true,
		},
	}

	fedrampModerate := map[string]map[string]interface{}{
		"lambda-api": {
			"logging": map[string]interface{}{"retentionDays": 90},
			"monitoring": map[string]interface{}{"enabled": true},
		},
		"sqs-queue": {
			"encryption": map[string]interface{}{"enabled": true},
			"monitoring": map[string]interface{}{"enabled": true},
		},
		"redis-cache": {
			"transitEncryption": true,
			"atRestEncryption": true,
			"monitoring": map[string]interface{}{"enabled": true},
		},
		"rds-postgres": {
			"storageEncrypted": true,
			"backupRetentionDays": 30,
			"deletionProtection": true,
			"monitoring": map[string]interface{}{"enabled": true},
		},
		"cognito-user-pool": {
			"mfa": "required",
			"advancedSecurity": "enforced",
		},
		"kinesis-stream": {
			"encryption": map[string]interface{}{"enabled": true},
			"monitoring": map[string]interface{}{"enabled": true},
		},
		"s3-bucket": {
			"versioning": true,
			"accessLogging": true,
		},
	}

	fedrampHigh := map[string]map[string]interface{}{
		"lambda-api": {
			"logging": map[string]interface{}{"retentionDays": 365},
			"monitoring": map[string]interface{}{"enabled": true},
		},
		"sqs-queue": {
			"encryption": map[string]interface{}{"enabled": true},
			"monitoring": map[string]interface{}{"enabled": true},
		},
		"redis-cache": {
			"transitEncryption": true,
			"atRestEncryption": true,
			"monitoring": map[string]interface{}{"enabled": true},
		},
		"rds-postgres": {
			"storageEncrypted": true,
			"multiAz": true,
			"backupRetentionDays": 35,
			"deletionProtection": true,
			"performanceInsights": true,
			"monitoring": map[string]interface{}{"enabled": true},
		},
		"cognito-user-pool": {
			"mfa": "required",
			"advancedSecurity": "enforced",
			"deletionProtection": true,
		},
		"kinesis-stream": {
			"encryption": map[string]interface{}{"enabled": true},
			"retentionHours": 168,
			"monitoring": map[string]interface{}{"enabled": true},
		},
		"ssm-parameter": {
			"tier": "Advanced",
		},
		"s3-bucket": {
			"versioning": true,
			"objectLock": true,
			"accessLogging": true,
		},
	}

	return map[engine.Framework]map[string]map[string]interface{}{
		engine.FrameworkCommercial:      commercial,
		engine.FrameworkFedRAMPModerate: fedrampModerate,
		engine.FrameworkFedRAMPHigh:     fedrampHigh,
	}
}

// EnvironmentDefaults returns the built-in per-environment defaults. Teams
// typically replace these through the builder options; the built-ins cover
// the common dev/staging/prod split.
func EnvironmentDefaults() map[string]map[string]map[string]interface{} {
	return map[string]map[string]map[string]interface{}{
		"dev": {
			"lambda-api": {
				"logging": map[string]interface{}{"level": "debug"},
			},
			"rds-postgres": {
				"multiAz": false,
				"backupRetentionDays": 1,
				"deletionProtection": false,
			},
		},
		"staging": {
			"rds-postgres": {
				"backupRetentionDays": 7,
			},
		},
		"prod": {
			"lambda-api": {
				"memory": 512,
			},
			"rds-postgres": {
				"multiAz": true,
				"deletionProtection": true,
			},
			"redis-cache": {
				"replicas": 1,
			},
		},
	}
}
