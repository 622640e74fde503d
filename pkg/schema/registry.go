package schema

// builtinSchemas holds the JSON Schema documents for the built-in component
// types. Field names and bounds track the compiled-in fallback defaults: a
// configuration assembled purely from defaults always validates.
var builtinSchemas = map[string]string{
	"lambda-api": `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"required": ["runtime", "memory", "timeout"],
		"additionalProperties": false,
		"properties": {
			"runtime": {"type": "string", "enum": ["nodejs18.x", "nodejs20.x", "python3.11", "python3.12", "provided.al2023"], "default": "nodejs20.x"},
			"handler": {"type": "string"},
			"memory": {"type": "integer", "minimum": 128, "maximum": 10240},
			"timeout": {"type": "integer", "minimum": 1, "maximum": 900},
			"environment": {"type": "object", "additionalProperties": {"type": "string"}},
			"logging": {
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"level": {"type": "string", "enum": ["debug", "info", "warn", "error"], "default": "info"},
					"retentionDays": {"type": "integer", "enum": [1, 3, 5, 7, 14, 30, 60, 90, 120, 150, 180, 365, 400, 545, 731, 1827, 3653]}
				}
			},
			"monitoring": {"$ref": "#/$defs/monitoring"}
		},
		"$defs": {
			"monitoring": {
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"enabled": {"type": "boolean"},
					"alarmEmail": {"type": "string", "format": "email"}
				}
			}
		}
	}`,

	"sqs-queue": `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"additionalProperties": false,
		"properties": {
			"fifo": {"type": "boolean"},
			"visibilityTimeoutSeconds": {"type": "integer", "minimum": 0, "maximum": 43200},
			"messageRetentionSeconds": {"type": "integer", "minimum": 60, "maximum": 1209600},
			"maxReceiveCount": {"type": "integer", "minimum": 1, "maximum": 1000},
			"receiveWaitTimeSeconds": {"type": "integer", "minimum": 0, "maximum": 20},
			"contentBasedDeduplication": {"type": "boolean"},
			"dlqArn": {"type": "string", "pattern": "^arn:aws[a-z-]*:sqs:"},
			"encryption": {
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"enabled": {"type": "boolean"},
					"kmsKeyId": {"type": "string"}
				}
			},
			"monitoring": {
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"enabled": {"type": "boolean"},
					"queueDepthAlarmThreshold": {"type": "integer", "minimum": 1}
				}
			}
		}
	}`,

	"redis-cache": `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"required": ["nodeType", "engineVersion"],
		"additionalProperties": false,
		"properties": {
			"nodeType": {"type": "string", "pattern": "^cache\\."},
			"engineVersion": {"type": "string", "enum": ["6.2", "7.0", "7.1"], "default": "7.0"},
			"replicas": {"type": "integer", "minimum": 0, "maximum": 5},
			"transitEncryption": {"type": "boolean"},
			"atRestEncryption": {"type": "boolean"},
			"monitoring": {
				"type": "object",
				"additionalProperties": false,
				"properties": {"enabled": {"type": "boolean"}}
			}
		}
	}`,

	"rds-postgres": `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"required": ["engineVersion", "instanceClass"],
		"additionalProperties": false,
		"properties": {
			"engineVersion": {"type": "string", "pattern": "^[0-9]+\\.[0-9]+$"},
			"instanceClass": {"type": "string", "pattern": "^db\\."},
			"dbName": {"type": "string", "pattern": "^[a-zA-Z][a-zA-Z0-9_]*$"},
			"allocatedStorageGiB": {"type": "integer", "minimum": 20, "maximum": 65536},
			"multiAz": {"type": "boolean"},
			"backupRetentionDays": {"type": "integer", "minimum": 0, "maximum": 35},
			"storageEncrypted": {"type": "boolean"},
			"deletionProtection": {"type": "boolean"},
			"performanceInsights": {"type": "boolean"},
			"autoMinorVersionUpgrade": {"type": "boolean"},
			"monitoring": {
				"type": "object",
				"additionalProperties": false,
				"properties": {"enabled": {"type": "boolean"}}
			}
		}
	}`,

	"cognito-user-pool": `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"additionalProperties": false,
		"properties": {
			"mfa": {"type": "string", "enum": ["off", "optional", "required"], "default": "optional"},
			"selfSignUp": {"type": "boolean"},
			"advancedSecurity": {"type": "string", "enum": ["off", "audit", "enforced"], "default": "audit"},
			"deletionProtection": {"type": "boolean"},
			"passwordPolicy": {
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"minLength": {"type": "integer", "minimum": 6, "maximum": 99},
					"requireSymbols": {"type": "boolean"},
					"requireNumbers": {"type": "boolean"}
				}
			}
		}
	}`,

	"kinesis-stream": `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"additionalProperties": false,
		"properties": {
			"shardCount": {"type": "integer", "minimum": 1, "maximum": 4096},
			"retentionHours": {"type": "integer", "minimum": 24, "maximum": 8760},
			"streamMode": {"type": "string", "enum": ["provisioned", "on-demand"], "default": "provisioned"},
			"enhancedFanOut": {"type": "boolean"},
			"encryption": {
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"enabled": {"type": "boolean"},
					"kmsKeyId": {"type": "string"}
				}
			},
			"monitoring": {
				"type": "object",
				"additionalProperties": false,
				"properties": {"enabled": {"type": "boolean"}}
			}
		}
	}`,

	"ssm-parameter": `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"required": ["type"],
		"additionalProperties": false,
		"properties": {
			"tier": {"type": "string", "enum": ["Standard", "Advanced", "Intelligent-Tiering"], "default": "Standard"},
			"type": {"type": "string", "enum": ["String", "StringList", "SecureString"], "default": "String"},
			"value": {"type": "string"},
			"overwrite": {"type": "boolean"}
		}
	}`,

	"s3-bucket": `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"additionalProperties": false,
		"properties": {
			"versioning": {"type": "boolean"},
			"publicAccess": {"type": "string", "enum": ["blocked", "read-only"], "default": "blocked"},
			"lifecycleDays": {"type": "integer", "minimum": 0, "maximum": 3653},
			"objectLock": {"type": "boolean"},
			"accessLogging": {"type": "boolean"},
			"encryption": {
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"algorithm": {"type": "string", "enum": ["AES256", "aws:kms"], "default": "AES256"},
					"kmsKeyId": {"type": "string"}
				}
			}
		}
	}`,
}

// BuiltinTypes returns the component type keys with built-in schemas.
func BuiltinTypes() []string {
	types := make([]string, 0, len(builtinSchemas))
	for t := range builtinSchemas {
		types = append(types, t)
	}
	return types
}
