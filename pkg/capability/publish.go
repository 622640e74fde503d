package capability

import (
	"fmt"
	"sort"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

// Capability name constants, convention "domain:resource".
const (
	CapAPIRest          = "api:rest"
	CapQueueSQS         = "queue:sqs"
	CapCacheRedis       = "cache:redis"
	CapDatabasePostgres = "database:postgres"
	CapAuthUserPool     = "auth:user-pool"
	CapStreamKinesis    = "stream:kinesis"
	CapParameterSSM     = "parameter:ssm"
	CapStorageS3        = "storage:s3"
)

// PayloadFunc derives one capability's payload from the deployment context
// and the component's resolved configuration. Payloads must be deterministic
// functions of their inputs; anything random or time-based breaks repeated
// synthesis producing byte-identical output.
type PayloadFunc func(cc engine.ComponentContext, config *engine.ResolvedConfig) map[string]interface{}

// Publishers maps component types to the capabilities they expose. It
// implements engine.CapabilityPublisher.
type Publishers struct {
	byType map[string]map[string]PayloadFunc
}

// NewPublishers creates the built-in publisher set.
func NewPublishers() *Publishers {
	p := &Publishers{byType: make(map[string]map[string]PayloadFunc)}

	p.register("lambda-api", CapAPIRest, apiRestPayload)
	p.register("sqs-queue", CapQueueSQS, queueSQSPayload)
	p.register("redis-cache", CapCacheRedis, cacheRedisPayload)
	p.register("rds-postgres", CapDatabasePostgres, databasePostgresPayload)
	p.register("cognito-user-pool", CapAuthUserPool, authUserPoolPayload)
	p.register("kinesis-stream", CapStreamKinesis, streamKinesisPayload)
	p.register("ssm-parameter", CapParameterSSM, parameterSSMPayload)
	p.register("s3-bucket", CapStorageS3, storageS3Payload)

	return p
}

func (p *Publishers) register(componentType, capability string, fn PayloadFunc) {
	if p.byType[componentType] == nil {
		p.byType[componentType] = make(map[string]PayloadFunc)
	}
	p.byType[componentType][capability] = fn
}

// Publish implements engine.CapabilityPublisher. Component types without
// publishers simply expose nothing.
func (p *Publishers) Publish(cc engine.ComponentContext, config *engine.ResolvedConfig, registry engine.CapabilityRegistry) ([]string, error) {
	fns, ok := p.byType[config.Type]
	if !ok {
		return nil, nil
	}

	names := make([]string, 0, len(fns))
	for name := range fns {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		payload := fns[name](cc, config)
		if err := registry.Register(config.Component, name, payload); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// resourceName is the deterministic physical name for a component's resource.
func resourceName(cc engine.ComponentContext, config *engine.ResolvedConfig) string {
	return fmt.Sprintf("%s-%s-%s", cc.Service, cc.Environment, config.Component)
}

func arn(cc engine.ComponentContext, service, resource string) string {
	return fmt.Sprintf("arn:aws:%s:%s:%s:%s", service, cc.Region, cc.Account, resource)
}

// securityGroupRef is a deterministic logical reference to the component's
// security group, resolved to a physical ID at deploy time.
func securityGroupRef(cc engine.ComponentContext, config *engine.ResolvedConfig) string {
	return fmt.Sprintf("sg/%s", resourceName(cc, config))
}

func apiRestPayload(cc engine.ComponentContext, config *engine.ResolvedConfig) map[string]interface{} {
	name := resourceName(cc, config)
	return map[string]interface{}{
		"functionName":    name,
		"functionArn":     arn(cc, "lambda", "function:"+name),
		"securityGroupId": securityGroupRef(cc, config),
	}
}

func queueSQSPayload(cc engine.ComponentContext, config *engine.ResolvedConfig) map[string]interface{} {
	name := resourceName(cc, config)
	fifo, _ := config.Values["fifo"].(bool)
	if fifo {
		name += ".fifo"
	}

	payload := map[string]interface{}{
		"queueName": name,
		"queueUrl":  fmt.Sprintf("https://sqs.%s.amazonaws.com/%s/%s", cc.Region, cc.Account, name),
		"queueArn":  arn(cc, "sqs", name),
		"fifo":      fifo,
	}
	if dlqArn, ok := config.Values["dlqArn"].(string); ok && dlqArn != "" {
		payload["dlqArn"] = dlqArn
	}
	return payload
}

func cacheRedisPayload(cc engine.ComponentContext, config *engine.ResolvedConfig) map[string]interface{} {
	name := resourceName(cc, config)
	transit, _ := config.Values["transitEncryption"].(bool)
	return map[string]interface{}{
		"host":              fmt.Sprintf("%s.cache.%s.amazonaws.com", name, cc.Region),
		"port":              6379,
		"securityGroupId":   securityGroupRef(cc, config),
		"transitEncryption": transit,
	}
}

func databasePostgresPayload(cc engine.ComponentContext, config *engine.ResolvedConfig) map[string]interface{} {
	name := resourceName(cc, config)
	dbName, ok := config.Values["dbName"].(string)
	if !ok || dbName == "" {
		dbName = "app"
	}
	return map[string]interface{}{
		"host":            fmt.Sprintf("%s.rds.%s.amazonaws.com", name, cc.Region),
		"port":            5432,
		"dbName":          dbName,
		"secretArn":       arn(cc, "secretsmanager", "secret:"+name+"-credentials"),
		"securityGroupId": securityGroupRef(cc, config),
	}
}

func authUserPoolPayload(cc engine.ComponentContext, config *engine.ResolvedConfig) map[string]interface{} {
	name := resourceName(cc, config)
	return map[string]interface{}{
		"userPoolId":   fmt.Sprintf("%s_%s", cc.Region, name),
		"userPoolArn":  arn(cc, "cognito-idp", "userpool/"+name),
		"clientId":     name + "-client",
		"providerName": fmt.Sprintf("cognito-idp.%s.amazonaws.com/%s_%s", cc.Region, cc.Region, name),
	}
}

func streamKinesisPayload(cc engine.ComponentContext, config *engine.ResolvedConfig) map[string]interface{} {
	name := resourceName(cc, config)
	payload := map[string]interface{}{
		"streamName": name,
		"streamArn":  arn(cc, "kinesis", "stream/"+name),
	}
	if shards, ok := config.Values["shardCount"]; ok {
		payload["shardCount"] = shards
	}
	return payload
}

func parameterSSMPayload(cc engine.ComponentContext, config *engine.ResolvedConfig) map[string]interface{} {
	name := fmt.Sprintf("/%s/%s/%s", cc.Service, cc.Environment, config.Component)
	payload := map[string]interface{}{
		"parameterName": name,
		"parameterArn":  arn(cc, "ssm", "parameter"+name),
	}
	if paramType, ok := config.Values["type"].(string); ok {
		payload["type"] = paramType
	}
	return payload
}

func storageS3Payload(cc engine.ComponentContext, config *engine.ResolvedConfig) map[string]interface{} {
	name := fmt.Sprintf("%s-%s-%s-%s", cc.Service, cc.Environment, config.Component, cc.Account)
	return map[string]interface{}{
		"bucketName": name,
		"bucketArn":  "arn:aws:s3:::" + name,
	}
}
