package binder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

func hasAction(statements []engine.PermissionStatement, action string) bool {
	for _, st := range statements {
		for _, a := range st.Actions {
			if a == action {
				return true
			}
		}
	}
	return false
}

func TestQueueStrategy_AccessLevels(t *testing.T) {
	s := QueueStrategy{}
	payload := queuePayload()

	cases := []struct {
		access   engine.AccessLevel
		want     []string
		wantNot  []string
	}{
		{
			access:  engine.AccessRead,
			want:    []string{"sqs:ReceiveMessage", "sqs:DeleteMessage"},
			wantNot: []string{"sqs:SendMessage", "sqs:PurgeQueue"},
		},
		{
			access:  engine.AccessWrite,
			want:    []string{"sqs:SendMessage"},
			wantNot: []string{"sqs:ReceiveMessage", "sqs:PurgeQueue"},
		},
		{
			access:  engine.AccessReadWrite,
			want:    []string{"sqs:ReceiveMessage", "sqs:SendMessage"},
			wantNot: []string{"sqs:PurgeQueue"},
		},
		{
			access: engine.AccessAdmin,
			want:   []string{"sqs:ReceiveMessage", "sqs:SendMessage", "sqs:PurgeQueue", "sqs:SetQueueAttributes"},
		},
	}

	for _, tc := range cases {
		t.Run(string(tc.access), func(t *testing.T) {
			directive := engine.BindingDirective{
				Source: "api", Target: "q", Capability: "queue:sqs", Access: tc.access,
			}
			result, err := s.Bind(commercialCC(), directive, payload)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, action := range tc.want {
				if !hasAction(result.Permissions, action) {
					t.Errorf("access %s should grant %s", tc.access, action)
				}
			}
			for _, action := range tc.wantNot {
				if hasAction(result.Permissions, action) {
					t.Errorf("access %s must not grant %s", tc.access, action)
				}
			}
			if result.Permissions[0].Resource != payload["queueArn"] {
				t.Errorf("statement should target the queue ARN: %s", result.Permissions[0].Resource)
			}
		})
	}
}

func TestQueueStrategy_UnsupportedAccessNamesValue(t *testing.T) {
	s := QueueStrategy{}
	directive := engine.BindingDirective{
		Source: "api", Target: "q", Capability: "queue:sqs", Access: "superuser",
	}

	_, err := s.Bind(commercialCC(), directive, queuePayload())
	if err == nil {
		t.Fatal("expected unsupported access error")
	}
	var se *engine.SynthesisError
	if !errors.As(err, &se) || se.Code != engine.ErrCodeUnsupportedAccess {
		t.Fatalf("expected UNSUPPORTED_ACCESS_LEVEL, got %v", err)
	}
	if !strings.Contains(se.Message, "superuser") {
		t.Errorf("error must name the offending value: %s", se.Message)
	}
}

func TestQueueStrategy_IncompletePayload(t *testing.T) {
	s := QueueStrategy{}
	directive := engine.BindingDirective{
		Source: "api", Target: "q", Capability: "queue:sqs", Access: engine.AccessRead,
	}

	_, err := s.Bind(commercialCC(), directive, map[string]interface{}{"queueUrl": "https://x"})
	if err == nil {
		t.Fatal("expected error for missing queueArn")
	}
	if !engine.IsCapabilityNotFound(err) {
		t.Errorf("expected capability-class error, got %v", err)
	}
}

func TestCacheStrategy_NetworkRule(t *testing.T) {
	s := CacheStrategy{}
	directive := engine.BindingDirective{
		Source: "api", Target: "cache", Capability: "cache:redis", Access: engine.AccessReadWrite,
	}
	payload := map[string]interface{}{
		"host":            "orders-prod-cache.cache.us-east-1.amazonaws.com",
		"port":            6379,
		"securityGroupId": "sg/orders-prod-cache",
	}

	result, err := s.Bind(commercialCC(), directive, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Env["CACHE_HOST"] != payload["host"] || result.Env["CACHE_PORT"] != "6379" {
		t.Errorf("unexpected env: %v", result.Env)
	}
	if len(result.NetworkRules) != 1 {
		t.Fatalf("expected one network rule, got %d", len(result.NetworkRules))
	}
	rule := result.NetworkRules[0]
	if rule.Direction != engine.DirectionIngress || rule.Protocol != "tcp" || rule.Port != 6379 {
		t.Errorf("unexpected rule: %+v", rule)
	}
	if rule.SourceID != "sg/orders-prod-api" || rule.TargetID != "sg/orders-prod-cache" {
		t.Errorf("rule should be scoped to the two components: %+v", rule)
	}
	if len(result.Permissions) != 0 {
		t.Errorf("redis binding should carry no IAM statements: %v", result.Permissions)
	}
}

func TestDatabaseStrategy_EnvAndSecret(t *testing.T) {
	s := DatabaseStrategy{}
	directive := engine.BindingDirective{
		Source: "api", Target: "db", Capability: "database:postgres", Access: engine.AccessReadWrite,
	}
	payload := map[string]interface{}{
		"host":            "orders-prod-db.rds.us-east-1.amazonaws.com",
		"port":            5432,
		"dbName":          "orders",
		"secretArn":       "arn:aws:secretsmanager:us-east-1:123456789012:secret:orders-prod-db-credentials",
		"securityGroupId": "sg/orders-prod-db",
	}

	result, err := s.Bind(commercialCC(), directive, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"DB_HOST", "DB_PORT", "DB_NAME", "DB_SECRET_ARN"} {
		if result.Env[name] == "" {
			t.Errorf("missing env %s: %v", name, result.Env)
		}
	}
	if !hasAction(result.Permissions, "secretsmanager:GetSecretValue") {
		t.Errorf("binding should grant secret retrieval: %v", result.Permissions)
	}
	if hasAction(result.Permissions, "secretsmanager:DescribeSecret") {
		t.Error("readwrite should not grant DescribeSecret")
	}
	if len(result.NetworkRules) != 1 || result.NetworkRules[0].Port != 5432 {
		t.Errorf("expected postgres ingress rule: %v", result.NetworkRules)
	}

	// admin adds DescribeSecret
	directive.Access = engine.AccessAdmin
	result, err = s.Bind(commercialCC(), directive, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasAction(result.Permissions, "secretsmanager:DescribeSecret") {
		t.Error("admin should grant DescribeSecret")
	}
}

func TestAuthStrategy_DomainAccessLevels(t *testing.T) {
	s := AuthStrategy{}
	payload := map[string]interface{}{
		"userPoolId":  "us-east-1_orders-prod-users",
		"userPoolArn": "arn:aws:cognito-idp:us-east-1:123456789012:userpool/orders-prod-users",
		"clientId":    "orders-prod-users-client",
	}

	directive := engine.BindingDirective{
		Source: "api", Target: "users", Capability: "auth:user-pool", Access: engine.AccessAuthenticate,
	}
	result, err := s.Bind(commercialCC(), directive, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasAction(result.Permissions, "cognito-idp:InitiateAuth") {
		t.Error("authenticate should grant InitiateAuth")
	}
	if hasAction(result.Permissions, "cognito-idp:AdminDeleteUser") {
		t.Error("authenticate must not grant destructive admin actions")
	}
	if result.Env["USER_POOL_ID"] == "" || result.Env["USER_POOL_CLIENT_ID"] == "" || result.Env["USER_POOL_ARN"] == "" {
		t.Errorf("missing env vars: %v", result.Env)
	}

	// Generic read is not part of the identity domain's access set.
	directive.Access = engine.AccessRead
	_, err = s.Bind(commercialCC(), directive, payload)
	var se *engine.SynthesisError
	if !errors.As(err, &se) || se.Code != engine.ErrCodeUnsupportedAccess {
		t.Errorf("expected UNSUPPORTED_ACCESS_LEVEL for read, got %v", err)
	}
}

func TestStorageStrategy_ObjectAndBucketStatements(t *testing.T) {
	s := StorageStrategy{}
	directive := engine.BindingDirective{
		Source: "api", Target: "artifacts", Capability: "storage:s3", Access: engine.AccessRead,
	}
	payload := map[string]interface{}{
		"bucketName": "orders-prod-artifacts-123456789012",
		"bucketArn":  "arn:aws:s3:::orders-prod-artifacts-123456789012",
	}

	result, err := s.Bind(commercialCC(), directive, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Permissions) != 2 {
		t.Fatalf("expected object and bucket statements, got %d", len(result.Permissions))
	}
	if result.Permissions[0].Resource != "arn:aws:s3:::orders-prod-artifacts-123456789012/*" {
		t.Errorf("object statement should target bucketArn/*: %s", result.Permissions[0].Resource)
	}
	if hasAction(result.Permissions, "s3:DeleteObject") {
		t.Error("read must not grant DeleteObject")
	}
}

func TestStreamStrategy_ReadWrite(t *testing.T) {
	s := StreamStrategy{}
	directive := engine.BindingDirective{
		Source: "worker", Target: "events", Capability: "stream:kinesis", Access: engine.AccessWrite,
	}
	payload := map[string]interface{}{
		"streamName": "orders-prod-events",
		"streamArn":  "arn:aws:kinesis:us-east-1:123456789012:stream/orders-prod-events",
	}

	result, err := s.Bind(commercialCC(), directive, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasAction(result.Permissions, "kinesis:PutRecords") {
		t.Error("write should grant PutRecords")
	}
	if hasAction(result.Permissions, "kinesis:GetRecords") {
		t.Error("write must not grant GetRecords")
	}
}

func TestParameterStrategy_Admin(t *testing.T) {
	s := ParameterStrategy{}
	directive := engine.BindingDirective{
		Source: "api", Target: "flag", Capability: "parameter:ssm", Access: engine.AccessAdmin,
	}
	payload := map[string]interface{}{
		"parameterName": "/orders/prod/flag",
		"parameterArn":  "arn:aws:ssm:us-east-1:123456789012:parameter/orders/prod/flag",
	}

	result, err := s.Bind(commercialCC(), directive, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasAction(result.Permissions, "ssm:DeleteParameter") {
		t.Error("admin should grant DeleteParameter")
	}
	if result.Env["PARAMETER_NAME"] != "/orders/prod/flag" {
		t.Errorf("unexpected env: %v", result.Env)
	}
}

func TestStrategies_ResolveEndToEnd(t *testing.T) {
	r := defaultResolver(t)
	ctx := context.Background()

	registry := registryWith("work-queue", "queue:sqs", queuePayload())

	directive := engine.BindingDirective{
		Source: "api", Target: "work-queue", Capability: "queue:sqs", Access: engine.AccessRead,
	}
	result, err := r.Resolve(ctx, commercialCC(), directive, "lambda-api", registry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Env["QUEUE_URL"] == "" {
		t.Errorf("expected default env names: %v", result.Env)
	}
	// Commercial framework adds no compliance actions.
	if len(result.ComplianceActions) != 0 {
		t.Errorf("commercial run should carry no compliance actions: %v", result.ComplianceActions)
	}
}
