package config

import (
	"testing"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

const validManifest = `
apiVersion: shinobi/v1
service: orders
owner: team-fulfillment
framework: fedramp-high
environments:
  prod:
    region: us-east-1
    account: "123456789012"
  dev:
    region: us-west-2
    account: "210987654321"
tags:
  cost-center: "4721"
components:
  - name: api
    type: lambda-api
    config:
      memory: 1024
  - name: work-queue
    type: sqs-queue
bindings:
  - source: api
    target: work-queue
    capability: queue:sqs
    access: write
    env:
      QUEUE_URL: ORDERS_QUEUE_URL
`

func TestParser_ValidManifest(t *testing.T) {
	m, err := NewParser().Parse([]byte(validManifest))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Service != "orders" || m.Framework != "fedramp-high" {
		t.Errorf("unexpected header: service=%s framework=%s", m.Service, m.Framework)
	}
	if len(m.Components) != 2 || len(m.Bindings) != 1 {
		t.Fatalf("expected 2 components and 1 binding, got %d/%d", len(m.Components), len(m.Bindings))
	}
	if m.Components[0].Config["memory"] != 1024 {
		t.Errorf("component config lost in parse: %v", m.Components[0].Config)
	}
}

func TestParser_InvalidManifests(t *testing.T) {
	cases := []struct {
		name     string
		manifest string
	}{
		{
			name:     "not yaml",
			manifest: "{{nope",
		},
		{
			name: "wrong api version",
			manifest: `
apiVersion: shinobi/v2
service: orders
owner: team-a
framework: commercial
environments:
  prod: {region: us-east-1, account: "123456789012"}
components:
  - {name: api, type: lambda-api}
`,
		},
		{
			name: "unknown framework",
			manifest: `
apiVersion: shinobi/v1
service: orders
owner: team-a
framework: fedramp-low
environments:
  prod: {region: us-east-1, account: "123456789012"}
components:
  - {name: api, type: lambda-api}
`,
		},
		{
			name: "no components",
			manifest: `
apiVersion: shinobi/v1
service: orders
owner: team-a
framework: commercial
environments:
  prod: {region: us-east-1, account: "123456789012"}
components: []
`,
		},
		{
			name: "bad account",
			manifest: `
apiVersion: shinobi/v1
service: orders
owner: team-a
framework: commercial
environments:
  prod: {region: us-east-1, account: "not-a-number"}
components:
  - {name: api, type: lambda-api}
`,
		},
		{
			name: "bad access level",
			manifest: `
apiVersion: shinobi/v1
service: orders
owner: team-a
framework: commercial
environments:
  prod: {region: us-east-1, account: "123456789012"}
components:
  - {name: api, type: lambda-api}
  - {name: q, type: sqs-queue}
bindings:
  - {source: api, target: q, capability: queue:sqs, access: superuser}
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewParser().Parse([]byte(tc.manifest))
			if err == nil {
				t.Fatal("expected error")
			}
			if !engine.IsConfigurationError(err) {
				t.Errorf("expected configuration-class error, got %v", err)
			}
		})
	}
}

func TestManifest_Context(t *testing.T) {
	m, err := NewParser().Parse([]byte(validManifest))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cc, err := m.Context("prod")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cc.Framework != engine.FrameworkFedRAMPHigh {
		t.Errorf("expected fedramp-high, got %s", cc.Framework)
	}
	if cc.Region != "us-east-1" || cc.Account != "123456789012" {
		t.Errorf("wrong target: region=%s account=%s", cc.Region, cc.Account)
	}
	if cc.Tags["cost-center"] != "4721" {
		t.Errorf("tags should propagate: %v", cc.Tags)
	}

	if _, err := m.Context("qa"); err == nil {
		t.Error("expected error for undeclared environment")
	}
}

func TestManifest_SpecsAndDirectives(t *testing.T) {
	m, err := NewParser().Parse([]byte(validManifest))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	specs := m.Specs()
	if len(specs) != 2 || specs[1].Name != "work-queue" || specs[1].Type != "sqs-queue" {
		t.Errorf("unexpected specs: %+v", specs)
	}

	directives := m.Directives()
	if len(directives) != 1 {
		t.Fatalf("expected 1 directive, got %d", len(directives))
	}
	d := directives[0]
	if d.Access != engine.AccessWrite {
		t.Errorf("expected write access, got %s", d.Access)
	}
	if d.EnvNames["QUEUE_URL"] != "ORDERS_QUEUE_URL" {
		t.Errorf("env name overrides lost: %v", d.EnvNames)
	}
}
