package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shinobi-platform/shinobi/pkg/binder"
	"github.com/shinobi-platform/shinobi/pkg/capability"
	"github.com/shinobi-platform/shinobi/pkg/config"
	"github.com/shinobi-platform/shinobi/pkg/engine"
	"github.com/shinobi-platform/shinobi/pkg/policy"
	"github.com/shinobi-platform/shinobi/pkg/schema"
	"github.com/shinobi-platform/shinobi/pkg/stores"
	"github.com/shinobi-platform/shinobi/pkg/telemetry"
)

// pipelineOptions collects the flags shared by plan and synth.
type pipelineOptions struct {
	complianceMode string
	policyPaths    []string
	overridesPath  string
	dbPath         string
	observer       engine.Observer

	// runID fixes the run identifier, so the caller can stamp it on the run
	// span before synthesis starts. Empty means a fresh UUID per run.
	runID string
}

// newPipelineLogger builds the logger used by the synthesis pipeline,
// honoring the global --verbose and --json flags.
func newPipelineLogger() (zerolog.Logger, error) {
	cfg := telemetry.DefaultConfig().Logging
	if verbose {
		cfg = telemetry.DevelopmentConfig().Logging
	}
	if jsonOutput {
		cfg.Format = "json"
	}
	return telemetry.NewLogger(cfg)
}

// buildSynthesizer wires the full synthesis pipeline: parser output flows
// through the config builder, capability publishers, binding resolver,
// policy engine, and optionally the SQLite audit store.
func buildSynthesizer(ctx context.Context, logger zerolog.Logger, opts pipelineOptions) (*engine.Synthesizer, *stores.AuditStore, error) {
	mode, err := binder.ParseComplianceMode(opts.complianceMode)
	if err != nil {
		return nil, nil, err
	}

	builderOpts := []config.BuilderOption{}
	if opts.overridesPath != "" {
		overrides, err := policy.LoadOverrides(opts.overridesPath)
		if err != nil {
			return nil, nil, err
		}
		builderOpts = append(builderOpts, config.WithPolicySource(overrides))
	}

	configBuilder := config.NewBuilder(schema.MustNewValidator(), logger, builderOpts...)

	resolver, err := binder.NewDefaultResolver(binder.NewCompliancePolicy(mode), logger)
	if err != nil {
		return nil, nil, err
	}

	policyEngine, err := policy.NewEngine(logger)
	if err != nil {
		return nil, nil, err
	}
	if len(opts.policyPaths) > 0 {
		if err := policyEngine.LoadPaths(ctx, opts.policyPaths); err != nil {
			return nil, nil, err
		}
	}

	idGen := engine.IDFunc(func() string { return uuid.New().String() })
	if opts.runID != "" {
		idGen = engine.IDFunc(func() string { return opts.runID })
	}

	synthOpts := []engine.SynthesizerOption{
		engine.WithPolicyEvaluator(policyEngine),
		engine.WithIDGenerator(idGen),
	}
	if opts.observer != nil {
		synthOpts = append(synthOpts, engine.WithObserver(opts.observer))
	}

	var store *stores.AuditStore
	if opts.dbPath != "" {
		store, err = stores.NewAuditStore(stores.Config{Path: opts.dbPath})
		if err != nil {
			return nil, nil, err
		}
		if err := store.Init(ctx); err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("failed to migrate audit store: %w", err)
		}
		synthOpts = append(synthOpts, engine.WithAuditSink(store))
	}

	synthesizer := engine.NewSynthesizer(
		configBuilder,
		capability.NewPublishers(),
		resolver,
		func() engine.CapabilityRegistry { return capability.NewRegistry() },
		logger,
		synthOpts...,
	)
	return synthesizer, store, nil
}
