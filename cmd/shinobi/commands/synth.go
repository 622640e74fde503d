package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shinobi-platform/shinobi/pkg/config"
	"github.com/shinobi-platform/shinobi/pkg/telemetry"
)

func newSynthCommand() *cobra.Command {
	var (
		environment    string
		complianceMode string
		policyPaths    []string
		overridesPath  string
		dbPath         string
		outputDir      string
		metricsListen  string
		traceExporter  string
		traceEndpoint  string
	)

	cmd := &cobra.Command{
		Use:   "synth <manifest>",
		Short: "Synthesize a manifest and record the run",
		Long: `Run the full synthesis pipeline and persist the run in the audit
store, including per-component and per-binding audit events.

Optionally exposes Prometheus metrics and exports OpenTelemetry traces for
the run.`,
		Example: `  # Synthesize prod and record the run
  shinobi synth service.yaml --env prod --db shinobi.db

  # Synthesize with metrics and OTLP tracing
  shinobi synth service.yaml --env prod --db shinobi.db \
    --metrics-listen :9090 --trace otlp --trace-endpoint localhost:4317`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			logger, err := newPipelineLogger()
			if err != nil {
				return err
			}

			manifest, err := config.NewParser().LoadFile(args[0])
			if err != nil {
				return err
			}
			cc, err := manifest.Context(environment)
			if err != nil {
				return err
			}

			telCfg := telemetry.DefaultConfig()
			telCfg.Environment = environment
			if metricsListen != "" {
				telCfg.Metrics.Enabled = true
				telCfg.Metrics.ListenAddress = metricsListen
			}
			if traceExporter != "" {
				telCfg.Tracing.Enabled = true
				telCfg.Tracing.Exporter = traceExporter
				telCfg.Tracing.Endpoint = traceEndpoint
			}
			if err := telCfg.Validate(); err != nil {
				return err
			}

			metrics, err := telemetry.NewMetrics(telCfg.Metrics)
			if err != nil {
				return err
			}
			if err := metrics.StartMetricsServer(); err != nil {
				return err
			}

			tracer, err := telemetry.NewTracer(telCfg.Tracing,
				telCfg.ServiceName, telCfg.ServiceVersion, telCfg.Environment)
			if err != nil {
				return err
			}
			defer func() { _ = tracer.Shutdown(ctx) }()

			runID := uuid.New().String()

			synthesizer, store, err := buildSynthesizer(ctx, logger, pipelineOptions{
				complianceMode: complianceMode,
				policyPaths:    policyPaths,
				overridesPath:  overridesPath,
				dbPath:         dbPath,
				observer:       telemetry.NewEventRecorder(metrics, logger).WithTracer(tracer),
				runID:          runID,
			})
			if err != nil {
				return err
			}
			if store != nil {
				defer func() { _ = store.Close() }()
			}

			metrics.RecordRunStarted(manifest.Service, string(cc.Framework))
			timer := telemetry.NewTimer()

			spanCtx, span := tracer.StartRunSpan(ctx, runID, manifest.Service, string(cc.Framework))
			report, err := synthesizer.Synthesize(spanCtx, cc, manifest.Specs(), manifest.Directives())
			if err != nil {
				telemetry.RecordError(span, err)
				span.End()
				metrics.RecordRunCompleted("aborted", timer.Duration())
				return err
			}
			telemetry.RecordSuccess(span)
			span.End()

			status := "success"
			if report.Failed() {
				status = "failure"
			}
			metrics.RecordRunCompleted(status, timer.Duration())
			for _, v := range report.PolicyViolations {
				metrics.RecordPolicyViolation(v.Policy, v.Severity)
			}

			if outputDir != "" {
				if err := writeArtifacts(outputDir, report); err != nil {
					return err
				}
			}

			if err := printReport(report); err != nil {
				return err
			}
			if report.Failed() {
				return fmt.Errorf("synthesis completed with errors")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&environment, "env", "dev", "target environment")
	cmd.Flags().StringVar(&complianceMode, "compliance-mode", "advisory", "compliance mode (advisory, enforcing)")
	cmd.Flags().StringArrayVar(&policyPaths, "policy-dir", nil, "additional policy files or directories")
	cmd.Flags().StringVar(&overridesPath, "policy-overrides", "", "governance configuration overrides file")
	cmd.Flags().StringVar(&dbPath, "db", "shinobi.db", "audit store database path")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "write resolved configs and binding results as JSON files")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "expose Prometheus metrics on this address")
	cmd.Flags().StringVar(&traceExporter, "trace", "", "trace exporter (otlp, stdout)")
	cmd.Flags().StringVar(&traceEndpoint, "trace-endpoint", "", "OTLP trace endpoint")

	return cmd
}
