package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shinobi-platform/shinobi/pkg/config"
)

func newPlanCommand() *cobra.Command {
	var (
		environment    string
		complianceMode string
		policyPaths    []string
		overridesPath  string
	)

	cmd := &cobra.Command{
		Use:   "plan <manifest>",
		Short: "Synthesize a manifest without persisting the run",
		Long: `Run the full synthesis pipeline and print the resulting report
without recording anything in the audit store.

The report contains every resolved component configuration, every binding
result with its environment variables, permissions and network rules, and
all governance policy findings.`,
		Example: `  # Plan the prod environment
  shinobi plan service.yaml --env prod

  # Plan with strict compliance and extra policies
  shinobi plan service.yaml --env prod --compliance-mode enforcing --policy-dir ./policies`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			synthesizer, _, err := buildSynthesizer(cmd.Context(), logger, pipelineOptions{
				complianceMode: complianceMode,
				policyPaths:    policyPaths,
				overridesPath:  overridesPath,
			})
			if err != nil {
				return err
			}

			report, err := synthesizer.Synthesize(cmd.Context(), cc, manifest.Specs(), manifest.Directives())
			if err != nil {
				return err
			}

			if err := printReport(report); err != nil {
				return err
			}
			if report.Failed() {
				return fmt.Errorf("plan completed with errors")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&environment, "env", "dev", "target environment")
	cmd.Flags().StringVar(&complianceMode, "compliance-mode", "advisory", "compliance mode (advisory, enforcing)")
	cmd.Flags().StringArrayVar(&policyPaths, "policy-dir", nil, "additional policy files or directories")
	cmd.Flags().StringVar(&overridesPath, "policy-overrides", "", "governance configuration overrides file")

	return cmd
}
