package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shinobi-platform/shinobi/pkg/config"
	"github.com/shinobi-platform/shinobi/pkg/policy"
)

func newPolicyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Governance policy commands",
		Long:  `Inspect and test the governance policies the engine evaluates.`,
	}

	cmd.AddCommand(newPolicyListCommand())
	cmd.AddCommand(newPolicyTestCommand())

	return cmd
}

func newPolicyListCommand() *cobra.Command {
	var policyPaths []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List loaded policies",
		Long: `List the built-in governance policies plus any policies loaded
from the given paths.`,
		Example: `  # List built-in policies
  shinobi policy list

  # Include custom policies
  shinobi policy list --policy-dir ./policies`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newPipelineLogger()
			if err != nil {
				return err
			}

			engine, err := policy.NewEngine(logger)
			if err != nil {
				return err
			}
			if len(policyPaths) > 0 {
				if err := engine.LoadPaths(cmd.Context(), policyPaths); err != nil {
					return err
				}
			}

			for _, p := range engine.List() {
				state := "enabled"
				if !p.Enabled {
					state = "disabled"
				}
				fmt.Printf("  %-30s [%s, %s] %s\n", p.Name, p.Severity, state, p.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&policyPaths, "policy-dir", nil, "additional policy files or directories")

	return cmd
}

func newPolicyTestCommand() *cobra.Command {
	var (
		manifestPath string
		environment  string
	)

	cmd := &cobra.Command{
		Use:   "test <path>...",
		Short: "Compile policy files, optionally evaluating a manifest",
		Long: `Compile the given .rego files or directories against the policy
engine, reporting any compilation failures.

With --manifest, the manifest is synthesized and the combined built-in and
loaded policies are evaluated against the result.`,
		Example: `  # Check a policy directory compiles
  shinobi policy test ./policies

  # Evaluate custom policies against a manifest
  shinobi policy test ./policies --manifest service.yaml --env prod`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newPipelineLogger()
			if err != nil {
				return err
			}

			policyEngine, err := policy.NewEngine(logger)
			if err != nil {
				return err
			}
			if err := policyEngine.LoadPaths(cmd.Context(), args); err != nil {
				return err
			}
			fmt.Printf("All policies in %v compile\n", args)

			if manifestPath == "" {
				return nil
			}

			manifest, err := config.NewParser().LoadFile(manifestPath)
			if err != nil {
				return err
			}
			cc, err := manifest.Context(environment)
			if err != nil {
				return err
			}

			synthesizer, _, err := buildSynthesizer(cmd.Context(), logger, pipelineOptions{
				complianceMode: "advisory",
				policyPaths:    args,
			})
			if err != nil {
				return err
			}

			report, err := synthesizer.Synthesize(cmd.Context(), cc, manifest.Specs(), manifest.Directives())
			if err != nil {
				return err
			}

			if len(report.PolicyViolations) == 0 {
				fmt.Println("No policy violations")
				return nil
			}
			for _, v := range report.PolicyViolations {
				fmt.Printf("  ! %-30s [%s] %s\n", v.Policy, v.Severity, v.Message)
			}
			return fmt.Errorf("%d policy violation(s)", len(report.PolicyViolations))
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "manifest to evaluate the policies against")
	cmd.Flags().StringVar(&environment, "env", "dev", "target environment for --manifest")

	return cmd
}
