package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shinobi",
		Short: "Shinobi - Internal Developer Platform Core",
		Long: `Shinobi resolves service manifests into deployable component
configurations and capability bindings.

Features:
  - Layered configuration with compliance-aware defaults
  - JSON Schema validation of component configs
  - Capability publishing and binding resolution
  - FedRAMP compliance restrictions and obligations
  - Governance policy evaluation (OPA/rego)
  - Audit trail of synthesis runs in SQLite`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newSynthCommand())
	rootCmd.AddCommand(newPolicyCommand())
	rootCmd.AddCommand(newAuditCommand())
	rootCmd.AddCommand(newDevCommand())

	return rootCmd
}
