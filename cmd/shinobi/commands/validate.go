package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/shinobi-platform/shinobi/pkg/config"
	"github.com/shinobi-platform/shinobi/pkg/engine"
	"github.com/shinobi-platform/shinobi/pkg/schema"
)

func newValidateCommand() *cobra.Command {
	var environment string

	cmd := &cobra.Command{
		Use:   "validate <manifest>",
		Short: "Validate a service manifest",
		Long: `Validate a service manifest without resolving bindings.

This command checks:
  - Manifest structure and field constraints
  - Component types against the built-in catalog
  - Resolved configurations against their JSON Schemas

Every component is validated per environment so all errors surface in one
pass.`,
		Example: `  # Validate against every declared environment
  shinobi validate service.yaml

  # Validate a single environment
  shinobi validate service.yaml --env prod`,
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

			environments := make([]string, 0, len(manifest.Environments))
			if environment != "" {
				environments = append(environments, environment)
			} else {
				for name := range manifest.Environments {
					environments = append(environments, name)
				}
				sort.Strings(environments)
			}

			builder := config.NewBuilder(schema.MustNewValidator(), logger)

			var errs []*engine.SynthesisError
			for _, env := range environments {
				cc, err := manifest.Context(env)
				if err != nil {
					return err
				}
				for _, spec := range manifest.Specs() {
					if _, err := builder.Resolve(cmd.Context(), cc, spec); err != nil {
						var se *engine.SynthesisError
						if asSynthErr(err, &se) {
							se = se.WithComponent(spec.Name)
							errs = append(errs, se)
							fmt.Printf("  ✗ %s/%s: %s\n", env, spec.Name, se.Message)
							continue
						}
						return err
					}
					fmt.Printf("  ✓ %s/%s\n", env, spec.Name)
				}
			}

			if len(errs) > 0 {
				return fmt.Errorf("validation failed with %d error(s)", len(errs))
			}
			fmt.Printf("Manifest %s is valid for service %q\n", args[0], manifest.Service)
			return nil
		},
	}

	cmd.Flags().StringVar(&environment, "env", "", "validate a single environment")

	return cmd
}
