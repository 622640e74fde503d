package commands

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shinobi-platform/shinobi/pkg/config"
	"github.com/shinobi-platform/shinobi/pkg/policy"
)

func newDevCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Development mode commands",
		Long:  `Commands for the local manifest and policy development loop.`,
	}

	cmd.AddCommand(newDevWatchCommand())

	return cmd
}

func newDevWatchCommand() *cobra.Command {
	var (
		environment    string
		complianceMode string
		policyPaths    []string
		overridesPath  string
	)

	cmd := &cobra.Command{
		Use:   "watch <manifest>",
		Short: "Re-synthesize on manifest or policy changes",
		Long: `Watch the manifest file and any policy directories, re-running
the synthesis pipeline whenever one of them changes.

Nothing is persisted; each run prints a fresh report. Stop with Ctrl+C.`,
		Example: `  # Watch a manifest for the dev environment
  shinobi dev watch service.yaml --env dev

  # Watch manifest and policies together
  shinobi dev watch service.yaml --env dev --policy-dir ./policies`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			manifestPath := args[0]

			logger, err := newPipelineLogger()
			if err != nil {
				return err
			}

			resynthesize := func() {
				manifest, err := config.NewParser().LoadFile(manifestPath)
				if err != nil {
					log.Error().Err(err).Msg("Manifest failed to parse")
					return
				}
				cc, err := manifest.Context(environment)
				if err != nil {
					log.Error().Err(err).Msg("Unknown environment")
					return
				}

				synthesizer, _, err := buildSynthesizer(ctx, logger, pipelineOptions{
					complianceMode: complianceMode,
					policyPaths:    policyPaths,
					overridesPath:  overridesPath,
				})
				if err != nil {
					log.Error().Err(err).Msg("Pipeline setup failed")
					return
				}

				report, err := synthesizer.Synthesize(ctx, cc, manifest.Specs(), manifest.Directives())
				if err != nil {
					log.Error().Err(err).Msg("Synthesis aborted")
					return
				}
				if err := printReport(report); err != nil {
					log.Error().Err(err).Msg("Failed to print report")
				}
			}

			// Initial run before watching.
			resynthesize()

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()
			if err := watcher.Add(filepath.Dir(manifestPath)); err != nil {
				return err
			}

			loader := policy.NewLoader(logger)
			defer func() { _ = loader.Close() }()
			if len(policyPaths) > 0 {
				err := loader.Watch(policyPaths, func(path string) {
					log.Info().Str("path", path).Msg("Policy changed, re-synthesizing")
					resynthesize()
				})
				if err != nil {
					return err
				}
			}

			log.Info().Str("manifest", manifestPath).Msg("Watching for changes")
			for {
				select {
				case <-ctx.Done():
					return nil
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if filepath.Clean(event.Name) != filepath.Clean(manifestPath) {
						continue
					}
					if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
						log.Info().Msg("Manifest changed, re-synthesizing")
						resynthesize()
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					log.Error().Err(err).Msg("Watcher error")
				}
			}
		},
	}

	cmd.Flags().StringVar(&environment, "env", "dev", "target environment")
	cmd.Flags().StringVar(&complianceMode, "compliance-mode", "advisory", "compliance mode (advisory, enforcing)")
	cmd.Flags().StringArrayVar(&policyPaths, "policy-dir", nil, "policy files or directories to watch")
	cmd.Flags().StringVar(&overridesPath, "policy-overrides", "", "governance configuration overrides file")

	return cmd
}
