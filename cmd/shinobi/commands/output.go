package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shinobi-platform/shinobi/pkg/engine"
)

func asSynthErr(err error, target **engine.SynthesisError) bool {
	return errors.As(err, target)
}

// writeArtifacts writes each successful component config and binding result
// as an indented JSON file under dir, plus the full report.
func writeArtifacts(dir string, report *engine.SynthesisReport) error {
	componentsDir := filepath.Join(dir, "components")
	bindingsDir := filepath.Join(dir, "bindings")
	for _, d := range []string{componentsDir, bindingsDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	for _, c := range report.Components {
		if c.Config == nil {
			continue
		}
		path := filepath.Join(componentsDir, c.Component+".json")
		if err := writeJSONFile(path, c.Config); err != nil {
			return err
		}
	}

	for _, b := range report.Bindings {
		if b.Result == nil {
			continue
		}
		name := fmt.Sprintf("%s--%s--%s.json", b.Directive.Source, b.Directive.Target,
			strings.ReplaceAll(b.Directive.Capability, ":", "-"))
		if err := writeJSONFile(filepath.Join(bindingsDir, name), b.Result); err != nil {
			return err
		}
	}

	return writeJSONFile(filepath.Join(dir, "report.json"), report)
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// printReport writes a synthesis report to stdout, as indented JSON when
// --json is set and as a human-readable summary otherwise.
func printReport(report *engine.SynthesisReport) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("Run %s: %s\n", report.RunID, report.Summary())

	for _, c := range report.Components {
		if c.Error != nil {
			fmt.Printf("  ✗ component %-20s %s: %s\n", c.Component, c.Error.Code, c.Error.Message)
			continue
		}
		fmt.Printf("  ✓ component %-20s type=%s capabilities=%v\n", c.Component, c.Type, c.Capabilities)
	}

	for _, b := range report.Bindings {
		key := fmt.Sprintf("%s->%s", b.Directive.Source, b.Directive.Target)
		if b.Error != nil {
			fmt.Printf("  ✗ binding   %-20s %s: %s\n", key, b.Error.Code, b.Error.Message)
			continue
		}
		fmt.Printf("  ✓ binding   %-20s %s (%s) env=%d permissions=%d network=%d\n",
			key, b.Directive.Capability, b.Directive.Access,
			len(b.Result.Env), len(b.Result.Permissions), len(b.Result.NetworkRules))
	}

	for _, v := range report.PolicyViolations {
		fmt.Printf("  ! policy    %-20s [%s] %s\n", v.Policy, v.Severity, v.Message)
	}

	return nil
}
