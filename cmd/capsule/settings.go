package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"capsule/internal/diag"
	"capsule/internal/project"
)

// loadSettings returns the capsule.toml governing inputPath, or the one
// named by --config, or the defaults. Unknown keys are reported on stderr.
func loadSettings(cmd *cobra.Command, inputPath string) (project.Config, error) {
	flags := cmd.Root().PersistentFlags()
	configPath, err := flags.GetString("config")
	if err != nil {
		return project.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return project.Config{}, fmt.Errorf("failed to get quiet flag: %w", err)
	}

	var manifest *project.Manifest
	if configPath != "" {
		manifest, err = project.LoadConfig(configPath)
	} else {
		manifest, _, err = project.Discover(inputPath)
	}
	if err != nil {
		return project.Config{}, fmt.Errorf("%s: %w", diag.ProjInvalidConfig.ID(), err)
	}
	if manifest == nil {
		return project.Default(), nil
	}
	if !quiet {
		for _, key := range manifest.Unknown {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning %s %s: unknown key %q\n", diag.ProjUnknownKey.ID(), manifest.Path, key)
		}
	}
	return manifest.Config, nil
}

// maxDiagnostics applies --max-diagnostics over cfg.
func maxDiagnostics(cmd *cobra.Command, cfg project.Config) (int, error) {
	n, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return 0, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if n > 0 {
		return n, nil
	}
	return cfg.Diagnostics.Max, nil
}
