package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/masquerade/internal/config"
	"github.com/mesh-intelligence/masquerade/internal/engine"
)

func newInitCmd(state *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration and catalog",
		Long:  "Create the configuration directory with a default config.yaml and a starter catalog.toml.\nExisting files are left untouched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, state)
		},
	}
}

func runInit(cmd *cobra.Command, state *runtimeState) error {
	dir := state.configDir

	wrote, err := config.WriteDefault(dir, config.CatalogFile)
	if err != nil {
		return systemErr("write config: %w", err)
	}
	if wrote {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", filepath.Join(dir, "config.yaml"))
	}

	catalogPath := filepath.Join(dir, config.CatalogFile)
	if _, err := os.Stat(catalogPath); os.IsNotExist(err) {
		if err := os.WriteFile(catalogPath, []byte(engine.DefaultCatalogTOML()), 0o644); err != nil {
			return systemErr("write catalog: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", catalogPath)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "masquerade initialized in", dir)
	return nil
}
