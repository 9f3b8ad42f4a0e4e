package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/euan-reid/story-server/internal/model"
	"github.com/euan-reid/story-server/internal/paths"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Long: "Create the configuration directory with a default config.yaml if\n" +
			"none exists, then attach and detach the configured backend so its\n" +
			"data directory is ready.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	env, err := a.resolve()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(env.configDir, 0o755); err != nil {
		return systemErr("create config directory: %w", err)
	}

	s := env.settings
	s.DataDir = env.dataDir
	path := filepath.Join(env.configDir, paths.ConfigFileName)
	written, err := writeSettingsIfMissing(path, s)
	if err != nil {
		return systemErr("write config: %w", err)
	}
	if written {
		a.log.Info("wrote config", zap.String("path", path))
	}

	if err := a.withRepository(cmd.Context(), func(*model.Repository) error { return nil }); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s storage in %s\n", s.Backend, env.dataDir)
	return nil
}
