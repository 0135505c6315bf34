package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/microgen/configs"
	"github.com/Aman-CERP/microgen/internal/config"
	generrors "github.com/Aman-CERP/microgen/internal/errors"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage tool configuration",
		Long: `Manage microgen's own settings.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/microgen/config.yaml)
  3. Project config (.microgen.yaml)
  4. Environment variables (MICROGEN_*)
  5. Command-line flags (--template-root, --log-level)`,
		Example: `  # Create user config from template
  microgen config init

  # Show effective configuration
  microgen config show

  # Print user config file path
  microgen config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create user configuration file",
		Long: `Create the user configuration file from a template that documents
every setting with its default.

The file is created at ~/.config/microgen/config.yaml
(or $XDG_CONFIG_HOME/microgen/config.yaml if XDG_CONFIG_HOME is set).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := newOutput(cmd.OutOrStdout())
			path := config.GetUserConfigPath()

			if config.UserConfigExists() && !force {
				out.Warning("User configuration already exists")
				out.Statusf("📁", "Location: %s", path)
				out.Status("💡", "Use --force to replace it with the template")
				return nil
			}

			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return generrors.FilesystemError("create config directory", filepath.Dir(path), err)
			}
			if err := renameio.WriteFile(path, []byte(configs.UserConfigTemplate), 0o644); err != nil {
				return generrors.FilesystemError("write config", path, err)
			}

			out.Success("Created user configuration")
			out.Statusf("📁", "Location: %s", path)
			out.Status("💡", "Run 'microgen config show' to verify")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long:  `Show the configuration after merging defaults, files, environment and flags.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := toolConfig
			if cfg == nil {
				cfg = config.NewConfig()
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}

			data, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), string(data))
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}
