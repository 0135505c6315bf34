// Package cmd provides the CLI commands for microgen.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/microgen/internal/config"
	generrors "github.com/Aman-CERP/microgen/internal/errors"
	"github.com/Aman-CERP/microgen/internal/logging"
	"github.com/Aman-CERP/microgen/pkg/version"
)

// Global flags
var (
	debugMode    bool
	logLevel     string
	templateRoot string
	noColor      bool
	projectDir   string
)

var (
	toolConfig     *config.Config
	loggingCleanup func()
)

// NewRootCmd creates the root command for microgen CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "microgen",
		Short: "Generate and extend Go microservices",
		Long: `microgen scaffolds a Go microservice and adds feature modules to it:
event sourcing (es), sessions, sagas, background tasks and projections.

Each module writes its files and adds its settings to pkg/config/config.go.
Running a module twice is safe: existing files are kept and settings that
are already present are not added again. A rerun therefore does not refresh
generated files that are out of date; pass --force to rewrite them.
pkg/config/config.go is never rewritten, only extended.`,
		Example: `  # Create a service and add every module
  microgen magic github.com/acme/orders

  # Or step by step
  microgen init github.com/acme/orders
  cd orders
  microgen es
  microgen add session saga task`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("microgen version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.microgen/logs/")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Console log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&templateRoot, "template-root", "", "Read templates from this directory instead of the built-in set")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "Project directory")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newInitCmd())
	for _, name := range moduleCommands {
		cmd.AddCommand(newModuleCmd(name))
	}
	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newMagicCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newRestoreCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging loads the tool configuration and installs the default logger.
func startLogging(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(projectDir)
	if err != nil {
		return err
	}
	if templateRoot != "" {
		cfg.Templates.Root = templateRoot
	}
	if logLevel != "" {
		if !logging.ValidLevel(logLevel) {
			return generrors.ConfigError(fmt.Sprintf("invalid --log-level %q", logLevel), nil).
				WithSuggestion("Use one of: debug, info, warn, error")
		}
		cfg.Log.Level = logLevel
	}
	toolConfig = cfg

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	if debugMode {
		logCfg = logging.DebugConfig()
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	if debugMode {
		slog.Info("Debug logging enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	}
	return nil
}

// stopLogging flushes and closes the log file.
func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command and reports a failure on stderr.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, generrors.FormatForUser(err, debugMode))
		_ = stopLogging(nil, nil)
	}
	return err
}
