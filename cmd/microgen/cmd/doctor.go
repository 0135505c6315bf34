package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/microgen/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that a project can receive modules",
		Long: `Run the preflight checks: project directory, write permissions, disk
space, go.mod, pkg/config/config.go, templates, and the modules already
installed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := projectRoot()
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}

			checker := preflight.New(
				preflight.WithOutput(cmd.OutOrStdout()),
				preflight.WithVerbose(verbose),
				preflight.WithTemplates(a.templates),
				preflight.WithRegistry(a.orch.Registry()),
			)
			results := checker.RunAll(cmd.Context(), root)
			checker.PrintResults(results)

			if checker.HasCriticalFailures(results) {
				return errors.New("preflight checks failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show check details")

	return cmd
}
