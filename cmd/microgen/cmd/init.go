package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/microgen/internal/orchestrator"
)

func newInitCmd() *cobra.Command {
	var (
		outDir string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Create a new service",
		Long: `Create a new service skeleton: go.mod, cmd/api/main.go, pkg/config,
pkg/logger, a health handler, a router, Makefile, Dockerfile, .env and a
microgen.yaml blueprint.

The name is the Go module path. The project directory is named after its
last element.`,
		Example: `  microgen init orders
  microgen init github.com/acme/orders -o ~/src`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			res, id, err := a.orch.Init(cmd.Context(), outDir, args[0], orchestrator.Options{Force: force})
			out := newOutput(cmd.OutOrStdout())
			printResult(out, res)
			if err != nil {
				return err
			}
			out.Successf("Project %s created in %s", id.ModulePath, id.Root)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "Parent directory for the project")
	cmd.Flags().BoolVar(&force, "force", false, "Regenerate an existing project's files; pkg/config/config.go is kept")

	return cmd
}
