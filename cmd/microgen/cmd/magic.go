package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/microgen/internal/blueprint"
	"github.com/Aman-CERP/microgen/internal/module"
	"github.com/Aman-CERP/microgen/internal/orchestrator"
)

func newMagicCmd() *cobra.Command {
	var (
		outDir     string
		force      bool
		bpPath     string
		projection bool
	)

	cmd := &cobra.Command{
		Use:   "magic <name>",
		Short: "Create a service with every module",
		Long: `Create a new service and add es, session, saga and task in dependency
order. With --config, or --projection to use the generated microgen.yaml,
the projection module and its read models are added too.`,
		Example: `  microgen magic github.com/acme/orders
  microgen magic orders --projection`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			out := newOutput(cmd.OutOrStdout())

			opts := orchestrator.Options{Force: force}
			res, id, err := a.orch.Init(cmd.Context(), outDir, args[0], opts)
			printResult(out, res)
			if err != nil {
				return err
			}

			names := []string{module.ES, module.Session, module.Saga, module.Task}
			if bpPath != "" || projection {
				if bpPath == "" {
					bpPath = filepath.Join(id.Root, blueprint.DefaultFile)
				}
				bp, err := blueprint.Load(bpPath)
				if err != nil {
					return err
				}
				opts.Blueprint = bp
				names = append(names, module.Projection)
			}
			names, err = a.orch.Registry().Sort(names)
			if err != nil {
				return err
			}

			results, err := a.orch.ApplyAll(cmd.Context(), id.Root, names, opts)
			for i, r := range results {
				out.Step(i+1, len(names), r.Module)
				printResult(out, r)
			}
			if err != nil {
				return err
			}
			out.Successf("Project %s ready in %s", id.ModulePath, id.Root)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "Parent directory for the project")
	cmd.Flags().BoolVar(&force, "force", false, "Rewrite generated files that already exist (pkg/config/config.go is kept)")
	cmd.Flags().StringVar(&bpPath, "config", "", "Blueprint whose projections are generated")
	cmd.Flags().BoolVar(&projection, "projection", false, "Add projections from the generated microgen.yaml")

	return cmd
}
