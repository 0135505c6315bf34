package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/microgen/internal/module"
	"github.com/Aman-CERP/microgen/internal/orchestrator"
)

// moduleCommands get a top-level command each.
var moduleCommands = []string{module.ES, module.Session, module.Saga, module.Task, module.Projection}

// moduleFlags are shared by commands that apply modules.
type moduleFlags struct {
	force      bool
	ignoreDeps bool
	strict     bool
	blueprint  string
}

func (f *moduleFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.force, "force", false, "Rewrite generated files that already exist (pkg/config/config.go is only extended)")
	cmd.Flags().BoolVar(&f.ignoreDeps, "ignore-deps", false, "Apply even if required modules are missing")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Fail when a configuration setting cannot be placed automatically")
	cmd.Flags().StringVar(&f.blueprint, "config", "", "Blueprint driving projections (default <dir>/microgen.yaml)")
}

func (f *moduleFlags) options(root string, needBlueprint bool) (orchestrator.Options, error) {
	opts := orchestrator.Options{
		Force:       f.force,
		IgnoreOrder: f.ignoreDeps,
		StrictPatch: f.strict,
	}
	if needBlueprint || f.blueprint != "" {
		bp, err := loadBlueprint(root, f.blueprint, f.blueprint != "")
		if err != nil {
			return opts, err
		}
		opts.Blueprint = bp
	}
	return opts, nil
}

func newModuleCmd(name string) *cobra.Command {
	m, err := module.Default().Get(name)
	if err != nil {
		panic(err)
	}
	var flags moduleFlags

	long := fmt.Sprintf("Add the %s module: %s.\n\n"+
		"Files that already exist are left alone, even when they are out of date;\n"+
		"--force rewrites them. Settings are added to pkg/config/config.go once.", m.Name, m.Summary)
	if len(m.Requires) > 0 {
		long += fmt.Sprintf("\n\nRequires: %v", m.Requires)
	}

	cmd := &cobra.Command{
		Use:   name,
		Short: "Add " + m.Summary,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runModules(cmd, []string{name}, &flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func runModules(cmd *cobra.Command, names []string, flags *moduleFlags) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}

	needBlueprint := false
	for _, n := range names {
		if m, err := a.orch.Registry().Get(n); err == nil && len(m.PerProjection) > 0 {
			needBlueprint = true
		}
	}
	opts, err := flags.options(root, needBlueprint)
	if err != nil {
		return err
	}

	results, err := a.orch.ApplyAll(cmd.Context(), root, names, opts)
	out := newOutput(cmd.OutOrStdout())
	for i, res := range results {
		if len(names) > 1 {
			out.Step(i+1, len(names), res.Module)
		}
		printResult(out, res)
	}
	return err
}
