package cmd

import (
	"github.com/spf13/cobra"
)

func newAddCmd() *cobra.Command {
	var (
		flags    moduleFlags
		withDeps bool
	)

	cmd := &cobra.Command{
		Use:   "add <module...>",
		Short: "Add several modules in one run",
		Long: `Add modules in the order given. Each module's requirements must already
be installed or appear earlier in the list.

With --with-deps missing requirements are added automatically and the list
is put in dependency order.`,
		Example: `  microgen add es session saga task
  microgen add task --with-deps`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if withDeps {
				var err error
				names, err = expandDeps(args)
				if err != nil {
					return err
				}
			}
			return runModules(cmd, names, &flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&withDeps, "with-deps", false, "Also add missing required modules")

	return cmd
}

// expandDeps adds the requirements of names that are not installed in the
// project and sorts the result by dependency.
func expandDeps(names []string) ([]string, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	a, err := newApp()
	if err != nil {
		return nil, err
	}
	reg := a.orch.Registry()

	installed := map[string]bool{}
	for _, n := range a.orch.Installed(root) {
		installed[n] = true
	}

	var all []string
	for _, n := range names {
		if _, err := reg.Get(n); err != nil {
			return nil, err
		}
		for _, req := range reg.Requirements(n) {
			if !installed[req] {
				all = append(all, req)
			}
		}
		all = append(all, n)
	}
	return reg.Sort(all)
}
