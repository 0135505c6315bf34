package cmd

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/microgen/internal/blueprint"
	generrors "github.com/Aman-CERP/microgen/internal/errors"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a microgen.yaml blueprint",
		Long: `Check a blueprint for unknown keys, missing names, unknown field types,
duplicate declarations and references to undeclared aggregates.

Without a path, <dir>/microgen.yaml is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				root, err := projectRoot()
				if err != nil {
					return err
				}
				path = filepath.Join(root, blueprint.DefaultFile)
			}

			out := newOutput(cmd.OutOrStdout())
			bp, err := blueprint.Load(path)
			if err != nil {
				var ge *generrors.GenError
				if errors.As(err, &ge) && ge.Details["problems"] != "" {
					out.Errorf("%s is invalid", path)
					for _, p := range strings.Split(ge.Details["problems"], "\n") {
						out.Item("-", p)
					}
				}
				return err
			}

			out.Successf("%s is valid", path)
			out.Item("project", bp.Project.Name)
			out.Statusf("", "%d aggregate(s), %d event(s), %d projection(s)",
				len(bp.Aggregates), len(bp.Events), len(bp.Projections))
			return nil
		},
	}
	return cmd
}
