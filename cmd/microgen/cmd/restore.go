package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"
)

func newRestoreCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "restore [backup]",
		Short: "Restore pkg/config/config.go from a backup",
		Long: `Every module run that changes pkg/config/config.go first copies it to
.microgen/backups. restore puts a backup back, the newest one by default.
The current file is backed up first, so a restore can be undone.`,
		Example: `  microgen restore --list
  microgen restore
  microgen restore config.go.bak.20260101-120000.000000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := projectRoot()
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			out := newOutput(cmd.OutOrStdout())

			if list {
				backups, err := a.store.Backups(root)
				if err != nil {
					return err
				}
				if len(backups) == 0 {
					out.Status("📭", "No backups")
					return nil
				}
				for _, b := range backups {
					out.Item("", filepath.Base(b))
				}
				return nil
			}

			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			from, err := a.store.Restore(cmd.Context(), root, name)
			if err != nil {
				return err
			}
			out.Successf("Restored %s from %s", a.store.Path(), filepath.Base(from))
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List backups, newest first")

	return cmd
}
