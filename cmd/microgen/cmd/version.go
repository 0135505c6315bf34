package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/microgen/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var (
		jsonOutput  bool
		shortOutput bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the microgen version, git commit, build date and Go version.

Release builds carry values set at link time. A binary installed with
'go install' reports the module version and VCS data recorded by the Go
toolchain instead; "source" in the output says which one applies.`,
		Example: `  microgen version
  microgen version --short
  microgen version --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if jsonOutput && shortOutput {
				return fmt.Errorf("--json and --short cannot be combined")
			}
			info := version.GetInfo()

			switch {
			case shortOutput:
				_, err := fmt.Fprintln(cmd.OutOrStdout(), info.Version)
				return err
			case jsonOutput:
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			out := newOutput(cmd.OutOrStdout())
			out.Header("microgen " + info.Version)
			out.Item("commit", info.Commit)
			out.Item("built", info.Date)
			out.Item("go", info.GoVersion)
			out.Item("platform", info.OS+"/"+info.Arch)
			out.Item("source", info.Source)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	cmd.Flags().BoolVar(&shortOutput, "short", false, "Output only the version number")

	return cmd
}
