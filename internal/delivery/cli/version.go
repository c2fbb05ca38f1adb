package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "dsnval %s\n", info.Version)
			fmt.Fprintf(out, "Build time: %s\n", info.BuildTime)
			fmt.Fprintf(out, "Git commit: %s\n", info.GitCommit)
		},
	}
}
