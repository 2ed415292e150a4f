package cmd

import (
	"fmt"

	"github.com/smazurov/framegrab/internal/version"
	"github.com/spf13/cobra"
)

// CreateVersionCmd creates the version command.
func CreateVersionCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			if !verbose {
				fmt.Fprintln(cmd.OutOrStdout(), version.String())
				return
			}

			info := version.Get()
			fmt.Fprintf(cmd.OutOrStdout(), "version:    %s\n", info.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "commit:     %s\n", info.GitCommit)
			fmt.Fprintf(cmd.OutOrStdout(), "built:      %s\n", info.BuildDate)
			fmt.Fprintf(cmd.OutOrStdout(), "build id:   %s\n", info.BuildID)
			fmt.Fprintf(cmd.OutOrStdout(), "go version: %s\n", info.GoVersion)
			fmt.Fprintf(cmd.OutOrStdout(), "platform:   %s\n", info.Platform)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print full build metadata")
	return cmd
}
