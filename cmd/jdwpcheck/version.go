package main

import (
	"github.com/spf13/cobra"

	"jdwpcheck/pkg/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			version.WriteVersionInfo(cmd.OutOrStdout())
		},
	}
}
