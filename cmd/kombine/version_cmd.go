package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// set at link time
var releaseVersion string

func version() string {
	if releaseVersion == "" {
		return "unversioned"
	}
	return releaseVersion
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Output the version of kombine",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return errorWantedNoArgs
			}
			fmt.Fprintln(cmd.OutOrStdout(), version())
			return nil
		},
	}
}
