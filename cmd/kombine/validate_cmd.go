package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kombineproject/kombine/pkg/build"
)

type validateOpts struct {
	*rootOpts
}

func newValidate(parent *rootOpts) *validateOpts {
	return &validateOpts{rootOpts: parent}
}

func (opts *validateOpts) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <target>",
		Short: "Check that a target's configuration is well-formed and renders cleanly",
		Example: makeExample(
			"kombine validate overlays/prod",
		),
		RunE: opts.RunE,
	}
}

func (opts *validateOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return newUsageError("please supply a target directory")
	}
	rendered, err := build.NewBuilder(opts.logger).Build(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d resources render\n", args[0], len(rendered))
	return nil
}
