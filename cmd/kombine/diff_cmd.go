package main

import (
	"github.com/spf13/cobra"

	"github.com/kombineproject/kombine/pkg/build"
	"github.com/kombineproject/kombine/pkg/patch"
)

type diffOpts struct {
	*rootOpts
}

func newDiff(parent *rootOpts) *diffOpts {
	return &diffOpts{rootOpts: parent}
}

func (opts *diffOpts) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <target> <other-target>",
		Short: "Show, as patches, how one rendered target differs from another",
		Example: makeExample(
			"kombine diff overlays/staging overlays/prod",
		),
		RunE: opts.RunE,
	}
}

func (opts *diffOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return newUsageError("please supply two target directories")
	}
	builder := build.NewBuilder(opts.logger)
	original, err := builder.Build(args[0])
	if err != nil {
		return err
	}
	modified, err := builder.Build(args[1])
	if err != nil {
		return err
	}
	patches, err := patch.NewSet().CreatePatch(original, modified)
	if err != nil {
		return err
	}
	cmd.OutOrStdout().Write(patches)
	return nil
}
