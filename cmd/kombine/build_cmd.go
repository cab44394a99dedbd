package main

import (
	"io/ioutil"

	"github.com/spf13/cobra"

	"github.com/kombineproject/kombine/pkg/build"
)

type buildOpts struct {
	*rootOpts
	output string
	filter string
}

func newBuild(parent *rootOpts) *buildOpts {
	return &buildOpts{rootOpts: parent}
}

func (opts *buildOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <target>",
		Short: "Render the manifests of a target directory",
		Example: makeExample(
			"kombine build overlays/dev",
			"kombine build overlays/prod -o prod.yaml",
			"kombine build overlays/dev --filter '*:deployment/*'",
		),
		RunE: opts.RunE,
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the rendered manifests to this file instead of stdout")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "only output resources whose ID (<namespace>:<kind>/<name>) matches this glob")
	return cmd
}

func (opts *buildOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return newUsageError("please supply a target directory")
	}
	rendered, err := build.NewBuilder(opts.logger).Build(args[0])
	if err != nil {
		return err
	}
	rendered = build.Filter(rendered, opts.filter)
	body, err := rendered.MarshalSet()
	if err != nil {
		return err
	}
	if opts.output != "" {
		return ioutil.WriteFile(opts.output, body, 0644)
	}
	cmd.OutOrStdout().Write(body)
	return nil
}
