package main

import (
	"os"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/spf13/cobra"
)

type rootOpts struct {
	logger log.Logger
}

func newRoot() *rootOpts {
	return &rootOpts{}
}

var rootLongHelp = strings.TrimSpace(`
kombine renders Kubernetes manifests by composing a base with
environment overlays.

Workflow:
  kombine build overlays/dev                 # render the dev environment
  kombine diff overlays/dev overlays/prod    # what prod changes, as patches
  kombine validate overlays/prod             # check an overlay renders cleanly
  kombine serve --root ./deploy              # render environments over HTTP
`)

func (opts *rootOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "kombine",
		Long:              rootLongHelp,
		SilenceUsage:      true,
		PersistentPreRunE: opts.PersistentPreRunE,
	}

	cmd.AddCommand(
		newBuild(opts).Command(),
		newDiff(opts).Command(),
		newValidate(opts).Command(),
		newServe(opts).Command(),
		newVersionCommand(),
	)

	return cmd
}

func (opts *rootOpts) PersistentPreRunE(cmd *cobra.Command, _ []string) error {
	logger := log.NewLogfmtLogger(os.Stderr)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "caller", log.DefaultCaller)
	opts.logger = logger
	return nil
}
