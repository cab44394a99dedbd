package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kombineproject/kombine/pkg/build"
	kombinehttp "github.com/kombineproject/kombine/pkg/http"
)

type serveOpts struct {
	*rootOpts
	listenAddr string
	root       string
}

func newServe(parent *rootOpts) *serveOpts {
	return &serveOpts{rootOpts: parent}
}

func (opts *serveOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendered targets over HTTP",
		Example: makeExample(
			"kombine serve --root ./deploy --listen :3030",
		),
		RunE: opts.RunE,
	}
	cmd.Flags().StringVarP(&opts.listenAddr, "listen", "l", ":3030", "listen address for the render API")
	cmd.Flags().StringVar(&opts.root, "root", ".", "directory whose targets may be rendered")
	return cmd
}

func (opts *serveOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	root, err := filepath.Abs(opts.root)
	if err != nil {
		return err
	}
	builder := build.NewBuilder(opts.logger)
	server := kombinehttp.NewServer(root, version(), builder, opts.logger)

	stopCh := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		sig := <-c
		opts.logger.Log("info", "shutting down", "signal", sig.String())
		close(stopCh)
	}()

	kombinehttp.ListenAndServe(opts.listenAddr, server, opts.logger, stopCh)
	return nil
}
