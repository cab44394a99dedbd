package main

import (
	"fmt"
	"os"

	konferr "github.com/kombineproject/kombine/pkg/errors"
)

func main() {
	rootCmd := newRoot().Command()
	if cmd, err := rootCmd.ExecuteC(); err != nil {
		switch err := err.(type) {
		case usageError:
			cmd.Println("")
			cmd.Println(cmd.UsageString())
		case *konferr.Error:
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, err.Help)
		}
		os.Exit(1)
	}
}
