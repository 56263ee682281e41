// Package main is the gdik command itself.
package main

import (
	"fmt"
	"os"

	"go.viam.com/gdik/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		//nolint:errcheck
		fmt.Fprintf(app.ErrWriter, "error: %v\n", err)
		os.Exit(1)
	}
}
