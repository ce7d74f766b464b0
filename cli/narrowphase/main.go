// Package main is the narrowphase command itself.
package main

import (
	"os"

	"github.com/edaniels/golog"

	"go.viam.com/narrowphase/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		golog.Global().Fatal(err)
	}
}
