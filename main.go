package main

import (
	"fmt"
	"os"

	"github.com/kairos-io/diskplan/commands"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:     "diskplan",
		Usage:    "plan and apply disk partitioning from a declarative setup file",
		Flags:    commands.GlobalFlags(),
		Before:   commands.LoadEnv,
		Commands: commands.CliCommands(),
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
