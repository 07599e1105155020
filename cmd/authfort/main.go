package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"authfort-cli/internal/command"
)

func main() {
	app := command.App(os.Stdin, os.Stdout)

	if err := app.Run(os.Args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			if msg := err.Error(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
