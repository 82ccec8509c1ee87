// Command wellmedctl scores burnout risk from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/okian/wellmed/internal/cli"
)

func main() {
	fd := os.Stdout.Fd()
	app := &cli.App{
		Color: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
	if err := cli.NewRootCmd(app).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
