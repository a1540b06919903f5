// Command rcore compiles, runs, records and replays computation nets.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/rcore/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rcore:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
