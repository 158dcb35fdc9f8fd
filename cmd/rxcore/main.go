// Command rxcore runs and checks reactive engine scenarios.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/rxcore/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
