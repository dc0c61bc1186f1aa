// Command fieldmap marks objects on a shared map.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/fieldmap/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
