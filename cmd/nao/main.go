// Command nao runs scripted conversations on a NAO robot.
package main

import (
	"fmt"
	"os"

	"github.com/teslashibe/go-nao/cmd/nao/commands"
)

// Set by the release build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersion(version, commit, date)

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
