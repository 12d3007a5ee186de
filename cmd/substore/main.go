// Command substore is the CLI for inspecting and maintaining a substore
// directory.
package main

import (
	"os"

	"github.com/kraukis/substore/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
