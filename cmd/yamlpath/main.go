// Command yamlpath merges and searches YAML documents by path.
package main

import (
	"os"

	"github.com/roach88/yamlpath/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		cli.PrintError(os.Stderr, err)
	}
	os.Exit(cli.GetExitCode(err))
}
