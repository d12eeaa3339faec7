// Command slideinfo inspects the level pyramid of whole-slide image containers.
package main

import (
	"os"

	"github.com/meigma/slideinfo/cmd/slideinfo/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
