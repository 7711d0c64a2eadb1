// Command vkir normalizes the Vulkan API registry into the binding IR.
package main

import (
	"os"

	"github.com/roach88/vkir/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
