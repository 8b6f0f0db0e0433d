// Command mailkit lists, renders and serves mail template directories.
package main

import (
	"fmt"
	"os"
)

// Build information injected via ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	root := newRootCmd(fmt.Sprintf("%s (commit: %s)", version, commit))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
