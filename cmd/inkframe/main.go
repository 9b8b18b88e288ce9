// inkframe runs the photo-frame update cycle on a host.
//
// Usage:
//
//	inkframe cycle  [flags]          one wake cycle
//	inkframe run    [flags]          cycle, sleep, repeat until interrupted
//	inkframe render <artifact>       repaint a committed artifact
//	inkframe state  [flags]          print the persisted validator
package main

import (
	"fmt"
	"os"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	root := newRootCmd()
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "inkframe: %v\n", err)
		os.Exit(1)
	}
}
