// Command sablec drives the parse/validate/translate/backend pipeline
// over a single WebAssembly module. It is a thin collaborator around
// the core packages, not itself part of the lowering contract.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sablec: %v\n", err)
		os.Exit(1)
	}
}
