// Command grants is the grant discovery client: list, search and submit
// grants from the shell, browse them in a terminal UI, or serve the
// discovery controller to a local web front end.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errDegraded) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
