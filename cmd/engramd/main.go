// Command engramd runs Engram's memory store: the HTTP API server (serve)
// and direct CLI operations (create/get/list/search/stats) over the same
// internal/engram Core facade.
package main

import (
	"fmt"
	"os"

	"github.com/lazypower/engram/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
