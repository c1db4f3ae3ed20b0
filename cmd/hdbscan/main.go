// Command hdbscan clusters CSV data with HDBSCAN* and writes the result as JSON.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
