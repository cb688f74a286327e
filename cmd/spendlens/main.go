// Command spendlens loads household expenditure survey extracts into a local
// SQLite star schema and answers questions over the result.
package main

import (
	"os"

	"github.com/spendlens/spendlens/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
