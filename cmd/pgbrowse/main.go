package main

import (
	"os"

	"github.com/joacominatel/pgbrowse/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
