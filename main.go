package main

import (
	"os"

	"fqindex/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
