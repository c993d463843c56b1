// Command skillcheck stores and queries soft-skill assessment records.
package main

import (
	"os"

	"github.com/roach88/skillcheck/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
