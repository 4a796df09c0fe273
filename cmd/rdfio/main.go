// Command rdfio loads RDF documents into graph stores, queries them and
// exports them again.
package main

import (
	"os"

	"github.com/roach88/rdfio/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
