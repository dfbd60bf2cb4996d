// Superpose the C-lobe of a batch of kinase structures onto a reference.

package main

import (
	"os"

	"github.com/andrew-torda/lobec/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
