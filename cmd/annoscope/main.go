package main

import (
	"os"

	"github.com/toyz/annoscope/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
