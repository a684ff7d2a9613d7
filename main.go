package main

import (
	"os"

	"github.com/sherine-k/prodtwin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
