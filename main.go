package main

import (
	"os"

	"github.com/avolkov/inventory-harvester/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
