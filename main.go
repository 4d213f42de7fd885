package main

import (
	"os"

	"github.com/placify/placify/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
