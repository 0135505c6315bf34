// Package main provides the entry point for the microgen CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/microgen/cmd/microgen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
