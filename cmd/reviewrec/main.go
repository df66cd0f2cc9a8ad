// Package main provides the entry point for the reviewrec CLI.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"reviewrec/cmd/reviewrec/cmd"
)

func main() {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
