package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; the environment wins when both are set
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
