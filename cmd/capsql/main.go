package main

import (
	"github.com/joho/godotenv"

	"github.com/mickamy/capsql/internal/cli"
)

func main() {
	// Load .env file if it exists (silently ignore errors)
	_ = godotenv.Load()

	cli.Execute()
}
