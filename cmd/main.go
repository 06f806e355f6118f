package main

import (
	"os"

	"ttx-deepfake/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
