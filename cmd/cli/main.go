package main

import (
	"os"

	"github.com/mansap-dev/mansap/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
