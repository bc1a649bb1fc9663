package main

import (
	"os"

	"github.com/toxichat/toxichat/cli"
)

func main() {
	if err := cli.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
