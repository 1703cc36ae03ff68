package main

import (
	"os"

	"ibis-route-manager/internal/cli"
)

func main() {
	os.Exit(cli.New().Execute())
}
