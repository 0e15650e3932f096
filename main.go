package main

import (
	"os"

	"savile/cmd"
)

var version = "dev"

func main() {
	os.Exit(cmd.Execute(version))
}
