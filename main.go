package main

import (
	"github.com/teemow/gmailtriage/cmd"
)

// version is set via -ldflags at build time
var version = "dev"

func main() {
	// Set the version from build-time variable
	cmd.SetVersion(version)

	// Execute the root command
	cmd.Execute()
}
