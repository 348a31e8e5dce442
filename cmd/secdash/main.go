package main

import (
	_ "embed"
	"os"
	"strings"

	"secdash/pkg/cmd"
)

//go:embed VERSION
var Version string

func main() {
	if err := cmd.NewRootCommand(strings.TrimSpace(Version)).Execute(); err != nil {
		os.Exit(1)
	}
}
