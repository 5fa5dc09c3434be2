package main

import (
	_ "embed"
	"strings"

	"mediasort/cmd"
)

//go:embed VERSION
var embeddedVersion string

func init() {
	v := strings.TrimSpace(embeddedVersion)
	if v != "" && cmd.Version == "dev" {
		cmd.Version = v
	}
	// rootCmd captured Version in its init
	cmd.ApplyVersion()
}
