// paas-mcp - MCP server and CLI for the PaaS deployment workflow
package main

import (
	"os"

	"github.com/paasops/paas-mcp/internal/cli"
	"github.com/paasops/paas-mcp/internal/version"
)

// Version information - overridden by the Makefile via LDFLAGS
var (
	Version   = "v1.0.0-dev"
	BuildTime = "unknown"
)

func main() {
	// Set version in the version package (canonical source for all packages)
	version.Version = Version
	version.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
