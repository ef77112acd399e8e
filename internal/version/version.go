// Package version holds build metadata injected by the main package.
package version

// Version and BuildTime are set at startup from cmd/paas-mcp.
// The Makefile injects release values via LDFLAGS.
var (
	Version   = "v0.3.0-dev"
	BuildTime = "unknown"
)
