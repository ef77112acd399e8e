package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paasops/paas-mcp/internal/tools"
)

// newServeCmd creates the 'serve' command, the MCP entry point.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP tools over stdio",
		Long: `Run the MCP server on stdin/stdout.

The process speaks MCP JSON-RPC on stdout, so this command never
writes anything else there. Diagnostics go to stderr. Point an MCP
client (e.g. an assistant runtime) at this command:

  paas-mcp serve --api-url https://lifecycle.example.com/api/v1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			log := GetLogger()
			log.Infof("starting MCP server (pid %d)", os.Getpid())
			if err := tools.Run(GetContext(), cfg, log); err != nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
}
