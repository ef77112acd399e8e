package tools

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/paasops/paas-mcp/internal/api"
	"github.com/paasops/paas-mcp/internal/blobstore"
	"github.com/paasops/paas-mcp/internal/config"
	internalhttp "github.com/paasops/paas-mcp/internal/http"
	"github.com/paasops/paas-mcp/internal/logging"
	"github.com/paasops/paas-mcp/internal/version"
)

// NewServer builds the MCP server with every tool registered.
func NewServer(h *Handlers) *server.MCPServer {
	s := server.NewMCPServer(
		"paas-mcp",
		version.Version,
		server.WithToolCapabilities(true),
	)

	s.AddTools(
		server.ServerTool{Tool: listEnvironmentsTool(), Handler: h.handleListEnvironments},
		server.ServerTool{Tool: listApplicationsTool(), Handler: h.handleListApplications},
		server.ServerTool{Tool: triggerDeploymentTool(), Handler: h.handleTriggerDeployment},
		server.ServerTool{Tool: deploymentStatusTool(), Handler: h.handleDeploymentStatus},
		server.ServerTool{Tool: exportDatabaseTool(), Handler: h.handleExportDatabase},
		server.ServerTool{Tool: exportStatusTool(), Handler: h.handleExportStatus},
		server.ServerTool{Tool: listContainersTool(), Handler: h.handleListContainers},
		server.ServerTool{Tool: listLogBlobsTool(), Handler: h.handleListLogBlobs},
		server.ServerTool{Tool: downloadLogsTool(), Handler: h.handleDownloadLogs},
		server.ServerTool{Tool: parseCommandTool(), Handler: h.handleParseCommand},
	)
	return s
}

// Run wires the handlers from cfg and serves MCP on stdio until ctx is
// cancelled or stdin closes.
func Run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	apiClient, err := api.NewClient(cfg, logger)
	if err != nil {
		return err
	}
	defer apiClient.Close()

	streamClient := internalhttp.NewStreamClient()
	lister := blobstore.NewLister(streamClient, logger)
	if cfg.MaxListPages > 0 {
		lister.SetMaxPages(cfg.MaxListPages)
	}
	streamer := blobstore.NewStreamer(streamClient, logger)

	h := NewHandlers(cfg, apiClient, lister, streamer, logger)
	s := NewServer(h)

	return serveStdio(ctx, s, os.Stdin, os.Stdout)
}

// serveStdio runs the stdio transport. Protocol errors are logged to
// stderr; stdout belongs to the JSON-RPC stream.
func serveStdio(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(log.New(os.Stderr, "[mcp] ", log.LstdFlags))
	return stdio.Listen(ctx, in, out)
}
