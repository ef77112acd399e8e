// Package cli provides the command-line interface for paas-mcp.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/paasops/paas-mcp/internal/config"
	"github.com/paasops/paas-mcp/internal/logging"
	"github.com/paasops/paas-mcp/internal/version"
)

var (
	// Global flags
	apiKey     string
	apiBaseURL string
	connString string
	verbose    bool
	debug      bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "paas-mcp",
		Short: "MCP server and CLI for the PaaS deployment workflow",
		Long: `paas-mcp ` + version.Version + ` - Built: ` + version.BuildTime + `
Exposes the platform deployment workflow (environments, deployments,
database exports, log retrieval) as MCP tools over stdio, and as
plain CLI commands for scripting.

MCP mode:
  paas-mcp serve        # speak MCP JSON-RPC on stdin/stdout

CLI mode:
  paas-mcp logs list --minutes-back 60
  paas-mcp logs download --minutes-back 60 -o app.log`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// All logging goes to stderr; stdout carries command output
			// or, in serve mode, the protocol stream.
			logger = logging.NewDefault()
			if verbose || debug {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Lifecycle API key (overrides PAAS_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api-url", "", "Lifecycle API base URL (overrides PAAS_API_URL)")
	rootCmd.PersistentFlags().StringVar(&connString, "connection-string", "", "Storage connection string (overrides PAAS_STORAGE_CONNECTION_STRING)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	return rootCmd
}

// loadConfig reads the environment configuration and layers the global
// flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	if apiBaseURL != "" {
		cfg.APIBaseURL = apiBaseURL
	}
	if connString != "" {
		cfg.StorageConnectionString = connString
	}
	if verbose || debug {
		cfg.Verbose = true
	}
	return cfg, nil
}

// Execute runs the CLI.
func Execute() error {
	// Create a context that can be cancelled by signals
	rootContext, cancelFunc = context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling operations...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newLogsCmd())
	rootCmd.AddCommand(newEnvironmentsCmd())
	rootCmd.AddCommand(newDeployCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}
