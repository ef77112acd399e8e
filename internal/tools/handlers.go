package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/paasops/paas-mcp/internal/api"
	"github.com/paasops/paas-mcp/internal/blobstore"
	"github.com/paasops/paas-mcp/internal/config"
	"github.com/paasops/paas-mcp/internal/constants"
	"github.com/paasops/paas-mcp/internal/logging"
	"github.com/paasops/paas-mcp/internal/parser"
	"github.com/paasops/paas-mcp/internal/retry"
)

const (
	defaultMaxLines = 500
	hardMaxLines    = 5000
	// maxBlobsPerRequest bounds one download_logs call; a wider window
	// should be fetched in slices.
	maxBlobsPerRequest = 48
)

// Handlers binds the MCP tools to the lifecycle API client and the
// storage core.
type Handlers struct {
	cfg      *config.Config
	api      *api.Client
	lister   *blobstore.Lister
	streamer *blobstore.Streamer
	log      *logging.Logger
}

// NewHandlers wires the tool handlers.
func NewHandlers(cfg *config.Config, apiClient *api.Client, lister *blobstore.Lister, streamer *blobstore.Streamer, log *logging.Logger) *Handlers {
	return &Handlers{
		cfg:      cfg,
		api:      apiClient,
		lister:   lister,
		streamer: streamer,
		log:      log,
	}
}

// jsonResult marshals v as indented JSON into a text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(encoded)), nil
}

func (h *Handlers) handleListEnvironments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	envs, err := h.api.ListEnvironments(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list environments: %v", err)), nil
	}
	return jsonResult(envs)
}

func (h *Handlers) handleListApplications(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	apps, err := h.api.ListApplications(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list applications: %v", err)), nil
	}
	return jsonResult(apps)
}

func (h *Handlers) handleTriggerDeployment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	application, err := request.RequireString("application")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := request.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	source := request.GetString("source", "")

	deployment, err := h.api.TriggerDeployment(ctx, application, source, target)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("trigger deployment: %v", err)), nil
	}
	return jsonResult(deployment)
}

func (h *Handlers) handleDeploymentStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("deployment_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	deployment, err := h.api.DeploymentStatus(ctx, id)
	if err != nil {
		if api.IsNotFound(err) {
			return mcp.NewToolResultError(fmt.Sprintf("deployment %q not found", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("deployment status: %v", err)), nil
	}
	return jsonResult(deployment)
}

func (h *Handlers) handleExportDatabase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	environment, err := request.RequireString("environment")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	export, err := h.api.StartDatabaseExport(ctx, environment)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export database: %v", err)), nil
	}
	return jsonResult(export)
}

func (h *Handlers) handleExportStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("export_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	export, err := h.api.ExportStatus(ctx, id)
	if err != nil {
		if api.IsNotFound(err) {
			return mcp.NewToolResultError(fmt.Sprintf("export %q not found", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("export status: %v", err)), nil
	}
	return jsonResult(export)
}

func (h *Handlers) handleParseCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cmd, err := parseCommandText(text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(cmd)
}

// parsedCommand is the JSON shape returned by parse_command.
type parsedCommand struct {
	Action       string `json:"action"`
	Application  string `json:"application,omitempty"`
	Source       string `json:"source,omitempty"`
	Target       string `json:"target,omitempty"`
	Environment  string `json:"environment,omitempty"`
	DeploymentID string `json:"deployment_id,omitempty"`
	MinutesBack  int    `json:"minutes_back,omitempty"`
}

func parseCommandText(text string) (parsedCommand, error) {
	cmd, err := parser.Parse(text)
	if err != nil {
		return parsedCommand{}, err
	}
	return parsedCommand{
		Action:       string(cmd.Action),
		Application:  cmd.Application,
		Source:       cmd.Source,
		Target:       cmd.Target,
		Environment:  cmd.Environment,
		DeploymentID: cmd.DeploymentID,
		MinutesBack:  cmd.MinutesBack,
	}, nil
}

// windowFromRequest builds the optional time window shared by the log
// tools: minutes_back wins, then an explicit start/end pair.
func windowFromRequest(request mcp.CallToolRequest) (*blobstore.Window, error) {
	if minutes := request.GetInt("minutes_back", 0); minutes > 0 {
		w := blobstore.LastMinutes(minutes)
		return &w, nil
	}

	start := request.GetString("start_time", "")
	end := request.GetString("end_time", "")
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, fmt.Errorf("start_time and end_time must be given together")
	}

	startAt, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return nil, fmt.Errorf("start_time: %v", err)
	}
	endAt, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return nil, fmt.Errorf("end_time: %v", err)
	}
	if !endAt.After(startAt) {
		return nil, fmt.Errorf("end_time must be after start_time")
	}
	return &blobstore.Window{Start: startAt.UTC(), End: endAt.UTC()}, nil
}

// resolveCredentials parses the configured connection string, asking
// the lifecycle API for one when none is set locally.
func (h *Handlers) resolveCredentials(ctx context.Context) (blobstore.Credentials, error) {
	conn := h.cfg.StorageConnectionString
	if conn == "" {
		var err error
		err = retry.Do(ctx, h.retryConfig(), func() error {
			conn, err = h.api.StorageConnectionString(ctx)
			return err
		})
		if err != nil {
			return blobstore.Credentials{}, fmt.Errorf("resolve storage connection: %w", err)
		}
	}
	return blobstore.ParseConnectionString(conn)
}

// authorizedContainerURL resolves storage credentials, mints a scoped
// SAS token and returns the ready-to-list container URL.
func (h *Handlers) authorizedContainerURL(ctx context.Context, container string) (string, error) {
	creds, err := h.resolveCredentials(ctx)
	if err != nil {
		return "", err
	}

	expiry := time.Duration(h.cfg.SASExpiryHours) * time.Hour
	if expiry <= 0 {
		expiry = constants.DefaultSASExpiry
	}
	token, err := blobstore.GenerateSASToken(creds, container, constants.DefaultSASPermissions, expiry)
	if err != nil {
		return "", err
	}
	return creds.ContainerURL(container) + "?" + token, nil
}

func (h *Handlers) retryConfig() retry.Config {
	return retry.Config{
		MaxRetries:   constants.MaxRetries,
		InitialDelay: constants.RetryInitialDelay,
		MaxDelay:     constants.RetryMaxDelay,
		OnRetry: func(attempt int, err error, errType retry.ErrorType) {
			h.log.Warnf("retrying (%s, attempt %d): %v", errType.Name(), attempt, err)
		},
	}
}

func (h *Handlers) handleListContainers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	creds, err := h.resolveCredentials(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var names []string
	err = retry.Do(ctx, h.retryConfig(), func() error {
		names, err = h.lister.ListContainers(ctx, creds.BlobEndpoint(), creds)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list containers: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"account":    creds.AccountName,
		"containers": names,
	})
}

func (h *Handlers) handleListLogBlobs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	window, err := windowFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	container := request.GetString("container", h.cfg.LogContainer)

	containerURL, err := h.authorizedContainerURL(ctx, container)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var urls []string
	err = retry.Do(ctx, h.retryConfig(), func() error {
		urls, err = h.lister.ListBlobs(ctx, containerURL)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list blobs: %v", err)), nil
	}

	selected := blobstore.FilterByWindow(urls, window)

	type blobEntry struct {
		Name string `json:"name"`
		Hour string `json:"hour,omitempty"`
	}
	entries := make([]blobEntry, 0, len(selected))
	for _, u := range selected {
		entry := blobEntry{Name: blobName(u, container)}
		if part, ok := blobstore.ParsePartition(u); ok {
			entry.Hour = part.HourStart().Format(time.RFC3339)
		}
		entries = append(entries, entry)
	}

	return jsonResult(map[string]any{
		"container": container,
		"total":     len(urls),
		"selected":  len(selected),
		"blobs":     entries,
	})
}

func (h *Handlers) handleDownloadLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	window, err := windowFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	container := request.GetString("container", h.cfg.LogContainer)

	maxLines := request.GetInt("max_lines", defaultMaxLines)
	if maxLines <= 0 {
		maxLines = defaultMaxLines
	}
	if maxLines > hardMaxLines {
		maxLines = hardMaxLines
	}
	filter := strings.ToLower(request.GetString("filter", ""))

	containerURL, err := h.authorizedContainerURL(ctx, container)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var urls []string
	err = retry.Do(ctx, h.retryConfig(), func() error {
		urls, err = h.lister.ListBlobs(ctx, containerURL)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list blobs: %v", err)), nil
	}

	selected := blobstore.FilterByWindow(urls, window)
	truncatedBlobs := false
	if len(selected) > maxBlobsPerRequest {
		selected = selected[:maxBlobsPerRequest]
		truncatedBlobs = true
	}

	lines := make([]string, 0, min(maxLines, 256))
	var totalBytes, totalLines, handlerErrors int64
	truncatedLines := false

	for _, blobURL := range selected {
		if truncatedLines {
			break
		}
		stats, err := h.streamer.StreamLines(ctx, blobURL, func(line string) error {
			if filter != "" && !strings.Contains(strings.ToLower(line), filter) {
				return nil
			}
			if len(lines) >= maxLines {
				truncatedLines = true
				return nil
			}
			lines = append(lines, line)
			return nil
		})
		totalBytes += stats.BytesDownloaded
		totalLines += stats.LinesProcessed
		handlerErrors += stats.HandlerErrors
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("stream %s: %v", blobName(blobURL, container), err)), nil
		}
	}

	return jsonResult(map[string]any{
		"container":       container,
		"blobs_streamed":  len(selected),
		"blobs_truncated": truncatedBlobs,
		"lines":           lines,
		"lines_returned":  len(lines),
		"lines_scanned":   totalLines,
		"lines_truncated": truncatedLines,
		"bytes":           totalBytes,
		"handler_errors":  handlerErrors,
	})
}

// blobName strips the account/container prefix and the SAS query for
// display.
func blobName(blobURL, container string) string {
	name := blobURL
	if idx := strings.Index(name, "?"); idx >= 0 {
		name = name[:idx]
	}
	marker := "/" + container + "/"
	if idx := strings.Index(name, marker); idx >= 0 {
		name = name[idx+len(marker):]
	}
	return name
}
