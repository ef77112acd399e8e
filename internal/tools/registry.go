// Package tools exposes the deployment workflow as MCP tools over
// stdio JSON-RPC. Handlers validate arguments server-side and return
// JSON text results; all diagnostics go to stderr, never stdout.
package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func listEnvironmentsTool() mcp.Tool {
	return mcp.NewTool(
		"list_environments",
		mcp.WithDescription("List the deployment environments of the account (dev, test, production, ...). Results are cached briefly server-side."),
		mcp.WithTitleAnnotation("List Environments"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func listApplicationsTool() mcp.Tool {
	return mcp.NewTool(
		"list_applications",
		mcp.WithDescription("List the deployable applications hosted on the platform, with their current versions."),
		mcp.WithTitleAnnotation("List Applications"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func triggerDeploymentTool() mcp.Tool {
	return mcp.NewTool(
		"trigger_deployment",
		mcp.WithDescription("Start deploying an application to a target environment. Returns the created deployment record; poll deployment_status for progress."),
		mcp.WithTitleAnnotation("Trigger Deployment"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithString("application",
			mcp.Description("Application key, as returned by list_applications"),
			mcp.Required(),
		),
		mcp.WithString("target",
			mcp.Description("Target environment key, as returned by list_environments"),
			mcp.Required(),
		),
		mcp.WithString("source",
			mcp.Description("Source environment key. Defaults to the environment currently holding the latest tagged version."),
		),
	)
}

func deploymentStatusTool() mcp.Tool {
	return mcp.NewTool(
		"deployment_status",
		mcp.WithDescription("Get the current status of a deployment started with trigger_deployment."),
		mcp.WithTitleAnnotation("Deployment Status"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("deployment_id",
			mcp.Description("Deployment identifier"),
			mcp.Required(),
		),
	)
}

func exportDatabaseTool() mcp.Tool {
	return mcp.NewTool(
		"export_database",
		mcp.WithDescription("Start an export of an environment's database. Returns the export job; poll export_status until it carries a download URL."),
		mcp.WithTitleAnnotation("Export Database"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithString("environment",
			mcp.Description("Environment key whose database should be exported"),
			mcp.Required(),
		),
	)
}

func exportStatusTool() mcp.Tool {
	return mcp.NewTool(
		"export_status",
		mcp.WithDescription("Get the status of a database export job, including the download URL once finished."),
		mcp.WithTitleAnnotation("Export Status"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("export_id",
			mcp.Description("Export job identifier"),
			mcp.Required(),
		),
	)
}

func listContainersTool() mcp.Tool {
	return mcp.NewTool(
		"list_containers",
		mcp.WithDescription("List the containers of the storage account. Requires the account key; the request is signed with Shared Key authorization."),
		mcp.WithTitleAnnotation("List Containers"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func listLogBlobsTool() mcp.Tool {
	return mcp.NewTool(
		"list_log_blobs",
		mcp.WithDescription("Enumerate the log blobs in the configured storage container, optionally narrowed to a UTC time window. Log blobs are partitioned per clock hour."),
		mcp.WithTitleAnnotation("List Log Blobs"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("container",
			mcp.Description("Storage container to enumerate. Defaults to the configured log container."),
		),
		mcp.WithNumber("minutes_back",
			mcp.Description("Keep only blobs overlapping the last N minutes of UTC time"),
		),
		mcp.WithString("start_time",
			mcp.Description("Window start, RFC 3339 UTC (alternative to minutes_back; requires end_time)"),
		),
		mcp.WithString("end_time",
			mcp.Description("Window end, RFC 3339 UTC"),
		),
	)
}

func downloadLogsTool() mcp.Tool {
	return mcp.NewTool(
		"download_logs",
		mcp.WithDescription("Download and return log lines from the blobs overlapping a UTC time window. Lines are streamed in order; gzip blobs are decompressed transparently. Output is capped by max_lines."),
		mcp.WithTitleAnnotation("Download Logs"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("container",
			mcp.Description("Storage container holding the log blobs. Defaults to the configured log container."),
		),
		mcp.WithNumber("minutes_back",
			mcp.Description("Stream blobs overlapping the last N minutes of UTC time"),
		),
		mcp.WithString("start_time",
			mcp.Description("Window start, RFC 3339 UTC (alternative to minutes_back; requires end_time)"),
		),
		mcp.WithString("end_time",
			mcp.Description("Window end, RFC 3339 UTC"),
		),
		mcp.WithNumber("max_lines",
			mcp.Description("Maximum log lines to return (default 500, max 5000)"),
		),
		mcp.WithString("filter",
			mcp.Description("Keep only lines containing this substring (case-insensitive)"),
		),
	)
}

func parseCommandTool() mcp.Tool {
	return mcp.NewTool(
		"parse_command",
		mcp.WithDescription("Parse a natural-language operations request (e.g. 'deploy shop to production', 'download logs from the last 2 hours') into a structured command without executing it."),
		mcp.WithTitleAnnotation("Parse Command"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("text",
			mcp.Description("The request to parse"),
			mcp.Required(),
		),
	)
}
