package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/paasops/paas-mcp/internal/constants"
)

// Environment is one deployment target (dev, test, production, ...).
type Environment struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	IsProduction bool   `json:"isProduction"`
}

// Application is a deployable unit hosted on the platform.
type Application struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Deployment tracks one promotion of an application between
// environments.
type Deployment struct {
	ID          string `json:"id"`
	Application string `json:"application"`
	Source      string `json:"source"`
	Target      string `json:"target"`
	Status      string `json:"status"`
	StartedAt   string `json:"startedAt"`
	FinishedAt  string `json:"finishedAt,omitempty"`
}

// DatabaseExport tracks one database export job.
type DatabaseExport struct {
	ID          string `json:"id"`
	Environment string `json:"environment"`
	Status      string `json:"status"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// storageInfo is the lifecycle API's handle to the log storage account.
type storageInfo struct {
	ConnectionString string `json:"connectionString"`
}

// ListEnvironments returns the account's environments, cached briefly:
// environment topology changes rarely and the MCP client tends to ask
// repeatedly within one conversation.
func (c *Client) ListEnvironments(ctx context.Context) ([]Environment, error) {
	return cachedGet[[]Environment](ctx, c, "/environments", constants.EnvironmentCacheTTL)
}

// ListApplications returns the deployable applications, cached briefly.
func (c *Client) ListApplications(ctx context.Context) ([]Application, error) {
	return cachedGet[[]Application](ctx, c, "/applications", constants.ApplicationCacheTTL)
}

// TriggerDeployment starts promoting application from source to target
// and returns the created deployment record.
func (c *Client) TriggerDeployment(ctx context.Context, application, source, target string) (*Deployment, error) {
	body := map[string]string{
		"application": application,
		"source":      source,
		"target":      target,
	}
	var deployment Deployment
	if err := c.post(ctx, "/deployments", body, &deployment); err != nil {
		return nil, err
	}
	c.log.Infof("deployment %s started: %s %s -> %s", deployment.ID, application, source, target)
	return &deployment, nil
}

// DeploymentStatus fetches the current state of a deployment. Never
// cached; status polling needs fresh answers.
func (c *Client) DeploymentStatus(ctx context.Context, id string) (*Deployment, error) {
	var deployment Deployment
	if err := c.get(ctx, "/deployments/"+url.PathEscape(id), &deployment); err != nil {
		return nil, err
	}
	return &deployment, nil
}

// StartDatabaseExport kicks off an export of the environment's database
// and returns the job record.
func (c *Client) StartDatabaseExport(ctx context.Context, environment string) (*DatabaseExport, error) {
	body := map[string]string{"environment": environment}
	var export DatabaseExport
	if err := c.post(ctx, "/database-exports", body, &export); err != nil {
		return nil, err
	}
	c.log.Infof("database export %s started for %s", export.ID, environment)
	return &export, nil
}

// ExportStatus fetches the state of a database export job, including
// the download URL once the export has completed.
func (c *Client) ExportStatus(ctx context.Context, id string) (*DatabaseExport, error) {
	var export DatabaseExport
	if err := c.get(ctx, "/database-exports/"+url.PathEscape(id), &export); err != nil {
		return nil, err
	}
	return &export, nil
}

// StorageConnectionString resolves the connection string of the log
// storage account. Deliberately uncached: it is credential material and
// must not outlive its server-side rotation.
func (c *Client) StorageConnectionString(ctx context.Context) (string, error) {
	var info storageInfo
	if err := c.get(ctx, "/storage-info", &info); err != nil {
		return "", err
	}
	if info.ConnectionString == "" {
		return "", fmt.Errorf("storage-info response carried no connection string")
	}
	return info.ConnectionString, nil
}
