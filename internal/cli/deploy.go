package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/paasops/paas-mcp/internal/api"
)

// newDeployCmd creates the 'deploy' command.
func newDeployCmd() *cobra.Command {
	var (
		source     string
		wait       bool
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "deploy <application> <target-environment>",
		Short: "Deploy an application to a target environment",
		Long: `Trigger a deployment of an application to a target environment.

Examples:
  # Deploy and return immediately with the deployment record
  paas-mcp deploy shop production

  # Deploy from an explicit source environment and wait for completion
  paas-mcp deploy shop production --from test --wait`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()
			application, target := args[0], args[1]

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			apiClient, err := api.NewClient(cfg, GetLogger())
			if err != nil {
				return fmt.Errorf("failed to create API client: %w", err)
			}
			defer apiClient.Close()

			deployment, err := apiClient.TriggerDeployment(ctx, application, source, target)
			if err != nil {
				return fmt.Errorf("failed to trigger deployment: %w", err)
			}

			if wait {
				deployment, err = waitForDeployment(apiClient, deployment.ID)
				if err != nil {
					return err
				}
			}

			if outputJSON {
				data, err := json.MarshalIndent(deployment, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}
			fmt.Printf("Deployment %s: %s -> %s (%s)\n",
				deployment.ID, deployment.Application, deployment.Target, deployment.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "from", "", "Source environment (defaults to the platform's choice)")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until the deployment finishes")
	cmd.Flags().BoolVarP(&outputJSON, "json", "J", false, "Output as JSON")

	return cmd
}

// waitForDeployment polls deployment status until it leaves the
// running states or the context is cancelled.
func waitForDeployment(apiClient *api.Client, id string) (*api.Deployment, error) {
	ctx := GetContext()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		deployment, err := apiClient.DeploymentStatus(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to poll deployment: %w", err)
		}
		switch deployment.Status {
		case "pending", "running", "in_progress":
			GetLogger().Infof("deployment %s: %s", id, deployment.Status)
		default:
			return deployment, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
