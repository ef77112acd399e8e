package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paasops/paas-mcp/internal/api"
)

// newEnvironmentsCmd creates the 'environments' command.
func newEnvironmentsCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:     "environments",
		Aliases: []string{"envs"},
		Short:   "List the deployment environments of the account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			apiClient, err := api.NewClient(cfg, GetLogger())
			if err != nil {
				return fmt.Errorf("failed to create API client: %w", err)
			}
			defer apiClient.Close()

			envs, err := apiClient.ListEnvironments(ctx)
			if err != nil {
				return fmt.Errorf("failed to list environments: %w", err)
			}

			if outputJSON {
				data, err := json.MarshalIndent(envs, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			if len(envs) == 0 {
				fmt.Println("No environments found")
				return nil
			}
			maxKeyWidth := 0
			for _, env := range envs {
				if len(env.Key) > maxKeyWidth {
					maxKeyWidth = len(env.Key)
				}
			}
			for _, env := range envs {
				marker := ""
				if env.IsProduction {
					marker = "  (production)"
				}
				fmt.Printf("  %-*s  %s%s\n", maxKeyWidth, env.Key, env.Name, marker)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&outputJSON, "json", "J", false, "Output as JSON")

	return cmd
}
